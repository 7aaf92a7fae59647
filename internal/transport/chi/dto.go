package chi

import (
	"fmt"
	"strconv"

	dommodel "github.com/kailas-cloud/obsoper/internal/domain/model"
	"github.com/kailas-cloud/obsoper/internal/domain/ndarray"
)

// ErrorCode is the machine-readable error kind returned to clients.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest        ErrorCode = "bad_request"
	ErrorCodeUnauthorized      ErrorCode = "unauthorized"
	ErrorCodeValidationFailed  ErrorCode = "validation_failed"
	ErrorCodeGridNotFound      ErrorCode = "grid_not_found"
	ErrorCodeGridAlreadyExists ErrorCode = "grid_already_exists"
	ErrorCodeShapeMismatch     ErrorCode = "shape_mismatch"
	ErrorCodeNotInGrid         ErrorCode = "not_in_grid"
	ErrorCodeSearchFailed      ErrorCode = "search_failed"
	ErrorCodeUnknownAlgorithm  ErrorCode = "unknown_algorithm"
	ErrorCodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

type createGridRequest struct {
	Name   string      `json:"name"`
	Layout string      `json:"layout,omitempty"`
	Halo   bool        `json:"halo,omitempty"`
	Lons   [][]float64 `json:"lons"`
	Lats   [][]float64 `json:"lats"`
}

type gridResponse struct {
	Name        string `json:"name"`
	Layout      string `json:"layout"`
	Halo        bool   `json:"halo"`
	Ni          int    `json:"ni"`
	Nj          int    `json:"nj"`
	CreatedAt   int64  `json:"created_at"`
	Fingerprint string `json:"fingerprint"`
}

type listGridsResponse struct {
	Grids []gridResponse `json:"grids"`
}

type pointsRequest struct {
	Lons []float64 `json:"lons"`
	Lats []float64 `json:"lats"`
}

type lowerLeftResponse struct {
	I []int `json:"i"`
	J []int `json:"j"`
}

// arrayDTO carries an n-dimensional array in row-major order. A null value
// is a missing element.
type arrayDTO struct {
	Shape  []int      `json:"shape"`
	Values []*float64 `json:"values"`
}

type interpolateRequest struct {
	Lons  []float64 `json:"lons"`
	Lats  []float64 `json:"lats"`
	Field arrayDTO  `json:"field"`
}

type interpolateResponse struct {
	Included []bool   `json:"included"`
	Values   arrayDTO `json:"values"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func summaryToResponse(s dommodel.Summary) gridResponse {
	return gridResponse{
		Name:        s.Name,
		Layout:      string(s.Layout),
		Halo:        s.Halo,
		Ni:          s.Ni,
		Nj:          s.Nj,
		CreatedAt:   s.CreatedAt,
		Fingerprint: strconv.FormatUint(s.Fingerprint, 16),
	}
}

func (a arrayDTO) toArray() (*ndarray.Array, error) {
	data := make([]float64, len(a.Values))
	var mask []bool
	for k, v := range a.Values {
		if v == nil {
			if mask == nil {
				mask = make([]bool, len(a.Values))
			}
			mask[k] = true
			continue
		}
		data[k] = *v
	}
	arr, err := ndarray.Masked(data, mask, a.Shape...)
	if err != nil {
		return nil, fmt.Errorf("field: %w", err)
	}
	return arr, nil
}

func arrayToDTO(a *ndarray.Array) arrayDTO {
	out := arrayDTO{Shape: a.Shape(), Values: make([]*float64, a.Size())}
	for k := range out.Values {
		if v, ok := a.Value(k); ok {
			out.Values[k] = &v
		}
	}
	return out
}
