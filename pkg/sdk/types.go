package obsoper

import (
	"fmt"

	dommodel "github.com/kailas-cloud/obsoper/internal/domain/model"
	"github.com/kailas-cloud/obsoper/internal/domain/ndarray"
)

// Layout names how a grid is searched and which points count as inside it.
type Layout string

// Layout constants.
const (
	LayoutRegional Layout = "regional"
	LayoutTripolar Layout = "tripolar"
	LayoutRegular  Layout = "regular"
)

// GridInfo describes a stored grid.
type GridInfo struct {
	Name        string
	Layout      Layout
	Halo        bool
	Ni, Nj      int
	CreatedAt   int64
	Fingerprint uint64
}

// Field is a row-major array. Mask, when set, has one entry per value and
// true marks a missing value.
type Field struct {
	Shape  []int
	Values []float64
	Mask   []bool
}

// Result is the outcome of one interpolation. Values has shape (N) or
// (N, K); observations outside the grid are masked and not Included.
type Result struct {
	Included []bool
	Values   Field
}

func gridInfoFromSummary(s dommodel.Summary) GridInfo {
	return GridInfo{
		Name:        s.Name,
		Layout:      Layout(s.Layout),
		Halo:        s.Halo,
		Ni:          s.Ni,
		Nj:          s.Nj,
		CreatedAt:   s.CreatedAt,
		Fingerprint: s.Fingerprint,
	}
}

func (f Field) toArray() (*ndarray.Array, error) {
	a, err := ndarray.Masked(append([]float64(nil), f.Values...), cloneMask(f.Mask), f.Shape...)
	if err != nil {
		return nil, fmt.Errorf("field: %w", err)
	}
	return a, nil
}

func fieldFromArray(a *ndarray.Array) Field {
	f := Field{Shape: a.Shape(), Values: a.Data()}
	if a.AnyMasked() {
		f.Mask = a.Mask()
	}
	return f
}

func cloneMask(m []bool) []bool {
	if m == nil {
		return nil
	}
	return append([]bool(nil), m...)
}
