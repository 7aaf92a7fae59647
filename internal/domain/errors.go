package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidModel signals a model definition that fails validation.
	ErrInvalidModel = errors.New("invalid model")
	// ErrInvalidGrid signals a malformed grid definition.
	ErrInvalidGrid = errors.New("invalid grid")
	// ErrNotInGrid signals a query point outside a rectilinear grid.
	ErrNotInGrid = errors.New("point not in grid")
	// ErrSearchFailed signals that no cell containing a point could be found.
	ErrSearchFailed = errors.New("search failed")
	// ErrShapeMismatch signals incompatible array shapes.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrUnknownAlgorithm signals an unsupported search or boundary name.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
)

// SearchFailedError wraps ErrSearchFailed with the point and the candidates tried.
type SearchFailedError struct {
	Longitude float64
	Latitude  float64
	I         []int
	J         []int
}

func (e *SearchFailedError) Error() string {
	return fmt.Sprintf("%s: could not find (%g, %g) given i=%v, j=%v",
		ErrSearchFailed.Error(), e.Longitude, e.Latitude, e.I, e.J)
}

func (e *SearchFailedError) Unwrap() error { return ErrSearchFailed }

// NewSearchFailed creates a search failure error.
func NewSearchFailed(lon, lat float64, i, j []int) error {
	return &SearchFailedError{Longitude: lon, Latitude: lat, I: i, J: j}
}
