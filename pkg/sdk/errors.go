package obsoper

import "github.com/kailas-cloud/obsoper/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound         = domain.ErrNotFound
	ErrAlreadyExists    = domain.ErrAlreadyExists
	ErrInvalidModel     = domain.ErrInvalidModel
	ErrInvalidGrid      = domain.ErrInvalidGrid
	ErrNotInGrid        = domain.ErrNotInGrid
	ErrSearchFailed     = domain.ErrSearchFailed
	ErrShapeMismatch    = domain.ErrShapeMismatch
	ErrUnknownAlgorithm = domain.ErrUnknownAlgorithm
)
