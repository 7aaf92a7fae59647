package interpolation

import (
	"context"

	dommodel "github.com/kailas-cloud/obsoper/internal/domain/model"
)

// Repository defines the storage contract for models.
type Repository interface {
	Create(ctx context.Context, m dommodel.Model) error
	Get(ctx context.Context, name string) (dommodel.Model, error)
	List(ctx context.Context) ([]dommodel.Summary, error)
	Delete(ctx context.Context, name string) error
}
