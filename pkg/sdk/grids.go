package obsoper

import (
	"context"
	"time"

	dommodel "github.com/kailas-cloud/obsoper/internal/domain/model"
)

// GridOption configures grid creation.
type GridOption func(*gridConfig)

type gridConfig struct {
	layout Layout
	halo   bool
}

// WithLayout sets the grid layout. Default: LayoutRegional.
func WithLayout(l Layout) GridOption {
	return func(c *gridConfig) { c.layout = l }
}

// WithHalo marks a tripolar grid as carrying the redundant halo rows and
// columns of model diagnostics.
func WithHalo() GridOption {
	return func(c *gridConfig) { c.halo = true }
}

// GridService manages stored grids.
type GridService struct {
	svc interpUseCase
	obs *observer
}

// Create validates and stores a grid of (Ni, Nj) vertex coordinates.
func (s *GridService) Create(
	ctx context.Context, name string, lons, lats [][]float64, opts ...GridOption,
) (info GridInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("grid_create", start, err) }()

	cfg := gridConfig{layout: LayoutRegional}
	for _, o := range opts {
		o(&cfg)
	}
	m, err := s.svc.Create(ctx, name, dommodel.Layout(cfg.layout), lons, lats, cfg.halo)
	if err != nil {
		return GridInfo{}, err //nolint:wrapcheck // usecase errors already carry context
	}
	return gridInfoFromSummary(m.Summary()), nil
}

// Get returns the description of a stored grid.
func (s *GridService) Get(ctx context.Context, name string) (info GridInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("grid_get", start, err) }()

	m, err := s.svc.Get(ctx, name)
	if err != nil {
		return GridInfo{}, err //nolint:wrapcheck // usecase errors already carry context
	}
	return gridInfoFromSummary(m.Summary()), nil
}

// List returns all stored grids, oldest first.
func (s *GridService) List(ctx context.Context) (out []GridInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("grid_list", start, err) }()

	summaries, err := s.svc.List(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck // usecase errors already carry context
	}
	out = make([]GridInfo, len(summaries))
	for i, sm := range summaries {
		out[i] = gridInfoFromSummary(sm)
	}
	return out, nil
}

// Delete removes a stored grid.
func (s *GridService) Delete(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("grid_delete", start, err) }()

	return s.svc.Delete(ctx, name) //nolint:wrapcheck // usecase errors already carry context
}
