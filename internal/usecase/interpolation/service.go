// Package interpolation serves cell lookups and field interpolation over
// stored model grids.
package interpolation

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/obsoper/internal/domain"
	"github.com/kailas-cloud/obsoper/internal/domain/grid"
	dommodel "github.com/kailas-cloud/obsoper/internal/domain/model"
	"github.com/kailas-cloud/obsoper/internal/domain/ndarray"
	"github.com/kailas-cloud/obsoper/internal/horizontal"
	"github.com/kailas-cloud/obsoper/internal/logger"
	"github.com/kailas-cloud/obsoper/internal/search"
)

const defaultCacheSize = 16

// Metrics are the collectors the service reports to. Nil fields are skipped.
type Metrics struct {
	Searches       *prometheus.CounterVec   // labels: algorithm, status
	SearchDuration *prometheus.HistogramVec // labels: algorithm
	Observations   *prometheus.CounterVec   // labels: result
	Cache          *prometheus.CounterVec   // labels: result
}

// Option configures a Service.
type Option func(*Service)

// WithSearchOptions passes options to every search the service builds.
func WithSearchOptions(opts ...search.Option) Option {
	return func(s *Service) { s.searchOpts = append(s.searchOpts, opts...) }
}

// WithCacheSize bounds how many built searches are kept.
func WithCacheSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.cacheSize = n
		}
	}
}

// WithLogger sets the logger handed to cached searches. Searches outlive the
// request that built them, so the request logger is not used.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metric collectors.
func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service handles model registration, cell lookup and interpolation.
type Service struct {
	repo       Repository
	searchOpts []search.Option
	cacheSize  int
	cache      *lru.Cache // fingerprint -> search.Searcher
	metrics    Metrics
	logger     *zap.Logger
}

// New creates an interpolation service.
func New(repo Repository, opts ...Option) (*Service, error) {
	s := &Service{repo: repo, cacheSize: defaultCacheSize, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	cache, err := lru.New(s.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create search cache: %w", err)
	}
	s.cache = cache
	return s, nil
}

// Create validates and stores a new model grid.
func (s *Service) Create(
	ctx context.Context, name string, layout dommodel.Layout, lons, lats [][]float64, halo bool,
) (dommodel.Model, error) {
	g, err := grid.New(lons, lats)
	if err != nil {
		return dommodel.Model{}, fmt.Errorf("validate grid: %w", err)
	}
	m, err := dommodel.New(name, layout, g, halo)
	if err != nil {
		return dommodel.Model{}, fmt.Errorf("validate model: %w", err)
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return dommodel.Model{}, fmt.Errorf("create model: %w", err)
	}
	logger.FromContext(ctx).Info("model created",
		zap.String("name", name), zap.String("layout", string(m.Layout())),
		zap.Int("vertices", g.Len()), zap.Bool("halo", halo))
	return m, nil
}

// Get retrieves a model by name.
func (s *Service) Get(ctx context.Context, name string) (dommodel.Model, error) {
	m, err := s.repo.Get(ctx, name)
	if err != nil {
		return dommodel.Model{}, fmt.Errorf("get model: %w", err)
	}
	return m, nil
}

// List returns all model descriptions.
func (s *Service) List(ctx context.Context) ([]dommodel.Summary, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return out, nil
}

// Delete removes a model.
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete model: %w", err)
	}
	return nil
}

// LowerLeft locates the cell containing each point on the named model. The
// indices refer to the grid as stored, halo included.
func (s *Service) LowerLeft(ctx context.Context, name string, lons, lats []float64) (i, j []int, err error) {
	m, err := s.Get(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	if m.Layout() == dommodel.LayoutRegular {
		return s.regularLowerLeft(m, lons, lats)
	}

	searcher, err := s.searcher(m)
	if err != nil {
		return nil, nil, err
	}
	algorithm := algorithmFor(m.Layout())
	start := time.Now()
	i, j, err = searcher.LowerLeft(ctx, lons, lats)
	s.observeSearch(algorithm, start, err)
	if err != nil {
		return nil, nil, fmt.Errorf("lower left: %w", err)
	}
	if m.Halo() {
		for k := range i {
			i[k]++
		}
	}
	return i, j, nil
}

// Interpolation is the result of interpolating one field.
type Interpolation struct {
	Values   *ndarray.Array
	Included []bool
}

// Interpolate maps a (Ni, Nj) or (Ni, Nj, K) field on the named model to
// the observations.
func (s *Service) Interpolate(
	ctx context.Context, name string, lons, lats []float64, field *ndarray.Array,
) (Interpolation, error) {
	m, err := s.Get(ctx, name)
	if err != nil {
		return Interpolation{}, err
	}

	var op horizontal.Interpolator
	if m.Layout() == dommodel.LayoutRegular {
		op, err = horizontal.NewRegularFromGrid(m.Grid(), lons, lats)
	} else {
		op, err = s.curvilinear(ctx, m, lons, lats)
	}
	if err != nil {
		return Interpolation{}, fmt.Errorf("build interpolator: %w", err)
	}

	values, err := op.Interpolate(field)
	if err != nil {
		return Interpolation{}, fmt.Errorf("interpolate: %w", err)
	}
	included := op.Included()
	s.countObservations(included)
	return Interpolation{Values: values, Included: included}, nil
}

func (s *Service) curvilinear(ctx context.Context, m dommodel.Model, lons, lats []float64) (*horizontal.Horizontal, error) {
	searcher, err := s.searcher(m)
	if err != nil {
		return nil, err
	}
	algorithm := algorithmFor(m.Layout())
	start := time.Now()
	h, err := horizontal.New(ctx, m.Grid(), lons, lats,
		horizontal.WithSearch(algorithm),
		horizontal.WithBoundary(boundaryFor(m.Layout())),
		horizontal.WithHalo(m.Halo()),
		horizontal.WithSearcher(searcher),
	)
	s.observeSearch(algorithm, start, err)
	return h, err
}

func (s *Service) regularLowerLeft(m dommodel.Model, lons, lats []float64) ([]int, []int, error) {
	g := m.Grid()
	ni, nj := g.Shape()
	axisLons := make([]float64, ni)
	for i := range ni {
		axisLons[i] = g.Vertex(i, 0).X()
	}
	axisLats := make([]float64, nj)
	for j := range nj {
		axisLats[j] = g.Vertex(0, j).Y()
	}
	r, err := grid.NewRegular2D(axisLons, axisLats)
	if err != nil {
		return nil, nil, fmt.Errorf("regular grid: %w", err)
	}
	start := time.Now()
	res, err := r.Search(lons, lats)
	s.observeSearch(string(dommodel.LayoutRegular), start, err)
	if err != nil {
		return nil, nil, fmt.Errorf("lower left: %w", err)
	}
	return res.ILon, res.ILat, nil
}

// searcher returns the cached search for m's geometry, building it on a miss.
func (s *Service) searcher(m dommodel.Model) (search.Searcher, error) {
	key := m.Fingerprint()
	if v, ok := s.cache.Get(key); ok {
		s.incCache("hit")
		return v.(search.Searcher), nil
	}
	s.incCache("miss")

	g := m.Grid()
	if m.Halo() {
		trimmed, err := g.RemoveHalo()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidGrid, err)
		}
		g = trimmed
	}
	opts := append([]search.Option{search.WithLogger(s.logger)}, s.searchOpts...)
	built, err := search.New(g, algorithmFor(m.Layout()), opts...)
	if err != nil {
		return nil, fmt.Errorf("build search: %w", err)
	}
	s.cache.Add(key, built)
	return built, nil
}

func algorithmFor(l dommodel.Layout) string {
	if l == dommodel.LayoutTripolar {
		return search.AlgorithmTripolar
	}
	return search.AlgorithmCartesian
}

func boundaryFor(l dommodel.Layout) string {
	if l == dommodel.LayoutTripolar {
		return horizontal.BoundaryBand
	}
	return horizontal.BoundaryPolygon
}

func (s *Service) observeSearch(algorithm string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	if s.metrics.Searches != nil {
		s.metrics.Searches.WithLabelValues(algorithm, status).Inc()
	}
	if s.metrics.SearchDuration != nil {
		s.metrics.SearchDuration.WithLabelValues(algorithm).Observe(time.Since(start).Seconds())
	}
}

func (s *Service) countObservations(included []bool) {
	if s.metrics.Observations == nil {
		return
	}
	var in, out int
	for _, ok := range included {
		if ok {
			in++
		} else {
			out++
		}
	}
	s.metrics.Observations.WithLabelValues("included").Add(float64(in))
	s.metrics.Observations.WithLabelValues("excluded").Add(float64(out))
}

func (s *Service) incCache(result string) {
	if s.metrics.Cache != nil {
		s.metrics.Cache.WithLabelValues(result).Inc()
	}
}

// HealthCheck runs a lookup on a single-cell grid to confirm the search
// pipeline is usable.
func (s *Service) HealthCheck(ctx context.Context) error {
	g, err := grid.Meshgrid([]float64{0, 1}, []float64{0, 1})
	if err != nil {
		return fmt.Errorf("probe grid: %w", err)
	}
	i, j, err := search.LowerLeft(ctx, g, []float64{0.5}, []float64{0.5}, search.AlgorithmCartesian, s.searchOpts...)
	if err != nil {
		return fmt.Errorf("probe search: %w", err)
	}
	if i[0] != 0 || j[0] != 0 {
		return fmt.Errorf("%w: probe located cell (%d, %d)", domain.ErrSearchFailed, i[0], j[0])
	}
	return nil
}
