package obsoper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/obsoper/internal/db"
	dbMemory "github.com/kailas-cloud/obsoper/internal/db/memory"
	dbRedis "github.com/kailas-cloud/obsoper/internal/db/redis"
	dommodel "github.com/kailas-cloud/obsoper/internal/domain/model"
	"github.com/kailas-cloud/obsoper/internal/domain/ndarray"
	modelrepo "github.com/kailas-cloud/obsoper/internal/repository/model"
	"github.com/kailas-cloud/obsoper/internal/search"
	healthuc "github.com/kailas-cloud/obsoper/internal/usecase/health"
	interpuc "github.com/kailas-cloud/obsoper/internal/usecase/interpolation"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "obsoper:"
)

// interpUseCase is the internal interface for grid storage and lookups.
type interpUseCase interface {
	Create(ctx context.Context, name string, layout dommodel.Layout, lons, lats [][]float64, halo bool) (dommodel.Model, error)
	Get(ctx context.Context, name string) (dommodel.Model, error)
	List(ctx context.Context) ([]dommodel.Summary, error)
	Delete(ctx context.Context, name string) error
	LowerLeft(ctx context.Context, name string, lons, lats []float64) (i, j []int, err error)
	Interpolate(ctx context.Context, name string, lons, lats []float64, field *ndarray.Array) (interpuc.Interpolation, error)
}

// Client is the obsoper SDK entry point.
type Client struct {
	store     db.Store
	codec     *modelrepo.Codec
	interpSvc interpUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("obsoper: storage required (use WithRedis or WithMemory)")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("obsoper: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	c, err := wireClient(store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "redis":
		if len(cfg.addrs) == 0 || cfg.addrs[0] == "" {
			return nil, errors.New("obsoper: redis address required")
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("obsoper: create redis store: %w", err)
		}
		return s, nil
	case "memory":
		return dbMemory.NewStore(), nil
	default:
		return nil, fmt.Errorf("obsoper: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	searchOpts, err := searchOptions(cfg)
	if err != nil {
		return nil, err
	}

	codec, err := modelrepo.NewCodec()
	if err != nil {
		return nil, fmt.Errorf("obsoper: create codec: %w", err)
	}
	repo := modelrepo.New(store, codec, cfg.keyPrefix)

	interpSvc, err := interpuc.New(repo,
		interpuc.WithSearchOptions(searchOpts...),
		interpuc.WithCacheSize(cfg.cacheSize),
	)
	if err != nil {
		codec.Close()
		return nil, fmt.Errorf("obsoper: create interpolation service: %w", err)
	}

	return &Client{
		store:     store,
		codec:     codec,
		interpSvc: interpSvc,
		healthSvc: healthuc.New(store, interpSvc),
		obs:       obs,
	}, nil
}

func searchOptions(cfg *clientConfig) ([]search.Option, error) {
	cell, ok := search.NewCellTest(cfg.cell)
	if !ok {
		return nil, fmt.Errorf("obsoper: unknown cell test %q", cfg.cell)
	}
	return []search.Option{
		search.WithCellTest(cell),
		search.WithWorkers(cfg.workers),
		search.WithNeighbours(cfg.neighbours),
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.codec != nil {
		c.codec.Close()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Grids returns the grid management service.
func (c *Client) Grids() *GridService {
	return &GridService{svc: c.interpSvc, obs: c.obs}
}

// LowerLeft returns the (i, j) of the cell containing each point. Indices
// refer to the grid as stored, halo included.
func (c *Client) LowerLeft(ctx context.Context, grid string, lons, lats []float64) (i, j []int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("lower_left", start, err) }()

	return c.interpSvc.LowerLeft(ctx, grid, lons, lats) //nolint:wrapcheck // usecase errors already carry context
}

// Interpolate maps a (Ni, Nj) or (Ni, Nj, K) field on grid to the
// observation positions.
func (c *Client) Interpolate(
	ctx context.Context, grid string, lons, lats []float64, field Field,
) (res Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("interpolate", start, err) }()

	arr, err := field.toArray()
	if err != nil {
		return Result{}, err
	}
	out, err := c.interpSvc.Interpolate(ctx, grid, lons, lats, arr)
	if err != nil {
		return Result{}, err //nolint:wrapcheck // usecase errors already carry context
	}
	return Result{Included: out.Included, Values: fieldFromArray(out.Values)}, nil
}
