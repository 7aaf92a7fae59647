// Package search locates the grid cell that contains each observation and
// reports it by its lower-left vertex (i, j).
package search

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/obsoper/internal/domain"
	"github.com/kailas-cloud/obsoper/internal/domain/grid"
)

// Algorithm names accepted by New and LowerLeft.
const (
	AlgorithmCartesian = "cartesian"
	AlgorithmTripolar  = "tripolar"
)

// Searcher finds the lower-left vertex of the cell containing each point.
type Searcher interface {
	LowerLeft(ctx context.Context, lons, lats []float64) (i, j []int, err error)
}

// Option configures a search.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	cell       CellTest
	workers    int
	batch      int
	neighbours int
	maxSteps   int
}

func defaultOptions() options {
	return options{
		logger:     zap.NewNop(),
		cell:       PolygonCell{},
		workers:    runtime.GOMAXPROCS(0),
		batch:      1024,
		neighbours: 8,
		maxSteps:   10_000,
	}
}

// WithLogger sets the logger used to report failed lookups.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCellTest replaces the point-in-cell predicate.
func WithCellTest(c CellTest) Option {
	return func(o *options) {
		if c != nil {
			o.cell = c
		}
	}
}

// WithWorkers bounds the number of goroutines a batch is split across.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithBatchSize sets how many points one worker handles at a time.
func WithBatchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batch = n
		}
	}
}

// WithNeighbours caps the candidate vertices a cartesian search tries.
func WithNeighbours(k int) Option {
	return func(o *options) {
		if k > 0 {
			o.neighbours = k
		}
	}
}

// WithMaxSteps bounds the number of cells a walk may visit per point.
func WithMaxSteps(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSteps = n
		}
	}
}

// New builds the search registered under algorithm.
func New(g *grid.Grid, algorithm string, opts ...Option) (Searcher, error) {
	switch strings.ToLower(algorithm) {
	case AlgorithmCartesian:
		return NewCartesian(g, opts...), nil
	case AlgorithmTripolar:
		return NewTripolar(g, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAlgorithm, algorithm)
	}
}

// LowerLeft builds a one-off search over g and runs it.
func LowerLeft(ctx context.Context, g *grid.Grid, lons, lats []float64, algorithm string, opts ...Option) (i, j []int, err error) {
	s, err := New(g, algorithm, opts...)
	if err != nil {
		return nil, nil, err
	}
	return s.LowerLeft(ctx, lons, lats)
}

// fanOut runs fn over [0, n) in contiguous chunks spread across workers.
// The first error cancels the remaining chunks.
func fanOut(ctx context.Context, n, workers, batch int, fn func(ctx context.Context, lo, hi int) error) error {
	if n <= batch || workers <= 1 {
		return fn(ctx, 0, n)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += batch {
		hi := min(lo+batch, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, lo, hi)
		})
	}
	return g.Wait()
}

func checkLengths(lons, lats []float64) error {
	if len(lons) != len(lats) {
		return fmt.Errorf("%w: %d longitudes, %d latitudes", domain.ErrShapeMismatch, len(lons), len(lats))
	}
	return nil
}
