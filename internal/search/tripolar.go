package search

import (
	"context"

	"github.com/kailas-cloud/obsoper/internal/domain/grid"
	"github.com/kailas-cloud/obsoper/internal/index"
)

// Tripolar searches pole-folded ocean grids. A cheap longitude/latitude
// lookup seeds each point and a walk over the grid refines the seed into
// the containing cell.
type Tripolar struct {
	neighbour *index.LonLat
	walk      Walker
	opts      options
}

// NewTripolar indexes g and prepares its walk.
func NewTripolar(g *grid.Grid, opts ...Option) *Tripolar {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Tripolar{
		neighbour: index.NewLonLat(g),
		walk:      TripolarWalk(g, opts...),
		opts:      o,
	}
}

// NewTripolarWithWalker is NewTripolar with a caller-supplied walk.
func NewTripolarWithWalker(g *grid.Grid, w Walker, opts ...Option) *Tripolar {
	t := NewTripolar(g, opts...)
	t.walk = w
	return t
}

// Nearest returns the vertex nearest each point in longitude/latitude space.
func (t *Tripolar) Nearest(lons, lats []float64) (i, j []int, err error) {
	return t.neighbour.Nearest(lons, lats)
}

// LowerLeft implements Searcher.
func (t *Tripolar) LowerLeft(ctx context.Context, lons, lats []float64) (i, j []int, err error) {
	if err = checkLengths(lons, lats); err != nil {
		return nil, nil, err
	}
	i = make([]int, len(lons))
	j = make([]int, len(lons))
	err = fanOut(ctx, len(lons), t.opts.workers, t.opts.batch, func(_ context.Context, lo, hi int) error {
		si, sj, err := t.Nearest(lons[lo:hi], lats[lo:hi])
		if err != nil {
			return err
		}
		ri, rj, err := t.walk.Query(lons[lo:hi], lats[lo:hi], si, sj)
		if err != nil {
			return err
		}
		copy(i[lo:hi], ri)
		copy(j[lo:hi], rj)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return i, j, nil
}
