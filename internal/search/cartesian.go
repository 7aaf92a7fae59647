package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/obsoper/internal/domain"
	"github.com/kailas-cloud/obsoper/internal/domain/grid"
	"github.com/kailas-cloud/obsoper/internal/index"
)

// Cartesian searches arbitrary curvilinear grids. For each point it takes
// the K nearest vertices on the unit sphere and returns the first one whose
// cell contains the point. No knowledge of grid layout is needed: the
// corners of the containing cell are always among a handful of nearest
// vertices on a well-formed grid.
type Cartesian struct {
	grid      *grid.Grid
	neighbour *index.Cartesian
	ni, nj    int
	opts      options
}

// NewCartesian indexes g for cartesian search.
func NewCartesian(g *grid.Grid, opts ...Option) *Cartesian {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	ni, nj := g.Shape()
	return &Cartesian{
		grid:      g,
		neighbour: index.NewCartesian(g),
		ni:        ni,
		nj:        nj,
		opts:      o,
	}
}

// K returns the number of candidate vertices tried per point.
func (c *Cartesian) K() int {
	return min(c.ni*c.nj, c.opts.neighbours)
}

// LowerLeft implements Searcher. Points are expected to have been screened
// for domain membership already.
func (c *Cartesian) LowerLeft(ctx context.Context, lons, lats []float64) (i, j []int, err error) {
	if err = checkLengths(lons, lats); err != nil {
		return nil, nil, err
	}
	i = make([]int, len(lons))
	j = make([]int, len(lons))
	err = fanOut(ctx, len(lons), c.opts.workers, c.opts.batch, func(_ context.Context, lo, hi int) error {
		ci, cj, err := c.neighbour.NearestK(lons[lo:hi], lats[lo:hi], c.K())
		if err != nil {
			return err
		}
		for p := lo; p < hi; p++ {
			i[p], j[p], err = c.detect(lons[p], lats[p], ci[p-lo], cj[p-lo])
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return i, j, nil
}

func (c *Cartesian) detect(lon, lat float64, ci, cj []int) (int, int, error) {
	for n := range ci {
		// the last row and column cannot be a lower-left corner
		if ci[n] == c.ni-1 || cj[n] == c.nj-1 {
			continue
		}
		if c.opts.cell.Contains(c.grid.Quad(ci[n], cj[n]), lon, lat) {
			return ci[n], cj[n], nil
		}
	}
	c.opts.logger.Debug("cartesian search failed",
		zap.Float64("lon", lon),
		zap.Float64("lat", lat),
		zap.Ints("i", ci),
		zap.Ints("j", cj),
	)
	return 0, 0, domain.NewSearchFailed(lon, lat, ci, cj)
}
