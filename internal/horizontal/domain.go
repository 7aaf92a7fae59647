package horizontal

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/kailas-cloud/obsoper/internal/domain"
	"github.com/kailas-cloud/obsoper/internal/domain/grid"
)

// Boundary kinds used to decide which observations a grid covers.
const (
	// BoundaryBand keeps observations between the grid's extreme latitudes.
	// Suits global grids that wrap in longitude.
	BoundaryBand = "band"
	// BoundaryPolygon keeps observations inside the ring traced by the
	// outermost grid vertices. Suits rotated regional grids.
	BoundaryPolygon = "polygon"
	// BoundaryRegular keeps observations inside the longitude/latitude box
	// of the grid.
	BoundaryRegular = "regular"
)

// Inside reports, for each observation, whether it falls within the grid
// under the named boundary kind.
func Inside(g *grid.Grid, lons, lats []float64, kind string) ([]bool, error) {
	if len(lons) != len(lats) {
		return nil, fmt.Errorf("%w: %d longitudes, %d latitudes", domain.ErrShapeMismatch, len(lons), len(lats))
	}
	var contains func(p orb.Point) bool
	switch kind {
	case BoundaryBand:
		lo, hi := g.LatitudeRange()
		contains = func(p orb.Point) bool { return p.Y() >= lo && p.Y() <= hi }
	case BoundaryPolygon:
		ring := g.Boundary()
		contains = func(p orb.Point) bool { return planar.RingContains(ring, p) }
	case BoundaryRegular:
		contains = g.Bound().Contains
	default:
		return nil, fmt.Errorf("%w: unknown boundary %q", domain.ErrUnknownAlgorithm, kind)
	}
	out := make([]bool, len(lons))
	for k := range lons {
		out[k] = contains(orb.Point{lons[k], lats[k]})
	}
	return out, nil
}
