package search

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/kailas-cloud/obsoper/internal/domain/bilinear"
	"github.com/kailas-cloud/obsoper/internal/domain/geo"
)

// CellTest decides whether a point lies inside a grid cell. Points on the
// cell boundary count as inside.
type CellTest interface {
	Contains(q geo.Quad, lon, lat float64) bool
}

// PolygonCell tests containment with a planar ring test on the cell
// corners, after moving dateline cells onto the side of the point.
type PolygonCell struct{}

// Contains implements CellTest.
func (PolygonCell) Contains(q geo.Quad, lon, lat float64) bool {
	return planar.RingContains(q.AlignDateline(lon).Ring(), orb.Point{lon, lat})
}

// UnitSquareCell tests containment by inverting the bilinear mapping of the
// cell and checking that the parametric coordinates fall in [0, 1].
type UnitSquareCell struct {
	// Tolerance widens the unit square to absorb round-off on cell edges.
	Tolerance float64
}

// Contains implements CellTest.
func (c UnitSquareCell) Contains(q geo.Quad, lon, lat float64) bool {
	aligned := q.AlignDateline(lon)
	if !aligned.Bound().Pad(c.Tolerance).Contains(orb.Point{lon, lat}) {
		return false
	}
	ex, ey := bilinear.UnitSquare(aligned, lon, lat)
	lo, hi := -c.Tolerance, 1+c.Tolerance
	return ex >= lo && ex <= hi && ey >= lo && ey <= hi
}

// NewCellTest returns the cell test registered under name: "polygon" or
// "unit_square".
func NewCellTest(name string) (CellTest, bool) {
	switch name {
	case "", CellPolygon:
		return PolygonCell{}, true
	case CellUnitSquare:
		return UnitSquareCell{Tolerance: 1e-9}, true
	default:
		return nil, false
	}
}

// Cell test names.
const (
	CellPolygon    = "polygon"
	CellUnitSquare = "unit_square"
)
