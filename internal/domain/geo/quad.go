package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Quad holds the four corners of a grid cell in counter-clockwise order:
// lower-left, lower-right, upper-right, upper-left. X is longitude, Y latitude.
type Quad [4]orb.Point

// Ring returns the closed ring traced by the corners.
func (q Quad) Ring() orb.Ring {
	return orb.Ring{q[0], q[1], q[2], q[3], q[0]}
}

// Bound returns the longitude/latitude bounding box of the corners.
func (q Quad) Bound() orb.Bound {
	return q.Ring().Bound()
}

// IsDateline reports whether the corner longitudes straddle the 180th meridian.
func (q Quad) IsDateline() bool {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range q {
		lo = math.Min(lo, p.X())
		hi = math.Max(hi, p.X())
	}
	return math.Abs(hi-lo) > 180
}

// AlignDateline returns a copy of a dateline cell whose corner longitudes
// are shifted by 360 degrees onto the side of the meridian holding lon.
// Cells that do not straddle the dateline are returned unchanged.
func (q Quad) AlignDateline(lon float64) Quad {
	if !q.IsDateline() {
		return q
	}
	out := q
	for k, p := range out {
		switch {
		case lon <= 0 && p.X() > 0:
			out[k] = orb.Point{p.X() - 360, p.Y()}
		case lon > 0 && p.X() < 0:
			out[k] = orb.Point{p.X() + 360, p.Y()}
		}
	}
	return out
}

// Center returns the centroid of the corners computed on the unit sphere.
func (q Quad) Center() orb.Point {
	var sum [3]float64
	for _, p := range q {
		v := ToCartesian(p.X(), p.Y())
		sum[0] += v[0]
		sum[1] += v[1]
		sum[2] += v[2]
	}
	lon, lat := FromCartesian(sum)
	return orb.Point{lon, lat}
}
