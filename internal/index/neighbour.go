package index

import (
	"fmt"

	"github.com/kailas-cloud/obsoper/internal/domain"
	"github.com/kailas-cloud/obsoper/internal/domain/geo"
	"github.com/kailas-cloud/obsoper/internal/domain/grid"
)

// Neighbour finds grid vertices close to query points.
type Neighbour interface {
	Nearest(lons, lats []float64) (i, j []int, err error)
	NearestK(lons, lats []float64, k int) (i, j [][]int, err error)
}

// LonLat indexes vertices by raw (longitude, latitude). Distances are plain
// Euclidean in degrees, so results are wrong across the antimeridian and
// near the poles; use it only to seed a search.
type LonLat struct {
	grid *grid.Grid
	tree *tree
}

// NewLonLat builds a longitude/latitude index over every vertex of g.
func NewLonLat(g *grid.Grid) *LonLat {
	points := make(vertices, g.Len())
	for k := range points {
		v := g.At(k)
		points[k] = vertex{coords: []float64{v.X(), v.Y()}, flat: k}
	}
	return &LonLat{grid: g, tree: newTree(points)}
}

// Nearest returns the (i, j) of the vertex nearest each point.
func (n *LonLat) Nearest(lons, lats []float64) (i, j []int, err error) {
	return nearest(n.grid, n.tree, lonLatPoint, lons, lats)
}

// NearestK returns the k nearest vertices of each point, nearest first.
func (n *LonLat) NearestK(lons, lats []float64, k int) (i, j [][]int, err error) {
	return nearestK(n.grid, n.tree, lonLatPoint, lons, lats, k)
}

// Cartesian indexes vertices as unit-sphere vectors. Euclidean distance
// between those vectors is monotonic in great-circle distance, so answers
// hold across the antimeridian and at the poles.
type Cartesian struct {
	grid *grid.Grid
	tree *tree
}

// NewCartesian builds a unit-sphere index over every vertex of g.
func NewCartesian(g *grid.Grid) *Cartesian {
	points := make(vertices, g.Len())
	for k := range points {
		v := g.At(k)
		points[k] = vertex{coords: cartesianPoint(v.X(), v.Y()), flat: k}
	}
	return &Cartesian{grid: g, tree: newTree(points)}
}

// Nearest returns the (i, j) of the vertex nearest each point.
func (n *Cartesian) Nearest(lons, lats []float64) (i, j []int, err error) {
	return nearest(n.grid, n.tree, cartesianPoint, lons, lats)
}

// NearestK returns the k nearest vertices of each point, nearest first.
func (n *Cartesian) NearestK(lons, lats []float64, k int) (i, j [][]int, err error) {
	return nearestK(n.grid, n.tree, cartesianPoint, lons, lats, k)
}

func lonLatPoint(lon, lat float64) []float64 {
	return []float64{lon, lat}
}

func cartesianPoint(lon, lat float64) []float64 {
	v := geo.ToCartesian(lon, lat)
	return v[:]
}

func nearest(g *grid.Grid, t *tree, project func(lon, lat float64) []float64, lons, lats []float64) (i, j []int, err error) {
	if len(lons) != len(lats) {
		return nil, nil, fmt.Errorf("%w: %d longitudes, %d latitudes", domain.ErrShapeMismatch, len(lons), len(lats))
	}
	i = make([]int, len(lons))
	j = make([]int, len(lons))
	for k := range lons {
		i[k], j[k] = g.Unravel(t.nearest(project(lons[k], lats[k])))
	}
	return i, j, nil
}

func nearestK(g *grid.Grid, t *tree, project func(lon, lat float64) []float64, lons, lats []float64, k int) (i, j [][]int, err error) {
	if len(lons) != len(lats) {
		return nil, nil, fmt.Errorf("%w: %d longitudes, %d latitudes", domain.ErrShapeMismatch, len(lons), len(lats))
	}
	if k < 1 {
		return nil, nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrShapeMismatch, k)
	}
	i = make([][]int, len(lons))
	j = make([][]int, len(lons))
	for p := range lons {
		flat := t.nearestK(project(lons[p], lats[p]), k)
		i[p] = make([]int, len(flat))
		j[p] = make([]int, len(flat))
		for c, f := range flat {
			i[p][c], j[p][c] = g.Unravel(f)
		}
	}
	return i, j, nil
}
