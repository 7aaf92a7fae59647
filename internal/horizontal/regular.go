package horizontal

import (
	"fmt"

	"github.com/kailas-cloud/obsoper/internal/domain"
	"github.com/kailas-cloud/obsoper/internal/domain/bilinear"
	"github.com/kailas-cloud/obsoper/internal/domain/grid"
	"github.com/kailas-cloud/obsoper/internal/domain/ndarray"
)

// Regular interpolates fields on an evenly spaced longitude/latitude grid.
// Cells are located arithmetically, so no search structure is built.
type Regular struct {
	grid     *grid.Regular2D
	ni, nj   int
	n        int
	included []bool
	obs      []int
	i, j     []int
	weights  *ndarray.Array
}

// NewRegular builds the interpolator from the vertex axes of the grid.
func NewRegular(gridLons, gridLats, lons, lats []float64) (*Regular, error) {
	if len(lons) != len(lats) {
		return nil, fmt.Errorf("%w: %d longitudes, %d latitudes", domain.ErrShapeMismatch, len(lons), len(lats))
	}
	g, err := grid.NewRegular2D(gridLons, gridLats)
	if err != nil {
		return nil, err
	}
	r := &Regular{grid: g, ni: len(gridLons), nj: len(gridLats), n: len(lons), included: make([]bool, len(lons))}

	var inLons, inLats []float64
	var positions []int
	for k := range lons {
		if g.Inside(lons[k], lats[k]) {
			positions = append(positions, k)
			inLons = append(inLons, lons[k])
			inLats = append(inLats, lats[k])
		}
	}
	if len(positions) == 0 {
		return r, nil
	}
	res, err := g.Search(inLons, inLats)
	if err != nil {
		return nil, err
	}

	var ex, ey []float64
	for k, o := range positions {
		i, j := res.ILon[k], res.ILat[k]
		// a point on the first vertex of a descending axis lands one past
		// the last cell
		if i < 0 || i+1 >= r.ni || j < 0 || j+1 >= r.nj {
			continue
		}
		r.included[o] = true
		r.obs = append(r.obs, o)
		r.i = append(r.i, i)
		r.j = append(r.j, j)
		ex = append(ex, res.DLon[k])
		ey = append(ey, res.DLat[k])
	}
	r.weights = bilinear.UnitSquareWeights(ex, ey)
	return r, nil
}

// NewRegularFromGrid takes the longitude axis from the first column and the
// latitude axis from the first row of g.
func NewRegularFromGrid(g *grid.Grid, lons, lats []float64) (*Regular, error) {
	ni, nj := g.Shape()
	gridLons := make([]float64, ni)
	for i := range ni {
		gridLons[i] = g.Vertex(i, 0).X()
	}
	gridLats := make([]float64, nj)
	for j := range nj {
		gridLats[j] = g.Vertex(0, j).Y()
	}
	return NewRegular(gridLons, gridLats, lons, lats)
}

// Included reports which observations can be interpolated.
func (r *Regular) Included() []bool {
	return append([]bool(nil), r.included...)
}

// Interpolate implements Interpolator.
func (r *Regular) Interpolate(field *ndarray.Array) (*ndarray.Array, error) {
	var levels int
	switch {
	case field.Ndim() == 2 && field.Dim(0) == r.ni && field.Dim(1) == r.nj:
		levels = 1
	case field.Ndim() == 3 && field.Dim(0) == r.ni && field.Dim(1) == r.nj:
		levels = field.Dim(2)
	default:
		return nil, fmt.Errorf("%w: field shape %v does not match grid (%d, %d)",
			domain.ErrShapeMismatch, field.Shape(), r.ni, r.nj)
	}
	out := newResult(r.n, levels, field.Ndim())
	if len(r.obs) == 0 {
		return out, nil
	}

	corners := gatherCorners(field, r.ni, r.i, r.j, levels)
	values, err := bilinear.Interpolate(corners, r.weights)
	if err != nil {
		return nil, err
	}
	scatter(out, values, r.obs, levels)
	return out, nil
}
