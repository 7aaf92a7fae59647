// Package horizontal interpolates gridded model fields to observation
// locations. Observation positions are fixed at construction so the cell
// search and weights are paid once and reused for every field.
//
// Recommended pairings of boundary and search:
//
//	band     tripolar   global ORCA-family ocean grids
//	polygon  cartesian  regional models
//	regular  cartesian  regular lon/lat models
package horizontal

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/obsoper/internal/domain"
	"github.com/kailas-cloud/obsoper/internal/domain/bilinear"
	"github.com/kailas-cloud/obsoper/internal/domain/geo"
	"github.com/kailas-cloud/obsoper/internal/domain/grid"
	"github.com/kailas-cloud/obsoper/internal/domain/ndarray"
	"github.com/kailas-cloud/obsoper/internal/search"
)

// Interpolator maps (Ni, Nj) or (Ni, Nj, K) fields onto observations,
// returning (N) or (N, K) arrays with missing values where an observation
// could not be interpolated.
type Interpolator interface {
	Interpolate(field *ndarray.Array) (*ndarray.Array, error)
	Included() []bool
}

// Option configures a Horizontal.
type Option func(*config)

type config struct {
	algorithm  string
	boundary   string
	searcher   search.Searcher
	searchOpts []search.Option
	halo       bool
}

// WithSearch selects the lower-left search algorithm by name.
func WithSearch(algorithm string) Option {
	return func(c *config) { c.algorithm = algorithm }
}

// WithBoundary selects the domain inclusion test by name.
func WithBoundary(kind string) Option {
	return func(c *config) { c.boundary = kind }
}

// WithSearcher reuses an already built search over the grid. It must have
// been built over the same (halo-free) grid.
func WithSearcher(s search.Searcher) Option {
	return func(c *config) { c.searcher = s }
}

// WithSearchOptions passes options to the search built by New.
func WithSearchOptions(opts ...search.Option) Option {
	return func(c *config) { c.searchOpts = append(c.searchOpts, opts...) }
}

// WithHalo marks the grid and fields as carrying a halo to be trimmed.
func WithHalo(halo bool) Option {
	return func(c *config) { c.halo = halo }
}

// Horizontal interpolates fields on a curvilinear grid.
type Horizontal struct {
	grid     *grid.Grid
	halo     bool
	n        int
	included []bool
	obs      []int // positions of included observations
	i, j     []int
	weights  *ndarray.Array
}

// New locates every observation on g and derives its bilinear weights.
// Observations outside the domain are excluded rather than failing.
func New(ctx context.Context, g *grid.Grid, lons, lats []float64, opts ...Option) (*Horizontal, error) {
	c := config{algorithm: search.AlgorithmCartesian, boundary: BoundaryPolygon}
	for _, opt := range opts {
		opt(&c)
	}
	if c.halo {
		trimmed, err := g.RemoveHalo()
		if err != nil {
			return nil, err
		}
		g = trimmed
	}

	included, err := Inside(g, lons, lats, c.boundary)
	if err != nil {
		return nil, err
	}
	h := &Horizontal{grid: g, halo: c.halo, n: len(lons), included: included}

	var inLons, inLats []float64
	for k, ok := range included {
		if ok {
			h.obs = append(h.obs, k)
			inLons = append(inLons, lons[k])
			inLats = append(inLats, lats[k])
		}
	}
	if len(h.obs) == 0 {
		return h, nil
	}

	s := c.searcher
	if s == nil {
		if s, err = search.New(g, c.algorithm, c.searchOpts...); err != nil {
			return nil, err
		}
	}
	if h.i, h.j, err = s.LowerLeft(ctx, inLons, inLats); err != nil {
		return nil, fmt.Errorf("lower left: %w", err)
	}

	quads := make([]geo.Quad, len(h.obs))
	for k := range quads {
		quads[k] = g.Quad(h.i[k], h.j[k]).AlignDateline(inLons[k])
	}
	if h.weights, err = bilinear.InterpolationWeights(quads, inLons, inLats); err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}
	return h, nil
}

// NewRegional builds the interpolator for regional models: cartesian search
// inside the grid perimeter.
func NewRegional(ctx context.Context, g *grid.Grid, lons, lats []float64, opts ...Option) (*Horizontal, error) {
	opts = append([]Option{WithSearch(search.AlgorithmCartesian), WithBoundary(BoundaryPolygon)}, opts...)
	return New(ctx, g, lons, lats, opts...)
}

// NewTripolar builds the interpolator for tripolar ocean grids: tripolar
// search inside the latitude band, with optional halo trimming.
func NewTripolar(ctx context.Context, g *grid.Grid, lons, lats []float64, halo bool, opts ...Option) (*Horizontal, error) {
	opts = append([]Option{WithSearch(search.AlgorithmTripolar), WithBoundary(BoundaryBand), WithHalo(halo)}, opts...)
	return New(ctx, g, lons, lats, opts...)
}

// Included reports which observations fall inside the grid.
func (h *Horizontal) Included() []bool {
	return append([]bool(nil), h.included...)
}

// LowerLeft returns the cell of each included observation, in observation
// order.
func (h *Horizontal) LowerLeft() (i, j []int) {
	return append([]int(nil), h.i...), append([]int(nil), h.j...)
}

// Weights returns the (M, 4) weights of the included observations.
func (h *Horizontal) Weights() *ndarray.Array {
	return h.weights
}

// Interpolate implements Interpolator. Observations outside the domain and
// observations whose cell has any missing corner come back missing.
func (h *Horizontal) Interpolate(field *ndarray.Array) (*ndarray.Array, error) {
	if h.halo {
		trimmed, err := RemoveHalo(field)
		if err != nil {
			return nil, err
		}
		field = trimmed
	}
	levels, err := checkField(h.grid, field)
	if err != nil {
		return nil, err
	}
	out := newResult(h.n, levels, field.Ndim())
	if len(h.obs) == 0 {
		return out, nil
	}

	ni, _ := h.grid.Shape()
	corners := gatherCorners(field, ni, h.i, h.j, levels)
	values, err := bilinear.Interpolate(corners, h.weights)
	if err != nil {
		return nil, err
	}
	scatter(out, values, h.obs, levels)
	return out, nil
}

// checkField validates the leading axes of field against g and returns
// the number of levels (1 for a surface field).
func checkField(g *grid.Grid, field *ndarray.Array) (int, error) {
	ni, nj := g.Shape()
	switch {
	case field.Ndim() == 2 && field.Dim(0) == ni && field.Dim(1) == nj:
		return 1, nil
	case field.Ndim() == 3 && field.Dim(0) == ni && field.Dim(1) == nj:
		return field.Dim(2), nil
	default:
		return 0, fmt.Errorf("%w: field shape %v does not match grid (%d, %d)",
			domain.ErrShapeMismatch, field.Shape(), ni, nj)
	}
}

// gatherCorners collects the values at the four corners of each cell into
// a (K, M, 4) array, with i periodic in ni.
func gatherCorners(field *ndarray.Array, ni int, i, j []int, levels int) *ndarray.Array {
	m := len(i)
	out := ndarray.MaskedAll(levels, m, bilinear.Corners)
	for k := range i {
		i0, i1 := i[k]%ni, (i[k]+1)%ni
		idx := [bilinear.Corners][2]int{{i0, j[k]}, {i1, j[k]}, {i1, j[k] + 1}, {i0, j[k] + 1}}
		for z := range levels {
			for c, ij := range idx {
				v, ok := fieldAt(field, ij[0], ij[1], z)
				if ok {
					out.Set(v, z, k, c)
				}
			}
		}
	}
	return out
}

func fieldAt(field *ndarray.Array, i, j, z int) (float64, bool) {
	if field.Ndim() == 2 {
		return field.At(i, j)
	}
	return field.At(i, j, z)
}

func newResult(n, levels, ndim int) *ndarray.Array {
	if ndim == 2 {
		return ndarray.MaskedAll(n)
	}
	return ndarray.MaskedAll(n, levels)
}

// scatter copies (K, M) values into the rows of out named by obs.
func scatter(out, values *ndarray.Array, obs []int, levels int) {
	m := len(obs)
	for z := range levels {
		for k, o := range obs {
			v, ok := values.Value(z*m + k)
			if !ok {
				continue
			}
			if out.Ndim() == 1 {
				out.Set(v, o)
			} else {
				out.Set(v, o, z)
			}
		}
	}
}

// RemoveHalo trims a (Ni, Nj[, K]) field the same way grid.RemoveHalo
// trims vertices.
func RemoveHalo(field *ndarray.Array) (*ndarray.Array, error) {
	if field.Ndim() != 2 && field.Ndim() != 3 {
		return nil, fmt.Errorf("%w: field must be 2D or 3D, got shape %v", domain.ErrShapeMismatch, field.Shape())
	}
	ni, nj := field.Dim(0), field.Dim(1)
	if ni < 4 || nj < 3 {
		return nil, fmt.Errorf("%w: field shape %v too small to remove halo", domain.ErrShapeMismatch, field.Shape())
	}
	levels := 1
	if field.Ndim() == 3 {
		levels = field.Dim(2)
	}
	shape := []int{ni - 2, nj - 1}
	if field.Ndim() == 3 {
		shape = append(shape, levels)
	}
	out := ndarray.MaskedAll(shape...)
	for i := 1; i < ni-1; i++ {
		for j := 0; j < nj-1; j++ {
			for z := range levels {
				v, ok := fieldAt(field, i, j, z)
				if !ok {
					continue
				}
				if field.Ndim() == 2 {
					out.Set(v, i-1, j)
				} else {
					out.Set(v, i-1, j, z)
				}
			}
		}
	}
	return out, nil
}
