// Package grid holds model grid geometry: curvilinear vertex grids addressed
// by (i, j) and evenly spaced rectilinear axes.
package grid

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/kailas-cloud/obsoper/internal/domain"
	"github.com/kailas-cloud/obsoper/internal/domain/geo"
)

// Grid is an immutable (Ni, Nj) array of vertices. Vertex (i, j) has flat
// index i*Nj + j.
type Grid struct {
	ni, nj   int
	vertices []orb.Point
}

// New builds a grid from longitude and latitude arrays shaped (Ni, Nj).
func New(lons, lats [][]float64) (*Grid, error) {
	ni := len(lons)
	if ni < 2 || len(lats) != ni {
		return nil, fmt.Errorf("%w: need at least 2 rows of equal count, got %d longitudes and %d latitudes",
			domain.ErrInvalidGrid, len(lons), len(lats))
	}
	nj := len(lons[0])
	if nj < 2 {
		return nil, fmt.Errorf("%w: need at least 2 columns, got %d", domain.ErrInvalidGrid, nj)
	}
	g := &Grid{ni: ni, nj: nj, vertices: make([]orb.Point, 0, ni*nj)}
	for i := range ni {
		if len(lons[i]) != nj || len(lats[i]) != nj {
			return nil, fmt.Errorf("%w: row %d is ragged", domain.ErrInvalidGrid, i)
		}
		for j := range nj {
			lon, lat := lons[i][j], lats[i][j]
			if math.IsNaN(lon) || math.IsNaN(lat) || !geo.ValidateCoordinates(lon, lat) {
				return nil, fmt.Errorf("%w: vertex (%d, %d) has invalid position (%g, %g)",
					domain.ErrInvalidGrid, i, j, lon, lat)
			}
			g.vertices = append(g.vertices, orb.Point{lon, lat})
		}
	}
	return g, nil
}

// Meshgrid builds the product grid of 1D axes with vertex (i, j) at
// (lons[i], lats[j]).
func Meshgrid(lons, lats []float64) (*Grid, error) {
	glons := make([][]float64, len(lons))
	glats := make([][]float64, len(lons))
	for i, lon := range lons {
		glons[i] = make([]float64, len(lats))
		glats[i] = make([]float64, len(lats))
		for j, lat := range lats {
			glons[i][j] = lon
			glats[i][j] = lat
		}
	}
	return New(glons, glats)
}

// Shape returns (Ni, Nj).
func (g *Grid) Shape() (ni, nj int) { return g.ni, g.nj }

// Len returns the number of vertices.
func (g *Grid) Len() int { return len(g.vertices) }

// Vertex returns the position of vertex (i, j).
func (g *Grid) Vertex(i, j int) orb.Point {
	return g.vertices[g.Flat(i, j)]
}

// At returns the vertex with flat index k.
func (g *Grid) At(k int) orb.Point { return g.vertices[k] }

// Flat converts (i, j) to a flat index.
func (g *Grid) Flat(i, j int) int {
	if i < 0 || i >= g.ni || j < 0 || j >= g.nj {
		panic(fmt.Sprintf("grid: vertex (%d, %d) outside shape (%d, %d)", i, j, g.ni, g.nj))
	}
	return i*g.nj + j
}

// Unravel converts a flat index to (i, j).
func (g *Grid) Unravel(k int) (i, j int) {
	return k / g.nj, k % g.nj
}

// Quad returns the cell whose lower-left vertex is (i, j). The i index is
// taken modulo Ni so that the last column of a zonally periodic grid pairs
// with the first.
func (g *Grid) Quad(i, j int) geo.Quad {
	i0 := mod(i, g.ni)
	i1 := mod(i+1, g.ni)
	return geo.Quad{
		g.Vertex(i0, j),
		g.Vertex(i1, j),
		g.Vertex(i1, j+1),
		g.Vertex(i0, j+1),
	}
}

// Lons returns a copy of the longitudes shaped (Ni, Nj).
func (g *Grid) Lons() [][]float64 { return g.component(0) }

// Lats returns a copy of the latitudes shaped (Ni, Nj).
func (g *Grid) Lats() [][]float64 { return g.component(1) }

func (g *Grid) component(c int) [][]float64 {
	out := make([][]float64, g.ni)
	for i := range out {
		out[i] = make([]float64, g.nj)
		for j := range out[i] {
			out[i][j] = g.vertices[i*g.nj+j][c]
		}
	}
	return out
}

// LatitudeRange returns the smallest and largest vertex latitude.
func (g *Grid) LatitudeRange() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range g.vertices {
		lo = min(lo, v.Y())
		hi = max(hi, v.Y())
	}
	return lo, hi
}

// Bound returns the longitude/latitude box of every vertex.
func (g *Grid) Bound() orb.Bound {
	return orb.MultiPoint(g.vertices).Bound()
}

// Boundary returns the closed ring traced by the outermost vertices: along
// j=0, up i=Ni-1, back along j=Nj-1 and down i=0.
func (g *Grid) Boundary() orb.Ring {
	ring := make(orb.Ring, 0, 2*(g.ni+g.nj))
	for i := 0; i < g.ni; i++ {
		ring = append(ring, g.Vertex(i, 0))
	}
	for j := 1; j < g.nj; j++ {
		ring = append(ring, g.Vertex(g.ni-1, j))
	}
	for i := g.ni - 2; i >= 0; i-- {
		ring = append(ring, g.Vertex(i, g.nj-1))
	}
	for j := g.nj - 2; j >= 0; j-- {
		ring = append(ring, g.Vertex(0, j))
	}
	return ring
}

// RemoveHalo drops the redundant first and last columns in i and the last
// row in j that tripolar model diagnostics carry.
func (g *Grid) RemoveHalo() (*Grid, error) {
	if g.ni < 4 || g.nj < 3 {
		return nil, fmt.Errorf("%w: shape (%d, %d) too small to remove halo", domain.ErrInvalidGrid, g.ni, g.nj)
	}
	out := &Grid{ni: g.ni - 2, nj: g.nj - 1, vertices: make([]orb.Point, 0, (g.ni-2)*(g.nj-1))}
	for i := 1; i < g.ni-1; i++ {
		for j := 0; j < g.nj-1; j++ {
			out.vertices = append(out.vertices, g.Vertex(i, j))
		}
	}
	return out, nil
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
