package grid

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/obsoper/internal/domain"
)

// SearchResult locates points on a rectilinear grid: the lower-left cell
// index along each axis and the fractional position inside that cell.
type SearchResult struct {
	ILon []int
	ILat []int
	DLon []float64
	DLat []float64
}

// Regular1D is an evenly spaced axis of N vertices and N-1 cells. The axis
// may be ascending or descending.
type Regular1D struct {
	vertices []float64
	spacing  float64
	minimum  float64
}

// NewRegular1D builds an axis from its vertices.
func NewRegular1D(vertices []float64) (*Regular1D, error) {
	if len(vertices) < 2 {
		return nil, fmt.Errorf("%w: axis needs at least 2 vertices, got %d", domain.ErrInvalidGrid, len(vertices))
	}
	sp := Spacing(vertices)
	if sp == 0 {
		return nil, fmt.Errorf("%w: axis spacing rounds to zero", domain.ErrInvalidGrid)
	}
	lo := math.Inf(1)
	for _, v := range vertices {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("%w: axis contains NaN", domain.ErrInvalidGrid)
		}
		lo = min(lo, v)
	}
	return &Regular1D{
		vertices: append([]float64(nil), vertices...),
		spacing:  sp,
		minimum:  lo,
	}, nil
}

// Regular1DFromCenters builds an axis whose cells are centred on centers.
func Regular1DFromCenters(centers []float64) (*Regular1D, error) {
	if len(centers) < 2 {
		return nil, fmt.Errorf("%w: axis needs at least 2 centers, got %d", domain.ErrInvalidGrid, len(centers))
	}
	half := Spacing(centers) / 2
	vertices := make([]float64, len(centers))
	for k, c := range centers {
		vertices[k] = c - half
	}
	return NewRegular1D(vertices)
}

// Spacing estimates the axis spacing, rounded to 4 decimal places to absorb
// noise in how model grids are written out.
func Spacing(vertices []float64) float64 {
	return math.Round((vertices[1]-vertices[0])*1e4) / 1e4
}

// GridSpacing returns the rounded spacing; negative for descending axes.
func (r *Regular1D) GridSpacing() float64 { return r.spacing }

// Cells returns the number of cells.
func (r *Regular1D) Cells() int { return len(r.vertices) - 1 }

// Minimum returns the smallest vertex.
func (r *Regular1D) Minimum() float64 { return r.minimum }

// Maximum returns the exclusive upper bound of the axis.
func (r *Regular1D) Maximum() float64 {
	return r.minimum + float64(r.Cells())*math.Abs(r.spacing)
}

// CellSpace maps a position to continuous cell-index space.
func (r *Regular1D) CellSpace(p float64) float64 {
	return (p - r.vertices[0]) / r.spacing
}

// Search returns the cell index of each point and the fractional position
// inside the cell.
func (r *Regular1D) Search(points []float64) (index []int, fraction []float64) {
	index = make([]int, len(points))
	fraction = make([]float64, len(points))
	for k, p := range points {
		whole, frac := math.Modf(r.CellSpace(p))
		index[k] = int(whole)
		fraction[k] = frac
	}
	return index, fraction
}

// Outside reports whether p lies below the minimum or at or above the
// maximum. The upper bound is exclusive to match half-open cells.
func (r *Regular1D) Outside(p float64) bool {
	return p < r.minimum || p >= r.Maximum()
}

// Inside is the negation of Outside.
func (r *Regular1D) Inside(p float64) bool { return !r.Outside(p) }

// Regular2D composes a longitude axis and a latitude axis.
type Regular2D struct {
	Lon *Regular1D
	Lat *Regular1D
}

// NewRegular2D builds a rectilinear grid from 1D axes.
func NewRegular2D(lons, lats []float64) (*Regular2D, error) {
	lon, err := NewRegular1D(lons)
	if err != nil {
		return nil, fmt.Errorf("longitude axis: %w", err)
	}
	lat, err := NewRegular1D(lats)
	if err != nil {
		return nil, fmt.Errorf("latitude axis: %w", err)
	}
	return &Regular2D{Lon: lon, Lat: lat}, nil
}

// Outside reports whether a point falls outside either axis.
func (r *Regular2D) Outside(lon, lat float64) bool {
	return r.Lon.Outside(lon) || r.Lat.Outside(lat)
}

// Inside is the negation of Outside.
func (r *Regular2D) Inside(lon, lat float64) bool { return !r.Outside(lon, lat) }

// Search locates every point, failing with ErrNotInGrid if any is outside.
func (r *Regular2D) Search(lons, lats []float64) (SearchResult, error) {
	if len(lons) != len(lats) {
		return SearchResult{}, fmt.Errorf("%w: %d longitudes, %d latitudes", domain.ErrShapeMismatch, len(lons), len(lats))
	}
	for k := range lons {
		if r.Outside(lons[k], lats[k]) {
			return SearchResult{}, fmt.Errorf("%w: (%g, %g)", domain.ErrNotInGrid, lons[k], lats[k])
		}
	}
	ilon, dlon := r.Lon.Search(lons)
	ilat, dlat := r.Lat.Search(lats)
	return SearchResult{ILon: ilon, ILat: ilat, DLon: dlon, DLat: dlat}, nil
}
