package horizontal

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/kailas-cloud/obsoper/internal/domain"
	"github.com/kailas-cloud/obsoper/internal/domain/grid"
	"github.com/kailas-cloud/obsoper/internal/domain/ndarray"
	"github.com/kailas-cloud/obsoper/internal/search"
)

const tolerance = 1e-9

// missing marks an expected masked element.
var missing = math.NaN()

func mustGrid(t *testing.T, lons, lats [][]float64) *grid.Grid {
	t.Helper()
	g, err := grid.New(lons, lats)
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}
	return g
}

func mustMeshgrid(t *testing.T, lons, lats []float64) *grid.Grid {
	t.Helper()
	g, err := grid.Meshgrid(lons, lats)
	if err != nil {
		t.Fatalf("grid.Meshgrid: %v", err)
	}
	return g
}

func mustField(t *testing.T, rows [][]float64) *ndarray.Array {
	t.Helper()
	a, err := ndarray.FromRows(rows)
	if err != nil {
		t.Fatalf("ndarray.FromRows: %v", err)
	}
	return a
}

// assertValues compares a result against expected values, NaN meaning
// the element must be masked.
func assertValues(t *testing.T, got *ndarray.Array, shape []int, want []float64) {
	t.Helper()
	if !reflect.DeepEqual(got.Shape(), shape) {
		t.Fatalf("shape = %v, want %v", got.Shape(), shape)
	}
	for k, w := range want {
		v, ok := got.Value(k)
		switch {
		case math.IsNaN(w) && ok:
			t.Errorf("element %d = %v, want masked", k, v)
		case !math.IsNaN(w) && !ok:
			t.Errorf("element %d masked, want %v", k, w)
		case ok && math.Abs(v-w) > tolerance:
			t.Errorf("element %d = %v, want %v", k, v, w)
		}
	}
}

func TestRegional_Trapezoid(t *testing.T) {
	g := mustGrid(t,
		[][]float64{{0, 1}, {3, 2}},
		[][]float64{{0, 1}, {0, 1}},
	)
	h, err := NewRegional(context.Background(), g, []float64{1.5}, []float64{0.5})
	if err != nil {
		t.Fatalf("NewRegional: %v", err)
	}
	got, err := h.Interpolate(mustField(t, [][]float64{{1, 2}, {3, 4}}))
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	assertValues(t, got, []int{1}, []float64{2.5})
}

func TestRegional_OutsidePerimeter(t *testing.T) {
	g := mustMeshgrid(t, []float64{0, 1}, []float64{0, 1})
	h, err := NewRegional(context.Background(), g, []float64{0.5, 3}, []float64{0.5, 3})
	if err != nil {
		t.Fatalf("NewRegional: %v", err)
	}
	if !reflect.DeepEqual(h.Included(), []bool{true, false}) {
		t.Errorf("Included() = %v", h.Included())
	}
	got, err := h.Interpolate(mustField(t, [][]float64{{1, 2}, {3, 4}}))
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	assertValues(t, got, []int{2}, []float64{2.5, missing})
}

func TestTripolar_Interpolate(t *testing.T) {
	field := [][]float64{{1, 2}, {3, 4}}
	tests := []struct {
		name       string
		lons, lats [][]float64
		obsLons    []float64
		obsLats    []float64
		want       []float64
	}{
		{
			name:    "two points",
			lons:    [][]float64{{10, 10}, {20, 20}},
			lats:    [][]float64{{30, 40}, {30, 40}},
			obsLons: []float64{11, 19},
			obsLats: []float64{31, 39},
			want:    []float64{1.3, 3.7},
		},
		{
			name:    "west of dateline",
			lons:    [][]float64{{179, 179}, {-179, -179}},
			lats:    [][]float64{{10, 12}, {10, 12}},
			obsLons: []float64{179.2},
			obsLats: []float64{10.2},
			want:    []float64{1.3},
		},
		{
			name:    "predetermined position",
			lons:    [][]float64{{0, 0}, {1, 1}},
			lats:    [][]float64{{0, 1}, {0, 1}},
			obsLons: []float64{0.5},
			obsLats: []float64{0.5},
			want:    []float64{2.5},
		},
		{
			name:    "near lower left",
			lons:    [][]float64{{0, 0}, {1, 1}},
			lats:    [][]float64{{0, 1}, {0, 1}},
			obsLons: []float64{0.1},
			obsLats: []float64{0.1},
			want:    []float64{1.3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustGrid(t, tt.lons, tt.lats)
			h, err := NewTripolar(context.Background(), g, tt.obsLons, tt.obsLats, false)
			if err != nil {
				t.Fatalf("NewTripolar: %v", err)
			}
			got, err := h.Interpolate(mustField(t, field))
			if err != nil {
				t.Fatalf("Interpolate: %v", err)
			}
			assertValues(t, got, []int{len(tt.want)}, tt.want)
		})
	}
}

func TestTripolar_SouthernEdge(t *testing.T) {
	g := mustMeshgrid(t, []float64{-10, 0, 10}, []float64{-70, -60, -50})
	field := [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}
	tests := []struct {
		name       string
		lons, lats []float64
		want       []float64
	}{
		{"south of grid", []float64{0}, []float64{-80}, []float64{missing}},
		{"on southern edge", []float64{-10}, []float64{-70}, []float64{1}},
		{"one of two south of grid", []float64{0, 0}, []float64{-80, -70}, []float64{missing, 4}},
		{"north of grid", []float64{0}, []float64{-49}, []float64{missing}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewTripolar(context.Background(), g, tt.lons, tt.lats, false)
			if err != nil {
				t.Fatalf("NewTripolar: %v", err)
			}
			got, err := h.Interpolate(mustField(t, field))
			if err != nil {
				t.Fatalf("Interpolate: %v", err)
			}
			assertValues(t, got, []int{len(tt.want)}, tt.want)
		})
	}
}

func TestTripolar_CyclicLongitudeCell(t *testing.T) {
	g := mustMeshgrid(t, []float64{70, 140, -150, -80, -10, 60}, []float64{-70, -60, -50})
	field := make([][]float64, 6)
	for i := range field {
		field[i] = make([]float64, 3)
	}
	for j := range 3 {
		field[0][j], field[5][j] = 1, 1
	}
	h, err := NewTripolar(context.Background(), g, []float64{65}, []float64{-60}, false)
	if err != nil {
		t.Fatalf("NewTripolar: %v", err)
	}
	got, err := h.Interpolate(mustField(t, field))
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	assertValues(t, got, []int{1}, []float64{1})
}

func TestTripolar_CyclicSimpleCase(t *testing.T) {
	g := mustMeshgrid(t, []float64{1, 2, 0}, []float64{0, 1})
	h, err := NewTripolar(context.Background(), g, []float64{0.5}, []float64{0.5}, false)
	if err != nil {
		t.Fatalf("NewTripolar: %v", err)
	}
	got, err := h.Interpolate(mustField(t, [][]float64{{1, 1}, {7, 7}, {3, 3}}))
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	assertValues(t, got, []int{1}, []float64{2})
}

func TestTripolar_HaloIgnored(t *testing.T) {
	g := mustMeshgrid(t, []float64{0, 1, 2, 0, 1}, []float64{0, 1, 2})
	h, err := NewTripolar(context.Background(), g, []float64{0.5}, []float64{0.5}, true)
	if err != nil {
		t.Fatalf("NewTripolar: %v", err)
	}
	field := mustField(t, [][]float64{
		{1, 1, 1},
		{0, 0, 1},
		{0, 0, 1},
		{0, 0, 1},
		{1, 1, 1},
	})
	got, err := h.Interpolate(field)
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	assertValues(t, got, []int{1}, []float64{0})
}

func TestTripolar_MaskedCorner(t *testing.T) {
	g := mustMeshgrid(t, []float64{0, 1}, []float64{0, 1})
	h, err := NewTripolar(context.Background(), g, []float64{0.5}, []float64{0.5}, false)
	if err != nil {
		t.Fatalf("NewTripolar: %v", err)
	}
	field, err := ndarray.Masked([]float64{1, 2, 2, 1}, []bool{false, false, true, false}, 2, 2)
	if err != nil {
		t.Fatalf("ndarray.Masked: %v", err)
	}
	got, err := h.Interpolate(field)
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	assertValues(t, got, []int{1}, []float64{missing})
}

func TestTripolar_ProfileField(t *testing.T) {
	const n = 5
	g := mustMeshgrid(t, []float64{0, 1}, []float64{0, 1})
	h, err := NewTripolar(context.Background(), g, make([]float64, n), make([]float64, n), false)
	if err != nil {
		t.Fatalf("NewTripolar: %v", err)
	}
	field := ndarray.MustNew([]float64{0, 1, 2, 0, 1, 2, 0, 1, 2, 0, 1, 2}, 2, 2, 3)
	got, err := h.Interpolate(field)
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	var want []float64
	for range n {
		want = append(want, 0, 1, 2)
	}
	assertValues(t, got, []int{n, 3}, want)
}

func TestHorizontal_FieldShapeMismatch(t *testing.T) {
	g := mustMeshgrid(t, []float64{0, 1}, []float64{0, 1})
	h, err := NewRegional(context.Background(), g, []float64{0.5}, []float64{0.5})
	if err != nil {
		t.Fatalf("NewRegional: %v", err)
	}
	_, err = h.Interpolate(ndarray.Zeros(3, 2))
	if !errors.Is(err, domain.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestHorizontal_NoObservationsInside(t *testing.T) {
	g := mustMeshgrid(t, []float64{0, 1}, []float64{0, 1})
	h, err := NewRegional(context.Background(), g, []float64{5, 6}, []float64{5, 6})
	if err != nil {
		t.Fatalf("NewRegional: %v", err)
	}
	got, err := h.Interpolate(ndarray.Zeros(2, 2))
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	assertValues(t, got, []int{2}, []float64{missing, missing})
}

type countingSearcher struct {
	calls int
	inner search.Searcher
}

func (c *countingSearcher) LowerLeft(ctx context.Context, lons, lats []float64) ([]int, []int, error) {
	c.calls++
	return c.inner.LowerLeft(ctx, lons, lats)
}

func TestHorizontal_ReusesSearcher(t *testing.T) {
	g := mustMeshgrid(t, []float64{0, 1, 2}, []float64{0, 1, 2})
	s := &countingSearcher{inner: search.NewCartesian(g)}
	h, err := New(context.Background(), g, []float64{1.5}, []float64{0.5}, WithSearcher(s))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.calls != 1 {
		t.Errorf("searcher called %d times, want 1", s.calls)
	}
	i, j := h.LowerLeft()
	if !reflect.DeepEqual(i, []int{1}) || !reflect.DeepEqual(j, []int{0}) {
		t.Errorf("LowerLeft() = (%v, %v), want ([1], [0])", i, j)
	}
}

func TestHorizontal_UnknownBoundary(t *testing.T) {
	g := mustMeshgrid(t, []float64{0, 1}, []float64{0, 1})
	_, err := New(context.Background(), g, []float64{0.5}, []float64{0.5}, WithBoundary("circle"))
	if !errors.Is(err, domain.ErrUnknownAlgorithm) {
		t.Errorf("expected ErrUnknownAlgorithm, got %v", err)
	}
}

func TestInside(t *testing.T) {
	g := mustGrid(t,
		[][]float64{{0, 1}, {3, 2}},
		[][]float64{{0, 1}, {0, 1}},
	)
	lons := []float64{1.5, 2.8, -0.2}
	lats := []float64{0.5, 0.9, 0.5}
	tests := []struct {
		kind string
		want []bool
	}{
		{BoundaryBand, []bool{true, true, true}},
		{BoundaryPolygon, []bool{true, false, false}},
		{BoundaryRegular, []bool{true, true, false}},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			got, err := Inside(g, lons, lats, tt.kind)
			if err != nil {
				t.Fatalf("Inside: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Inside() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRemoveHalo_Field(t *testing.T) {
	field := mustField(t, [][]float64{
		{1, 1, 1},
		{2, 3, 9},
		{4, 5, 9},
		{1, 1, 1},
	})
	got, err := RemoveHalo(field)
	if err != nil {
		t.Fatalf("RemoveHalo: %v", err)
	}
	assertValues(t, got, []int{2, 2}, []float64{2, 3, 4, 5})

	if _, err := RemoveHalo(ndarray.Zeros(3, 3)); !errors.Is(err, domain.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}
