package grid

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"github.com/kailas-cloud/obsoper/internal/domain"
	"github.com/kailas-cloud/obsoper/internal/domain/geo"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name       string
		lons, lats [][]float64
	}{
		{"single row", [][]float64{{0, 1}}, [][]float64{{0, 1}}},
		{"single column", [][]float64{{0}, {1}}, [][]float64{{0}, {1}}},
		{"row count mismatch", [][]float64{{0, 1}, {0, 1}}, [][]float64{{0, 1}}},
		{"ragged", [][]float64{{0, 1}, {0}}, [][]float64{{0, 1}, {0, 1}}},
		{"latitude out of range", [][]float64{{0, 1}, {0, 1}}, [][]float64{{0, 91}, {0, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.lons, tt.lats); !errors.Is(err, domain.ErrInvalidGrid) {
				t.Errorf("expected ErrInvalidGrid, got %v", err)
			}
		})
	}
}

func TestMeshgrid_IJIndexing(t *testing.T) {
	g, err := Meshgrid([]float64{10, 20, 30, 40}, []float64{45, 50, 55})
	if err != nil {
		t.Fatalf("Meshgrid: %v", err)
	}
	ni, nj := g.Shape()
	if ni != 4 || nj != 3 {
		t.Fatalf("shape = (%d, %d), want (4, 3)", ni, nj)
	}
	if v := g.Vertex(2, 1); v != (orb.Point{30, 50}) {
		t.Errorf("Vertex(2, 1) = %v", v)
	}
	if i, j := g.Unravel(g.Flat(3, 2)); i != 3 || j != 2 {
		t.Errorf("Unravel(Flat(3, 2)) = (%d, %d)", i, j)
	}
}

func TestQuad(t *testing.T) {
	g, _ := Meshgrid([]float64{10, 20, 30, 40}, []float64{45, 50, 55})
	tests := []struct {
		name string
		i, j int
		want geo.Quad
	}{
		{"cell 0 0", 0, 0, geo.Quad{{10, 45}, {20, 45}, {20, 50}, {10, 50}}},
		{"cell 1 0", 1, 0, geo.Quad{{20, 45}, {30, 45}, {30, 50}, {20, 50}}},
		{"cell 0 1", 0, 1, geo.Quad{{10, 50}, {20, 50}, {20, 55}, {10, 55}}},
		{"cyclic in i", 4, 0, geo.Quad{{10, 45}, {20, 45}, {20, 50}, {10, 50}}},
		{"last column wraps", 3, 0, geo.Quad{{40, 45}, {10, 45}, {10, 50}, {40, 50}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Quad(tt.i, tt.j); got != tt.want {
				t.Errorf("Quad(%d, %d) = %v, want %v", tt.i, tt.j, got, tt.want)
			}
		})
	}
}

func TestBoundary_Closed(t *testing.T) {
	g, _ := Meshgrid([]float64{0, 1, 2}, []float64{0, 1})
	ring := g.Boundary()
	want := orb.Ring{{0, 0}, {1, 0}, {2, 0}, {2, 1}, {1, 1}, {0, 1}, {0, 0}}
	if !ring.Equal(want) {
		t.Errorf("Boundary() = %v, want %v", ring, want)
	}
}

func TestRemoveHalo(t *testing.T) {
	g, _ := Meshgrid([]float64{0, 1, 2, 0, 1}, []float64{0, 1, 2})
	out, err := g.RemoveHalo()
	if err != nil {
		t.Fatalf("RemoveHalo: %v", err)
	}
	ni, nj := out.Shape()
	if ni != 3 || nj != 2 {
		t.Fatalf("shape = (%d, %d), want (3, 2)", ni, nj)
	}
	if v := out.Vertex(0, 0); v != (orb.Point{1, 0}) {
		t.Errorf("Vertex(0, 0) = %v, want [1 0]", v)
	}
	if v := out.Vertex(2, 1); v != (orb.Point{0, 1}) {
		t.Errorf("Vertex(2, 1) = %v, want [0 1]", v)
	}

	small, _ := Meshgrid([]float64{0, 1}, []float64{0, 1})
	if _, err := small.RemoveHalo(); !errors.Is(err, domain.ErrInvalidGrid) {
		t.Errorf("expected ErrInvalidGrid, got %v", err)
	}
}

func TestLonsLats_RoundTrip(t *testing.T) {
	lons := [][]float64{{0, 1}, {3, 2}}
	lats := [][]float64{{0, 1}, {0, 1}}
	g, err := New(lons, lats)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h, err := New(g.Lons(), g.Lats())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for k := range g.Len() {
		if g.At(k) != h.At(k) {
			t.Errorf("vertex %d: %v != %v", k, g.At(k), h.At(k))
		}
	}
	if lo, hi := g.LatitudeRange(); lo != 0 || hi != 1 {
		t.Errorf("LatitudeRange() = (%v, %v)", lo, hi)
	}
}
