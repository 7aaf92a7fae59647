package index

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/obsoper/internal/domain"
	"github.com/kailas-cloud/obsoper/internal/domain/grid"
)

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

func TestLonLat_Nearest(t *testing.T) {
	g := mustGrid(t,
		[][]float64{{0, 1}, {0, 1}},
		[][]float64{{0, 0}, {1, 1}},
	)
	i, j, err := NewLonLat(g).Nearest([]float64{0.1, 0.9, 0.9}, []float64{0.1, 0.1, 0.9})
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	if !reflect.DeepEqual(i, []int{0, 0, 1}) || !reflect.DeepEqual(j, []int{0, 1, 1}) {
		t.Errorf("got i=%v j=%v, want i=[0 0 1] j=[0 1 1]", i, j)
	}
}

func TestLonLat_NearestOnIrregularGrid(t *testing.T) {
	g := mustGrid(t,
		[][]float64{{0, 0, 0}, {2, 2, 2}, {5, 5, 5}},
		[][]float64{{0, 1, 5}, {0, 1, 5}, {0, 1, 5}},
	)
	idx := NewLonLat(g)
	tests := []struct {
		name     string
		lon, lat float64
		i, j     int
	}{
		{"origin", 0, 0, 0, 0},
		{"upper right", 5, 5, 2, 2},
		{"near upper left", 0.1, 4.9, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i, j, err := idx.Nearest([]float64{tt.lon}, []float64{tt.lat})
			if err != nil {
				t.Fatalf("Nearest: %v", err)
			}
			if i[0] != tt.i || j[0] != tt.j {
				t.Errorf("got (%d, %d), want (%d, %d)", i[0], j[0], tt.i, tt.j)
			}
		})
	}
}

func TestCartesian_NearestCorners(t *testing.T) {
	idx := NewCartesian(mustMeshgrid(t, []float64{10, 20}, []float64{50, 70}))
	tests := []struct {
		lon, lat float64
		i, j     int
	}{
		{10, 50, 0, 0},
		{20, 50, 1, 0},
		{10, 70, 0, 1},
		{20, 70, 1, 1},
	}
	for _, tt := range tests {
		i, j, err := idx.Nearest([]float64{tt.lon}, []float64{tt.lat})
		if err != nil {
			t.Fatalf("Nearest: %v", err)
		}
		if i[0] != tt.i || j[0] != tt.j {
			t.Errorf("(%v, %v): got (%d, %d), want (%d, %d)", tt.lon, tt.lat, i[0], j[0], tt.i, tt.j)
		}
	}
}

func TestCartesian_AcrossDateline(t *testing.T) {
	idx := NewCartesian(mustMeshgrid(t, []float64{100, -179}, []float64{50, 70}))

	i, j, err := idx.Nearest([]float64{179}, []float64{70})
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	if i[0] != 1 || j[0] != 1 {
		t.Errorf("got (%d, %d), want (1, 1)", i[0], j[0])
	}

	ik, jk, err := idx.NearestK([]float64{179}, []float64{70}, 4)
	if err != nil {
		t.Fatalf("NearestK: %v", err)
	}
	if !reflect.DeepEqual(ik[0], []int{1, 1, 0, 0}) || !reflect.DeepEqual(jk[0], []int{1, 0, 1, 0}) {
		t.Errorf("got i=%v j=%v, want i=[1 1 0 0] j=[1 0 1 0]", ik[0], jk[0])
	}
}

func TestNearestK_CapsAtGridSize(t *testing.T) {
	idx := NewCartesian(mustMeshgrid(t, []float64{0, 1}, []float64{0, 1}))
	i, _, err := idx.NearestK([]float64{0.2}, []float64{0.1}, 8)
	if err != nil {
		t.Fatalf("NearestK: %v", err)
	}
	if len(i[0]) != 4 {
		t.Errorf("expected 4 candidates, got %d", len(i[0]))
	}
	if i[0][0] != 0 {
		t.Errorf("nearest candidate i = %d, want 0", i[0][0])
	}
}

func TestNearest_ShapeMismatch(t *testing.T) {
	idx := NewLonLat(mustMeshgrid(t, []float64{0, 1}, []float64{0, 1}))
	if _, _, err := idx.Nearest([]float64{0}, nil); !errors.Is(err, domain.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
	if _, _, err := idx.NearestK([]float64{0}, []float64{0}, 0); !errors.Is(err, domain.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch for k=0, got %v", err)
	}
}
