package bilinear

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/obsoper/internal/domain"
	"github.com/kailas-cloud/obsoper/internal/domain/ndarray"
)

var (
	weights1d = ndarray.Vector(0.25, 0.25, 0.25, 0.25)
	weights2d = ndarray.MustNew([]float64{
		0.25, 0.25, 0.25, 0.25,
		1, 0, 0, 0,
	}, 2, 4)
)

func tile(row []float64, n int) []float64 {
	out := make([]float64, 0, len(row)*n)
	for range n {
		out = append(out, row...)
	}
	return out
}

func assertValues(t *testing.T, got *ndarray.Array, shape []int, want []float64) {
	t.Helper()
	if !reflect.DeepEqual(got.Shape(), shape) {
		t.Fatalf("shape = %v, want %v", got.Shape(), shape)
	}
	for k, w := range want {
		v, ok := got.Value(k)
		if !ok {
			t.Errorf("element %d unexpectedly masked", k)
			continue
		}
		if !almost(v, w, 1e-12) {
			t.Errorf("element %d = %v, want %v", k, v, w)
		}
	}
}

func TestInterpolate_Broadcasting(t *testing.T) {
	corners := []float64{1, 2, 3, 4}
	depthVarying := ndarray.MustNew([]float64{
		0, 0, 0, 0, 0, 0, 0, 0,
		1, 1, 1, 1, 1, 1, 1, 1,
		2, 2, 2, 2, 2, 2, 2, 2,
	}, 3, 2, 4)
	obsVarying := ndarray.MustNew(tile([]float64{0, 0, 0, 0, 1, 1, 1, 1}, 3), 3, 2, 4)

	tests := []struct {
		name    string
		values  *ndarray.Array
		weights *ndarray.Array
		shape   []int
		want    []float64
	}{
		{"1d values 1d weights", ndarray.Vector(corners...), weights1d, nil, []float64{2.5}},
		{"2d values 1d weights", ndarray.MustNew(tile(corners, 2), 2, 4), weights1d, []int{2}, []float64{2.5, 2.5}},
		{"1d values 2d weights", ndarray.Vector(corners...), weights2d, []int{2}, []float64{2.5, 1}},
		{"2d values 2d weights", ndarray.MustNew([]float64{1, 2, 3, 4, 9, 9, 9, 9}, 2, 4), weights2d, []int{2}, []float64{2.5, 9}},
		{"3d values 1d weights", ndarray.MustNew(tile(corners, 4), 2, 2, 4), weights1d, []int{2, 2}, []float64{2.5, 2.5, 2.5, 2.5}},
		{"depth varying 3d values 2d weights", depthVarying, weights2d, []int{3, 2}, []float64{0, 0, 1, 1, 2, 2}},
		{"corner varying 3d values 2d weights", ndarray.MustNew(tile(corners, 6), 3, 2, 4), weights2d, []int{3, 2}, []float64{2.5, 1, 2.5, 1, 2.5, 1}},
		{"obs varying 3d values 2d weights", obsVarying, weights2d, []int{3, 2}, []float64{0, 1, 0, 1, 0, 1}},
		{
			"depth varying 3d values 3d weights", depthVarying,
			ndarray.MustNew([]float64{
				1, 0, 0, 0, 0, 1, 0, 0,
				0, 0, 1, 0, 0, 0, 0, 1,
				0, 0, 0, 0, 0.25, 0.25, 0.25, 0.25,
			}, 3, 2, 4),
			[]int{3, 2}, []float64{0, 0, 1, 1, 0, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Interpolate(tt.values, tt.weights)
			if err != nil {
				t.Fatalf("Interpolate: %v", err)
			}
			assertValues(t, got, tt.shape, tt.want)
		})
	}
}

func TestInterpolate_MaskedValues(t *testing.T) {
	got, err := Interpolate(ndarray.MaskedAll(10, 4), weights1d)
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	if !reflect.DeepEqual(got.Shape(), []int{10}) {
		t.Fatalf("shape = %v", got.Shape())
	}
	if got.Count() != 0 {
		t.Errorf("expected every element masked, %d present", got.Count())
	}
}

func TestInterpolate_AnyMaskedCornerMasksResult(t *testing.T) {
	values, err := ndarray.Masked(
		[]float64{1, 2, 3, 4, 5, 6, 7, 8},
		[]bool{false, false, true, false, false, false, false, false},
		2, 4,
	)
	if err != nil {
		t.Fatalf("Masked: %v", err)
	}
	got, err := Interpolate(values, weights1d)
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	if _, ok := got.At(0); ok {
		t.Error("expected first result masked")
	}
	if v, ok := got.At(1); !ok || !almost(v, 6.5, 1e-12) {
		t.Errorf("second result = %v, %v; want 6.5", v, ok)
	}
}

func TestInterpolate_RequiresCornerAxis(t *testing.T) {
	_, err := Interpolate(ndarray.Vector(1, 2, 3), weights1d)
	if !errors.Is(err, domain.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch for values, got %v", err)
	}
	_, err = Interpolate(ndarray.Vector(1, 2, 3, 4), ndarray.Vector(1, 0))
	if !errors.Is(err, domain.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch for weights, got %v", err)
	}
	_, err = Interpolate(ndarray.Zeros(3, 4), ndarray.Zeros(2, 4))
	if !errors.Is(err, domain.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch for incompatible leading axes, got %v", err)
	}
}
