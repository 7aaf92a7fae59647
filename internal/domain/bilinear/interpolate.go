package bilinear

import (
	"fmt"

	"github.com/kailas-cloud/obsoper/internal/domain"
	"github.com/kailas-cloud/obsoper/internal/domain/ndarray"
)

// Interpolate multiplies corner values by weights, broadcasting the two
// arrays against each other, and sums over the trailing corner axis. Both
// arrays must end in an axis of length 4. An output element is missing when
// any value or weight it was built from is missing.
func Interpolate(values, weights *ndarray.Array) (*ndarray.Array, error) {
	if values.Ndim() == 0 || values.Dim(-1) != Corners {
		return nil, fmt.Errorf("%w: values shape %v must end in %d corners", domain.ErrShapeMismatch, values.Shape(), Corners)
	}
	if weights.Ndim() == 0 || weights.Dim(-1) != Corners {
		return nil, fmt.Errorf("%w: weights shape %v must end in %d corners", domain.ErrShapeMismatch, weights.Shape(), Corners)
	}
	full, err := ndarray.BroadcastShape(values.Shape(), weights.Shape())
	if err != nil {
		return nil, err
	}
	outShape := full[:len(full)-1]
	n := 1
	for _, d := range outShape {
		n *= d
	}
	data := make([]float64, n)
	mask := make([]bool, n)

	var (
		corner int
		k      int
	)
	ndarray.Walk(full, [][]int{values.Shape(), weights.Shape()}, func(off []int) {
		v, vok := values.Value(off[0])
		w, wok := weights.Value(off[1])
		if !vok || !wok {
			mask[k] = true
		}
		data[k] += v * w
		if corner++; corner == Corners {
			corner = 0
			k++
		}
	})
	for i, m := range mask {
		if m {
			data[i] = 0
		}
	}
	return ndarray.Masked(data, mask, outShape...)
}
