// Package ndarray provides a small row-major float64 array with an optional
// missing-value mask, enough to carry gridded fields and corner values
// through interpolation without losing track of missing data.
package ndarray

import (
	"fmt"

	"github.com/kailas-cloud/obsoper/internal/domain"
)

// Array is an immutable-by-convention N-dimensional float64 array.
// A nil mask means no element is missing.
type Array struct {
	shape []int
	data  []float64
	mask  []bool
}

// New wraps data in an array of the given shape. An empty shape is a scalar.
func New(data []float64, shape ...int) (*Array, error) {
	n, err := size(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, fmt.Errorf("%w: %d values for shape %v", domain.ErrShapeMismatch, len(data), shape)
	}
	return &Array{shape: append([]int(nil), shape...), data: data}, nil
}

// Masked wraps data and mask; true in mask marks a missing element.
func Masked(data []float64, mask []bool, shape ...int) (*Array, error) {
	a, err := New(data, shape...)
	if err != nil {
		return nil, err
	}
	if mask == nil {
		return a, nil
	}
	if len(mask) != len(data) {
		return nil, fmt.Errorf("%w: mask has %d elements, data %d", domain.ErrShapeMismatch, len(mask), len(data))
	}
	a.mask = mask
	return a, nil
}

// MustNew is New for literals known to be well formed.
func MustNew(data []float64, shape ...int) *Array {
	a, err := New(data, shape...)
	if err != nil {
		panic(err)
	}
	return a
}

// Zeros returns an unmasked array of zeros.
func Zeros(shape ...int) *Array {
	n, err := size(shape)
	if err != nil {
		panic(err)
	}
	return &Array{shape: append([]int(nil), shape...), data: make([]float64, n)}
}

// MaskedAll returns an array whose every element is missing.
func MaskedAll(shape ...int) *Array {
	a := Zeros(shape...)
	a.mask = make([]bool, len(a.data))
	for i := range a.mask {
		a.mask[i] = true
	}
	return a
}

// Vector returns a 1-D array holding values.
func Vector(values ...float64) *Array {
	return &Array{shape: []int{len(values)}, data: values}
}

// FromRows builds a 2-D array from equal-length rows.
func FromRows(rows [][]float64) (*Array, error) {
	if len(rows) == 0 {
		return Zeros(0, 0), nil
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", domain.ErrShapeMismatch, i, len(r), cols)
		}
		data = append(data, r...)
	}
	return New(data, len(rows), cols)
}

// Shape returns a copy of the dimensions.
func (a *Array) Shape() []int { return append([]int(nil), a.shape...) }

// Ndim returns the number of dimensions.
func (a *Array) Ndim() int { return len(a.shape) }

// Size returns the number of elements.
func (a *Array) Size() int { return len(a.data) }

// Dim returns the length of axis k; negative k counts from the end.
func (a *Array) Dim(k int) int {
	if k < 0 {
		k += len(a.shape)
	}
	return a.shape[k]
}

// Data returns a copy of the values, including those under the mask.
func (a *Array) Data() []float64 { return append([]float64(nil), a.data...) }

// Mask returns a full-length copy of the mask.
func (a *Array) Mask() []bool {
	out := make([]bool, len(a.data))
	copy(out, a.mask)
	return out
}

// AnyMasked reports whether at least one element is missing.
func (a *Array) AnyMasked() bool {
	for _, m := range a.mask {
		if m {
			return true
		}
	}
	return false
}

// Count returns the number of elements that are not missing.
func (a *Array) Count() int {
	n := len(a.data)
	for _, m := range a.mask {
		if m {
			n--
		}
	}
	return n
}

// IsMasked reports whether the element at flat offset k is missing.
func (a *Array) IsMasked(k int) bool {
	return a.mask != nil && a.mask[k]
}

// Value returns the element at flat offset k and whether it is present.
func (a *Array) Value(k int) (float64, bool) {
	return a.data[k], !a.IsMasked(k)
}

// At returns the element at a multi-index and whether it is present.
func (a *Array) At(idx ...int) (float64, bool) {
	return a.Value(a.Offset(idx...))
}

// Set stores v at a multi-index and clears its mask bit.
func (a *Array) Set(v float64, idx ...int) {
	k := a.Offset(idx...)
	a.data[k] = v
	if a.mask != nil {
		a.mask[k] = false
	}
}

// SetMasked marks the element at a multi-index as missing.
func (a *Array) SetMasked(idx ...int) {
	a.setMaskedFlat(a.Offset(idx...))
}

func (a *Array) setMaskedFlat(k int) {
	if a.mask == nil {
		a.mask = make([]bool, len(a.data))
	}
	a.mask[k] = true
}

// Offset converts a multi-index to a flat row-major offset.
func (a *Array) Offset(idx ...int) int {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("ndarray: %d indices for %d dimensions", len(idx), len(a.shape)))
	}
	k := 0
	for d, i := range idx {
		if i < 0 || i >= a.shape[d] {
			panic(fmt.Sprintf("ndarray: index %d out of range for axis %d with size %d", i, d, a.shape[d]))
		}
		k = k*a.shape[d] + i
	}
	return k
}

// Reshape returns a view with a new shape of the same size.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	n, err := size(shape)
	if err != nil {
		return nil, err
	}
	if n != len(a.data) {
		return nil, fmt.Errorf("%w: cannot reshape %v into %v", domain.ErrShapeMismatch, a.shape, shape)
	}
	return &Array{shape: append([]int(nil), shape...), data: a.data, mask: a.mask}, nil
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	out := &Array{shape: a.Shape(), data: a.Data()}
	if a.mask != nil {
		out.mask = a.Mask()
	}
	return out
}

func size(shape []int) (int, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("%w: negative dimension in %v", domain.ErrShapeMismatch, shape)
		}
		n *= d
	}
	return n, nil
}
