package ndarray

import (
	"fmt"

	"github.com/kailas-cloud/obsoper/internal/domain"
)

// BroadcastShape combines shapes with numpy broadcasting rules: shapes are
// aligned on their trailing axes and a length-1 axis stretches to match.
func BroadcastShape(shapes ...[]int) ([]int, error) {
	nd := 0
	for _, s := range shapes {
		nd = max(nd, len(s))
	}
	out := make([]int, nd)
	for i := range out {
		out[i] = 1
	}
	for _, s := range shapes {
		off := nd - len(s)
		for i, d := range s {
			switch {
			case out[off+i] == d || d == 1:
			case out[off+i] == 1:
				out[off+i] = d
			default:
				return nil, fmt.Errorf("%w: shapes %v do not broadcast", domain.ErrShapeMismatch, shapes)
			}
		}
	}
	return out, nil
}

// strides returns the row-major strides of shape src laid out against out,
// with zero stride on broadcast axes.
func strides(src, out []int) []int {
	st := make([]int, len(out))
	off := len(out) - len(src)
	step := 1
	for i := len(src) - 1; i >= 0; i-- {
		if src[i] != 1 {
			st[off+i] = step
		}
		step *= src[i]
	}
	return st
}

// Walk visits every element of the out shape in row-major order and calls
// fn with the flat offsets of the matching element in each operand. The
// offsets slice is reused between calls.
func Walk(out []int, operands [][]int, fn func(offsets []int)) {
	n, _ := size(out)
	if n == 0 {
		return
	}
	st := make([][]int, len(operands))
	for k, s := range operands {
		st[k] = strides(s, out)
	}
	idx := make([]int, len(out))
	offsets := make([]int, len(operands))
	for {
		fn(offsets)
		// odometer increment, last axis fastest
		d := len(out) - 1
		for ; d >= 0; d-- {
			idx[d]++
			for k := range offsets {
				offsets[k] += st[k][d]
			}
			if idx[d] < out[d] {
				break
			}
			for k := range offsets {
				offsets[k] -= st[k][d] * out[d]
			}
			idx[d] = 0
		}
		if d < 0 {
			return
		}
	}
}
