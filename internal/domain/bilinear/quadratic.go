package bilinear

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/obsoper/internal/domain"
)

// degenerate is the relative size below which the quadratic coefficient is
// treated as zero and the equation solved as linear.
const degenerate = 1e-12

// QuadraticRoot solves a*x^2 + b*x + c = 0 element-wise and returns, for
// each equation, the root closest to the interval [0, 1]. Coefficient
// slices of length one broadcast against the others.
func QuadraticRoot(a, b, c []float64) ([]float64, error) {
	n := max(len(a), len(b), len(c))
	for _, s := range [][]float64{a, b, c} {
		if len(s) != n && len(s) != 1 {
			return nil, fmt.Errorf("%w: coefficient lengths %d, %d, %d", domain.ErrShapeMismatch, len(a), len(b), len(c))
		}
	}
	out := make([]float64, n)
	for k := range out {
		out[k] = quadraticRoot(a[pick(k, len(a))], b[pick(k, len(b))], c[pick(k, len(c))])
	}
	return out, nil
}

func quadraticRoot(a, b, c float64) float64 {
	if math.Abs(a) <= degenerate*max(math.Abs(b), math.Abs(c)) {
		return -c / b
	}
	// clamp round-off below zero; points on a cell edge give disc ~ 0
	disc := max(b*b-4*a*c, 0)
	// cancellation-free form: q/a and c/q are the two roots
	q := -0.5 * (b + math.Copysign(math.Sqrt(disc), b))
	root := q / a
	if q != 0 {
		if other := c / q; outside(other) < outside(root) {
			root = other
		}
	}
	return root
}

// outside is the distance from r to the closed unit interval.
func outside(r float64) float64 {
	return max(0, -r, r-1)
}
