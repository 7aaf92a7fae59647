// Package bilinear maps points inside general quadrilateral cells onto the
// unit square and interpolates corner values with bilinear weights.
//
// A cell with corners (x0,y0)..(x3,y3), ordered lower-left, lower-right,
// upper-right, upper-left, is the image of the unit square under
//
//	x(ex,ey) = a1 + a2*ex + a3*ey + a4*ex*ey
//	y(ex,ey) = b1 + b2*ex + b3*ey + b4*ex*ey
//
// with alpha = (x0, x1-x0, x3-x0, x2-x1-x3+x0) and beta built the same way
// from the y coordinates. Eliminating ey leaves a quadratic in ex, so the
// inverse mapping is algebraic.
//
// Points are assumed to lie inside their cell, and cells are assumed to be
// convex and counter-clockwise. Neither is checked here: establish
// containment with a search first.
package bilinear

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/obsoper/internal/domain"
	"github.com/kailas-cloud/obsoper/internal/domain/geo"
	"github.com/kailas-cloud/obsoper/internal/domain/ndarray"
)

// Corners is the number of cell corners, the length of the trailing axis of
// every weight and corner-value array.
const Corners = 4

// Transform holds the inverse bilinear mapping for one cell shared by all
// points, or one cell per point.
type Transform struct {
	alpha   [][Corners]float64
	beta    [][Corners]float64
	weights *ndarray.Array
}

// NewTransform derives the mapping coefficients of quads and the weights of
// the points (xs[k], ys[k]). Either a single quad serves every point, a
// single point is mapped into every quad, or quads and points pair up.
func NewTransform(quads []geo.Quad, xs, ys []float64) (*Transform, error) {
	if _, err := pairs(len(quads), xs, ys); err != nil {
		return nil, err
	}
	t := &Transform{
		alpha: make([][Corners]float64, len(quads)),
		beta:  make([][Corners]float64, len(quads)),
	}
	for k, q := range quads {
		t.alpha[k], t.beta[k] = coefficients(q)
	}
	ex, ey, err := t.ToUnitSquare(xs, ys)
	if err != nil {
		return nil, err
	}
	t.weights = UnitSquareWeights(ex, ey)
	return t, nil
}

// Alpha returns the x mapping coefficients, one row per cell.
func (t *Transform) Alpha() [][Corners]float64 {
	return append([][Corners]float64(nil), t.alpha...)
}

// Beta returns the y mapping coefficients, one row per cell.
func (t *Transform) Beta() [][Corners]float64 {
	return append([][Corners]float64(nil), t.beta...)
}

// Weights returns the (N, 4) corner weights computed at construction.
func (t *Transform) Weights() *ndarray.Array {
	return t.weights
}

// Interpolate applies the cached weights to corner values whose trailing
// axis enumerates the four corners.
func (t *Transform) Interpolate(values *ndarray.Array) (*ndarray.Array, error) {
	return Interpolate(values, t.weights)
}

// ToUnitSquare returns the parametric coordinates of each point relative
// to its cell.
func (t *Transform) ToUnitSquare(xs, ys []float64) (ex, ey []float64, err error) {
	n, err := pairs(len(t.alpha), xs, ys)
	if err != nil {
		return nil, nil, err
	}
	ex = make([]float64, n)
	ey = make([]float64, n)
	for k := range n {
		c := pick(k, len(t.alpha))
		p := pick(k, len(xs))
		ex[k], ey[k] = invert(t.alpha[c], t.beta[c], xs[p], ys[p])
	}
	return ex, ey, nil
}

// InterpolationWeights returns the (N, 4) bilinear weights of points inside
// quads, with the same pairing rules as NewTransform.
func InterpolationWeights(quads []geo.Quad, xs, ys []float64) (*ndarray.Array, error) {
	t, err := NewTransform(quads, xs, ys)
	if err != nil {
		return nil, err
	}
	return t.weights, nil
}

// UnitSquareWeights converts parametric coordinates into (N, 4) weights
// ordered lower-left, lower-right, upper-right, upper-left.
func UnitSquareWeights(ex, ey []float64) *ndarray.Array {
	w := ndarray.Zeros(len(ex), Corners)
	for k := range ex {
		x, y := ex[k], ey[k]
		w.Set((1-x)*(1-y), k, 0)
		w.Set(x*(1-y), k, 1)
		w.Set(x*y, k, 2)
		w.Set((1-x)*y, k, 3)
	}
	return w
}

// Forward evaluates the bilinear mapping of q at (ex, ey).
func Forward(q geo.Quad, ex, ey float64) (x, y float64) {
	a, b := coefficients(q)
	return a[0] + a[1]*ex + a[2]*ey + a[3]*ex*ey,
		b[0] + b[1]*ex + b[2]*ey + b[3]*ex*ey
}

// UnitSquare returns the parametric coordinates of a single point in q.
func UnitSquare(q geo.Quad, x, y float64) (ex, ey float64) {
	a, b := coefficients(q)
	return invert(a, b, x, y)
}

func coefficients(q geo.Quad) (alpha, beta [Corners]float64) {
	x0, x1, x2, x3 := q[0].X(), q[1].X(), q[2].X(), q[3].X()
	y0, y1, y2, y3 := q[0].Y(), q[1].Y(), q[2].Y(), q[3].Y()
	alpha = [Corners]float64{x0, x1 - x0, x3 - x0, x2 - x1 - x3 + x0}
	beta = [Corners]float64{y0, y1 - y0, y3 - y0, y2 - y1 - y3 + y0}
	return alpha, beta
}

func invert(a, b [Corners]float64, x, y float64) (ex, ey float64) {
	dx, dy := x-a[0], y-b[0]
	qa := a[1]*b[3] - a[3]*b[1]
	qb := a[1]*b[2] - a[2]*b[1] + a[3]*dy - b[3]*dx
	qc := a[2]*dy - b[2]*dx
	ex = quadraticRoot(qa, qb, qc)

	// back substitute through whichever equation depends more on ey
	denX := a[2] + a[3]*ex
	denY := b[2] + b[3]*ex
	if math.Abs(denX) >= math.Abs(denY) {
		ey = (dx - a[1]*ex) / denX
	} else {
		ey = (dy - b[1]*ex) / denY
	}
	return ex, ey
}

// pairs validates point arrays against a cell count and returns the number
// of (cell, point) pairs.
func pairs(cells int, xs, ys []float64) (int, error) {
	if len(xs) != len(ys) {
		return 0, fmt.Errorf("%w: %d x coordinates, %d y coordinates", domain.ErrShapeMismatch, len(xs), len(ys))
	}
	points := len(xs)
	switch {
	case cells == 0:
		return 0, fmt.Errorf("%w: no cells given", domain.ErrShapeMismatch)
	case cells == 1:
		return points, nil
	case points == 1 || points == cells:
		return cells, nil
	default:
		return 0, fmt.Errorf("%w: %d cells for %d points", domain.ErrShapeMismatch, cells, points)
	}
}

func pick(k, n int) int {
	if n == 1 {
		return 0
	}
	return k
}
