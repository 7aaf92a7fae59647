// Package index provides nearest-vertex lookups over model grids backed by
// gonum kd-trees.
package index

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// vertex is a kd-tree point that remembers the flat grid index it came from.
type vertex struct {
	coords []float64
	flat   int
}

func (v vertex) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return v.coords[d] - c.(vertex).coords[d]
}

func (v vertex) Dims() int { return len(v.coords) }

func (v vertex) Distance(c kdtree.Comparable) float64 {
	var sum float64
	for k, x := range c.(vertex).coords {
		d := v.coords[k] - x
		sum += d * d
	}
	return sum
}

// vertices implements kdtree.Interface.
type vertices []vertex

func (p vertices) Index(i int) kdtree.Comparable         { return p[i] }
func (p vertices) Len() int                              { return len(p) }
func (p vertices) Slice(start, end int) kdtree.Interface { return p[start:end] }
func (p vertices) Pivot(d kdtree.Dim) int {
	return plane{vertices: p, dim: d}.pivot()
}

// plane sorts vertices along one dimension for median selection.
type plane struct {
	vertices
	dim kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	return p.vertices[i].coords[p.dim] < p.vertices[j].coords[p.dim]
}
func (p plane) Swap(i, j int) { p.vertices[i], p.vertices[j] = p.vertices[j], p.vertices[i] }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{vertices: p.vertices[start:end], dim: p.dim}
}
func (p plane) pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

// tree wraps a kd-tree built over grid vertices.
type tree struct {
	kd *kdtree.Tree
	n  int
}

func newTree(points vertices) *tree {
	return &tree{kd: kdtree.New(points, false), n: len(points)}
}

// nearest returns the flat index of the vertex closest to q.
func (t *tree) nearest(q []float64) int {
	got, _ := t.kd.Nearest(vertex{coords: q})
	return got.(vertex).flat
}

// nearestK returns the flat indices of the k vertices closest to q, nearest
// first. Equal distances are ordered by flat index.
func (t *tree) nearestK(q []float64, k int) []int {
	k = min(k, t.n)
	if k <= 0 {
		return nil
	}
	keep := kdtree.NewNKeeper(k)
	t.kd.NearestSet(keep, vertex{coords: q})

	found := make([]kdtree.ComparableDist, 0, k)
	for _, c := range keep.Heap {
		if c.Comparable == nil || math.IsInf(c.Dist, 1) {
			continue
		}
		found = append(found, c)
	}
	sort.Slice(found, func(a, b int) bool {
		if found[a].Dist != found[b].Dist {
			return found[a].Dist < found[b].Dist
		}
		return found[a].Comparable.(vertex).flat < found[b].Comparable.(vertex).flat
	})
	out := make([]int, len(found))
	for i, c := range found {
		out[i] = c.Comparable.(vertex).flat
	}
	return out
}
