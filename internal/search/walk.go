package search

import (
	"container/heap"
	"fmt"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/kailas-cloud/obsoper/internal/domain"
	"github.com/kailas-cloud/obsoper/internal/domain/geo"
	"github.com/kailas-cloud/obsoper/internal/domain/grid"
)

// Walker refines seed vertices into the lower-left vertex of the cell that
// contains each point. All four slices share one length.
type Walker interface {
	Query(lons, lats []float64, i, j []int) (ri, rj []int, err error)
}

// Walk moves across grid cells toward a target, always expanding the
// unvisited cell whose centre is closest to the target by great-circle
// distance. Cells adjacent in index space are adjacent on the sphere, so
// the walk follows grid topology where a distance-only lookup cannot.
type Walk struct {
	grid     *grid.Grid
	ni, nj   int
	cyclic   bool
	cell     CellTest
	maxSteps int
	logger   *zap.Logger
}

// TripolarWalk prepares a walk over a tripolar ocean grid. The i axis wraps
// around when the last column sits next to the first on the sphere.
func TripolarWalk(g *grid.Grid, opts ...Option) *Walk {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	ni, nj := g.Shape()
	return &Walk{
		grid:     g,
		ni:       ni,
		nj:       nj,
		cyclic:   zonallyPeriodic(g),
		cell:     o.cell,
		maxSteps: o.maxSteps,
		logger:   o.logger,
	}
}

// Cyclic reports whether the walk treats i as periodic.
func (w *Walk) Cyclic() bool { return w.cyclic }

// Query implements Walker.
func (w *Walk) Query(lons, lats []float64, i, j []int) (ri, rj []int, err error) {
	if len(lons) != len(lats) || len(i) != len(lons) || len(j) != len(lons) {
		return nil, nil, fmt.Errorf("%w: walk given %d longitudes, %d latitudes, %d i and %d j",
			domain.ErrShapeMismatch, len(lons), len(lats), len(i), len(j))
	}
	ri = make([]int, len(lons))
	rj = make([]int, len(lons))
	for p := range lons {
		ri[p], rj[p], err = w.locate(lons[p], lats[p], i[p], j[p])
		if err != nil {
			return nil, nil, err
		}
	}
	return ri, rj, nil
}

func (w *Walk) locate(lon, lat float64, i0, j0 int) (int, int, error) {
	i0, j0 = w.clamp(i0, j0)
	visited := map[int]struct{}{w.key(i0, j0): {}}
	frontier := &cellQueue{{i: i0, j: j0, dist: w.distance(i0, j0, lon, lat)}}

	for steps := 0; frontier.Len() > 0 && steps < w.maxSteps; steps++ {
		c := heap.Pop(frontier).(queuedCell)
		if w.cell.Contains(w.grid.Quad(c.i, c.j), lon, lat) {
			return c.i, c.j, nil
		}
		for di := -1; di <= 1; di++ {
			for dj := -1; dj <= 1; dj++ {
				ni, nj, ok := w.neighbour(c.i+di, c.j+dj)
				if !ok {
					continue
				}
				k := w.key(ni, nj)
				if _, seen := visited[k]; seen {
					continue
				}
				visited[k] = struct{}{}
				heap.Push(frontier, queuedCell{i: ni, j: nj, dist: w.distance(ni, nj, lon, lat)})
			}
		}
	}
	w.logger.Debug("walk failed",
		zap.Float64("lon", lon),
		zap.Float64("lat", lat),
		zap.Int("seed_i", i0),
		zap.Int("seed_j", j0),
		zap.Int("visited", len(visited)),
	)
	return 0, 0, domain.NewSearchFailed(lon, lat, []int{i0}, []int{j0})
}

// clamp moves a seed vertex onto a valid lower-left index.
func (w *Walk) clamp(i, j int) (int, int) {
	hi := w.ni - 2
	if w.cyclic {
		hi = w.ni - 1
	}
	return min(max(i, 0), hi), min(max(j, 0), w.nj-2)
}

func (w *Walk) neighbour(i, j int) (int, int, bool) {
	if j < 0 || j > w.nj-2 {
		return 0, 0, false
	}
	if w.cyclic {
		return (i + w.ni) % w.ni, j, true
	}
	if i < 0 || i > w.ni-2 {
		return 0, 0, false
	}
	return i, j, true
}

func (w *Walk) key(i, j int) int { return i*w.nj + j }

func (w *Walk) distance(i, j int, lon, lat float64) float64 {
	c := w.grid.Quad(i, j).Center()
	return geo.Haversine(c.X(), c.Y(), lon, lat)
}

// zonallyPeriodic reports whether the last column of g continues into the
// first: the gap between them is no wider than the spacing of the last two
// columns, with some slack for stretched grids.
func zonallyPeriodic(g *grid.Grid) bool {
	ni, nj := g.Shape()
	if ni < 3 {
		return false
	}
	j := nj / 2
	gap := vertexDistance(g.Vertex(ni-1, j), g.Vertex(0, j))
	step := vertexDistance(g.Vertex(ni-2, j), g.Vertex(ni-1, j))
	return gap <= 1.5*step
}

func vertexDistance(a, b orb.Point) float64 {
	return geo.Haversine(a.X(), a.Y(), b.X(), b.Y())
}

type queuedCell struct {
	i, j int
	dist float64
}

// cellQueue is a min-heap of cells ordered by distance to the target.
type cellQueue []queuedCell

func (q cellQueue) Len() int { return len(q) }
func (q cellQueue) Less(a, b int) bool {
	if q[a].dist != q[b].dist {
		return q[a].dist < q[b].dist
	}
	if q[a].i != q[b].i {
		return q[a].i < q[b].i
	}
	return q[a].j < q[b].j
}
func (q cellQueue) Swap(a, b int) { q[a], q[b] = q[b], q[a] }
func (q *cellQueue) Push(x any)   { *q = append(*q, x.(queuedCell)) }
func (q *cellQueue) Pop() any {
	old := *q
	n := len(old)
	c := old[n-1]
	*q = old[:n-1]
	return c
}
