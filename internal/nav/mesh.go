package nav

import (
	"container/heap"
	"math"
)

// Mesh is a triangle navigation mesh derived from a cost map: every
// passable cell splits into two right triangles along its top-left to
// bottom-right diagonal, and triangles sharing a full edge are adjacent.
// The mesh answers corridor queries with a triangle A* followed by a
// funnel pass, which is far cheaper than cell-by-cell grid search on open
// ground. It treats passable terrain uniformly; weight-sensitive routing
// stays with the grid search.
type Mesh struct {
	cols     int
	rows     int
	cellSize float64
	valid    []bool
	links    [][3]meshLink
}

// meshLink is one adjacency: the neighbor triangle and the shared edge's
// corner vertices. tri is -1 when the edge borders impassable ground.
type meshLink struct {
	tri int
	a   int
	b   int
}

// Triangle ids are 2*cellIndex for the upper-right triangle (tl, tr, br)
// and 2*cellIndex+1 for the lower-left one (tl, br, bl). Vertex ids index
// the (cols+1)x(rows+1) grid of cell corners.

// BuildMesh triangulates the passable cells of a cost map. Adjacency is
// derived from cell geometry in a fixed order, so two instances building
// from the same map produce identical meshes.
func BuildMesh(cost CostMap) *Mesh {
	cols, rows := cost.Dims()
	m := &Mesh{
		cols:     cols,
		rows:     rows,
		cellSize: cost.CellSize(),
		valid:    make([]bool, 2*cols*rows),
		links:    make([][3]meshLink, 2*cols*rows),
	}
	passable := func(col, row int) bool {
		if col < 0 || row < 0 || col >= cols || row >= rows {
			return false
		}
		_, ok := cost.Cost(col, row)
		return ok
	}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if !passable(col, row) {
				continue
			}
			tl := row*(cols+1) + col
			tr := tl + 1
			bl := (row+1)*(cols+1) + col
			br := bl + 1
			upper := 2 * (row*cols + col)
			lower := upper + 1
			m.valid[upper] = true
			m.valid[lower] = true

			// Upper triangle: diagonal, then the top and right cell edges,
			// each owned by the neighbor cell's lower triangle.
			m.links[upper][0] = meshLink{tri: lower, a: tl, b: br}
			m.links[upper][1] = meshLink{tri: -1, a: tl, b: tr}
			if passable(col, row-1) {
				m.links[upper][1].tri = 2*((row-1)*cols+col) + 1
			}
			m.links[upper][2] = meshLink{tri: -1, a: tr, b: br}
			if passable(col+1, row) {
				m.links[upper][2].tri = 2*(row*cols+col+1) + 1
			}

			// Lower triangle: diagonal, then the bottom and left cell
			// edges, each owned by the neighbor cell's upper triangle.
			m.links[lower][0] = meshLink{tri: upper, a: tl, b: br}
			m.links[lower][1] = meshLink{tri: -1, a: br, b: bl}
			if passable(col, row+1) {
				m.links[lower][1].tri = 2 * ((row+1)*cols + col)
			}
			m.links[lower][2] = meshLink{tri: -1, a: bl, b: tl}
			if passable(col-1, row) {
				m.links[lower][2].tri = 2 * (row*cols + col - 1)
			}
		}
	}
	return m
}

func (m *Mesh) vertPoint(v int) Point {
	return Point{
		X: float64(v%(m.cols+1)) * m.cellSize,
		Y: float64(v/(m.cols+1)) * m.cellSize,
	}
}

func (m *Mesh) centroid(tri int) Point {
	cellIdx := tri / 2
	col := cellIdx % m.cols
	row := cellIdx / m.cols
	x := float64(col) * m.cellSize
	y := float64(row) * m.cellSize
	if tri%2 == 0 {
		// (tl, tr, br)
		return Point{X: x + m.cellSize*2/3, Y: y + m.cellSize/3}
	}
	// (tl, br, bl)
	return Point{X: x + m.cellSize/3, Y: y + m.cellSize*2/3}
}

// locateTri maps a world point to its containing triangle. Points on an
// impassable cell or off the map are off-mesh.
func (m *Mesh) locateTri(p Point) (int, bool) {
	col := int(p.X / m.cellSize)
	row := int(p.Y / m.cellSize)
	if col < 0 || row < 0 || col >= m.cols || row >= m.rows {
		return 0, false
	}
	base := 2 * (row*m.cols + col)
	if !m.valid[base] {
		return 0, false
	}
	fx := p.X - float64(col)*m.cellSize
	fy := p.Y - float64(row)*m.cellSize
	if fx >= fy {
		return base, true
	}
	return base + 1, true
}

type meshNode struct {
	tri    int
	g      float64
	f      float64
	index  int
	parent *meshNode
}

type meshQueue []*meshNode

func (q meshQueue) Len() int           { return len(q) }
func (q meshQueue) Less(i, j int) bool { return q[i].f < q[j].f }
func (q meshQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *meshQueue) Push(x any) {
	n := x.(*meshNode)
	n.index = len(*q)
	*q = append(*q, n)
}

func (q *meshQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}

func dist(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// FindPath answers a corridor query. It reports ok=false when either
// endpoint is off-mesh or no corridor connects them; the caller falls
// back to the grid search, charging the reported expansions against the
// same budget. Costs are centroid-to-centroid distances; the funnel pass
// straightens the corridor afterwards.
func (m *Mesh) FindPath(from, to Point) ([]Point, int, bool) {
	startTri, ok := m.locateTri(from)
	if !ok {
		return nil, 0, false
	}
	goalTri, ok := m.locateTri(to)
	if !ok {
		return nil, 0, false
	}
	if startTri == goalTri {
		return []Point{to}, 0, true
	}

	open := &meshQueue{}
	heap.Init(open)
	heap.Push(open, &meshNode{tri: startTri, f: dist(m.centroid(startTri), to)})
	gScore := map[int]float64{startTri: 0}
	closed := make([]bool, len(m.valid))
	expanded := 0

	for open.Len() > 0 {
		current := heap.Pop(open).(*meshNode)
		if closed[current.tri] {
			continue
		}
		closed[current.tri] = true
		expanded++
		if current.tri == goalTri {
			chain := make([]int, 0, 16)
			for node := current; node != nil; node = node.parent {
				chain = append(chain, node.tri)
			}
			for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
				chain[i], chain[j] = chain[j], chain[i]
			}
			return m.funnel(chain, from, to), expanded, true
		}
		for _, link := range m.links[current.tri] {
			if link.tri < 0 || closed[link.tri] {
				continue
			}
			tentative := current.g + dist(m.centroid(current.tri), m.centroid(link.tri))
			if prev, seen := gScore[link.tri]; seen && tentative >= prev {
				continue
			}
			gScore[link.tri] = tentative
			heap.Push(open, &meshNode{
				tri:    link.tri,
				g:      tentative,
				f:      tentative + dist(m.centroid(link.tri), to),
				parent: current,
			})
		}
	}
	return nil, expanded, false
}

func cross2(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func (m *Mesh) sharedEdge(t1, t2 int) (int, int) {
	for _, link := range m.links[t1] {
		if link.tri == t2 {
			return link.a, link.b
		}
	}
	return 0, 0
}

// funnel string-pulls the triangle corridor into waypoints. Interior
// corners sit exactly on mesh vertices, so each gets a small bisector
// nudge into open ground to keep discrete movement steps from clipping
// the obstacle they wrap.
func (m *Mesh) funnel(chain []int, from, to Point) []Point {
	type portal struct {
		left  Point
		right Point
	}
	portals := make([]portal, 0, len(chain))
	for i := 0; i+1 < len(chain); i++ {
		a, b := m.sharedEdge(chain[i], chain[i+1])
		pa, pb := m.vertPoint(a), m.vertPoint(b)
		// Orient each portal consistently relative to the corridor.
		if cross2(m.centroid(chain[i]), pa, pb) < 0 {
			pa, pb = pb, pa
		}
		portals = append(portals, portal{left: pa, right: pb})
	}
	portals = append(portals, portal{left: to, right: to})

	var points []Point
	apex, left, right := from, from, from
	apexIdx, leftIdx, rightIdx := 0, 0, 0
	for i := 0; i < len(portals); i++ {
		pl, pr := portals[i].left, portals[i].right
		if cross2(apex, right, pr) <= 0 {
			if apex == right || cross2(apex, left, pr) > 0 {
				right, rightIdx = pr, i
			} else {
				// Right crossed over left: the left funnel corner becomes
				// a waypoint and the funnel restarts from it.
				points = append(points, left)
				apex, apexIdx = left, leftIdx
				left, right = apex, apex
				leftIdx, rightIdx = apexIdx, apexIdx
				i = apexIdx
				continue
			}
		}
		if cross2(apex, left, pl) >= 0 {
			if apex == left || cross2(apex, right, pl) < 0 {
				left, leftIdx = pl, i
			} else {
				points = append(points, right)
				apex, apexIdx = right, rightIdx
				left, right = apex, apex
				leftIdx, rightIdx = apexIdx, apexIdx
				i = apexIdx
				continue
			}
		}
	}
	if len(points) == 0 || points[len(points)-1] != to {
		points = append(points, to)
	}

	for i := 0; i < len(points)-1; i++ {
		prev := from
		if i > 0 {
			prev = points[i-1]
		}
		points[i] = m.nudgeCorner(points[i], prev, points[i+1])
	}
	return points
}

// cornerClearanceFactor scales the corner nudge by cell size; it stays
// under the movement layer's waypoint-reached epsilon.
const cornerClearanceFactor = 0.05

func (m *Mesh) nudgeCorner(corner, prev, next Point) Point {
	u1 := unitVec(prev, corner)
	u2 := unitVec(next, corner)
	// The bisector of the directions toward prev and next points into the
	// wedge the taut corridor wraps, which is the obstacle side. Open
	// ground is the other way.
	sum := Point{X: u1.X + u2.X, Y: u1.Y + u2.Y}
	norm := math.Hypot(sum.X, sum.Y)
	if norm < 1e-9 {
		return corner
	}
	clearance := m.cellSize * cornerClearanceFactor
	return Point{
		X: corner.X - sum.X/norm*clearance,
		Y: corner.Y - sum.Y/norm*clearance,
	}
}

func unitVec(to, from Point) Point {
	d := dist(from, to)
	if d < 1e-9 {
		return Point{}
	}
	return Point{X: (to.X - from.X) / d, Y: (to.Y - from.Y) / d}
}
