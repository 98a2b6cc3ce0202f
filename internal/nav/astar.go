package nav

import (
	"container/heap"
	"math"
)

type cell struct {
	col int
	row int
}

type neighbor struct {
	col      int
	row      int
	step     float64
	diagonal bool
}

var neighborOffsets = [...]neighbor{
	{col: 0, row: -1, step: 1},
	{col: 1, row: 0, step: 1},
	{col: 0, row: 1, step: 1},
	{col: -1, row: 0, step: 1},
	{col: 1, row: -1, step: math.Sqrt2, diagonal: true},
	{col: 1, row: 1, step: math.Sqrt2, diagonal: true},
	{col: -1, row: 1, step: math.Sqrt2, diagonal: true},
	{col: -1, row: -1, step: math.Sqrt2, diagonal: true},
}

// Road cells weigh under 1.0 for wheeled movers, so the octile heuristic
// has to be scaled down to stay admissible.
const heuristicScale = 0.5

type searchNode struct {
	cell   cell
	g      float64
	f      float64
	index  int
	parent *searchNode
}

type searchQueue []*searchNode

func (q searchQueue) Len() int           { return len(q) }
func (q searchQueue) Less(i, j int) bool { return q[i].f < q[j].f }
func (q searchQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *searchQueue) Push(x any) {
	n := x.(*searchNode)
	n.index = len(*q)
	*q = append(*q, n)
}

func (q *searchQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}

type search struct {
	cost     CostMap
	cols     int
	rows     int
	cellSize float64
	expanded int
}

func (s *search) inBounds(c cell) bool {
	return c.col >= 0 && c.row >= 0 && c.col < s.cols && c.row < s.rows
}

func (s *search) index(c cell) int { return c.row*s.cols + c.col }

func (s *search) passable(c cell) bool {
	if !s.inBounds(c) {
		return false
	}
	_, ok := s.cost.Cost(c.col, c.row)
	return ok
}

func (s *search) locate(p Point) cell {
	col := int(p.X / s.cellSize)
	row := int(p.Y / s.cellSize)
	if col < 0 {
		col = 0
	}
	if row < 0 {
		row = 0
	}
	if col >= s.cols {
		col = s.cols - 1
	}
	if row >= s.rows {
		row = s.rows - 1
	}
	return cell{col: col, row: row}
}

func (s *search) center(c cell) Point {
	return Point{
		X: (float64(c.col) + 0.5) * s.cellSize,
		Y: (float64(c.row) + 0.5) * s.cellSize,
	}
}

// canCutCorner rejects diagonal moves that squeeze between two impassable
// orthogonal cells.
func (s *search) canCutCorner(from cell, d neighbor) bool {
	if !d.diagonal {
		return true
	}
	return s.passable(cell{col: from.col + d.col, row: from.row}) &&
		s.passable(cell{col: from.col, row: from.row + d.row})
}

func octile(a, b cell) float64 {
	dx := math.Abs(float64(a.col - b.col))
	dy := math.Abs(float64(a.row - b.row))
	if dx > dy {
		return dx + (math.Sqrt2-1)*dy
	}
	return dy + (math.Sqrt2-1)*dx
}

// maxSnapRadiusCells bounds how far an impassable endpoint may snap to
// passable ground. Points deeper inside blocked terrain fail as
// unreachable instead of silently redirecting across the map.
const maxSnapRadiusCells = 8

func chebyshev(a, b cell) int {
	dc := a.col - b.col
	if dc < 0 {
		dc = -dc
	}
	dr := a.row - b.row
	if dr < 0 {
		dr = -dr
	}
	if dc > dr {
		return dc
	}
	return dr
}

// closestPassable finds the nearest passable cell to c by breadth-first
// ring search out to maxSnapRadiusCells. Visit order follows
// neighborOffsets, so ties resolve identically on every instance.
func (s *search) closestPassable(c cell) (cell, bool) {
	if s.passable(c) {
		return c, true
	}
	visited := make([]bool, s.cols*s.rows)
	visited[s.index(c)] = true
	queue := []cell{c}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		s.expanded++
		if s.passable(cur) {
			return cur, true
		}
		for _, d := range neighborOffsets {
			next := cell{col: cur.col + d.col, row: cur.row + d.row}
			if !s.inBounds(next) || chebyshev(c, next) > maxSnapRadiusCells {
				continue
			}
			idx := s.index(next)
			if visited[idx] {
				continue
			}
			visited[idx] = true
			queue = append(queue, next)
		}
	}
	return cell{}, false
}

// findPath runs weighted A* over the cost map and returns world-space
// waypoints plus the number of nodes expanded. Impassable endpoints snap
// to the nearest passable cell before the search starts.
func findPath(cost CostMap, from, to Point) ([]Point, int, error) {
	cols, rows := cost.Dims()
	if cols <= 0 || rows <= 0 {
		return nil, 0, ErrUnreachable
	}
	s := &search{cost: cost, cols: cols, rows: rows, cellSize: cost.CellSize()}

	start, ok := s.closestPassable(s.locate(from))
	if !ok {
		return nil, s.expanded, ErrUnreachable
	}
	goal, ok := s.closestPassable(s.locate(to))
	if !ok {
		return nil, s.expanded, ErrUnreachable
	}
	// When the destination cell itself is impassable the path ends at the
	// center of the snapped cell instead of the requested point.
	dest := to
	if goal != s.locate(to) {
		dest = s.center(goal)
	}
	if start == goal {
		return []Point{dest}, s.expanded, nil
	}

	open := &searchQueue{}
	heap.Init(open)
	heap.Push(open, &searchNode{cell: start, f: octile(start, goal) * heuristicScale})
	gScore := map[int]float64{s.index(start): 0}
	closed := make([]bool, cols*rows)

	for open.Len() > 0 {
		current := heap.Pop(open).(*searchNode)
		idx := s.index(current.cell)
		if closed[idx] {
			continue
		}
		closed[idx] = true
		s.expanded++
		if current.cell == goal {
			return s.reconstruct(current, dest), s.expanded, nil
		}
		for _, d := range neighborOffsets {
			next := cell{col: current.cell.col + d.col, row: current.cell.row + d.row}
			if !s.inBounds(next) || closed[s.index(next)] {
				continue
			}
			weight, passable := s.cost.Cost(next.col, next.row)
			if !passable {
				continue
			}
			if !s.canCutCorner(current.cell, d) {
				continue
			}
			tentative := current.g + d.step*weight
			nIdx := s.index(next)
			if prev, seen := gScore[nIdx]; seen && tentative >= prev {
				continue
			}
			gScore[nIdx] = tentative
			heap.Push(open, &searchNode{
				cell:   next,
				g:      tentative,
				f:      tentative + octile(next, goal)*heuristicScale,
				parent: current,
			})
		}
	}
	return nil, s.expanded, ErrUnreachable
}

// reconstruct walks parent links back to the start and emits cell-center
// waypoints, substituting the exact destination for the final cell.
func (s *search) reconstruct(end *searchNode, dest Point) []Point {
	var cells []cell
	for node := end; node != nil; node = node.parent {
		cells = append(cells, node.cell)
	}
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
	if len(cells) <= 1 {
		return []Point{dest}
	}
	waypoints := make([]Point, 0, len(cells)-1)
	for _, c := range cells[1:] {
		waypoints = append(waypoints, s.center(c))
	}
	waypoints[len(waypoints)-1] = dest
	return waypoints
}
