package nav

import (
	"errors"
	"testing"
)

// gridCost is a test cost map: zero weight marks an impassable cell.
type gridCost struct {
	cols     int
	rows     int
	cellSize float64
	weights  []float64
}

func openGrid(cols, rows int) *gridCost {
	weights := make([]float64, cols*rows)
	for i := range weights {
		weights[i] = 1
	}
	return &gridCost{cols: cols, rows: rows, cellSize: 10, weights: weights}
}

func (g *gridCost) block(col, row int) { g.weights[row*g.cols+col] = 0 }

func (g *gridCost) Dims() (int, int)  { return g.cols, g.rows }
func (g *gridCost) CellSize() float64 { return g.cellSize }
func (g *gridCost) Cost(col, row int) (float64, bool) {
	w := g.weights[row*g.cols+col]
	if w <= 0 {
		return 0, false
	}
	return w, true
}

func (g *gridCost) passableAt(p Point) bool {
	col := int(p.X / g.cellSize)
	row := int(p.Y / g.cellSize)
	_, ok := g.Cost(col, row)
	return ok
}

func TestPathRoutesAroundWall(t *testing.T) {
	grid := openGrid(10, 10)
	// Wall at column 5 with a gap on the bottom row.
	for row := 0; row < 9; row++ {
		grid.block(5, row)
	}

	p := NewPlanner(0)
	p.Submit(Request{ID: "u1", From: Point{X: 15, Y: 15}, To: Point{X: 85, Y: 15}, Cost: grid})
	results, deferred := p.Run()
	if deferred != 0 {
		t.Fatalf("deferred = %d, want 0", deferred)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	res := results[0]
	if res.Err != nil {
		t.Fatalf("path failed: %v", res.Err)
	}
	if len(res.Waypoints) == 0 {
		t.Fatalf("no waypoints returned")
	}
	for i, wp := range res.Waypoints {
		if !grid.passableAt(wp) {
			t.Fatalf("waypoint %d at %v crosses the wall", i, wp)
		}
	}
	last := res.Waypoints[len(res.Waypoints)-1]
	if last != (Point{X: 85, Y: 15}) {
		t.Fatalf("final waypoint = %v, want the requested destination", last)
	}
}

func TestDisconnectedCellsAreUnreachable(t *testing.T) {
	grid := openGrid(10, 10)
	for row := 0; row < 10; row++ {
		grid.block(5, row)
	}

	p := NewPlanner(0)
	p.Submit(Request{ID: "u1", From: Point{X: 15, Y: 15}, To: Point{X: 85, Y: 15}, Cost: grid})
	results, _ := p.Run()
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if !errors.Is(results[0].Err, ErrUnreachable) {
		t.Fatalf("err = %v, want ErrUnreachable", results[0].Err)
	}
	if results[0].Waypoints != nil {
		t.Fatalf("unreachable result carried waypoints")
	}
}

func TestBudgetDefersExcessRequests(t *testing.T) {
	grid := openGrid(20, 20)
	p := NewPlanner(1)
	p.Submit(Request{ID: "u1", From: Point{X: 5, Y: 5}, To: Point{X: 195, Y: 195}, Cost: grid})
	p.Submit(Request{ID: "u2", From: Point{X: 5, Y: 195}, To: Point{X: 195, Y: 5}, Cost: grid})
	p.Submit(Request{ID: "u3", From: Point{X: 195, Y: 5}, To: Point{X: 5, Y: 195}, Cost: grid})

	// Budget 1 still serves exactly one request per call so nothing
	// starves, and defers the rest in submission order.
	results, deferred := p.Run()
	if len(results) != 1 || results[0].ID != "u1" || deferred != 2 {
		t.Fatalf("first run: %d results (id %s), %d deferred", len(results), results[0].ID, deferred)
	}
	results, deferred = p.Run()
	if len(results) != 1 || results[0].ID != "u2" || deferred != 1 {
		t.Fatalf("second run served %v with %d deferred", results, deferred)
	}
	results, deferred = p.Run()
	if len(results) != 1 || results[0].ID != "u3" || deferred != 0 {
		t.Fatalf("third run served %v with %d deferred", results, deferred)
	}
	if results, deferred = p.Run(); results != nil || deferred != 0 {
		t.Fatalf("empty queue run returned %v, %d", results, deferred)
	}
}

func TestResubmitReplacesInPlace(t *testing.T) {
	grid := openGrid(10, 10)
	p := NewPlanner(0)
	p.Submit(Request{ID: "u1", From: Point{X: 15, Y: 15}, To: Point{X: 85, Y: 15}, Cost: grid})
	p.Submit(Request{ID: "u1", From: Point{X: 15, Y: 15}, To: Point{X: 15, Y: 85}, Cost: grid})
	if p.QueueLen() != 1 {
		t.Fatalf("queue length = %d, want 1 after replacement", p.QueueLen())
	}
	results, _ := p.Run()
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	last := results[0].Waypoints[len(results[0].Waypoints)-1]
	if last != (Point{X: 15, Y: 85}) {
		t.Fatalf("final waypoint = %v, want the replacement destination", last)
	}
}

func TestImpassableDestinationSnapsToNearestCell(t *testing.T) {
	grid := openGrid(10, 10)
	grid.block(5, 5)

	waypoints, _, err := findPath(grid, Point{X: 15, Y: 15}, Point{X: 55, Y: 55})
	if err != nil {
		t.Fatalf("path failed: %v", err)
	}
	last := waypoints[len(waypoints)-1]
	if !grid.passableAt(last) {
		t.Fatalf("path ends inside the blocked cell at %v", last)
	}
	if dx, dy := last.X-55, last.Y-55; dx*dx+dy*dy > 15*15 {
		t.Fatalf("snapped endpoint %v too far from the requested destination", last)
	}
}

func TestSnapGivesUpBeyondSearchRadius(t *testing.T) {
	grid := openGrid(32, 32)
	// A large lake whose center is farther from the shore than the
	// snap radius allows.
	for row := 4; row < 28; row++ {
		for col := 4; col < 28; col++ {
			grid.block(col, row)
		}
	}

	if _, _, err := findPath(grid, Point{X: 15, Y: 15}, Point{X: 165, Y: 165}); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("err = %v, want ErrUnreachable for a destination deep in the lake", err)
	}

	// Just inside the lake the shore is within the radius, so the
	// endpoint still snaps.
	waypoints, _, err := findPath(grid, Point{X: 15, Y: 15}, Point{X: 65, Y: 65})
	if err != nil {
		t.Fatalf("near-shore path failed: %v", err)
	}
	if last := waypoints[len(waypoints)-1]; !grid.passableAt(last) {
		t.Fatalf("snapped endpoint %v still inside the lake", last)
	}
}

func TestDiagonalNeverCutsCorners(t *testing.T) {
	grid := openGrid(3, 3)
	// The middle column is blocked except at the bottom. A diagonal hop
	// squeezing past the blocked cells would shortcut the dog-leg.
	grid.block(1, 0)
	grid.block(1, 1)

	waypoints, _, err := findPath(grid, Point{X: 5, Y: 5}, Point{X: 25, Y: 25})
	if err != nil {
		t.Fatalf("path failed: %v", err)
	}
	for i, wp := range waypoints {
		if !grid.passableAt(wp) {
			t.Fatalf("waypoint %d at %v enters a blocked cell", i, wp)
		}
	}
	// Cutting the corner at (1,1) would reach the goal in three hops;
	// the legal route needs four.
	if len(waypoints) < 4 {
		t.Fatalf("path of %d waypoints cut a corner: %v", len(waypoints), waypoints)
	}
}

func TestExpansionCountIsReported(t *testing.T) {
	grid := openGrid(10, 10)
	_, expanded, err := findPath(grid, Point{X: 5, Y: 5}, Point{X: 95, Y: 95})
	if err != nil {
		t.Fatalf("path failed: %v", err)
	}
	if expanded <= 0 {
		t.Fatalf("expanded = %d, want positive", expanded)
	}
}
