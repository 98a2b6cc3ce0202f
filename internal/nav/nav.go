// Package nav plans grid paths for ground units. Searches are queued and
// drained once per tick under a fixed node-expansion budget so planning
// work is identical on every instance of the same match.
package nav

import "errors"

// ErrUnreachable reports that no passable route connects the request's
// endpoints after nearest-cell resolution.
var ErrUnreachable = errors.New("nav: destination unreachable")

// Point is a position in world coordinates.
type Point struct {
	X float64
	Y float64
}

// CostMap exposes traversal costs over a uniform grid. Cost returns the
// per-cell weight and whether the cell is passable at all.
type CostMap interface {
	Dims() (cols, rows int)
	CellSize() float64
	Cost(col, row int) (float64, bool)
}

// Request asks for a path from From to To for the mover identified by ID.
// Submitting a second request with the same ID replaces the first. When
// Mesh is set the navmesh corridor query runs first and the grid search
// only serves as fallback.
type Request struct {
	ID   string
	From Point
	To   Point
	Cost CostMap
	Mesh *Mesh
}

// Result carries the waypoints for a finished request. Err is set when no
// route exists; Waypoints is nil in that case.
type Result struct {
	ID        string
	Waypoints []Point
	Err       error
}
