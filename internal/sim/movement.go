package sim

import (
	"math"

	"github.com/duxbuse/waryes-sub005/internal/nav"
)

const (
	waypointReachedEpsilon = 2.0
	fastMoveMultiplier     = 1.3
	routingFleeDistance    = 200.0
)

// terrainCost adapts the terrain dataset to the planner's cost interface
// for one movement class.
type terrainCost struct {
	terrain    *TerrainMap
	class      MoveClass
	amphibious bool
}

func (c terrainCost) Dims() (int, int)  { return c.terrain.Cols(), c.terrain.Rows() }
func (c terrainCost) CellSize() float64 { return c.terrain.CellSize() }
func (c terrainCost) Cost(col, row int) (float64, bool) {
	return MoveCost(c.terrain.Cell(col, row).Kind, c.class, c.amphibious)
}

// meshKey identifies one movement profile's navmesh. The terrain is
// immutable, so each profile's mesh builds once and is shared by every
// unit with that profile.
type meshKey struct {
	class      MoveClass
	amphibious bool
}

func (w *World) meshFor(class MoveClass, amphibious bool) *nav.Mesh {
	key := meshKey{class: class, amphibious: amphibious}
	if mesh, ok := w.meshes[key]; ok {
		return mesh
	}
	mesh := nav.BuildMesh(terrainCost{terrain: w.terrain, class: class, amphibious: amphibious})
	w.meshes[key] = mesh
	return mesh
}

// requestPath queues a pathfinding request for the unit's active order.
// Air units fly straight and never touch the planner.
func (w *World) requestPath(u *SimUnit, dest Vec2) {
	if u.MoveClass == MoveAir {
		u.Path = []Vec2{dest}
		u.PathIndex = 0
		return
	}
	w.planner.Submit(nav.Request{
		ID:   u.ID,
		From: nav.Point{X: u.Pos.X, Y: u.Pos.Y},
		To:   nav.Point{X: dest.X, Y: dest.Y},
		Cost: terrainCost{terrain: w.terrain, class: u.MoveClass, amphibious: u.Amphibious},
		Mesh: w.meshFor(u.MoveClass, u.Amphibious),
	})
}

// drainPathResults applies finished pathfinding work. Unreachable
// destinations clear the order; the unit holds position and the caller
// hears about it through the event stream.
func (w *World) drainPathResults() {
	results, deferred := w.planner.Run()
	if deferred > 0 {
		w.publishPathBudgetDeferred(deferred)
	}
	for _, res := range results {
		unit := w.units[res.ID]
		if unit == nil || !unit.Alive() {
			continue
		}
		if res.Err != nil {
			w.publishPathUnreachable(unit, res.Err)
			w.completeOrder(unit)
			continue
		}
		path := make([]Vec2, len(res.Waypoints))
		for i, p := range res.Waypoints {
			path[i] = Vec2{X: p.X, Y: p.Y}
		}
		unit.Path = path
		unit.PathIndex = 0
	}
}

// stepMovement advances every unit one tick along its path or flee vector.
func (w *World) stepMovement(dt float64) {
	for _, id := range w.order {
		unit := w.units[id]
		if unit == nil || !unit.Alive() {
			continue
		}
		if unit.Routing {
			w.moveRouting(unit, dt)
			continue
		}
		if !unit.CanMove() {
			continue
		}
		switch unit.Order.Type {
		case OrderMove, OrderAttackMove, OrderReverse:
			w.moveAlongPath(unit, dt)
		case OrderAttack:
			w.moveTowardAttackTarget(unit, dt)
		}
	}
}

// moveRouting drives a routed unit away from its last known threat. Orders
// are ignored until morale recovers.
func (w *World) moveRouting(unit *SimUnit, dt float64) {
	if !unit.CanMove() {
		return
	}
	flee := unit.ThreatDir.Scale(-1)
	if flee == (Vec2{}) {
		return
	}
	speed := w.effectiveSpeed(unit, unit.Speed.OffRoad, false)
	if speed <= 0 {
		return
	}
	next := unit.Pos.Add(flee.Normalized().Scale(speed * dt))
	next = w.clampToMap(next)
	if _, passable := SpeedMultiplier(w.terrain.KindAt(next), unit.MoveClass, unit.Amphibious); !passable {
		return
	}
	w.setUnitPos(unit, next)
	w.setUnitFacing(unit, flee.Angle())
}

// moveAlongPath follows the unit's waypoints, advancing and finally
// clearing the move order on the last waypoint.
func (w *World) moveAlongPath(unit *SimUnit, dt float64) {
	if unit.PathIndex >= len(unit.Path) {
		if len(unit.Path) > 0 {
			w.completeOrder(unit)
		}
		return
	}
	waypoint := unit.Path[unit.PathIndex]
	delta := waypoint.Sub(unit.Pos)
	dist := delta.Length()
	if dist <= waypointReachedEpsilon {
		unit.PathIndex++
		if unit.PathIndex >= len(unit.Path) {
			w.completeOrder(unit)
		}
		return
	}

	reverse := unit.Order.Type == OrderReverse
	base := unit.Speed.OffRoad
	if w.terrain.KindAt(unit.Pos) == TerrainRoad {
		base = unit.Speed.Road
	}
	if reverse {
		base = unit.Speed.Reverse
	}
	speed := w.effectiveSpeed(unit, base, unit.Order.FastMove)
	if speed <= 0 {
		return
	}

	step := speed * dt
	if step >= dist {
		step = dist
	}
	dir := delta.Normalized()
	w.setUnitPos(unit, w.clampToMap(unit.Pos.Add(dir.Scale(step))))

	if reverse && unit.ThreatDir != (Vec2{}) {
		// Backing up keeps the front plate toward the threat.
		w.setUnitFacing(unit, unit.ThreatDir.Angle())
	} else {
		w.setUnitFacing(unit, dir.Angle())
	}
}

// moveTowardAttackTarget closes distance on an attack-order target until
// the best weapon envelope covers it.
func (w *World) moveTowardAttackTarget(unit *SimUnit, dt float64) {
	target := w.units[unit.Order.TargetID]
	if target == nil || !target.Alive() {
		return
	}
	maxRange := 0.0
	for i := range unit.Weapons {
		if !unit.Weapons[i].Smoke {
			maxRange = math.Max(maxRange, unit.Weapons[i].MaxRange)
		}
	}
	dist := unit.Pos.DistanceTo(target.Pos)
	if maxRange <= 0 || dist <= maxRange*0.9 {
		return
	}
	base := unit.Speed.OffRoad
	if w.terrain.KindAt(unit.Pos) == TerrainRoad {
		base = unit.Speed.Road
	}
	speed := w.effectiveSpeed(unit, base, false)
	if speed <= 0 {
		return
	}
	dir := target.Pos.Sub(unit.Pos).Normalized()
	next := w.clampToMap(unit.Pos.Add(dir.Scale(speed * dt)))
	if _, passable := SpeedMultiplier(w.terrain.KindAt(next), unit.MoveClass, unit.Amphibious); !passable {
		return
	}
	w.setUnitPos(unit, next)
	w.setUnitFacing(unit, dir.Angle())
}

// effectiveSpeed applies terrain and fast-move modifiers to a base speed.
func (w *World) effectiveSpeed(unit *SimUnit, base float64, fastMove bool) float64 {
	mult, passable := SpeedMultiplier(w.terrain.KindAt(unit.Pos), unit.MoveClass, unit.Amphibious)
	if !passable {
		// Terrain changed under the unit (should not happen on a static
		// map); crawl out rather than freeze.
		mult = 0.25
	}
	speed := base * mult
	if fastMove {
		speed *= fastMoveMultiplier
	}
	return speed
}

func (w *World) clampToMap(p Vec2) Vec2 {
	return Vec2{
		X: clamp(p.X, 0, w.terrain.Width()),
		Y: clamp(p.Y, 0, w.terrain.Height()),
	}
}

// completeOrder finishes the active order and starts the next queued one.
func (w *World) completeOrder(unit *SimUnit) {
	if len(unit.OrderQueue) > 0 {
		next := unit.OrderQueue[0]
		unit.OrderQueue = unit.OrderQueue[1:]
		w.startOrder(unit, next)
		return
	}
	w.setUnitOrder(unit, Order{Type: OrderNone})
}

// startOrder installs an order and kicks off any pathfinding it needs.
// Routing units refuse attack orders until morale recovers.
func (w *World) startOrder(unit *SimUnit, order Order) {
	if unit.Routing && (order.Type == OrderAttack || order.Type == OrderAttackMove) {
		return
	}
	w.setUnitOrder(unit, order)
	switch order.Type {
	case OrderMove, OrderAttackMove, OrderReverse:
		w.requestPath(unit, order.Target)
	}
}
