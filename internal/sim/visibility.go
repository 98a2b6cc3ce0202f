package sim

import "math"

// CellVisibility is the fog-of-war state of one terrain cell for a team.
// States only ever promote within a tick; a visible cell that loses its
// vision sources demotes to explored at the start of the next pass, never
// back to unexplored.
type CellVisibility uint8

const (
	CellUnexplored CellVisibility = iota
	CellExplored
	CellVisible
)

// DetectionLevel describes how well a team currently perceives an enemy
// unit. Ghost contacts are transient unidentified signals: position only,
// no identity.
type DetectionLevel uint8

const (
	DetectionNone DetectionLevel = iota
	DetectionGhost
	DetectionIdentified
)

// VisibilityState is the per-team fog-of-war record for one tick. All
// allied controllers on the team read the same union state.
type VisibilityState struct {
	Team     Team                      `json:"team"`
	Cols     int                       `json:"cols"`
	Rows     int                       `json:"rows"`
	Cells    []CellVisibility          `json:"cells"`
	Contacts map[string]DetectionLevel `json:"contacts"`
}

func newVisibilityState(team Team, terrain *TerrainMap) *VisibilityState {
	return &VisibilityState{
		Team:     team,
		Cols:     terrain.Cols(),
		Rows:     terrain.Rows(),
		Cells:    make([]CellVisibility, terrain.CellCount()),
		Contacts: make(map[string]DetectionLevel),
	}
}

// CellState returns the fog state of a cell.
func (v *VisibilityState) CellState(col, row int) CellVisibility {
	if col < 0 || row < 0 || col >= v.Cols || row >= v.Rows {
		return CellUnexplored
	}
	return v.Cells[row*v.Cols+col]
}

// Detection reports the current detection level for an enemy unit ID.
func (v *VisibilityState) Detection(unitID string) DetectionLevel {
	return v.Contacts[unitID]
}

// promote raises a cell's state, never lowering it.
func (v *VisibilityState) promote(col, row int, state CellVisibility) {
	if col < 0 || row < 0 || col >= v.Cols || row >= v.Rows {
		return
	}
	idx := row*v.Cols + col
	if state > v.Cells[idx] {
		v.Cells[idx] = state
	}
}

const (
	// elevationVisionMultiplier converts a height advantage into extra
	// vision radius, capped at half the base radius.
	elevationVisionMultiplier = 2.0
	elevationBonusCap         = 0.5

	// opticsRangeFalloff degrades identification (not radius) with range:
	// effective optics at the detection edge is half the rating.
	opticsRangeFalloff = 0.5
)

// elevationBonus is the extra vision radius a viewer gains over a lower
// target position.
func elevationBonus(base, viewerElev, targetElev float64) float64 {
	bonus := (viewerElev - targetElev) * elevationVisionMultiplier
	if bonus < 0 {
		return 0
	}
	cap := base * elevationBonusCap
	if bonus > cap {
		return cap
	}
	return bonus
}

// computeVisibility rebuilds one team's fog of war from its live units.
// Runs every tick after movement so sightlines reflect fresh positions.
func (w *World) computeVisibility(team Team) {
	vis := w.vis[team]
	if vis == nil {
		vis = newVisibilityState(team, w.terrain)
		w.vis[team] = vis
	}

	// Demote: cells stay explored once seen, visible requires an active
	// source this tick.
	for i, c := range vis.Cells {
		if c == CellVisible {
			vis.Cells[i] = CellExplored
		}
	}
	for id := range vis.Contacts {
		delete(vis.Contacts, id)
	}

	for _, id := range w.order {
		unit := w.units[id]
		if unit == nil || !unit.Alive() || unit.Team != team {
			continue
		}
		w.stampUnitVision(vis, unit)
	}

	for _, id := range w.order {
		target := w.units[id]
		if target == nil || !target.Alive() || target.Team == team {
			continue
		}
		level := w.detectUnit(team, target)
		if level > vis.Contacts[target.ID] {
			vis.Contacts[target.ID] = level
		}
		if level == DetectionNone {
			delete(vis.Contacts, target.ID)
		}
	}
}

// stampUnitVision promotes every cell the unit can currently observe.
func (w *World) stampUnitVision(vis *VisibilityState, unit *SimUnit) {
	base := unit.EffectiveVisionRange()
	viewerElev := w.terrain.ElevationAt(unit.Pos)
	maxRadius := base + base*elevationBonusCap
	t := w.terrain

	minCol, minRow := t.Locate(unit.Pos.X-maxRadius, unit.Pos.Y-maxRadius)
	maxCol, maxRow := t.Locate(unit.Pos.X+maxRadius, unit.Pos.Y+maxRadius)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			center := t.CellCenter(col, row)
			radius := base + elevationBonus(base, viewerElev, t.Cell(col, row).Elevation)
			dist := unit.Pos.DistanceTo(center)
			if dist > radius {
				continue
			}
			if !w.LineOfSight(unit.Pos, center) {
				vis.promote(col, row, CellExplored)
				continue
			}
			vis.promote(col, row, CellVisible)
		}
	}
}

// detectUnit runs the team's best detection attempt against one enemy:
// range gate with elevation bonus, LOS gate, then optics-versus-stealth.
// Past the optics-minus-stealth threshold the contact degrades to a ghost
// signal rather than disappearing.
func (w *World) detectUnit(team Team, target *SimUnit) DetectionLevel {
	targetElev := w.terrain.ElevationAt(target.Pos)
	best := DetectionNone
	for _, id := range w.order {
		viewer := w.units[id]
		if viewer == nil || !viewer.Alive() || viewer.Team != team {
			continue
		}
		base := viewer.EffectiveVisionRange()
		viewerElev := w.terrain.ElevationAt(viewer.Pos)
		radius := base + elevationBonus(base, viewerElev, targetElev)
		dist := viewer.Pos.DistanceTo(target.Pos)
		if dist > radius || radius <= 0 {
			continue
		}
		if !w.LineOfSight(viewer.Pos, target.Pos) {
			continue
		}
		opticsAtRange := viewer.Optics * (1.0 - opticsRangeFalloff*dist/radius)
		if target.Stealth > opticsAtRange {
			if best < DetectionGhost {
				best = DetectionGhost
			}
			continue
		}
		return DetectionIdentified
	}
	return best
}

// Visibility returns the team's current fog-of-war state, building an
// empty one for teams that have not fielded units yet.
func (w *World) Visibility(team Team) *VisibilityState {
	if vis, ok := w.vis[team]; ok {
		return vis
	}
	vis := newVisibilityState(team, w.terrain)
	w.vis[team] = vis
	return vis
}

// visibleDistanceLimit is a helper for AI: how far the team can possibly
// see, used to bound candidate scans.
func (w *World) visibleDistanceLimit(team Team) float64 {
	limit := 0.0
	for _, id := range w.order {
		unit := w.units[id]
		if unit == nil || !unit.Alive() || unit.Team != team {
			continue
		}
		r := unit.EffectiveVisionRange()
		r += r * elevationBonusCap
		limit = math.Max(limit, r)
	}
	return limit
}
