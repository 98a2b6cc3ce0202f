package sim

import "math"

// SmokeScreen is a temporary vision blocker placed by smoke weapons.
type SmokeScreen struct {
	Pos         Vec2    `json:"pos"`
	Radius      float64 `json:"radius"`
	ExpiresTick uint64  `json:"expiresTick"`
}

const (
	smokeRadius        = 48.0
	smokeDurationTicks = 600
)

// LineOfSight reports whether the straight segment between two points is
// clear of blocking terrain and smoke. Blocking terrain occludes only when
// an interior cell blocks sight; the endpoints' own cells never occlude,
// so a unit at a forest edge can see out.
func (w *World) LineOfSight(a, b Vec2) bool {
	if !w.terrainClear(a, b) {
		return false
	}
	for _, s := range w.smoke {
		if s.ExpiresTick <= w.tick {
			continue
		}
		if segmentIntersectsCircle(a, b, s.Pos, s.Radius) {
			return false
		}
	}
	return true
}

// terrainClear samples the segment across the terrain grid. Sample spacing
// is a quarter cell so thin blockers cannot be stepped over.
func (w *World) terrainClear(a, b Vec2) bool {
	t := w.terrain
	dist := a.DistanceTo(b)
	if dist == 0 {
		return true
	}
	step := t.CellSize() / 4
	steps := int(math.Ceil(dist / step))
	aCol, aRow := t.Locate(a.X, a.Y)
	bCol, bRow := t.Locate(b.X, b.Y)
	for i := 1; i < steps; i++ {
		frac := float64(i) / float64(steps)
		p := Vec2{X: a.X + (b.X-a.X)*frac, Y: a.Y + (b.Y-a.Y)*frac}
		col, row := t.Locate(p.X, p.Y)
		if col == aCol && row == aRow {
			continue
		}
		if col == bCol && row == bRow {
			continue
		}
		if t.Cell(col, row).Kind.BlocksSight() {
			return false
		}
	}
	return true
}

// segmentIntersectsCircle is a point-to-segment distance test against the
// circle radius.
func segmentIntersectsCircle(a, b, center Vec2, radius float64) bool {
	ab := b.Sub(a)
	lengthSq := ab.X*ab.X + ab.Y*ab.Y
	t := 0.0
	if lengthSq > 0 {
		t = clamp(((center.X-a.X)*ab.X+(center.Y-a.Y)*ab.Y)/lengthSq, 0, 1)
	}
	closest := Vec2{X: a.X + ab.X*t, Y: a.Y + ab.Y*t}
	return closest.DistanceTo(center) <= radius
}

// placeSmoke registers a smoke screen and schedules its expiry.
func (w *World) placeSmoke(at Vec2) {
	screen := SmokeScreen{
		Pos:         at,
		Radius:      smokeRadius,
		ExpiresTick: w.tick + smokeDurationTicks,
	}
	w.smoke = append(w.smoke, screen)
	w.journal.Record(Patch{Kind: PatchSmoke, Payload: SmokePayload{Smoke: screen}})
}

// pruneSmoke drops expired screens. Runs during upkeep, before visibility.
func (w *World) pruneSmoke() {
	kept := w.smoke[:0]
	for _, s := range w.smoke {
		if s.ExpiresTick > w.tick {
			kept = append(kept, s)
		}
	}
	w.smoke = kept
}
