package sim

// Inbound state application. Only the synchronization layer calls into
// this file, and only between ticks: resolved combat outcomes and field
// patches arrive as data and are written directly, never re-simulated.

// Restore overwrites the replicable state from a keyframe. Derived state
// (fog of war, AI memory, planner queue) resets and rebuilds on the next
// tick.
func (w *World) Restore(frame Keyframe) {
	w.tick = frame.Tick
	w.phase = frame.Phase

	w.units = make(map[string]*SimUnit, len(frame.Units))
	w.order = w.order[:0]
	w.nextUnit = frame.NextUnit
	for i := range frame.Units {
		u := frame.Units[i]
		u.removed = false
		copied := u
		w.units[copied.ID] = &copied
		w.order = append(w.order, copied.ID)
		// Live serials floor the counter for frames that omit it.
		if n, ok := parseUnitSerial(copied.ID); ok && n > w.nextUnit {
			w.nextUnit = n
		}
	}

	w.zones = w.zones[:0]
	for i := range frame.Zones {
		z := frame.Zones[i]
		w.zones = append(w.zones, &z)
	}

	w.scores = make(map[Team]int64, len(frame.Scores))
	for team, score := range frame.Scores {
		w.scores[team] = score
	}

	w.smoke = append(w.smoke[:0], frame.Smoke...)
	w.vis = make(map[Team]*VisibilityState)
	w.aiBlackboards = make(map[string]*aiBlackboard)
	w.journal = newJournal(defaultJournalKeyframeCapacity)
}

func parseUnitSerial(id string) (uint64, bool) {
	const prefix = "unit-"
	if len(id) <= len(prefix) || id[:len(prefix)] != prefix {
		return 0, false
	}
	var n uint64
	for _, c := range id[len(prefix):] {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
	}
	return n, true
}

// ApplyDelta writes an authoritative delta's patches into this instance.
// Every payload carries absolute values, so applying the same delta twice
// yields the same state as applying it once. Purely tick-derived timers
// (weapon cooldown decay, smoke expiry) are not journaled; they advance
// here for each tick the delta moves this instance forward.
func (w *World) ApplyDelta(delta SnapshotDelta) {
	for w.tick < delta.Tick {
		w.tick++
		w.advanceDerivedTimers()
	}
	for _, patch := range delta.Patches {
		w.applyPatch(patch)
	}
}

// advanceDerivedTimers replays the non-journaled upkeep for one tick:
// every weapon cooldown steps down and expired smoke drops. Raises (a
// shot's cooldown reset, a new screen) always arrive as patches.
func (w *World) advanceDerivedTimers() {
	for _, id := range w.order {
		unit := w.units[id]
		if unit == nil {
			continue
		}
		for i := range unit.Weapons {
			unit.Weapons[i].tickCooldown()
		}
	}
	w.pruneSmoke()
}

func (w *World) applyPatch(patch Patch) {
	switch patch.Kind {
	case PatchUnitSpawned:
		payload, ok := patch.Payload.(SpawnPayload)
		if !ok {
			return
		}
		if _, exists := w.units[patch.EntityID]; exists {
			return
		}
		unit := payload.Unit
		unit.removed = false
		w.units[unit.ID] = &unit
		w.order = append(w.order, unit.ID)
		if n, ok := parseUnitSerial(unit.ID); ok && n > w.nextUnit {
			w.nextUnit = n
		}
	case PatchUnitRemoved:
		if _, exists := w.units[patch.EntityID]; !exists {
			return
		}
		delete(w.units, patch.EntityID)
		delete(w.aiBlackboards, patch.EntityID)
		kept := w.order[:0]
		for _, id := range w.order {
			if id != patch.EntityID {
				kept = append(kept, id)
			}
		}
		w.order = kept
	default:
		unit := w.units[patch.EntityID]
		if unit == nil && patch.Kind != PatchTeamScore && patch.Kind != PatchZoneOwner && patch.Kind != PatchSmoke {
			return
		}
		w.applyFieldPatch(unit, patch)
	}
}

func (w *World) applyFieldPatch(unit *SimUnit, patch Patch) {
	switch payload := patch.Payload.(type) {
	case PosPayload:
		unit.Pos = Vec2{X: payload.X, Y: payload.Y}
	case FacingPayload:
		unit.Facing = payload.Facing
	case HealthPayload:
		unit.Health = clamp(payload.Health, 0, unit.MaxHealth)
	case MoralePayload:
		unit.Morale = clamp(payload.Morale, 0, unit.MaxMorale)
		unit.Suppression = payload.Suppression
		unit.Routing = payload.Routing
	case OrderPayload:
		unit.Order = payload.Order
		unit.OrderQueue = append(unit.OrderQueue[:0], payload.Queue...)
	case StatusPayload:
		unit.Statuses = append(unit.Statuses[:0], payload.Statuses...)
	case GarrisonPayload:
		unit.Garrisoned = payload.Garrisoned
	case AmmoPayload:
		for i := range unit.Weapons {
			if unit.Weapons[i].Name == payload.Weapon {
				unit.Weapons[i].Ammo = payload.Ammo
				unit.Weapons[i].Cooldown = payload.Cooldown
			}
		}
	case ZoneOwnerPayload:
		for _, zone := range w.zones {
			if zone.ID == patch.EntityID {
				zone.Owner = payload.Owner
			}
		}
	case ScorePayload:
		w.scores[payload.Team] = payload.Score
	case SmokePayload:
		for _, s := range w.smoke {
			if s == payload.Smoke {
				return
			}
		}
		w.smoke = append(w.smoke, payload.Smoke)
	}
}
