package sim

import "math"

// RejectReason explains why an attack did not fire. Rejections happen
// before cooldown or ammo are consumed and are never fatal; the caller
// re-evaluates next tick.
type RejectReason uint8

const (
	RejectNone RejectReason = iota
	RejectRouting
	RejectOnCooldown
	RejectNoAmmo
	RejectOutOfRange
	RejectNoLineOfSight
)

func (r RejectReason) String() string {
	switch r {
	case RejectRouting:
		return "routing"
	case RejectOnCooldown:
		return "on_cooldown"
	case RejectNoAmmo:
		return "ammo_exhausted"
	case RejectOutOfRange:
		return "out_of_range"
	case RejectNoLineOfSight:
		return "no_line_of_sight"
	default:
		return "none"
	}
}

// AttackOutcome is the full result of one attack resolution. Outcomes are
// transmitted to predictive instances as data; the receiving side never
// re-rolls them.
type AttackOutcome struct {
	Tick        uint64       `json:"tick"`
	AttackerID  string       `json:"attackerId"`
	TargetID    string       `json:"targetId"`
	Weapon      string       `json:"weapon"`
	Fired       bool         `json:"fired"`
	Reject      RejectReason `json:"reject,omitempty"`
	Hit         bool         `json:"hit"`
	Facing      ArmorFacing  `json:"facing"`
	Penetrated  bool         `json:"penetrated"`
	Damage      float64      `json:"damage"`
	Suppression float64      `json:"suppression"`
	Critical    bool         `json:"critical,omitempty"`
	Malus       Malus        `json:"malus,omitempty"`
	Destroyed   bool         `json:"destroyed,omitempty"`
}

const (
	criticalHitChance       = 0.05
	garrisonDamageReduction = 0.5
	suppressionMoraleFactor = 0.025
	moraleRegenPerTick      = 0.004
	suppressionDecayPerTick = 0.05
	reengageMoraleThreshold = 0.3
	retreatHealthThreshold  = 0.3
)

// struckFacing determines which armor facing an attack from the given
// origin checks, relative to the target's facing angle. Top-attack
// weapons always strike the roof.
func struckFacing(origin Vec2, target *SimUnit, topAttack bool) ArmorFacing {
	if topAttack {
		return ArmorTop
	}
	incoming := origin.Sub(target.Pos).Angle()
	rel := math.Abs(normalizeAngle(incoming - target.Facing))
	switch {
	case rel <= math.Pi/4:
		return ArmorFront
	case rel >= 3*math.Pi/4:
		return ArmorRear
	default:
		return ArmorSide
	}
}

// ResolveAttack runs the full combat pipeline for one shot: range gate,
// LOS gate, accuracy roll, penetration against the struck facing, damage,
// critical effects, and suppression. Rejected attacks consume neither
// cooldown nor ammo.
func (w *World) ResolveAttack(attacker *SimUnit, weapon *SimWeapon, target *SimUnit) AttackOutcome {
	outcome := AttackOutcome{
		Tick:       w.tick,
		AttackerID: attacker.ID,
		TargetID:   target.ID,
		Weapon:     weapon.Name,
	}

	if !attacker.CanFire() {
		outcome.Reject = RejectRouting
		return outcome
	}
	if weapon.Cooldown > 0 {
		outcome.Reject = RejectOnCooldown
		return outcome
	}
	if !weapon.HasAmmo() {
		outcome.Reject = RejectNoAmmo
		return outcome
	}

	dist := attacker.Pos.DistanceTo(target.Pos)
	if !weapon.InRange(dist) {
		outcome.Reject = RejectOutOfRange
		return outcome
	}
	if weapon.RequiresLOS && !w.LineOfSight(attacker.Pos, target.Pos) {
		// Guided rounds lose tracking the moment the sightline breaks;
		// smoke blocks the same as terrain.
		outcome.Reject = RejectNoLineOfSight
		return outcome
	}

	weapon.consumeShot()
	w.recordWeaponPatch(attacker, weapon)
	outcome.Fired = true
	outcome.Facing = struckFacing(attacker.Pos, target, weapon.TopAttack)

	moraleFactor := 0.0
	if attacker.MaxMorale > 0 {
		moraleFactor = clamp(attacker.Morale/attacker.MaxMorale, 0, 1)
	}
	accuracy := weapon.accuracyAt(dist) * moraleFactor * attacker.veterancyAccuracyBonus()
	outcome.Hit = w.rng.Next(StreamCombatHit) < accuracy

	if outcome.Hit {
		penetration := weapon.Penetration + weapon.kineticBonus(dist)
		armor := target.Armor.Value(outcome.Facing)
		if penetration > armor {
			outcome.Penetrated = true
			damage := weapon.Damage
			if w.rng.Next(StreamCombatCrit) < criticalHitChance {
				outcome.Critical = true
				damage++
				outcome.Malus = w.rollCriticalMalus(target)
			}
			if target.Garrisoned {
				damage *= garrisonDamageReduction
			}
			outcome.Damage = damage
		}
	}

	// Suppression lands on hit or miss; non-penetrating hits still apply
	// the full value. Morale decay is doubled relative to the raw
	// suppression number.
	if weapon.Suppression > 0 {
		outcome.Suppression = weapon.Suppression
	}

	w.applyOutcome(attacker, target, &outcome)
	return outcome
}

// rollCriticalMalus picks one category-appropriate malus and installs it.
// Engine and optics maluses stick permanently; the rest are timed.
func (w *World) rollCriticalMalus(target *SimUnit) Malus {
	table := criticalMalusTable[target.Category]
	if len(table) == 0 {
		return MalusNone
	}
	malus := table[w.rng.IntN(StreamCombatMalus, len(table))]
	effect := StatusEffect{Malus: malus}
	switch malus {
	case MalusOpticsDestroyed, MalusEngineDisabled, MalusRadioDestroyed:
		effect.Permanent = true
	default:
		effect.RemainingTicks = 150
	}
	w.setUnitStatus(target, effect)
	return malus
}

// applyOutcome commits the resolved result through the write barriers and
// records the outcome event.
func (w *World) applyOutcome(attacker, target *SimUnit, outcome *AttackOutcome) {
	if outcome.Damage > 0 {
		w.setUnitHealth(target, target.Health-outcome.Damage)
		if target.Health <= 0 {
			outcome.Destroyed = true
		}
	}
	if outcome.Suppression > 0 {
		w.applySuppression(target, outcome.Suppression)
	}
	// Taking fire reorients the target's threat axis toward the shooter.
	threat := attacker.Pos.Sub(target.Pos).Normalized()
	if threat != (Vec2{}) {
		target.ThreatDir = threat
	}
	w.journal.RecordOutcome(*outcome)
	w.publishAttackOutcome(attacker, target, outcome)
}

// FireSmoke resolves a smoke round at a ground position. Smoke rounds use
// the same gating as direct fire but place a vision blocker instead of
// rolling to hit.
func (w *World) FireSmoke(attacker *SimUnit, weapon *SimWeapon, at Vec2) AttackOutcome {
	outcome := AttackOutcome{
		Tick:       w.tick,
		AttackerID: attacker.ID,
		Weapon:     weapon.Name,
	}
	if !attacker.CanFire() {
		outcome.Reject = RejectRouting
		return outcome
	}
	if weapon.Cooldown > 0 {
		outcome.Reject = RejectOnCooldown
		return outcome
	}
	if !weapon.HasAmmo() {
		outcome.Reject = RejectNoAmmo
		return outcome
	}
	dist := attacker.Pos.DistanceTo(at)
	if !weapon.InRange(dist) {
		outcome.Reject = RejectOutOfRange
		return outcome
	}
	weapon.consumeShot()
	w.recordWeaponPatch(attacker, weapon)
	outcome.Fired = true
	w.placeSmoke(at)
	w.journal.RecordOutcome(outcome)
	return outcome
}

// stepCombat fires every unit that has a target this tick. Explicit attack
// orders take priority; units on attack-move or hold engage the best
// identified contact in range.
func (w *World) stepCombat() {
	for _, id := range w.order {
		attacker := w.units[id]
		if attacker == nil || !attacker.Alive() || !attacker.CanFire() {
			continue
		}
		if attacker.Order.Type == OrderSmoke {
			w.stepSmokeOrder(attacker)
			continue
		}
		target := w.combatTarget(attacker)
		if target == nil {
			continue
		}
		for i := range attacker.Weapons {
			weapon := &attacker.Weapons[i]
			if weapon.Smoke || !weapon.Ready() {
				continue
			}
			w.ResolveAttack(attacker, weapon, target)
		}
	}
}

// stepSmokeOrder fires the unit's smoke weapon at the ordered point once
// it comes off cooldown. Orders the unit cannot satisfy (no smoke weapon,
// dry tubes, point beyond throw) complete without firing; per-shot gating
// inside FireSmoke still applies.
func (w *World) stepSmokeOrder(unit *SimUnit) {
	var weapon *SimWeapon
	for i := range unit.Weapons {
		if unit.Weapons[i].Smoke {
			weapon = &unit.Weapons[i]
			break
		}
	}
	if weapon == nil || !weapon.HasAmmo() {
		w.completeOrder(unit)
		return
	}
	if !weapon.InRange(unit.Pos.DistanceTo(unit.Order.Target)) {
		w.completeOrder(unit)
		return
	}
	if weapon.Cooldown > 0 {
		return
	}
	w.FireSmoke(unit, weapon, unit.Order.Target)
	w.completeOrder(unit)
}

// combatTarget picks this tick's target for a unit, if any.
func (w *World) combatTarget(attacker *SimUnit) *SimUnit {
	vis := w.Visibility(attacker.Team)

	if attacker.Order.Type == OrderAttack && attacker.Order.TargetID != "" {
		target := w.units[attacker.Order.TargetID]
		if target != nil && target.Alive() && vis.Detection(target.ID) == DetectionIdentified {
			return target
		}
		if target == nil || !target.Alive() {
			// Target gone: the order completes.
			w.completeOrder(attacker)
		}
		return nil
	}

	switch attacker.Order.Type {
	case OrderNone, OrderHold, OrderAttackMove:
		return w.bestTargetInRange(attacker, vis)
	default:
		return nil
	}
}

// bestTargetInRange returns the highest threat-scored identified enemy
// within any weapon's envelope, ties broken by unit ID so authoritative
// and predictive instances agree without shared iteration order.
func (w *World) bestTargetInRange(attacker *SimUnit, vis *VisibilityState) *SimUnit {
	maxRange := 0.0
	for i := range attacker.Weapons {
		if attacker.Weapons[i].Smoke {
			continue
		}
		maxRange = math.Max(maxRange, attacker.Weapons[i].MaxRange)
	}
	if maxRange == 0 {
		return nil
	}

	var best *SimUnit
	bestScore := math.Inf(-1)
	for _, id := range w.order {
		target := w.units[id]
		if target == nil || !target.Alive() || target.Team == attacker.Team {
			continue
		}
		if vis.Detection(target.ID) != DetectionIdentified {
			continue
		}
		dist := attacker.Pos.DistanceTo(target.Pos)
		if dist > maxRange {
			continue
		}
		score := threatScore(target, dist, maxRange)
		if score > bestScore || (score == bestScore && best != nil && target.ID < best.ID) {
			best = target
			bestScore = score
		}
	}
	return best
}

// threatScore weighs a candidate's damage potential against distance.
// The exact weights matter less than their stability: both instances must
// rank candidates identically.
func threatScore(target *SimUnit, dist, maxRange float64) float64 {
	potential := 0.0
	for i := range target.Weapons {
		wscore := target.Weapons[i].Damage + target.Weapons[i].Suppression/10
		potential = math.Max(potential, wscore)
	}
	return potential / (1.0 + dist/maxRange)
}
