package sim

// Write barriers. Every entity mutation that must reach predictive
// instances goes through one of these so the change lands in the journal
// exactly once, with absolute values.

func (w *World) setUnitPos(u *SimUnit, pos Vec2) {
	if positionsEqual(u.Pos.X, u.Pos.Y, pos.X, pos.Y) {
		return
	}
	u.Pos = pos
	w.journal.Record(Patch{Kind: PatchUnitPos, EntityID: u.ID, Payload: PosPayload{X: pos.X, Y: pos.Y}})
}

func (w *World) setUnitFacing(u *SimUnit, facing float64) {
	if u.Facing == facing {
		return
	}
	u.Facing = facing
	w.journal.Record(Patch{Kind: PatchUnitFacing, EntityID: u.ID, Payload: FacingPayload{Facing: facing}})
}

// setUnitHealth clamps to [0, max] and marks the unit for removal at tick
// end when it reaches zero.
func (w *World) setUnitHealth(u *SimUnit, health float64) {
	health = clamp(health, 0, u.MaxHealth)
	if u.Health == health {
		return
	}
	u.Health = health
	w.journal.Record(Patch{Kind: PatchUnitHealth, EntityID: u.ID, Payload: HealthPayload{Health: health, MaxHealth: u.MaxHealth}})
	if health <= 0 {
		u.removed = true
	}
}

// setUnitMorale clamps to [0, max] and flips the routing flag at the
// boundaries: routing starts at zero morale and ends once morale recovers
// past the re-engagement threshold.
func (w *World) setUnitMorale(u *SimUnit, morale, suppression float64) {
	morale = clamp(morale, 0, u.MaxMorale)
	if suppression < 0 {
		suppression = 0
	}
	if u.Morale == morale && u.Suppression == suppression {
		return
	}
	u.Morale = morale
	u.Suppression = suppression
	if morale <= 0 && !u.Routing {
		u.Routing = true
		w.publishUnitRouted(u)
	} else if u.Routing && morale > u.MaxMorale*reengageMoraleThreshold {
		u.Routing = false
	}
	w.journal.Record(Patch{Kind: PatchUnitMorale, EntityID: u.ID, Payload: MoralePayload{
		Morale:      morale,
		Suppression: suppression,
		Routing:     u.Routing,
	}})
}

// applySuppression adds to the suppression accumulator and applies the
// doubled morale decay.
func (w *World) applySuppression(u *SimUnit, amount float64) {
	moraleDamage := 2 * amount * suppressionMoraleFactor
	w.setUnitMorale(u, u.Morale-moraleDamage, u.Suppression+amount)
}

// setUnitOrder replaces the active order. A unit never holds two active
// top-level orders; replacing cancels the previous one in the same tick.
func (w *World) setUnitOrder(u *SimUnit, order Order) {
	u.Order = order
	u.Path = nil
	u.PathIndex = 0
	w.journal.Record(Patch{Kind: PatchUnitOrder, EntityID: u.ID, Payload: OrderPayload{Order: order, Queue: append([]Order(nil), u.OrderQueue...)}})
}

func (w *World) setUnitGarrisoned(u *SimUnit, garrisoned bool) {
	if u.Garrisoned == garrisoned {
		return
	}
	u.Garrisoned = garrisoned
	w.journal.Record(Patch{Kind: PatchUnitGarrison, EntityID: u.ID, Payload: GarrisonPayload{Garrisoned: garrisoned}})
}

// setUnitStatus installs a malus through the barrier.
func (w *World) setUnitStatus(u *SimUnit, effect StatusEffect) {
	u.addStatus(effect)
	w.recordStatusPatch(u)
}

func (w *World) recordStatusPatch(u *SimUnit) {
	statuses := make([]StatusEffect, len(u.Statuses))
	copy(statuses, u.Statuses)
	w.journal.Record(Patch{Kind: PatchUnitStatus, EntityID: u.ID, Payload: StatusPayload{Statuses: statuses}})
}

// recordWeaponPatch mirrors a weapon's ammo and cooldown after firing.
func (w *World) recordWeaponPatch(u *SimUnit, weapon *SimWeapon) {
	w.journal.Record(Patch{Kind: PatchUnitAmmo, EntityID: u.ID, Payload: AmmoPayload{
		Weapon:   weapon.Name,
		Ammo:     weapon.Ammo,
		Cooldown: weapon.Cooldown,
	}})
}

func (w *World) setZoneOwner(z *CaptureZone, owner Team) {
	if z.Owner == owner {
		return
	}
	z.Owner = owner
	w.journal.Record(Patch{Kind: PatchZoneOwner, EntityID: z.ID, Payload: ZoneOwnerPayload{Owner: owner}})
}

func (w *World) setTeamScore(team Team, score int64) {
	if w.scores[team] == score {
		return
	}
	w.scores[team] = score
	w.journal.Record(Patch{Kind: PatchTeamScore, EntityID: "", Payload: ScorePayload{Team: team, Score: score}})
}
