package sim

// AmmoUnlimited marks a weapon that never runs dry.
const AmmoUnlimited = -1

// SimWeapon is one armament slot on a unit.
type SimWeapon struct {
	Name          string  `json:"name"`
	Damage        float64 `json:"damage"`
	Penetration   float64 `json:"penetration"`
	Suppression   float64 `json:"suppression"`
	MinRange      float64 `json:"minRange"`
	MaxRange      float64 `json:"maxRange"`
	AccuracyClose float64 `json:"accuracyClose"`
	AccuracyFar   float64 `json:"accuracyFar"`
	CooldownTicks uint32  `json:"cooldownTicks"`
	Cooldown      uint32  `json:"cooldown"`
	Ammo          int     `json:"ammo"`

	Kinetic     bool `json:"kinetic,omitempty"`
	RequiresLOS bool `json:"requiresLos,omitempty"`
	Smoke       bool `json:"smoke,omitempty"`
	TopAttack   bool `json:"topAttack,omitempty"`
}

// Ready reports whether the weapon may fire this tick.
func (w *SimWeapon) Ready() bool {
	return w != nil && w.Cooldown == 0 && w.Ammo != 0
}

// HasAmmo reports whether any rounds remain.
func (w *SimWeapon) HasAmmo() bool { return w != nil && w.Ammo != 0 }

// InRange checks a target distance against the weapon envelope.
func (w *SimWeapon) InRange(dist float64) bool {
	return dist >= w.MinRange && dist <= w.MaxRange
}

// accuracyAt interpolates between close and far accuracy across the range
// band. Close accuracy applies at MinRange and decays linearly to far
// accuracy at MaxRange.
func (w *SimWeapon) accuracyAt(dist float64) float64 {
	if w.MaxRange <= w.MinRange {
		return w.AccuracyClose
	}
	t := clamp((dist-w.MinRange)/(w.MaxRange-w.MinRange), 0, 1)
	return w.AccuracyClose + (w.AccuracyFar-w.AccuracyClose)*t
}

// kineticBonus is the close-range penetration boost for kinetic rounds:
// zero at max range, at full strength at the muzzle.
func (w *SimWeapon) kineticBonus(dist float64) float64 {
	if !w.Kinetic || w.MaxRange <= 0 {
		return 0
	}
	t := clamp(1.0-dist/w.MaxRange, 0, 1)
	return w.Penetration * kineticCloseBonusFactor * t
}

// consumeShot spends one round and restarts the cooldown. Callers check
// Ready first; firing never drives either below zero.
func (w *SimWeapon) consumeShot() {
	w.Cooldown = w.CooldownTicks
	if w.Ammo > 0 {
		w.Ammo--
	}
}

// tickCooldown advances the cooldown timer by one tick.
func (w *SimWeapon) tickCooldown() {
	if w.Cooldown > 0 {
		w.Cooldown--
	}
}

const kineticCloseBonusFactor = 0.5
