package sim

// Team identifies one side of the match. Allied controllers on the same
// team share vision.
type Team int

const TeamNeutral Team = -1

// Category is the tagged unit variant; category-specific behavior lives in
// data tables keyed by it rather than in per-category types.
type Category uint8

const (
	CategoryInfantry Category = iota
	CategoryVehicle
	CategoryAircraft
)

func (c Category) String() string {
	switch c {
	case CategoryInfantry:
		return "infantry"
	case CategoryVehicle:
		return "vehicle"
	case CategoryAircraft:
		return "aircraft"
	default:
		return "unknown"
	}
}

// MoveClass selects the terrain interaction row for movement and
// pathfinding.
type MoveClass uint8

const (
	MoveFoot MoveClass = iota
	MoveTracked
	MoveWheeled
	MoveHover
	MoveAir
)

// ArmorFacing identifies which armor value an incoming hit checks.
type ArmorFacing uint8

const (
	ArmorFront ArmorFacing = iota
	ArmorSide
	ArmorRear
	ArmorTop
)

func (f ArmorFacing) String() string {
	switch f {
	case ArmorFront:
		return "front"
	case ArmorSide:
		return "side"
	case ArmorRear:
		return "rear"
	case ArmorTop:
		return "top"
	default:
		return "unknown"
	}
}

// Armor holds the per-facing armor values.
type Armor [4]float64

func (a Armor) Value(f ArmorFacing) float64 { return a[f] }

// SpeedProfile is the base speed in world units per second by movement mode.
type SpeedProfile struct {
	Road    float64 `json:"road"`
	OffRoad float64 `json:"offRoad"`
	Reverse float64 `json:"reverse"`
}

// Malus is a critical-effect debuff.
type Malus uint8

const (
	MalusNone Malus = iota
	MalusStunned
	MalusOpticsDestroyed
	MalusEngineDisabled
	MalusTurretJammed
	MalusRadioDestroyed
)

func (m Malus) String() string {
	switch m {
	case MalusStunned:
		return "stunned"
	case MalusOpticsDestroyed:
		return "optics_destroyed"
	case MalusEngineDisabled:
		return "engine_disabled"
	case MalusTurretJammed:
		return "turret_jammed"
	case MalusRadioDestroyed:
		return "radio_destroyed"
	default:
		return "none"
	}
}

// criticalMalusTable lists the category-appropriate critical maluses.
var criticalMalusTable = map[Category][]Malus{
	CategoryInfantry: {MalusStunned, MalusRadioDestroyed},
	CategoryVehicle:  {MalusStunned, MalusOpticsDestroyed, MalusEngineDisabled, MalusTurretJammed, MalusRadioDestroyed},
	CategoryAircraft: {MalusStunned, MalusOpticsDestroyed, MalusRadioDestroyed},
}

// StatusEffect is one active malus on a unit. Timed effects expire when
// RemainingTicks reaches zero; permanent ones never do.
type StatusEffect struct {
	Malus          Malus  `json:"malus"`
	Permanent      bool   `json:"permanent"`
	RemainingTicks uint32 `json:"remainingTicks,omitempty"`
}

// SimUnit is the authoritative state container for one deployed combat
// unit. All mutation during a tick goes through the owning World's write
// barriers so every change lands in the patch journal.
type SimUnit struct {
	ID         string `json:"id"`
	TypeID     string `json:"typeId"`
	Team       Team   `json:"team"`
	Controller string `json:"controller"`

	Pos    Vec2    `json:"pos"`
	Facing float64 `json:"facing"`

	Health      float64 `json:"health"`
	MaxHealth   float64 `json:"maxHealth"`
	Morale      float64 `json:"morale"`
	MaxMorale   float64 `json:"maxMorale"`
	Suppression float64 `json:"suppression"`
	Veterancy   int     `json:"veterancy"`
	Armor       Armor   `json:"armor"`

	VisionRange float64      `json:"visionRange"`
	Optics      float64      `json:"optics"`
	Stealth     float64      `json:"stealth"`
	Speed       SpeedProfile `json:"speed"`
	Category    Category     `json:"category"`
	MoveClass   MoveClass    `json:"moveClass"`
	Amphibious  bool         `json:"amphibious,omitempty"`
	CanGarrison bool         `json:"canGarrison,omitempty"`

	Weapons []SimWeapon `json:"weapons"`

	Order      Order   `json:"order"`
	OrderQueue []Order `json:"orderQueue,omitempty"`
	Path       []Vec2  `json:"path,omitempty"`
	PathIndex  int     `json:"pathIndex,omitempty"`

	Statuses   []StatusEffect `json:"statuses,omitempty"`
	Routing    bool           `json:"routing,omitempty"`
	Garrisoned bool           `json:"garrisoned,omitempty"`

	// ThreatDir points from the unit toward the most recent known threat.
	// Reverse movement keeps the front arc oriented along it and routing
	// units flee against it.
	ThreatDir Vec2 `json:"threatDir"`

	removed bool
}

func (u *SimUnit) Alive() bool { return u != nil && u.Health > 0 && !u.removed }

// MarkedForRemoval reports whether the unit dies at the end of this tick.
func (u *SimUnit) MarkedForRemoval() bool { return u != nil && u.removed }

func (u *SimUnit) HasStatus(m Malus) bool {
	for _, s := range u.Statuses {
		if s.Malus == m {
			return true
		}
	}
	return false
}

// addStatus installs a malus, upgrading an existing timed entry instead of
// stacking duplicates.
func (u *SimUnit) addStatus(effect StatusEffect) {
	for i := range u.Statuses {
		if u.Statuses[i].Malus != effect.Malus {
			continue
		}
		if effect.Permanent {
			u.Statuses[i].Permanent = true
			u.Statuses[i].RemainingTicks = 0
		} else if !u.Statuses[i].Permanent && effect.RemainingTicks > u.Statuses[i].RemainingTicks {
			u.Statuses[i].RemainingTicks = effect.RemainingTicks
		}
		return
	}
	u.Statuses = append(u.Statuses, effect)
}

// tickStatuses decrements timed maluses and drops the expired ones,
// reporting whether the set changed.
func (u *SimUnit) tickStatuses() bool {
	changed := false
	kept := u.Statuses[:0]
	for _, s := range u.Statuses {
		if !s.Permanent {
			if s.RemainingTicks <= 1 {
				changed = true
				continue
			}
			s.RemainingTicks--
			changed = true
		}
		kept = append(kept, s)
	}
	u.Statuses = kept
	return changed
}

// CanMove reports whether the chassis is able to move at all.
func (u *SimUnit) CanMove() bool {
	return !u.HasStatus(MalusEngineDisabled) && !u.HasStatus(MalusStunned)
}

// CanFire reports whether the unit may open fire: routed units and stunned
// crews cannot.
func (u *SimUnit) CanFire() bool {
	return !u.Routing && !u.HasStatus(MalusStunned) && !u.HasStatus(MalusTurretJammed)
}

// EffectiveVisionRange applies the optics-destroyed malus to the base
// vision radius.
func (u *SimUnit) EffectiveVisionRange() float64 {
	r := u.VisionRange
	if u.HasStatus(MalusOpticsDestroyed) {
		r *= opticsDestroyedVisionFactor
	}
	return r
}

// veterancyAccuracyBonus scales accuracy with rank.
func (u *SimUnit) veterancyAccuracyBonus() float64 {
	return 1.0 + veterancyAccuracyPerRank*float64(u.Veterancy)
}

const (
	opticsDestroyedVisionFactor = 0.4
	veterancyAccuracyPerRank    = 0.05
)
