package sim

import "fmt"

// UnitSpec is one row of the unit type table. Spawning instantiates a
// SimUnit from the spec; tuning lives here, not in code paths.
type UnitSpec struct {
	TypeID      string
	Category    Category
	MoveClass   MoveClass
	Amphibious  bool
	MaxHealth   float64
	MaxMorale   float64
	Armor       Armor
	VisionRange float64
	Optics      float64
	Stealth     float64
	Speed       SpeedProfile
	Weapons     []SimWeapon
	CanGarrison bool
}

// unitCatalog is the built-in archetype table. A production deployment
// loads this from data; the shapes below cover every category the combat
// and movement tables branch on.
var unitCatalog = map[string]UnitSpec{
	"rifle_squad": {
		TypeID:      "rifle_squad",
		Category:    CategoryInfantry,
		MoveClass:   MoveFoot,
		MaxHealth:   10,
		MaxMorale:   10,
		Armor:       Armor{0, 0, 0, 0},
		VisionRange: 320,
		Optics:      6,
		Stealth:     4,
		Speed:       SpeedProfile{Road: 18, OffRoad: 14, Reverse: 10},
		CanGarrison: true,
		Weapons: []SimWeapon{
			{
				Name: "assault_rifles", Damage: 1, Penetration: 1, Suppression: 8,
				MinRange: 0, MaxRange: 280, AccuracyClose: 0.55, AccuracyFar: 0.25,
				CooldownTicks: 45, Ammo: AmmoUnlimited, RequiresLOS: true,
			},
			{
				Name: "law_rocket", Damage: 4, Penetration: 8, Suppression: 20,
				MinRange: 0, MaxRange: 160, AccuracyClose: 0.5, AccuracyFar: 0.3,
				CooldownTicks: 300, Ammo: 4, Kinetic: false, RequiresLOS: true,
			},
		},
	},
	"mbt": {
		TypeID:      "mbt",
		Category:    CategoryVehicle,
		MoveClass:   MoveTracked,
		MaxHealth:   11,
		MaxMorale:   12,
		Armor:       Armor{14, 7, 4, 2},
		VisionRange: 300,
		Optics:      5,
		Stealth:     1,
		Speed:       SpeedProfile{Road: 40, OffRoad: 28, Reverse: 14},
		Weapons: []SimWeapon{
			{
				Name: "smoothbore_120", Damage: 5, Penetration: 16, Suppression: 30,
				MinRange: 0, MaxRange: 520, AccuracyClose: 0.65, AccuracyFar: 0.35,
				CooldownTicks: 120, Ammo: 40, Kinetic: true, RequiresLOS: true,
			},
			{
				Name: "coax_mg", Damage: 1, Penetration: 1, Suppression: 6,
				MinRange: 0, MaxRange: 240, AccuracyClose: 0.5, AccuracyFar: 0.2,
				CooldownTicks: 30, Ammo: AmmoUnlimited, RequiresLOS: true,
			},
		},
	},
	"recon_jeep": {
		TypeID:      "recon_jeep",
		Category:    CategoryVehicle,
		MoveClass:   MoveWheeled,
		MaxHealth:   6,
		MaxMorale:   8,
		Armor:       Armor{1, 1, 1, 1},
		VisionRange: 460,
		Optics:      9,
		Stealth:     6,
		Speed:       SpeedProfile{Road: 65, OffRoad: 35, Reverse: 20},
		Weapons: []SimWeapon{
			{
				Name: "pintle_mg", Damage: 1, Penetration: 1, Suppression: 6,
				MinRange: 0, MaxRange: 240, AccuracyClose: 0.45, AccuracyFar: 0.2,
				CooldownTicks: 30, Ammo: AmmoUnlimited, RequiresLOS: true,
			},
		},
	},
	"atgm_team": {
		TypeID:      "atgm_team",
		Category:    CategoryInfantry,
		MoveClass:   MoveFoot,
		MaxHealth:   8,
		MaxMorale:   9,
		Armor:       Armor{0, 0, 0, 0},
		VisionRange: 360,
		Optics:      7,
		Stealth:     5,
		Speed:       SpeedProfile{Road: 16, OffRoad: 12, Reverse: 9},
		CanGarrison: true,
		Weapons: []SimWeapon{
			{
				Name: "wire_guided_atgm", Damage: 6, Penetration: 20, Suppression: 36,
				MinRange: 120, MaxRange: 640, AccuracyClose: 0.6, AccuracyFar: 0.5,
				CooldownTicks: 450, Ammo: 6, RequiresLOS: true,
			},
		},
	},
	"spaag": {
		TypeID:      "spaag",
		Category:    CategoryVehicle,
		MoveClass:   MoveTracked,
		MaxHealth:   8,
		MaxMorale:   10,
		Armor:       Armor{4, 2, 2, 1},
		VisionRange: 400,
		Optics:      7,
		Stealth:     1,
		Speed:       SpeedProfile{Road: 38, OffRoad: 26, Reverse: 13},
		Weapons: []SimWeapon{
			{
				Name: "twin_autocannon", Damage: 2, Penetration: 3, Suppression: 18,
				MinRange: 0, MaxRange: 460, AccuracyClose: 0.55, AccuracyFar: 0.3,
				CooldownTicks: 20, Ammo: 600, Kinetic: true, RequiresLOS: true,
			},
		},
	},
	"mortar_team": {
		TypeID:      "mortar_team",
		Category:    CategoryInfantry,
		MoveClass:   MoveFoot,
		MaxHealth:   8,
		MaxMorale:   8,
		Armor:       Armor{0, 0, 0, 0},
		VisionRange: 260,
		Optics:      5,
		Stealth:     4,
		Speed:       SpeedProfile{Road: 15, OffRoad: 11, Reverse: 8},
		CanGarrison: true,
		Weapons: []SimWeapon{
			{
				Name: "mortar_81", Damage: 3, Penetration: 2, Suppression: 44,
				MinRange: 180, MaxRange: 900, AccuracyClose: 0.45, AccuracyFar: 0.3,
				CooldownTicks: 200, Ammo: 30, TopAttack: true,
			},
			{
				Name: "smoke_round", Damage: 0, Penetration: 0, Suppression: 0,
				MinRange: 180, MaxRange: 900, AccuracyClose: 1, AccuracyFar: 1,
				CooldownTicks: 300, Ammo: 8, Smoke: true, TopAttack: true,
			},
		},
	},
	"attack_helo": {
		TypeID:      "attack_helo",
		Category:    CategoryAircraft,
		MoveClass:   MoveAir,
		MaxHealth:   9,
		MaxMorale:   10,
		Armor:       Armor{2, 1, 1, 0},
		VisionRange: 420,
		Optics:      8,
		Stealth:     0,
		Speed:       SpeedProfile{Road: 90, OffRoad: 90, Reverse: 30},
		Weapons: []SimWeapon{
			{
				Name: "rocket_pods", Damage: 3, Penetration: 5, Suppression: 28,
				MinRange: 0, MaxRange: 420, AccuracyClose: 0.5, AccuracyFar: 0.3,
				CooldownTicks: 90, Ammo: 38, RequiresLOS: true,
			},
		},
	},
}

// SpecFor looks up a unit type in the catalog.
func SpecFor(typeID string) (UnitSpec, error) {
	spec, ok := unitCatalog[typeID]
	if !ok {
		return UnitSpec{}, fmt.Errorf("unit catalog: unknown type %q", typeID)
	}
	return spec, nil
}

// CatalogTypeIDs lists the known unit types for UI and validation.
func CatalogTypeIDs() []string {
	ids := make([]string, 0, len(unitCatalog))
	for id := range unitCatalog {
		ids = append(ids, id)
	}
	return ids
}

// Instantiate builds a fresh SimUnit from the spec.
func (s UnitSpec) Instantiate(id string, team Team, controller string, pos Vec2) *SimUnit {
	weapons := make([]SimWeapon, len(s.Weapons))
	copy(weapons, s.Weapons)
	return &SimUnit{
		ID:          id,
		TypeID:      s.TypeID,
		Team:        team,
		Controller:  controller,
		Pos:         pos,
		Health:      s.MaxHealth,
		MaxHealth:   s.MaxHealth,
		Morale:      s.MaxMorale,
		MaxMorale:   s.MaxMorale,
		Armor:       s.Armor,
		VisionRange: s.VisionRange,
		Optics:      s.Optics,
		Stealth:     s.Stealth,
		Speed:       s.Speed,
		Category:    s.Category,
		MoveClass:   s.MoveClass,
		Amphibious:  s.Amphibious,
		CanGarrison: s.CanGarrison,
		Weapons:     weapons,
		Order:       Order{Type: OrderNone},
	}
}
