package sim

import (
	"encoding/json"
	"fmt"
)

// PatchKind identifies the type of diff entry.
type PatchKind string

const (
	// PatchUnitSpawned introduces a new unit with its full state.
	PatchUnitSpawned PatchKind = "unit_spawned"
	// PatchUnitPos updates a unit's position.
	PatchUnitPos PatchKind = "unit_pos"
	// PatchUnitFacing updates a unit's facing angle.
	PatchUnitFacing PatchKind = "unit_facing"
	// PatchUnitHealth updates a unit's health pool.
	PatchUnitHealth PatchKind = "unit_health"
	// PatchUnitMorale updates a unit's morale and suppression.
	PatchUnitMorale PatchKind = "unit_morale"
	// PatchUnitOrder updates a unit's active order.
	PatchUnitOrder PatchKind = "unit_order"
	// PatchUnitStatus replaces a unit's status effect set.
	PatchUnitStatus PatchKind = "unit_status"
	// PatchUnitAmmo updates one weapon's ammo counter.
	PatchUnitAmmo PatchKind = "unit_ammo"
	// PatchUnitGarrison updates a unit's garrisoned flag.
	PatchUnitGarrison PatchKind = "unit_garrison"
	// PatchUnitRemoved signals the unit left the simulation.
	PatchUnitRemoved PatchKind = "unit_removed"
	// PatchZoneOwner updates a capture zone's owning team.
	PatchZoneOwner PatchKind = "zone_owner"
	// PatchTeamScore updates a team's victory points.
	PatchTeamScore PatchKind = "team_score"
	// PatchSmoke announces a placed smoke screen.
	PatchSmoke PatchKind = "smoke"
)

// Patch is one changed-field record. Applying the same patch twice yields
// the same state as applying it once; every payload carries absolute
// values, never increments.
type Patch struct {
	Kind     PatchKind `json:"kind"`
	EntityID string    `json:"entityId"`
	Payload  any       `json:"payload,omitempty"`
}

// UnmarshalJSON decodes the payload into its concrete type keyed on Kind.
// Without this, payloads coming off the wire land as generic maps and the
// apply path cannot match them.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind     PatchKind       `json:"kind"`
		EntityID string          `json:"entityId"`
		Payload  json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Kind = raw.Kind
	p.EntityID = raw.EntityID
	p.Payload = nil
	if len(raw.Payload) == 0 || string(raw.Payload) == "null" {
		if raw.Kind == PatchUnitRemoved {
			return nil
		}
		return fmt.Errorf("patch: %s missing payload", raw.Kind)
	}
	switch raw.Kind {
	case PatchUnitSpawned:
		var v SpawnPayload
		if err := json.Unmarshal(raw.Payload, &v); err != nil {
			return err
		}
		p.Payload = v
	case PatchUnitPos:
		var v PosPayload
		if err := json.Unmarshal(raw.Payload, &v); err != nil {
			return err
		}
		p.Payload = v
	case PatchUnitFacing:
		var v FacingPayload
		if err := json.Unmarshal(raw.Payload, &v); err != nil {
			return err
		}
		p.Payload = v
	case PatchUnitHealth:
		var v HealthPayload
		if err := json.Unmarshal(raw.Payload, &v); err != nil {
			return err
		}
		p.Payload = v
	case PatchUnitMorale:
		var v MoralePayload
		if err := json.Unmarshal(raw.Payload, &v); err != nil {
			return err
		}
		p.Payload = v
	case PatchUnitOrder:
		var v OrderPayload
		if err := json.Unmarshal(raw.Payload, &v); err != nil {
			return err
		}
		p.Payload = v
	case PatchUnitStatus:
		var v StatusPayload
		if err := json.Unmarshal(raw.Payload, &v); err != nil {
			return err
		}
		p.Payload = v
	case PatchUnitAmmo:
		var v AmmoPayload
		if err := json.Unmarshal(raw.Payload, &v); err != nil {
			return err
		}
		p.Payload = v
	case PatchUnitGarrison:
		var v GarrisonPayload
		if err := json.Unmarshal(raw.Payload, &v); err != nil {
			return err
		}
		p.Payload = v
	case PatchUnitRemoved:
		// removal carries no payload
	case PatchZoneOwner:
		var v ZoneOwnerPayload
		if err := json.Unmarshal(raw.Payload, &v); err != nil {
			return err
		}
		p.Payload = v
	case PatchTeamScore:
		var v ScorePayload
		if err := json.Unmarshal(raw.Payload, &v); err != nil {
			return err
		}
		p.Payload = v
	case PatchSmoke:
		var v SmokePayload
		if err := json.Unmarshal(raw.Payload, &v); err != nil {
			return err
		}
		p.Payload = v
	default:
		return fmt.Errorf("patch: unknown kind %q", raw.Kind)
	}
	return nil
}

// SpawnPayload carries the full state of a newly created unit.
type SpawnPayload struct {
	Unit SimUnit `json:"unit"`
}

// PosPayload captures an absolute position and whether it was reached in
// reverse gear.
type PosPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FacingPayload captures a facing angle in radians.
type FacingPayload struct {
	Facing float64 `json:"facing"`
}

// HealthPayload captures current health.
type HealthPayload struct {
	Health    float64 `json:"health"`
	MaxHealth float64 `json:"maxHealth,omitempty"`
}

// MoralePayload captures morale, suppression, and the routing flag.
type MoralePayload struct {
	Morale      float64 `json:"morale"`
	Suppression float64 `json:"suppression"`
	Routing     bool    `json:"routing,omitempty"`
}

// OrderPayload replaces the active order and the whole queue; queues are
// short and absolute replacement keeps apply idempotent.
type OrderPayload struct {
	Order Order   `json:"order"`
	Queue []Order `json:"queue,omitempty"`
}

// StatusPayload replaces the status set wholesale; sets are small and
// absolute replacement keeps apply idempotent.
type StatusPayload struct {
	Statuses []StatusEffect `json:"statuses"`
}

// AmmoPayload captures one weapon's ammo and cooldown after a shot.
// Cooldown rides along because firing is the only event that raises it;
// the per-tick decrement is derived from tick progression on apply.
type AmmoPayload struct {
	Weapon   string `json:"weapon"`
	Ammo     int    `json:"ammo"`
	Cooldown uint32 `json:"cooldown"`
}

// GarrisonPayload captures the garrisoned flag.
type GarrisonPayload struct {
	Garrisoned bool `json:"garrisoned"`
}

// ZoneOwnerPayload captures a capture zone's owner.
type ZoneOwnerPayload struct {
	Owner Team `json:"owner"`
}

// ScorePayload captures a team's absolute score.
type ScorePayload struct {
	Team  Team  `json:"team"`
	Score int64 `json:"score"`
}

// SmokePayload mirrors a placed smoke screen.
type SmokePayload struct {
	Smoke SmokeScreen `json:"smoke"`
}

// SnapshotDelta is the unit of network synchronization: everything that
// changed during one authoritative tick, plus the digest a predictive
// instance compares its own history against.
type SnapshotDelta struct {
	Tick     uint64          `json:"t"`
	Digest   uint64          `json:"digest"`
	Patches  []Patch         `json:"patches"`
	Outcomes []AttackOutcome `json:"outcomes,omitempty"`
}

// Keyframe is a full-state snapshot used for join and recovery. NextUnit
// rides along because the digest covers the spawn counter; rebuilding it
// from live serials loses ground once the highest-numbered unit has died.
type Keyframe struct {
	Tick     uint64         `json:"t"`
	NextUnit uint64         `json:"nextUnit"`
	Units    []SimUnit      `json:"units"`
	Zones    []CaptureZone  `json:"zones"`
	Scores   map[Team]int64 `json:"scores"`
	Smoke    []SmokeScreen  `json:"smoke,omitempty"`
	Phase    Phase          `json:"phase"`
}
