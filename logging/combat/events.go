package combat

import (
	"context"

	"github.com/duxbuse/waryes-sub005/logging"
)

const (
	// EventAttackResolved is emitted for every fired shot's outcome.
	EventAttackResolved logging.EventType = "combat.attack_resolved"
	// EventUnitRouted is emitted when a unit's morale collapses.
	EventUnitRouted logging.EventType = "combat.unit_routed"
	// EventUnitDestroyed is emitted when a unit is removed at zero health.
	EventUnitDestroyed logging.EventType = "combat.unit_destroyed"
)

// AttackResolvedPayload mirrors the resolved outcome for observers.
type AttackResolvedPayload struct {
	Weapon     string  `json:"weapon"`
	Hit        bool    `json:"hit"`
	Facing     string  `json:"facing"`
	Penetrated bool    `json:"penetrated"`
	Damage     float64 `json:"damage"`
	Critical   bool    `json:"critical,omitempty"`
	Malus      string  `json:"malus,omitempty"`
	Destroyed  bool    `json:"destroyed,omitempty"`
}

func AttackResolved(ctx context.Context, pub logging.Publisher, tick uint64, attacker, target logging.EntityRef, payload AttackResolvedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventAttackResolved,
		Tick:     tick,
		Actor:    attacker,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

func UnitRouted(ctx context.Context, pub logging.Publisher, tick uint64, unit logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventUnitRouted,
		Tick:     tick,
		Actor:    unit,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
	})
}

func UnitDestroyed(ctx context.Context, pub logging.Publisher, tick uint64, unit logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventUnitDestroyed,
		Tick:     tick,
		Actor:    unit,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
	})
}
