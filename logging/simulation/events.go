package simulation

import (
	"context"

	"github.com/duxbuse/waryes-sub005/logging"
)

const (
	// EventUnitSpawned is emitted when a spawn request produces a unit.
	EventUnitSpawned logging.EventType = "simulation.unit_spawned"
	// EventSpawnRejected is emitted when a spawn request names an unknown type.
	EventSpawnRejected logging.EventType = "simulation.spawn_rejected"
	// EventPathUnreachable is emitted when pathfinding finds no route.
	EventPathUnreachable logging.EventType = "simulation.path_unreachable"
	// EventBudgetDeferred is a performance signal: per-tick compute budget
	// exhausted, work deferred to a later tick.
	EventBudgetDeferred logging.EventType = "simulation.budget_deferred"
)

type UnitSpawnedPayload struct {
	TypeID     string `json:"typeId"`
	Team       int    `json:"team"`
	Controller string `json:"controller"`
}

func UnitSpawned(ctx context.Context, pub logging.Publisher, tick uint64, unit logging.EntityRef, payload UnitSpawnedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventUnitSpawned,
		Tick:     tick,
		Actor:    unit,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

type SpawnRejectedPayload struct {
	TypeID string `json:"typeId"`
	Reason string `json:"reason"`
}

func SpawnRejected(ctx context.Context, pub logging.Publisher, tick uint64, payload SpawnRejectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSpawnRejected,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

func PathUnreachable(ctx context.Context, pub logging.Publisher, tick uint64, unit logging.EntityRef, reason string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPathUnreachable,
		Tick:     tick,
		Actor:    unit,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySimulation,
		Extra:    map[string]any{"reason": reason},
	})
}

type BudgetDeferredPayload struct {
	System   string `json:"system"`
	Deferred int    `json:"deferred"`
	UnitID   string `json:"unitId,omitempty"`
}

func BudgetDeferred(ctx context.Context, pub logging.Publisher, tick uint64, payload BudgetDeferredPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventBudgetDeferred,
		Tick:     tick,
		Severity: logging.SeverityDebug,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}
