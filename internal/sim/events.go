package sim

import (
	"context"

	"github.com/duxbuse/waryes-sub005/logging"
	loggingcombat "github.com/duxbuse/waryes-sub005/logging/combat"
	loggingsim "github.com/duxbuse/waryes-sub005/logging/simulation"
)

func unitRef(u *SimUnit) logging.EntityRef {
	return logging.EntityRef{ID: u.ID, Kind: logging.EntityKindUnit}
}

func (w *World) publishAttackOutcome(attacker, target *SimUnit, outcome *AttackOutcome) {
	if w.publisher == nil {
		return
	}
	loggingcombat.AttackResolved(
		context.Background(),
		w.publisher,
		w.tick,
		unitRef(attacker),
		unitRef(target),
		loggingcombat.AttackResolvedPayload{
			Weapon:     outcome.Weapon,
			Hit:        outcome.Hit,
			Facing:     outcome.Facing.String(),
			Penetrated: outcome.Penetrated,
			Damage:     outcome.Damage,
			Critical:   outcome.Critical,
			Malus:      outcome.Malus.String(),
			Destroyed:  outcome.Destroyed,
		},
	)
}

func (w *World) publishUnitRouted(u *SimUnit) {
	if w.publisher == nil {
		return
	}
	loggingcombat.UnitRouted(context.Background(), w.publisher, w.tick, unitRef(u))
}

func (w *World) publishUnitDestroyed(u *SimUnit) {
	if w.publisher == nil {
		return
	}
	loggingcombat.UnitDestroyed(context.Background(), w.publisher, w.tick, unitRef(u))
}

func (w *World) publishUnitSpawned(u *SimUnit) {
	if w.publisher == nil {
		return
	}
	loggingsim.UnitSpawned(context.Background(), w.publisher, w.tick, unitRef(u), loggingsim.UnitSpawnedPayload{
		TypeID:     u.TypeID,
		Team:       int(u.Team),
		Controller: u.Controller,
	})
}

func (w *World) publishSpawnRejected(cmd SpawnCommand, err error) {
	if w.publisher == nil {
		return
	}
	loggingsim.SpawnRejected(context.Background(), w.publisher, w.tick, loggingsim.SpawnRejectedPayload{
		TypeID: cmd.TypeID,
		Reason: err.Error(),
	})
}

func (w *World) publishPathUnreachable(u *SimUnit, err error) {
	if w.publisher == nil {
		return
	}
	loggingsim.PathUnreachable(context.Background(), w.publisher, w.tick, unitRef(u), err.Error())
}

func (w *World) publishPathBudgetDeferred(deferred int) {
	if w.publisher == nil {
		return
	}
	loggingsim.BudgetDeferred(context.Background(), w.publisher, w.tick, loggingsim.BudgetDeferredPayload{
		System:   "pathfinding",
		Deferred: deferred,
	})
}

func (w *World) publishAIBudgetDeferred(u *SimUnit) {
	if w.publisher == nil {
		return
	}
	loggingsim.BudgetDeferred(context.Background(), w.publisher, w.tick, loggingsim.BudgetDeferredPayload{
		System:   "ai",
		Deferred: 1,
		UnitID:   u.ID,
	})
}
