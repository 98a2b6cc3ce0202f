package session

import (
	"context"
	"errors"
	"testing"

	"github.com/duxbuse/waryes-sub005/internal/sim"
	"github.com/duxbuse/waryes-sub005/logging"
	loggingnetcode "github.com/duxbuse/waryes-sub005/logging/netcode"
	"github.com/duxbuse/waryes-sub005/logging/sinks"
)

func battleWorld(seed string) *sim.World {
	w := sim.NewWorld(sim.Config{Seed: seed}, sim.FlatTerrain(64, 64, 32), nil)
	w.SetPhase(sim.PhaseBattle)
	return w
}

func spawnCmd(typeID string, team sim.Team, pos sim.Vec2) sim.Command {
	return sim.Command{Type: sim.CommandSpawn, Spawn: &sim.SpawnCommand{
		TypeID: typeID, Team: team, Controller: "tester", Pos: pos,
	}}
}

func moveCmd(id string, target sim.Vec2) sim.Command {
	return sim.Command{Type: sim.CommandOrder, Order: &sim.OrderCommand{
		UnitIDs: []string{id},
		Order:   sim.Order{Type: sim.OrderMove, Target: target},
	}}
}

func TestLockstepConfirmsWithoutRollbacks(t *testing.T) {
	auth := NewAuthoritative(battleWorld("lockstep"))
	pred := NewPredictive(battleWorld("lockstep"), PredictiveConfig{}, nil)
	ctx := context.Background()

	for tick := 1; tick <= 30; tick++ {
		if tick == 1 {
			auth.Enqueue(spawnCmd("rifle_squad", 0, sim.Vec2{X: 200, Y: 200}))
			pred.SubmitLocal(spawnCmd("rifle_squad", 0, sim.Vec2{X: 200, Y: 200}))
		}
		if tick == 3 {
			auth.Enqueue(moveCmd("unit-1", sim.Vec2{X: 500, Y: 200}))
			pred.SubmitLocal(moveCmd("unit-1", sim.Vec2{X: 500, Y: 200}))
		}
		delta := auth.StepTick()
		pred.StepTick()
		pred.Ingest(delta)
		if err := pred.Reconcile(ctx); err != nil {
			t.Fatalf("tick %d: reconcile: %v", tick, err)
		}
		if pred.ConsecutiveRollbacks() != 0 {
			t.Fatalf("tick %d: lockstep prediction rolled back", tick)
		}
		if pred.LastConfirmed() != delta.Tick {
			t.Fatalf("tick %d: last confirmed %d, want %d", tick, pred.LastConfirmed(), delta.Tick)
		}
	}
	if pred.World().Digest() != auth.World().Digest() {
		t.Fatalf("lockstep instances diverged")
	}
}

func TestRollbackConvergesAfterMissedCommand(t *testing.T) {
	auth := NewAuthoritative(battleWorld("rollback"))
	pred := NewPredictive(battleWorld("rollback"), PredictiveConfig{}, nil)
	ctx := context.Background()

	rolledBack := false
	for tick := 1; tick <= 10; tick++ {
		if tick == 1 {
			auth.Enqueue(spawnCmd("rifle_squad", 0, sim.Vec2{X: 200, Y: 200}))
			pred.SubmitLocal(spawnCmd("rifle_squad", 0, sim.Vec2{X: 200, Y: 200}))
		}
		if tick == 3 {
			// A remote player's spawn the prediction never saw.
			auth.Enqueue(spawnCmd("rifle_squad", 1, sim.Vec2{X: 1800, Y: 1800}))
		}
		delta := auth.StepTick()
		pred.StepTick()
		pred.Ingest(delta)
		if err := pred.Reconcile(ctx); err != nil {
			t.Fatalf("tick %d: reconcile: %v", tick, err)
		}
		if tick == 3 {
			if pred.ConsecutiveRollbacks() != 1 {
				t.Fatalf("missed command did not trigger a rollback")
			}
			rolledBack = pred.World().Unit("unit-2") != nil
		}
		if tick == 4 && pred.ConsecutiveRollbacks() != 0 {
			t.Fatalf("rollback counter not reset by the next clean confirmation")
		}
	}
	if !rolledBack {
		t.Fatalf("missed spawn never materialized through rollback")
	}
	if pred.ConsecutiveRollbacks() != 0 {
		t.Fatalf("consecutive rollbacks = %d after convergence", pred.ConsecutiveRollbacks())
	}
	if pred.LastConfirmed() != 10 {
		t.Fatalf("last confirmed = %d, want 10", pred.LastConfirmed())
	}
	if pred.World().Digest() != auth.World().Digest() {
		t.Fatalf("instances still diverged after rollback")
	}
}

func TestDuplicateDeltasAreIgnored(t *testing.T) {
	auth := NewAuthoritative(battleWorld("dup"))
	pred := NewPredictive(battleWorld("dup"), PredictiveConfig{}, nil)
	ctx := context.Background()

	auth.Enqueue(spawnCmd("rifle_squad", 0, sim.Vec2{X: 200, Y: 200}))
	pred.SubmitLocal(spawnCmd("rifle_squad", 0, sim.Vec2{X: 200, Y: 200}))
	delta := auth.StepTick()
	pred.StepTick()

	pred.Ingest(delta)
	pred.Ingest(delta)
	if err := pred.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	digest := pred.World().Digest()

	// Redelivery after confirmation is dropped outright.
	pred.Ingest(delta)
	if err := pred.Reconcile(ctx); err != nil {
		t.Fatalf("redelivered reconcile: %v", err)
	}
	if pred.World().Digest() != digest {
		t.Fatalf("redelivered delta changed state")
	}
	if pred.ConsecutiveRollbacks() != 0 {
		t.Fatalf("duplicate delta triggered a rollback")
	}
}

func TestDesyncBudgetExceededIsFatal(t *testing.T) {
	auth := NewAuthoritative(battleWorld("fatal"))
	memory := sinks.NewMemorySink()
	pub := logging.NewRouter(logging.Config{MinimumSeverity: logging.SeverityDebug},
		[]logging.NamedSink{{Name: "memory", Sink: memory}})
	pred := NewPredictive(battleWorld("fatal"), PredictiveConfig{DesyncBudget: 2}, pub)
	ctx := context.Background()

	var fatal error
	for tick := 1; tick <= 5 && fatal == nil; tick++ {
		delta := auth.StepTick()
		pred.StepTick()
		// A corrupted digest diverges on every tick, so the rollback
		// counter never resets.
		delta.Digest ^= 1
		pred.Ingest(delta)
		fatal = pred.Reconcile(ctx)
	}
	if !errors.Is(fatal, ErrDesyncBudgetExceeded) {
		t.Fatalf("err = %v, want ErrDesyncBudgetExceeded", fatal)
	}
	if pred.ConsecutiveRollbacks() <= 2 {
		t.Fatalf("rollbacks = %d, want past the budget of 2", pred.ConsecutiveRollbacks())
	}

	detected, fatals := 0, 0
	for _, event := range memory.Events() {
		switch event.Type {
		case loggingnetcode.EventDesyncDetected:
			detected++
		case loggingnetcode.EventDesyncFatal:
			fatals++
		}
	}
	if detected != 3 {
		t.Fatalf("desync events = %d, want 3", detected)
	}
	if fatals != 1 {
		t.Fatalf("fatal events = %d, want 1", fatals)
	}
}

func TestHistoryExhaustedOnStaleDelta(t *testing.T) {
	auth := NewAuthoritative(battleWorld("stale"))
	pred := NewPredictive(battleWorld("stale"), PredictiveConfig{HistoryLength: 2}, nil)
	ctx := context.Background()

	var deltas []sim.SnapshotDelta
	for tick := 1; tick <= 10; tick++ {
		deltas = append(deltas, auth.StepTick())
		pred.StepTick()
	}

	// Tick 3 left the two-entry window long ago.
	pred.Ingest(deltas[2])
	if err := pred.Reconcile(ctx); !errors.Is(err, ErrHistoryExhausted) {
		t.Fatalf("err = %v, want ErrHistoryExhausted", err)
	}
}

func TestEntityStatesTrackPrediction(t *testing.T) {
	pred := NewPredictive(battleWorld("states"), PredictiveConfig{}, nil)
	if got := pred.EntityState("unit-1"); got != StateConfirmed {
		t.Fatalf("untouched entity = %v, want confirmed", got)
	}
	pred.SubmitLocal(spawnCmd("rifle_squad", 0, sim.Vec2{X: 200, Y: 200}))
	pred.StepTick()
	if got := pred.EntityState("unit-1"); got != StatePredicted {
		t.Fatalf("locally spawned entity = %v, want predicted", got)
	}
}

func TestRollbackSettlesUntouchedEntitiesToPredicted(t *testing.T) {
	auth := NewAuthoritative(battleWorld("settle"))
	pred := NewPredictive(battleWorld("settle"), PredictiveConfig{}, nil)
	ctx := context.Background()

	auth.Enqueue(spawnCmd("rifle_squad", 0, sim.Vec2{X: 200, Y: 200}))
	pred.SubmitLocal(spawnCmd("rifle_squad", 0, sim.Vec2{X: 200, Y: 200}))
	delta := auth.StepTick()
	pred.StepTick()
	pred.Ingest(delta)
	if err := pred.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	// A spawn only the prediction saw diverges on its own tick, so the
	// rollback has nothing to replay and no patch mentions the entity.
	pred.SubmitLocal(spawnCmd("rifle_squad", 1, sim.Vec2{X: 600, Y: 600}))
	delta = auth.StepTick()
	pred.StepTick()
	pred.Ingest(delta)
	if err := pred.Reconcile(ctx); err != nil {
		t.Fatalf("divergent reconcile: %v", err)
	}
	if pred.ConsecutiveRollbacks() != 1 {
		t.Fatalf("local-only spawn did not trigger a rollback")
	}
	if got := pred.EntityState("unit-2"); got != StatePredicted {
		t.Fatalf("untouched entity = %v after rollback, want predicted", got)
	}
}

func TestRecorderSeesAppliedCommands(t *testing.T) {
	auth := NewAuthoritative(battleWorld("recorder"))
	var gotTick uint64
	var gotCmds int
	auth.SetRecorder(func(tick uint64, commands []sim.Command) {
		gotTick = tick
		gotCmds = len(commands)
	})
	applyAt := auth.Enqueue(spawnCmd("rifle_squad", 0, sim.Vec2{X: 200, Y: 200}))
	auth.StepTick()
	if gotTick != applyAt || gotCmds != 1 {
		t.Fatalf("recorder saw tick %d with %d commands, want tick %d with 1", gotTick, gotCmds, applyAt)
	}
	if auth.World().Unit("unit-1") == nil {
		t.Fatalf("enqueued spawn not applied")
	}
}
