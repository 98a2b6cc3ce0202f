package sim

import (
	"fmt"
	"testing"
)

func aiSpawn(typeID string, team Team, pos Vec2) Command {
	return Command{Type: CommandSpawn, Spawn: &SpawnCommand{
		TypeID: typeID, Team: team, Controller: "bot", Pos: pos,
	}}
}

func TestAIAdvancesOnZoneThenCaptures(t *testing.T) {
	terrain := FlatTerrain(32, 32, 32)
	w := NewWorld(Config{Seed: "ai-capture"}, terrain, nil)
	w.RegisterAIController("bot")
	zone := CaptureZone{ID: "zone-east", Center: Vec2{X: 500, Y: 100}, Radius: 96, Owner: TeamNeutral, VPPerTick: 1}
	w.AddZone(zone)

	w.Step(1, 0, []Command{aiSpawn("mbt", 0, Vec2{X: 300, Y: 100})})
	w.SetPhase(PhaseBattle)
	w.Step(2, 0, nil)

	unit := w.Unit("unit-1")
	bb := w.aiBlackboards["unit-1"]
	if bb == nil || bb.Behavior != AIAdvance {
		t.Fatalf("behavior = %v, want advance toward the open zone", bb)
	}
	if unit.Order.Type != OrderAttackMove || unit.Order.Target != zone.Center {
		t.Fatalf("order = %+v, want attack-move on the zone center", unit.Order)
	}

	for tick := uint64(3); tick <= 2000; tick++ {
		w.Step(tick, 0, nil)
		if w.zones[0].Owner == 0 && bb.Behavior == AICapture {
			break
		}
	}
	if w.zones[0].Owner != 0 {
		t.Fatalf("zone never flipped to the advancing team")
	}
	if bb.Behavior != AICapture || unit.Order.Type != OrderHold {
		t.Fatalf("behavior %v order %v, want capture holding inside the zone", bb.Behavior, unit.Order.Type)
	}
	if w.Score(0) == 0 {
		t.Fatalf("held zone accrued no victory points")
	}
}

func TestAIEngagesIdentifiedTarget(t *testing.T) {
	w := NewWorld(Config{Seed: "ai-engage"}, FlatTerrain(32, 32, 32), nil)
	w.RegisterAIController("bot")

	w.Step(1, 0, []Command{
		aiSpawn("mbt", 0, Vec2{X: 300, Y: 300}),
		spawnAt("mbt", 1, Vec2{X: 450, Y: 300}),
	})
	w.SetPhase(PhaseBattle)
	w.Step(2, 0, nil)

	bb := w.aiBlackboards["unit-1"]
	if bb == nil || bb.Behavior != AIEngage || bb.TargetID != "unit-2" {
		t.Fatalf("blackboard = %+v, want engage on unit-2", bb)
	}
	unit := w.Unit("unit-1")
	if unit.Order.Type != OrderAttack || unit.Order.TargetID != "unit-2" {
		t.Fatalf("order = %+v, want attack on unit-2", unit.Order)
	}
}

func TestAIRetreatPreemptsEngage(t *testing.T) {
	w := NewWorld(Config{Seed: "ai-retreat"}, FlatTerrain(32, 32, 32), nil)
	w.RegisterAIController("bot")

	w.Step(1, 0, []Command{
		aiSpawn("mbt", 0, Vec2{X: 500, Y: 300}),
		spawnAt("mbt", 1, Vec2{X: 650, Y: 300}),
	})
	wounded := w.Unit("unit-1")
	wounded.Health = wounded.MaxHealth * 0.2
	wounded.ThreatDir = Vec2{X: 1}
	// Disarm the threat so the wounded unit survives to its decision tick.
	w.Unit("unit-2").Weapons = nil

	w.SetPhase(PhaseBattle)
	w.Step(2, 0, nil)

	bb := w.aiBlackboards["unit-1"]
	if bb == nil || bb.Behavior != AIRetreat {
		t.Fatalf("blackboard = %+v, want retreat despite the visible target", bb)
	}
	if wounded.Order.Type != OrderMove || !wounded.Order.FastMove {
		t.Fatalf("order = %+v, want a fast move away", wounded.Order)
	}
	if wounded.Order.Target.X >= 500 {
		t.Fatalf("retreat target %v moves toward the threat", wounded.Order.Target)
	}
}

func TestAIBudgetDefersExcessDecisions(t *testing.T) {
	w := NewWorld(Config{Seed: "ai-budget"}, FlatTerrain(64, 64, 32), nil)
	w.RegisterAIController("bot")

	commands := make([]Command, 0, 20)
	for i := 0; i < 20; i++ {
		commands = append(commands, aiSpawn("rifle_squad", 0, Vec2{X: float64(50 + i*40), Y: 100}))
	}
	w.Step(1, 0, commands)
	w.SetPhase(PhaseBattle)
	w.Step(2, 0, nil)

	decided, deferred := 0, 0
	for i := 1; i <= 20; i++ {
		bb := w.aiBlackboards[fmt.Sprintf("unit-%d", i)]
		if bb == nil {
			t.Fatalf("unit-%d has no blackboard after the AI pass", i)
		}
		switch {
		case bb.NextDecisionAt == w.Tick()+aiDeferralTicks:
			deferred++
		case bb.NextDecisionAt >= w.Tick()+aiDecisionIntervalTicks:
			decided++
		default:
			t.Fatalf("unit-%d NextDecisionAt = %d, fits neither outcome", i, bb.NextDecisionAt)
		}
	}
	if decided != aiEvaluationBudget {
		t.Fatalf("decided = %d, want the full budget of %d", decided, aiEvaluationBudget)
	}
	if deferred != 20-aiEvaluationBudget {
		t.Fatalf("deferred = %d, want %d", deferred, 20-aiEvaluationBudget)
	}
}

func TestNearestUnresolvedZoneTieBreaksOnID(t *testing.T) {
	w := NewWorld(Config{Seed: "ai-ties"}, FlatTerrain(32, 32, 32), nil)
	// Held zones never count, even when closest.
	w.AddZone(CaptureZone{ID: "zone-held", Center: Vec2{X: 200, Y: 120}, Radius: 96, Owner: 0})
	w.AddZone(CaptureZone{ID: "zone-b", Center: Vec2{X: 300, Y: 100}, Radius: 96, Owner: TeamNeutral})
	w.AddZone(CaptureZone{ID: "zone-a", Center: Vec2{X: 100, Y: 100}, Radius: 96, Owner: TeamNeutral})

	unit := catalogUnit(t, "rifle_squad", "unit-1", 0, Vec2{X: 200, Y: 100})
	zone := w.nearestUnresolvedZone(unit)
	if zone == nil || zone.ID != "zone-a" {
		t.Fatalf("equidistant zones resolved to %v, want zone-a", zone)
	}
}
