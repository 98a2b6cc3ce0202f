package replay

import (
	"path/filepath"
	"testing"

	"github.com/duxbuse/waryes-sub005/internal/sim"
)

// recordedSkirmish plays a short live match, persists it through a store,
// and returns the loaded record with its command log.
func recordedSkirmish(t *testing.T) (MatchRecord, []sim.Command) {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "replay.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	const (
		cols       = 32
		rows       = 24
		battleTick = 5
		finalTick  = 400
	)
	cfg := sim.Config{Seed: "replay-verify", TickRate: 60, KeyframeInterval: 120, PlannerBudget: 4096}
	terrain := sim.FlatTerrain(cols, rows, 32)
	zones := sim.DefaultZones(terrain)

	world := sim.NewWorld(cfg, terrain, nil)
	for _, zone := range zones {
		world.AddZone(zone)
	}
	if err := store.CreateMatch("live", cfg, cols, rows); err != nil {
		t.Fatalf("create match: %v", err)
	}

	script := map[uint64][]sim.Command{
		1: {
			{OriginTick: 1, Type: sim.CommandSpawn, Spawn: &sim.SpawnCommand{
				TypeID: "rifle_squad", Team: 0, Controller: "p1", Pos: sim.Vec2{X: 200, Y: 300},
			}},
			{OriginTick: 1, Type: sim.CommandSpawn, Spawn: &sim.SpawnCommand{
				TypeID: "rifle_squad", Team: 1, Controller: "p2", Pos: sim.Vec2{X: 800, Y: 400},
			}},
		},
		6: {
			{OriginTick: 6, Type: sim.CommandOrder, Order: &sim.OrderCommand{
				UnitIDs: []string{"unit-1"},
				Order:   sim.Order{Type: sim.OrderAttackMove, Target: sim.Vec2{X: 512, Y: 350}},
			}},
			{OriginTick: 6, Type: sim.CommandOrder, Order: &sim.OrderCommand{
				UnitIDs: []string{"unit-2"},
				Order:   sim.Order{Type: sim.OrderAttackMove, Target: sim.Vec2{X: 512, Y: 350}},
			}},
		},
	}

	dt := 1.0 / float64(cfg.TickRate)
	for tick := uint64(1); tick <= finalTick; tick++ {
		if tick == battleTick {
			world.SetPhase(sim.PhaseBattle)
			if err := store.MarkBattleStart("live", tick); err != nil {
				t.Fatalf("mark battle start: %v", err)
			}
		}
		commands := script[tick]
		world.Step(tick, dt, commands)
		world.DrainDelta()
		if err := store.RecordCommands("live", tick, commands); err != nil {
			t.Fatalf("record commands at tick %d: %v", tick, err)
		}
	}

	frame := world.Snapshot()
	if err := store.FinishMatch("live", world.Tick(), world.Digest(), frame.Scores); err != nil {
		t.Fatalf("finish match: %v", err)
	}

	record, err := store.Match("live")
	if err != nil {
		t.Fatalf("load match: %v", err)
	}
	commands, err := store.Commands("live")
	if err != nil {
		t.Fatalf("load commands: %v", err)
	}
	return record, commands
}

func TestReplayReproducesLiveDigest(t *testing.T) {
	record, commands := recordedSkirmish(t)
	if record.FinalDigest == 0 {
		t.Fatalf("live match recorded a zero digest")
	}

	terrain := sim.FlatTerrain(record.MapCols, record.MapRows, 32)
	result, err := Verify(record, terrain, commands, sim.DefaultZones(terrain))
	if err != nil {
		t.Fatalf("replay diverged: %v", err)
	}
	if result.FinalTick != record.FinalTick {
		t.Fatalf("replay stopped at tick %d, want %d", result.FinalTick, record.FinalTick)
	}
	if result.Digest != record.FinalDigest {
		t.Fatalf("digest = %#x, want %#x", result.Digest, record.FinalDigest)
	}
}

func TestVerifyRejectsTamperedRecord(t *testing.T) {
	record, commands := recordedSkirmish(t)
	record.FinalDigest ^= 1

	terrain := sim.FlatTerrain(record.MapCols, record.MapRows, 32)
	if _, err := Verify(record, terrain, commands, sim.DefaultZones(terrain)); err == nil {
		t.Fatalf("tampered digest should fail verification")
	}
}

func TestVerifyRejectsDroppedCommands(t *testing.T) {
	record, commands := recordedSkirmish(t)
	if len(commands) < 2 {
		t.Fatalf("expected a command log to tamper with")
	}

	terrain := sim.FlatTerrain(record.MapCols, record.MapRows, 32)
	if _, err := Verify(record, terrain, commands[:len(commands)-1], sim.DefaultZones(terrain)); err == nil {
		t.Fatalf("a truncated command log should fail verification")
	}
}
