package sim

import "testing"

// runSkirmish drives a scripted 1000-tick match, sampling the digest
// every 50 ticks and reporting the final per-team scores. Two runs of the
// same script must agree on all of it.
func runSkirmish(seed string) ([]uint64, map[Team]int64) {
	terrain := FlatTerrain(32, 32, 32)
	w := NewWorld(Config{Seed: seed}, terrain, nil)
	for _, zone := range DefaultZones(terrain) {
		w.AddZone(zone)
	}

	w.Step(1, 0, []Command{
		spawnAt("rifle_squad", 0, Vec2{X: 300, Y: 200}),
		spawnAt("mbt", 0, Vec2{X: 300, Y: 300}),
		spawnAt("rifle_squad", 1, Vec2{X: 700, Y: 200}),
		spawnAt("mbt", 1, Vec2{X: 700, Y: 300}),
	})
	w.SetPhase(PhaseBattle)
	w.Step(2, 0, []Command{
		orderUnits(Order{Type: OrderAttackMove, Target: Vec2{X: 512, Y: 256}}, "unit-1", "unit-2"),
		orderUnits(Order{Type: OrderAttackMove, Target: Vec2{X: 512, Y: 256}}, "unit-3", "unit-4"),
	})

	var digests []uint64
	for tick := uint64(3); tick <= 1000; tick++ {
		w.Step(tick, 0, nil)
		w.DrainDelta()
		if tick%50 == 0 {
			digests = append(digests, w.Digest())
		}
	}
	return digests, map[Team]int64{0: w.Score(0), 1: w.Score(1)}
}

func TestMatchIsDeterministic(t *testing.T) {
	first, firstScores := runSkirmish("det")
	second, secondScores := runSkirmish("det")
	if len(first) != len(second) {
		t.Fatalf("sample counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("digest sample %d diverged: %#x vs %#x", i, first[i], second[i])
		}
	}
	if first[0] == first[len(first)-1] {
		t.Fatalf("match shows no activity, digest never changed")
	}
	for team := Team(0); team <= 1; team++ {
		if firstScores[team] != secondScores[team] {
			t.Fatalf("team %d final score %d vs %d across identical runs",
				team, firstScores[team], secondScores[team])
		}
	}
	if firstScores[0] == 0 && firstScores[1] == 0 {
		t.Fatalf("no victory points accrued over 1000 ticks")
	}
}

func TestIdleInfantryGarrisonsInBuildings(t *testing.T) {
	cells := make([]TerrainCell, 8*8)
	cells[3*8+3] = TerrainCell{Kind: TerrainBuilding}
	terrain := NewTerrainMap(8, 8, 32, cells)
	w := NewWorld(Config{Seed: "garrison-step"}, terrain, nil)
	w.Step(1, 0, []Command{
		spawnAt("rifle_squad", 0, Vec2{X: 112, Y: 112}),
		spawnAt("attack_helo", 0, Vec2{X: 112, Y: 112}),
	})
	w.SetPhase(PhaseBattle)
	w.DrainDelta()

	w.Step(2, 0, nil)
	unit := w.Unit("unit-1")
	if !unit.Garrisoned {
		t.Fatalf("idle infantry on a building cell did not garrison")
	}
	if w.Unit("unit-2").Garrisoned {
		t.Fatalf("aircraft over a building cell garrisoned")
	}
	delta := w.DrainDelta()
	journaled := false
	for _, patch := range delta.Patches {
		if patch.Kind != PatchUnitGarrison || patch.EntityID != "unit-1" {
			continue
		}
		payload, ok := patch.Payload.(GarrisonPayload)
		if !ok || !payload.Garrisoned {
			t.Fatalf("garrison patch payload = %+v", patch.Payload)
		}
		journaled = true
	}
	if !journaled {
		t.Fatalf("garrison change not journaled")
	}

	// Any movement order breaks the garrison the same tick.
	w.Step(3, 0, []Command{orderUnits(Order{Type: OrderMove, Target: Vec2{X: 30, Y: 30}}, "unit-1")})
	if unit.Garrisoned {
		t.Fatalf("ordered unit stayed garrisoned")
	}
}

func TestSetupPhaseQueuesOrders(t *testing.T) {
	w := NewWorld(Config{Seed: "setup"}, FlatTerrain(32, 32, 32), nil)
	w.Step(1, 0, []Command{spawnAt("rifle_squad", 0, Vec2{X: 100, Y: 100})})

	dest := Vec2{X: 400, Y: 100}
	w.Step(2, 0, []Command{orderUnits(Order{Type: OrderMove, Target: dest}, "unit-1")})

	unit := w.Unit("unit-1")
	if unit.Order.Type != OrderNone {
		t.Fatalf("setup-phase order started immediately: %v", unit.Order.Type)
	}
	if len(unit.OrderQueue) != 1 {
		t.Fatalf("queue depth = %d, want 1", len(unit.OrderQueue))
	}

	// Entering battle releases the pre-order.
	w.SetPhase(PhaseBattle)
	if unit.Order.Type != OrderMove || unit.Order.Target != dest {
		t.Fatalf("pre-order not released on battle start: %+v", unit.Order)
	}
	if len(unit.OrderQueue) != 0 {
		t.Fatalf("queue not drained, depth %d", len(unit.OrderQueue))
	}
}

func TestQueuedOrdersRunInSequence(t *testing.T) {
	w := NewWorld(Config{Seed: "queue"}, FlatTerrain(32, 32, 32), nil)
	w.Step(1, 0, []Command{spawnAt("rifle_squad", 0, Vec2{X: 100, Y: 50})})
	w.SetPhase(PhaseBattle)

	first := Vec2{X: 150, Y: 50}
	second := Vec2{X: 150, Y: 100}
	w.Step(2, 0, []Command{
		orderUnits(Order{Type: OrderMove, Target: first}, "unit-1"),
		{Type: CommandOrder, Order: &OrderCommand{
			UnitIDs: []string{"unit-1"},
			Order:   Order{Type: OrderMove, Target: second},
			Queue:   true,
		}},
	})

	unit := w.Unit("unit-1")
	if unit.Order.Target != first || len(unit.OrderQueue) != 1 {
		t.Fatalf("active %v queue %d, want first leg active with one queued", unit.Order.Target, len(unit.OrderQueue))
	}
	for tick := uint64(3); tick < 2000; tick++ {
		w.Step(tick, 0, nil)
		if unit.Order.Type == OrderNone && len(unit.OrderQueue) == 0 {
			break
		}
	}
	if unit.Order.Type != OrderNone {
		t.Fatalf("queued legs never completed, unit at %v", unit.Pos)
	}
	if unit.Pos.DistanceTo(second) > 3 {
		t.Fatalf("unit finished at %v, want near %v", unit.Pos, second)
	}
}

func TestDeadUnitsDropFromJournal(t *testing.T) {
	w := NewWorld(Config{Seed: "removal"}, FlatTerrain(32, 32, 32), nil)
	w.Step(1, 0, []Command{spawnAt("rifle_squad", 0, Vec2{X: 100, Y: 100})})
	w.SetPhase(PhaseBattle)
	w.DrainDelta()

	unit := w.Unit("unit-1")
	w.setUnitHealth(unit, 0)
	w.Step(2, 0, nil)

	delta := w.DrainDelta()
	removed := 0
	for _, patch := range delta.Patches {
		if patch.EntityID != "unit-1" {
			continue
		}
		if patch.Kind == PatchUnitRemoved {
			removed++
			continue
		}
		t.Fatalf("stale %v patch survived for a removed unit", patch.Kind)
	}
	if removed != 1 {
		t.Fatalf("removal patches = %d, want exactly 1", removed)
	}
	if w.Unit("unit-1") != nil {
		t.Fatalf("dead unit still resident")
	}
	if len(w.Units()) != 0 {
		t.Fatalf("spawn order still lists %d units", len(w.Units()))
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	w := NewWorld(Config{Seed: "restore"}, FlatTerrain(32, 32, 32), nil)
	w.Step(1, 0, []Command{
		spawnAt("rifle_squad", 0, Vec2{X: 100, Y: 100}),
		spawnAt("mbt", 1, Vec2{X: 900, Y: 900}),
	})
	w.SetPhase(PhaseBattle)
	w.Step(2, 0, []Command{orderUnits(Order{Type: OrderMove, Target: Vec2{X: 900, Y: 100}}, "unit-1")})
	for tick := uint64(3); tick <= 60; tick++ {
		w.Step(tick, 0, nil)
	}

	frame := w.Snapshot()
	want := w.Digest()

	for tick := uint64(61); tick <= 120; tick++ {
		w.Step(tick, 0, nil)
	}
	if w.Digest() == want {
		t.Fatalf("world did not evolve past the snapshot")
	}

	w.Restore(frame)
	if got := w.Digest(); got != want {
		t.Fatalf("restored digest %#x, want %#x", got, want)
	}
	if w.Tick() != frame.Tick {
		t.Fatalf("restored tick %d, want %d", w.Tick(), frame.Tick)
	}
	if len(w.Units()) != 2 {
		t.Fatalf("restored %d units, want 2", len(w.Units()))
	}
}

func TestKeyframeRecordedOnInterval(t *testing.T) {
	w := NewWorld(Config{Seed: "keyframe", KeyframeInterval: 10}, FlatTerrain(32, 32, 32), nil)
	w.SetPhase(PhaseBattle)
	for tick := uint64(1); tick <= 10; tick++ {
		w.Step(tick, 0, nil)
		w.DrainDelta()
	}
	frame, ok := w.Journal().LatestKeyframe()
	if !ok {
		t.Fatalf("no keyframe recorded after the interval elapsed")
	}
	if frame.Tick != 10 {
		t.Fatalf("keyframe tick = %d, want 10", frame.Tick)
	}
	if _, ok := w.Journal().KeyframeAt(10); !ok {
		t.Fatalf("keyframe window does not index tick 10")
	}
}
