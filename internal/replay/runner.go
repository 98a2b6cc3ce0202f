package replay

import (
	"fmt"

	"github.com/duxbuse/waryes-sub005/internal/sim"
)

// Result summarizes a headless re-simulation.
type Result struct {
	FinalTick uint64
	Digest    uint64
	Scores    map[sim.Team]int64
}

// Run re-simulates a recorded match from its seed and command log and
// returns the terminal state summary. The digest can be compared against
// the recorded one to prove the replay matched the live match.
func Run(record MatchRecord, terrain *sim.TerrainMap, commands []sim.Command, zones []sim.CaptureZone) Result {
	world := sim.NewWorld(record.Config, terrain, nil)
	for _, zone := range zones {
		world.AddZone(zone)
	}

	byTick := make(map[uint64][]sim.Command)
	for _, cmd := range commands {
		byTick[cmd.OriginTick] = append(byTick[cmd.OriginTick], cmd)
	}

	dt := 1.0 / float64(record.Config.TickRate)
	if record.BattleTick == 0 {
		// No setup phase was recorded; the match fought from the start.
		world.SetPhase(sim.PhaseBattle)
	}
	for tick := uint64(1); tick <= record.FinalTick; tick++ {
		if tick == record.BattleTick {
			world.SetPhase(sim.PhaseBattle)
		}
		world.Step(tick, dt, byTick[tick])
		world.DrainDelta()
	}

	frame := world.Snapshot()
	return Result{
		FinalTick: world.Tick(),
		Digest:    world.Digest(),
		Scores:    frame.Scores,
	}
}

// Verify re-runs a match and compares the terminal digest against the
// recorded one.
func Verify(record MatchRecord, terrain *sim.TerrainMap, commands []sim.Command, zones []sim.CaptureZone) (Result, error) {
	result := Run(record, terrain, commands, zones)
	if record.FinalDigest != 0 && result.Digest != record.FinalDigest {
		return result, fmt.Errorf("replay: digest mismatch for %s: recorded %#x, replayed %#x",
			record.ID, record.FinalDigest, result.Digest)
	}
	return result, nil
}
