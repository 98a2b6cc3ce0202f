package session

import (
	"sync"
	"time"

	"github.com/duxbuse/waryes-sub005/internal/sim"
)

// Authoritative owns the real match state. Commands arrive from any
// goroutine, are staged under the mutex, and take effect only at the
// next tick boundary so every instance sees them at the same tick.
type Authoritative struct {
	mu       sync.Mutex
	world    *sim.World
	clock    *sim.Clock
	staged   []sim.Command
	recorder func(tick uint64, commands []sim.Command)
}

// NewAuthoritative wraps a world with command staging and a fixed-step
// clock at the world's configured tick rate.
func NewAuthoritative(world *sim.World) *Authoritative {
	return &Authoritative{
		world: world,
		clock: sim.NewClock(world.Config().TickRate),
	}
}

// World exposes the underlying simulation for read-side queries.
func (a *Authoritative) World() *sim.World { return a.world }

// SetRecorder installs a hook that sees every tick's applied commands,
// in application order, for match recording.
func (a *Authoritative) SetRecorder(recorder func(tick uint64, commands []sim.Command)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recorder = recorder
}

// Tick reports the last completed tick.
func (a *Authoritative) Tick() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.world.Tick()
}

// Enqueue stages a command for the next tick boundary and returns the
// tick at which it will apply.
func (a *Authoritative) Enqueue(cmd sim.Command) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	cmd.OriginTick = a.world.Tick() + 1
	a.staged = append(a.staged, cmd)
	return cmd.OriginTick
}

// SetPhase transitions the match phase between ticks.
func (a *Authoritative) SetPhase(phase sim.Phase) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.world.SetPhase(phase)
}

// StepTick runs exactly one tick with whatever commands are staged and
// returns the resulting snapshot delta.
func (a *Authoritative) StepTick() sim.SnapshotDelta {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stepLocked(a.world.Tick()+1, a.clock.Dt())
}

// Advance feeds elapsed wall time into the fixed-step clock and runs
// every whole tick it yields, returning one delta per tick.
func (a *Authoritative) Advance(elapsed time.Duration) []sim.SnapshotDelta {
	a.mu.Lock()
	defer a.mu.Unlock()
	var deltas []sim.SnapshotDelta
	a.clock.Advance(elapsed, func(tick uint64, dt float64) {
		deltas = append(deltas, a.stepLocked(tick, dt))
	})
	return deltas
}

func (a *Authoritative) stepLocked(tick uint64, dt float64) sim.SnapshotDelta {
	commands := a.staged
	a.staged = nil
	if a.recorder != nil && len(commands) > 0 {
		a.recorder(tick, commands)
	}
	a.world.Step(tick, dt, commands)
	return a.world.DrainDelta()
}

// Keyframe captures the current full state for late joiners.
func (a *Authoritative) Keyframe() sim.Keyframe {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.world.Snapshot()
}
