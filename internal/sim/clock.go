package sim

import "time"

// Phase gates what the simulation does with a tick. During Setup only
// spawns and queued pre-orders are accepted; combat, movement, and scoring
// run only in Battle.
type Phase uint8

const (
	PhaseSetup Phase = iota
	PhaseBattle
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseBattle:
		return "battle"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// DefaultTickRate is the fixed simulation frequency in ticks per second.
const DefaultTickRate = 60

// Clock converts irregular wall-time into zero or more whole fixed steps.
// It never runs a fractional step; leftover time accumulates toward the
// next one.
type Clock struct {
	stepDuration time.Duration
	accumulator  time.Duration
	tick         uint64
	maxCatchUp   int
}

// NewClock builds a fixed-step clock at the given tick rate.
func NewClock(tickRate int) *Clock {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	return &Clock{
		stepDuration: time.Second / time.Duration(tickRate),
		maxCatchUp:   8,
	}
}

// Dt is the fixed timestep in seconds.
func (c *Clock) Dt() float64 { return c.stepDuration.Seconds() }

// Tick is the number of completed steps.
func (c *Clock) Tick() uint64 { return c.tick }

// Advance feeds elapsed wall-time into the accumulator and runs the step
// callback once per whole fixed step, returning how many steps ran. A
// catch-up cap drops backlog after long stalls instead of spiraling.
func (c *Clock) Advance(elapsed time.Duration, step func(tick uint64, dt float64)) int {
	if elapsed < 0 {
		elapsed = 0
	}
	c.accumulator += elapsed
	steps := 0
	for c.accumulator >= c.stepDuration {
		c.accumulator -= c.stepDuration
		c.tick++
		step(c.tick, c.Dt())
		steps++
		if steps >= c.maxCatchUp {
			c.accumulator = 0
			break
		}
	}
	return steps
}
