package session

import (
	"context"
	"sort"

	"github.com/duxbuse/waryes-sub005/internal/sim"
	"github.com/duxbuse/waryes-sub005/logging"
	loggingnetcode "github.com/duxbuse/waryes-sub005/logging/netcode"
)

const (
	defaultHistoryLength = 120
	defaultDesyncBudget  = 3
)

// PredictiveConfig tunes the rollback machinery.
type PredictiveConfig struct {
	// HistoryLength bounds the per-tick snapshot window available as
	// rollback bases.
	HistoryLength int
	// DesyncBudget is the number of consecutive divergent ticks tolerated
	// before the instance gives up on reconciliation.
	DesyncBudget int
}

func (c PredictiveConfig) normalized() PredictiveConfig {
	if c.HistoryLength <= 0 {
		c.HistoryLength = defaultHistoryLength
	}
	if c.DesyncBudget <= 0 {
		c.DesyncBudget = defaultDesyncBudget
	}
	return c
}

// historyEntry stores the state after a predicted tick plus the local
// commands that produced it, so the tick can be replayed on rollback.
type historyEntry struct {
	tick     uint64
	frame    sim.Keyframe
	digest   uint64
	commands []sim.Command
}

// Predictive runs the simulation ahead of the authoritative instance and
// reconciles every inbound snapshot delta against its own digests. A
// digest mismatch triggers rollback-and-replay; too many in a row is
// fatal for the session.
type Predictive struct {
	world *sim.World
	cfg   PredictiveConfig
	pub   logging.Publisher
	dt    float64

	history      []historyEntry
	pendingLocal []sim.Command
	inbound      []sim.SnapshotDelta

	lastConfirmed uint64
	rollbacks     int
	states        map[string]ReconcileState
}

// NewPredictive wraps a world in prediction bookkeeping. The world's
// current state becomes the first rollback base.
func NewPredictive(world *sim.World, cfg PredictiveConfig, pub logging.Publisher) *Predictive {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	p := &Predictive{
		world:  world,
		cfg:    cfg.normalized(),
		pub:    pub,
		dt:     1.0 / float64(world.Config().TickRate),
		states: make(map[string]ReconcileState),
	}
	p.history = append(p.history, historyEntry{
		tick:   world.Tick(),
		frame:  world.Snapshot(),
		digest: world.Digest(),
	})
	p.lastConfirmed = world.Tick()
	return p
}

// World exposes the underlying simulation for read-side queries.
func (p *Predictive) World() *sim.World { return p.world }

// ConsecutiveRollbacks reports how close the session is to its budget.
func (p *Predictive) ConsecutiveRollbacks() int { return p.rollbacks }

// LastConfirmed reports the newest tick verified against the
// authoritative digest.
func (p *Predictive) LastConfirmed() uint64 { return p.lastConfirmed }

// EntityState reports how trustworthy an entity's local state is.
// Entities never touched by prediction are confirmed by definition.
func (p *Predictive) EntityState(id string) ReconcileState {
	return p.states[id]
}

// SubmitLocal stages a locally issued command for the next predicted
// tick. The caller still sends it to the authoritative instance; here it
// only feeds prediction and replay.
func (p *Predictive) SubmitLocal(cmd sim.Command) {
	p.pendingLocal = append(p.pendingLocal, cmd)
}

// StepTick predicts one tick with the staged local commands and records
// the result as a rollback base.
func (p *Predictive) StepTick() {
	tick := p.world.Tick() + 1
	commands := p.pendingLocal
	p.pendingLocal = nil
	for i := range commands {
		commands[i].OriginTick = tick
	}
	delta := p.stepAndRecord(tick, commands)
	p.markPatched(delta.Patches, StatePredicted)
}

func (p *Predictive) stepAndRecord(tick uint64, commands []sim.Command) sim.SnapshotDelta {
	p.world.Step(tick, p.dt, commands)
	delta := p.world.DrainDelta()
	p.history = append(p.history, historyEntry{
		tick:     tick,
		frame:    p.world.Snapshot(),
		digest:   delta.Digest,
		commands: commands,
	})
	if excess := len(p.history) - p.cfg.HistoryLength; excess > 0 {
		p.history = p.history[excess:]
	}
	return delta
}

// Ingest queues an authoritative delta for reconciliation. Duplicates of
// already-confirmed ticks are dropped; reconciliation is idempotent
// under redelivery.
func (p *Predictive) Ingest(delta sim.SnapshotDelta) {
	if delta.Tick <= p.lastConfirmed {
		return
	}
	for _, queued := range p.inbound {
		if queued.Tick == delta.Tick {
			return
		}
	}
	p.inbound = append(p.inbound, delta)
	sort.Slice(p.inbound, func(i, j int) bool { return p.inbound[i].Tick < p.inbound[j].Tick })
}

// Reconcile processes every queued delta whose tick the local prediction
// has reached, in tick order. It returns ErrDesyncBudgetExceeded once
// consecutive rollbacks pass the configured budget.
func (p *Predictive) Reconcile(ctx context.Context) error {
	for len(p.inbound) > 0 {
		delta := p.inbound[0]
		if delta.Tick > p.world.Tick() {
			break
		}
		p.inbound = p.inbound[1:]
		if delta.Tick <= p.lastConfirmed {
			continue
		}
		if err := p.reconcileDelta(ctx, delta); err != nil {
			return err
		}
	}
	return nil
}

func (p *Predictive) reconcileDelta(ctx context.Context, delta sim.SnapshotDelta) error {
	entry, ok := p.entryAt(delta.Tick)
	if !ok {
		return ErrHistoryExhausted
	}
	if entry.digest == delta.Digest {
		p.confirm(delta)
		return nil
	}
	return p.rollback(ctx, delta)
}

func (p *Predictive) confirm(delta sim.SnapshotDelta) {
	p.lastConfirmed = delta.Tick
	p.rollbacks = 0
	p.markPatched(delta.Patches, StateConfirmed)
}

// rollback restores the snapshot preceding the divergent tick, applies
// the authoritative delta in its place, then replays every later
// predicted tick with its recorded local commands.
func (p *Predictive) rollback(ctx context.Context, delta sim.SnapshotDelta) error {
	p.rollbacks++
	loggingnetcode.DesyncDetected(ctx, p.pub, delta.Tick, loggingnetcode.DesyncPayload{
		Tick:        delta.Tick,
		Expected:    delta.Digest,
		Actual:      p.mustDigestAt(delta.Tick),
		Consecutive: p.rollbacks,
	})
	if p.rollbacks > p.cfg.DesyncBudget {
		loggingnetcode.DesyncFatal(ctx, p.pub, delta.Tick, p.rollbacks)
		return ErrDesyncBudgetExceeded
	}

	base, ok := p.entryAt(delta.Tick - 1)
	if !ok {
		return ErrHistoryExhausted
	}
	tail := p.entriesAfter(delta.Tick)
	p.markPredicted(StateReconciling)

	p.world.Restore(base.frame)
	p.world.ApplyDelta(delta)

	p.truncateHistory(delta.Tick)
	p.history = append(p.history, historyEntry{
		tick:   delta.Tick,
		frame:  p.world.Snapshot(),
		digest: delta.Digest,
	})

	replayedCmds := 0
	for _, old := range tail {
		d := p.stepAndRecord(old.tick, old.commands)
		replayedCmds += len(old.commands)
		p.markPatched(d.Patches, StatePredicted)
	}

	p.lastConfirmed = delta.Tick
	p.markPatched(delta.Patches, StateConfirmed)
	// Entities no replayed patch touched settle back to predicted;
	// reconciling only describes the replay window itself.
	for id, state := range p.states {
		if state == StateReconciling {
			p.states[id] = StatePredicted
		}
	}
	loggingnetcode.RollbackApplied(ctx, p.pub, p.world.Tick(), loggingnetcode.RollbackPayload{
		FromTick:      delta.Tick,
		ReplayedTicks: len(tail),
		ReplayedCmds:  replayedCmds,
	})
	return nil
}

func (p *Predictive) entryAt(tick uint64) (historyEntry, bool) {
	for i := range p.history {
		if p.history[i].tick == tick {
			return p.history[i], true
		}
	}
	return historyEntry{}, false
}

func (p *Predictive) mustDigestAt(tick uint64) uint64 {
	if entry, ok := p.entryAt(tick); ok {
		return entry.digest
	}
	return 0
}

func (p *Predictive) entriesAfter(tick uint64) []historyEntry {
	var tail []historyEntry
	for i := range p.history {
		if p.history[i].tick > tick {
			tail = append(tail, p.history[i])
		}
	}
	return tail
}

func (p *Predictive) truncateHistory(tick uint64) {
	kept := p.history[:0]
	for i := range p.history {
		if p.history[i].tick < tick {
			kept = append(kept, p.history[i])
		}
	}
	p.history = kept
}

func (p *Predictive) markPatched(patches []sim.Patch, state ReconcileState) {
	for _, patch := range patches {
		if patch.EntityID == "" {
			continue
		}
		if state == StateConfirmed {
			delete(p.states, patch.EntityID)
			continue
		}
		p.states[patch.EntityID] = state
	}
}

func (p *Predictive) markPredicted(state ReconcileState) {
	for id, current := range p.states {
		if current == StatePredicted {
			p.states[id] = state
		}
	}
}
