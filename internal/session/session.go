// Package session drives the simulation in one of two roles: the
// authoritative instance that owns the match, and predictive instances
// that run ahead locally and reconcile against the authoritative
// snapshot deltas.
package session

import "errors"

// ErrDesyncBudgetExceeded reports that too many consecutive ticks needed
// a rollback. The instance can no longer trust its own prediction and
// must rejoin from a fresh keyframe.
var ErrDesyncBudgetExceeded = errors.New("session: desync budget exceeded")

// ErrHistoryExhausted reports that a delta arrived for a tick older than
// the local snapshot window, so no rollback base exists.
var ErrHistoryExhausted = errors.New("session: snapshot history exhausted")

// ReconcileState describes how much an entity's local state can be
// trusted on a predictive instance.
type ReconcileState int

const (
	// StateConfirmed means the entity matches the last authoritative delta.
	StateConfirmed ReconcileState = iota
	// StatePredicted means local simulation has touched the entity past
	// the last confirmed tick.
	StatePredicted
	// StateReconciling means the entity is mid-rollback and should not be
	// rendered from raw local state.
	StateReconciling
)

func (s ReconcileState) String() string {
	switch s {
	case StateConfirmed:
		return "confirmed"
	case StatePredicted:
		return "predicted"
	case StateReconciling:
		return "reconciling"
	default:
		return "unknown"
	}
}
