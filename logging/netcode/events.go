package netcode

import (
	"context"

	"github.com/duxbuse/waryes-sub005/logging"
)

const (
	// EventDesyncDetected is emitted when a predictive digest disagrees
	// with the authoritative one for the same tick.
	EventDesyncDetected logging.EventType = "netcode.desync_detected"
	// EventRollbackApplied is emitted after a successful rollback-and-replay.
	EventRollbackApplied logging.EventType = "netcode.rollback_applied"
	// EventDesyncFatal is emitted when the rollback budget is exhausted.
	EventDesyncFatal logging.EventType = "netcode.desync_fatal"
	// EventClientJoined is emitted when a client subscribes to the match.
	EventClientJoined logging.EventType = "netcode.client_joined"
	// EventClientLeft is emitted when a client disconnects.
	EventClientLeft logging.EventType = "netcode.client_left"
)

type DesyncPayload struct {
	Tick        uint64 `json:"tick"`
	Expected    uint64 `json:"expected"`
	Actual      uint64 `json:"actual"`
	Consecutive int    `json:"consecutive"`
}

func DesyncDetected(ctx context.Context, pub logging.Publisher, tick uint64, payload DesyncPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDesyncDetected,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetcode,
		Payload:  payload,
	})
}

type RollbackPayload struct {
	FromTick      uint64 `json:"fromTick"`
	ReplayedTicks int    `json:"replayedTicks"`
	ReplayedCmds  int    `json:"replayedCmds"`
}

func RollbackApplied(ctx context.Context, pub logging.Publisher, tick uint64, payload RollbackPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRollbackApplied,
		Tick:     tick,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetcode,
		Payload:  payload,
	})
}

func DesyncFatal(ctx context.Context, pub logging.Publisher, tick uint64, consecutive int) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDesyncFatal,
		Tick:     tick,
		Severity: logging.SeverityError,
		Category: logging.CategoryNetcode,
		Extra:    map[string]any{"consecutive": consecutive},
	})
}

func ClientJoined(ctx context.Context, pub logging.Publisher, tick uint64, client logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventClientJoined,
		Tick:     tick,
		Actor:    client,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetcode,
	})
}

func ClientLeft(ctx context.Context, pub logging.Publisher, tick uint64, client logging.EntityRef, reason string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventClientLeft,
		Tick:     tick,
		Actor:    client,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetcode,
		Extra:    map[string]any{"reason": reason},
	})
}
