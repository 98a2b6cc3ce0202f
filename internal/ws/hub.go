// Package ws bridges websocket clients and the authoritative match
// session: commands flow in from connections, snapshot deltas fan out to
// every subscriber once per tick.
package ws

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/duxbuse/waryes-sub005/internal/proto"
	"github.com/duxbuse/waryes-sub005/internal/session"
	"github.com/duxbuse/waryes-sub005/internal/sim"
	"github.com/duxbuse/waryes-sub005/logging"
	loggingnetcode "github.com/duxbuse/waryes-sub005/logging/netcode"
)

// Command rejection reasons surfaced to clients.
const (
	RejectUnknownClient = "unknown_client"
	RejectMalformed     = "malformed_command"
	RejectWrongTeam     = "wrong_team"
)

var errUnknownClient = errors.New("ws: unknown client")

// subscriber is one connected client. Writes from the broadcast loop and
// from the per-connection read loop share the connection, so every write
// goes through the mutex.
type subscriber struct {
	id   string
	team sim.Team
	conn *websocket.Conn

	writeMu sync.Mutex
	lastSeq uint64
}

func (s *subscriber) writeMessage(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

func (s *subscriber) lastCommandSeq() uint64 {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.lastSeq
}

func (s *subscriber) storeCommandSeq(seq uint64) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if seq > s.lastSeq {
		s.lastSeq = seq
	}
}

// Hub owns the set of connected clients for one match.
type Hub struct {
	mu          sync.Mutex
	match       *session.Authoritative
	subscribers map[string]*subscriber
	nextTeam    int
	pub         logging.Publisher
	logger      *log.Logger
}

// NewHub wraps an authoritative session for websocket access.
func NewHub(match *session.Authoritative, pub logging.Publisher, logger *log.Logger) *Hub {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		match:       match,
		subscribers: make(map[string]*subscriber),
		pub:         pub,
		logger:      logger,
	}
}

// Join registers a connection, assigns it a team in alternation, and
// returns the join response carrying the current keyframe.
func (h *Hub) Join(ctx context.Context, conn *websocket.Conn) (*subscriber, proto.JoinResponseV1) {
	h.mu.Lock()
	sub := &subscriber{
		id:   uuid.NewString(),
		team: sim.Team(h.nextTeam % 2),
		conn: conn,
	}
	h.nextTeam++
	h.subscribers[sub.id] = sub
	h.mu.Unlock()

	cfg := h.match.World().Config()
	resp := proto.JoinResponseV1{
		ID:               sub.id,
		Team:             int(sub.team),
		Keyframe:         h.match.Keyframe(),
		Config:           cfg,
		KeyframeInterval: cfg.KeyframeInterval,
		ServerTime:       time.Now().UnixMilli(),
	}
	loggingnetcode.ClientJoined(ctx, h.pub, h.match.Tick(), logging.EntityRef{
		ID:   sub.id,
		Kind: logging.EntityKindClient,
	})
	return sub, resp
}

// Disconnect drops a client. Safe to call twice.
func (h *Hub) Disconnect(ctx context.Context, id, reason string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	sub.conn.Close()
	loggingnetcode.ClientLeft(ctx, h.pub, h.match.Tick(), logging.EntityRef{
		ID:   sub.id,
		Kind: logging.EntityKindClient,
	}, reason)
}

// SubmitCommand validates an inbound message against the sender's team
// and stages it on the authoritative session. It returns the tick the
// command will apply at, or a rejection reason.
func (h *Hub) SubmitCommand(clientID string, msg proto.ClientMessage) (uint64, string, error) {
	h.mu.Lock()
	sub, ok := h.subscribers[clientID]
	h.mu.Unlock()
	if !ok {
		return 0, RejectUnknownClient, errUnknownClient
	}

	cmd, ok := proto.ClientCommand(msg)
	if !ok {
		return 0, RejectMalformed, nil
	}
	switch cmd.Type {
	case sim.CommandSpawn:
		cmd.Spawn.Team = sub.team
		cmd.Spawn.Controller = sub.id
	case sim.CommandOrder:
		world := h.match.World()
		for _, id := range cmd.Order.UnitIDs {
			unit := world.Unit(id)
			if unit != nil && unit.Team != sub.team {
				return 0, RejectWrongTeam, nil
			}
		}
	}
	return h.match.Enqueue(cmd), "", nil
}

// Keyframe returns the latest full snapshot for an on-demand resync.
func (h *Hub) Keyframe() sim.Keyframe {
	return h.match.Keyframe()
}

// Broadcast encodes a delta once and writes it to every subscriber,
// dropping connections that fail.
func (h *Hub) Broadcast(ctx context.Context, delta sim.SnapshotDelta) {
	data, err := proto.EncodeDelta(proto.DeltaV1{
		Delta:      delta,
		ServerTime: time.Now().UnixMilli(),
	})
	if err != nil {
		h.logger.Printf("failed to encode delta for tick %d: %v", delta.Tick, err)
		return
	}

	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.writeMessage(websocket.TextMessage, data); err != nil {
			h.Disconnect(ctx, sub.id, "write failed")
		}
	}
}

// Run drives the match clock until the context ends, broadcasting one
// delta per completed tick.
func (h *Hub) Run(ctx context.Context) {
	interval := time.Second / time.Duration(h.match.World().Config().TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			for _, delta := range h.match.Advance(elapsed) {
				h.Broadcast(ctx, delta)
			}
		}
	}
}
