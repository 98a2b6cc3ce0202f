package ws

import (
	"log"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/duxbuse/waryes-sub005/internal/proto"
)

// HandlerConfig tunes the websocket endpoint.
type HandlerConfig struct {
	Logger *log.Logger
}

// Handler upgrades HTTP requests and runs the per-connection read loop.
type Handler struct {
	hub      *Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewHandler constructs the websocket endpoint for the given hub.
func NewHandler(hub *Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}
	return &Handler{hub: hub, logger: logger, upgrader: upgrader}
}

// Handle runs one websocket session: join response first, then commands
// until the connection drops.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed: %v", err)
		return
	}

	ctx := r.Context()
	sub, join := h.hub.Join(ctx, conn)

	data, err := proto.EncodeJoinResponse(join)
	if err != nil {
		h.logger.Printf("failed to encode join response for %s: %v", sub.id, err)
		h.hub.Disconnect(ctx, sub.id, "join encode failed")
		return
	}
	if err := sub.writeMessage(websocket.TextMessage, data); err != nil {
		h.hub.Disconnect(ctx, sub.id, "join write failed")
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.hub.Disconnect(ctx, sub.id, "read failed")
			return
		}

		msg, err := proto.DecodeClientMessage(payload)
		if err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", sub.id, err)
			continue
		}

		seq := uint64(0)
		if msg.Seq != nil {
			seq = *msg.Seq
		}

		writeFrame := func(data []byte) bool {
			if err := sub.writeMessage(websocket.TextMessage, data); err != nil {
				h.hub.Disconnect(ctx, sub.id, "write failed")
				return false
			}
			return true
		}

		switch msg.Type {
		case proto.TypeOrder, proto.TypeSpawn:
			if seq > 0 && seq <= sub.lastCommandSeq() {
				// Duplicate delivery: re-ack without resubmitting.
				if data, err := proto.EncodeCommandAck(proto.CommandAck{Seq: seq}); err == nil {
					if !writeFrame(data) {
						return
					}
				}
				continue
			}
			tick, reason, err := h.hub.SubmitCommand(sub.id, msg)
			if err != nil {
				h.hub.Disconnect(ctx, sub.id, reason)
				return
			}
			if seq == 0 {
				continue
			}
			if reason != "" {
				data, encErr := proto.EncodeCommandReject(proto.CommandReject{Seq: seq, Reason: reason})
				if encErr != nil {
					h.logger.Printf("failed to encode reject for %s: %v", sub.id, encErr)
					continue
				}
				if !writeFrame(data) {
					return
				}
				continue
			}
			sub.storeCommandSeq(seq)
			data, encErr := proto.EncodeCommandAck(proto.CommandAck{Seq: seq, Tick: tick})
			if encErr != nil {
				h.logger.Printf("failed to encode ack for %s: %v", sub.id, encErr)
				continue
			}
			if !writeFrame(data) {
				return
			}
		case proto.TypeHeartbeat:
			now := time.Now()
			ack := proto.Heartbeat{
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  now.UnixMilli() - msg.SentAt,
			}
			data, err := proto.EncodeHeartbeat(ack)
			if err != nil {
				h.logger.Printf("failed to encode heartbeat ack for %s: %v", sub.id, err)
				continue
			}
			if !writeFrame(data) {
				return
			}
		case proto.TypeKeyframeReq:
			frame := h.hub.Keyframe()
			data, err := proto.EncodeKeyframe(proto.KeyframeV1{Sequence: seq, Keyframe: frame})
			if err != nil {
				h.logger.Printf("failed to encode keyframe for %s: %v", sub.id, err)
				continue
			}
			if !writeFrame(data) {
				return
			}
		default:
			h.logger.Printf("unknown message type %q from %s", msg.Type, sub.id)
		}
	}
}
