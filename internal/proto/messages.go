// Package proto defines the websocket wire format between the match
// server and its clients. Payloads are versioned JSON frames.
package proto

import (
	"encoding/json"
	"fmt"

	"github.com/duxbuse/waryes-sub005/internal/sim"
)

const (
	// Version tracks the wire-protocol revision expected by clients.
	Version = 1

	// Type identifiers for outbound websocket payloads.
	typeDelta         = "delta"
	typeKeyframe      = "keyframe"
	typeHeartbeat     = "heartbeat"
	typeCommandAck    = "commandAck"
	typeCommandReject = "commandReject"
	typeMatchOver     = "matchOver"
)

// Client message type identifiers.
const (
	TypeOrder       = "order"
	TypeSpawn       = "spawn"
	TypeHeartbeat   = "heartbeat"
	TypeKeyframeReq = "keyframeRequest"
)

// Exported aliases for outbound message type identifiers.
const (
	TypeDelta     = typeDelta
	TypeKeyframe  = typeKeyframe
	TypeMatchOver = typeMatchOver
)

// ClientMessage captures an inbound websocket message from the client.
type ClientMessage struct {
	Ver      int      `json:"ver,omitempty"`
	Type     string   `json:"type"`
	Seq      *uint64  `json:"seq,omitempty"`
	SentAt   int64    `json:"sentAt"`
	UnitIDs  []string `json:"unitIds,omitempty"`
	Order    string   `json:"order,omitempty"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	TargetID string   `json:"targetId,omitempty"`
	Queue    bool     `json:"queue,omitempty"`
	FastMove bool     `json:"fastMove,omitempty"`
	TypeID   string   `json:"typeId,omitempty"`
}

// DecodeClientMessage converts raw websocket payloads into a structured message.
func DecodeClientMessage(payload []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, err
	}
	if msg.Ver == 0 {
		msg.Ver = Version
	}
	if msg.Ver != Version {
		return msg, fmt.Errorf("unsupported client protocol version %d", msg.Ver)
	}
	return msg, nil
}

// ClientCommand converts an inbound message into a simulation command.
// Team and controller metadata are stamped by the hub when the command is
// accepted, never trusted from the wire.
func ClientCommand(msg ClientMessage) (sim.Command, bool) {
	switch msg.Type {
	case TypeOrder:
		orderType, ok := parseOrderType(msg.Order)
		if !ok || len(msg.UnitIDs) == 0 {
			return sim.Command{}, false
		}
		return sim.Command{
			Type: sim.CommandOrder,
			Order: &sim.OrderCommand{
				UnitIDs: msg.UnitIDs,
				Order: sim.Order{
					Type:     orderType,
					Target:   sim.Vec2{X: msg.X, Y: msg.Y},
					TargetID: msg.TargetID,
					FastMove: msg.FastMove,
				},
				Queue: msg.Queue,
			},
		}, true
	case TypeSpawn:
		if msg.TypeID == "" {
			return sim.Command{}, false
		}
		return sim.Command{
			Type: sim.CommandSpawn,
			Spawn: &sim.SpawnCommand{
				TypeID: msg.TypeID,
				Pos:    sim.Vec2{X: msg.X, Y: msg.Y},
			},
		}, true
	default:
		return sim.Command{}, false
	}
}

func parseOrderType(value string) (sim.OrderType, bool) {
	switch value {
	case "move":
		return sim.OrderMove, true
	case "attack":
		return sim.OrderAttack, true
	case "attackMove":
		return sim.OrderAttackMove, true
	case "reverse":
		return sim.OrderReverse, true
	case "hold":
		return sim.OrderHold, true
	case "smoke":
		return sim.OrderSmoke, true
	default:
		return sim.OrderNone, false
	}
}

// CommandAck describes an acknowledgement of an accepted command.
type CommandAck struct {
	Seq  uint64
	Tick uint64
}

// EncodeCommandAck renders a command acknowledgement response.
func EncodeCommandAck(msg CommandAck) ([]byte, error) {
	frame := struct {
		Ver  int    `json:"ver"`
		Type string `json:"type"`
		Seq  uint64 `json:"seq"`
		Tick uint64 `json:"tick,omitempty"`
	}{
		Ver:  Version,
		Type: typeCommandAck,
		Seq:  msg.Seq,
		Tick: msg.Tick,
	}
	return json.Marshal(frame)
}

// CommandReject notifies the client that a command was refused.
type CommandReject struct {
	Seq    uint64
	Reason string
}

// EncodeCommandReject renders a command rejection response.
func EncodeCommandReject(msg CommandReject) ([]byte, error) {
	frame := struct {
		Ver    int    `json:"ver"`
		Type   string `json:"type"`
		Seq    uint64 `json:"seq"`
		Reason string `json:"reason"`
	}{
		Ver:    Version,
		Type:   typeCommandReject,
		Seq:    msg.Seq,
		Reason: msg.Reason,
	}
	return json.Marshal(frame)
}

// Heartbeat echoes timing metadata back to the client.
type Heartbeat struct {
	ServerTime int64
	ClientTime int64
	RTTMillis  int64
}

// EncodeHeartbeat renders a heartbeat acknowledgement payload.
func EncodeHeartbeat(msg Heartbeat) ([]byte, error) {
	frame := struct {
		Ver        int    `json:"ver"`
		Type       string `json:"type"`
		ServerTime int64  `json:"serverTime"`
		ClientTime int64  `json:"clientTime"`
		RTTMillis  int64  `json:"rtt"`
	}{
		Ver:        Version,
		Type:       typeHeartbeat,
		ServerTime: msg.ServerTime,
		ClientTime: msg.ClientTime,
		RTTMillis:  msg.RTTMillis,
	}
	return json.Marshal(frame)
}

// JoinResponseV1 captures the version 1 join response layout. The full
// keyframe lets a late joiner reconstruct world state before any deltas
// arrive.
type JoinResponseV1 struct {
	Ver              int          `json:"ver"`
	ID               string       `json:"id"`
	Team             int          `json:"team"`
	Keyframe         sim.Keyframe `json:"keyframe"`
	Config           sim.Config   `json:"config"`
	KeyframeInterval int          `json:"keyframeInterval,omitempty"`
	ServerTime       int64        `json:"serverTime"`
}

// EncodeJoinResponse renders a versioned join response payload.
func EncodeJoinResponse(msg JoinResponseV1) ([]byte, error) {
	msg.Ver = Version
	return json.Marshal(msg)
}

// DeltaV1 captures the per-tick snapshot delta payload. The embedded
// digest lets predictive clients verify their own state for the tick.
type DeltaV1 struct {
	Ver        int               `json:"ver"`
	Type       string            `json:"type"`
	Delta      sim.SnapshotDelta `json:"delta"`
	ServerTime int64             `json:"serverTime"`
}

// EncodeDelta renders a versioned snapshot delta payload.
func EncodeDelta(msg DeltaV1) ([]byte, error) {
	if msg.Type == "" {
		msg.Type = typeDelta
	}
	msg.Ver = Version
	return json.Marshal(msg)
}

// DecodeDelta parses an inbound snapshot delta frame on the client side,
// enforcing the protocol version. Patch payloads decode into their
// concrete types so the delta can feed straight into reconciliation.
func DecodeDelta(payload []byte) (DeltaV1, error) {
	var msg DeltaV1
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, err
	}
	if msg.Ver != Version {
		return msg, fmt.Errorf("unsupported delta protocol version %d", msg.Ver)
	}
	return msg, nil
}

// KeyframeV1 captures the full-state keyframe payload.
type KeyframeV1 struct {
	Ver      int          `json:"ver"`
	Type     string       `json:"type"`
	Sequence uint64       `json:"sequence"`
	Keyframe sim.Keyframe `json:"keyframe"`
}

// EncodeKeyframe renders a versioned keyframe payload.
func EncodeKeyframe(msg KeyframeV1) ([]byte, error) {
	if msg.Type == "" {
		msg.Type = typeKeyframe
	}
	msg.Ver = Version
	return json.Marshal(msg)
}

// DecodeKeyframe parses an inbound keyframe frame on the client side.
func DecodeKeyframe(payload []byte) (KeyframeV1, error) {
	var msg KeyframeV1
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, err
	}
	if msg.Ver != Version {
		return msg, fmt.Errorf("unsupported keyframe protocol version %d", msg.Ver)
	}
	return msg, nil
}

// MatchOverV1 announces the final score once the battle phase ends.
type MatchOverV1 struct {
	Ver    int           `json:"ver"`
	Type   string        `json:"type"`
	Tick   uint64        `json:"t"`
	Scores map[int]int64 `json:"scores"`
	Winner int           `json:"winner"`
}

// EncodeMatchOver renders the end-of-match payload.
func EncodeMatchOver(msg MatchOverV1) ([]byte, error) {
	if msg.Type == "" {
		msg.Type = typeMatchOver
	}
	msg.Ver = Version
	return json.Marshal(msg)
}
