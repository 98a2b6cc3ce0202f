package proto

import (
	"encoding/json"
	"testing"

	"github.com/duxbuse/waryes-sub005/internal/sim"
)

func TestDecodeClientMessageVersioning(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"heartbeat","sentAt":12}`))
	if err != nil {
		t.Fatalf("missing ver should default to the current version: %v", err)
	}
	if msg.Ver != Version {
		t.Fatalf("ver = %d, want %d", msg.Ver, Version)
	}

	if _, err := DecodeClientMessage([]byte(`{"ver":2,"type":"heartbeat"}`)); err == nil {
		t.Fatalf("a future protocol version should be rejected")
	}
	if _, err := DecodeClientMessage([]byte(`{not json`)); err == nil {
		t.Fatalf("malformed payloads should be rejected")
	}
}

func TestClientCommandOrderMapping(t *testing.T) {
	msg := ClientMessage{
		Type:     TypeOrder,
		Order:    "attackMove",
		UnitIDs:  []string{"unit-1", "unit-4"},
		X:        512,
		Y:        288,
		Queue:    true,
		FastMove: true,
	}
	cmd, ok := ClientCommand(msg)
	if !ok {
		t.Fatalf("valid order message was rejected")
	}
	if cmd.Type != sim.CommandOrder || cmd.Order == nil {
		t.Fatalf("mapped to the wrong command shape: %+v", cmd)
	}
	if cmd.Order.Order.Type != sim.OrderAttackMove {
		t.Fatalf("order type = %v, want attack-move", cmd.Order.Order.Type)
	}
	if cmd.Order.Order.Target != (sim.Vec2{X: 512, Y: 288}) {
		t.Fatalf("target = %+v", cmd.Order.Order.Target)
	}
	if !cmd.Order.Queue || !cmd.Order.Order.FastMove {
		t.Fatalf("queue/fast-move flags dropped: %+v", cmd.Order)
	}
	if len(cmd.Order.UnitIDs) != 2 {
		t.Fatalf("unit ids dropped: %v", cmd.Order.UnitIDs)
	}
}

func TestClientCommandSmokeOrderMapping(t *testing.T) {
	cmd, ok := ClientCommand(ClientMessage{
		Type:    TypeOrder,
		Order:   "smoke",
		UnitIDs: []string{"unit-3"},
		X:       400,
		Y:       120,
	})
	if !ok {
		t.Fatalf("smoke order message was rejected")
	}
	if cmd.Order.Order.Type != sim.OrderSmoke {
		t.Fatalf("order type = %v, want smoke", cmd.Order.Order.Type)
	}
	if cmd.Order.Order.Target != (sim.Vec2{X: 400, Y: 120}) {
		t.Fatalf("target = %+v", cmd.Order.Order.Target)
	}
}

func TestDecodeServerFramesEnforceVersion(t *testing.T) {
	payload, err := EncodeDelta(DeltaV1{Delta: sim.SnapshotDelta{Tick: 7}})
	if err != nil {
		t.Fatalf("encode delta: %v", err)
	}
	delta, err := DecodeDelta(payload)
	if err != nil {
		t.Fatalf("decode delta: %v", err)
	}
	if delta.Delta.Tick != 7 {
		t.Fatalf("tick = %d, want 7", delta.Delta.Tick)
	}
	if _, err := DecodeDelta([]byte(`{"ver":2,"type":"delta"}`)); err == nil {
		t.Fatalf("future-version delta should be rejected")
	}

	payload, err = EncodeKeyframe(KeyframeV1{Sequence: 3})
	if err != nil {
		t.Fatalf("encode keyframe: %v", err)
	}
	frame, err := DecodeKeyframe(payload)
	if err != nil {
		t.Fatalf("decode keyframe: %v", err)
	}
	if frame.Sequence != 3 {
		t.Fatalf("sequence = %d, want 3", frame.Sequence)
	}
	if _, err := DecodeKeyframe([]byte(`{"ver":2,"type":"keyframe"}`)); err == nil {
		t.Fatalf("future-version keyframe should be rejected")
	}
}

func TestClientCommandRejectsBadInput(t *testing.T) {
	cases := []ClientMessage{
		{Type: TypeOrder, Order: "chargeWildly", UnitIDs: []string{"unit-1"}},
		{Type: TypeOrder, Order: "move"},
		{Type: TypeSpawn},
		{Type: TypeHeartbeat},
		{Type: "unknown"},
	}
	for _, msg := range cases {
		if _, ok := ClientCommand(msg); ok {
			t.Fatalf("message %+v should not map to a command", msg)
		}
	}
}

func TestClientCommandNeverTrustsIdentityFromWire(t *testing.T) {
	cmd, ok := ClientCommand(ClientMessage{Type: TypeSpawn, TypeID: "mbt", X: 64, Y: 96})
	if !ok {
		t.Fatalf("valid spawn message was rejected")
	}
	if cmd.Spawn.Team != 0 || cmd.Spawn.Controller != "" {
		t.Fatalf("team/controller must be stamped by the hub, got %+v", cmd.Spawn)
	}
	if cmd.Spawn.TypeID != "mbt" || cmd.Spawn.Pos != (sim.Vec2{X: 64, Y: 96}) {
		t.Fatalf("spawn payload corrupted: %+v", cmd.Spawn)
	}
}

func TestOutboundFramesStampVersionAndType(t *testing.T) {
	type header struct {
		Ver  int    `json:"ver"`
		Type string `json:"type"`
	}

	frames := []struct {
		name     string
		wantType string
		encode   func() ([]byte, error)
	}{
		{"delta", typeDelta, func() ([]byte, error) { return EncodeDelta(DeltaV1{}) }},
		{"keyframe", typeKeyframe, func() ([]byte, error) { return EncodeKeyframe(KeyframeV1{Sequence: 3}) }},
		{"commandAck", typeCommandAck, func() ([]byte, error) { return EncodeCommandAck(CommandAck{Seq: 9, Tick: 40}) }},
		{"commandReject", typeCommandReject, func() ([]byte, error) { return EncodeCommandReject(CommandReject{Seq: 9, Reason: "team"}) }},
		{"heartbeat", typeHeartbeat, func() ([]byte, error) { return EncodeHeartbeat(Heartbeat{ServerTime: 1, ClientTime: 2}) }},
		{"matchOver", typeMatchOver, func() ([]byte, error) { return EncodeMatchOver(MatchOverV1{Tick: 900, Winner: 1}) }},
	}
	for _, frame := range frames {
		payload, err := frame.encode()
		if err != nil {
			t.Fatalf("%s: encode: %v", frame.name, err)
		}
		var head header
		if err := json.Unmarshal(payload, &head); err != nil {
			t.Fatalf("%s: decode header: %v", frame.name, err)
		}
		if head.Ver != Version {
			t.Fatalf("%s: ver = %d, want %d", frame.name, head.Ver, Version)
		}
		if head.Type != frame.wantType {
			t.Fatalf("%s: type = %q, want %q", frame.name, head.Type, frame.wantType)
		}
	}
}

func TestEncodeJoinResponseForcesVersion(t *testing.T) {
	payload, err := EncodeJoinResponse(JoinResponseV1{Ver: 99, ID: "p1", Team: 1})
	if err != nil {
		t.Fatalf("encode join response: %v", err)
	}
	var decoded JoinResponseV1
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decode join response: %v", err)
	}
	if decoded.Ver != Version {
		t.Fatalf("ver = %d, want %d", decoded.Ver, Version)
	}
	if decoded.ID != "p1" || decoded.Team != 1 {
		t.Fatalf("identity fields corrupted: %+v", decoded)
	}
}
