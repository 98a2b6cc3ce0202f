package sim

// OrderType enumerates the top-level orders a unit can hold. A unit holds
// exactly one active order; follow-ups wait in the queue.
type OrderType uint8

const (
	OrderNone OrderType = iota
	OrderMove
	OrderAttack
	OrderAttackMove
	OrderReverse
	OrderHold
	OrderSmoke
)

func (t OrderType) String() string {
	switch t {
	case OrderMove:
		return "move"
	case OrderAttack:
		return "attack"
	case OrderAttackMove:
		return "attack_move"
	case OrderReverse:
		return "reverse"
	case OrderHold:
		return "hold"
	case OrderSmoke:
		return "smoke"
	default:
		return "none"
	}
}

// Order is one unit order. Move-like orders carry a target position,
// attack orders a target unit.
type Order struct {
	Type     OrderType `json:"type"`
	Target   Vec2      `json:"target,omitempty"`
	TargetID string    `json:"targetId,omitempty"`
	FastMove bool      `json:"fastMove,omitempty"`
}

// CommandType enumerates the simulation commands staged for the next tick.
type CommandType string

const (
	CommandSpawn CommandType = "Spawn"
	CommandOrder CommandType = "Order"
)

// Command is an intent captured for processing at the next tick boundary.
// Commands are the only inputs the simulation accepts; replaying the same
// command log against the same seed reproduces the match exactly.
type Command struct {
	OriginTick uint64        `json:"originTick"`
	Type       CommandType   `json:"type"`
	Spawn      *SpawnCommand `json:"spawn,omitempty"`
	Order      *OrderCommand `json:"order,omitempty"`
}

// SpawnCommand requests a new unit from the catalog.
type SpawnCommand struct {
	TypeID     string `json:"typeId"`
	Team       Team   `json:"team"`
	Controller string `json:"controller"`
	Pos        Vec2   `json:"pos"`
}

// OrderCommand assigns an order to one or more units. With Queue set the
// order appends to each unit's queue instead of replacing the active one.
type OrderCommand struct {
	UnitIDs []string `json:"unitIds"`
	Order   Order    `json:"order"`
	Queue   bool     `json:"queue,omitempty"`
}
