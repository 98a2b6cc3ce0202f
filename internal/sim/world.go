package sim

import (
	"fmt"
	"sort"
	"strings"

	"github.com/duxbuse/waryes-sub005/internal/nav"
	"github.com/duxbuse/waryes-sub005/logging"
)

const defaultWorldSeed = "skirmish"

// Config captures the match-level simulation settings.
type Config struct {
	Seed             string `json:"seed"`
	TickRate         int    `json:"tickRate"`
	KeyframeInterval int    `json:"keyframeInterval"`
	// PlannerBudget caps pathfinding node expansions per tick. It is a
	// deterministic work metric so authoritative and predictive instances
	// defer identical requests on identical ticks.
	PlannerBudget int `json:"plannerBudget"`
}

// normalized returns a config with defaults applied.
func (cfg Config) normalized() Config {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = defaultWorldSeed
	}
	if normalized.TickRate <= 0 {
		normalized.TickRate = DefaultTickRate
	}
	if normalized.KeyframeInterval <= 0 {
		normalized.KeyframeInterval = 120
	}
	if normalized.PlannerBudget <= 0 {
		normalized.PlannerBudget = 4096
	}
	return normalized
}

// DefaultConfig returns the standard skirmish settings.
func DefaultConfig() Config {
	return Config{}.normalized()
}

// World owns one simulation instance's entire state. Components are
// methods over (world, entity); there is no ambient global state, which
// keeps the determinism property mechanically checkable.
type World struct {
	cfg       Config
	rng       *RNG
	terrain   *TerrainMap
	units     map[string]*SimUnit
	order     []string
	nextUnit  uint64
	zones     []*CaptureZone
	scores    map[Team]int64
	vis       map[Team]*VisibilityState
	smoke     []SmokeScreen
	planner   *nav.Planner
	meshes    map[meshKey]*nav.Mesh
	journal   *Journal
	publisher logging.Publisher

	aiControllers map[string]bool
	aiBlackboards map[string]*aiBlackboard

	phase Phase
	tick  uint64
}

// NewWorld constructs a simulation over a static terrain dataset.
func NewWorld(cfg Config, terrain *TerrainMap, publisher logging.Publisher) *World {
	normalized := cfg.normalized()
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	if terrain == nil {
		terrain = FlatTerrain(64, 64, defaultCellSize)
	}
	return &World{
		cfg:           normalized,
		rng:           NewRNG(normalized.Seed),
		terrain:       terrain,
		units:         make(map[string]*SimUnit),
		order:         make([]string, 0),
		scores:        make(map[Team]int64),
		vis:           make(map[Team]*VisibilityState),
		planner:       nav.NewPlanner(normalized.PlannerBudget),
		meshes:        make(map[meshKey]*nav.Mesh),
		journal:       newJournal(defaultJournalKeyframeCapacity),
		publisher:     publisher,
		aiControllers: make(map[string]bool),
		aiBlackboards: make(map[string]*aiBlackboard),
		phase:         PhaseSetup,
	}
}

func (w *World) Config() Config       { return w.cfg }
func (w *World) Terrain() *TerrainMap { return w.terrain }
func (w *World) Phase() Phase         { return w.phase }
func (w *World) Tick() uint64         { return w.tick }

// Unit returns a live unit by ID.
func (w *World) Unit(id string) *SimUnit { return w.units[id] }

// Units returns the live units in deterministic spawn order.
func (w *World) Units() []*SimUnit {
	units := make([]*SimUnit, 0, len(w.order))
	for _, id := range w.order {
		if u := w.units[id]; u != nil {
			units = append(units, u)
		}
	}
	return units
}

// SetPhase transitions the match phase. Entering Battle releases queued
// pre-orders on units that are otherwise idle.
func (w *World) SetPhase(phase Phase) {
	if w.phase == phase {
		return
	}
	w.phase = phase
	if phase != PhaseBattle {
		return
	}
	for _, id := range w.order {
		unit := w.units[id]
		if unit == nil || unit.Order.Type != OrderNone || len(unit.OrderQueue) == 0 {
			continue
		}
		w.completeOrder(unit)
	}
}

// Step advances the simulation by one tick: staged commands first, then
// the fixed component order Movement → Visibility → Combat → AI, then
// objectives and deferred removal. Outside the Battle phase only commands
// are processed.
func (w *World) Step(tick uint64, dt float64, commands []Command) {
	if dt <= 0 {
		dt = 1.0 / float64(w.cfg.TickRate)
	}
	w.tick = tick

	for _, cmd := range commands {
		w.applyCommand(cmd)
	}

	if w.phase != PhaseBattle {
		return
	}

	w.stepUpkeep()
	w.drainPathResults()
	w.stepMovement(dt)
	for _, team := range w.teams() {
		w.computeVisibility(team)
	}
	w.stepCombat()
	w.stepAI()
	w.stepObjectives()
	w.compactRemovals()
}

// applyCommand stages one command's effect. During Setup, orders queue as
// pre-orders instead of starting.
func (w *World) applyCommand(cmd Command) {
	switch cmd.Type {
	case CommandSpawn:
		if cmd.Spawn != nil {
			w.spawnUnit(*cmd.Spawn)
		}
	case CommandOrder:
		if cmd.Order == nil {
			return
		}
		for _, id := range cmd.Order.UnitIDs {
			unit := w.units[id]
			if unit == nil || !unit.Alive() {
				continue
			}
			if w.phase == PhaseSetup || cmd.Order.Queue {
				w.queueOrder(unit, cmd.Order.Order)
				continue
			}
			w.startOrder(unit, cmd.Order.Order)
		}
	}
}

// queueOrder appends a follow-up order without disturbing the active one.
func (w *World) queueOrder(unit *SimUnit, order Order) {
	unit.OrderQueue = append(unit.OrderQueue, order)
	w.journal.Record(Patch{Kind: PatchUnitOrder, EntityID: unit.ID, Payload: OrderPayload{
		Order: unit.Order,
		Queue: append([]Order(nil), unit.OrderQueue...),
	}})
}

// spawnUnit instantiates a catalog unit with a deterministic ID.
func (w *World) spawnUnit(cmd SpawnCommand) {
	spec, err := SpecFor(cmd.TypeID)
	if err != nil {
		w.publishSpawnRejected(cmd, err)
		return
	}
	w.nextUnit++
	id := fmt.Sprintf("unit-%d", w.nextUnit)
	unit := spec.Instantiate(id, cmd.Team, cmd.Controller, w.clampToMap(cmd.Pos))
	w.units[id] = unit
	w.order = append(w.order, id)
	w.journal.Record(Patch{Kind: PatchUnitSpawned, EntityID: id, Payload: SpawnPayload{Unit: *unit}})
	w.publishUnitSpawned(unit)
}

// stepUpkeep advances the per-unit timers: weapon cooldowns, timed
// maluses, morale regeneration, suppression decay, smoke expiry.
func (w *World) stepUpkeep() {
	w.pruneSmoke()
	for _, id := range w.order {
		unit := w.units[id]
		if unit == nil || !unit.Alive() {
			continue
		}
		for i := range unit.Weapons {
			unit.Weapons[i].tickCooldown()
		}
		if unit.tickStatuses() {
			w.recordStatusPatch(unit)
		}
		if unit.Morale < unit.MaxMorale || unit.Suppression > 0 {
			regen := unit.MaxMorale * moraleRegenPerTick
			decay := unit.Suppression * suppressionDecayPerTick
			w.setUnitMorale(unit, unit.Morale+regen, unit.Suppression-decay)
		}
		// Qualifying infantry digs into a building cell while idle or
		// holding, and leaves cover on any other order or when routing.
		garrisoned := unit.CanGarrison && !unit.Routing &&
			(unit.Order.Type == OrderNone || unit.Order.Type == OrderHold) &&
			w.terrain.KindAt(unit.Pos) == TerrainBuilding
		w.setUnitGarrisoned(unit, garrisoned)
	}
}

// compactRemovals drops units marked dead during this tick. Removal is
// deferred to here so no component ever iterates a mutating collection.
func (w *World) compactRemovals() {
	removed := false
	for _, id := range w.order {
		unit := w.units[id]
		if unit == nil || !unit.MarkedForRemoval() {
			continue
		}
		removed = true
		w.journal.PurgeEntity(id)
		w.journal.Record(Patch{Kind: PatchUnitRemoved, EntityID: id})
		w.publishUnitDestroyed(unit)
		delete(w.units, id)
		delete(w.aiBlackboards, id)
	}
	if !removed {
		return
	}
	kept := w.order[:0]
	for _, id := range w.order {
		if _, ok := w.units[id]; ok {
			kept = append(kept, id)
		}
	}
	w.order = kept
}

// teams lists the teams with live units, sorted for stable pass order.
func (w *World) teams() []Team {
	seen := make(map[Team]bool)
	teams := make([]Team, 0, 2)
	for _, id := range w.order {
		unit := w.units[id]
		if unit == nil || seen[unit.Team] {
			continue
		}
		seen[unit.Team] = true
		teams = append(teams, unit.Team)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i] < teams[j] })
	return teams
}

// Snapshot captures the full replicable state as a keyframe.
func (w *World) Snapshot() Keyframe {
	units := make([]SimUnit, 0, len(w.order))
	for _, id := range w.order {
		if u := w.units[id]; u != nil {
			units = append(units, *u)
		}
	}
	zones := make([]CaptureZone, len(w.zones))
	for i, z := range w.zones {
		zones[i] = *z
	}
	scores := make(map[Team]int64, len(w.scores))
	for team, score := range w.scores {
		scores[team] = score
	}
	smoke := make([]SmokeScreen, len(w.smoke))
	copy(smoke, w.smoke)
	return Keyframe{
		Tick:     w.tick,
		NextUnit: w.nextUnit,
		Units:    units,
		Zones:    zones,
		Scores:   scores,
		Smoke:    smoke,
		Phase:    w.phase,
	}
}

// DrainDelta packages this tick's journal contents as the outbound
// snapshot delta, recording a keyframe on the configured interval.
func (w *World) DrainDelta() SnapshotDelta {
	patches, outcomes := w.journal.Drain()
	delta := SnapshotDelta{
		Tick:     w.tick,
		Digest:   w.Digest(),
		Patches:  patches,
		Outcomes: outcomes,
	}
	if w.cfg.KeyframeInterval > 0 && w.tick%uint64(w.cfg.KeyframeInterval) == 0 {
		w.journal.RecordKeyframe(w.Snapshot())
	}
	return delta
}

// Journal exposes the keyframe window for recovery flows.
func (w *World) Journal() *Journal { return w.journal }
