package sim

import "math"

// AIBehavior is the decision state of one AI-controlled unit.
type AIBehavior uint8

const (
	AIIdle AIBehavior = iota
	AIAdvance
	AIEngage
	AICapture
	AIRetreat
)

func (b AIBehavior) String() string {
	switch b {
	case AIAdvance:
		return "advance"
	case AIEngage:
		return "engage"
	case AICapture:
		return "capture"
	case AIRetreat:
		return "retreat"
	default:
		return "idle"
	}
}

// aiBlackboard is the per-unit AI memory. Decisions re-run on an interval,
// not every tick, and deferral pushes NextDecisionAt further out.
type aiBlackboard struct {
	Behavior       AIBehavior
	TargetID       string
	NextDecisionAt uint64
}

const (
	aiDecisionIntervalTicks = 30
	aiDeferralTicks         = 10
	// aiEvaluationBudget caps decision work per tick. The budget is a
	// deterministic work metric, not wall time: both instances must defer
	// the same units on the same tick or their states diverge.
	aiEvaluationBudget = 16
	aiRetreatDistance  = 150.0
)

// RegisterAIController marks a controller id as machine-driven; units it
// owns are re-evaluated by the decision engine.
func (w *World) RegisterAIController(controller string) {
	w.aiControllers[controller] = true
}

// stepAI re-evaluates AI-controlled units within the evaluation budget.
// Runs after combat so decisions see this tick's visibility and damage.
// Over budget, lower-priority units (already engaged or moving) defer to
// a later tick rather than blowing the frame.
func (w *World) stepAI() {
	budget := aiEvaluationBudget

	// Two passes: units with nothing to do first, busy units second so
	// they are the ones deferred under pressure.
	for pass := 0; pass < 2; pass++ {
		for _, id := range w.order {
			unit := w.units[id]
			if unit == nil || !unit.Alive() || unit.Routing {
				continue
			}
			if !w.aiControllers[unit.Controller] {
				continue
			}
			busy := unit.Order.Type != OrderNone
			if (pass == 0) == busy {
				continue
			}
			bb := w.blackboard(unit.ID)
			if w.tick < bb.NextDecisionAt {
				continue
			}
			if budget <= 0 {
				bb.NextDecisionAt = w.tick + aiDeferralTicks
				w.publishAIBudgetDeferred(unit)
				continue
			}
			budget--
			w.decideBehavior(unit, bb)
			bb.NextDecisionAt = w.tick + aiDecisionIntervalTicks + uint64(w.rng.IntN(StreamAIJitter, 5))
		}
	}
}

func (w *World) blackboard(unitID string) *aiBlackboard {
	bb, ok := w.aiBlackboards[unitID]
	if !ok {
		bb = &aiBlackboard{}
		w.aiBlackboards[unitID] = bb
	}
	return bb
}

// decideBehavior applies the fixed priority ladder: retreat, engage,
// capture, advance.
func (w *World) decideBehavior(unit *SimUnit, bb *aiBlackboard) {
	if unit.Health < unit.MaxHealth*retreatHealthThreshold {
		w.enterRetreat(unit, bb)
		return
	}

	vis := w.Visibility(unit.Team)
	if target := w.bestTargetInRange(unit, vis); target != nil {
		if bb.Behavior != AIEngage || bb.TargetID != target.ID {
			bb.Behavior = AIEngage
			bb.TargetID = target.ID
			w.startOrder(unit, Order{Type: OrderAttack, TargetID: target.ID})
		}
		return
	}

	if zone := w.nearestUnresolvedZone(unit); zone != nil {
		if unit.Pos.DistanceTo(zone.Center) <= zone.Radius {
			if bb.Behavior != AICapture {
				bb.Behavior = AICapture
				bb.TargetID = ""
				w.startOrder(unit, Order{Type: OrderHold})
			}
			return
		}
		bb.Behavior = AIAdvance
		bb.TargetID = ""
		w.startOrder(unit, Order{Type: OrderAttackMove, Target: zone.Center})
		return
	}

	bb.Behavior = AIIdle
	bb.TargetID = ""
}

func (w *World) enterRetreat(unit *SimUnit, bb *aiBlackboard) {
	if bb.Behavior == AIRetreat {
		return
	}
	bb.Behavior = AIRetreat
	bb.TargetID = ""
	flee := unit.ThreatDir.Scale(-1)
	if flee == (Vec2{}) {
		flee = Vec2{X: -1}
	}
	dest := w.clampToMap(unit.Pos.Add(flee.Normalized().Scale(aiRetreatDistance)))
	w.startOrder(unit, Order{Type: OrderMove, Target: dest, FastMove: true})
}

// nearestUnresolvedZone finds the closest capture zone the unit's team
// does not hold. Ties break by zone ID so both instances agree.
func (w *World) nearestUnresolvedZone(unit *SimUnit) *CaptureZone {
	var best *CaptureZone
	bestDist := math.Inf(1)
	for _, zone := range w.zones {
		if zone.Owner == unit.Team {
			continue
		}
		dist := unit.Pos.DistanceTo(zone.Center)
		if dist < bestDist || (dist == bestDist && best != nil && zone.ID < best.ID) {
			best = zone
			bestDist = dist
		}
	}
	return best
}
