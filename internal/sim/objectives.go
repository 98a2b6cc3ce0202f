package sim

// CaptureZone is a scoring objective. The zone flips to whichever team
// holds it uncontested and pays out victory points while held.
type CaptureZone struct {
	ID        string  `json:"id"`
	Center    Vec2    `json:"center"`
	Radius    float64 `json:"radius"`
	Owner     Team    `json:"owner"`
	VPPerTick int64   `json:"vpPerTick"`
}

// stepObjectives re-evaluates zone ownership and accrues score. A zone
// with units from more than one team inside is contested and keeps its
// current owner without paying out.
func (w *World) stepObjectives() {
	for _, zone := range w.zones {
		present := TeamNeutral
		contested := false
		for _, id := range w.order {
			unit := w.units[id]
			if unit == nil || !unit.Alive() || unit.Category == CategoryAircraft {
				continue
			}
			if unit.Pos.DistanceTo(zone.Center) > zone.Radius {
				continue
			}
			if present == TeamNeutral {
				present = unit.Team
			} else if present != unit.Team {
				contested = true
				break
			}
		}
		if contested {
			continue
		}
		if present != TeamNeutral && present != zone.Owner {
			w.setZoneOwner(zone, present)
		}
		if zone.Owner != TeamNeutral {
			w.setTeamScore(zone.Owner, w.scores[zone.Owner]+zone.VPPerTick)
		}
	}
}

// Score returns a team's current victory points.
func (w *World) Score(team Team) int64 { return w.scores[team] }

// Zones exposes the capture zones for rendering and AI.
func (w *World) Zones() []*CaptureZone { return w.zones }

// AddZone registers a capture zone. Zones are part of the static match
// setup and are only added before the battle phase starts. Callers that
// want an unowned zone pass Owner: TeamNeutral.
func (w *World) AddZone(zone CaptureZone) {
	z := zone
	w.zones = append(w.zones, &z)
}

// DefaultZones lays three neutral zones across the map's vertical
// midline. Both the live server and headless replays derive zones from
// the map this way, so they never have to be transferred.
func DefaultZones(terrain *TerrainMap) []CaptureZone {
	midX := terrain.Width() / 2
	height := terrain.Height()
	radius := terrain.CellSize() * 3
	names := []string{"alpha", "bravo", "charlie"}
	zones := make([]CaptureZone, 0, len(names))
	for i, name := range names {
		zones = append(zones, CaptureZone{
			ID:        "zone-" + name,
			Center:    Vec2{X: midX, Y: height * float64(i+1) / 4},
			Radius:    radius,
			Owner:     TeamNeutral,
			VPPerTick: 1,
		})
	}
	return zones
}
