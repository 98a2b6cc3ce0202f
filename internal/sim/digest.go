package sim

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sort"
)

// Digest folds the replicable simulation state into one 64-bit value.
// Authoritative instances stamp it onto every delta; predictive instances
// compare it against their own history to detect divergence. Any field
// that influences future evolution is included; derived caches (fog
// grids, blackboards) are not.
func (w *World) Digest() uint64 {
	h := fnv.New64a()
	var buf [8]byte

	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	writeF64 := func(v float64) { writeU64(math.Float64bits(v)) }
	writeStr := func(s string) {
		writeU64(uint64(len(s)))
		h.Write([]byte(s))
	}

	writeU64(uint64(w.phase))
	writeU64(w.nextUnit)

	for _, id := range w.order {
		u := w.units[id]
		if u == nil {
			continue
		}
		writeStr(u.ID)
		writeStr(u.TypeID)
		writeU64(uint64(int64(u.Team)))
		writeF64(u.Pos.X)
		writeF64(u.Pos.Y)
		writeF64(u.Facing)
		writeF64(u.Health)
		writeF64(u.Morale)
		writeF64(u.Suppression)
		writeU64(uint64(u.Veterancy))
		if u.Routing {
			writeU64(1)
		} else {
			writeU64(0)
		}
		if u.Garrisoned {
			writeU64(1)
		} else {
			writeU64(0)
		}
		writeU64(uint64(u.Order.Type))
		writeF64(u.Order.Target.X)
		writeF64(u.Order.Target.Y)
		writeStr(u.Order.TargetID)
		writeU64(uint64(len(u.OrderQueue)))
		for _, s := range u.Statuses {
			writeU64(uint64(s.Malus))
			writeU64(uint64(s.RemainingTicks))
		}
		for i := range u.Weapons {
			writeU64(uint64(u.Weapons[i].Cooldown))
			writeU64(uint64(int64(u.Weapons[i].Ammo)))
		}
	}

	for _, z := range w.zones {
		writeStr(z.ID)
		writeU64(uint64(int64(z.Owner)))
	}

	teams := make([]Team, 0, len(w.scores))
	for team := range w.scores {
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i] < teams[j] })
	for _, team := range teams {
		writeU64(uint64(int64(team)))
		writeU64(uint64(w.scores[team]))
	}

	for _, s := range w.smoke {
		writeF64(s.Pos.X)
		writeF64(s.Pos.Y)
		writeU64(s.ExpiresTick)
	}

	return h.Sum64()
}
