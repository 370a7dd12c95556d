package opt

import (
	"sort"

	"morapack/internal/model"
)

// Destroyer picks up to n assigned shipments to unassign.
type Destroyer interface {
	Name() string
	Destroy(st *State, n int) []int
}

func defaultDestroyers() []Destroyer {
	return []Destroyer{randomRemoval{}, geographicRemoval{}, timeRemoval{}, congestionRemoval{}}
}

// removalCount is ratio x assigned clamped to [MinRemoval, MaxRemoval] and
// never more than what is assigned.
func removalCount(cfg Config, assigned int, ratio float64) int {
	n := int(ratio*float64(assigned) + 0.5)
	n = max(n, cfg.MinRemoval)
	n = min(n, cfg.MaxRemoval)
	return min(n, assigned)
}

type randomRemoval struct{}

func (randomRemoval) Name() string { return "random" }

func (randomRemoval) Destroy(st *State, n int) []int {
	ids := st.sol.assignedIDs()
	st.ctx.RNG.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	return ids[:min(n, len(ids))]
}

// geographicRemoval removes shipments sharing the continent pair of a random
// seed shipment, then those sharing an airport with it, then random ones.
type geographicRemoval struct{}

func (geographicRemoval) Name() string { return "geographic" }

func (geographicRemoval) Destroy(st *State, n int) []int {
	ids := st.sol.assignedIDs()
	if len(ids) == 0 || n <= 0 {
		return nil
	}
	rng := st.ctx.RNG
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	seed := st.sol.Shipments[ids[0]]
	rank := func(sh *Shipment) int {
		switch {
		case sh.Origin.Continent() == seed.Origin.Continent() && sh.Dest.Continent() == seed.Dest.Continent():
			return 0
		case sh.Origin.Index == seed.Origin.Index || sh.Dest.Index == seed.Dest.Index:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return rank(st.sol.Shipments[ids[i]]) < rank(st.sol.Shipments[ids[j]])
	})
	return ids[:min(n, len(ids))]
}

// timeRemoval removes shipments whose travel windows overlap most with a
// random seed shipment.
type timeRemoval struct{}

func (timeRemoval) Name() string { return "time_based" }

func (timeRemoval) Destroy(st *State, n int) []int {
	ids := st.sol.assignedIDs()
	if len(ids) == 0 || n <= 0 {
		return nil
	}
	window := func(id int) (int, int) {
		sh, r := st.sol.Shipments[id], st.sol.Routes[id]
		if len(r) == 0 {
			return sh.Ready, sh.Ready
		}
		return r.Departure(), r.Arrival()
	}
	s0, e0 := window(ids[st.ctx.RNG.Intn(len(ids))])
	overlap := make(map[int]int, len(ids))
	for _, id := range ids {
		s, e := window(id)
		overlap[id] = min(e, e0) - max(s, s0)
	}
	sort.SliceStable(ids, func(i, j int) bool { return overlap[ids[i]] > overlap[ids[j]] })
	return ids[:min(n, len(ids))]
}

// congestionRemoval removes shipments riding the most saturated instances.
type congestionRemoval struct{}

func (congestionRemoval) Name() string { return "congested_route" }

func (congestionRemoval) Destroy(st *State, n int) []int {
	ids := st.sol.assignedIDs()
	if len(ids) == 0 || n <= 0 {
		return nil
	}
	rng := st.ctx.RNG
	load := make(map[int]float64, len(ids))
	for _, id := range ids {
		load[id] = peakLoad(st.flights, st.sol.Routes[id]) + 0.1*rng.Float64()
	}
	sort.SliceStable(ids, func(i, j int) bool { return load[ids[i]] > load[ids[j]] })
	return ids[:min(n, len(ids))]
}

func peakLoad(fl *FlightLedger, r model.Route) float64 {
	peak := 0.0
	for _, fi := range r {
		peak = max(peak, fl.loadFactor(fi))
	}
	return peak
}
