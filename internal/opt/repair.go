package opt

import (
	"math"
	"sort"

	"morapack/internal/model"
)

// Repairer reinserts pending shipments. Whatever it cannot place stays
// unassigned and returns to the pool on the next rebuild.
type Repairer interface {
	Name() string
	Repair(st *State, pending []int)
}

func defaultRepairers(cfg Config) []Repairer {
	return []Repairer{greedyRepair{}, regretRepair{k: cfg.RegretK}, timeRepair{}, capacityRepair{}}
}

// pendingShipments resolves ids still present and unassigned.
func pendingShipments(st *State, ids []int) []*Shipment {
	out := make([]*Shipment, 0, len(ids))
	for _, id := range ids {
		sh, ok := st.sol.Shipments[id]
		if ok && !st.sol.IsAssigned(id) {
			out = append(out, sh)
		}
	}
	return out
}

type greedyRepair struct{}

func (greedyRepair) Name() string { return "greedy" }

// Repair inserts in priority order, each at its cheapest feasible route.
func (greedyRepair) Repair(st *State, pending []int) {
	list := pendingShipments(st, pending)
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Due != b.Due {
			return a.Due < b.Due
		}
		return a.ID < b.ID
	})
	for _, sh := range list {
		st.insert(sh, nil)
	}
}

// regretRepair inserts the shipment that loses most by waiting first.
// Regret is the summed cost gap between the best and the next k-1
// candidates; missing candidates count as a large gap.
type regretRepair struct{ k int }

func (r regretRepair) Name() string { return "regret_k" }

const missingCandidatePenalty = 10000

func (r regretRepair) regret(st *State, sh *Shipment, cands []model.Route) float64 {
	if len(cands) == 0 {
		return math.Inf(1)
	}
	best := st.finder.cost(sh, cands[0])
	total := 0.0
	for j := 1; j < r.k; j++ {
		if j < len(cands) {
			total += st.finder.cost(sh, cands[j]) - best
		} else {
			total += missingCandidatePenalty
		}
	}
	return total
}

func (r regretRepair) Repair(st *State, pending []int) {
	list := pendingShipments(st, pending)
	if len(list) <= st.cfg.RegretDynamicLimit {
		r.dynamic(st, list)
		return
	}
	r.static(st, list)
}

// dynamic recomputes regrets after every insertion.
func (r regretRepair) dynamic(st *State, list []*Shipment) {
	var hard []*Shipment
	for len(list) > 0 {
		pick, pickRegret := -1, math.Inf(-1)
		var pickCands []model.Route
		for i, sh := range list {
			cands := st.finder.Candidates(sh, st.flights, r.k)
			if len(cands) == 0 {
				continue
			}
			if g := r.regret(st, sh, cands); g > pickRegret || (g == pickRegret && shipmentLess(sh, list[pick])) {
				pick, pickRegret, pickCands = i, g, cands
			}
		}
		if pick < 0 {
			hard = append(hard, list...)
			break
		}
		sh := list[pick]
		list = append(list[:pick], list[pick+1:]...)
		if !st.place(sh, pickCands) {
			hard = append(hard, sh)
		}
	}
	for _, sh := range hard {
		st.insert(sh, nil)
	}
}

// static ranks once by regret and inserts in that order.
func (r regretRepair) static(st *State, list []*Shipment) {
	regrets := make(map[int]float64, len(list))
	for _, sh := range list {
		regrets[sh.ID] = r.regret(st, sh, st.finder.Candidates(sh, st.flights, r.k))
	}
	sort.SliceStable(list, func(i, j int) bool {
		gi, gj := regrets[list[i].ID], regrets[list[j].ID]
		if gi != gj {
			return gi > gj
		}
		return shipmentLess(list[i], list[j])
	})
	for _, sh := range list {
		st.insert(sh, nil)
	}
}

// timeRepair inserts the shipments with the least slack first.
type timeRepair struct{}

func (timeRepair) Name() string { return "time_based" }

func (timeRepair) Repair(st *State, pending []int) {
	list := pendingShipments(st, pending)
	slack := make(map[int]int, len(list))
	for _, sh := range list {
		s := sh.Due - sh.Ready
		if cands := st.finder.Candidates(sh, st.flights, 1); len(cands) > 0 {
			s = margin(sh, cands[0])
		}
		slack[sh.ID] = s
	}
	sort.SliceStable(list, func(i, j int) bool {
		si, sj := slack[list[i].ID], slack[list[j].ID]
		if si != sj {
			return si < sj
		}
		return shipmentLess(list[i], list[j])
	})
	for _, sh := range list {
		st.insert(sh, byMargin)
	}
}

// byMargin prefers earlier arrival, i.e. the largest margin.
func byMargin(sh *Shipment, cands []model.Route) {
	sort.SliceStable(cands, func(i, j int) bool { return margin(sh, cands[i]) > margin(sh, cands[j]) })
}

// capacityRepair places shipments where the most room is left, starting with
// those that have the most room overall.
type capacityRepair struct{}

func (capacityRepair) Name() string { return "capacity_based" }

func (capacityRepair) Repair(st *State, pending []int) {
	list := pendingShipments(st, pending)
	room := make(map[int]int, len(list))
	for _, sh := range list {
		best := -1
		for _, r := range st.finder.Candidates(sh, st.flights, st.cfg.CandidateLimit) {
			best = max(best, routeRoom(st.flights, r))
		}
		room[sh.ID] = best
	}
	sort.SliceStable(list, func(i, j int) bool {
		ri, rj := room[list[i].ID], room[list[j].ID]
		if ri != rj {
			return ri > rj
		}
		return shipmentLess(list[i], list[j])
	})
	rank := func(_ *Shipment, cands []model.Route) {
		sort.SliceStable(cands, func(i, j int) bool {
			return routeRoom(st.flights, cands[i]) > routeRoom(st.flights, cands[j])
		})
	}
	for _, sh := range list {
		st.insert(sh, rank)
	}
}

// routeRoom is the smallest remaining capacity along r.
func routeRoom(fl *FlightLedger, r model.Route) int {
	room := math.MaxInt32
	for _, fi := range r {
		room = min(room, fl.Remaining(fi))
	}
	return room
}
