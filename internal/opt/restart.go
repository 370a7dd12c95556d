package opt

import (
	"sort"

	"morapack/internal/metrics"
)

// Extreme restart strategies, applied in rotation.
const (
	restartRandom = "random_destroy"
	restartGreedy = "greedy_rebuild"
	restartHybrid = "hybrid"
)

var restartStrategies = []string{restartRandom, restartGreedy, restartHybrid}

// Sort keys rotated by successive greedy rebuilds.
var rebuildOrders = []func(a, b *Shipment) bool{
	shipmentLess,
	func(a, b *Shipment) bool {
		if a.Qty() != b.Qty() {
			return a.Qty() > b.Qty()
		}
		return a.ID < b.ID
	},
	func(a, b *Shipment) bool {
		if a.Promise != b.Promise {
			return a.Promise < b.Promise
		}
		return a.ID < b.ID
	},
}

// restart perturbs the current solution heavily and returns the strategy
// used; the n-th restart uses strategy n modulo three. The hybrid strategy
// keeps the 30% of the best solution's routes with the widest margins.
func (st *State) restart(n int, best *Solution) string {
	strategy := restartStrategies[n%len(restartStrategies)]
	st.validator.ClearCache()
	switch strategy {
	case restartRandom:
		ids := st.sol.assignedIDs()
		st.ctx.RNG.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		st.remove(ids[:len(ids)*8/10])
		greedyRepair{}.Repair(st, st.sol.unassignedIDs())

	case restartGreedy:
		st.remove(st.sol.assignedIDs())
		list := st.unassigned()
		less := rebuildOrders[(n/len(restartStrategies))%len(rebuildOrders)]
		sort.SliceStable(list, func(i, j int) bool { return less(list[i], list[j]) })
		for _, sh := range list {
			st.insert(sh, st.marginFirst)
		}

	case restartHybrid:
		st.adopt(best)
		ids := st.sol.assignedIDs()
		slack := func(id int) int { return margin(st.sol.Shipments[id], st.sol.Routes[id]) }
		sort.SliceStable(ids, func(i, j int) bool { return slack(ids[i]) > slack(ids[j]) })
		keep := len(ids) * 3 / 10
		st.remove(ids[keep:])
		regretRepair{k: st.cfg.RegretK}.Repair(st, st.sol.unassignedIDs())
	}
	st.rebuild()
	metrics.SolverRestarts.WithLabelValues(strategy).Inc()
	return strategy
}
