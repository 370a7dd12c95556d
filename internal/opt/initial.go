package opt

import "morapack/internal/model"

// buildInitial assigns shipments in pool order. Greedy draws each route with
// probability proportional to its margin; random gives a share of shipments a
// uniformly random candidate instead.
func (st *State) buildInitial(strategy string) {
	rng := st.ctx.RNG
	for _, sh := range st.unassigned() {
		rank := st.marginFirst
		if strategy == InitialRandom && rng.Float64() < st.cfg.RandomAssignProbability {
			rank = st.shuffled
		}
		st.insert(sh, rank)
	}
	st.rebuild()
}

// marginFirst moves a margin-weighted draw to the front, keeping the rest in
// cost order as fallbacks.
func (st *State) marginFirst(sh *Shipment, cands []model.Route) {
	if len(cands) < 2 {
		return
	}
	i := st.finder.pickByMargin(sh, cands)
	cands[0], cands[i] = cands[i], cands[0]
}

func (st *State) shuffled(_ *Shipment, cands []model.Route) {
	st.ctx.RNG.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })
}
