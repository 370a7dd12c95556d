package opt

// improveRoutes moves each assigned shipment to a cheaper feasible route when
// one exists, one shipment at a time. It reports whether anything moved.
func improveRoutes(st *State) bool {
	moved := false
	for _, id := range st.sol.assignedIDs() {
		sh, old := st.sol.Shipments[id], st.sol.Routes[id]
		if len(old) == 0 {
			continue
		}
		oldCost := st.finder.cost(sh, old)
		st.release(id)
		placed := false
		for _, r := range st.finder.Candidates(sh, st.flights, st.cfg.CandidateLimit) {
			if st.finder.cost(sh, r) >= oldCost {
				break
			}
			if st.commit(sh, r) {
				placed, moved = true, true
				break
			}
		}
		if !placed && !st.commit(sh, old) {
			panic("improve routes: released route no longer fits")
		}
	}
	if moved {
		st.pool.Rebuild(st.sol)
	}
	return moved
}
