package opt

import (
	"sort"

	"go.uber.org/zap"

	"morapack/internal/model"
)

// State is one run's working solution together with the derived ledgers and
// the helpers that read them.
type State struct {
	net       *Network
	cfg       Config
	ctx       *SearchContext
	sol       *Solution
	flights   *FlightLedger
	stores    *WarehouseLedger
	pool      *UnassignedPool
	validator *Validator
	finder    *RouteFinder
	log       *zap.Logger
}

func newState(n *Network, ctx *SearchContext, log *zap.Logger) *State {
	if log == nil {
		log = zap.NewNop()
	}
	v := NewValidator(n, log)
	st := &State{
		net:       n,
		cfg:       n.Config,
		ctx:       ctx,
		sol:       newSolution(n.Shipments),
		flights:   NewFlightLedger(n),
		stores:    NewWarehouseLedger(n),
		pool:      NewUnassignedPool(),
		validator: v,
		finder:    NewRouteFinder(n, v, ctx),
		log:       log,
	}
	st.pool.Rebuild(st.sol)
	return st
}

type stateSnapshot struct {
	sol     *Solution
	flights []int32
	stores  WarehouseSnapshot
}

func (st *State) snapshot() stateSnapshot {
	return stateSnapshot{sol: st.sol.clone(), flights: st.flights.Snapshot(), stores: st.stores.Snapshot()}
}

func (st *State) restore(s stateSnapshot) {
	st.sol = s.sol.clone()
	st.flights.Restore(s.flights)
	st.stores.Restore(s.stores)
	st.pool.Rebuild(st.sol)
}

// rebuild recomputes every piece of derived state from the solution.
func (st *State) rebuild() {
	st.flights.Rebuild(st.sol)
	st.stores.Rebuild(st.sol)
	st.pool.Rebuild(st.sol)
}

// adopt replaces the solution and rebuilds derived state from it.
func (st *State) adopt(s *Solution) {
	st.sol = s.clone()
	st.rebuild()
}

// commit assigns r to sh if every leg and every warehouse stop still has
// room. Nothing changes when it returns false.
func (st *State) commit(sh *Shipment, r model.Route) bool {
	if !st.flights.CanReserve(r, sh.Qty()) {
		return false
	}
	if !st.stores.SimulatePackageFlow(sh, r) {
		return false
	}
	st.flights.Reserve(r, sh.Qty())
	st.sol.Routes[sh.ID] = r
	return true
}

// release unassigns one shipment and returns its capacity.
func (st *State) release(id int) {
	r, ok := st.sol.Routes[id]
	if !ok {
		return
	}
	sh := st.sol.Shipments[id]
	st.flights.Release(r, sh.Qty())
	st.stores.RemovePackageFlow(sh, r)
	delete(st.sol.Routes, id)
}

// remove unassigns a set of shipments and rebuilds the ledgers.
func (st *State) remove(ids []int) {
	for _, id := range ids {
		delete(st.sol.Routes, id)
	}
	st.rebuild()
}

// place commits sh on the first route of cands that fits.
func (st *State) place(sh *Shipment, cands []model.Route) bool {
	for _, r := range cands {
		if st.commit(sh, r) {
			return true
		}
	}
	return false
}

// insert looks for routes for sh and commits the first that fits after rank
// orders them (cheapest first when rank is nil). A shipment that fits nowhere
// whole is split and each half tried on its own.
func (st *State) insert(sh *Shipment, rank func(*Shipment, []model.Route)) bool {
	if st.insertWhole(sh, rank) {
		return true
	}
	return st.split(sh, rank)
}

func (st *State) insertWhole(sh *Shipment, rank func(*Shipment, []model.Route)) bool {
	cands := st.finder.Candidates(sh, st.flights, st.cfg.CandidateLimit)
	if rank != nil {
		rank(sh, cands)
	}
	return st.place(sh, cands)
}

// split halves an unassigned shipment and tries both halves. When neither
// half fits the parent is put back; a half that fits is kept and the other
// stays unassigned.
func (st *State) split(sh *Shipment, rank func(*Shipment, []model.Route)) bool {
	if !sh.CanSplit() || st.sol.IsAssigned(sh.ID) {
		return false
	}
	lo, hi := halve(sh.Units)
	a := sh.child(st.ctx.NextShipmentID(), lo)
	b := sh.child(st.ctx.NextShipmentID(), hi)
	delete(st.sol.Shipments, sh.ID)
	st.sol.Shipments[a.ID] = a
	st.sol.Shipments[b.ID] = b
	okA := st.insertWhole(a, rank)
	okB := st.insertWhole(b, rank)
	if okA || okB {
		return true
	}
	delete(st.sol.Shipments, a.ID)
	delete(st.sol.Shipments, b.ID)
	st.sol.Shipments[sh.ID] = sh
	return false
}

// halve splits units into floor(q/2) and the rest. ProductTracker.SplitOrder
// partitions orders the same way.
func halve(units []int) ([]int, []int) {
	return partition(units, halfOf(len(units)))
}

func halfOf(q int) int { return q / 2 }

// partition copies the first q units and the rest into two new slices.
func partition(units []int, q int) ([]int, []int) {
	lo := append([]int(nil), units[:q]...)
	hi := append([]int(nil), units[q:]...)
	return lo, hi
}

// unassigned lists unassigned shipments in pool order.
func (st *State) unassigned() []*Shipment {
	ids := st.sol.unassignedIDs()
	out := make([]*Shipment, len(ids))
	for i, id := range ids {
		out[i] = st.sol.Shipments[id]
	}
	sort.Slice(out, func(i, j int) bool { return shipmentLess(out[i], out[j]) })
	return out
}

// consistent reports whether the incremental ledgers match a replay of the
// solution.
func (st *State) consistent() bool {
	fl := NewFlightLedger(st.net)
	fl.Rebuild(st.sol)
	wl := NewWarehouseLedger(st.net)
	wl.Rebuild(st.sol)
	return fl.equal(st.flights) && wl.equal(st.stores)
}

func (st *State) Solution() *Solution { return st.sol }
