package opt

import (
	"fmt"

	"morapack/internal/model"
)

// FlightLedger tracks used capacity per flight instance. It is derived state:
// Rebuild recomputes it from a solution and is the source of truth after any
// rollback.
type FlightLedger struct {
	instances []*model.FlightInstance
	used      []int32
}

func NewFlightLedger(n *Network) *FlightLedger {
	return &FlightLedger{instances: n.Instances, used: make([]int32, len(n.Instances))}
}

func (l *FlightLedger) Used(fi *model.FlightInstance) int { return int(l.used[fi.Index]) }

func (l *FlightLedger) Remaining(fi *model.FlightInstance) int {
	return fi.Capacity() - int(l.used[fi.Index])
}

// CanReserve reports whether every leg of r has room for qty more units.
func (l *FlightLedger) CanReserve(r model.Route, qty int) bool {
	for _, fi := range r {
		if l.Remaining(fi) < qty {
			return false
		}
	}
	return true
}

// Reserve charges qty units on every leg, or nothing if any leg is full.
func (l *FlightLedger) Reserve(r model.Route, qty int) bool {
	if !l.CanReserve(r, qty) {
		return false
	}
	for _, fi := range r {
		l.used[fi.Index] += int32(qty)
	}
	return true
}

func (l *FlightLedger) Release(r model.Route, qty int) {
	for _, fi := range r {
		l.used[fi.Index] -= int32(qty)
		if l.used[fi.Index] < 0 {
			panic(fmt.Sprintf("flight ledger: negative load on %s", fi.ID()))
		}
	}
}

func (l *FlightLedger) Reset() {
	clear(l.used)
}

// Rebuild replays the solution from zero. Loads are charged without capacity
// checks so the counters reflect the solution even if it is infeasible;
// Validate reports that case.
func (l *FlightLedger) Rebuild(s *Solution) {
	l.Reset()
	for _, id := range s.assignedIDs() {
		sh := s.Shipments[id]
		for _, fi := range s.Routes[id] {
			l.used[fi.Index] += int32(sh.Qty())
		}
	}
}

// Validate checks used <= capacity on every instance.
func (l *FlightLedger) Validate() error {
	for i, u := range l.used {
		fi := l.instances[i]
		if int(u) > fi.Capacity() {
			return fmt.Errorf("flight %s over capacity: %d > %d", fi.ID(), u, fi.Capacity())
		}
	}
	return nil
}

func (l *FlightLedger) Snapshot() []int32 {
	return append([]int32(nil), l.used...)
}

// Restore reinstates a snapshot. A snapshot of another shape means the
// capacity state can no longer be trusted, so it panics.
func (l *FlightLedger) Restore(snap []int32) {
	if len(snap) != len(l.used) {
		panic(fmt.Sprintf("flight ledger: restore size mismatch %d != %d", len(snap), len(l.used)))
	}
	copy(l.used, snap)
}

// Utilisation is the mean load factor over instances carrying anything.
func (l *FlightLedger) Utilisation() float64 {
	sum, n := 0.0, 0
	for i, u := range l.used {
		if u == 0 {
			continue
		}
		if c := l.instances[i].Capacity(); c > 0 {
			sum += float64(u) / float64(c)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// loadFactor is the load factor of one instance.
func (l *FlightLedger) loadFactor(fi *model.FlightInstance) float64 {
	if fi.Capacity() <= 0 {
		return 1
	}
	return float64(l.used[fi.Index]) / float64(fi.Capacity())
}

func (l *FlightLedger) equal(other *FlightLedger) bool {
	if len(l.used) != len(other.used) {
		return false
	}
	for i := range l.used {
		if l.used[i] != other.used[i] {
			return false
		}
	}
	return true
}
