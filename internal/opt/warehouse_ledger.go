package opt

import (
	"fmt"

	"morapack/internal/model"
)

// WarehouseLedger is the minute-by-minute occupancy of every airport
// warehouse over the horizon.
type WarehouseLedger struct {
	minutes    int
	processing int
	pickup     int
	caps       []int32
	occ        [][]int32
}

// WarehouseSnapshot is a deep copy of the occupancy arrays.
type WarehouseSnapshot [][]int32

type interval struct {
	airport    int
	start, end int
}

func NewWarehouseLedger(n *Network) *WarehouseLedger {
	l := &WarehouseLedger{
		minutes:    n.Minutes,
		processing: n.Config.ProcessingMinutes,
		pickup:     n.Config.PickupMinutes,
		caps:       make([]int32, len(n.Airports)),
		occ:        make([][]int32, len(n.Airports)),
	}
	for i, a := range n.Airports {
		l.caps[i] = int32(a.Warehouse.Capacity)
		l.occ[i] = make([]int32, n.Minutes)
	}
	return l
}

func (l *WarehouseLedger) clamp(start, end int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > l.minutes {
		end = l.minutes
	}
	return start, end
}

// AddOccupancy charges qty units on [start, start+duration). It changes
// nothing and returns false when any minute would exceed capacity. Minutes
// outside the horizon are ignored.
func (l *WarehouseLedger) AddOccupancy(airport, start, duration, qty int) bool {
	s, e := l.clamp(start, start+duration)
	if s >= e {
		return true
	}
	row, limit := l.occ[airport], l.caps[airport]-int32(qty)
	for m := s; m < e; m++ {
		if row[m] > limit {
			return false
		}
	}
	for m := s; m < e; m++ {
		row[m] += int32(qty)
	}
	return true
}

func (l *WarehouseLedger) RemoveOccupancy(airport, start, duration, qty int) {
	s, e := l.clamp(start, start+duration)
	row := l.occ[airport]
	for m := s; m < e; m++ {
		row[m] -= int32(qty)
		if row[m] < 0 {
			panic(fmt.Sprintf("warehouse ledger: negative occupancy at airport %d minute %d", airport, m))
		}
	}
}

func (l *WarehouseLedger) forceAdd(iv interval, qty int) {
	s, e := l.clamp(iv.start, iv.end)
	row := l.occ[iv.airport]
	for m := s; m < e; m++ {
		row[m] += int32(qty)
	}
}

// flowIntervals lists where a shipment sits while following r: pre-departure
// processing at the origin, the dwell between arrival and next departure at
// each connection, and the customer pickup window at the destination. An
// empty route only charges the pickup window where the shipment already is.
func (l *WarehouseLedger) flowIntervals(sh *Shipment, r model.Route) []interval {
	if len(r) == 0 {
		return []interval{{airport: sh.Dest.Index, start: sh.Ready, end: sh.Ready + l.pickup}}
	}
	out := make([]interval, 0, len(r)+1)
	dep := r[0].Departure
	start := dep - l.processing
	if start < sh.Ready {
		start = sh.Ready
	}
	out = append(out, interval{airport: r[0].Origin().Index, start: start, end: dep})
	for i := 0; i+1 < len(r); i++ {
		out = append(out, interval{airport: r[i].Destination().Index, start: r[i].Arrival, end: r[i+1].Departure})
	}
	last := r[len(r)-1]
	out = append(out, interval{airport: last.Destination().Index, start: last.Arrival, end: last.Arrival + l.pickup})
	return out
}

// SimulatePackageFlow charges every warehouse stop of r and fails fast on the
// first capacity violation, undoing whatever it charged before.
func (l *WarehouseLedger) SimulatePackageFlow(sh *Shipment, r model.Route) bool {
	ivs := l.flowIntervals(sh, r)
	for i, iv := range ivs {
		if !l.AddOccupancy(iv.airport, iv.start, iv.end-iv.start, sh.Qty()) {
			for j := i - 1; j >= 0; j-- {
				l.RemoveOccupancy(ivs[j].airport, ivs[j].start, ivs[j].end-ivs[j].start, sh.Qty())
			}
			return false
		}
	}
	return true
}

// RemovePackageFlow releases what SimulatePackageFlow charged.
func (l *WarehouseLedger) RemovePackageFlow(sh *Shipment, r model.Route) {
	for _, iv := range l.flowIntervals(sh, r) {
		l.RemoveOccupancy(iv.airport, iv.start, iv.end-iv.start, sh.Qty())
	}
}

func (l *WarehouseLedger) Reset() {
	for _, row := range l.occ {
		clear(row)
	}
}

// Rebuild replays the solution from zero without capacity checks.
func (l *WarehouseLedger) Rebuild(s *Solution) {
	l.Reset()
	for _, id := range s.assignedIDs() {
		sh := s.Shipments[id]
		for _, iv := range l.flowIntervals(sh, s.Routes[id]) {
			l.forceAdd(iv, sh.Qty())
		}
	}
}

// IsTemporalSolutionValid replays the whole solution into an empty ledger
// with capacity checks. It does not touch the receiver's counters and is the
// oracle incremental bookkeeping is measured against.
func (l *WarehouseLedger) IsTemporalSolutionValid(s *Solution) bool {
	fresh := &WarehouseLedger{
		minutes:    l.minutes,
		processing: l.processing,
		pickup:     l.pickup,
		caps:       l.caps,
		occ:        make([][]int32, len(l.occ)),
	}
	for i := range fresh.occ {
		fresh.occ[i] = make([]int32, l.minutes)
	}
	for _, id := range s.assignedIDs() {
		if !fresh.SimulatePackageFlow(s.Shipments[id], s.Routes[id]) {
			return false
		}
	}
	return true
}

// Validate checks every minute of every airport against its capacity.
func (l *WarehouseLedger) Validate() error {
	for a, row := range l.occ {
		for m, v := range row {
			if v > l.caps[a] {
				return fmt.Errorf("warehouse %d over capacity at minute %d: %d > %d", a, m, v, l.caps[a])
			}
		}
	}
	return nil
}

func (l *WarehouseLedger) Occupancy(airport, minute int) int {
	if minute < 0 || minute >= l.minutes {
		return 0
	}
	return int(l.occ[airport][minute])
}

// Peak is the highest occupancy an airport reaches over the horizon.
func (l *WarehouseLedger) Peak(airport int) int {
	var peak int32
	for _, v := range l.occ[airport] {
		if v > peak {
			peak = v
		}
	}
	return int(peak)
}

// PeakUtilisation averages peak/capacity over airports that store anything.
func (l *WarehouseLedger) PeakUtilisation() float64 {
	sum, n := 0.0, 0
	for a := range l.occ {
		if l.caps[a] <= 0 {
			continue
		}
		if p := l.Peak(a); p > 0 {
			sum += float64(p) / float64(l.caps[a])
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func (l *WarehouseLedger) Snapshot() WarehouseSnapshot {
	snap := make(WarehouseSnapshot, len(l.occ))
	for i, row := range l.occ {
		snap[i] = append([]int32(nil), row...)
	}
	return snap
}

// Restore reinstates a snapshot and panics if its shape differs.
func (l *WarehouseLedger) Restore(snap WarehouseSnapshot) {
	if len(snap) != len(l.occ) {
		panic(fmt.Sprintf("warehouse ledger: restore size mismatch %d != %d airports", len(snap), len(l.occ)))
	}
	for i, row := range snap {
		if len(row) != len(l.occ[i]) {
			panic(fmt.Sprintf("warehouse ledger: restore size mismatch at airport %d: %d != %d", i, len(row), len(l.occ[i])))
		}
		copy(l.occ[i], row)
	}
}

func (l *WarehouseLedger) equal(other *WarehouseLedger) bool {
	if len(l.occ) != len(other.occ) {
		return false
	}
	for i := range l.occ {
		for m := range l.occ[i] {
			if l.occ[i][m] != other.occ[i][m] {
				return false
			}
		}
	}
	return true
}
