package opt

import "container/heap"

// UnassignedPool is a priority queue of shipments without a route, ordered by
// deadline, then priority, then id.
type UnassignedPool struct {
	items shipmentHeap
}

type shipmentHeap []*Shipment

func (h shipmentHeap) Len() int           { return len(h) }
func (h shipmentHeap) Less(i, j int) bool { return shipmentLess(h[i], h[j]) }
func (h shipmentHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *shipmentHeap) Push(x any)        { *h = append(*h, x.(*Shipment)) }
func (h *shipmentHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

func NewUnassignedPool() *UnassignedPool { return &UnassignedPool{} }

// Rebuild refills the pool with every unassigned shipment of s.
func (p *UnassignedPool) Rebuild(s *Solution) {
	p.items = p.items[:0]
	for _, id := range s.unassignedIDs() {
		p.items = append(p.items, s.Shipments[id])
	}
	heap.Init(&p.items)
}

func (p *UnassignedPool) Len() int { return p.items.Len() }

// Head returns up to n shipments in priority order, skipping ids in skip.
// The pool itself is left intact.
func (p *UnassignedPool) Head(n int, skip map[int]bool) []*Shipment {
	h := append(shipmentHeap(nil), p.items...)
	var out []*Shipment
	for h.Len() > 0 && len(out) < n {
		sh := heap.Pop(&h).(*Shipment)
		if !skip[sh.ID] {
			out = append(out, sh)
		}
	}
	return out
}
