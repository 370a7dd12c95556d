package opt

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"morapack/internal/model"
)

var (
	ErrUnknownOrder   = errors.New("unknown order")
	ErrUnknownProduct = errors.New("unknown product")
	ErrAlreadySplit   = errors.New("order already split")
	ErrInvalidSplit   = errors.New("invalid split quantity")
)

// ProductTracker follows individual product units: which route each one
// rides and its status. It mirrors a solver solution at product granularity
// and writes back into the order model only on Publish.
type ProductTracker struct {
	orders   map[int]*model.Order
	products map[int]*model.Product
	routes   map[int]model.Route
	status   map[int]model.ProductStatus
	split    map[int][2][]int
}

func NewProductTracker(orders []*model.Order) *ProductTracker {
	t := &ProductTracker{
		orders:   make(map[int]*model.Order, len(orders)),
		products: map[int]*model.Product{},
		routes:   map[int]model.Route{},
		status:   map[int]model.ProductStatus{},
		split:    map[int][2][]int{},
	}
	for _, o := range orders {
		t.orders[o.ID] = o
		for _, p := range o.Products {
			t.products[p.ID] = p
			t.status[p.ID] = model.NotAssigned
		}
	}
	return t
}

// TrackSolution syncs the tracker with s. Orders routed whole are assigned
// in one go. Split orders are partitioned through SplitOrder and each half is
// assigned unit by unit. Units s leaves unrouted end up NotAssigned.
func (t *ProductTracker) TrackSolution(s *Solution) error {
	for pid := range t.products {
		t.Unassign(pid)
	}
	ids := make([]int, 0, len(s.Shipments))
	for id := range s.Shipments {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		sh := s.Shipments[id]
		if sh.ParentID != 0 {
			if err := t.trackHalf(sh); err != nil {
				return fmt.Errorf("shipment %d: %w", id, err)
			}
		}
		r, ok := s.Routes[id]
		if !ok {
			continue
		}
		if sh.ParentID == 0 {
			if err := t.AssignOrderToRoute(sh.OrderID, r); err != nil {
				return fmt.Errorf("shipment %d: %w", id, err)
			}
			continue
		}
		for _, pid := range sh.Units {
			if err := t.AssignProductToRoute(pid, r); err != nil {
				return fmt.Errorf("shipment %d: %w", id, err)
			}
		}
	}
	return nil
}

// trackHalf records the split of sh's order on first sight and checks that
// sh carries exactly one of the two halves.
func (t *ProductTracker) trackHalf(sh *Shipment) error {
	halves, done := t.split[sh.OrderID]
	if !done {
		o, ok := t.orders[sh.OrderID]
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownOrder, sh.OrderID)
		}
		first, rest, err := t.SplitOrder(o.ID, halfOf(len(o.Products)))
		if err != nil {
			return err
		}
		halves = [2][]int{first, rest}
	}
	if !slices.Equal(sh.Units, halves[0]) && !slices.Equal(sh.Units, halves[1]) {
		return fmt.Errorf("%w: shipment units are not a half of order %d", ErrInvalidSplit, sh.OrderID)
	}
	return nil
}

// AssignOrderToRoute puts every unassigned unit of an order on r.
func (t *ProductTracker) AssignOrderToRoute(orderID int, r model.Route) error {
	o, ok := t.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownOrder, orderID)
	}
	for _, p := range o.Products {
		if t.status[p.ID] == model.NotAssigned {
			t.routes[p.ID] = r
			t.status[p.ID] = model.Assigned
		}
	}
	return nil
}

func (t *ProductTracker) AssignProductToRoute(productID int, r model.Route) error {
	if _, ok := t.products[productID]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownProduct, productID)
	}
	t.routes[productID] = r
	t.status[productID] = model.Assigned
	return nil
}

func (t *ProductTracker) Unassign(productID int) {
	if _, ok := t.products[productID]; !ok {
		return
	}
	delete(t.routes, productID)
	t.status[productID] = model.NotAssigned
}

// SplitOrder partitions an order's units into the first q and the rest.
// An order can be split once.
func (t *ProductTracker) SplitOrder(orderID, q int) ([]int, []int, error) {
	o, ok := t.orders[orderID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownOrder, orderID)
	}
	if _, done := t.split[orderID]; done {
		return nil, nil, fmt.Errorf("%w: %d", ErrAlreadySplit, orderID)
	}
	if q <= 0 || q >= len(o.Products) {
		return nil, nil, fmt.Errorf("%w: %d of %d", ErrInvalidSplit, q, len(o.Products))
	}
	ids := make([]int, len(o.Products))
	for i, p := range o.Products {
		ids[i] = p.ID
	}
	first, rest := partition(ids, q)
	t.split[orderID] = [2][]int{first, rest}
	return first, rest, nil
}

// ProductSolution maps every routed product to its route.
func (t *ProductTracker) ProductSolution() map[int]model.Route {
	out := make(map[int]model.Route, len(t.routes))
	for id, r := range t.routes {
		out[id] = r
	}
	return out
}

func (t *ProductTracker) RouteFor(productID int) (model.Route, bool) {
	r, ok := t.routes[productID]
	return r, ok
}

func (t *ProductTracker) Status(productID int) model.ProductStatus {
	return t.status[productID]
}

// OrderStatus is the weakest status among the order's units.
func (t *ProductTracker) OrderStatus(orderID int) model.ProductStatus {
	o, ok := t.orders[orderID]
	if !ok || len(o.Products) == 0 {
		return model.NotAssigned
	}
	st := model.Delivered
	for _, p := range o.Products {
		st = min(st, t.status[p.ID])
	}
	return st
}

// AssignedOrders counts orders whose every unit has a route.
func (t *ProductTracker) AssignedOrders() int {
	n := 0
	for id := range t.orders {
		if t.OrderStatus(id) != model.NotAssigned {
			n++
		}
	}
	return n
}

// Publish writes statuses and routes into the order model.
func (t *ProductTracker) Publish() {
	ids := make([]int, 0, len(t.products))
	for id := range t.products {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		p := t.products[id]
		r, _ := t.RouteFor(id)
		p.Status = t.status[id]
		p.Route = r.Clone()
	}
}
