package opt

import "morapack/internal/model"

// Shipment is the unit the search schedules: some or all product units of
// one order that travel together on one route. Every order starts as a single
// shipment; when no route can carry it whole it may be split once into two
// halves that are routed independently.
type Shipment struct {
	ID       int
	OrderID  int
	Units    []int
	Origin   *model.Airport
	Dest     *model.Airport
	Ready    int // horizon minute the units are available at Origin
	Due      int // latest arrival minute
	Promise  int // minutes
	Priority float64
	ParentID int
}

func (s *Shipment) Qty() int { return len(s.Units) }

// CanSplit reports whether the shipment may still be halved.
func (s *Shipment) CanSplit() bool { return s.ParentID == 0 && len(s.Units) >= 2 }

func (s *Shipment) SameContinent() bool { return model.SameContinent(s.Origin, s.Dest) }

// expectedHops is the number of legs a well-routed shipment should need.
func (s *Shipment) expectedHops() int {
	if s.SameContinent() {
		return 1
	}
	return 2
}

func (s *Shipment) child(id int, units []int) *Shipment {
	c := *s
	c.ID = id
	c.Units = units
	c.ParentID = s.ID
	return &c
}

// shipmentLess orders shipments by deadline, then priority (higher first),
// then id.
func shipmentLess(a, b *Shipment) bool {
	if a.Due != b.Due {
		return a.Due < b.Due
	}
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.ID < b.ID
}
