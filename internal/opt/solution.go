package opt

import (
	"sort"

	"morapack/internal/model"
)

// Solution maps shipment ids to their routes. Shipments holds every live
// shipment, assigned or not; splits replace a parent with its two halves.
type Solution struct {
	Routes    map[int]model.Route
	Shipments map[int]*Shipment
	Weight    float64
}

func newSolution(shipments []*Shipment) *Solution {
	s := &Solution{
		Routes:    make(map[int]model.Route, len(shipments)),
		Shipments: make(map[int]*Shipment, len(shipments)),
	}
	for _, sh := range shipments {
		s.Shipments[sh.ID] = sh
	}
	return s
}

// clone copies both maps. Routes and shipments themselves are never mutated
// after creation, so they are shared.
func (s *Solution) clone() *Solution {
	c := &Solution{
		Routes:    make(map[int]model.Route, len(s.Routes)),
		Shipments: make(map[int]*Shipment, len(s.Shipments)),
		Weight:    s.Weight,
	}
	for k, v := range s.Routes {
		c.Routes[k] = v
	}
	for k, v := range s.Shipments {
		c.Shipments[k] = v
	}
	return c
}

func (s *Solution) IsAssigned(id int) bool {
	_, ok := s.Routes[id]
	return ok
}

func (s *Solution) Route(id int) (model.Route, bool) {
	r, ok := s.Routes[id]
	return r, ok
}

func (s *Solution) assignedIDs() []int {
	ids := make([]int, 0, len(s.Routes))
	for id := range s.Routes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *Solution) unassignedIDs() []int {
	ids := make([]int, 0, len(s.Shipments)-len(s.Routes))
	for id := range s.Shipments {
		if _, ok := s.Routes[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

func (s *Solution) AssignedUnits() int {
	n := 0
	for id := range s.Routes {
		n += s.Shipments[id].Qty()
	}
	return n
}

func (s *Solution) AssignedCount() int   { return len(s.Routes) }
func (s *Solution) UnassignedCount() int { return len(s.Shipments) - len(s.Routes) }
