package model

import "strings"

// Route is an ordered sequence of flight instances. An empty route means the
// package is already at its destination.
type Route []*FlightInstance

func (r Route) Hops() int { return len(r) }

func (r Route) Origin() *Airport {
	if len(r) == 0 {
		return nil
	}
	return r[0].Origin()
}

func (r Route) Destination() *Airport {
	if len(r) == 0 {
		return nil
	}
	return r[len(r)-1].Destination()
}

func (r Route) Departure() int {
	if len(r) == 0 {
		return 0
	}
	return r[0].Departure
}

func (r Route) Arrival() int {
	if len(r) == 0 {
		return 0
	}
	return r[len(r)-1].Arrival
}

// FlightMinutes sums the airborne time of every leg.
func (r Route) FlightMinutes() int {
	total := 0
	for _, fi := range r {
		total += fi.Flight.DurationMinutes
	}
	return total
}

// Key identifies the route by its instance ids.
func (r Route) Key() string {
	if len(r) == 0 {
		return ""
	}
	ids := make([]string, len(r))
	for i, fi := range r {
		ids[i] = fi.ID()
	}
	return strings.Join(ids, ">")
}

// FlightIDs lists instance ids in travel order.
func (r Route) FlightIDs() []string {
	out := make([]string, len(r))
	for i, fi := range r {
		out[i] = fi.ID()
	}
	return out
}

func (r Route) Clone() Route {
	if r == nil {
		return nil
	}
	return append(Route(nil), r...)
}
