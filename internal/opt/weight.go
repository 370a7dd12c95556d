package opt

import (
	"math"

	"morapack/internal/model"
)

// Breakdown is the solution weight together with the terms it was built from.
type Breakdown struct {
	Weight             float64 `json:"weight"`
	FullOrders         int     `json:"fullOrders"`
	TotalOrders        int     `json:"totalOrders"`
	AssignedUnits      int     `json:"assignedUnits"`
	TotalUnits         int     `json:"totalUnits"`
	AssignedShipments  int     `json:"assignedShipments"`
	UnassignedShipment int     `json:"unassignedShipments"`
	OnTimeRate         float64 `json:"onTimeRate"`
	AvgMarginHours     float64 `json:"avgMarginHours"`
	Continental        float64 `json:"continentalEfficiency"`
	FlightUtilisation  float64 `json:"flightUtilisation"`
	StoreUtilisation   float64 `json:"storeUtilisation"`
	AvgDeliveryHours   float64 `json:"avgDeliveryHours"`
	Complexity         float64 `json:"complexity"`
}

// Evaluate scores the current solution. Volume comes first: assigned
// shipments, fully served orders and assigned units. The quality terms
// (on-time rate, margin, routing efficiency and utilisation, minus penalties
// for slow and convoluted routes) are averages, and the on-time factors scale
// only them, so one more assigned shipment outweighs any quality swing under
// the default coefficients.
func (st *State) Evaluate() Breakdown {
	w := st.cfg.Weights
	sol := st.sol
	b := Breakdown{
		TotalOrders:        len(st.net.Shipments),
		TotalUnits:         st.net.TotalUnits(),
		AssignedShipments:  sol.AssignedCount(),
		UnassignedShipment: sol.UnassignedCount(),
	}

	perOrder := map[int]int{}
	var onTime, marginMin, deliveryMin, continental, complexity float64
	for _, id := range sol.assignedIDs() {
		sh, r := sol.Shipments[id], sol.Routes[id]
		q := sh.Qty()
		perOrder[sh.OrderID] += q
		b.AssignedUnits += q

		arr := sh.Ready
		if len(r) > 0 {
			arr = r.Arrival()
		}
		if arr <= sh.Due {
			onTime += float64(q)
		}
		marginMin += float64(q) * math.Min(float64(sh.Due-arr), w.MarginCapHours*60)
		deliveryMin += float64(q) * float64(arr-sh.Ready)
		continental += st.continentalEfficiency(sh, r)
		complexity += st.complexity(sh, r)
	}
	for orderID, units := range perOrder {
		if o := st.net.Order(orderID); o != nil && units >= o.Quantity() {
			b.FullOrders++
		}
	}

	if b.AssignedUnits > 0 {
		u := float64(b.AssignedUnits)
		b.OnTimeRate = onTime / u
		b.AvgMarginHours = marginMin / u / 60
		b.AvgDeliveryHours = deliveryMin / u / 60
	}
	if n := b.AssignedShipments; n > 0 {
		b.Continental = continental / float64(n)
		b.Complexity = complexity / float64(n)
	}
	b.FlightUtilisation = st.flights.Utilisation()
	b.StoreUtilisation = st.stores.PeakUtilisation()

	marginScore := 0.0
	if w.MarginCapHours > 0 {
		marginScore = math.Max(0, b.AvgMarginHours) / w.MarginCapHours
	}
	volume := w.Shipment*float64(b.AssignedShipments) +
		w.Order*float64(b.FullOrders) +
		w.Unit*float64(b.AssignedUnits)
	quality := w.OnTime*b.OnTimeRate +
		w.Margin*marginScore +
		w.Continental*b.Continental +
		w.FlightUtilisation*b.FlightUtilisation +
		w.StoreUtilisation*b.StoreUtilisation -
		w.DeliveryHour*b.AvgDeliveryHours -
		w.Complexity*b.Complexity

	if quality > 0 && b.AssignedUnits > 0 {
		switch {
		case b.OnTimeRate < w.LowOnTimeRate:
			quality *= w.LowOnTimeFactor
		case b.OnTimeRate >= w.HighOnTimeRate:
			quality *= w.HighOnTimeFactor
		}
	}
	weight := volume + quality
	if weight > 0 && b.AssignedUnits > 0 {
		if w.VolumeBonusUnits > 0 && b.AssignedUnits > w.VolumeBonusUnits {
			weight *= w.VolumeBonusFactor
		}
	}
	b.Weight = weight
	return b
}

// continentalEfficiency is 1 for a route that uses the expected number of
// legs and no more than the expected airborne time, and decays otherwise.
func (st *State) continentalEfficiency(sh *Shipment, r model.Route) float64 {
	if len(r) == 0 {
		return 1
	}
	eff := 1.0
	if extra := len(r) - sh.expectedHops(); extra > 0 {
		eff /= float64(1 + extra)
	}
	expected := st.cfg.SameContinentFlightHours
	if !sh.SameContinent() {
		expected = st.cfg.CrossContinentFlightHours
	}
	if hours := float64(r.FlightMinutes()) / 60; hours > expected && hours > 0 {
		eff *= expected / hours
	}
	return eff
}

// complexity counts legs beyond the expected number and, on multi-leg routes,
// legs that fly nearly empty.
func (st *State) complexity(sh *Shipment, r model.Route) float64 {
	c := float64(max(0, len(r)-sh.expectedHops()))
	if len(r) > 1 {
		low := 0
		for _, fi := range r {
			if st.flights.loadFactor(fi) < st.cfg.Weights.LowUtilisation {
				low++
			}
		}
		c += 0.5 * float64(low) / float64(len(r))
	}
	return c
}
