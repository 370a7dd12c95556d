package opt

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Report is the externally visible outcome of a run.
type Report struct {
	RunID        string              `json:"runId"`
	Dataset      string              `json:"dataset"`
	CreatedAt    time.Time           `json:"createdAt"`
	HorizonStart time.Time           `json:"horizonStart"`
	HorizonDays  int                 `json:"horizonDays"`
	Assigned     int                 `json:"assigned"`
	FullOrders   int                 `json:"fullOrders"`
	Unassigned   int                 `json:"unassigned"`
	Breakdown    Breakdown           `json:"breakdown"`
	Metrics      Metrics             `json:"metrics"`
	Shipments    []ShipmentRoute     `json:"shipments"`
	Pending      []PendingShipment   `json:"pending"`
	Products     map[string][]string `json:"products"`
	OrderStatus  map[string]string   `json:"orderStatus"`
}

// ShipmentRoute is one routed shipment with its flight instance ids.
type ShipmentRoute struct {
	ShipmentID  int       `json:"shipmentId"`
	OrderID     int       `json:"orderId"`
	Units       int       `json:"units"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Flights     []string  `json:"flights"`
	Departure   time.Time `json:"departure,omitzero"`
	Arrival     time.Time `json:"arrival,omitzero"`
	Due         time.Time `json:"due"`
}

type PendingShipment struct {
	ShipmentID int       `json:"shipmentId"`
	OrderID    int       `json:"orderId"`
	Units      int       `json:"units"`
	Due        time.Time `json:"due"`
}

// NewReport renders a run result and publishes the product routes onto the
// network's orders. Products maps product ids to the flight instance ids they
// ride, in travel order. An empty runID gets a fresh uuid.
func NewReport(runID, dataset string, res *Result) (*Report, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	n, sol := res.Network, res.Solution
	tracker := NewProductTracker(n.Orders)
	if err := tracker.TrackSolution(sol); err != nil {
		return nil, fmt.Errorf("track solution: %w", err)
	}
	tracker.Publish()
	rep := &Report{
		RunID:        runID,
		Dataset:      dataset,
		CreatedAt:    time.Now().UTC(),
		HorizonStart: n.Start,
		HorizonDays:  n.Config.HorizonDays,
		Assigned:     sol.AssignedCount(),
		FullOrders:   tracker.AssignedOrders(),
		Unassigned:   sol.UnassignedCount(),
		Breakdown:    res.Breakdown,
		Metrics:      res.Metrics,
		Products:     map[string][]string{},
		OrderStatus:  make(map[string]string, len(n.Orders)),
	}
	for _, id := range sol.assignedIDs() {
		sh, r := sol.Shipments[id], sol.Routes[id]
		sr := ShipmentRoute{
			ShipmentID:  id,
			OrderID:     sh.OrderID,
			Units:       sh.Qty(),
			Origin:      sh.Origin.IATA,
			Destination: sh.Dest.IATA,
			Flights:     r.FlightIDs(),
			Due:         n.Time(sh.Due),
		}
		if len(r) > 0 {
			sr.Departure = n.Time(r.Departure())
			sr.Arrival = n.Time(r.Arrival())
		}
		rep.Shipments = append(rep.Shipments, sr)
	}
	for _, id := range sol.unassignedIDs() {
		sh := sol.Shipments[id]
		rep.Pending = append(rep.Pending, PendingShipment{ShipmentID: id, OrderID: sh.OrderID, Units: sh.Qty(), Due: n.Time(sh.Due)})
	}
	sort.Slice(rep.Pending, func(i, j int) bool { return rep.Pending[i].ShipmentID < rep.Pending[j].ShipmentID })
	for pid, r := range tracker.ProductSolution() {
		rep.Products[fmt.Sprint(pid)] = r.FlightIDs()
	}
	for _, o := range n.Orders {
		rep.OrderStatus[fmt.Sprint(o.ID)] = tracker.OrderStatus(o.ID).String()
	}
	return rep, nil
}
