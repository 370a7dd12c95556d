package opt

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"morapack/internal/model"
)

var (
	ErrNoAirports = errors.New("no airports loaded")
	ErrNoFlights  = errors.New("no flights loaded")
	ErrNoOrders   = errors.New("no orders loaded")
)

type pairKey struct{ from, to int }

// Network is the read-only search space of a data load: airports, the flight
// schedule expanded into dated instances over the horizon, and one initial
// shipment per order. Several solvers may share one Network.
type Network struct {
	Config    Config
	Start     time.Time
	Minutes   int
	Airports  []*model.Airport
	Flights   []*model.Flight
	Instances []*model.FlightInstance
	Orders    []*model.Order
	Shipments []*Shipment

	byOrigin    [][]*model.FlightInstance
	byPair      map[pairKey][]*model.FlightInstance
	cityAirport map[int]*model.Airport
	orderByID   map[int]*model.Order
	hubs        []bool
	totalUnits  int
}

// NewNetwork indexes the loaded data. It fails fast when any of the inputs is
// empty, since a search over nothing yields a meaningless solution.
func NewNetwork(airports []*model.Airport, flights []*model.Flight, orders []*model.Order, cfg Config) (*Network, error) {
	switch {
	case len(airports) == 0:
		return nil, ErrNoAirports
	case len(flights) == 0:
		return nil, ErrNoFlights
	case len(orders) == 0:
		return nil, ErrNoOrders
	}
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("network config: %w", err)
	}

	n := &Network{
		Config:      cfg,
		Airports:    airports,
		Flights:     flights,
		Orders:      orders,
		Minutes:     cfg.HorizonDays * model.MinutesPerDay,
		byOrigin:    make([][]*model.FlightInstance, len(airports)),
		byPair:      map[pairKey][]*model.FlightInstance{},
		cityAirport: map[int]*model.Airport{},
		orderByID:   map[int]*model.Order{},
		hubs:        make([]bool, len(airports)),
	}
	hq := map[string]bool{}
	for _, code := range cfg.HeadquartersIATA {
		hq[strings.ToUpper(code)] = true
	}
	for i, a := range airports {
		a.Index = i
		if a.City != nil {
			n.cityAirport[a.City.ID] = a
		}
		n.hubs[i] = hq[strings.ToUpper(a.IATA)]
	}

	n.Start = cfg.HorizonStart
	if n.Start.IsZero() {
		earliest := orders[0].Created
		for _, o := range orders[1:] {
			if o.Created.Before(earliest) {
				earliest = o.Created
			}
		}
		n.Start = earliest.UTC().Truncate(24 * time.Hour)
	}

	n.expandInstances()
	n.buildShipments()
	return n, nil
}

func (n *Network) expandInstances() {
	for day := 0; day < n.Config.HorizonDays; day++ {
		for _, f := range n.Flights {
			freq := f.Frequency
			if freq <= 0 {
				freq = 1
			}
			spacing := model.MinutesPerDay / freq
			for k := 0; k < freq; k++ {
				dep := day*model.MinutesPerDay + f.DepartureUTC() + k*spacing
				arr := dep + f.DurationMinutes
				if arr > n.Minutes {
					continue
				}
				n.Instances = append(n.Instances, &model.FlightInstance{
					Flight:    f,
					Day:       day + 1,
					Departure: dep,
					Arrival:   arr,
				})
			}
		}
	}
	sort.SliceStable(n.Instances, func(i, j int) bool {
		return n.Instances[i].Departure < n.Instances[j].Departure
	})
	for i, fi := range n.Instances {
		fi.Index = i
		o, d := fi.Origin().Index, fi.Destination().Index
		n.byOrigin[o] = append(n.byOrigin[o], fi)
		k := pairKey{o, d}
		n.byPair[k] = append(n.byPair[k], fi)
	}
}

func (n *Network) buildShipments() {
	id := 1
	for _, o := range n.Orders {
		n.orderByID[o.ID] = o
		if len(o.Products) == 0 {
			continue
		}
		ready := n.Minute(o.Created)
		promise := n.Config.promiseMinutes(model.SameContinent(o.Origin, o.Destination))
		due := ready + promise
		if !o.Deadline.IsZero() {
			if d := n.Minute(o.Deadline); d < due {
				due = d
			}
		}
		units := make([]int, len(o.Products))
		for i, p := range o.Products {
			units[i] = p.ID
		}
		n.Shipments = append(n.Shipments, &Shipment{
			ID:       id,
			OrderID:  o.ID,
			Units:    units,
			Origin:   o.Origin,
			Dest:     o.Destination,
			Ready:    ready,
			Due:      due,
			Promise:  promise,
			Priority: o.Priority,
		})
		n.totalUnits += len(units)
		id++
	}
}

// Minute converts a wall-clock instant into minutes from the horizon start.
func (n *Network) Minute(t time.Time) int {
	return int(t.Sub(n.Start) / time.Minute)
}

// Time converts a horizon minute back into a UTC instant.
func (n *Network) Time(minute int) time.Time {
	return n.Start.Add(time.Duration(minute) * time.Minute).UTC()
}

// Departures lists instances leaving an airport, ordered by departure.
func (n *Network) Departures(airport int) []*model.FlightInstance {
	return n.byOrigin[airport]
}

func (n *Network) pair(from, to int) []*model.FlightInstance {
	return n.byPair[pairKey{from, to}]
}

// AirportForCity resolves the airport serving a city.
func (n *Network) AirportForCity(cityID int) (*model.Airport, bool) {
	a, ok := n.cityAirport[cityID]
	return a, ok
}

func (n *Network) Order(id int) *model.Order { return n.orderByID[id] }

func (n *Network) IsHub(a *model.Airport) bool {
	return a != nil && a.Index < len(n.hubs) && n.hubs[a.Index]
}

func (n *Network) TotalUnits() int { return n.totalUnits }

// maxShipmentID is the largest id handed out to initial shipments.
func (n *Network) maxShipmentID() int {
	if len(n.Shipments) == 0 {
		return 0
	}
	return n.Shipments[len(n.Shipments)-1].ID
}
