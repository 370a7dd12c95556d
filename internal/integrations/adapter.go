package integrations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"morapack/internal/model"
)

// InputDataSource provides the reference data of one planning run.
// Flights and orders reference airports returned by LoadAirports.
type InputDataSource interface {
	Name() string
	LoadAirports(ctx context.Context) ([]*model.Airport, error)
	LoadFlights(ctx context.Context, airports []*model.Airport) ([]*model.Flight, error)
	LoadOrders(ctx context.Context, airports []*model.Airport, window Window) ([]*model.Order, error)
}

// Window bounds order creation times. A zero bound is open.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && !t.Before(w.To) {
		return false
	}
	return true
}

// Dataset is everything a source loaded for one run.
type Dataset struct {
	Source   string
	Airports []*model.Airport
	Flights  []*model.Flight
	Orders   []*model.Order
}

// Load reads airports, then flights and orders against them.
func Load(ctx context.Context, src InputDataSource, window Window) (*Dataset, error) {
	airports, err := src.LoadAirports(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: load airports: %w", src.Name(), err)
	}
	flights, err := src.LoadFlights(ctx, airports)
	if err != nil {
		return nil, fmt.Errorf("%s: load flights: %w", src.Name(), err)
	}
	orders, err := src.LoadOrders(ctx, airports, window)
	if err != nil {
		return nil, fmt.Errorf("%s: load orders: %w", src.Name(), err)
	}
	return &Dataset{Source: src.Name(), Airports: airports, Flights: flights, Orders: orders}, nil
}

// ByIATA indexes airports by upper-case IATA code.
func ByIATA(airports []*model.Airport) map[string]*model.Airport {
	out := make(map[string]*model.Airport, len(airports))
	for _, a := range airports {
		out[strings.ToUpper(a.IATA)] = a
	}
	return out
}

// Units counts product units over all orders.
func (d *Dataset) Units() int {
	n := 0
	for _, o := range d.Orders {
		n += o.Quantity()
	}
	return n
}
