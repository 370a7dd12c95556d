package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"morapack/internal/integrations"
	"morapack/internal/model"
	"morapack/internal/opt"
)

// Memory is an in-process store used when no DATABASE_URL is set. Flights
// and orders are re-bound to the airports the caller passes in, so every
// load returns an independent object graph.
type Memory struct {
	mu       sync.RWMutex
	airports []*model.Airport
	flights  []*model.Flight
	orders   []*model.Order
	reports  map[string]*opt.Report
}

func NewMemory() *Memory {
	return &Memory{reports: map[string]*opt.Report{}}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) ImportDataset(_ context.Context, ds *integrations.Dataset) error {
	if ds == nil {
		return fmt.Errorf("import: nil dataset")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.airports = ds.Airports
	m.flights = ds.Flights
	m.orders = ds.Orders
	return nil
}

func (m *Memory) LoadAirports(ctx context.Context) ([]*model.Airport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Airport, len(m.airports))
	for i, a := range m.airports {
		cp := *a
		if a.City != nil {
			city := *a.City
			cp.City = &city
		}
		out[i] = &cp
	}
	return out, nil
}

func (m *Memory) LoadFlights(ctx context.Context, airports []*model.Airport) ([]*model.Flight, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	byCode := integrations.ByIATA(airports)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Flight, 0, len(m.flights))
	for _, f := range m.flights {
		orig, dest, err := rebind(byCode, f.Origin, f.Destination)
		if err != nil {
			return nil, fmt.Errorf("flight %d: %w", f.ID, err)
		}
		nf := model.NewFlight(f.ID, orig, dest, f.DepartureLocal, f.ArrivalLocal, f.Capacity)
		nf.Frequency = f.Frequency
		out = append(out, nf)
	}
	return out, nil
}

func (m *Memory) LoadOrders(ctx context.Context, airports []*model.Airport, window integrations.Window) ([]*model.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	byCode := integrations.ByIATA(airports)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Order, 0, len(m.orders))
	for _, o := range m.orders {
		if !window.Contains(o.Created) {
			continue
		}
		orig, dest, err := rebind(byCode, o.Origin, o.Destination)
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", o.ID, err)
		}
		first := 0
		if len(o.Products) > 0 {
			first = o.Products[0].ID
		}
		no := model.NewOrder(o.ID, orig, dest, o.Created, o.Deadline, o.Quantity(), first)
		no.Name = o.Name
		no.Priority = o.Priority
		no.CustomerID = o.CustomerID
		out = append(out, no)
	}
	return out, nil
}

func rebind(byCode map[string]*model.Airport, from, to *model.Airport) (*model.Airport, *model.Airport, error) {
	orig, ok := byCode[strings.ToUpper(from.IATA)]
	if !ok {
		return nil, nil, fmt.Errorf("unknown airport %s", from.IATA)
	}
	dest, ok := byCode[strings.ToUpper(to.IATA)]
	if !ok {
		return nil, nil, fmt.Errorf("unknown airport %s", to.IATA)
	}
	return orig, dest, nil
}

func (m *Memory) SaveReport(_ context.Context, rep *opt.Report) error {
	if rep == nil || rep.RunID == "" {
		return fmt.Errorf("save report: missing run id")
	}
	m.mu.Lock()
	m.reports[rep.RunID] = rep
	m.mu.Unlock()
	return nil
}

func (m *Memory) GetReport(_ context.Context, runID string) (*opt.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rep, ok := m.reports[runID]
	if !ok {
		return nil, ErrNotFound
	}
	return rep, nil
}

// ListReports returns newest first.
func (m *Memory) ListReports(_ context.Context, dataset string, limit int) ([]ReportSummary, error) {
	m.mu.RLock()
	out := make([]ReportSummary, 0, len(m.reports))
	for _, rep := range m.reports {
		if dataset != "" && rep.Dataset != dataset {
			continue
		}
		out = append(out, Summarize(rep))
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].RunID < out[j].RunID
	})
	if n := listLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}
