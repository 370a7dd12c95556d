package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morapack/internal/integrations"
	"morapack/internal/model"
	"morapack/internal/opt"
)

var day0 = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

func sampleDataset() *integrations.Dataset {
	lim := &model.Airport{ID: 1, IATA: "SPIM", City: &model.City{ID: 1, Name: "Lima", Continent: model.America}, GMTOffset: -5, Warehouse: model.Warehouse{Capacity: 400}}
	bog := &model.Airport{ID: 2, IATA: "SKBO", City: &model.City{ID: 2, Name: "Bogota", Continent: model.America}, GMTOffset: -5, Warehouse: model.Warehouse{Capacity: 400}}
	f := model.NewFlight(1, lim, bog, 8*60, 11*60, 300)
	early := model.NewOrder(1, lim, bog, day0.Add(2*time.Hour), time.Time{}, 3, 1)
	early.CustomerID = "0007729"
	late := model.NewOrder(2, lim, bog, day0.Add(30*time.Hour), time.Time{}, 2, 4)
	return &integrations.Dataset{
		Source:   "sample",
		Airports: []*model.Airport{lim, bog},
		Flights:  []*model.Flight{f},
		Orders:   []*model.Order{early, late},
	}
}

func TestMemoryLoadRebindsToCallerAirports(t *testing.T) {
	m := NewMemory()
	ds := sampleDataset()
	require.NoError(t, m.ImportDataset(t.Context(), ds))

	got, err := integrations.Load(t.Context(), m, integrations.Window{})
	require.NoError(t, err)
	require.Len(t, got.Airports, 2)
	require.Len(t, got.Flights, 1)
	require.Len(t, got.Orders, 2)

	assert.NotSame(t, ds.Airports[0], got.Airports[0])
	assert.Same(t, got.Airports[0], got.Flights[0].Origin)
	assert.Same(t, got.Airports[1], got.Orders[0].Destination)
	assert.Equal(t, 180, got.Flights[0].DurationMinutes)
	assert.Equal(t, "0007729", got.Orders[0].CustomerID)
	assert.Equal(t, 4, got.Orders[1].Products[0].ID)
	assert.Equal(t, 5, got.Units())
}

func TestMemoryLoadOrdersWindow(t *testing.T) {
	m := NewMemory()
	ds := sampleDataset()
	require.NoError(t, m.ImportDataset(t.Context(), ds))

	orders, err := m.LoadOrders(t.Context(), ds.Airports, integrations.Window{From: day0, To: day0.Add(24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 1, orders[0].ID)
}

func TestMemoryLoadUnknownAirport(t *testing.T) {
	m := NewMemory()
	ds := sampleDataset()
	require.NoError(t, m.ImportDataset(t.Context(), ds))

	_, err := m.LoadFlights(t.Context(), ds.Airports[:1])
	assert.ErrorContains(t, err, "unknown airport SKBO")
}

func TestMemoryReports(t *testing.T) {
	m := NewMemory()
	ctx := t.Context()

	_, err := m.GetReport(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Error(t, m.SaveReport(ctx, &opt.Report{}))

	older := &opt.Report{RunID: "a", Dataset: "jan", CreatedAt: day0, Assigned: 3}
	newer := &opt.Report{RunID: "b", Dataset: "jan", CreatedAt: day0.Add(time.Hour), Assigned: 5}
	other := &opt.Report{RunID: "c", Dataset: "feb", CreatedAt: day0.Add(2 * time.Hour)}
	for _, r := range []*opt.Report{older, newer, other} {
		require.NoError(t, m.SaveReport(ctx, r))
	}

	got, err := m.GetReport(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Assigned)

	list, err := m.ListReports(ctx, "jan", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].RunID)
	assert.Equal(t, "a", list[1].RunID)

	list, err = m.ListReports(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c", list[0].RunID)
}
