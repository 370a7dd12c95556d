package opt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morapack/internal/model"
)

func TestNewNetworkRejectsEmptyInputs(t *testing.T) {
	f, _, _ := limaBogota(10)
	cfg := DefaultConfig()

	_, err := NewNetwork(nil, f.flights, f.orders, cfg)
	assert.ErrorIs(t, err, ErrNoAirports)
	_, err = NewNetwork(f.airports, nil, f.orders, cfg)
	assert.ErrorIs(t, err, ErrNoFlights)
	_, err = NewNetwork(f.airports, f.flights, nil, cfg)
	assert.ErrorIs(t, err, ErrNoOrders)

	bad := cfg
	bad.CoolingRate = 1.5
	_, err = NewNetwork(f.airports, f.flights, f.orders, bad)
	assert.Error(t, err)
}

func TestNetworkExpandsInstancesOverHorizon(t *testing.T) {
	f := newFixture()
	lim := f.airport("SPIM", -5, model.America, 10)
	bru := f.airport("EBCI", 1, model.Europe, 10)
	f.flight(lim, bru, 1800, 1200, 10)
	f.order(lim, bru, t0, 72*time.Hour, 1)
	n := f.network(t, DefaultConfig())

	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), n.Start)
	assert.Equal(t, 4*model.MinutesPerDay, n.Minutes)
	// 18:00 at GMT-5 is 23:00 UTC and the flight takes 12 hours, so the
	// fourth day's instance lands after the horizon.
	require.Len(t, n.Instances, 3)
	for i, fi := range n.Instances {
		assert.Equal(t, i, fi.Index)
		assert.Equal(t, i+1, fi.Day)
		assert.Equal(t, 12*60, fi.Arrival-fi.Departure)
	}
	assert.Equal(t, "1-DAY-2-2300", n.Instances[1].ID())
	assert.Len(t, n.Departures(lim.Index), 3)
	assert.Empty(t, n.Departures(bru.Index))
}

func TestNetworkInstanceIDsUniqueWithFrequency(t *testing.T) {
	f := newFixture()
	lim := f.airport("SPIM", -5, model.America, 10)
	bog := f.airport("SKBO", -5, model.America, 10)
	f.flight(lim, bog, 1000, 1200, 10).Frequency = 2
	f.order(lim, bog, t0, 24*time.Hour, 1)
	n := f.network(t, DefaultConfig())

	seen := map[string]int{}
	for _, fi := range n.Instances {
		id := fi.ID()
		prev, dup := seen[id]
		require.False(t, dup, "%s shared by instances %d and %d", id, prev, fi.Index)
		seen[id] = fi.Index
	}
	// 10:00 at GMT-5 departs 15:00 UTC, the second service twelve hours later.
	assert.Equal(t, "1-DAY-1-1500", n.Instances[0].ID())
	assert.Equal(t, "1-DAY-1-0300", n.Instances[1].ID())
	assert.Equal(t, model.MinutesPerDay+3*60, n.Instances[1].Departure)
}

func TestNetworkShipmentDue(t *testing.T) {
	f := newFixture()
	lim := f.airport("SPIM", -5, model.America, 10)
	bog := f.airport("SKBO", -5, model.America, 10)
	bru := f.airport("EBCI", 1, model.Europe, 10)
	f.flight(lim, bog, 1000, 1200, 10)
	f.order(lim, bog, t0, 24*time.Hour, 2)
	f.order(lim, bru, t0, 96*time.Hour, 1)
	n := f.network(t, DefaultConfig())

	require.Len(t, n.Shipments, 2)
	a, b := n.Shipments[0], n.Shipments[1]
	assert.Equal(t, 300, a.Ready)
	assert.Equal(t, 300+24*60, a.Due, "deadline earlier than the promise")
	assert.Equal(t, 48*60, a.Promise)
	assert.Equal(t, []int{1, 2}, a.Units)
	assert.Equal(t, 300+72*60, b.Due, "promise earlier than the deadline")
	assert.Equal(t, 3, n.TotalUnits())
	assert.True(t, n.IsHub(lim))
	assert.False(t, n.IsHub(bog))
	assert.Equal(t, 2, n.maxShipmentID())

	got, ok := n.AirportForCity(bog.City.ID)
	require.True(t, ok)
	assert.Same(t, bog, got)
	assert.Equal(t, t0, n.Time(a.Ready))
}
