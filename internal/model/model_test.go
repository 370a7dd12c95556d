package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func airport(iata string, gmt int, c Continent) *Airport {
	return &Airport{IATA: iata, GMTOffset: gmt, City: &City{Name: iata, Continent: c}, Warehouse: Warehouse{Capacity: 100}}
}

func TestNewFlightDuration(t *testing.T) {
	lim := airport("SPIM", -5, America)
	bru := airport("EBCI", 2, Europe)

	tests := []struct {
		name     string
		from, to *Airport
		dep, arr int
		want     int
	}{
		{name: "same zone", from: lim, to: airport("SKBO", -5, America), dep: 10 * 60, arr: 12 * 60, want: 120},
		{name: "eastbound across zones", from: lim, to: bru, dep: 20 * 60, arr: 14 * 60, want: 11 * 60},
		{name: "wraps past midnight", from: lim, to: airport("SKBO", -5, America), dep: 23 * 60, arr: 1 * 60, want: 120},
		{name: "equal clocks is a full day", from: lim, to: airport("SKBO", -5, America), dep: 600, arr: 600, want: MinutesPerDay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFlight(1, tt.from, tt.to, tt.dep, tt.arr, 300)
			assert.Equal(t, tt.want, f.DurationMinutes)
		})
	}
}

func TestFlightInstanceID(t *testing.T) {
	f := NewFlight(42, airport("SPIM", -5, America), airport("SKBO", -5, America), 7*60+5, 9*60, 10)
	fi := &FlightInstance{Flight: f, Day: 3, Departure: 2*MinutesPerDay + f.DepartureUTC()}
	assert.Equal(t, "42-DAY-3-1205", fi.ID())
	assert.Equal(t, 12*60+5, f.DepartureUTC())
}

func TestParseContinent(t *testing.T) {
	for in, want := range map[string]Continent{
		"America del Sur.": America,
		"Europa":           Europe,
		" Asia. ":          Asia,
	} {
		got, err := ParseContinent(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseContinent("Oceania")
	assert.Error(t, err)
}

func TestRouteHelpers(t *testing.T) {
	a, b, c := airport("AAAA", 0, Europe), airport("BBBB", 0, Europe), airport("CCCC", 0, Europe)
	f1 := &FlightInstance{Flight: NewFlight(1, a, b, 60, 180, 10), Day: 1, Departure: 60, Arrival: 180}
	f2 := &FlightInstance{Flight: NewFlight(2, b, c, 300, 360, 10), Day: 1, Departure: 300, Arrival: 360}
	r := Route{f1, f2}

	assert.Equal(t, a, r.Origin())
	assert.Equal(t, c, r.Destination())
	assert.Equal(t, 60, r.Departure())
	assert.Equal(t, 360, r.Arrival())
	assert.Equal(t, 180, r.FlightMinutes())
	assert.Equal(t, "1-DAY-1-0100>2-DAY-1-0500", r.Key())

	var empty Route
	assert.Nil(t, empty.Origin())
	assert.Equal(t, 0, empty.Hops())
}

func TestNewOrderNumbersProducts(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 0, 0, 0, time.UTC)
	o := NewOrder(7, nil, nil, now, now.Add(48*time.Hour), 3, 100)
	require.Len(t, o.Products, 3)
	assert.Equal(t, 102, o.Products[2].ID)
	assert.Equal(t, 7, o.Products[0].OrderID)
	assert.Equal(t, NotAssigned, o.Products[1].Status)
}
