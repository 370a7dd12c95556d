package opt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"morapack/internal/model"
)

var t0 = time.Date(2025, 1, 1, 5, 0, 0, 0, time.UTC)

type fixture struct {
	airports    []*model.Airport
	flights     []*model.Flight
	orders      []*model.Order
	nextProduct int
}

func newFixture() *fixture { return &fixture{nextProduct: 1} }

func (f *fixture) airport(iata string, gmt int, c model.Continent, capacity int) *model.Airport {
	id := len(f.airports) + 1
	a := &model.Airport{
		ID:        id,
		IATA:      iata,
		City:      &model.City{ID: id, Name: iata, Continent: c},
		GMTOffset: gmt,
		Warehouse: model.Warehouse{Capacity: capacity},
	}
	f.airports = append(f.airports, a)
	return a
}

// flight adds a daily service; dep and arr are local "hhmm" clocks.
func (f *fixture) flight(from, to *model.Airport, dep, arr, capacity int) *model.Flight {
	fl := model.NewFlight(len(f.flights)+1, from, to, dep/100*60+dep%100, arr/100*60+arr%100, capacity)
	f.flights = append(f.flights, fl)
	return fl
}

func (f *fixture) order(from, to *model.Airport, created time.Time, within time.Duration, qty int) *model.Order {
	o := model.NewOrder(len(f.orders)+1, from, to, created, created.Add(within), qty, f.nextProduct)
	f.nextProduct += qty
	f.orders = append(f.orders, o)
	return o
}

func (f *fixture) network(t *testing.T, cfg Config) *Network {
	t.Helper()
	n, err := NewNetwork(f.airports, f.flights, f.orders, cfg)
	require.NoError(t, err)
	return n
}

// testConfig keeps runs short.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxIterations = 60
	cfg.SegmentSize = 10
	cfg.CoolingSegment = 10
	cfg.SnapshotEvery = 10
	return cfg
}

// limaBogota is a single daily SPIM -> SKBO service with five one-unit
// orders that all fit on day one.
func limaBogota(skboCapacity int) (*fixture, *model.Airport, *model.Airport) {
	f := newFixture()
	lim := f.airport("SPIM", -5, model.America, 100)
	bog := f.airport("SKBO", -5, model.America, skboCapacity)
	f.flight(lim, bog, 1000, 1200, 10)
	for i := 0; i < 5; i++ {
		f.order(lim, bog, t0, 24*time.Hour, 1)
	}
	return f, lim, bog
}

func newTestState(t *testing.T, n *Network, seed int64) *State {
	t.Helper()
	return newState(n, NewSearchContext(seed, n.maxShipmentID()+1), nil)
}

func instance(t *testing.T, n *Network, from, to *model.Airport, day int) *model.FlightInstance {
	t.Helper()
	for _, fi := range n.pair(from.Index, to.Index) {
		if fi.Day == day {
			return fi
		}
	}
	t.Fatalf("no %s-%s instance on day %d", from, to, day)
	return nil
}
