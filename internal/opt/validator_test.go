package opt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morapack/internal/model"
)

// limaSantiago connects SPIM -> SKBO -> SCEL with a 30 minute and a 90
// minute connection out of SKBO.
func limaSantiago(t *testing.T) (*Network, *Shipment, [3]*model.Airport) {
	t.Helper()
	f := newFixture()
	lim := f.airport("SPIM", -5, model.America, 100)
	bog := f.airport("SKBO", -5, model.America, 100)
	scl := f.airport("SCEL", -3, model.America, 100)
	f.flight(lim, bog, 1000, 1200, 10)
	f.flight(bog, scl, 1230, 1930, 10)
	f.flight(bog, scl, 1330, 2030, 10)
	f.order(lim, scl, t0, 48*time.Hour, 2)
	n := f.network(t, DefaultConfig())
	return n, n.Shipments[0], [3]*model.Airport{lim, bog, scl}
}

func TestValidatorLayover(t *testing.T) {
	n, sh, ap := limaSantiago(t)
	v := NewValidator(n, nil)
	first := instance(t, n, ap[0], ap[1], 1)
	legs := n.pair(ap[1].Index, ap[2].Index)
	require.GreaterOrEqual(t, len(legs), 2)
	short, long := legs[0], legs[1]
	require.Equal(t, 30, short.Departure-first.Arrival)
	require.Equal(t, 90, long.Departure-first.Arrival)

	assert.False(t, v.IsValid(sh, model.Route{first, short}))
	assert.True(t, v.IsValid(sh, model.Route{first, long}))
}

func TestValidatorRejections(t *testing.T) {
	n, sh, ap := limaSantiago(t)
	v := NewValidator(n, nil)
	first := instance(t, n, ap[0], ap[1], 1)
	long := n.pair(ap[1].Index, ap[2].Index)[1]

	late := *sh
	late.ID = 99
	late.Due = long.Arrival - 1

	notReady := *sh
	notReady.ID = 98
	notReady.Ready = first.Departure + 1

	tight := *sh
	tight.ID = 97
	tight.Promise = long.Arrival - sh.Ready - 1

	tests := []struct {
		name string
		sh   *Shipment
		r    model.Route
	}{
		{name: "wrong destination", sh: sh, r: model.Route{first}},
		{name: "wrong origin", sh: sh, r: model.Route{long}},
		{name: "discontinuous", sh: sh, r: model.Route{long, first}},
		{name: "empty route away from destination", sh: sh, r: model.Route{}},
		{name: "after due", sh: &late, r: model.Route{first, long}},
		{name: "departs before ready", sh: &notReady, r: model.Route{first, long}},
		{name: "elapsed beyond promise", sh: &tight, r: model.Route{first, long}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, v.IsValid(tt.sh, tt.r))
		})
	}
}

func TestValidatorNominalTransit(t *testing.T) {
	n, sh, ap := limaSantiago(t)
	v := NewValidator(n, nil)
	r := model.Route{instance(t, n, ap[0], ap[1], 1), n.pair(ap[1].Index, ap[2].Index)[1]}

	s := *sh
	s.ID = 50
	s.Ready = r.Departure()
	s.Promise = r.FlightMinutes() + n.Config.ConnectionMinutes
	s.Due = s.Ready + 10*model.MinutesPerDay
	require.LessOrEqual(t, r.Arrival()-s.Ready, s.Promise)
	assert.True(t, v.IsValid(&s, r))

	s.ID = 51
	s.Promise--
	assert.False(t, v.IsValid(&s, r))
}

func TestValidatorEmptyRouteAtDestination(t *testing.T) {
	n, sh, ap := limaSantiago(t)
	v := NewValidator(n, nil)
	home := *sh
	home.ID = 70
	home.Dest = ap[0]
	assert.True(t, v.IsValid(&home, model.Route{}))
}

func TestValidatorHeadquartersIsAdvisory(t *testing.T) {
	f := newFixture()
	bog := f.airport("SKBO", -5, model.America, 100)
	scl := f.airport("SCEL", -3, model.America, 100)
	f.flight(bog, scl, 1230, 1930, 10)
	f.order(bog, scl, t0, 48*time.Hour, 1)
	n := f.network(t, DefaultConfig())
	v := NewValidator(n, nil)

	assert.True(t, v.IsValid(n.Shipments[0], model.Route{instance(t, n, bog, scl, 1)}))
	assert.Equal(t, 1, v.Advisories())
}

func TestValidatorMemoAndClearCache(t *testing.T) {
	n, sh, ap := limaSantiago(t)
	v := NewValidator(n, nil)
	r := model.Route{instance(t, n, ap[0], ap[1], 1), n.pair(ap[1].Index, ap[2].Index)[1]}

	require.True(t, v.IsValid(sh, r))
	assert.Len(t, v.verdicts, 1)
	require.True(t, v.IsValid(sh, r))
	assert.Len(t, v.verdicts, 1)
	v.ClearCache()
	assert.Empty(t, v.verdicts)
}
