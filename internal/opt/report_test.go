package opt

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morapack/internal/model"
)

func TestNewReport(t *testing.T) {
	f, _, _ := limaBogota(3)
	n := f.network(t, testConfig())
	res, err := NewSolver(n, 2, nil).Solve(context.Background())
	require.NoError(t, err)

	rep, err := NewReport("", "lima-bogota", res)
	require.NoError(t, err)
	_, err = uuid.Parse(rep.RunID)
	require.NoError(t, err)
	assert.Equal(t, "lima-bogota", rep.Dataset)

	named, err := NewReport("run-7", "lima-bogota", res)
	require.NoError(t, err)
	assert.Equal(t, "run-7", named.RunID)
	assert.Equal(t, 3, rep.Assigned)
	assert.Equal(t, 2, rep.Unassigned)
	require.Len(t, rep.Shipments, 3)
	require.Len(t, rep.Pending, 2)
	assert.Len(t, rep.Products, 3)
	for _, s := range rep.Shipments {
		assert.Equal(t, "SPIM", s.Origin)
		assert.Equal(t, "SKBO", s.Destination)
		assert.Equal(t, []string{"1-DAY-1-1500"}, s.Flights)
		assert.False(t, s.Arrival.After(s.Due))
	}
	assert.Less(t, rep.Pending[0].ShipmentID, rep.Pending[1].ShipmentID)
	assert.Equal(t, 3, rep.FullOrders)
	require.Len(t, rep.OrderStatus, 5)

	routed := map[int]bool{}
	for _, s := range rep.Shipments {
		routed[s.OrderID] = true
	}
	for _, o := range n.Orders {
		for _, p := range o.Products {
			if routed[o.ID] {
				assert.Equal(t, model.Assigned, p.Status, "product %d", p.ID)
				assert.Equal(t, []string{"1-DAY-1-1500"}, p.Route.FlightIDs())
				assert.Equal(t, "ASSIGNED", rep.OrderStatus[fmt.Sprint(o.ID)])
			} else {
				assert.Equal(t, model.NotAssigned, p.Status, "product %d", p.ID)
				assert.Empty(t, p.Route)
			}
		}
	}
}

func TestSolveParallelKeepsBest(t *testing.T) {
	n := randomNetwork(t, searchConfig())
	best, err := SolveParallel(context.Background(), n, []int64{1, 2, 3}, nil, nil)
	require.NoError(t, err)

	for _, seed := range []int64{1, 2, 3} {
		res, err := NewSolver(n, seed, nil).Solve(context.Background())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, best.Breakdown.Weight, res.Breakdown.Weight)
	}

	_, err = SolveParallel(context.Background(), n, nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoSeeds)
}

func TestMetricsStore(t *testing.T) {
	RecordMetrics("ds-a", "run-1", Metrics{Iterations: 10})
	RecordMetrics("ds-a", "run-2", Metrics{Iterations: 20})
	RecordMetrics("ds-b", "run-3", Metrics{Iterations: 30})

	got := GetMetrics("ds-a")
	require.Len(t, got, 2)
	assert.Equal(t, 20, got["run-2"].Iterations)
	assert.Contains(t, Datasets(), "ds-b")
	assert.Empty(t, GetMetrics("missing"))
}
