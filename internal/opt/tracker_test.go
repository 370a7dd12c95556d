package opt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morapack/internal/model"
)

func TestProductTrackerAssignAndUnassign(t *testing.T) {
	f, lim, bog := limaBogota(100)
	o := f.order(lim, bog, t0, 24*time.Hour, 3)
	n := f.network(t, DefaultConfig())
	tr := NewProductTracker(n.Orders)
	r := model.Route{instance(t, n, lim, bog, 1)}

	require.NoError(t, tr.AssignOrderToRoute(o.ID, r))
	for _, p := range o.Products {
		got, ok := tr.RouteFor(p.ID)
		require.True(t, ok)
		assert.Equal(t, r.Key(), got.Key())
	}
	assert.Equal(t, model.Assigned, tr.OrderStatus(o.ID))

	tr.Unassign(o.Products[1].ID)
	assert.Equal(t, model.NotAssigned, tr.Status(o.Products[1].ID))
	assert.Equal(t, model.NotAssigned, tr.OrderStatus(o.ID))
	assert.Len(t, tr.ProductSolution(), 2)

	require.NoError(t, tr.AssignProductToRoute(o.Products[1].ID, r))
	assert.Equal(t, model.Assigned, tr.OrderStatus(o.ID))

	assert.ErrorIs(t, tr.AssignOrderToRoute(999, r), ErrUnknownOrder)
	assert.ErrorIs(t, tr.AssignProductToRoute(999, r), ErrUnknownProduct)
}

func TestProductTrackerSplitOrderOnce(t *testing.T) {
	f, lim, bog := limaBogota(100)
	o := f.order(lim, bog, t0, 24*time.Hour, 5)
	tr := NewProductTracker(f.orders)

	_, _, err := tr.SplitOrder(o.ID, 5)
	assert.ErrorIs(t, err, ErrInvalidSplit)

	first, rest, err := tr.SplitOrder(o.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{o.Products[0].ID, o.Products[1].ID}, first)
	assert.Len(t, rest, 3)

	_, _, err = tr.SplitOrder(o.ID, 1)
	assert.ErrorIs(t, err, ErrAlreadySplit)
}

func TestProductTrackerFollowsSolution(t *testing.T) {
	f, _, _ := limaBogota(100)
	n := f.network(t, testConfig())
	res, err := NewSolver(n, 1, nil).Solve(t.Context())
	require.NoError(t, err)

	tr := NewProductTracker(n.Orders)
	require.NoError(t, tr.TrackSolution(res.Solution))
	assert.Len(t, tr.ProductSolution(), n.TotalUnits())
	assert.Equal(t, len(n.Orders), tr.AssignedOrders())

	tr.Publish()
	for _, o := range n.Orders {
		for _, p := range o.Products {
			assert.Equal(t, model.Assigned, p.Status)
			assert.Len(t, p.Route, 1)
		}
	}
}

func TestProductTrackerRecordsSolverSplits(t *testing.T) {
	f, lim, bog := limaBogota(100)
	o := f.order(lim, bog, t0, 24*time.Hour, 5)
	n := f.network(t, DefaultConfig())
	st := newTestState(t, n, 1)

	parent := n.Shipments[len(n.Shipments)-1]
	require.Equal(t, o.ID, parent.OrderID)
	lo, hi := halve(parent.Units)
	a := parent.child(100, lo)
	b := parent.child(101, hi)
	delete(st.sol.Shipments, parent.ID)
	st.sol.Shipments[a.ID] = a
	st.sol.Shipments[b.ID] = b
	r := model.Route{instance(t, n, lim, bog, 1)}
	require.True(t, st.commit(a, r))

	tr := NewProductTracker(n.Orders)
	require.NoError(t, tr.TrackSolution(st.sol))
	for i, p := range o.Products {
		want := model.NotAssigned
		if i < len(lo) {
			want = model.Assigned
		}
		assert.Equal(t, want, tr.Status(p.ID), "product %d", p.ID)
	}
	_, _, err := tr.SplitOrder(o.ID, 1)
	assert.ErrorIs(t, err, ErrAlreadySplit, "the solver's split is recorded")

	// a second sync with the half moved off its route unassigns it
	st.release(a.ID)
	require.NoError(t, tr.TrackSolution(st.sol))
	assert.Equal(t, model.NotAssigned, tr.OrderStatus(o.ID))
	assert.Empty(t, tr.ProductSolution())
}

func TestProductTrackerRejectsForeignSplit(t *testing.T) {
	f, lim, bog := limaBogota(100)
	o := f.order(lim, bog, t0, 24*time.Hour, 4)
	n := f.network(t, DefaultConfig())
	sol := newSolution(nil)
	parent := n.Shipments[len(n.Shipments)-1]
	odd := parent.child(100, []int{o.Products[0].ID})
	sol.Shipments[odd.ID] = odd

	err := NewProductTracker(n.Orders).TrackSolution(sol)
	assert.ErrorIs(t, err, ErrInvalidSplit)
}

func TestHalve(t *testing.T) {
	lo, hi := halve([]int{1, 2, 3, 4, 5})
	assert.Equal(t, []int{1, 2}, lo)
	assert.Equal(t, []int{3, 4, 5}, hi)
}
