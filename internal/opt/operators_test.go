package opt

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morapack/internal/model"
)

// seededState is the random instance after its initial construction.
func seededState(t *testing.T, seed int64) *State {
	t.Helper()
	n := randomNetwork(t, searchConfig())
	st := newTestState(t, n, seed)
	st.buildInitial(InitialGreedy)
	require.Greater(t, st.sol.AssignedCount(), 5)
	return st
}

func TestDestroyersReturnDistinctAssignedShipments(t *testing.T) {
	for _, d := range defaultDestroyers() {
		t.Run(d.Name(), func(t *testing.T) {
			st := seededState(t, 3)
			ids := d.Destroy(st, 5)
			require.Len(t, ids, 5)
			seen := map[int]bool{}
			for _, id := range ids {
				assert.True(t, st.sol.IsAssigned(id))
				assert.False(t, seen[id])
				seen[id] = true
			}
			before := st.sol.AssignedCount()
			st.remove(ids)
			assert.Equal(t, before-5, st.sol.AssignedCount())
			assert.True(t, st.consistent())
		})
	}
}

func TestCongestionRemovalTargetsLoadedFlights(t *testing.T) {
	st := seededState(t, 3)
	ids := congestionRemoval{}.Destroy(st, 1)
	require.Len(t, ids, 1)
	top := peakLoad(st.flights, st.sol.Routes[ids[0]])
	for _, id := range st.sol.assignedIDs() {
		assert.LessOrEqual(t, peakLoad(st.flights, st.sol.Routes[id]), top+0.1)
	}
}

func TestRepairersReinsertRemovedShipments(t *testing.T) {
	for _, r := range defaultRepairers(DefaultConfig()) {
		t.Run(r.Name(), func(t *testing.T) {
			st := seededState(t, 5)
			ids := randomRemoval{}.Destroy(st, 4)
			st.remove(ids)
			r.Repair(st, ids)
			st.rebuild()

			assert.Positive(t, st.sol.AssignedCount())
			assert.True(t, st.consistent())
			require.NoError(t, st.flights.Validate())
			require.NoError(t, st.stores.Validate())
			for _, id := range st.sol.assignedIDs() {
				assert.True(t, st.validator.check(st.sol.Shipments[id], st.sol.Routes[id]))
			}
		})
	}
}

func TestRegretStaticPathMatchesInvariants(t *testing.T) {
	st := seededState(t, 8)
	st.cfg.RegretDynamicLimit = 1
	ids := st.sol.assignedIDs()
	st.remove(ids)
	regretRepair{k: 3}.Repair(st, ids)
	st.rebuild()
	assert.Positive(t, st.sol.AssignedCount())
	assert.True(t, st.stores.IsTemporalSolutionValid(st.sol))
}

func TestUnassignedPoolOrder(t *testing.T) {
	sol := newSolution([]*Shipment{
		{ID: 3, Due: 100, Priority: 1},
		{ID: 1, Due: 200, Priority: 1},
		{ID: 2, Due: 100, Priority: 2},
		{ID: 4, Due: 100, Priority: 1},
		{ID: 5, Due: 50, Priority: 1},
	})
	sol.Routes[5] = model.Route{}
	p := NewUnassignedPool()
	p.Rebuild(sol)
	require.Equal(t, 4, p.Len())

	ids := func(in []*Shipment) []int {
		var out []int
		for _, sh := range in {
			out = append(out, sh.ID)
		}
		return out
	}
	assert.Equal(t, []int{2, 3, 4, 1}, ids(p.Head(10, nil)))
	assert.Equal(t, []int{2, 4}, ids(p.Head(2, map[int]bool{3: true})))
	assert.Equal(t, 4, p.Len())
}

func TestExpandPoolExcludesRemoved(t *testing.T) {
	f, _, _ := limaBogota(3)
	n := f.network(t, testConfig())
	st := newTestState(t, n, 1)
	removed := []int{1, 2}

	// with 5 of 5 unassigned the draw always happens
	ids := st.expandPool(removed)
	sort.Ints(ids)
	assert.Equal(t, []int{3, 4, 5}, ids)
}

func TestExpandPoolTakesMostUrgent(t *testing.T) {
	f, lim, bog := limaBogota(3)
	f.order(lim, bog, t0, 6*time.Hour, 1)
	f.order(lim, bog, t0, 12*time.Hour, 1)
	n := f.network(t, testConfig())
	st := newTestState(t, n, 1)
	st.cfg.PoolExpansionMin, st.cfg.PoolExpansionMax = 1, 2

	want := st.unassigned()[:2]
	ids := st.expandPool(nil)
	require.Len(t, ids, 2)
	assert.Equal(t, []int{want[0].ID, want[1].ID}, ids)
	assert.Less(t, st.sol.Shipments[ids[0]].Due, st.sol.Shipments[ids[1]].Due)
}

func TestRestartStrategiesRotate(t *testing.T) {
	st := seededState(t, 4)
	best := st.sol.clone()
	for i, want := range []string{restartRandom, restartGreedy, restartHybrid, restartRandom} {
		assert.Equal(t, want, st.restart(i, best))
		require.True(t, st.consistent())
		require.NoError(t, st.flights.Validate())
		require.NoError(t, st.stores.Validate())
	}
}
