package calc

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewsync/crewsync/pkg/cache"
)

func newTestService(t *testing.T, capacities map[string]float64) (*Service, *StaticSource, cache.Cache) {
	store, err := cache.NewBoltCache(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	source := NewStaticSource(capacities)
	return NewService(source, store), source, store
}

func TestRecomputeScopeAggregate(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newTestService(t, map[string]float64{"team-1": 32.5})

	require.NoError(t, svc.RecomputeScopeAggregate(ctx, "team-1"))

	data, found, err := store.Get(ctx, cache.NamespaceTeamAggregates, "team-1")
	require.NoError(t, err)
	require.True(t, found)

	var agg ScopeAggregate
	require.NoError(t, json.Unmarshal(data, &agg))
	assert.Equal(t, "team-1", agg.ScopeID)
	assert.Equal(t, 32.5, agg.Capacity)
	assert.False(t, agg.ComputedAt.IsZero())
}

func TestRecomputeGlobalTotals(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, map[string]float64{
		"team-1": 10,
		"team-2": 20,
		"team-3": 12.5,
	})

	require.NoError(t, svc.RecomputeGlobalTotals(ctx))

	totals, found, err := svc.CachedGlobalTotals(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 42.5, totals.TotalCapacity)
	assert.Equal(t, 3, totals.ScopeCount)
}

func TestComputeGlobalTotalsSkipsCache(t *testing.T) {
	ctx := context.Background()
	svc, source, _ := newTestService(t, map[string]float64{"team-1": 10})

	totals, err := svc.ComputeGlobalTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10.0, totals.TotalCapacity)

	// No cache write happened, so the cached path still reads empty.
	_, found, err := svc.CachedGlobalTotals(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	// The direct path sees source changes immediately.
	source.SetCapacity("team-1", 15)
	totals, err = svc.ComputeGlobalTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15.0, totals.TotalCapacity)
}

func TestWarmupCaches(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newTestService(t, map[string]float64{
		"team-1": 8,
		"team-2": 16,
	})

	require.NoError(t, svc.WarmupCaches(ctx))

	for _, scope := range []string{"team-1", "team-2"} {
		_, found, err := store.Get(ctx, cache.NamespaceTeamAggregates, scope)
		require.NoError(t, err)
		assert.True(t, found, "scope %s warmed", scope)
	}

	totals, found, err := svc.CachedGlobalTotals(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 24.0, totals.TotalCapacity)
}

func TestStaticSourceUnknownScopeIsZero(t *testing.T) {
	source := NewStaticSource(nil)

	capacity, err := source.ScopeCapacity(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Zero(t, capacity)
}
