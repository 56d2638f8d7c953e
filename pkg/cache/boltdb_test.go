package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *BoltCache {
	c, err := NewBoltCache(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Put(ctx, NamespaceTeamAggregates, "team-1", []byte(`{"capacity":12}`)))

	value, found, err := c.Get(ctx, NamespaceTeamAggregates, "team-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte(`{"capacity":12}`), value)
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	_, found, err := c.Get(ctx, NamespaceSummary, "nope")
	require.NoError(t, err)
	assert.False(t, found)

	// Unknown namespaces read as absent, not as errors.
	_, found, err = c.Get(ctx, "never_created", "nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidateEntry(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Put(ctx, NamespaceScheduleEntries, "entry-1", []byte("x")))
	require.NoError(t, c.InvalidateEntry(ctx, NamespaceScheduleEntries, "entry-1"))

	_, found, err := c.Get(ctx, NamespaceScheduleEntries, "entry-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidateAbsentIsNoOp(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	assert.NoError(t, c.InvalidateEntry(ctx, NamespaceScheduleEntries, "missing"))
	assert.NoError(t, c.InvalidateEntry(ctx, "no_such_namespace", "missing"))
}

func TestClearByPattern(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Put(ctx, NamespaceSprintDerived, "sprint-1", []byte("a")))
	require.NoError(t, c.Put(ctx, NamespaceCalculations, "calc-1", []byte("b")))
	require.NoError(t, c.Put(ctx, NamespaceSummary, "global", []byte("c")))

	require.NoError(t, c.ClearByPattern(ctx, "sprint_*"))

	_, found, _ := c.Get(ctx, NamespaceSprintDerived, "sprint-1")
	assert.False(t, found, "matched namespace is cleared")

	_, found, _ = c.Get(ctx, NamespaceSummary, "global")
	assert.True(t, found, "unmatched namespace survives")

	// The cleared namespace stays usable.
	require.NoError(t, c.Put(ctx, NamespaceSprintDerived, "sprint-2", []byte("d")))
	_, found, _ = c.Get(ctx, NamespaceSprintDerived, "sprint-2")
	assert.True(t, found)
}

func TestClearByPatternRejectsBadPattern(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)
	assert.Error(t, c.ClearByPattern(ctx, "[invalid"))
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Put(ctx, NamespaceSummary, "global", []byte("a")))
	require.NoError(t, c.Put(ctx, NamespaceTeamAggregates, "team-1", []byte("b")))

	require.NoError(t, c.ClearAll(ctx))

	_, found, err := c.Get(ctx, NamespaceSummary, "global")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = c.Get(ctx, NamespaceTeamAggregates, "team-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPutCreatesNamespaceOnDemand(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Put(ctx, "ad_hoc", "k", []byte("v")))
	value, found, err := c.Get(ctx, "ad_hoc", "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), value)
}
