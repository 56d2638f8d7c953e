package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewsync/crewsync/pkg/types"
)

func queueEvent(id string, t types.EventType, entity string, p types.Priority, ts time.Time) *types.SyncEvent {
	return &types.SyncEvent{
		ID:        id,
		Type:      t,
		Source:    types.SourceSystem,
		EntityID:  entity,
		Timestamp: ts,
		Priority:  p,
	}
}

func TestQueueDedupWithinWindow(t *testing.T) {
	q := newEventQueue(5*time.Second, 100)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := queueEvent("e1", types.EventScheduleChange, "entry-1", types.PriorityHigh, base)
	second := queueEvent("e2", types.EventScheduleChange, "entry-1", types.PriorityHigh, base.Add(2*time.Second))

	assert.Equal(t, AddQueued, q.Add(first, base))
	assert.Equal(t, AddReplaced, q.Add(second, base.Add(2*time.Second)))
	assert.Equal(t, 1, q.Len())

	batch := q.PopBatch(10)
	require.Len(t, batch, 1)
	assert.Equal(t, "e2", batch[0].ID, "latest event wins")
}

func TestQueueNoDedupOutsideWindow(t *testing.T) {
	q := newEventQueue(5*time.Second, 100)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	q.Add(queueEvent("e1", types.EventScheduleChange, "entry-1", types.PriorityHigh, base), base)
	result := q.Add(queueEvent("e2", types.EventScheduleChange, "entry-1", types.PriorityHigh, base.Add(6*time.Second)), base.Add(6*time.Second))

	assert.Equal(t, AddQueued, result)
	assert.Equal(t, 2, q.Len())
}

func TestQueueNoDedupAcrossEntities(t *testing.T) {
	q := newEventQueue(5*time.Second, 100)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	q.Add(queueEvent("e1", types.EventScheduleChange, "entry-1", types.PriorityHigh, base), base)
	result := q.Add(queueEvent("e2", types.EventScheduleChange, "entry-2", types.PriorityHigh, base), base)

	assert.Equal(t, AddQueued, result)
	assert.Equal(t, 2, q.Len())
}

func TestQueuePriorityOrdering(t *testing.T) {
	q := newEventQueue(5*time.Second, 100)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	q.Add(queueEvent("low", types.EventTeamDataChange, "t1", types.PriorityLow, base), base)
	q.Add(queueEvent("critical", types.EventSprintUpdate, "s1", types.PriorityCritical, base.Add(time.Second)), base)
	q.Add(queueEvent("medium", types.EventMemberUpdate, "m1", types.PriorityMedium, base), base)
	q.Add(queueEvent("high", types.EventScheduleChange, "e1", types.PriorityHigh, base), base)

	batch := q.PopBatch(10)
	require.Len(t, batch, 4)

	got := []string{batch[0].ID, batch[1].ID, batch[2].ID, batch[3].ID}
	assert.Equal(t, []string{"critical", "high", "medium", "low"}, got)
}

func TestQueueTiesBrokenByTimestamp(t *testing.T) {
	q := newEventQueue(5*time.Second, 100)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	q.Add(queueEvent("later", types.EventScheduleChange, "e2", types.PriorityHigh, base.Add(3*time.Second)), base)
	q.Add(queueEvent("earlier", types.EventScheduleChange, "e1", types.PriorityHigh, base), base)

	batch := q.PopBatch(2)
	require.Len(t, batch, 2)
	assert.Equal(t, "earlier", batch[0].ID)
	assert.Equal(t, "later", batch[1].ID)
}

func TestQueueDropsLowPriorityWhenFull(t *testing.T) {
	q := newEventQueue(5*time.Second, 2)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	q.Add(queueEvent("e1", types.EventScheduleChange, "a", types.PriorityHigh, base), base)
	q.Add(queueEvent("e2", types.EventScheduleChange, "b", types.PriorityHigh, base), base)

	dropped := q.Add(queueEvent("e3", types.EventTeamDataChange, "c", types.PriorityLow, base), base)
	assert.Equal(t, AddDropped, dropped)
	assert.Equal(t, 2, q.Len())

	// Higher priorities still enqueue past the cap
	kept := q.Add(queueEvent("e4", types.EventSprintUpdate, "d", types.PriorityCritical, base), base)
	assert.Equal(t, AddQueued, kept)
	assert.Equal(t, 3, q.Len())
}

func TestQueuePopBatchLimits(t *testing.T) {
	q := newEventQueue(5*time.Second, 100)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 25; i++ {
		ev := queueEvent(string(rune('a'+i)), types.EventScheduleChange, string(rune('a'+i)), types.PriorityMedium, base.Add(time.Duration(i)*time.Millisecond))
		q.Add(ev, base)
	}

	assert.Len(t, q.PopBatch(10), 10)
	assert.Len(t, q.PopBatch(10), 10)
	assert.Len(t, q.PopBatch(10), 5)
	assert.Empty(t, q.PopBatch(10))
	assert.Equal(t, 0, q.Len())
}
