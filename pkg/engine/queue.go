package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/crewsync/crewsync/pkg/types"
)

// AddResult reports what Add did with an event
type AddResult int

const (
	// AddQueued means the event was appended as a new entry
	AddQueued AddResult = iota
	// AddReplaced means the event replaced a queued duplicate for
	// the same (type, entity) inside the dedup window
	AddReplaced
	// AddDropped means the queue was full and the event's priority
	// was too low to enqueue
	AddDropped
)

type queuedEvent struct {
	event      *types.SyncEvent
	enqueuedAt time.Time
}

// eventQueue holds pending sync events, coalescing same-entity
// duplicates and keeping critical work at the front.
//
// Ordering is priority ascending (critical, high, medium, low), ties
// broken by ascending event timestamp. The queue is capped: once full,
// low priority events are dropped rather than enqueued, so a burst of
// background noise cannot crowd out critical invalidations.
type eventQueue struct {
	mu          sync.Mutex
	entries     []queuedEvent
	dedupWindow time.Duration
	maxDepth    int
}

func newEventQueue(dedupWindow time.Duration, maxDepth int) *eventQueue {
	return &eventQueue{
		entries:     make([]queuedEvent, 0, 64),
		dedupWindow: dedupWindow,
		maxDepth:    maxDepth,
	}
}

// Add inserts an event at time now. A queued event for the same
// (type, entity) enqueued within the dedup window is replaced in
// place; the latest event wins.
func (q *eventQueue) Add(event *types.SyncEvent, now time.Time) AddResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := event.DedupKey()
	for i := range q.entries {
		if q.entries[i].event.DedupKey() != key {
			continue
		}
		if now.Sub(q.entries[i].enqueuedAt) <= q.dedupWindow {
			q.entries[i] = queuedEvent{event: event, enqueuedAt: now}
			q.sortLocked()
			return AddReplaced
		}
	}

	if len(q.entries) >= q.maxDepth && event.Priority == types.PriorityLow {
		return AddDropped
	}

	q.entries = append(q.entries, queuedEvent{event: event, enqueuedAt: now})
	q.sortLocked()
	return AddQueued
}

// sortLocked reorders the queue: priority ascending, then event
// timestamp ascending. Caller holds q.mu.
func (q *eventQueue) sortLocked() {
	sort.SliceStable(q.entries, func(i, j int) bool {
		pi, pj := q.entries[i].event.Priority.Rank(), q.entries[j].event.Priority.Rank()
		if pi != pj {
			return pi < pj
		}
		return q.entries[i].event.Timestamp.Before(q.entries[j].event.Timestamp)
	})
}

// PopBatch removes and returns up to n events in queue order
func (q *eventQueue) PopBatch(n int) []*types.SyncEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n > len(q.entries) {
		n = len(q.entries)
	}
	if n == 0 {
		return nil
	}

	batch := make([]*types.SyncEvent, n)
	for i := 0; i < n; i++ {
		batch[i] = q.entries[i].event
	}
	q.entries = append(q.entries[:0], q.entries[n:]...)
	return batch
}

// Len returns the number of queued events
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
