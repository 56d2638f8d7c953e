package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewsync/crewsync/pkg/types"
)

func TestHandleMutationMapping(t *testing.T) {
	tests := []struct {
		name         string
		mutation     types.Mutation
		wantType     types.EventType
		wantPriority types.Priority
		wantEntity   string
	}{
		{
			name: "schedule entry update",
			mutation: types.Mutation{
				Stream:    types.StreamSchedules,
				Operation: types.MutationUpdate,
				NewRecord: map[string]string{"id": "entry-1", "team_id": "team-1"},
			},
			wantType:     types.EventScheduleChange,
			wantPriority: types.PriorityHigh,
			wantEntity:   "entry-1",
		},
		{
			name: "member insert",
			mutation: types.Mutation{
				Stream:    types.StreamMembers,
				Operation: types.MutationInsert,
				NewRecord: map[string]string{"id": "member-7", "team_id": "team-2"},
			},
			wantType:     types.EventMemberUpdate,
			wantPriority: types.PriorityMedium,
			wantEntity:   "member-7",
		},
		{
			name: "member delete uses old record",
			mutation: types.Mutation{
				Stream:    types.StreamMembers,
				Operation: types.MutationDelete,
				OldRecord: map[string]string{"id": "member-8", "team_id": "team-2"},
			},
			wantType:     types.EventMemberUpdate,
			wantPriority: types.PriorityMedium,
			wantEntity:   "member-8",
		},
		{
			name: "sprint settings change is critical",
			mutation: types.Mutation{
				Stream:    types.StreamSprints,
				Operation: types.MutationUpdate,
				NewRecord: map[string]string{"id": "sprint-3"},
			},
			wantType:     types.EventSprintUpdate,
			wantPriority: types.PriorityCritical,
			wantEntity:   "sprint-3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestEngine(t)
			l := NewListener(f.engine, f.transport, time.Millisecond)

			l.HandleMutation(tt.mutation)
			require.Equal(t, 1, f.engine.QueueDepth())

			batch := f.engine.queue.PopBatch(1)
			require.Len(t, batch, 1)
			assert.Equal(t, tt.wantType, batch[0].Type)
			assert.Equal(t, tt.wantPriority, batch[0].Priority)
			assert.Equal(t, tt.wantEntity, batch[0].EntityID)
			assert.Equal(t, types.SourceSystem, batch[0].Source)
		})
	}
}

func TestHandleMutationIgnoresUnknownStream(t *testing.T) {
	f := newTestEngine(t)
	l := NewListener(f.engine, f.transport, time.Millisecond)

	l.HandleMutation(types.Mutation{
		Stream:    "audit_log",
		Operation: types.MutationInsert,
		NewRecord: map[string]string{"id": "x"},
	})
	l.HandleMutation(types.Mutation{
		Stream:    types.StreamSchedules,
		Operation: types.MutationInsert,
	})

	assert.Zero(t, f.engine.QueueDepth())
}

func TestListenerRelaysBroadcastStream(t *testing.T) {
	f := newTestEngine(t)
	l := NewListener(f.engine, f.transport, 10*time.Millisecond)

	l.Start()
	defer l.Stop()

	// Give the listener a beat to subscribe before publishing.
	require.Eventually(t, func() bool {
		return f.transport.getBroker().SubscriberCount(types.StreamBroadcast) == 1
	}, time.Second, time.Millisecond)

	remote := &types.SyncEvent{
		ID:       "remote-1",
		Type:     types.EventScheduleChange,
		Source:   types.SourceViewB,
		EntityID: "entry-9",
		Priority: types.PriorityHigh,
	}
	require.NoError(t, f.transport.getBroker().Send(types.StreamBroadcast, EventNameSync, remote))

	assert.Eventually(t, func() bool {
		return f.engine.QueueDepth() == 1
	}, time.Second, time.Millisecond)
}

func TestListenerResubscribesAfterDrop(t *testing.T) {
	f := newTestEngine(t)
	l := NewListener(f.engine, f.transport, 10*time.Millisecond)

	l.Start()
	defer l.Stop()

	require.Eventually(t, func() bool {
		return f.transport.getBroker().SubscriberCount(types.StreamBroadcast) == 1
	}, time.Second, time.Millisecond)

	// Drop every subscription; the listener should come back on its
	// own after the resubscribe delay.
	old := f.transport.getBroker()
	old.Stop()

	// A stopped broker rejects resubscription, so swap in a fresh
	// one to simulate the channel recovering.
	fresh := newFakeTransport(t)
	f.transport.setBroker(fresh.getBroker())

	assert.Eventually(t, func() bool {
		return f.transport.getBroker().SubscriberCount(types.StreamBroadcast) == 1
	}, 2*time.Second, 5*time.Millisecond)
}
