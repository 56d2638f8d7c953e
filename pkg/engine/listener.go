package engine

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/crewsync/crewsync/pkg/events"
	"github.com/crewsync/crewsync/pkg/log"
	"github.com/crewsync/crewsync/pkg/types"
)

// Listener adapts inbound mutation notifications into sync events and
// feeds the engine's queue. It also watches the cross-process
// broadcast stream; if that subscription drops, it resubscribes after
// a fixed delay, during which only local notifications are observed.
type Listener struct {
	engine    *Engine
	transport events.Transport
	delay     time.Duration
	logger    zerolog.Logger
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewListener creates a change-source listener for the engine
func NewListener(e *Engine, transport events.Transport, resubscribeDelay time.Duration) *Listener {
	return &Listener{
		engine:    e,
		transport: transport,
		delay:     resubscribeDelay,
		logger:    log.WithComponent("listener"),
		stopCh:    make(chan struct{}),
	}
}

// Start begins watching the cross-process broadcast stream
func (l *Listener) Start() {
	l.wg.Add(1)
	go l.run()
}

// Stop halts the broadcast-stream watcher. HandleMutation remains
// usable until the engine itself stops.
func (l *Listener) Stop() {
	close(l.stopCh)
	l.wg.Wait()
}

func (l *Listener) run() {
	defer l.wg.Done()

	for {
		sub, err := l.transport.Subscribe(types.StreamBroadcast)
		if err != nil {
			l.logger.Warn().Err(err).Msg("broadcast stream subscribe failed")
			if !l.sleep() {
				return
			}
			continue
		}

		if !l.consume(sub) {
			return
		}

		// Subscription dropped; cross-process notifications are
		// missed until the resubscribe lands.
		l.logger.Warn().
			Dur("delay", l.delay).
			Msg("broadcast stream dropped, resubscribing")
		if !l.sleep() {
			return
		}
	}
}

// consume drains one subscription. Returns false when the listener is
// stopping, true when the subscription dropped and a resubscribe is
// due.
func (l *Listener) consume(sub *events.Subscription) bool {
	for {
		select {
		case msg := <-sub.C():
			l.handleBroadcast(msg)
		case <-sub.Done():
			return true
		case <-l.stopCh:
			sub.Unsubscribe()
			return false
		}
	}
}

func (l *Listener) sleep() bool {
	select {
	case <-time.After(l.delay):
		return true
	case <-l.stopCh:
		return false
	}
}

// handleBroadcast ingests a sync event relayed from another process
func (l *Listener) handleBroadcast(msg events.Message) {
	event, ok := msg.Payload.(*types.SyncEvent)
	if !ok {
		l.logger.Debug().Str("name", msg.Name).Msg("ignored non-event broadcast payload")
		return
	}
	l.engine.AddEvent(event)
}

// HandleMutation converts a store-level change notification into a
// sync event. Unknown streams are ignored; ingestion never fails back
// to the notifier.
func (l *Listener) HandleMutation(m types.Mutation) {
	id := recordID(m)
	if id == "" {
		l.logger.Debug().Str("stream", m.Stream).Msg("mutation without record id, ignored")
		return
	}

	switch m.Stream {
	case types.StreamSchedules:
		l.engine.AddEvent(&types.SyncEvent{
			Type:       types.EventScheduleChange,
			Source:     types.SourceSystem,
			EntityID:   id,
			EntityType: types.EntityScheduleEntry,
			Details: types.ScheduleChange{
				EntryID:  id,
				MemberID: recordField(m, "member_id"),
				TeamID:   recordField(m, "team_id"),
			},
			Priority: types.PriorityHigh,
		})

	case types.StreamMembers:
		l.engine.AddEvent(&types.SyncEvent{
			Type:       types.EventMemberUpdate,
			Source:     types.SourceSystem,
			EntityID:   id,
			EntityType: types.EntityMember,
			Details: types.MemberUpdate{
				MemberID:  id,
				TeamID:    recordField(m, "team_id"),
				Operation: memberOperation(m.Operation),
			},
			Priority: types.PriorityMedium,
		})

	case types.StreamSprints:
		l.engine.AddEvent(&types.SyncEvent{
			Type:       types.EventSprintUpdate,
			Source:     types.SourceSystem,
			EntityID:   id,
			EntityType: types.EntitySprint,
			Details:    types.SprintUpdate{SprintID: id},
			Priority:   types.PriorityCritical,
		})

	default:
		lgr := log.WithStream(m.Stream)
		lgr.Debug().Msg("mutation on unwatched stream, ignored")
	}
}

// recordID pulls the entity ID from whichever record side the
// operation carries
func recordID(m types.Mutation) string {
	if id := m.NewRecord["id"]; id != "" {
		return id
	}
	return m.OldRecord["id"]
}

func recordField(m types.Mutation, field string) string {
	if v := m.NewRecord[field]; v != "" {
		return v
	}
	return m.OldRecord[field]
}

func memberOperation(op types.MutationOp) string {
	switch op {
	case types.MutationInsert:
		return "joined"
	case types.MutationDelete:
		return "left"
	default:
		return "role_changed"
	}
}
