package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/crewsync/crewsync/pkg/cache"
	"github.com/crewsync/crewsync/pkg/calc"
	"github.com/crewsync/crewsync/pkg/config"
	"github.com/crewsync/crewsync/pkg/events"
	"github.com/crewsync/crewsync/pkg/log"
	"github.com/crewsync/crewsync/pkg/metrics"
	"github.com/crewsync/crewsync/pkg/registry"
	"github.com/crewsync/crewsync/pkg/types"
)

// ChannelSyncEvents is the broadcast channel consumers subscribe to
// for sync notifications
const ChannelSyncEvents = "sync_events"

// Broadcast event names
const (
	EventNameSync         = "sync"
	EventNameForceRefresh = "force_refresh"
)

// ConsistencyChecker computes the same derived metric via two
// independent paths so the engine can compare them
type ConsistencyChecker interface {
	CachedGlobalTotals(ctx context.Context) (calc.GlobalTotals, bool, error)
	ComputeGlobalTotals(ctx context.Context) (calc.GlobalTotals, error)
}

// Options wires the engine's collaborators
type Options struct {
	Config      config.EngineConfig
	Cache       cache.Cache
	Calculator  calc.Calculator
	Transport   events.Transport
	Registry    *registry.Registry
	Consistency ConsistencyChecker // optional
	Clock       Clock              // optional, defaults to SystemClock
}

// Engine is the event synchronization engine. It owns the event
// queue, the pending-update map, the connection registry, and the
// processing metrics; collaborators are invoked but never mutate this
// state directly.
type Engine struct {
	cfg         config.EngineConfig
	cache       cache.Cache
	calculator  calc.Calculator
	transport   events.Transport
	registry    *registry.Registry
	consistency ConsistencyChecker
	clock       Clock
	logger      zerolog.Logger

	queue *eventQueue

	mu          sync.Mutex // guards pending and syncMetrics
	pending     map[string]*types.PendingUpdate
	syncMetrics types.SyncMetrics

	// isProcessing prevents two overlapping batch runs
	isProcessing atomic.Bool

	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
	startMu sync.Mutex
}

// New creates a sync engine from the given options
func New(opts Options) (*Engine, error) {
	if opts.Cache == nil {
		return nil, fmt.Errorf("engine: cache is required")
	}
	if opts.Calculator == nil {
		return nil, fmt.Errorf("engine: calculator is required")
	}
	if opts.Transport == nil {
		return nil, fmt.Errorf("engine: transport is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("engine: registry is required")
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Config.BatchSize == 0 {
		opts.Config = config.Default().Engine
	}

	return &Engine{
		cfg:         opts.Config,
		cache:       opts.Cache,
		calculator:  opts.Calculator,
		transport:   opts.Transport,
		registry:    opts.Registry,
		consistency: opts.Consistency,
		clock:       opts.Clock,
		logger:      log.WithComponent("engine"),
		queue:       newEventQueue(opts.Config.DedupWindow, opts.Config.MaxQueueDepth),
		pending:     make(map[string]*types.PendingUpdate),
		stopCh:      make(chan struct{}),
	}, nil
}

// Start launches the batch processor and health monitor loops
func (e *Engine) Start() {
	e.startMu.Lock()
	defer e.startMu.Unlock()
	if e.started {
		return
	}
	e.started = true
	e.stopCh = make(chan struct{})

	e.wg.Add(2)
	go e.batchLoop()
	go e.healthLoop()

	metrics.RegisterComponent("engine", true, "")
	e.logger.Info().
		Int("batch_size", e.cfg.BatchSize).
		Dur("batch_interval", e.cfg.BatchInterval).
		Dur("health_interval", e.cfg.HealthInterval).
		Msg("sync engine started")
}

// Stop halts the periodic loops. Queued events are discarded; callers
// that need a clean drain should stop feeding events first.
func (e *Engine) Stop() {
	e.startMu.Lock()
	defer e.startMu.Unlock()
	if !e.started {
		return
	}
	e.started = false

	close(e.stopCh)
	e.wg.Wait()
	e.logger.Info().Msg("sync engine stopped")
}

func (e *Engine) batchLoop() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.BatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.ProcessBatch()
		case <-e.stopCh:
			return
		}
	}
}

func (e *Engine) healthLoop() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.RunHealthPass()
		case <-e.stopCh:
			return
		}
	}
}

// AddEvent enqueues a sync event, filling in the ID, timestamp, and
// priority when the producer left them empty
func (e *Engine) AddEvent(event *types.SyncEvent) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = e.clock.Now()
	}
	if event.Priority == "" {
		event.Priority = DefaultPriority(event.Type)
	}

	switch e.queue.Add(event, e.clock.Now()) {
	case AddReplaced:
		metrics.EventsDeduplicated.Inc()
		e.logger.Debug().
			Str("event_id", event.ID).
			Str("entity_id", event.EntityID).
			Msg("replaced queued duplicate")
	case AddDropped:
		metrics.EventsDropped.Inc()
		e.logger.Warn().
			Str("event_id", event.ID).
			Str("type", string(event.Type)).
			Msg("queue full, dropped low priority event")
	}
	metrics.QueueDepth.Set(float64(e.queue.Len()))
}

// OnEntityChange is the manual trigger for application-initiated
// mutations outside the watched streams. Ingestion is fire-and-forget;
// failures surface only through the metrics and status APIs.
func (e *Engine) OnEntityChange(entityID, changeKind string) {
	e.AddEvent(&types.SyncEvent{
		Type:       types.EventTeamDataChange,
		Source:     types.SourceSystem,
		EntityID:   entityID,
		EntityType: types.EntityTeam,
		Details:    types.TeamDataChange{TeamID: entityID, ChangeKind: changeKind},
		Priority:   types.PriorityHigh,
	})
}

// RegisterClient records a consumer session
func (e *Engine) RegisterClient(id string, clientType types.ClientType, scope, principal string) types.ClientConnection {
	conn := e.registry.Register(id, clientType, scope, principal)
	metrics.ConnectedClients.Set(float64(e.registry.Count()))
	lgr := log.WithClientID(id)
	lgr.Info().
		Str("type", string(clientType)).
		Str("scope", scope).
		Msg("client registered")
	return conn
}

// UpdateClientActivity refreshes a consumer's liveness timestamp
func (e *Engine) UpdateClientActivity(id string) {
	if !e.registry.Touch(id) {
		lgr := log.WithClientID(id)
		lgr.Debug().Msg("activity ping for unknown client")
	}
}

// UnregisterClient removes a consumer session
func (e *Engine) UnregisterClient(id string) {
	if e.registry.Unregister(id) {
		lgr := log.WithClientID(id)
		lgr.Info().Msg("client unregistered")
	}
	metrics.ConnectedClients.Set(float64(e.registry.Count()))
}

// GetSyncMetrics returns a snapshot of the raw processing counters
func (e *Engine) GetSyncMetrics() types.SyncMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncMetrics
}

// QueueDepth returns the number of events waiting in the queue
func (e *Engine) QueueDepth() int {
	return e.queue.Len()
}

// DefaultPriority maps an event type to its queue priority. Sprint
// updates invalidate every period-derived cache, so they preempt
// everything else.
func DefaultPriority(t types.EventType) types.Priority {
	switch t {
	case types.EventSprintUpdate:
		return types.PriorityCritical
	case types.EventScheduleChange, types.EventTeamDataChange:
		return types.PriorityHigh
	case types.EventMemberUpdate:
		return types.PriorityMedium
	default:
		return types.PriorityLow
	}
}
