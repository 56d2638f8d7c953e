package engine

import (
	"time"

	"github.com/crewsync/crewsync/pkg/metrics"
	"github.com/crewsync/crewsync/pkg/types"
)

// RunHealthPass runs one health monitor tick: purge stale consumer
// connections, retry parked events, and report lag and error rate.
// Exported so tests can drive the monitor deterministically.
func (e *Engine) RunHealthPass() {
	e.purgeStaleConnections()
	e.retryPendingUpdates()
	e.reportHealth()
}

func (e *Engine) purgeStaleConnections() {
	purged := e.registry.PurgeStale(e.cfg.StaleConnectionAge)
	for _, id := range purged {
		metrics.StaleConnectionsPurged.Inc()
		e.logger.Info().Str("client_id", id).Msg("purged stale connection")
	}
	metrics.ConnectedClients.Set(float64(e.registry.Count()))
}

// retryPendingUpdates re-runs the full per-event pipeline for every
// parked event. An update is dropped as unrecoverable once its retry
// budget is spent or its age passes the expiry deadline, whichever
// trips first.
func (e *Engine) retryPendingUpdates() {
	expiry := e.cfg.SyncTimeout * time.Duration(e.cfg.MaxRetryAttempts)
	now := e.clock.Now()

	e.mu.Lock()
	snapshot := make([]*types.PendingUpdate, 0, len(e.pending))
	for _, p := range e.pending {
		snapshot = append(snapshot, p)
	}
	e.mu.Unlock()

	for _, p := range snapshot {
		event := p.Event

		if p.Attempts >= e.cfg.MaxRetryAttempts || now.Sub(event.Timestamp) > expiry {
			e.mu.Lock()
			delete(e.pending, event.ID)
			pendingCount := len(e.pending)
			e.mu.Unlock()

			metrics.RetryPurges.Inc()
			metrics.PendingUpdates.Set(float64(pendingCount))
			e.logger.Error().
				Str("event_id", event.ID).
				Str("type", string(event.Type)).
				Int("attempts", p.Attempts).
				Dur("age", now.Sub(event.Timestamp)).
				Str("last_error", p.LastError).
				Msg("pending update unrecoverable, dropped")
			continue
		}

		e.mu.Lock()
		p.Attempts++
		e.mu.Unlock()
		metrics.RetriesTotal.Inc()

		start := e.clock.Now()
		err := e.processEvent(event)
		e.completeEvent(event, e.clock.Now().Sub(start), err)
		if err == nil {
			e.logger.Info().
				Str("event_id", event.ID).
				Int("attempts", p.Attempts).
				Msg("pending update retried successfully")
		}
	}
}

func (e *Engine) reportHealth() {
	e.mu.Lock()
	m := e.syncMetrics
	pendingCount := len(e.pending)
	e.mu.Unlock()

	var lag time.Duration
	if !m.LastSyncTimestamp.IsZero() {
		lag = e.clock.Now().Sub(m.LastSyncTimestamp)
	}

	var errorRate float64
	if m.TotalEvents > 0 {
		errorRate = float64(m.FailedSyncs) / float64(m.TotalEvents)
	}

	metrics.SyncLagSeconds.Set(lag.Seconds())
	metrics.ErrorRate.Set(errorRate)

	if lag > e.cfg.SyncTimeout {
		e.logger.Warn().
			Dur("sync_lag", lag).
			Msg("sync lag exceeds timeout")
	}
	if errorRate > 0.10 {
		e.logger.Warn().
			Float64("error_rate", errorRate).
			Int64("failed", m.FailedSyncs).
			Int64("total", m.TotalEvents).
			Msg("error rate above threshold")
		metrics.UpdateComponent("engine", false, "error rate above threshold")
	} else {
		metrics.UpdateComponent("engine", true, "")
	}

	e.logger.Debug().
		Int("pending", pendingCount).
		Int("queued", e.queue.Len()).
		Int("clients", e.registry.Count()).
		Dur("sync_lag", lag).
		Float64("error_rate", errorRate).
		Msg("health pass complete")
}
