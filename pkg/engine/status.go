package engine

import (
	"context"
	"math"
	"time"

	"github.com/crewsync/crewsync/pkg/metrics"
	"github.com/crewsync/crewsync/pkg/types"
)

// divergenceEpsilon bounds acceptable float drift between the two
// consistency-check paths
const divergenceEpsilon = 1e-3

// ValidateSyncStatus computes the engine's health view from the raw
// counters and live structures
func (e *Engine) ValidateSyncStatus() types.SyncStatusReport {
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

	return types.SyncStatusReport{
		ConnectedClients:      e.registry.Count(),
		PendingUpdates:        pendingCount,
		QueueDepth:            e.queue.Len(),
		SyncLag:               lag,
		LastSyncEvent:         m.LastSyncTimestamp,
		AverageProcessingTime: m.AverageProcessingTime,
		ErrorRate:             errorRate,
	}
}

// ForceSynchronization clears every cache, re-warms the critical
// entries, and tells all consumers to refresh. Never panics; the
// return value is the only failure signal.
func (e *Engine) ForceSynchronization() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Msg("force synchronization panicked")
			ok = false
		}
		if ok {
			metrics.ForceSyncsTotal.WithLabelValues("success").Inc()
		} else {
			metrics.ForceSyncsTotal.WithLabelValues("failure").Inc()
		}
	}()

	e.logger.Info().Msg("force synchronization requested")

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.CallTimeout)
	defer cancel()

	if err := e.cache.ClearAll(ctx); err != nil {
		e.logger.Error().Err(err).Msg("force sync: cache clear failed")
		return false
	}

	if err := e.calculator.WarmupCaches(ctx); err != nil {
		e.logger.Error().Err(err).Msg("force sync: cache warmup failed")
		return false
	}

	payload := &types.SyncEvent{
		Type:       types.EventTeamDataChange,
		Source:     types.SourceSystem,
		EntityType: types.EntityTeam,
		Timestamp:  e.clock.Now(),
		Priority:   types.PriorityCritical,
	}
	if err := e.transport.Send(ChannelSyncEvents, EventNameForceRefresh, payload); err != nil {
		e.logger.Error().Err(err).Msg("force sync: refresh broadcast failed")
		return false
	}

	return true
}

// ValidateConsistency compares the company-wide total computed via the
// cache against an independent recomputation. Divergence is reported,
// not thrown.
func (e *Engine) ValidateConsistency(ctx context.Context) (types.ConsistencyReport, error) {
	if e.consistency == nil {
		return types.ConsistencyReport{}, ErrConsistencyNotConfigured
	}

	recomputed, err := e.consistency.ComputeGlobalTotals(ctx)
	if err != nil {
		return types.ConsistencyReport{}, err
	}

	report := types.ConsistencyReport{
		Metric:     "global_total_capacity",
		Recomputed: recomputed.TotalCapacity,
		CheckedAt:  e.clock.Now(),
	}

	cached, found, err := e.consistency.CachedGlobalTotals(ctx)
	if err != nil {
		return types.ConsistencyReport{}, err
	}
	if !found {
		// Nothing cached counts as divergent; reconciliation
		// repopulates it.
		report.Divergent = true
		return report, nil
	}

	report.Cached = cached.TotalCapacity
	report.Divergent = math.Abs(cached.TotalCapacity-recomputed.TotalCapacity) > divergenceEpsilon
	if report.Divergent {
		e.logger.Warn().
			Float64("cached", report.Cached).
			Float64("recomputed", report.Recomputed).
			Msg("consistency divergence detected")
	}
	return report, nil
}

// ReconcileConsistency resolves a detected divergence: clear the
// caches, re-warm, and validate again
func (e *Engine) ReconcileConsistency(ctx context.Context) (types.ConsistencyReport, error) {
	if e.consistency == nil {
		return types.ConsistencyReport{}, ErrConsistencyNotConfigured
	}

	if !e.ForceSynchronization() {
		e.logger.Warn().Msg("reconciliation force sync reported failure")
	}
	return e.ValidateConsistency(ctx)
}
