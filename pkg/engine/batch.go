package engine

import (
	"fmt"
	"time"

	"github.com/crewsync/crewsync/pkg/log"
	"github.com/crewsync/crewsync/pkg/metrics"
	"github.com/crewsync/crewsync/pkg/types"
)

// ProcessBatch runs one batch processor tick: drain up to BatchSize
// events and drive each through invalidation, recalculation, and
// broadcast. Every event settles independently; one failure never
// prevents the rest of the batch from completing.
//
// A no-op when a previous run is still in flight or the queue is
// empty. Exported so tests and operational tooling can tick the
// processor without waiting on the interval.
func (e *Engine) ProcessBatch() {
	if !e.isProcessing.CompareAndSwap(false, true) {
		return
	}
	defer e.isProcessing.Store(false)

	batch := e.queue.PopBatch(e.cfg.BatchSize)
	if len(batch) == 0 {
		return
	}
	metrics.QueueDepth.Set(float64(e.queue.Len()))
	metrics.BatchesProcessed.Inc()

	for _, event := range batch {
		start := e.clock.Now()
		err := e.processEvent(event)
		e.completeEvent(event, e.clock.Now().Sub(start), err)
	}
}

// processEvent runs the per-event pipeline: (a) invalidate caches,
// (b) trigger recalculation, (c) broadcast. Broadcast failures are
// logged and swallowed; the first failure from (a) or (b) aborts the
// pipeline and parks the event for retry. Panics from collaborators
// settle as failures so sibling events keep processing.
func (e *Engine) processEvent(event *types.SyncEvent) (err error) {
	stage := StageCacheInvalidation
	defer func() {
		if r := recover(); r != nil {
			err = &ProcessingError{
				Stage:   stage,
				EventID: event.ID,
				Err:     fmt.Errorf("panic: %v", r),
			}
		}
	}()

	if cerr := e.invalidateForEvent(event); cerr != nil {
		return &ProcessingError{Stage: StageCacheInvalidation, EventID: event.ID, Err: cerr}
	}

	stage = StageRecalculation
	if rerr := e.recalculateForEvent(event); rerr != nil {
		return &ProcessingError{Stage: StageRecalculation, EventID: event.ID, Err: rerr}
	}

	stage = StageBroadcast
	e.broadcastEvent(event)
	return nil
}

// broadcastEvent publishes the normalized notification to every
// connected consumer. Best-effort: transport failures do not feed the
// retry mechanism.
func (e *Engine) broadcastEvent(event *types.SyncEvent) {
	if err := e.transport.Send(ChannelSyncEvents, EventNameSync, event); err != nil {
		metrics.BroadcastFailures.Inc()
		lgr := log.WithEventID(event.ID)
		lgr.Warn().Err(err).Msg("broadcast delivery failed")
	}
}

// completeEvent applies the per-event accounting regardless of
// outcome. Failed events are parked as pending updates for the health
// monitor; a later successful retry flows back through here and clears
// the parked entry.
func (e *Engine) completeEvent(event *types.SyncEvent, duration time.Duration, procErr error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.syncMetrics.TotalEvents++
	e.syncMetrics.LastSyncTimestamp = e.clock.Now()

	if procErr != nil {
		e.syncMetrics.FailedSyncs++
		metrics.EventsProcessed.WithLabelValues("failure").Inc()

		if existing, ok := e.pending[event.ID]; ok {
			existing.LastError = procErr.Error()
		} else {
			e.pending[event.ID] = &types.PendingUpdate{
				Event:     event,
				FirstSeen: event.Timestamp,
				LastError: procErr.Error(),
			}
		}
		metrics.PendingUpdates.Set(float64(len(e.pending)))

		lgr := log.WithEventID(event.ID)
		lgr.Warn().
			Err(procErr).
			Str("type", string(event.Type)).
			Msg("event processing failed, parked for retry")
		return
	}

	delete(e.pending, event.ID)
	metrics.PendingUpdates.Set(float64(len(e.pending)))

	e.syncMetrics.SuccessfulSyncs++
	n := e.syncMetrics.SuccessfulSyncs
	prev := e.syncMetrics.AverageProcessingTime
	e.syncMetrics.AverageProcessingTime = time.Duration((int64(prev)*(n-1) + int64(duration)) / n)

	metrics.EventsProcessed.WithLabelValues("success").Inc()
	metrics.ProcessingDuration.Observe(duration.Seconds())
}
