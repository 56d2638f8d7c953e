package engine

import (
	"errors"
	"fmt"
)

// ProcessingStage identifies which collaborator a per-event failure
// came from
type ProcessingStage string

const (
	StageCacheInvalidation ProcessingStage = "cache_invalidation"
	StageRecalculation     ProcessingStage = "recalculation"
	StageBroadcast         ProcessingStage = "broadcast"
)

// ProcessingError is a transient per-event failure from cache
// invalidation or recalculation. It parks the event as a pending
// update and is retried by the health monitor.
type ProcessingError struct {
	Stage   ProcessingStage
	EventID string
	Err     error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("event %s failed at %s: %v", e.EventID, e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// ErrConsistencyNotConfigured is returned by the consistency check
// when no checker was wired in
var ErrConsistencyNotConfigured = errors.New("engine: consistency checker not configured")
