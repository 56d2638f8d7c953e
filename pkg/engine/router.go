package engine

import (
	"context"
	"fmt"

	"github.com/crewsync/crewsync/pkg/cache"
	"github.com/crewsync/crewsync/pkg/types"
)

// invalidateForEvent maps an event type to the cache namespaces it
// must flush. Invalidation is idempotent; absent keys are a no-op.
// Every cache call runs under the configured per-call timeout so a
// hung store settles the event as a failure instead of stalling the
// batch loop.
//
//	schedule_change   entity entry + parent scope aggregate + global summary
//	member_update     scope aggregate + global summary
//	sprint_update     all period-derived and calculation caches + global summary
//	team_data_change  scope aggregate + global summary
func (e *Engine) invalidateForEvent(event *types.SyncEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.CallTimeout)
	defer cancel()

	switch event.Type {
	case types.EventScheduleChange:
		if err := e.cache.InvalidateEntry(ctx, cache.NamespaceScheduleEntries, event.EntityID); err != nil {
			return err
		}
		if scope := scopeFor(event); scope != "" {
			if err := e.cache.InvalidateEntry(ctx, cache.NamespaceTeamAggregates, scope); err != nil {
				return err
			}
		}
		return e.cache.InvalidateEntry(ctx, cache.NamespaceSummary, cache.KeyGlobalSummary)

	case types.EventMemberUpdate, types.EventTeamDataChange:
		if scope := scopeFor(event); scope != "" {
			if err := e.cache.InvalidateEntry(ctx, cache.NamespaceTeamAggregates, scope); err != nil {
				return err
			}
		}
		return e.cache.InvalidateEntry(ctx, cache.NamespaceSummary, cache.KeyGlobalSummary)

	case types.EventSprintUpdate:
		// Sprint boundaries feed every period-derived result, so
		// the blast radius is the whole system.
		if err := e.cache.ClearByPattern(ctx, "sprint_*"); err != nil {
			return err
		}
		if err := e.cache.ClearByPattern(ctx, "calc_*"); err != nil {
			return err
		}
		return e.cache.InvalidateEntry(ctx, cache.NamespaceSummary, cache.KeyGlobalSummary)

	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}
}

// recalculateForEvent asks the calculation layer to recompute the
// aggregates the event touched. Errors propagate so the event
// participates in retry.
func (e *Engine) recalculateForEvent(event *types.SyncEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.CallTimeout)
	defer cancel()

	switch event.Type {
	case types.EventSprintUpdate:
		// Everything derived from the period changed; rebuild the
		// critical caches wholesale.
		return e.calculator.WarmupCaches(ctx)

	default:
		if scope := scopeFor(event); scope != "" {
			if err := e.calculator.RecomputeScopeAggregate(ctx, scope); err != nil {
				return err
			}
		}
		return e.calculator.RecomputeGlobalTotals(ctx)
	}
}

// scopeFor extracts the owning scope (team) from an event's typed
// payload, falling back to the affected entity for team-level events
func scopeFor(event *types.SyncEvent) string {
	switch d := event.Details.(type) {
	case types.ScheduleChange:
		return d.TeamID
	case types.MemberUpdate:
		return d.TeamID
	case types.TeamDataChange:
		return d.TeamID
	default:
		if event.EntityType == types.EntityTeam {
			return event.EntityID
		}
		return ""
	}
}
