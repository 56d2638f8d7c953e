/*
Package cache provides the namespaced cache store the sync engine invalidates.

Cached aggregates live in named namespaces (one BoltDB bucket per namespace):
per-entity schedule entries, per-team aggregates, the global summary, and the
sprint-derived calculation results. The engine's invalidation router maps each
sync event type to the namespaces it must touch.

Invalidation is idempotent: removing an absent key or namespace is a no-op.
ClearByPattern accepts glob patterns ("sprint_*") and resets whole namespaces,
which is what a sprint settings change uses to flush every period-derived
result at once.
*/
package cache
