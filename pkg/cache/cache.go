package cache

import "context"

// Cache namespaces used by the sync engine. Each namespace maps to its
// own bucket in the backing store.
const (
	NamespaceScheduleEntries = "schedule_entries"
	NamespaceTeamAggregates  = "team_aggregates"
	NamespaceSummary         = "summary"
	NamespaceSprintDerived   = "sprint_derived"
	NamespaceCalculations    = "calc_results"
)

// Well-known keys inside the summary namespace
const (
	KeyGlobalSummary = "global"
)

// Cache defines the invalidation and lookup surface the sync engine
// drives. Implemented by the BoltDB-backed store. Every operation
// takes a context and must return once it is cancelled, so a hung
// store cannot wedge the caller's processing loop.
type Cache interface {
	// Put stores a value under namespace/key
	Put(ctx context.Context, namespace, key string, value []byte) error

	// Get returns the value under namespace/key. The bool reports
	// whether the key was present.
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)

	// InvalidateEntry removes one cached entry. Removing an absent
	// key or namespace is a no-op, never an error.
	InvalidateEntry(ctx context.Context, namespace, key string) error

	// ClearByPattern drops every namespace whose name matches the
	// glob pattern (e.g. "sprint_*")
	ClearByPattern(ctx context.Context, pattern string) error

	// ClearAll drops every cached entry in every namespace
	ClearAll(ctx context.Context) error

	Close() error
}
