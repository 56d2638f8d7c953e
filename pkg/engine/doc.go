/*
Package engine implements CrewSync's event synchronization engine.

The engine keeps derived and cached aggregates consistent across independent
consumers whenever a tracked entity changes. It captures change events,
coalesces duplicates, orders work by priority, processes batches
asynchronously with per-event failure isolation, cascades cache
invalidation into recalculation and broadcast, and continuously monitors
its own lag and error rate.

# Architecture

	┌─────────────────── SYNC ENGINE ───────────────────────────┐
	│                                                           │
	│  Mutation streams ─┐                                      │
	│  OnEntityChange ───┼──► Event Queue (dedup + priority)    │
	│  Broadcast relay ──┘            │                         │
	│                                 ▼  every 1s               │
	│                       Batch Processor (≤10 events)        │
	│                                 │                         │
	│              ┌──────────────────┼──────────────────┐      │
	│              ▼                  ▼                  ▼      │
	│     Cache Invalidation    Recalculation       Broadcast   │
	│              │                  │            (best-effort)│
	│              └───── failure ────┘                         │
	│                        ▼                                  │
	│                 Pending Updates ◄── retried every 60s     │
	│                        │            by Health Monitor     │
	│                        ▼                                  │
	│              dropped once retry budget                    │
	│              or age deadline is spent                     │
	│                                                           │
	└───────────────────────────────────────────────────────────┘

# Ownership

The event queue, pending-update map, connection registry, and metrics are
owned exclusively by the engine. The cache, calculation, and transport
collaborators are invoked but never given write access to this state.

# Failure handling

A cache or recalculation failure parks the event as a pending update and is
retried on the health monitor tick. Broadcast failures are logged and
swallowed: delivery is best-effort and missed notifications are repaired by
the consumer's next fetch. ForceSynchronization never panics out to its
caller; it returns false on any internal failure.

# Determinism

The engine takes an injectable Clock, and the batch and health passes are
exported (ProcessBatch, RunHealthPass), so tests advance time and tick the
loops directly instead of sleeping.
*/
package engine
