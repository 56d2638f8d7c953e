/*
Package types defines the core data structures used throughout CrewSync.

This package contains all fundamental types that represent CrewSync's domain
model: sync events and their typed payloads, client connections, pending
updates, engine metrics, and the inbound mutation notifications the
change-source listener consumes. These types are used by every other package
and carry no behavior beyond small accessors.

# Core Types

  - SyncEvent: a normalized record of one change to a tracked entity,
    carrying a type, source, priority, and a typed ChangeDetails payload
  - ChangeDetails: a tagged union keyed by event type (ScheduleChange,
    MemberUpdate, SprintUpdate, TeamDataChange)
  - ClientConnection: liveness metadata for one registered consumer
  - PendingUpdate: a failed event awaiting retry
  - SyncMetrics / SyncStatusReport: raw counters and the computed health view
  - Mutation: an inbound change notification from a watched stream

All wire-crossing types are JSON-serializable; priorities sort via Rank so
critical events always drain first.
*/
package types
