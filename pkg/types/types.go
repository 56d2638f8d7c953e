package types

import (
	"time"
)

// EventType classifies a sync event by the kind of change it describes
type EventType string

const (
	EventScheduleChange EventType = "schedule_change"
	EventMemberUpdate   EventType = "member_update"
	EventSprintUpdate   EventType = "sprint_update"
	EventTeamDataChange EventType = "team_data_change"
)

// EventSource identifies which surface produced a sync event
type EventSource string

const (
	SourceViewA  EventSource = "view_a"
	SourceViewB  EventSource = "view_b"
	SourceSystem EventSource = "system"
)

// EntityType identifies the kind of entity a sync event affects
type EntityType string

const (
	EntityScheduleEntry EntityType = "schedule_entry"
	EntityMember        EntityType = "member"
	EntitySprint        EntityType = "sprint"
	EntityTeam          EntityType = "team"
)

// Priority orders sync events in the queue. Critical drains first.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank returns the sort order of a priority (lower drains first).
// Unknown priorities sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// ChangeDetails is the typed payload of a sync event. Each event type
// carries its own variant; Kind reports which event type the variant
// belongs to so mismatched payloads are caught early.
type ChangeDetails interface {
	Kind() EventType
}

// ScheduleChange describes a modification to a single schedule entry
type ScheduleChange struct {
	EntryID  string `json:"entryId"`
	MemberID string `json:"memberId,omitempty"`
	TeamID   string `json:"teamId,omitempty"`
	Field    string `json:"field,omitempty"`
	OldValue string `json:"oldValue,omitempty"`
	NewValue string `json:"newValue,omitempty"`
}

func (ScheduleChange) Kind() EventType { return EventScheduleChange }

// MemberUpdate describes a membership change within a team
type MemberUpdate struct {
	MemberID  string `json:"memberId"`
	TeamID    string `json:"teamId,omitempty"`
	Operation string `json:"operation"` // joined, left, role_changed
}

func (MemberUpdate) Kind() EventType { return EventMemberUpdate }

// SprintUpdate describes a change to sprint/period settings. Sprint
// boundaries feed every period-derived calculation, so these events
// carry critical priority.
type SprintUpdate struct {
	SprintID    string    `json:"sprintId"`
	StartDate   time.Time `json:"startDate,omitempty"`
	EndDate     time.Time `json:"endDate,omitempty"`
	WorkingDays int       `json:"workingDays,omitempty"`
}

func (SprintUpdate) Kind() EventType { return EventSprintUpdate }

// TeamDataChange describes an application-initiated team mutation
// reported through the manual trigger path
type TeamDataChange struct {
	TeamID     string `json:"teamId"`
	ChangeKind string `json:"changeKind"`
}

func (TeamDataChange) Kind() EventType { return EventTeamDataChange }

// SyncEvent is a normalized record of one observed or manually
// triggered change to a tracked entity
type SyncEvent struct {
	ID         string        `json:"eventId"`
	Type       EventType     `json:"type"`
	Source     EventSource   `json:"source"`
	EntityID   string        `json:"affectedEntityId"`
	EntityType EntityType    `json:"affectedEntityType"`
	Details    ChangeDetails `json:"changeDetails,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
	Priority   Priority      `json:"priority"`
}

// DedupKey identifies the coalescing bucket for an event: within the
// dedup window only the latest event per (type, entity) survives.
func (e *SyncEvent) DedupKey() string {
	return string(e.Type) + "/" + e.EntityID
}

// ClientType identifies the kind of downstream consumer
type ClientType string

const (
	ClientSummaryView ClientType = "summary_view"
	ClientScopedView  ClientType = "scoped_view"
	ClientMobileApp   ClientType = "mobile_app"
)

// ClientConnection tracks one registered downstream consumer
type ClientConnection struct {
	ID           string     `json:"id"`
	Type         ClientType `json:"type"`
	Scope        string     `json:"scope,omitempty"`
	Principal    string     `json:"principal,omitempty"`
	ConnectedAt  time.Time  `json:"connectedAt"`
	LastActivity time.Time  `json:"lastActivity"`
	SyncVersion  int64      `json:"syncVersion"`
}

// PendingUpdate is a sync event that failed processing and is awaiting
// retry by the health monitor
type PendingUpdate struct {
	Event     *SyncEvent
	FirstSeen time.Time
	Attempts  int
	LastError string
}

// SyncMetrics holds the engine's raw processing counters
type SyncMetrics struct {
	TotalEvents           int64         `json:"totalEvents"`
	SuccessfulSyncs       int64         `json:"successfulSyncs"`
	FailedSyncs           int64         `json:"failedSyncs"`
	AverageProcessingTime time.Duration `json:"averageProcessingTime"`
	LastSyncTimestamp     time.Time     `json:"lastSyncTimestamp"`
}

// SyncStatusReport is the computed health view returned by the engine's
// status API
type SyncStatusReport struct {
	ConnectedClients      int           `json:"connectedClients"`
	PendingUpdates        int           `json:"pendingUpdates"`
	QueueDepth            int           `json:"queueDepth"`
	SyncLag               time.Duration `json:"syncLag"`
	LastSyncEvent         time.Time     `json:"lastSyncEvent"`
	AverageProcessingTime time.Duration `json:"averageProcessingTime"`
	ErrorRate             float64       `json:"errorRate"`
}

// ConsistencyReport compares the same derived metric computed via two
// independent paths
type ConsistencyReport struct {
	Metric     string    `json:"metric"`
	Cached     float64   `json:"cached"`
	Recomputed float64   `json:"recomputed"`
	Divergent  bool      `json:"divergent"`
	CheckedAt  time.Time `json:"checkedAt"`
}

// MutationOp is the kind of store-level operation a mutation
// notification describes
type MutationOp string

const (
	MutationInsert MutationOp = "insert"
	MutationUpdate MutationOp = "update"
	MutationDelete MutationOp = "delete"
)

// Logical stream names the change-source listener watches
const (
	StreamSchedules = "schedule_entries"
	StreamMembers   = "team_members"
	StreamSprints   = "sprint_settings"
	StreamBroadcast = "sync_broadcast"
)

// Mutation is an inbound change notification from the data store or
// another process
type Mutation struct {
	Stream    string            `json:"stream"`
	Operation MutationOp        `json:"operation"`
	OldRecord map[string]string `json:"oldRecord,omitempty"`
	NewRecord map[string]string `json:"newRecord,omitempty"`
}
