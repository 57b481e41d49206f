package nats

import "time"

// Stream names.
const (
	StreamEvents = "RECALL_EVENTS"
)

// Subject constants.
const (
	SubjectMemoryStored   = "recall.events.memory.stored"
	SubjectMemoryDeleted  = "recall.events.memory.deleted"
	SubjectSearchDegraded = "recall.events.search.degraded"
)

// MemoryStoredEvent is published after a memory is written to the store.
type MemoryStoredEvent struct {
	MemoryID   string    `json:"memory_id"`
	UserID     string    `json:"user_id"`
	Key        string    `json:"key"`
	Category   string    `json:"category"`
	EntityType string    `json:"entity_type"`
	HasVector  bool      `json:"has_vector"`
	StoredAt   time.Time `json:"stored_at"`
}

// MemoryDeletedEvent is published when a user forgets a memory.
type MemoryDeletedEvent struct {
	MemoryID  string    `json:"memory_id"`
	UserID    string    `json:"user_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// SearchDegradedEvent is published when a search was served by a lower
// tier than the deployment's best available one, so operators can see
// silent degradation on the dashboard.
type SearchDegradedEvent struct {
	UserID       string    `json:"user_id"`
	RequestedAt  time.Time `json:"requested_at"`
	ServedBy     string    `json:"served_by"`
	FailedTiers  []string  `json:"failed_tiers"`
	ResultsCount int       `json:"results_count"`
}
