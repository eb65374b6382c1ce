package audit

import (
	"context"
	"encoding/json"
	"time"
)

type Action string

const (
	ActionClockIn           Action = "time_entry.clock_in"
	ActionClockOut          Action = "time_entry.clock_out"
	ActionAutoClockOut      Action = "time_entry.auto_clock_out"
	ActionBreakStart        Action = "break_entry.start"
	ActionBreakEnd          Action = "break_entry.end"
	ActionManualEntry       Action = "time_entry.manual_submit"
	ActionCorrectionRequest Action = "time_entry.correction_request"
	ActionApprove           Action = "time_entry.approve"
	ActionRejectDelete      Action = "time_entry.reject_delete"
	ActionRejectRevert      Action = "time_entry.reject_revert"
)

const (
	EntityTimeEntry  = "time_entry"
	EntityBreakEntry = "break_entry"
)

// Change is one audited mutation. Before and After are JSON-encodable
// snapshots; Before is nil for creations and After is nil for deletions.
type Change struct {
	EntityType string
	EntityID   string
	Action     Action
	Before     any
	After      any
	ActorID    string
	OccurredAt time.Time
	Reason     *string
}

// IsZero reports whether c carries no change.
func (c Change) IsZero() bool {
	return c.EntityID == "" && c.Action == ""
}

// Recorder persists audit changes.
type Recorder interface {
	Record(ctx context.Context, change Change) error
}

// Entry is a stored audit record.
type Entry struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Action     Action          `json:"action"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	ActorID    string          `json:"actor_id"`
	Reason     *string         `json:"reason,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Repository is the audit trail store.
type Repository interface {
	Recorder
	ListByEntity(ctx context.Context, entityType, entityID string) ([]Entry, error)
}
