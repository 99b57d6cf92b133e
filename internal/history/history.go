package history

import (
	"context"
	"time"
)

// EventType defines the kind of audit event.
type EventType string

const (
	// EventNotification records one delivery attempt for a new listing.
	EventNotification EventType = "notification"
	// EventCycle records the outcome of one completed polling cycle.
	EventCycle EventType = "cycle"
)

// Event is one row of the watcher's audit trail.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	ListingID  string    `json:"listing_id,omitempty"`
	Title      string    `json:"title,omitempty"`
	Outcome    string    `json:"outcome"` // success/failed for cycles, sent/failed for notifications
	Detail     string    `json:"detail,omitempty"`
}

// Sink is a destination for audit events (analytics/statistics systems).
// Implementations must be safe for concurrent use. Sink errors are logged by
// callers and never abort a cycle.
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}
