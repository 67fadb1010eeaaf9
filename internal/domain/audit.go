package domain

import "time"

// EntityKind names the aggregates that carry a lifecycle.
type EntityKind string

const (
	EntityOrder  EntityKind = "order"
	EntityQuote  EntityKind = "quote"
	EntityTicket EntityKind = "ticket"
)

// AuditEntry is an immutable record of a status change.
type AuditEntry struct {
	ID         string
	EntityKind EntityKind
	EntityID   string
	ActorID    string
	ActorKind  ActorKind
	OldStatus  string
	NewStatus  string
	CreatedAt  time.Time
}
