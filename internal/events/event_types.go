package events

import (
	"time"

	"github.com/spec-kit/shop-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventOrderCreated        EventType = "order_created"
	EventOrderStatusChanged  EventType = "order_status_changed"
	EventQuoteCreated        EventType = "quote_created"
	EventQuoteStatusChanged  EventType = "quote_status_changed"
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketMessageAdded  EventType = "ticket_message_added"
)

// StatusEvents lists the event types that carry a StatusChangedPayload.
func StatusEvents() []EventType {
	return []EventType{EventOrderStatusChanged, EventQuoteStatusChanged, EventTicketStatusChanged}
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string           `json:"id"`
	Kind domain.ActorKind `json:"kind"`
}

// ActorFrom converts the caller identity into event metadata.
func ActorFrom(a domain.Actor) Actor {
	return Actor{ID: a.ID, Kind: a.Kind}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	EntityKind domain.EntityKind `json:"entity_kind"`
	EntityID   string            `json:"entity_id"`
	CustomerID string            `json:"customer_id"`
	Actor      Actor             `json:"actor"`
	Timestamp  time.Time         `json:"timestamp"`
	Payload    interface{}       `json:"payload"`
}

// CreatedPayload payload.
type CreatedPayload struct {
	Status string `json:"status"`
	Items  int    `json:"items"`
	Total  string `json:"total,omitempty"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID string `json:"assignee_id"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID   string `json:"message_id"`
	AuthorID    string `json:"author_id"`
	IsInternal  bool   `json:"is_internal"`
	BodyPreview string `json:"body_preview"`
}
