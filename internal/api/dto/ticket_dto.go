package dto

import (
	"time"

	"github.com/spec-kit/shop-portal/internal/domain"
)

// CreateTicketRequest payload. customer_id is ignored for customer callers.
type CreateTicketRequest struct {
	CustomerID     string                `json:"customer_id"`
	Subject        string                `json:"subject"`
	Priority       domain.TicketPriority `json:"priority"`
	RelatedOrderID *string               `json:"related_order_id"`
}

// UpdateTicketRequest is a partial update. An empty related_order_id clears it.
type UpdateTicketRequest struct {
	Subject        *string                `json:"subject"`
	Priority       *domain.TicketPriority `json:"priority"`
	RelatedOrderID *string                `json:"related_order_id"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// CreateMessageRequest payload. is_internal is honoured for staff only.
type CreateMessageRequest struct {
	Body       string `json:"body"`
	IsInternal bool   `json:"is_internal"`
}

// TicketResponse renders a ticket. Messages is omitted unless requested.
type TicketResponse struct {
	ID             string                  `json:"id"`
	CustomerID     string                  `json:"customer_id"`
	Subject        string                  `json:"subject"`
	Status         domain.TicketStatus     `json:"status"`
	Priority       domain.TicketPriority   `json:"priority"`
	AssigneeID     *string                 `json:"assignee_id"`
	RelatedOrderID *string                 `json:"related_order_id"`
	ResolvedAt     *time.Time              `json:"resolved_at"`
	ClosedAt       *time.Time              `json:"closed_at"`
	Version        int64                   `json:"version"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
	Messages       []TicketMessageResponse `json:"messages,omitempty"`
}

// TicketMessageResponse represents a thread message.
type TicketMessageResponse struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	Body       string    `json:"body"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewTicketResponse maps a domain ticket. Internal messages are dropped unless
// withInternal is set.
func NewTicketResponse(ticket *domain.Ticket, withInternal bool) TicketResponse {
	resp := TicketResponse{
		ID:             ticket.ID,
		CustomerID:     ticket.CustomerID,
		Subject:        ticket.Subject,
		Status:         ticket.Status,
		Priority:       ticket.Priority,
		AssigneeID:     ticket.AssigneeID,
		RelatedOrderID: ticket.RelatedOrderID,
		ResolvedAt:     ticket.ResolvedAt,
		ClosedAt:       ticket.ClosedAt,
		Version:        ticket.Version,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
	}
	if ticket.Messages != nil {
		resp.Messages = make([]TicketMessageResponse, 0, len(ticket.Messages))
		for i := range ticket.Messages {
			if ticket.Messages[i].IsInternal && !withInternal {
				continue
			}
			resp.Messages = append(resp.Messages, NewTicketMessageResponse(&ticket.Messages[i]))
		}
	}
	return resp
}

// NewTicketMessageResponse maps one message.
func NewTicketMessageResponse(msg *domain.TicketMessage) TicketMessageResponse {
	return TicketMessageResponse{
		ID:         msg.ID,
		AuthorID:   msg.AuthorID,
		Body:       msg.Body,
		IsInternal: msg.IsInternal,
		CreatedAt:  msg.CreatedAt,
	}
}
