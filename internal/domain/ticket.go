package domain

import "time"

// TicketStatus enumerates lifecycle states for support tickets.
type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "OPEN"
	TicketStatusInProgress      TicketStatus = "IN_PROGRESS"
	TicketStatusWaitingCustomer TicketStatus = "WAITING_CUSTOMER"
	TicketStatusResolved        TicketStatus = "RESOLVED"
	TicketStatusClosed          TicketStatus = "CLOSED"
)

// AllTicketStatuses lists every declared ticket status.
func AllTicketStatuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusOpen, TicketStatusInProgress, TicketStatusWaitingCustomer,
		TicketStatusResolved, TicketStatusClosed,
	}
}

// Valid returns true if the status is declared.
func (s TicketStatus) Valid() bool {
	for _, candidate := range AllTicketStatuses() {
		if candidate == s {
			return true
		}
	}
	return false
}

func (s TicketStatus) String() string { return string(s) }

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// AllTicketPriorities lists every declared priority.
func AllTicketPriorities() []TicketPriority {
	return []TicketPriority{
		TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent,
	}
}

// Valid returns true if the priority is declared.
func (p TicketPriority) Valid() bool {
	for _, candidate := range AllTicketPriorities() {
		if candidate == p {
			return true
		}
	}
	return false
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID             string
	CustomerID     string
	Subject        string
	Status         TicketStatus
	Priority       TicketPriority
	AssigneeID     *string
	RelatedOrderID *string
	ResolvedAt     *time.Time
	ClosedAt       *time.Time
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Messages       []TicketMessage
}
