package lifecycle

import (
	"time"

	"github.com/spec-kit/shop-portal/internal/domain"
	apperrors "github.com/spec-kit/shop-portal/pkg/util/errorutil"
)

// TicketMachine is the ticket transition table. CLOSED is terminal for plain
// transitions; ReopenTicket is the only way out.
var TicketMachine = newMachine("ticket", domain.TicketStatusOpen,
	map[domain.TicketStatus][]domain.TicketStatus{
		domain.TicketStatusOpen:            {domain.TicketStatusInProgress, domain.TicketStatusClosed},
		domain.TicketStatusInProgress:      {domain.TicketStatusWaitingCustomer, domain.TicketStatusResolved, domain.TicketStatusClosed},
		domain.TicketStatusWaitingCustomer: {domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusClosed},
		domain.TicketStatusResolved:        {domain.TicketStatusClosed, domain.TicketStatusInProgress},
		domain.TicketStatusClosed:          {},
	},
	[]domain.TicketStatus{domain.TicketStatusClosed},
	nil,
)

// ApplyTicket moves t to target, stamping resolvedAt/closedAt on first entry.
// A ticket closed without prior resolution counts as resolved at close time.
func ApplyTicket(t *domain.Ticket, target domain.TicketStatus, now time.Time, from ...domain.TicketStatus) error {
	if err := TicketMachine.CheckFrom(t.Status, target, from...); err != nil {
		return err
	}
	t.Status = target
	switch target {
	case domain.TicketStatusResolved:
		setOnce(&t.ResolvedAt, now)
	case domain.TicketStatusClosed:
		setOnce(&t.ClosedAt, now)
		setOnce(&t.ResolvedAt, now)
	}
	t.UpdatedAt = now
	return nil
}

// ReopenTicket moves a CLOSED or RESOLVED ticket back to IN_PROGRESS and clears
// both completion timestamps.
func ReopenTicket(t *domain.Ticket, now time.Time) error {
	if t.Status != domain.TicketStatusClosed && t.Status != domain.TicketStatusResolved {
		return apperrors.NewInvalidTransition("ticket", string(t.Status), string(domain.TicketStatusInProgress))
	}
	t.Status = domain.TicketStatusInProgress
	t.ResolvedAt = nil
	t.ClosedAt = nil
	t.UpdatedAt = now
	return nil
}

// CustomerReplied applies the automatic WAITING_CUSTOMER -> IN_PROGRESS move
// triggered by a non-internal message. It reports whether the status changed.
func CustomerReplied(t *domain.Ticket, msg domain.TicketMessage, now time.Time) bool {
	if msg.IsInternal || t.Status != domain.TicketStatusWaitingCustomer {
		return false
	}
	// the edge is in the table; Apply cannot fail here
	_ = ApplyTicket(t, domain.TicketStatusInProgress, now)
	return true
}

// Assigned applies the automatic OPEN -> IN_PROGRESS move on assignment.
func Assigned(t *domain.Ticket, now time.Time) bool {
	if t.Status != domain.TicketStatusOpen {
		return false
	}
	_ = ApplyTicket(t, domain.TicketStatusInProgress, now)
	return true
}
