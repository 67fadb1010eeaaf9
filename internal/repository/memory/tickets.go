package memory

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/shop-portal/internal/domain"
	"github.com/spec-kit/shop-portal/internal/filter"
	"github.com/spec-kit/shop-portal/internal/repository"
)

var _ repository.TicketRepository = ticketTable{}

type ticketTable struct{ s *Store }

type ticketRow struct{ t *domain.Ticket }

func (r ticketRow) Column(name string) any {
	switch name {
	case "id":
		return r.t.ID
	case "customer_id":
		return r.t.CustomerID
	case "subject":
		return r.t.Subject
	case "status":
		return r.t.Status
	case "priority":
		return r.t.Priority
	case "assignee_id":
		return r.t.AssigneeID
	case "related_order_id":
		return r.t.RelatedOrderID
	case "resolved_at":
		return r.t.ResolvedAt
	case "closed_at":
		return r.t.ClosedAt
	case "created_at":
		return r.t.CreatedAt
	case "updated_at":
		return r.t.UpdatedAt
	}
	return nil
}

func cloneTicket(t domain.Ticket, withMessages bool) domain.Ticket {
	t.AssigneeID = copyString(t.AssigneeID)
	t.RelatedOrderID = copyString(t.RelatedOrderID)
	t.ResolvedAt = copyTime(t.ResolvedAt)
	t.ClosedAt = copyTime(t.ClosedAt)
	if withMessages && t.Messages != nil {
		t.Messages = append([]domain.TicketMessage(nil), t.Messages...)
	} else {
		t.Messages = nil
	}
	return t
}

func (t ticketTable) List(_ context.Context, q filter.Query) ([]domain.Ticket, int, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	all := make([]domain.Ticket, 0, len(t.s.tickets))
	for _, ticket := range t.s.tickets {
		all = append(all, ticket)
	}
	rows, total := page(all, q, func(ticket *domain.Ticket) filter.Row { return ticketRow{ticket} })
	for i := range rows {
		rows[i] = cloneTicket(rows[i], q.Includes("messages"))
	}
	return rows, total, nil
}

func (t ticketTable) GetByID(_ context.Context, id string, withMessages bool) (*domain.Ticket, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	ticket, ok := t.s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket = cloneTicket(ticket, withMessages)
	return &ticket, nil
}

func (t ticketTable) Create(_ context.Context, ticket *domain.Ticket) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	stored := cloneTicket(*ticket, true)
	stored.Messages = nil
	t.s.tickets[ticket.ID] = stored
	return nil
}

func (t ticketTable) Update(_ context.Context, ticket *domain.Ticket) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	return t.update(ticket, nil)
}

func (t ticketTable) AppendMessage(_ context.Context, ticket *domain.Ticket, msg *domain.TicketMessage) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	return t.update(ticket, msg)
}

// update must run with the write lock held.
func (t ticketTable) update(ticket *domain.Ticket, msg *domain.TicketMessage) error {
	stored, ok := t.s.tickets[ticket.ID]
	if !ok || stored.Version != ticket.Version {
		return repository.ErrVersionConflict
	}
	next := cloneTicket(*ticket, false)
	next.Messages = stored.Messages
	if msg != nil {
		next.Messages = append(append([]domain.TicketMessage(nil), stored.Messages...), *msg)
	}
	next.Version++
	t.s.tickets[ticket.ID] = next
	ticket.Version++
	return nil
}

func (t ticketTable) Delete(_ context.Context, id string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if _, ok := t.s.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(t.s.tickets, id)
	return nil
}
