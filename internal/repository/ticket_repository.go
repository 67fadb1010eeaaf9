package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/shop-portal/internal/domain"
	"github.com/spec-kit/shop-portal/internal/filter"
)

// TicketRepository encapsulates ticket and thread persistence.
type TicketRepository interface {
	List(ctx context.Context, q filter.Query) ([]domain.Ticket, int, error)
	GetByID(ctx context.Context, id string, withMessages bool) (*domain.Ticket, error)
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	// AppendMessage stores msg and the ticket's resulting state in one transaction.
	AppendMessage(ctx context.Context, ticket *domain.Ticket, msg *domain.TicketMessage) error
	Delete(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, customer_id, subject, status, priority, assignee_id, related_order_id,
               resolved_at, closed_at, version, created_at, updated_at`

func (r *ticketRepository) List(ctx context.Context, q filter.Query) ([]domain.Ticket, int, error) {
	page, count, args := listStatements(ticketColumns, "tickets", q)

	var total int
	if err := r.pool.QueryRow(ctx, count, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, page, args...)
	if err != nil {
		return nil, 0, err
	}
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, 0, err
	}

	if q.Includes("messages") && len(tickets) > 0 {
		ids := make([]string, len(tickets))
		for i := range tickets {
			ids[i] = tickets[i].ID
		}
		msgs, err := messagesFor(ctx, r.pool, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range tickets {
			tickets[i].Messages = msgs[tickets[i].ID]
		}
	}
	return tickets, total, nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string, withMessages bool) (*domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, pgx.ErrNoRows
	}
	ticket := &tickets[0]
	if withMessages {
		msgs, err := messagesFor(ctx, r.pool, []string{id})
		if err != nil {
			return nil, err
		}
		ticket.Messages = msgs[id]
	}
	return ticket, nil
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, customer_id, subject, status, priority, assignee_id, related_order_id,
                             resolved_at, closed_at, version, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err := r.pool.Exec(ctx, query,
		ticket.ID,
		ticket.CustomerID,
		ticket.Subject,
		ticket.Status,
		ticket.Priority,
		ticket.AssigneeID,
		ticket.RelatedOrderID,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.Version,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	return err
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	if err := updateTicket(ctx, r.pool, ticket); err != nil {
		return err
	}
	ticket.Version++
	return nil
}

func (r *ticketRepository) AppendMessage(ctx context.Context, ticket *domain.Ticket, msg *domain.TicketMessage) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
        INSERT INTO ticket_messages (id, ticket_id, author_id, body, is_internal, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
		if _, err := tx.Exec(ctx, query,
			msg.ID,
			msg.TicketID,
			msg.AuthorID,
			msg.Body,
			msg.IsInternal,
			msg.CreatedAt,
		); err != nil {
			return err
		}
		return updateTicket(ctx, tx, ticket)
	})
	if err != nil {
		return err
	}
	ticket.Version++
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM ticket_messages WHERE ticket_id=$1`, id); err != nil {
			return err
		}
		cmd, err := tx.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

func updateTicket(ctx context.Context, db execer, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET subject=$1, status=$2, priority=$3, assignee_id=$4, related_order_id=$5,
            resolved_at=$6, closed_at=$7, updated_at=$8, version=version+1
        WHERE id=$9 AND version=$10`
	cmd, err := db.Exec(ctx, query,
		ticket.Subject,
		ticket.Status,
		ticket.Priority,
		ticket.AssigneeID,
		ticket.RelatedOrderID,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.UpdatedAt,
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func messagesFor(ctx context.Context, q querier, ticketIDs []string) (map[string][]domain.TicketMessage, error) {
	const query = `
        SELECT id, ticket_id, author_id, body, is_internal, created_at
        FROM ticket_messages WHERE ticket_id = ANY($1) ORDER BY ticket_id, created_at ASC, id ASC`
	rows, err := q.Query(ctx, query, ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.TicketMessage, len(ticketIDs))
	for rows.Next() {
		var msg domain.TicketMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.AuthorID,
			&msg.Body,
			&msg.IsInternal,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result[msg.TicketID] = append(result[msg.TicketID], msg)
	}
	return result, rows.Err()
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	defer rows.Close()
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.CustomerID,
			&ticket.Subject,
			&ticket.Status,
			&ticket.Priority,
			&ticket.AssigneeID,
			&ticket.RelatedOrderID,
			&ticket.ResolvedAt,
			&ticket.ClosedAt,
			&ticket.Version,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
