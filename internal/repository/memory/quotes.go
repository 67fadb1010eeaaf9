package memory

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/shop-portal/internal/domain"
	"github.com/spec-kit/shop-portal/internal/filter"
	"github.com/spec-kit/shop-portal/internal/repository"
)

var _ repository.QuoteRepository = quoteTable{}

type quoteTable struct{ s *Store }

type quoteRow struct{ q *domain.Quote }

func (r quoteRow) Column(name string) any {
	switch name {
	case "id":
		return r.q.ID
	case "customer_id":
		return r.q.CustomerID
	case "status":
		return r.q.Status
	case "total_amount":
		return r.q.TotalAmount
	case "notes":
		return r.q.Notes
	case "valid_until":
		return r.q.ValidUntil
	case "created_at":
		return r.q.CreatedAt
	case "updated_at":
		return r.q.UpdatedAt
	}
	return nil
}

func cloneQuote(q domain.Quote, withItems bool) domain.Quote {
	q.ValidUntil = copyTime(q.ValidUntil)
	if withItems && q.Items != nil {
		q.Items = append([]domain.QuoteItem(nil), q.Items...)
	} else {
		q.Items = nil
	}
	return q
}

func (t quoteTable) List(_ context.Context, q filter.Query) ([]domain.Quote, int, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	all := make([]domain.Quote, 0, len(t.s.quotes))
	for _, quote := range t.s.quotes {
		all = append(all, quote)
	}
	rows, total := page(all, q, func(quote *domain.Quote) filter.Row { return quoteRow{quote} })
	for i := range rows {
		rows[i] = cloneQuote(rows[i], q.Includes("items"))
	}
	return rows, total, nil
}

func (t quoteTable) GetByID(_ context.Context, id string, withItems bool) (*domain.Quote, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	quote, ok := t.s.quotes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	quote = cloneQuote(quote, withItems)
	return &quote, nil
}

func (t quoteTable) Create(_ context.Context, quote *domain.Quote) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	t.s.quotes[quote.ID] = cloneQuote(*quote, true)
	return nil
}

func (t quoteTable) Update(_ context.Context, quote *domain.Quote, replaceItems bool) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	stored, ok := t.s.quotes[quote.ID]
	if !ok || stored.Version != quote.Version {
		return repository.ErrVersionConflict
	}
	next := cloneQuote(*quote, true)
	if !replaceItems {
		next.Items = stored.Items
	}
	next.Version++
	t.s.quotes[quote.ID] = next
	quote.Version++
	return nil
}

func (t quoteTable) Delete(_ context.Context, id string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if _, ok := t.s.quotes[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(t.s.quotes, id)
	return nil
}
