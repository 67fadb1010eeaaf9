package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/shop-portal/internal/domain"
	"github.com/spec-kit/shop-portal/internal/filter"
)

// QuoteRepository encapsulates quote persistence.
type QuoteRepository interface {
	List(ctx context.Context, q filter.Query) ([]domain.Quote, int, error)
	GetByID(ctx context.Context, id string, withItems bool) (*domain.Quote, error)
	Create(ctx context.Context, quote *domain.Quote) error
	Update(ctx context.Context, quote *domain.Quote, replaceItems bool) error
	Delete(ctx context.Context, id string) error
}

type quoteRepository struct {
	pool *pgxpool.Pool
}

// NewQuoteRepository instantiates repository.
func NewQuoteRepository(pool *pgxpool.Pool) QuoteRepository {
	return &quoteRepository{pool: pool}
}

const quoteColumns = `id, customer_id, status, total_amount, notes, valid_until,
               version, created_at, updated_at`

func (r *quoteRepository) List(ctx context.Context, q filter.Query) ([]domain.Quote, int, error) {
	page, count, args := listStatements(quoteColumns, "quotes", q)

	var total int
	if err := r.pool.QueryRow(ctx, count, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, page, args...)
	if err != nil {
		return nil, 0, err
	}
	quotes, err := scanQuotes(rows)
	if err != nil {
		return nil, 0, err
	}

	if q.Includes("items") && len(quotes) > 0 {
		ids := make([]string, len(quotes))
		for i := range quotes {
			ids[i] = quotes[i].ID
		}
		items, err := quoteItemsFor(ctx, r.pool, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range quotes {
			quotes[i].Items = items[quotes[i].ID]
		}
	}
	return quotes, total, nil
}

func (r *quoteRepository) GetByID(ctx context.Context, id string, withItems bool) (*domain.Quote, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	quotes, err := scanQuotes(rows)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, pgx.ErrNoRows
	}
	quote := &quotes[0]
	if withItems {
		items, err := quoteItemsFor(ctx, r.pool, []string{id})
		if err != nil {
			return nil, err
		}
		quote.Items = items[id]
	}
	return quote, nil
}

func (r *quoteRepository) Create(ctx context.Context, quote *domain.Quote) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
        INSERT INTO quotes (id, customer_id, status, total_amount, notes, valid_until,
                            version, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
		if _, err := tx.Exec(ctx, query,
			quote.ID,
			quote.CustomerID,
			quote.Status,
			quote.TotalAmount,
			quote.Notes,
			quote.ValidUntil,
			quote.Version,
			quote.CreatedAt,
			quote.UpdatedAt,
		); err != nil {
			return err
		}
		return insertQuoteItems(ctx, tx, quote.Items)
	})
}

func (r *quoteRepository) Update(ctx context.Context, quote *domain.Quote, replaceItems bool) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if replaceItems {
			if _, err := tx.Exec(ctx, `DELETE FROM quote_items WHERE quote_id=$1`, quote.ID); err != nil {
				return err
			}
			if err := insertQuoteItems(ctx, tx, quote.Items); err != nil {
				return err
			}
		}
		const query = `
        UPDATE quotes SET status=$1, total_amount=$2, notes=$3, valid_until=$4,
            updated_at=$5, version=version+1
        WHERE id=$6 AND version=$7`
		cmd, err := tx.Exec(ctx, query,
			quote.Status,
			quote.TotalAmount,
			quote.Notes,
			quote.ValidUntil,
			quote.UpdatedAt,
			quote.ID,
			quote.Version,
		)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrVersionConflict
		}
		return nil
	})
	if err != nil {
		return err
	}
	quote.Version++
	return nil
}

func (r *quoteRepository) Delete(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM quote_items WHERE quote_id=$1`, id); err != nil {
			return err
		}
		cmd, err := tx.Exec(ctx, `DELETE FROM quotes WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

func insertQuoteItems(ctx context.Context, tx pgx.Tx, items []domain.QuoteItem) error {
	const query = `
        INSERT INTO quote_items (id, quote_id, product_id, quantity, unit_price, position)
        VALUES ($1,$2,$3,$4,$5,$6)`
	for _, item := range items {
		if _, err := tx.Exec(ctx, query,
			item.ID,
			item.QuoteID,
			item.ProductID,
			item.Quantity,
			item.UnitPrice,
			item.Position,
		); err != nil {
			return err
		}
	}
	return nil
}

func quoteItemsFor(ctx context.Context, q querier, quoteIDs []string) (map[string][]domain.QuoteItem, error) {
	const query = `
        SELECT id, quote_id, product_id, quantity, unit_price, position
        FROM quote_items WHERE quote_id = ANY($1) ORDER BY quote_id, position`
	rows, err := q.Query(ctx, query, quoteIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.QuoteItem, len(quoteIDs))
	for rows.Next() {
		var item domain.QuoteItem
		if err := rows.Scan(
			&item.ID,
			&item.QuoteID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.Position,
		); err != nil {
			return nil, err
		}
		result[item.QuoteID] = append(result[item.QuoteID], item)
	}
	return result, rows.Err()
}

func scanQuotes(rows pgx.Rows) ([]domain.Quote, error) {
	defer rows.Close()
	var result []domain.Quote
	for rows.Next() {
		var quote domain.Quote
		if err := rows.Scan(
			&quote.ID,
			&quote.CustomerID,
			&quote.Status,
			&quote.TotalAmount,
			&quote.Notes,
			&quote.ValidUntil,
			&quote.Version,
			&quote.CreatedAt,
			&quote.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, quote)
	}
	return result, rows.Err()
}
