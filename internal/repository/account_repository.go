package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/shop-portal/internal/domain"
)

// AccountRepository defines read access for portal logins.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	// CustomerEmails lists the addresses of active accounts belonging to a customer.
	CustomerEmails(ctx context.Context, customerID string) ([]string, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

const accountColumns = `id, email, password_hash, kind, customer_id, status, created_at, updated_at`

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id)
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE LOWER(email)=LOWER($1)`, email)
}

func (r *accountRepository) CustomerEmails(ctx context.Context, customerID string) ([]string, error) {
	const query = `
        SELECT email FROM accounts
        WHERE customer_id=$1 AND kind=$2 AND status=$3
        ORDER BY LOWER(email)`
	rows, err := r.pool.Query(ctx, query, customerID, domain.ActorKindCustomer, domain.AccountStatusActive)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *accountRepository) getOne(ctx context.Context, query string, arg string) (*domain.Account, error) {
	var account domain.Account
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Kind,
		&account.CustomerID,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}
