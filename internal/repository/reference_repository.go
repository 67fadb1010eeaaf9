package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/shop-portal/internal/domain"
)

// ReferenceRepository answers existence questions about records owned by
// other parts of the portal.
type ReferenceRepository interface {
	Exists(ctx context.Context, kind domain.ReferenceKind, id string) (bool, error)
}

type referenceRepository struct {
	pool *pgxpool.Pool
}

// NewReferenceRepository returns a Postgres-backed implementation.
func NewReferenceRepository(pool *pgxpool.Pool) ReferenceRepository {
	return &referenceRepository{pool: pool}
}

var referenceTables = map[domain.ReferenceKind]string{
	domain.ReferenceProduct:  "products",
	domain.ReferenceCustomer: "customers",
	domain.ReferenceOrder:    "orders",
}

func (r *referenceRepository) Exists(ctx context.Context, kind domain.ReferenceKind, id string) (bool, error) {
	table, ok := referenceTables[kind]
	if !ok {
		return false, fmt.Errorf("unknown reference kind %q", kind)
	}
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id=$1)`, table)
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
