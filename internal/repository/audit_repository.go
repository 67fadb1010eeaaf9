package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/shop-portal/internal/domain"
)

// AuditRepository stores status change entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	ListByEntity(ctx context.Context, kind domain.EntityKind, entityID string) ([]domain.AuditEntry, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository builds repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	const query = `
        INSERT INTO status_audit (id, entity_kind, entity_id, actor_id, actor_kind, old_status, new_status, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.EntityKind,
		entry.EntityID,
		entry.ActorID,
		entry.ActorKind,
		entry.OldStatus,
		entry.NewStatus,
		entry.CreatedAt,
	)
	return err
}

func (r *auditRepository) ListByEntity(ctx context.Context, kind domain.EntityKind, entityID string) ([]domain.AuditEntry, error) {
	const query = `
        SELECT id, entity_kind, entity_id, actor_id, actor_kind, old_status, new_status, created_at
        FROM status_audit WHERE entity_kind=$1 AND entity_id=$2 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, kind, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.EntityKind,
			&entry.EntityID,
			&entry.ActorID,
			&entry.ActorKind,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
