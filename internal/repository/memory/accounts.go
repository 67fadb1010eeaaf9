package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/shop-portal/internal/domain"
	"github.com/spec-kit/shop-portal/internal/repository"
)

var (
	_ repository.AuditRepository     = auditTable{}
	_ repository.AccountRepository   = accountTable{}
	_ repository.ReferenceRepository = referenceTable{}
)

type auditTable struct{ s *Store }

func (t auditTable) Create(_ context.Context, entry *domain.AuditEntry) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	t.s.audit = append(t.s.audit, *entry)
	return nil
}

func (t auditTable) ListByEntity(_ context.Context, kind domain.EntityKind, entityID string) ([]domain.AuditEntry, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	var result []domain.AuditEntry
	for _, entry := range t.s.audit {
		if entry.EntityKind == kind && entry.EntityID == entityID {
			result = append(result, entry)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

type accountTable struct{ s *Store }

func (t accountTable) GetByID(_ context.Context, id string) (*domain.Account, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	account, ok := t.s.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	account.CustomerID = copyString(account.CustomerID)
	return &account, nil
}

func (t accountTable) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, account := range t.s.accounts {
		if account.Email == email {
			account.CustomerID = copyString(account.CustomerID)
			return &account, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (t accountTable) CustomerEmails(_ context.Context, customerID string) ([]string, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	var emails []string
	for _, account := range t.s.accounts {
		if account.Kind != domain.ActorKindCustomer || account.Status != domain.AccountStatusActive {
			continue
		}
		if account.CustomerID != nil && *account.CustomerID == customerID {
			emails = append(emails, account.Email)
		}
	}
	sort.Strings(emails)
	return emails, nil
}

type referenceTable struct{ s *Store }

// Exists also resolves orders held by the store itself.
func (t referenceTable) Exists(_ context.Context, kind domain.ReferenceKind, id string) (bool, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	if kind == domain.ReferenceOrder {
		if _, ok := t.s.orders[id]; ok {
			return true, nil
		}
	}
	_, ok := t.s.references[kind][id]
	return ok, nil
}
