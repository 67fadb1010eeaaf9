// Package memory is an in-process record store used by tests and by the
// memory store driver. It evaluates compiled filter queries row by row with
// the same column names the Postgres repositories use.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/shop-portal/internal/domain"
	"github.com/spec-kit/shop-portal/internal/filter"
	"github.com/spec-kit/shop-portal/internal/repository"
)

// Store holds every table behind one mutex. Values handed out are deep copies.
type Store struct {
	mu         sync.RWMutex
	orders     map[string]domain.Order
	quotes     map[string]domain.Quote
	tickets    map[string]domain.Ticket
	audit      []domain.AuditEntry
	accounts   map[string]domain.Account
	references map[domain.ReferenceKind]map[string]struct{}
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		orders:     make(map[string]domain.Order),
		quotes:     make(map[string]domain.Quote),
		tickets:    make(map[string]domain.Ticket),
		accounts:   make(map[string]domain.Account),
		references: make(map[domain.ReferenceKind]map[string]struct{}),
	}
}

// Orders exposes the store as an OrderRepository.
func (s *Store) Orders() repository.OrderRepository { return orderTable{s} }

// Quotes exposes the store as a QuoteRepository.
func (s *Store) Quotes() repository.QuoteRepository { return quoteTable{s} }

// Tickets exposes the store as a TicketRepository.
func (s *Store) Tickets() repository.TicketRepository { return ticketTable{s} }

// Audit exposes the store as an AuditRepository.
func (s *Store) Audit() repository.AuditRepository { return auditTable{s} }

// Accounts exposes the store as an AccountRepository.
func (s *Store) Accounts() repository.AccountRepository { return accountTable{s} }

// References exposes the store as a ReferenceRepository.
func (s *Store) References() repository.ReferenceRepository { return referenceTable{s} }

// PutReference registers an externally owned record, e.g. a product.
func (s *Store) PutReference(kind domain.ReferenceKind, ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.references[kind]
	if !ok {
		set = make(map[string]struct{})
		s.references[kind] = set
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
}

// PutAccount stores or replaces a portal account.
func (s *Store) PutAccount(account domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account.Email = strings.ToLower(account.Email)
	s.accounts[account.ID] = account
}

// page sorts matching rows with q and cuts the requested window.
func page[T any](all []T, q filter.Query, row func(*T) filter.Row) ([]T, int) {
	matched := make([]T, 0, len(all))
	for i := range all {
		if q.Matches(row(&all[i])) {
			matched = append(matched, all[i])
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return q.Less(row(&matched[i]), row(&matched[j]))
	})

	total := len(matched)
	if q.Offset >= total {
		return []T{}, total
	}
	end := total
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return matched[q.Offset:end], total
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
