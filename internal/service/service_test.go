package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shop-portal/internal/domain"
	"github.com/spec-kit/shop-portal/internal/events"
	"github.com/spec-kit/shop-portal/internal/filter"
	"github.com/spec-kit/shop-portal/internal/reference"
	"github.com/spec-kit/shop-portal/internal/repository/memory"
	apperrors "github.com/spec-kit/shop-portal/pkg/util/errorutil"
)

var (
	staff    = domain.Actor{ID: "staff-1", Kind: domain.ActorKindStaff}
	customer = domain.Actor{ID: "acc-1", Kind: domain.ActorKindCustomer}
)

// stepClock advances one second per reading so created_at values are
// distinct, unless held.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	held bool
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.held {
		c.now = c.now.Add(time.Second)
	}
	return c.now
}

// hold makes every reading return the same instant until release.
func (c *stepClock) hold() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	c.held = true
}

func (c *stepClock) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.held = false
}

type sequence struct {
	mu sync.Mutex
	n  int
}

func (s *sequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%05d", s.n)
}

type fixture struct {
	store   *memory.Store
	clock   *stepClock
	orders  *OrderService
	quotes  *QuoteService
	tickets *TicketService
	audit   *AuditService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newCachedFixture(t, nil)
}

// newCachedFixture puts cache in front of reference lookups.
func newCachedFixture(t *testing.T, cache reference.Cache) *fixture {
	t.Helper()

	store := memory.NewStore()
	store.PutReference(domain.ReferenceCustomer, "cust-1", "cust-2")
	store.PutReference(domain.ReferenceProduct, "p-bracket", "p-flange", "p-hinge")

	clock := &stepClock{now: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
	ids := &sequence{}
	dispatcher := events.NewInMemoryDispatcher(nil)
	audit := NewAuditService(dispatcher, store.Audit())
	audit.RegisterHandlers()

	rt := Runtime{
		Dispatcher: dispatcher,
		Limits:     filter.Limits{DefaultPageSize: 10, MaxPageSize: 100},
		Now:        clock.Now,
		NewID:      ids.Next,
	}
	refs := reference.NewValidator(store.References(), cache, time.Hour, nil)

	return &fixture{
		store:   store,
		clock:   clock,
		orders:  NewOrderService(OrderDependencies{OrderRepo: store.Orders(), References: refs, Runtime: rt}),
		quotes:  NewQuoteService(QuoteDependencies{QuoteRepo: store.Quotes(), References: refs, Runtime: rt}),
		tickets: NewTicketService(TicketDependencies{TicketRepo: store.Tickets(), References: refs, Runtime: rt}),
		audit:   audit,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) createOrder(t *testing.T, items ...ItemInput) *domain.Order {
	t.Helper()
	if len(items) == 0 {
		items = []ItemInput{Priced("p-bracket", dec("1"), dec("10.00"))}
	}
	order, err := f.orders.Create(context.Background(), customer, OrderCreateInput{CustomerID: "cust-1", Items: items})
	require.NoError(t, err)
	return order
}

func requireCode(t *testing.T, err error, sentinel *apperrors.DomainError) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, sentinel)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	return domainErr
}

// memoryCache is a positive-only reference cache without expiry.
type memoryCache struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{keys: map[string]bool{}}
}

func (c *memoryCache) Known(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keys[key], nil
}

func (c *memoryCache) Remember(_ context.Context, key string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[key] = true
	return nil
}

func decimalFromInt(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}
