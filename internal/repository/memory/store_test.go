package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shop-portal/internal/domain"
	"github.com/spec-kit/shop-portal/internal/filter"
	"github.com/spec-kit/shop-portal/internal/repository"
)

var base = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func seedOrders(t *testing.T, repo repository.OrderRepository, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		order := &domain.Order{
			ID:          fmt.Sprintf("o-%02d", i),
			CustomerID:  "c-1",
			Status:      domain.OrderStatusPending,
			TotalAmount: decimal.NewFromInt(int64(i)),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			Items: []domain.OrderItem{
				{ID: fmt.Sprintf("i-%02d", i), OrderID: fmt.Sprintf("o-%02d", i), ProductID: "p-1", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(int64(i))},
			},
		}
		require.NoError(t, repo.Create(context.Background(), order))
	}
}

func TestOrders_ListSortsFiltersAndPages(t *testing.T) {
	t.Parallel()

	repo := NewStore().Orders()
	seedOrders(t, repo, 7)

	q := filter.Query{
		Predicates: []filter.Predicate{{Columns: []string{"total_amount"}, Op: filter.OpGte, Value: decimal.NewFromInt(2)}},
		Sort:       []filter.SortKey{{Column: "created_at", Direction: filter.Desc}, {Column: "id", Direction: filter.Asc}},
		Offset:     2,
		Limit:      2,
	}
	rows, total, err := repo.List(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Len(t, rows, 2)
	require.Equal(t, "o-04", rows[0].ID)
	require.Equal(t, "o-03", rows[1].ID)
	require.Nil(t, rows[0].Items)

	q.Include = map[string]bool{"items": true}
	rows, _, err = repo.List(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, rows[0].Items, 1)

	q.Offset = 10
	rows, total, err = repo.List(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Empty(t, rows)
}

func TestOrders_UpdateChecksVersion(t *testing.T) {
	t.Parallel()

	repo := NewStore().Orders()
	seedOrders(t, repo, 1)
	ctx := context.Background()

	first, err := repo.GetByID(ctx, "o-00", true)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, "o-00", true)
	require.NoError(t, err)

	first.Notes = "rush"
	require.NoError(t, repo.Update(ctx, first, false))
	require.EqualValues(t, 1, first.Version)

	second.Notes = "stale"
	require.ErrorIs(t, repo.Update(ctx, second, false), repository.ErrVersionConflict)

	stored, err := repo.GetByID(ctx, "o-00", true)
	require.NoError(t, err)
	require.Equal(t, "rush", stored.Notes)
	require.Len(t, stored.Items, 1, "items survive an update without replacement")
}

func TestOrders_ReturnedValuesAreCopies(t *testing.T) {
	t.Parallel()

	repo := NewStore().Orders()
	seedOrders(t, repo, 1)
	ctx := context.Background()

	got, err := repo.GetByID(ctx, "o-00", true)
	require.NoError(t, err)
	got.Items[0].ProductID = "mutated"
	got.Status = domain.OrderStatusCancelled

	again, err := repo.GetByID(ctx, "o-00", true)
	require.NoError(t, err)
	require.Equal(t, "p-1", again.Items[0].ProductID)
	require.Equal(t, domain.OrderStatusPending, again.Status)
}

func TestOrders_DeleteMissing(t *testing.T) {
	t.Parallel()

	repo := NewStore().Orders()
	require.ErrorIs(t, repo.Delete(context.Background(), "nope"), pgx.ErrNoRows)
	_, err := repo.GetByID(context.Background(), "nope", false)
	require.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestTickets_AppendMessageBumpsVersion(t *testing.T) {
	t.Parallel()

	repo := NewStore().Tickets()
	ctx := context.Background()
	ticket := &domain.Ticket{ID: "t-1", CustomerID: "c-1", Subject: "Bent flange", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityHigh}
	require.NoError(t, repo.Create(ctx, ticket))

	ticket.Status = domain.TicketStatusInProgress
	msg := &domain.TicketMessage{ID: "m-1", TicketID: "t-1", AuthorID: "c-1", Body: "photos attached"}
	require.NoError(t, repo.AppendMessage(ctx, ticket, msg))
	require.EqualValues(t, 1, ticket.Version)

	stored, err := repo.GetByID(ctx, "t-1", true)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusInProgress, stored.Status)
	require.Len(t, stored.Messages, 1)

	stale := *stored
	stale.Version = 0
	require.ErrorIs(t, repo.AppendMessage(ctx, &stale, &domain.TicketMessage{ID: "m-2"}), repository.ErrVersionConflict)
}

func TestReferences_Exists(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.PutReference(domain.ReferenceProduct, "p-1")
	seedOrders(t, store.Orders(), 1)
	refs := store.References()
	ctx := context.Background()

	ok, err := refs.Exists(ctx, domain.ReferenceProduct, "p-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = refs.Exists(ctx, domain.ReferenceProduct, "p-2")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = refs.Exists(ctx, domain.ReferenceOrder, "o-00")
	require.NoError(t, err)
	require.True(t, ok)
}
