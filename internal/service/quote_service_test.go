package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shop-portal/internal/domain"
	apperrors "github.com/spec-kit/shop-portal/pkg/util/errorutil"
)

func TestQuoteService_ScenarioB_SubmitRequiresPricing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	quote, err := f.quotes.Create(ctx, customer, QuoteCreateInput{
		CustomerID: "cust-1",
		Items: []ItemInput{
			Priced("p-bracket", dec("2"), dec("12.50")),
			{ProductID: "p-flange", Quantity: dec("5")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, domain.QuoteStatusDraft, quote.Status)
	require.False(t, quote.TotalAmount.Valid, "total must be undefined while an item is unpriced")
	unpricedID := quote.Items[1].ID

	_, err = f.quotes.Submit(ctx, customer, quote.ID)
	domainErr := requireCode(t, err, apperrors.ErrValidation)
	require.Equal(t, []string{unpricedID}, domainErr.Details["unpriced_item_ids"])

	stored, err := f.quotes.GetByID(ctx, quote.ID, false)
	require.NoError(t, err)
	require.Equal(t, domain.QuoteStatusDraft, stored.Status)

	priced, err := f.quotes.ReplaceItems(ctx, quote.ID, []ItemInput{
		Priced("p-bracket", dec("2"), dec("12.50")),
		Priced("p-flange", dec("5"), dec("3.10")),
	})
	require.NoError(t, err)
	require.True(t, priced.TotalAmount.Valid)
	require.True(t, priced.TotalAmount.Decimal.Equal(dec("40.50")))

	submitted, err := f.quotes.Submit(ctx, customer, quote.ID)
	require.NoError(t, err)
	require.Equal(t, domain.QuoteStatusPending, submitted.Status)
	require.True(t, submitted.TotalAmount.Decimal.Equal(dec("40.50")))
}

func TestQuoteService_SubmitRequiresItems(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	quote, err := f.quotes.Create(ctx, customer, QuoteCreateInput{CustomerID: "cust-1"})
	require.NoError(t, err)
	require.True(t, quote.TotalAmount.Valid)
	require.True(t, quote.TotalAmount.Decimal.IsZero())

	_, err = f.quotes.Transition(ctx, customer, quote.ID, domain.QuoteStatusPending)
	requireCode(t, err, apperrors.ErrValidation)
}

func TestQuoteService_DecisionsAndLocks(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	newPending := func() *domain.Quote {
		quote, err := f.quotes.Create(ctx, customer, QuoteCreateInput{
			CustomerID: "cust-1",
			Items:      []ItemInput{Priced("p-hinge", dec("10"), dec("1.25"))},
		})
		require.NoError(t, err)
		quote, err = f.quotes.Submit(ctx, customer, quote.ID)
		require.NoError(t, err)
		return quote
	}

	approved := newPending()
	_, err := f.quotes.Approve(ctx, staff, approved.ID)
	require.NoError(t, err)
	_, err = f.quotes.Reject(ctx, staff, approved.ID)
	requireCode(t, err, apperrors.ErrInvalidTransition)
	notes := "late change"
	_, err = f.quotes.Update(ctx, approved.ID, QuoteUpdateInput{Notes: &notes})
	requireCode(t, err, apperrors.ErrEntityLocked)
	requireCode(t, f.quotes.Remove(ctx, approved.ID), apperrors.ErrDeletionForbidden)

	rejected := newPending()
	_, err = f.quotes.Transition(ctx, staff, rejected.ID, domain.QuoteStatusRejected)
	require.NoError(t, err)
	require.NoError(t, f.quotes.Remove(ctx, rejected.ID))

	pending := newPending()
	_, err = f.quotes.Transition(ctx, staff, pending.ID, domain.QuoteStatusExpired)
	requireCode(t, err, apperrors.ErrInvalidTransition)
	_, err = f.quotes.ReplaceItems(ctx, pending.ID, []ItemInput{{ProductID: "p-hinge", Quantity: dec("1")}})
	requireCode(t, err, apperrors.ErrValidation)
	updated, err := f.quotes.ReplaceItems(ctx, pending.ID, []ItemInput{Priced("p-hinge", dec("1"), dec("9.99"))})
	require.NoError(t, err)
	require.Equal(t, domain.QuoteStatusPending, updated.Status)
}

func TestQuoteService_ExpireDue(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	deadline := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	later := deadline.AddDate(0, 1, 0)

	create := func(validUntil *time.Time) *domain.Quote {
		quote, err := f.quotes.Create(ctx, customer, QuoteCreateInput{
			CustomerID: "cust-2",
			ValidUntil: validUntil,
			Items:      []ItemInput{Priced("p-bracket", dec("1"), dec("5"))},
		})
		require.NoError(t, err)
		return quote
	}

	draftDue := create(&deadline)
	pendingDue := create(&deadline)
	_, err := f.quotes.Submit(ctx, customer, pendingDue.ID)
	require.NoError(t, err)
	approvedDue := create(&deadline)
	_, err = f.quotes.Submit(ctx, customer, approvedDue.ID)
	require.NoError(t, err)
	_, err = f.quotes.Approve(ctx, staff, approvedDue.ID)
	require.NoError(t, err)
	notDue := create(&later)
	undated := create(nil)

	n, err := f.quotes.ExpireDue(ctx, deadline)
	require.NoError(t, err)
	require.Zero(t, n, "validity is inclusive of its own instant")

	n, err = f.quotes.ExpireDue(ctx, deadline.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	want := map[string]domain.QuoteStatus{
		draftDue.ID:    domain.QuoteStatusExpired,
		pendingDue.ID:  domain.QuoteStatusExpired,
		approvedDue.ID: domain.QuoteStatusApproved,
		notDue.ID:      domain.QuoteStatusDraft,
		undated.ID:     domain.QuoteStatusDraft,
	}
	for id, status := range want {
		stored, err := f.quotes.GetByID(ctx, id, false)
		require.NoError(t, err)
		require.Equal(t, status, stored.Status, id)
	}

	notes := "extend?"
	_, err = f.quotes.Update(ctx, draftDue.ID, QuoteUpdateInput{Notes: &notes})
	requireCode(t, err, apperrors.ErrEntityLocked)

	history, err := f.audit.History(ctx, domain.EntityQuote, pendingDue.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, domain.ActorKindSystem, history[1].ActorKind)
	require.Equal(t, "EXPIRED", history[1].NewStatus)
}

func TestQuoteService_ListByPricedFlag(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	_, err := f.quotes.Create(ctx, customer, QuoteCreateInput{CustomerID: "cust-1", Items: []ItemInput{{ProductID: "p-hinge", Quantity: dec("1")}}})
	require.NoError(t, err)
	_, err = f.quotes.Create(ctx, customer, QuoteCreateInput{CustomerID: "cust-1", Items: []ItemInput{Priced("p-hinge", dec("1"), dec("2"))}})
	require.NoError(t, err)

	yes, no := true, false
	priced, err := f.quotes.List(ctx, QuoteFilter{Priced: &yes})
	require.NoError(t, err)
	require.Equal(t, 1, priced.Total)
	require.True(t, priced.Rows[0].TotalAmount.Valid)

	unpriced, err := f.quotes.List(ctx, QuoteFilter{Priced: &no, IncludeItems: true})
	require.NoError(t, err)
	require.Equal(t, 1, unpriced.Total)
	require.Len(t, unpriced.Rows[0].Items, 1)
}
