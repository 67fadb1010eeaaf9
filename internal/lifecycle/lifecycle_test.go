package lifecycle

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shop-portal/internal/domain"
	apperrors "github.com/spec-kit/shop-portal/pkg/util/errorutil"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestOrderMachine_Edges(t *testing.T) {
	t.Parallel()

	want := [][2]domain.OrderStatus{
		{domain.OrderStatusConfirmed, domain.OrderStatusCancelled},
		{domain.OrderStatusConfirmed, domain.OrderStatusInProduction},
		{domain.OrderStatusInProduction, domain.OrderStatusCancelled},
		{domain.OrderStatusInProduction, domain.OrderStatusReady},
		{domain.OrderStatusPending, domain.OrderStatusCancelled},
		{domain.OrderStatusPending, domain.OrderStatusConfirmed},
		{domain.OrderStatusReady, domain.OrderStatusCancelled},
		{domain.OrderStatusReady, domain.OrderStatusShipped},
		{domain.OrderStatusShipped, domain.OrderStatusDelivered},
	}

	if diff := cmp.Diff(want, OrderMachine.Edges()); diff != "" {
		t.Fatalf("order edges mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderMachine_EveryNonEdgeIsRejected(t *testing.T) {
	t.Parallel()

	for _, from := range domain.AllOrderStatuses() {
		for _, to := range domain.AllOrderStatuses() {
			order := &domain.Order{Status: from}
			err := ApplyOrder(order, to, t0)
			if OrderMachine.CanTransition(from, to) {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, order.Status)
				continue
			}
			require.ErrorIs(t, err, apperrors.ErrInvalidTransition, "%s -> %s", from, to)
			assert.Equal(t, from, order.Status, "state must be unchanged after rejected %s -> %s", from, to)
			assert.Contains(t, err.Error(), string(from))
			assert.Contains(t, err.Error(), string(to))
		}
	}
}

// Random walks never leave the transition graph and never restamp deliveredAt.
func TestOrderMachine_RandomWalkStaysOnGraph(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	statuses := domain.AllOrderStatuses()

	for walk := 0; walk < 200; walk++ {
		order := &domain.Order{Status: OrderMachine.Initial()}
		var firstDelivered *time.Time
		now := t0
		for step := 0; step < 20; step++ {
			now = now.Add(time.Hour)
			prev := order.Status
			target := statuses[rng.Intn(len(statuses))]
			err := ApplyOrder(order, target, now)
			if err != nil {
				assert.Equal(t, prev, order.Status)
				continue
			}
			assert.True(t, OrderMachine.CanTransition(prev, order.Status))
			if order.Status == domain.OrderStatusDelivered {
				if firstDelivered == nil {
					stamp := *order.DeliveredAt
					firstDelivered = &stamp
				}
				assert.Equal(t, *firstDelivered, *order.DeliveredAt)
			}
		}
	}
}

func TestApplyOrder_DeliveredAtSetOnce(t *testing.T) {
	t.Parallel()

	earlier := t0.Add(-48 * time.Hour)
	order := &domain.Order{Status: domain.OrderStatusShipped, DeliveredAt: &earlier}

	require.NoError(t, ApplyOrder(order, domain.OrderStatusDelivered, t0))
	assert.Equal(t, earlier, *order.DeliveredAt)

	fresh := &domain.Order{Status: domain.OrderStatusShipped}
	require.NoError(t, ApplyOrder(fresh, domain.OrderStatusDelivered, t0))
	require.NotNil(t, fresh.DeliveredAt)
	assert.Equal(t, t0, *fresh.DeliveredAt)
}

func TestApplyOrder_ExpectedSourceAsserted(t *testing.T) {
	t.Parallel()

	// PENDING -> CANCELLED is an edge, but the caller expected READY.
	order := &domain.Order{Status: domain.OrderStatusPending}
	err := ApplyOrder(order, domain.OrderStatusCancelled, t0, domain.OrderStatusReady)
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
}

func TestLockedAndDeletable(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		mutableErr error
		deleteErr  error
	}{
		{"order delivered", OrderMachine.EnsureMutable(domain.OrderStatusDelivered), OrderMachine.EnsureDeletable(domain.OrderStatusDelivered)},
		{"order cancelled", OrderMachine.EnsureMutable(domain.OrderStatusCancelled), OrderMachine.EnsureDeletable(domain.OrderStatusCancelled)},
		{"order pending", OrderMachine.EnsureMutable(domain.OrderStatusPending), OrderMachine.EnsureDeletable(domain.OrderStatusPending)},
		{"quote approved", QuoteMachine.EnsureMutable(domain.QuoteStatusApproved), QuoteMachine.EnsureDeletable(domain.QuoteStatusApproved)},
		{"quote rejected", QuoteMachine.EnsureMutable(domain.QuoteStatusRejected), QuoteMachine.EnsureDeletable(domain.QuoteStatusRejected)},
		{"quote draft", QuoteMachine.EnsureMutable(domain.QuoteStatusDraft), QuoteMachine.EnsureDeletable(domain.QuoteStatusDraft)},
		{"ticket closed", TicketMachine.EnsureMutable(domain.TicketStatusClosed), TicketMachine.EnsureDeletable(domain.TicketStatusClosed)},
	}
	wantLocked := map[string]bool{
		"order delivered": true, "order cancelled": true, "quote approved": true,
		"quote rejected": true, "ticket closed": true,
	}
	wantUndeletable := map[string]bool{"order delivered": true, "quote approved": true}

	for _, testCase := range testCases {
		if wantLocked[testCase.name] {
			assert.ErrorIs(t, testCase.mutableErr, apperrors.ErrEntityLocked, testCase.name)
		} else {
			assert.NoError(t, testCase.mutableErr, testCase.name)
		}
		if wantUndeletable[testCase.name] {
			assert.ErrorIs(t, testCase.deleteErr, apperrors.ErrDeletionForbidden, testCase.name)
		} else {
			assert.NoError(t, testCase.deleteErr, testCase.name)
		}
	}
}

func TestQuoteMachine_ExpiredOnlyBySystem(t *testing.T) {
	t.Parallel()

	for _, from := range domain.AllQuoteStatuses() {
		assert.False(t, QuoteMachine.CanTransition(from, domain.QuoteStatusExpired), "user edge into EXPIRED from %s", from)
	}

	past := t0.Add(-time.Hour)
	quote := &domain.Quote{Status: domain.QuoteStatusPending, ValidUntil: &past}
	require.True(t, Expirable(quote, t0))
	require.NoError(t, ExpireQuote(quote, t0))
	assert.Equal(t, domain.QuoteStatusExpired, quote.Status)
	assert.True(t, QuoteMachine.Terminal(domain.QuoteStatusExpired))

	approved := &domain.Quote{Status: domain.QuoteStatusApproved, ValidUntil: &past}
	assert.False(t, Expirable(approved, t0))
	assert.ErrorIs(t, ExpireQuote(approved, t0), apperrors.ErrInvalidTransition)
}

func TestApplyTicket_Timestamps(t *testing.T) {
	t.Parallel()

	ticket := &domain.Ticket{Status: domain.TicketStatusOpen}
	require.NoError(t, ApplyTicket(ticket, domain.TicketStatusInProgress, t0))
	require.NoError(t, ApplyTicket(ticket, domain.TicketStatusResolved, t0.Add(time.Hour)))
	require.NotNil(t, ticket.ResolvedAt)
	assert.Equal(t, t0.Add(time.Hour), *ticket.ResolvedAt)

	require.NoError(t, ApplyTicket(ticket, domain.TicketStatusClosed, t0.Add(2*time.Hour)))
	assert.Equal(t, t0.Add(time.Hour), *ticket.ResolvedAt, "resolvedAt kept from first resolution")
	assert.Equal(t, t0.Add(2*time.Hour), *ticket.ClosedAt)
}

func TestApplyTicket_CloseWithoutResolutionStampsBoth(t *testing.T) {
	t.Parallel()

	ticket := &domain.Ticket{Status: domain.TicketStatusOpen}
	require.NoError(t, ApplyTicket(ticket, domain.TicketStatusClosed, t0))
	require.NotNil(t, ticket.ResolvedAt)
	require.NotNil(t, ticket.ClosedAt)
	assert.Equal(t, t0, *ticket.ResolvedAt)
	assert.Equal(t, t0, *ticket.ClosedAt)
}

func TestTicket_ClosedOnlyLeavesThroughReopen(t *testing.T) {
	t.Parallel()

	ticket := &domain.Ticket{Status: domain.TicketStatusOpen}
	require.NoError(t, ApplyTicket(ticket, domain.TicketStatusClosed, t0))

	for _, to := range domain.AllTicketStatuses() {
		assert.ErrorIs(t, ApplyTicket(ticket, to, t0), apperrors.ErrInvalidTransition)
	}

	require.NoError(t, ReopenTicket(ticket, t0.Add(time.Hour)))
	assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)
	assert.Nil(t, ticket.ResolvedAt)
	assert.Nil(t, ticket.ClosedAt)

	assert.ErrorIs(t, ReopenTicket(ticket, t0), apperrors.ErrInvalidTransition)
}

func TestTicket_PlainResolvedToInProgressKeepsResolvedAt(t *testing.T) {
	t.Parallel()

	ticket := &domain.Ticket{Status: domain.TicketStatusInProgress}
	require.NoError(t, ApplyTicket(ticket, domain.TicketStatusResolved, t0))
	require.NoError(t, ApplyTicket(ticket, domain.TicketStatusInProgress, t0.Add(time.Hour)))
	require.NotNil(t, ticket.ResolvedAt)
	assert.Equal(t, t0, *ticket.ResolvedAt)
}

func TestTicket_AutomaticMoves(t *testing.T) {
	t.Parallel()

	ticket := &domain.Ticket{Status: domain.TicketStatusOpen}
	assert.True(t, Assigned(ticket, t0))
	assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)
	assert.False(t, Assigned(ticket, t0))

	require.NoError(t, ApplyTicket(ticket, domain.TicketStatusWaitingCustomer, t0))
	assert.False(t, CustomerReplied(ticket, domain.TicketMessage{IsInternal: true}, t0))
	assert.Equal(t, domain.TicketStatusWaitingCustomer, ticket.Status)

	assert.True(t, CustomerReplied(ticket, domain.TicketMessage{Body: "here you go"}, t0))
	assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)
}
