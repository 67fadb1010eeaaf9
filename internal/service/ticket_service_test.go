package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shop-portal/internal/domain"
	apperrors "github.com/spec-kit/shop-portal/pkg/util/errorutil"
)

func (f *fixture) createTicket(t *testing.T, subject string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.Create(context.Background(), customer, TicketCreateInput{CustomerID: "cust-1", Subject: subject})
	require.NoError(t, err)
	return ticket
}

func TestTicketService_ScenarioC_AutomaticMoves(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	ticket := f.createTicket(t, "Flange tolerance question")
	require.Equal(t, domain.TicketStatusOpen, ticket.Status)
	require.Equal(t, domain.TicketPriorityMedium, ticket.Priority)

	assigned, err := f.tickets.Assign(ctx, staff, ticket.ID, "staff-7")
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusInProgress, assigned.Status)
	require.Equal(t, "staff-7", *assigned.AssigneeID)

	waiting, err := f.tickets.AwaitCustomer(ctx, staff, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusWaitingCustomer, waiting.Status)

	_, afterNote, err := f.tickets.AddMessage(ctx, staff, ticket.ID, "checking drawings", true)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusWaitingCustomer, afterNote.Status, "internal notes do not move the ticket")

	msg, afterReply, err := f.tickets.AddMessage(ctx, customer, ticket.ID, "  here is the drawing  ", false)
	require.NoError(t, err)
	require.Equal(t, "here is the drawing", msg.Body)
	require.Equal(t, domain.TicketStatusInProgress, afterReply.Status)

	stored, err := f.tickets.GetByID(ctx, ticket.ID, true)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusInProgress, stored.Status)
	require.Len(t, stored.Messages, 2)
	require.True(t, stored.Messages[0].IsInternal)
	require.False(t, stored.Messages[1].IsInternal)

	history, err := f.audit.History(ctx, domain.EntityTicket, ticket.ID)
	require.NoError(t, err)
	var moves []string
	for _, entry := range history {
		moves = append(moves, entry.OldStatus+">"+entry.NewStatus)
	}
	require.Equal(t, []string{
		"OPEN>IN_PROGRESS",
		"IN_PROGRESS>WAITING_CUSTOMER",
		"WAITING_CUSTOMER>IN_PROGRESS",
	}, moves)
}

func TestTicketService_AssignKeepsStatusOutsideOpen(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	ticket := f.createTicket(t, "Invoice copy")
	_, err := f.tickets.Start(ctx, staff, ticket.ID)
	require.NoError(t, err)
	_, err = f.tickets.AwaitCustomer(ctx, staff, ticket.ID)
	require.NoError(t, err)

	reassigned, err := f.tickets.Assign(ctx, staff, ticket.ID, "staff-2")
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusWaitingCustomer, reassigned.Status)

	_, err = f.tickets.Assign(ctx, staff, ticket.ID, "  ")
	requireCode(t, err, apperrors.ErrValidation)
}

func TestTicketService_CloseAndReopen(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	ticket := f.createTicket(t, "Damaged crate")

	closed, err := f.tickets.Close(ctx, staff, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	require.NotNil(t, closed.ResolvedAt)
	require.Equal(t, *closed.ClosedAt, *closed.ResolvedAt)

	_, _, err = f.tickets.AddMessage(ctx, customer, ticket.ID, "any update?", false)
	requireCode(t, err, apperrors.ErrEntityLocked)
	subject := "renamed"
	_, err = f.tickets.Update(ctx, ticket.ID, TicketUpdateInput{Subject: &subject})
	requireCode(t, err, apperrors.ErrEntityLocked)
	_, err = f.tickets.Transition(ctx, staff, ticket.ID, domain.TicketStatusInProgress)
	requireCode(t, err, apperrors.ErrInvalidTransition)

	reopened, err := f.tickets.Reopen(ctx, staff, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusInProgress, reopened.Status)
	require.Nil(t, reopened.ClosedAt)
	require.Nil(t, reopened.ResolvedAt)

	resolved, err := f.tickets.Resolve(ctx, staff, ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)
	require.Nil(t, resolved.ClosedAt)

	closedAgain, err := f.tickets.Close(ctx, staff, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, *resolved.ResolvedAt, *closedAgain.ResolvedAt, "resolution time is kept when closing")

	_, err = f.tickets.Reopen(ctx, staff, f.createTicket(t, "fresh").ID)
	requireCode(t, err, apperrors.ErrInvalidTransition)
}

func TestTicketService_CreateValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)
	missing := "ord-missing"
	bogus := domain.TicketPriority("SOMEDAY")

	cases := []struct {
		name  string
		input TicketCreateInput
		want  *apperrors.DomainError
	}{
		{"missing subject", TicketCreateInput{CustomerID: "cust-1", Subject: "   "}, apperrors.ErrValidation},
		{"unknown priority", TicketCreateInput{CustomerID: "cust-1", Subject: "x", Priority: bogus}, apperrors.ErrValidation},
		{"unknown customer", TicketCreateInput{CustomerID: "cust-9", Subject: "x"}, apperrors.ErrReferenceNotFound},
		{"unknown related order", TicketCreateInput{CustomerID: "cust-1", Subject: "x", RelatedOrderID: &missing}, apperrors.ErrReferenceNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.tickets.Create(ctx, customer, tc.input)
			requireCode(t, err, tc.want)
		})
	}

	ticket, err := f.tickets.Create(ctx, customer, TicketCreateInput{
		CustomerID:     "cust-1",
		Subject:        "Where is my order",
		Priority:       domain.TicketPriorityHigh,
		RelatedOrderID: &order.ID,
	})
	require.NoError(t, err)
	require.Equal(t, order.ID, *ticket.RelatedOrderID)
}

func TestTicketService_ListAndRemove(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	hinge := f.createTicket(t, "Hinge squeaks")
	f.createTicket(t, "Bracket finish")
	closed := f.createTicket(t, "Hinge shipment late")
	_, err := f.tickets.Assign(ctx, staff, hinge.ID, "staff-3")
	require.NoError(t, err)
	_, err = f.tickets.Close(ctx, staff, closed.ID)
	require.NoError(t, err)

	found, err := f.tickets.List(ctx, TicketFilter{Search: "hinge", SortBy: "created_at", SortDir: "asc"})
	require.NoError(t, err)
	require.Equal(t, 2, found.Total)
	require.Equal(t, hinge.ID, found.Rows[0].ID)

	yes := true
	assigned, err := f.tickets.List(ctx, TicketFilter{Assigned: &yes})
	require.NoError(t, err)
	require.Equal(t, 1, assigned.Total)
	require.Equal(t, hinge.ID, assigned.Rows[0].ID)

	_, err = f.tickets.List(ctx, TicketFilter{SortBy: "subject"})
	requireCode(t, err, apperrors.ErrInvalidFilter)

	require.NoError(t, f.tickets.Remove(ctx, closed.ID))
	_, err = f.tickets.GetByID(ctx, closed.ID, false)
	requireCode(t, err, apperrors.ErrNotFound)
	requireCode(t, f.tickets.Remove(ctx, closed.ID), apperrors.ErrNotFound)
}

func TestTicketService_RelatedOrderMustStillExist(t *testing.T) {
	t.Parallel()

	f := newCachedFixture(t, newMemoryCache())
	ctx := context.Background()
	order := f.createOrder(t)

	first, err := f.tickets.Create(ctx, customer, TicketCreateInput{
		CustomerID: "cust-1", Subject: "Bracket finish", RelatedOrderID: &order.ID,
	})
	require.NoError(t, err)
	require.Equal(t, order.ID, *first.RelatedOrderID)

	require.NoError(t, f.orders.Remove(ctx, order.ID))

	_, err = f.tickets.Create(ctx, customer, TicketCreateInput{
		CustomerID: "cust-1", Subject: "Bracket finish again", RelatedOrderID: &order.ID,
	})
	domainErr := requireCode(t, err, apperrors.ErrReferenceNotFound)
	require.Equal(t, order.ID, domainErr.Details["id"])

	plain := f.createTicket(t, "Unrelated")
	_, err = f.tickets.Update(ctx, plain.ID, TicketUpdateInput{RelatedOrderID: &order.ID})
	requireCode(t, err, apperrors.ErrReferenceNotFound)

	missing := "o-missing"
	_, err = f.tickets.Update(ctx, plain.ID, TicketUpdateInput{RelatedOrderID: &missing})
	requireCode(t, err, apperrors.ErrReferenceNotFound)

	other := f.createOrder(t)
	updated, err := f.tickets.Update(ctx, plain.ID, TicketUpdateInput{RelatedOrderID: &other.ID})
	require.NoError(t, err)
	require.Equal(t, other.ID, *updated.RelatedOrderID)
}
