package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/shop-portal/internal/domain"
	"github.com/spec-kit/shop-portal/internal/events"
	"github.com/spec-kit/shop-portal/internal/filter"
	"github.com/spec-kit/shop-portal/internal/lifecycle"
	"github.com/spec-kit/shop-portal/internal/reference"
	"github.com/spec-kit/shop-portal/internal/repository"
)

// TicketShape is the filter allow-list for tickets.
var TicketShape = filter.Shape{
	Entity: "ticket",
	Fields: map[string]filter.Field{
		"id":               {Column: "id", Kind: filter.KindString, Sortable: true},
		"customer_id":      {Column: "customer_id", Kind: filter.KindString},
		"status":           {Column: "status", Kind: filter.KindEnum, Values: ticketStatusValues(), Sortable: true},
		"priority":         {Column: "priority", Kind: filter.KindEnum, Values: ticketPriorityValues(), Sortable: true},
		"assignee_id":      {Column: "assignee_id", Kind: filter.KindString},
		"related_order_id": {Column: "related_order_id", Kind: filter.KindString},
		"resolved_at":      {Column: "resolved_at", Kind: filter.KindTime, Sortable: true},
		"closed_at":        {Column: "closed_at", Kind: filter.KindTime, Sortable: true},
		"created_at":       {Column: "created_at", Kind: filter.KindTime, Sortable: true},
		"updated_at":       {Column: "updated_at", Kind: filter.KindTime, Sortable: true},
		"assigned":         {Column: "assignee_id", Kind: filter.KindPresence},
	},
	SearchColumns: []string{"subject"},
	Includes:      []string{"messages"},
}

func ticketStatusValues() []string {
	var values []string
	for _, s := range domain.AllTicketStatuses() {
		values = append(values, string(s))
	}
	return values
}

func ticketPriorityValues() []string {
	var values []string
	for _, p := range domain.AllTicketPriorities() {
		values = append(values, string(p))
	}
	return values
}

// TicketFilter is the typed listing filter for tickets.
type TicketFilter struct {
	Page            int
	PageSize        int
	Search          string
	CustomerID      *string
	Status          *domain.TicketStatus
	Priority        *domain.TicketPriority
	AssigneeID      *string
	RelatedOrderID  *string
	Assigned        *bool
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	SortBy          string
	SortDir         string
	IncludeMessages bool
}

// Spec converts the typed filter into compiler input.
func (f TicketFilter) Spec() filter.Spec {
	spec := filter.Spec{
		Page:     f.Page,
		PageSize: f.PageSize,
		Search:   f.Search,
		Equals: map[string]any{
			"customer_id":      f.CustomerID,
			"status":           f.Status,
			"priority":         f.Priority,
			"assignee_id":      f.AssigneeID,
			"related_order_id": f.RelatedOrderID,
		},
		Ranges: map[string]filter.Range{
			"created_at": {Min: f.CreatedFrom, Max: f.CreatedTo},
		},
		Flags:   map[string]any{"assigned": f.Assigned},
		SortBy:  f.SortBy,
		SortDir: f.SortDir,
	}
	if f.IncludeMessages {
		spec.Include = includeList("messages")
	}
	return spec
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	CustomerID     string
	Subject        string
	Priority       domain.TicketPriority
	RelatedOrderID *string
}

// TicketUpdateInput is a partial update; nil fields are left untouched.
type TicketUpdateInput struct {
	Subject        *string
	Priority       *domain.TicketPriority
	RelatedOrderID *string
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	references reference.Checker
	rt         Runtime
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	References reference.Checker
	Runtime    Runtime
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		references: deps.References,
		rt:         deps.Runtime.withDefaults(),
	}
}

// Create opens a ticket for a customer.
func (s *TicketService) Create(ctx context.Context, actor domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	customerID := strings.TrimSpace(input.CustomerID)
	subject := strings.TrimSpace(input.Subject)
	if customerID == "" {
		return nil, validationError("customer is required", nil)
	}
	if subject == "" {
		return nil, validationError("subject is required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, validationError("unknown ticket priority", map[string]any{"priority": string(priority)})
	}
	if err := reference.Require(ctx, s.references, domain.ReferenceCustomer, customerID); err != nil {
		return nil, err
	}
	relatedOrderID := trimmed(input.RelatedOrderID)
	if relatedOrderID != nil && *relatedOrderID == "" {
		relatedOrderID = nil
	}
	if relatedOrderID != nil {
		if err := reference.Require(ctx, s.references, domain.ReferenceOrder, *relatedOrderID); err != nil {
			return nil, err
		}
	}

	now := s.rt.Now()
	ticket := &domain.Ticket{
		ID:             s.rt.NewID(),
		CustomerID:     customerID,
		Subject:        subject,
		Status:         lifecycle.TicketMachine.Initial(),
		Priority:       priority,
		RelatedOrderID: relatedOrderID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, s.rt.storeError(err, "ticket", ticket.ID)
	}
	ticket.Messages = []domain.TicketMessage{}
	s.rt.publishEvent(ctx, events.Event{
		Type:       events.EventTicketCreated,
		EntityKind: domain.EntityTicket,
		EntityID:   ticket.ID,
		CustomerID: ticket.CustomerID,
		Actor:      events.ActorFrom(actor),
		Payload:    events.CreatedPayload{Status: string(ticket.Status)},
	})
	return ticket, nil
}

// List compiles the filter and returns one page of tickets.
func (s *TicketService) List(ctx context.Context, f TicketFilter) (ListResult[domain.Ticket], error) {
	q, err := filter.Compile(f.Spec(), TicketShape, s.rt.Limits)
	if err != nil {
		return ListResult[domain.Ticket]{}, err
	}
	rows, total, err := s.tickets.List(ctx, q)
	if err != nil {
		return ListResult[domain.Ticket]{}, s.rt.storeError(err, "ticket", "")
	}
	return ListResult[domain.Ticket]{Rows: rows, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// GetByID returns the ticket, optionally with its thread.
func (s *TicketService) GetByID(ctx context.Context, id string, includeMessages bool) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id, includeMessages)
	if err != nil {
		return nil, s.rt.storeError(err, "ticket", id)
	}
	return ticket, nil
}

// Update applies the fields present in input.
func (s *TicketService) Update(ctx context.Context, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id, true)
	if err != nil {
		return nil, s.rt.storeError(err, "ticket", id)
	}
	if err := lifecycle.TicketMachine.EnsureMutable(ticket.Status); err != nil {
		return nil, err
	}
	if input.Subject == nil && input.Priority == nil && input.RelatedOrderID == nil {
		return ticket, nil
	}
	if subject := trimmed(input.Subject); subject != nil {
		if *subject == "" {
			return nil, validationError("subject must not be empty", nil)
		}
		ticket.Subject = *subject
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, validationError("unknown ticket priority", map[string]any{"priority": string(*input.Priority)})
		}
		ticket.Priority = *input.Priority
	}
	if related := trimmed(input.RelatedOrderID); related != nil {
		if *related == "" {
			ticket.RelatedOrderID = nil
		} else {
			if err := reference.Require(ctx, s.references, domain.ReferenceOrder, *related); err != nil {
				return nil, err
			}
			ticket.RelatedOrderID = related
		}
	}
	ticket.UpdatedAt = s.rt.Now()
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, s.rt.storeError(err, "ticket", id)
	}
	return ticket, nil
}

// Assign sets the assignee. An OPEN ticket moves to IN_PROGRESS in the same write.
func (s *TicketService) Assign(ctx context.Context, actor domain.Actor, id, assigneeID string) (*domain.Ticket, error) {
	assigneeID = strings.TrimSpace(assigneeID)
	if assigneeID == "" {
		return nil, validationError("assignee is required", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, id, true)
	if err != nil {
		return nil, s.rt.storeError(err, "ticket", id)
	}
	if err := lifecycle.TicketMachine.EnsureMutable(ticket.Status); err != nil {
		return nil, err
	}

	now := s.rt.Now()
	oldStatus := ticket.Status
	ticket.AssigneeID = &assigneeID
	ticket.UpdatedAt = now
	moved := lifecycle.Assigned(ticket, now)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, s.rt.storeError(err, "ticket", id)
	}

	s.rt.publishEvent(ctx, events.Event{
		Type:       events.EventTicketAssigned,
		EntityKind: domain.EntityTicket,
		EntityID:   ticket.ID,
		CustomerID: ticket.CustomerID,
		Actor:      events.ActorFrom(actor),
		Payload:    events.TicketAssignedPayload{AssigneeID: assigneeID},
	})
	if moved {
		s.rt.publishStatusChange(ctx, events.EventTicketStatusChanged, domain.EntityTicket, ticket.ID, ticket.CustomerID, actor, string(oldStatus), string(ticket.Status))
	}
	return ticket, nil
}

// AddMessage appends to the thread. A customer-visible message on a ticket
// waiting for the customer moves it back to IN_PROGRESS.
func (s *TicketService) AddMessage(ctx context.Context, actor domain.Actor, id, body string, isInternal bool) (*domain.TicketMessage, *domain.Ticket, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, nil, validationError("message body is required", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, id, true)
	if err != nil {
		return nil, nil, s.rt.storeError(err, "ticket", id)
	}
	if err := lifecycle.TicketMachine.EnsureMutable(ticket.Status); err != nil {
		return nil, nil, err
	}

	now := s.rt.Now()
	msg := domain.TicketMessage{
		ID:         s.rt.NewID(),
		TicketID:   ticket.ID,
		AuthorID:   actor.ID,
		Body:       body,
		IsInternal: isInternal,
		CreatedAt:  now,
	}
	oldStatus := ticket.Status
	moved := lifecycle.CustomerReplied(ticket, msg, now)
	ticket.UpdatedAt = now
	if err := s.tickets.AppendMessage(ctx, ticket, &msg); err != nil {
		return nil, nil, s.rt.storeError(err, "ticket", id)
	}
	ticket.Messages = append(ticket.Messages, msg)

	s.rt.publishEvent(ctx, events.Event{
		Type:       events.EventTicketMessageAdded,
		EntityKind: domain.EntityTicket,
		EntityID:   ticket.ID,
		CustomerID: ticket.CustomerID,
		Actor:      events.ActorFrom(actor),
		Payload: events.TicketMessageAddedPayload{
			MessageID:   msg.ID,
			AuthorID:    msg.AuthorID,
			IsInternal:  msg.IsInternal,
			BodyPreview: stringPreview(msg.Body, 120),
		},
	})
	if moved {
		s.rt.publishStatusChange(ctx, events.EventTicketStatusChanged, domain.EntityTicket, ticket.ID, ticket.CustomerID, actor, string(oldStatus), string(ticket.Status))
	}
	return &msg, ticket, nil
}

// Transition moves the ticket to target if the table allows it.
func (s *TicketService) Transition(ctx context.Context, actor domain.Actor, id string, target domain.TicketStatus) (*domain.Ticket, error) {
	if !lifecycle.TicketMachine.Known(target) {
		return nil, validationError("unknown ticket status", map[string]any{"status": string(target)})
	}
	return s.transition(ctx, actor, id, target)
}

// Start moves OPEN or WAITING_CUSTOMER -> IN_PROGRESS.
func (s *TicketService) Start(ctx context.Context, actor domain.Actor, id string) (*domain.Ticket, error) {
	return s.transition(ctx, actor, id, domain.TicketStatusInProgress,
		domain.TicketStatusOpen, domain.TicketStatusWaitingCustomer)
}

// AwaitCustomer moves IN_PROGRESS -> WAITING_CUSTOMER.
func (s *TicketService) AwaitCustomer(ctx context.Context, actor domain.Actor, id string) (*domain.Ticket, error) {
	return s.transition(ctx, actor, id, domain.TicketStatusWaitingCustomer, domain.TicketStatusInProgress)
}

// Resolve moves IN_PROGRESS or WAITING_CUSTOMER -> RESOLVED.
func (s *TicketService) Resolve(ctx context.Context, actor domain.Actor, id string) (*domain.Ticket, error) {
	return s.transition(ctx, actor, id, domain.TicketStatusResolved,
		domain.TicketStatusInProgress, domain.TicketStatusWaitingCustomer)
}

// Close moves any open ticket to CLOSED.
func (s *TicketService) Close(ctx context.Context, actor domain.Actor, id string) (*domain.Ticket, error) {
	return s.transition(ctx, actor, id, domain.TicketStatusClosed,
		domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusWaitingCustomer, domain.TicketStatusResolved)
}

// Reopen moves CLOSED or RESOLVED -> IN_PROGRESS and clears completion timestamps.
func (s *TicketService) Reopen(ctx context.Context, actor domain.Actor, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id, true)
	if err != nil {
		return nil, s.rt.storeError(err, "ticket", id)
	}
	oldStatus := ticket.Status
	if err := lifecycle.ReopenTicket(ticket, s.rt.Now()); err != nil {
		return nil, err
	}
	return s.persistTransition(ctx, actor, ticket, oldStatus)
}

func (s *TicketService) transition(ctx context.Context, actor domain.Actor, id string, target domain.TicketStatus, from ...domain.TicketStatus) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id, true)
	if err != nil {
		return nil, s.rt.storeError(err, "ticket", id)
	}
	oldStatus := ticket.Status
	if err := lifecycle.ApplyTicket(ticket, target, s.rt.Now(), from...); err != nil {
		return nil, err
	}
	return s.persistTransition(ctx, actor, ticket, oldStatus)
}

func (s *TicketService) persistTransition(ctx context.Context, actor domain.Actor, ticket *domain.Ticket, oldStatus domain.TicketStatus) (*domain.Ticket, error) {
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, s.rt.storeError(err, "ticket", ticket.ID)
	}
	s.rt.publishStatusChange(ctx, events.EventTicketStatusChanged, domain.EntityTicket, ticket.ID, ticket.CustomerID, actor, string(oldStatus), string(ticket.Status))
	return ticket, nil
}

// Remove deletes the ticket and its thread. Tickets are deletable in every
// status; who may delete is decided by the transport.
func (s *TicketService) Remove(ctx context.Context, id string) error {
	ticket, err := s.tickets.GetByID(ctx, id, false)
	if err != nil {
		return s.rt.storeError(err, "ticket", id)
	}
	if err := lifecycle.TicketMachine.EnsureDeletable(ticket.Status); err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return s.rt.storeError(err, "ticket", id)
	}
	s.rt.Logger.Info("ticket removed", zap.String("id", id), zap.String("status", string(ticket.Status)))
	return nil
}
