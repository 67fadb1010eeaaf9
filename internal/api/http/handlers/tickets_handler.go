package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-portal/internal/api/dto"
	"github.com/spec-kit/shop-portal/internal/auth"
	"github.com/spec-kit/shop-portal/internal/domain"
	"github.com/spec-kit/shop-portal/internal/service"
)

// TicketsHandler serves /tickets. Customers never see internal messages.
type TicketsHandler struct {
	service *service.TicketService
	audit   *service.AuditService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, audit *service.AuditService) *TicketsHandler {
	return &TicketsHandler{service: tickets, audit: audit}
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	scope, err := customerScope(c)
	if err != nil {
		return err
	}
	q := newQueryReader(c)
	f := service.TicketFilter{
		Page:            q.Int("page"),
		PageSize:        q.Int("page_size"),
		Search:          q.raw("search"),
		CustomerID:      q.String("customer_id"),
		AssigneeID:      q.String("assignee_id"),
		RelatedOrderID:  q.String("related_order_id"),
		Assigned:        q.Bool("assigned"),
		CreatedFrom:     q.Time("created_from"),
		CreatedTo:       q.TimeUntil("created_to"),
		SortBy:          q.raw("sort_by"),
		SortDir:         q.raw("sort_dir"),
		IncludeMessages: q.Include("messages"),
	}
	if status := q.String("status"); status != nil {
		s := domain.TicketStatus(*status)
		f.Status = &s
	}
	if priority := q.String("priority"); priority != nil {
		p := domain.TicketPriority(*priority)
		f.Priority = &p
	}
	if err := q.Err(); err != nil {
		return err
	}
	if scope != nil {
		f.CustomerID = scope
	}

	result, err := h.service.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	staff := scope == nil
	return listJSON(c, result, func(t *domain.Ticket) dto.TicketResponse {
		return dto.NewTicketResponse(t, staff)
	})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	scope, err := customerScope(c)
	if err != nil {
		return err
	}
	q := newQueryReader(c)
	include := q.Include("messages")
	if err := q.Err(); err != nil {
		return err
	}
	ticket, err := h.service.GetByID(c.UserContext(), c.Params("id"), include)
	if err != nil {
		return err
	}
	if err := ensureOwner(scope, "ticket", ticket.ID, ticket.CustomerID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, scope == nil)})
}

// History GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	if _, err := h.authorize(c); err != nil {
		return err
	}
	entries, err := h.audit.History(c.UserContext(), domain.EntityTicket, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAuditEntryResponses(entries)})
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	scope, err := customerScope(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Create(c.UserContext(), auth.ActorFromContext(c), service.TicketCreateInput{
		CustomerID:     createCustomer(scope, req.CustomerID),
		Subject:        req.Subject,
		Priority:       req.Priority,
		RelatedOrderID: req.RelatedOrderID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, scope == nil)})
}

// Update PATCH /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	staff, err := h.authorize(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Update(c.UserContext(), c.Params("id"), service.TicketUpdateInput{
		Subject:        req.Subject,
		Priority:       req.Priority,
		RelatedOrderID: req.RelatedOrderID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, staff)})
}

// Assign POST /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Assign(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, true)})
}

// AddMessage POST /tickets/:id/messages. Customer messages are never internal.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	staff, err := h.authorize(c)
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	msg, ticket, err := h.service.AddMessage(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), req.Body, req.IsInternal && staff)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": dto.NewTicketMessageResponse(msg),
		"meta": fiber.Map{"ticket_status": ticket.Status},
	})
}

// Transition POST /tickets/:id/transition.
func (h *TicketsHandler) Transition(c *fiber.Ctx) error {
	var req dto.TransitionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Transition(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), domain.TicketStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, true)})
}

// Shortcut adapts a named move such as Close or Reopen into a route.
func (h *TicketsHandler) Shortcut(move func(context.Context, domain.Actor, string) (*domain.Ticket, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		staff, err := h.authorize(c)
		if err != nil {
			return err
		}
		ticket, err := move(c.UserContext(), auth.ActorFromContext(c), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, staff)})
	}
}

// Delete DELETE /tickets/:id. Routed for staff only.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Remove(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// authorize confines customer callers to their own tickets and reports
// whether the caller is staff.
func (h *TicketsHandler) authorize(c *fiber.Ctx) (bool, error) {
	scope, err := customerScope(c)
	if err != nil {
		return false, err
	}
	if scope == nil {
		return true, nil
	}
	ticket, err := h.service.GetByID(c.UserContext(), c.Params("id"), false)
	if err != nil {
		return false, err
	}
	return false, ensureOwner(scope, "ticket", ticket.ID, ticket.CustomerID)
}
