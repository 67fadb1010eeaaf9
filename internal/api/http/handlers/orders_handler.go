package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-portal/internal/api/dto"
	"github.com/spec-kit/shop-portal/internal/auth"
	"github.com/spec-kit/shop-portal/internal/domain"
	"github.com/spec-kit/shop-portal/internal/service"
)

// OrdersHandler serves /orders.
type OrdersHandler struct {
	service *service.OrderService
	audit   *service.AuditService
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orders *service.OrderService, audit *service.AuditService) *OrdersHandler {
	return &OrdersHandler{service: orders, audit: audit}
}

// List GET /orders.
func (h *OrdersHandler) List(c *fiber.Ctx) error {
	scope, err := customerScope(c)
	if err != nil {
		return err
	}
	q := newQueryReader(c)
	f := service.OrderFilter{
		Page:         q.Int("page"),
		PageSize:     q.Int("page_size"),
		Search:       q.raw("search"),
		CustomerID:   q.String("customer_id"),
		MinTotal:     q.Decimal("min_total"),
		MaxTotal:     q.Decimal("max_total"),
		CreatedFrom:  q.Time("created_from"),
		CreatedTo:    q.TimeUntil("created_to"),
		Delivered:    q.Bool("delivered"),
		SortBy:       q.raw("sort_by"),
		SortDir:      q.raw("sort_dir"),
		IncludeItems: q.Include("items"),
	}
	if status := q.String("status"); status != nil {
		s := domain.OrderStatus(*status)
		f.Status = &s
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
	return listJSON(c, result, dto.NewOrderResponse)
}

// Get GET /orders/:id.
func (h *OrdersHandler) Get(c *fiber.Ctx) error {
	scope, err := customerScope(c)
	if err != nil {
		return err
	}
	q := newQueryReader(c)
	include := q.Include("items")
	if err := q.Err(); err != nil {
		return err
	}
	order, err := h.service.GetByID(c.UserContext(), c.Params("id"), include)
	if err != nil {
		return err
	}
	if err := ensureOwner(scope, "order", order.ID, order.CustomerID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// History GET /orders/:id/history.
func (h *OrdersHandler) History(c *fiber.Ctx) error {
	if err := h.authorize(c); err != nil {
		return err
	}
	entries, err := h.audit.History(c.UserContext(), domain.EntityOrder, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAuditEntryResponses(entries)})
}

// Create POST /orders.
func (h *OrdersHandler) Create(c *fiber.Ctx) error {
	scope, err := customerScope(c)
	if err != nil {
		return err
	}
	var req dto.CreateOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	order, err := h.service.Create(c.UserContext(), auth.ActorFromContext(c), service.OrderCreateInput{
		CustomerID:            createCustomer(scope, req.CustomerID),
		Notes:                 req.Notes,
		EstimatedDeliveryDate: req.EstimatedDeliveryDate,
		Items:                 itemInputs(req.Items),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// Update PATCH /orders/:id.
func (h *OrdersHandler) Update(c *fiber.Ctx) error {
	if err := h.authorize(c); err != nil {
		return err
	}
	var req dto.UpdateOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	order, err := h.service.Update(c.UserContext(), c.Params("id"), service.OrderUpdateInput{
		Notes:                 req.Notes,
		EstimatedDeliveryDate: req.EstimatedDeliveryDate,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// ReplaceItems PUT /orders/:id/items.
func (h *OrdersHandler) ReplaceItems(c *fiber.Ctx) error {
	if err := h.authorize(c); err != nil {
		return err
	}
	var req dto.ReplaceItemsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	order, err := h.service.ReplaceItems(c.UserContext(), c.Params("id"), itemInputs(req.Items))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// Transition POST /orders/:id/transition.
func (h *OrdersHandler) Transition(c *fiber.Ctx) error {
	var req dto.TransitionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	order, err := h.service.Transition(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), domain.OrderStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// Shortcut adapts a named transition such as Confirm or Cancel into a route.
func (h *OrdersHandler) Shortcut(move func(context.Context, domain.Actor, string) (*domain.Order, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := h.authorize(c); err != nil {
			return err
		}
		order, err := move(c.UserContext(), auth.ActorFromContext(c), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
	}
}

// Delete DELETE /orders/:id.
func (h *OrdersHandler) Delete(c *fiber.Ctx) error {
	if err := h.authorize(c); err != nil {
		return err
	}
	if err := h.service.Remove(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// authorize confines customer callers to their own orders.
func (h *OrdersHandler) authorize(c *fiber.Ctx) error {
	scope, err := customerScope(c)
	if err != nil || scope == nil {
		return err
	}
	order, err := h.service.GetByID(c.UserContext(), c.Params("id"), false)
	if err != nil {
		return err
	}
	return ensureOwner(scope, "order", order.ID, order.CustomerID)
}
