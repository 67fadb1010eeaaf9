package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-portal/internal/api/dto"
	"github.com/spec-kit/shop-portal/internal/auth"
	"github.com/spec-kit/shop-portal/internal/domain"
	"github.com/spec-kit/shop-portal/internal/service"
)

// QuotesHandler serves /quotes.
type QuotesHandler struct {
	service *service.QuoteService
	audit   *service.AuditService
}

// NewQuotesHandler constructs handler.
func NewQuotesHandler(quotes *service.QuoteService, audit *service.AuditService) *QuotesHandler {
	return &QuotesHandler{service: quotes, audit: audit}
}

// List GET /quotes.
func (h *QuotesHandler) List(c *fiber.Ctx) error {
	scope, err := customerScope(c)
	if err != nil {
		return err
	}
	q := newQueryReader(c)
	f := service.QuoteFilter{
		Page:           q.Int("page"),
		PageSize:       q.Int("page_size"),
		Search:         q.raw("search"),
		CustomerID:     q.String("customer_id"),
		MinTotal:       q.Decimal("min_total"),
		MaxTotal:       q.Decimal("max_total"),
		ValidUntilFrom: q.Time("valid_until_from"),
		ValidUntilTo:   q.TimeUntil("valid_until_to"),
		CreatedFrom:    q.Time("created_from"),
		CreatedTo:      q.TimeUntil("created_to"),
		Priced:         q.Bool("priced"),
		SortBy:         q.raw("sort_by"),
		SortDir:        q.raw("sort_dir"),
		IncludeItems:   q.Include("items"),
	}
	if status := q.String("status"); status != nil {
		s := domain.QuoteStatus(*status)
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
	return listJSON(c, result, dto.NewQuoteResponse)
}

// Get GET /quotes/:id.
func (h *QuotesHandler) Get(c *fiber.Ctx) error {
	scope, err := customerScope(c)
	if err != nil {
		return err
	}
	q := newQueryReader(c)
	include := q.Include("items")
	if err := q.Err(); err != nil {
		return err
	}
	quote, err := h.service.GetByID(c.UserContext(), c.Params("id"), include)
	if err != nil {
		return err
	}
	if err := ensureOwner(scope, "quote", quote.ID, quote.CustomerID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQuoteResponse(quote)})
}

// History GET /quotes/:id/history.
func (h *QuotesHandler) History(c *fiber.Ctx) error {
	if err := h.authorize(c); err != nil {
		return err
	}
	entries, err := h.audit.History(c.UserContext(), domain.EntityQuote, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAuditEntryResponses(entries)})
}

// Create POST /quotes.
func (h *QuotesHandler) Create(c *fiber.Ctx) error {
	scope, err := customerScope(c)
	if err != nil {
		return err
	}
	var req dto.CreateQuoteRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	quote, err := h.service.Create(c.UserContext(), auth.ActorFromContext(c), service.QuoteCreateInput{
		CustomerID: createCustomer(scope, req.CustomerID),
		Notes:      req.Notes,
		ValidUntil: req.ValidUntil,
		Items:      itemInputs(req.Items),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewQuoteResponse(quote)})
}

// Update PATCH /quotes/:id.
func (h *QuotesHandler) Update(c *fiber.Ctx) error {
	if err := h.authorize(c); err != nil {
		return err
	}
	var req dto.UpdateQuoteRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	quote, err := h.service.Update(c.UserContext(), c.Params("id"), service.QuoteUpdateInput{
		Notes:      req.Notes,
		ValidUntil: req.ValidUntil,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQuoteResponse(quote)})
}

// ReplaceItems PUT /quotes/:id/items.
func (h *QuotesHandler) ReplaceItems(c *fiber.Ctx) error {
	if err := h.authorize(c); err != nil {
		return err
	}
	var req dto.ReplaceItemsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	quote, err := h.service.ReplaceItems(c.UserContext(), c.Params("id"), itemInputs(req.Items))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQuoteResponse(quote)})
}

// Transition POST /quotes/:id/transition.
func (h *QuotesHandler) Transition(c *fiber.Ctx) error {
	var req dto.TransitionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	quote, err := h.service.Transition(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), domain.QuoteStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQuoteResponse(quote)})
}

// Shortcut adapts Submit, Approve or Reject into a route.
func (h *QuotesHandler) Shortcut(move func(context.Context, domain.Actor, string) (*domain.Quote, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := h.authorize(c); err != nil {
			return err
		}
		quote, err := move(c.UserContext(), auth.ActorFromContext(c), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.NewQuoteResponse(quote)})
	}
}

// Delete DELETE /quotes/:id.
func (h *QuotesHandler) Delete(c *fiber.Ctx) error {
	if err := h.authorize(c); err != nil {
		return err
	}
	if err := h.service.Remove(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *QuotesHandler) authorize(c *fiber.Ctx) error {
	scope, err := customerScope(c)
	if err != nil || scope == nil {
		return err
	}
	quote, err := h.service.GetByID(c.UserContext(), c.Params("id"), false)
	if err != nil {
		return err
	}
	return ensureOwner(scope, "quote", quote.ID, quote.CustomerID)
}
