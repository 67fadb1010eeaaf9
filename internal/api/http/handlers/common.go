package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-portal/internal/api/dto"
	"github.com/spec-kit/shop-portal/internal/auth"
	"github.com/spec-kit/shop-portal/internal/service"
	apperrors "github.com/spec-kit/shop-portal/pkg/util/errorutil"
)

// customerScope returns the customer a customer caller is confined to, or nil
// for staff.
func customerScope(c *fiber.Ctx) (*string, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if principal.IsStaff() {
		return nil, nil
	}
	if principal.Account == nil || principal.Account.CustomerID == nil {
		return nil, apperrors.NewForbidden("account is not linked to a customer")
	}
	id := *principal.Account.CustomerID
	return &id, nil
}

// ensureOwner hides records of other customers behind NotFound.
func ensureOwner(scope *string, entity, id, customerID string) error {
	if scope != nil && *scope != customerID {
		return apperrors.NewNotFound(entity, map[string]any{"id": id})
	}
	return nil
}

// createCustomer picks the customer a new record belongs to.
func createCustomer(scope *string, requested string) string {
	if scope != nil {
		return *scope
	}
	return requested
}

func bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"reason": err.Error()})
	}
	return nil
}

func itemInputs(items []dto.ItemRequest) []service.ItemInput {
	inputs := make([]service.ItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, service.ItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return inputs
}

func listJSON[T any, R any](c *fiber.Ctx, result service.ListResult[T], mapRow func(*T) R) error {
	rows := make([]R, 0, len(result.Rows))
	for i := range result.Rows {
		rows = append(rows, mapRow(&result.Rows[i]))
	}
	return c.JSON(fiber.Map{
		"data": rows,
		"meta": dto.NewListMeta(result.Page, result.PageSize, result.Total),
	})
}
