package service

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ItemInput is one requested line of an order or quote. UnitPrice may be
// absent only on quotes.
type ItemInput struct {
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.NullDecimal
}

// Priced builds an ItemInput carrying a unit price.
func Priced(productID string, quantity, unitPrice decimal.Decimal) ItemInput {
	return ItemInput{ProductID: productID, Quantity: quantity, UnitPrice: decimal.NewNullDecimal(unitPrice)}
}

// Item quantities and prices are stored as NUMERIC(18, 4).
const (
	itemScale         = 4
	itemIntegerDigits = 14
)

var itemLimit = decimal.New(1, itemIntegerDigits)

// fitsItemColumn reports whether d is stored without rounding or overflow.
func fitsItemColumn(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(itemScale)) && d.Abs().LessThan(itemLimit)
}

// validateItems checks quantities and prices before any aggregate runs.
func validateItems(items []ItemInput, requirePrice bool) error {
	for i, item := range items {
		if strings.TrimSpace(item.ProductID) == "" {
			return validationError("item product is required", map[string]any{"index": i})
		}
		if !item.Quantity.IsPositive() {
			return validationError("item quantity must be greater than zero", map[string]any{"index": i, "product_id": item.ProductID})
		}
		if !fitsItemColumn(item.Quantity) {
			return validationError("item quantity allows at most 4 decimal places and 14 integer digits",
				map[string]any{"index": i, "product_id": item.ProductID, "quantity": item.Quantity.String()})
		}
		if !item.UnitPrice.Valid {
			if requirePrice {
				return validationError("item unit price is required", map[string]any{"index": i, "product_id": item.ProductID})
			}
			continue
		}
		if item.UnitPrice.Decimal.IsNegative() {
			return validationError("item unit price must not be negative", map[string]any{"index": i, "product_id": item.ProductID})
		}
		if !fitsItemColumn(item.UnitPrice.Decimal) {
			return validationError("item unit price allows at most 4 decimal places and 14 integer digits",
				map[string]any{"index": i, "product_id": item.ProductID, "unit_price": item.UnitPrice.Decimal.String()})
		}
	}
	return nil
}

func productIDs(items []ItemInput) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, strings.TrimSpace(item.ProductID))
	}
	return ids
}
