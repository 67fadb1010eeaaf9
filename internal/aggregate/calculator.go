// Package aggregate recomputes line-item totals in fixed-point decimal.
package aggregate

import (
	"github.com/shopspring/decimal"

	"github.com/spec-kit/shop-portal/internal/domain"
)

// Line is the pricing view of an item. UnitPrice.Valid is false for unpriced lines.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.NullDecimal
}

// Undefined is the total of a line set containing an unpriced line.
var Undefined = decimal.NullDecimal{}

// Subtotal returns quantity × unit price, or Undefined when the line is unpriced.
func (l Line) Subtotal() decimal.NullDecimal {
	if !l.UnitPrice.Valid {
		return Undefined
	}
	return decimal.NewNullDecimal(l.Quantity.Mul(l.UnitPrice.Decimal))
}

// Recompute sums the subtotals. Any unpriced line makes the result Undefined.
// An empty set totals zero.
func Recompute(lines []Line) decimal.NullDecimal {
	total := decimal.Zero
	for _, line := range lines {
		sub := line.Subtotal()
		if !sub.Valid {
			return Undefined
		}
		total = total.Add(sub.Decimal)
	}
	return decimal.NewNullDecimal(total)
}

// OrderLines adapts order items; order items are always priced.
func OrderLines(items []domain.OrderItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, Line{
			Quantity:  item.Quantity,
			UnitPrice: decimal.NewNullDecimal(item.UnitPrice),
		})
	}
	return lines
}

// QuoteLines adapts quote items.
func QuoteLines(items []domain.QuoteItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, Line{Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	return lines
}

// OrderTotal recomputes and returns the order total.
func OrderTotal(items []domain.OrderItem) decimal.Decimal {
	// order items always carry a price, so the result is always defined
	return Recompute(OrderLines(items)).Decimal
}

// QuoteTotal recomputes the quote total, Undefined while any item is unpriced.
func QuoteTotal(items []domain.QuoteItem) decimal.NullDecimal {
	return Recompute(QuoteLines(items))
}
