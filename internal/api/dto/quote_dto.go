package dto

import (
	"time"

	"github.com/spec-kit/shop-portal/internal/aggregate"
	"github.com/spec-kit/shop-portal/internal/domain"
)

// CreateQuoteRequest payload. customer_id is ignored for customer callers.
type CreateQuoteRequest struct {
	CustomerID string        `json:"customer_id"`
	Notes      string        `json:"notes"`
	ValidUntil *time.Time    `json:"valid_until"`
	Items      []ItemRequest `json:"items"`
}

// UpdateQuoteRequest is a partial update.
type UpdateQuoteRequest struct {
	Notes      *string    `json:"notes"`
	ValidUntil *time.Time `json:"valid_until"`
}

// QuoteResponse renders a quote. TotalAmount is null while any item is unpriced.
type QuoteResponse struct {
	ID              string             `json:"id"`
	CustomerID      string             `json:"customer_id"`
	Status          domain.QuoteStatus `json:"status"`
	TotalAmount     *string            `json:"total_amount"`
	Notes           string             `json:"notes"`
	ValidUntil      *time.Time         `json:"valid_until"`
	Version         int64              `json:"version"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Items           []ItemResponse     `json:"items,omitempty"`
	UnpricedItemIDs []string           `json:"unpriced_item_ids,omitempty"`
}

// NewQuoteResponse maps a domain quote.
func NewQuoteResponse(quote *domain.Quote) QuoteResponse {
	resp := QuoteResponse{
		ID:          quote.ID,
		CustomerID:  quote.CustomerID,
		Status:      quote.Status,
		TotalAmount: OptionalMoney(quote.TotalAmount),
		Notes:       quote.Notes,
		ValidUntil:  quote.ValidUntil,
		Version:     quote.Version,
		CreatedAt:   quote.CreatedAt,
		UpdatedAt:   quote.UpdatedAt,
	}
	if quote.Items != nil {
		resp.Items = make([]ItemResponse, 0, len(quote.Items))
		lines := aggregate.QuoteLines(quote.Items)
		for i, item := range quote.Items {
			resp.Items = append(resp.Items, ItemResponse{
				ID:        item.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity.String(),
				UnitPrice: OptionalMoney(item.UnitPrice),
				Subtotal:  OptionalMoney(lines[i].Subtotal()),
				Position:  item.Position,
			})
		}
		resp.UnpricedItemIDs = quote.UnpricedItemIDs()
	}
	return resp
}
