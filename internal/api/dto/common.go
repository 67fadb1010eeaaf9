package dto

import "github.com/shopspring/decimal"

// ListMeta describes the page returned by a listing endpoint.
type ListMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewListMeta derives the page count from total and pageSize.
func NewListMeta(page, pageSize, total int) ListMeta {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return ListMeta{Page: page, PageSize: pageSize, Total: total, TotalPages: pages}
}

// TransitionRequest asks for a move to Status.
type TransitionRequest struct {
	Status string `json:"status"`
}

// ItemRequest is one requested line. unit_price may be omitted or null on quotes.
type ItemRequest struct {
	ProductID string              `json:"product_id"`
	Quantity  decimal.Decimal     `json:"quantity"`
	UnitPrice decimal.NullDecimal `json:"unit_price"`
}

// ReplaceItemsRequest replaces the whole item list.
type ReplaceItemsRequest struct {
	Items []ItemRequest `json:"items"`
}

// ItemResponse is a persisted line. Subtotal is null while unpriced.
type ItemResponse struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Quantity  string  `json:"quantity"`
	UnitPrice *string `json:"unit_price"`
	Subtotal  *string `json:"subtotal"`
	Position  int     `json:"position"`
}

// Money renders an amount with two fractional digits.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// OptionalMoney renders an amount or nil when it is undefined.
func OptionalMoney(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := Money(d.Decimal)
	return &s
}
