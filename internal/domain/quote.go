package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteStatus enumerates lifecycle states for quotes.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "DRAFT"
	QuoteStatusPending  QuoteStatus = "PENDING"
	QuoteStatusApproved QuoteStatus = "APPROVED"
	QuoteStatusRejected QuoteStatus = "REJECTED"
	QuoteStatusExpired  QuoteStatus = "EXPIRED"
)

// AllQuoteStatuses lists every declared quote status.
func AllQuoteStatuses() []QuoteStatus {
	return []QuoteStatus{
		QuoteStatusDraft, QuoteStatusPending, QuoteStatusApproved,
		QuoteStatusRejected, QuoteStatusExpired,
	}
}

// Valid returns true if the status is declared.
func (s QuoteStatus) Valid() bool {
	for _, candidate := range AllQuoteStatuses() {
		if candidate == s {
			return true
		}
	}
	return false
}

func (s QuoteStatus) String() string { return string(s) }

// Quote is a price proposal. TotalAmount.Valid is false while any item is unpriced.
type Quote struct {
	ID          string
	CustomerID  string
	Status      QuoteStatus
	TotalAmount decimal.NullDecimal
	Notes       string
	ValidUntil  *time.Time
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []QuoteItem
}

// QuoteItem mirrors OrderItem but the price may be absent while the quote is a draft.
type QuoteItem struct {
	ID        string
	QuoteID   string
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.NullDecimal
	Position  int
}

// Priced reports whether the item carries a unit price.
func (i QuoteItem) Priced() bool {
	return i.UnitPrice.Valid
}

// UnpricedItemIDs returns the ids of items without a unit price, in item order.
func (q *Quote) UnpricedItemIDs() []string {
	var ids []string
	for _, item := range q.Items {
		if !item.Priced() {
			ids = append(ids, item.ID)
		}
	}
	return ids
}
