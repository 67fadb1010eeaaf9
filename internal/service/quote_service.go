package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-portal/internal/aggregate"
	"github.com/spec-kit/shop-portal/internal/domain"
	"github.com/spec-kit/shop-portal/internal/events"
	"github.com/spec-kit/shop-portal/internal/filter"
	"github.com/spec-kit/shop-portal/internal/lifecycle"
	"github.com/spec-kit/shop-portal/internal/reference"
	"github.com/spec-kit/shop-portal/internal/repository"
	apperrors "github.com/spec-kit/shop-portal/pkg/util/errorutil"
)

// QuoteShape is the filter allow-list for quotes.
var QuoteShape = filter.Shape{
	Entity: "quote",
	Fields: map[string]filter.Field{
		"id":           {Column: "id", Kind: filter.KindString, Sortable: true},
		"customer_id":  {Column: "customer_id", Kind: filter.KindString},
		"status":       {Column: "status", Kind: filter.KindEnum, Values: quoteStatusValues(), Sortable: true},
		"total_amount": {Column: "total_amount", Kind: filter.KindDecimal, Sortable: true},
		"valid_until":  {Column: "valid_until", Kind: filter.KindTime, Sortable: true},
		"created_at":   {Column: "created_at", Kind: filter.KindTime, Sortable: true},
		"updated_at":   {Column: "updated_at", Kind: filter.KindTime, Sortable: true},
		"priced":       {Column: "total_amount", Kind: filter.KindPresence},
	},
	SearchColumns: []string{"notes"},
	Includes:      []string{"items"},
}

func quoteStatusValues() []string {
	var values []string
	for _, s := range domain.AllQuoteStatuses() {
		values = append(values, string(s))
	}
	return values
}

// QuoteFilter is the typed listing filter for quotes.
type QuoteFilter struct {
	Page           int
	PageSize       int
	Search         string
	CustomerID     *string
	Status         *domain.QuoteStatus
	MinTotal       *decimal.Decimal
	MaxTotal       *decimal.Decimal
	ValidUntilFrom *time.Time
	ValidUntilTo   *time.Time
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Priced         *bool
	SortBy         string
	SortDir        string
	IncludeItems   bool
}

// Spec converts the typed filter into compiler input.
func (f QuoteFilter) Spec() filter.Spec {
	spec := filter.Spec{
		Page:     f.Page,
		PageSize: f.PageSize,
		Search:   f.Search,
		Equals: map[string]any{
			"customer_id": f.CustomerID,
			"status":      f.Status,
		},
		Ranges: map[string]filter.Range{
			"total_amount": {Min: f.MinTotal, Max: f.MaxTotal},
			"valid_until":  {Min: f.ValidUntilFrom, Max: f.ValidUntilTo},
			"created_at":   {Min: f.CreatedFrom, Max: f.CreatedTo},
		},
		Flags:   map[string]any{"priced": f.Priced},
		SortBy:  f.SortBy,
		SortDir: f.SortDir,
	}
	if f.IncludeItems {
		spec.Include = includeList("items")
	}
	return spec
}

// QuoteCreateInput describes quote creation payload.
type QuoteCreateInput struct {
	CustomerID string
	Notes      string
	ValidUntil *time.Time
	Items      []ItemInput
}

// QuoteUpdateInput is a partial update; nil fields are left untouched.
type QuoteUpdateInput struct {
	Notes      *string
	ValidUntil *time.Time
}

// QuoteService coordinates quote workflows.
type QuoteService struct {
	quotes     repository.QuoteRepository
	references reference.Checker
	rt         Runtime
}

// QuoteDependencies bundles collaborators for the quote service.
type QuoteDependencies struct {
	QuoteRepo  repository.QuoteRepository
	References reference.Checker
	Runtime    Runtime
}

// NewQuoteService constructs the service.
func NewQuoteService(deps QuoteDependencies) *QuoteService {
	return &QuoteService{
		quotes:     deps.QuoteRepo,
		references: deps.References,
		rt:         deps.Runtime.withDefaults(),
	}
}

// Create stores a DRAFT quote. Items may be unpriced; the total is then undefined.
func (s *QuoteService) Create(ctx context.Context, actor domain.Actor, input QuoteCreateInput) (*domain.Quote, error) {
	customerID := strings.TrimSpace(input.CustomerID)
	if customerID == "" {
		return nil, validationError("customer is required", nil)
	}
	if err := validateItems(input.Items, false); err != nil {
		return nil, err
	}
	if err := reference.Require(ctx, s.references, domain.ReferenceCustomer, customerID); err != nil {
		return nil, err
	}
	if err := reference.Require(ctx, s.references, domain.ReferenceProduct, productIDs(input.Items)...); err != nil {
		return nil, err
	}

	now := s.rt.Now()
	quote := &domain.Quote{
		ID:         s.rt.NewID(),
		CustomerID: customerID,
		Status:     lifecycle.QuoteMachine.Initial(),
		Notes:      strings.TrimSpace(input.Notes),
		ValidUntil: input.ValidUntil,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	quote.Items = s.buildItems(quote.ID, input.Items)
	quote.TotalAmount = aggregate.QuoteTotal(quote.Items)

	if err := s.quotes.Create(ctx, quote); err != nil {
		return nil, s.rt.storeError(err, "quote", quote.ID)
	}
	payload := events.CreatedPayload{Status: string(quote.Status), Items: len(quote.Items)}
	if quote.TotalAmount.Valid {
		payload.Total = quote.TotalAmount.Decimal.StringFixed(2)
	}
	s.rt.publishEvent(ctx, events.Event{
		Type:       events.EventQuoteCreated,
		EntityKind: domain.EntityQuote,
		EntityID:   quote.ID,
		CustomerID: quote.CustomerID,
		Actor:      events.ActorFrom(actor),
		Payload:    payload,
	})
	return quote, nil
}

func (s *QuoteService) buildItems(quoteID string, inputs []ItemInput) []domain.QuoteItem {
	items := make([]domain.QuoteItem, 0, len(inputs))
	for i, in := range inputs {
		items = append(items, domain.QuoteItem{
			ID:        s.rt.NewID(),
			QuoteID:   quoteID,
			ProductID: strings.TrimSpace(in.ProductID),
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
			Position:  i,
		})
	}
	return items
}

// List compiles the filter and returns one page of quotes.
func (s *QuoteService) List(ctx context.Context, f QuoteFilter) (ListResult[domain.Quote], error) {
	q, err := filter.Compile(f.Spec(), QuoteShape, s.rt.Limits)
	if err != nil {
		return ListResult[domain.Quote]{}, err
	}
	rows, total, err := s.quotes.List(ctx, q)
	if err != nil {
		return ListResult[domain.Quote]{}, s.rt.storeError(err, "quote", "")
	}
	return ListResult[domain.Quote]{Rows: rows, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// GetByID returns the quote, optionally with its items.
func (s *QuoteService) GetByID(ctx context.Context, id string, includeItems bool) (*domain.Quote, error) {
	quote, err := s.quotes.GetByID(ctx, id, includeItems)
	if err != nil {
		return nil, s.rt.storeError(err, "quote", id)
	}
	return quote, nil
}

// Update applies the fields present in input.
func (s *QuoteService) Update(ctx context.Context, id string, input QuoteUpdateInput) (*domain.Quote, error) {
	quote, err := s.quotes.GetByID(ctx, id, true)
	if err != nil {
		return nil, s.rt.storeError(err, "quote", id)
	}
	if err := lifecycle.QuoteMachine.EnsureMutable(quote.Status); err != nil {
		return nil, err
	}
	if input.Notes == nil && input.ValidUntil == nil {
		return quote, nil
	}
	if notes := trimmed(input.Notes); notes != nil {
		quote.Notes = *notes
	}
	if input.ValidUntil != nil {
		quote.ValidUntil = input.ValidUntil
	}
	quote.UpdatedAt = s.rt.Now()
	if err := s.quotes.Update(ctx, quote, false); err != nil {
		return nil, s.rt.storeError(err, "quote", id)
	}
	return quote, nil
}

// ReplaceItems swaps the full item list. Outside DRAFT every item must be priced.
func (s *QuoteService) ReplaceItems(ctx context.Context, id string, inputs []ItemInput) (*domain.Quote, error) {
	quote, err := s.quotes.GetByID(ctx, id, true)
	if err != nil {
		return nil, s.rt.storeError(err, "quote", id)
	}
	if err := lifecycle.QuoteMachine.EnsureMutable(quote.Status); err != nil {
		return nil, err
	}
	requirePrice := quote.Status != domain.QuoteStatusDraft
	if requirePrice && len(inputs) == 0 {
		return nil, validationError("submitted quote requires at least one item", nil)
	}
	if err := validateItems(inputs, requirePrice); err != nil {
		return nil, err
	}
	if err := reference.Require(ctx, s.references, domain.ReferenceProduct, productIDs(inputs)...); err != nil {
		return nil, err
	}

	quote.Items = s.buildItems(quote.ID, inputs)
	quote.TotalAmount = aggregate.QuoteTotal(quote.Items)
	quote.UpdatedAt = s.rt.Now()
	if err := s.quotes.Update(ctx, quote, true); err != nil {
		return nil, s.rt.storeError(err, "quote", id)
	}
	return quote, nil
}

// Transition moves the quote to target. PENDING goes through Submit so the
// pricing checks always run; EXPIRED is never accepted from a caller.
func (s *QuoteService) Transition(ctx context.Context, actor domain.Actor, id string, target domain.QuoteStatus) (*domain.Quote, error) {
	if !lifecycle.QuoteMachine.Known(target) {
		return nil, validationError("unknown quote status", map[string]any{"status": string(target)})
	}
	if target == domain.QuoteStatusPending {
		return s.Submit(ctx, actor, id)
	}
	return s.transition(ctx, actor, id, target)
}

// Submit moves DRAFT -> PENDING once the quote has items and all are priced.
func (s *QuoteService) Submit(ctx context.Context, actor domain.Actor, id string) (*domain.Quote, error) {
	quote, err := s.quotes.GetByID(ctx, id, true)
	if err != nil {
		return nil, s.rt.storeError(err, "quote", id)
	}
	if err := lifecycle.QuoteMachine.CheckFrom(quote.Status, domain.QuoteStatusPending, domain.QuoteStatusDraft); err != nil {
		return nil, err
	}
	if len(quote.Items) == 0 {
		return nil, validationError("quote requires at least one item before submission", nil)
	}
	if unpriced := quote.UnpricedItemIDs(); len(unpriced) > 0 {
		return nil, validationError("quote has unpriced items", map[string]any{"unpriced_item_ids": unpriced})
	}

	quote.TotalAmount = aggregate.QuoteTotal(quote.Items)
	return s.persistTransition(ctx, actor, quote, domain.QuoteStatusPending, domain.QuoteStatusDraft)
}

// Approve moves PENDING -> APPROVED.
func (s *QuoteService) Approve(ctx context.Context, actor domain.Actor, id string) (*domain.Quote, error) {
	return s.transition(ctx, actor, id, domain.QuoteStatusApproved, domain.QuoteStatusPending)
}

// Reject moves PENDING -> REJECTED.
func (s *QuoteService) Reject(ctx context.Context, actor domain.Actor, id string) (*domain.Quote, error) {
	return s.transition(ctx, actor, id, domain.QuoteStatusRejected, domain.QuoteStatusPending)
}

func (s *QuoteService) transition(ctx context.Context, actor domain.Actor, id string, target domain.QuoteStatus, from ...domain.QuoteStatus) (*domain.Quote, error) {
	quote, err := s.quotes.GetByID(ctx, id, true)
	if err != nil {
		return nil, s.rt.storeError(err, "quote", id)
	}
	return s.persistTransition(ctx, actor, quote, target, from...)
}

func (s *QuoteService) persistTransition(ctx context.Context, actor domain.Actor, quote *domain.Quote, target domain.QuoteStatus, from ...domain.QuoteStatus) (*domain.Quote, error) {
	oldStatus := quote.Status
	if err := lifecycle.ApplyQuote(quote, target, s.rt.Now(), from...); err != nil {
		return nil, err
	}
	if err := s.quotes.Update(ctx, quote, false); err != nil {
		return nil, s.rt.storeError(err, "quote", quote.ID)
	}
	s.rt.publishStatusChange(ctx, events.EventQuoteStatusChanged, domain.EntityQuote, quote.ID, quote.CustomerID, actor, string(oldStatus), string(quote.Status))
	return quote, nil
}

// ExpireDue moves every DRAFT or PENDING quote whose validity has passed to
// EXPIRED and returns how many were expired. Quotes changed concurrently are
// skipped and picked up on the next run.
func (s *QuoteService) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	var candidates []string
	for _, status := range []domain.QuoteStatus{domain.QuoteStatusDraft, domain.QuoteStatusPending} {
		status := status
		for page := 1; ; page++ {
			q, err := filter.Compile(filter.Spec{
				Page:     page,
				PageSize: s.rt.Limits.MaxPageSize,
				Equals:   map[string]any{"status": status},
				Ranges:   map[string]filter.Range{"valid_until": {Max: now}},
				SortBy:   "id",
			}, QuoteShape, s.rt.Limits)
			if err != nil {
				return 0, err
			}
			rows, total, err := s.quotes.List(ctx, q)
			if err != nil {
				return 0, s.rt.storeError(err, "quote", "")
			}
			for _, row := range rows {
				candidates = append(candidates, row.ID)
			}
			if q.Offset+len(rows) >= total || len(rows) == 0 {
				break
			}
		}
	}

	expired := 0
	for _, id := range candidates {
		quote, err := s.quotes.GetByID(ctx, id, false)
		if err != nil {
			return expired, s.rt.storeError(err, "quote", id)
		}
		if !lifecycle.Expirable(quote, now) {
			continue
		}
		oldStatus := quote.Status
		if err := lifecycle.ExpireQuote(quote, now); err != nil {
			return expired, err
		}
		if err := s.quotes.Update(ctx, quote, false); err != nil {
			mapped := s.rt.storeError(err, "quote", id)
			if apperrors.ToDomainError(mapped).Retryable() {
				s.rt.Logger.Warn("quote changed during expiry; skipping", zap.String("id", id))
				continue
			}
			return expired, mapped
		}
		expired++
		s.rt.publishStatusChange(ctx, events.EventQuoteStatusChanged, domain.EntityQuote, quote.ID, quote.CustomerID, domain.SystemActor, string(oldStatus), string(quote.Status))
	}
	return expired, nil
}

// Remove deletes the quote and its items unless its status forbids deletion.
func (s *QuoteService) Remove(ctx context.Context, id string) error {
	quote, err := s.quotes.GetByID(ctx, id, false)
	if err != nil {
		return s.rt.storeError(err, "quote", id)
	}
	if err := lifecycle.QuoteMachine.EnsureDeletable(quote.Status); err != nil {
		return err
	}
	if err := s.quotes.Delete(ctx, id); err != nil {
		return s.rt.storeError(err, "quote", id)
	}
	return nil
}
