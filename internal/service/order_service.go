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
)

// OrderShape is the filter allow-list for orders.
var OrderShape = filter.Shape{
	Entity: "order",
	Fields: map[string]filter.Field{
		"id":                      {Column: "id", Kind: filter.KindString, Sortable: true},
		"customer_id":             {Column: "customer_id", Kind: filter.KindString},
		"status":                  {Column: "status", Kind: filter.KindEnum, Values: orderStatusValues(), Sortable: true},
		"total_amount":            {Column: "total_amount", Kind: filter.KindDecimal, Sortable: true},
		"estimated_delivery_date": {Column: "estimated_delivery_date", Kind: filter.KindTime, Sortable: true},
		"delivered_at":            {Column: "delivered_at", Kind: filter.KindTime, Sortable: true},
		"created_at":              {Column: "created_at", Kind: filter.KindTime, Sortable: true},
		"updated_at":              {Column: "updated_at", Kind: filter.KindTime, Sortable: true},
		"delivered":               {Column: "delivered_at", Kind: filter.KindPresence},
	},
	SearchColumns: []string{"notes"},
	Includes:      []string{"items"},
}

func orderStatusValues() []string {
	var values []string
	for _, s := range domain.AllOrderStatuses() {
		values = append(values, string(s))
	}
	return values
}

// OrderFilter is the typed listing filter for orders.
type OrderFilter struct {
	Page         int
	PageSize     int
	Search       string
	CustomerID   *string
	Status       *domain.OrderStatus
	MinTotal     *decimal.Decimal
	MaxTotal     *decimal.Decimal
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Delivered    *bool
	SortBy       string
	SortDir      string
	IncludeItems bool
}

// Spec converts the typed filter into compiler input.
func (f OrderFilter) Spec() filter.Spec {
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
			"created_at":   {Min: f.CreatedFrom, Max: f.CreatedTo},
		},
		Flags:   map[string]any{"delivered": f.Delivered},
		SortBy:  f.SortBy,
		SortDir: f.SortDir,
	}
	if f.IncludeItems {
		spec.Include = includeList("items")
	}
	return spec
}

// OrderCreateInput describes order creation payload. Status is never taken
// from the caller.
type OrderCreateInput struct {
	CustomerID            string
	Notes                 string
	EstimatedDeliveryDate *time.Time
	Items                 []ItemInput
}

// OrderUpdateInput is a partial update; nil fields are left untouched.
type OrderUpdateInput struct {
	Notes                 *string
	EstimatedDeliveryDate *time.Time
}

// OrderService coordinates order workflows.
type OrderService struct {
	orders     repository.OrderRepository
	references reference.Checker
	rt         Runtime
}

// OrderDependencies bundles collaborators for the order service.
type OrderDependencies struct {
	OrderRepo  repository.OrderRepository
	References reference.Checker
	Runtime    Runtime
}

// NewOrderService constructs the service.
func NewOrderService(deps OrderDependencies) *OrderService {
	return &OrderService{
		orders:     deps.OrderRepo,
		references: deps.References,
		rt:         deps.Runtime.withDefaults(),
	}
}

// Create validates references, prices the order and persists it with its items.
func (s *OrderService) Create(ctx context.Context, actor domain.Actor, input OrderCreateInput) (*domain.Order, error) {
	customerID := strings.TrimSpace(input.CustomerID)
	if customerID == "" {
		return nil, validationError("customer is required", nil)
	}
	if len(input.Items) == 0 {
		return nil, validationError("order requires at least one item", nil)
	}
	if err := validateItems(input.Items, true); err != nil {
		return nil, err
	}
	if err := reference.Require(ctx, s.references, domain.ReferenceCustomer, customerID); err != nil {
		return nil, err
	}
	if err := reference.Require(ctx, s.references, domain.ReferenceProduct, productIDs(input.Items)...); err != nil {
		return nil, err
	}

	now := s.rt.Now()
	order := &domain.Order{
		ID:                    s.rt.NewID(),
		CustomerID:            customerID,
		Status:                lifecycle.OrderMachine.Initial(),
		Notes:                 strings.TrimSpace(input.Notes),
		EstimatedDeliveryDate: input.EstimatedDeliveryDate,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	order.Items = s.buildItems(order.ID, input.Items)
	order.TotalAmount = aggregate.OrderTotal(order.Items)

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, s.rt.storeError(err, "order", order.ID)
	}
	s.rt.Logger.Info("order created", zap.String("id", order.ID), zap.String("total", order.TotalAmount.StringFixed(2)))
	s.rt.publishEvent(ctx, events.Event{
		Type:       events.EventOrderCreated,
		EntityKind: domain.EntityOrder,
		EntityID:   order.ID,
		CustomerID: order.CustomerID,
		Actor:      events.ActorFrom(actor),
		Payload: events.CreatedPayload{
			Status: string(order.Status),
			Items:  len(order.Items),
			Total:  order.TotalAmount.StringFixed(2),
		},
	})
	return order, nil
}

func (s *OrderService) buildItems(orderID string, inputs []ItemInput) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(inputs))
	for i, in := range inputs {
		items = append(items, domain.OrderItem{
			ID:        s.rt.NewID(),
			OrderID:   orderID,
			ProductID: strings.TrimSpace(in.ProductID),
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice.Decimal,
			Position:  i,
		})
	}
	return items
}

// List compiles the filter and returns one page of orders.
func (s *OrderService) List(ctx context.Context, f OrderFilter) (ListResult[domain.Order], error) {
	q, err := filter.Compile(f.Spec(), OrderShape, s.rt.Limits)
	if err != nil {
		return ListResult[domain.Order]{}, err
	}
	rows, total, err := s.orders.List(ctx, q)
	if err != nil {
		return ListResult[domain.Order]{}, s.rt.storeError(err, "order", "")
	}
	return ListResult[domain.Order]{Rows: rows, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// GetByID returns the order, optionally with its items.
func (s *OrderService) GetByID(ctx context.Context, id string, includeItems bool) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id, includeItems)
	if err != nil {
		return nil, s.rt.storeError(err, "order", id)
	}
	return order, nil
}

// Update applies the fields present in input.
func (s *OrderService) Update(ctx context.Context, id string, input OrderUpdateInput) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id, true)
	if err != nil {
		return nil, s.rt.storeError(err, "order", id)
	}
	if err := lifecycle.OrderMachine.EnsureMutable(order.Status); err != nil {
		return nil, err
	}
	if input.Notes == nil && input.EstimatedDeliveryDate == nil {
		return order, nil
	}
	if notes := trimmed(input.Notes); notes != nil {
		order.Notes = *notes
	}
	if input.EstimatedDeliveryDate != nil {
		order.EstimatedDeliveryDate = input.EstimatedDeliveryDate
	}
	order.UpdatedAt = s.rt.Now()
	if err := s.orders.Update(ctx, order, false); err != nil {
		return nil, s.rt.storeError(err, "order", id)
	}
	return order, nil
}

// ReplaceItems swaps the full item list and recomputes the total in the same write.
func (s *OrderService) ReplaceItems(ctx context.Context, id string, inputs []ItemInput) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id, true)
	if err != nil {
		return nil, s.rt.storeError(err, "order", id)
	}
	if err := lifecycle.OrderMachine.EnsureMutable(order.Status); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, validationError("order requires at least one item", nil)
	}
	if err := validateItems(inputs, true); err != nil {
		return nil, err
	}
	if err := reference.Require(ctx, s.references, domain.ReferenceProduct, productIDs(inputs)...); err != nil {
		return nil, err
	}

	order.Items = s.buildItems(order.ID, inputs)
	order.TotalAmount = aggregate.OrderTotal(order.Items)
	order.UpdatedAt = s.rt.Now()
	if err := s.orders.Update(ctx, order, true); err != nil {
		return nil, s.rt.storeError(err, "order", id)
	}
	return order, nil
}

// Transition moves the order to target if the table allows it.
func (s *OrderService) Transition(ctx context.Context, actor domain.Actor, id string, target domain.OrderStatus) (*domain.Order, error) {
	if !lifecycle.OrderMachine.Known(target) {
		return nil, validationError("unknown order status", map[string]any{"status": string(target)})
	}
	return s.transition(ctx, actor, id, target)
}

// Confirm moves PENDING -> CONFIRMED.
func (s *OrderService) Confirm(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	return s.transition(ctx, actor, id, domain.OrderStatusConfirmed, domain.OrderStatusPending)
}

// StartProduction moves CONFIRMED -> IN_PRODUCTION.
func (s *OrderService) StartProduction(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	return s.transition(ctx, actor, id, domain.OrderStatusInProduction, domain.OrderStatusConfirmed)
}

// MarkReady moves IN_PRODUCTION -> READY.
func (s *OrderService) MarkReady(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	return s.transition(ctx, actor, id, domain.OrderStatusReady, domain.OrderStatusInProduction)
}

// Ship moves READY -> SHIPPED.
func (s *OrderService) Ship(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	return s.transition(ctx, actor, id, domain.OrderStatusShipped, domain.OrderStatusReady)
}

// Deliver moves SHIPPED -> DELIVERED.
func (s *OrderService) Deliver(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	return s.transition(ctx, actor, id, domain.OrderStatusDelivered, domain.OrderStatusShipped)
}

// Cancel moves any not-yet-shipped order to CANCELLED.
func (s *OrderService) Cancel(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	return s.transition(ctx, actor, id, domain.OrderStatusCancelled,
		domain.OrderStatusPending, domain.OrderStatusConfirmed, domain.OrderStatusInProduction, domain.OrderStatusReady)
}

func (s *OrderService) transition(ctx context.Context, actor domain.Actor, id string, target domain.OrderStatus, from ...domain.OrderStatus) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id, true)
	if err != nil {
		return nil, s.rt.storeError(err, "order", id)
	}
	oldStatus := order.Status
	if err := lifecycle.ApplyOrder(order, target, s.rt.Now(), from...); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, order, false); err != nil {
		return nil, s.rt.storeError(err, "order", id)
	}
	s.rt.publishStatusChange(ctx, events.EventOrderStatusChanged, domain.EntityOrder, order.ID, order.CustomerID, actor, string(oldStatus), string(order.Status))
	return order, nil
}

// Remove deletes the order and its items unless its status forbids deletion.
func (s *OrderService) Remove(ctx context.Context, id string) error {
	order, err := s.orders.GetByID(ctx, id, false)
	if err != nil {
		return s.rt.storeError(err, "order", id)
	}
	if err := lifecycle.OrderMachine.EnsureDeletable(order.Status); err != nil {
		return err
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		return s.rt.storeError(err, "order", id)
	}
	s.rt.Logger.Info("order removed", zap.String("id", id), zap.String("status", string(order.Status)))
	return nil
}
