package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus enumerates lifecycle states for production orders.
type OrderStatus string

const (
	OrderStatusPending      OrderStatus = "PENDING"
	OrderStatusConfirmed    OrderStatus = "CONFIRMED"
	OrderStatusInProduction OrderStatus = "IN_PRODUCTION"
	OrderStatusReady        OrderStatus = "READY"
	OrderStatusShipped      OrderStatus = "SHIPPED"
	OrderStatusDelivered    OrderStatus = "DELIVERED"
	OrderStatusCancelled    OrderStatus = "CANCELLED"
)

// AllOrderStatuses lists every declared order status.
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending, OrderStatusConfirmed, OrderStatusInProduction,
		OrderStatusReady, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
	}
}

// Valid returns true if the status is declared.
func (s OrderStatus) Valid() bool {
	for _, candidate := range AllOrderStatuses() {
		if candidate == s {
			return true
		}
	}
	return false
}

func (s OrderStatus) String() string { return string(s) }

// Order is the aggregate for a customer's production order.
type Order struct {
	ID                    string
	CustomerID            string
	Status                OrderStatus
	TotalAmount           decimal.Decimal
	Notes                 string
	EstimatedDeliveryDate *time.Time
	DeliveredAt           *time.Time
	Version               int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
	Items                 []OrderItem
}

// OrderItem is a priced line of an order.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Position  int
}

// Subtotal is quantity × unit price; it is never stored.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}
