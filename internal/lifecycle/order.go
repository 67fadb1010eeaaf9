package lifecycle

import (
	"time"

	"github.com/spec-kit/shop-portal/internal/domain"
)

// OrderMachine is the order transition table.
var OrderMachine = newMachine("order", domain.OrderStatusPending,
	map[domain.OrderStatus][]domain.OrderStatus{
		domain.OrderStatusPending:      {domain.OrderStatusConfirmed, domain.OrderStatusCancelled},
		domain.OrderStatusConfirmed:    {domain.OrderStatusInProduction, domain.OrderStatusCancelled},
		domain.OrderStatusInProduction: {domain.OrderStatusReady, domain.OrderStatusCancelled},
		domain.OrderStatusReady:        {domain.OrderStatusShipped, domain.OrderStatusCancelled},
		domain.OrderStatusShipped:      {domain.OrderStatusDelivered},
		domain.OrderStatusDelivered:    {},
		domain.OrderStatusCancelled:    {},
	},
	[]domain.OrderStatus{domain.OrderStatusDelivered, domain.OrderStatusCancelled},
	[]domain.OrderStatus{domain.OrderStatusDelivered},
)

// ApplyOrder moves o to target and stamps deliveredAt on first delivery.
func ApplyOrder(o *domain.Order, target domain.OrderStatus, now time.Time, from ...domain.OrderStatus) error {
	if err := OrderMachine.CheckFrom(o.Status, target, from...); err != nil {
		return err
	}
	o.Status = target
	if target == domain.OrderStatusDelivered {
		setOnce(&o.DeliveredAt, now)
	}
	o.UpdatedAt = now
	return nil
}
