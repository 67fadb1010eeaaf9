package dto

import (
	"time"

	"github.com/spec-kit/shop-portal/internal/domain"
)

// CreateOrderRequest payload. customer_id is ignored for customer callers.
type CreateOrderRequest struct {
	CustomerID            string        `json:"customer_id"`
	Notes                 string        `json:"notes"`
	EstimatedDeliveryDate *time.Time    `json:"estimated_delivery_date"`
	Items                 []ItemRequest `json:"items"`
}

// UpdateOrderRequest is a partial update.
type UpdateOrderRequest struct {
	Notes                 *string    `json:"notes"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date"`
}

// OrderResponse renders an order. Items is omitted unless requested.
type OrderResponse struct {
	ID                    string             `json:"id"`
	CustomerID            string             `json:"customer_id"`
	Status                domain.OrderStatus `json:"status"`
	TotalAmount           string             `json:"total_amount"`
	Notes                 string             `json:"notes"`
	EstimatedDeliveryDate *time.Time         `json:"estimated_delivery_date"`
	DeliveredAt           *time.Time         `json:"delivered_at"`
	Version               int64              `json:"version"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
	Items                 []ItemResponse     `json:"items,omitempty"`
}

// NewOrderResponse maps a domain order.
func NewOrderResponse(order *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:                    order.ID,
		CustomerID:            order.CustomerID,
		Status:                order.Status,
		TotalAmount:           Money(order.TotalAmount),
		Notes:                 order.Notes,
		EstimatedDeliveryDate: order.EstimatedDeliveryDate,
		DeliveredAt:           order.DeliveredAt,
		Version:               order.Version,
		CreatedAt:             order.CreatedAt,
		UpdatedAt:             order.UpdatedAt,
	}
	if order.Items != nil {
		resp.Items = make([]ItemResponse, 0, len(order.Items))
		for _, item := range order.Items {
			price := Money(item.UnitPrice)
			subtotal := Money(item.Quantity.Mul(item.UnitPrice))
			resp.Items = append(resp.Items, ItemResponse{
				ID:        item.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity.String(),
				UnitPrice: &price,
				Subtotal:  &subtotal,
				Position:  item.Position,
			})
		}
	}
	return resp
}
