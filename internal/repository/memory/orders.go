package memory

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/shop-portal/internal/domain"
	"github.com/spec-kit/shop-portal/internal/filter"
	"github.com/spec-kit/shop-portal/internal/repository"
)

var _ repository.OrderRepository = orderTable{}

type orderTable struct{ s *Store }

type orderRow struct{ o *domain.Order }

func (r orderRow) Column(name string) any {
	switch name {
	case "id":
		return r.o.ID
	case "customer_id":
		return r.o.CustomerID
	case "status":
		return r.o.Status
	case "total_amount":
		return r.o.TotalAmount
	case "notes":
		return r.o.Notes
	case "estimated_delivery_date":
		return r.o.EstimatedDeliveryDate
	case "delivered_at":
		return r.o.DeliveredAt
	case "created_at":
		return r.o.CreatedAt
	case "updated_at":
		return r.o.UpdatedAt
	}
	return nil
}

func cloneOrder(o domain.Order, withItems bool) domain.Order {
	o.EstimatedDeliveryDate = copyTime(o.EstimatedDeliveryDate)
	o.DeliveredAt = copyTime(o.DeliveredAt)
	if withItems && o.Items != nil {
		o.Items = append([]domain.OrderItem(nil), o.Items...)
	} else {
		o.Items = nil
	}
	return o
}

func (t orderTable) List(_ context.Context, q filter.Query) ([]domain.Order, int, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	all := make([]domain.Order, 0, len(t.s.orders))
	for _, o := range t.s.orders {
		all = append(all, o)
	}
	rows, total := page(all, q, func(o *domain.Order) filter.Row { return orderRow{o} })
	for i := range rows {
		rows[i] = cloneOrder(rows[i], q.Includes("items"))
	}
	return rows, total, nil
}

func (t orderTable) GetByID(_ context.Context, id string, withItems bool) (*domain.Order, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	o, ok := t.s.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	o = cloneOrder(o, withItems)
	return &o, nil
}

func (t orderTable) Create(_ context.Context, order *domain.Order) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	t.s.orders[order.ID] = cloneOrder(*order, true)
	return nil
}

func (t orderTable) Update(_ context.Context, order *domain.Order, replaceItems bool) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	stored, ok := t.s.orders[order.ID]
	if !ok || stored.Version != order.Version {
		return repository.ErrVersionConflict
	}
	next := cloneOrder(*order, true)
	if !replaceItems {
		next.Items = stored.Items
	}
	next.Version++
	t.s.orders[order.ID] = next
	order.Version++
	return nil
}

func (t orderTable) Delete(_ context.Context, id string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if _, ok := t.s.orders[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(t.s.orders, id)
	return nil
}
