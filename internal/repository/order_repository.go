package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/shop-portal/internal/domain"
	"github.com/spec-kit/shop-portal/internal/filter"
)

// OrderRepository encapsulates order persistence. Writes touching an order and
// its items are atomic.
type OrderRepository interface {
	List(ctx context.Context, q filter.Query) ([]domain.Order, int, error)
	GetByID(ctx context.Context, id string, withItems bool) (*domain.Order, error)
	Create(ctx context.Context, order *domain.Order) error
	Update(ctx context.Context, order *domain.Order, replaceItems bool) error
	Delete(ctx context.Context, id string) error
}

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

const orderColumns = `id, customer_id, status, total_amount, notes, estimated_delivery_date,
               delivered_at, version, created_at, updated_at`

func (r *orderRepository) List(ctx context.Context, q filter.Query) ([]domain.Order, int, error) {
	page, count, args := listStatements(orderColumns, "orders", q)

	var total int
	if err := r.pool.QueryRow(ctx, count, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, page, args...)
	if err != nil {
		return nil, 0, err
	}
	orders, err := scanOrders(rows)
	if err != nil {
		return nil, 0, err
	}

	if q.Includes("items") && len(orders) > 0 {
		ids := make([]string, len(orders))
		for i := range orders {
			ids[i] = orders[i].ID
		}
		items, err := orderItemsFor(ctx, r.pool, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range orders {
			orders[i].Items = items[orders[i].ID]
		}
	}
	return orders, total, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string, withItems bool) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, pgx.ErrNoRows
	}
	order := &orders[0]
	if withItems {
		items, err := orderItemsFor(ctx, r.pool, []string{id})
		if err != nil {
			return nil, err
		}
		order.Items = items[id]
	}
	return order, nil
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
        INSERT INTO orders (id, customer_id, status, total_amount, notes, estimated_delivery_date,
                            delivered_at, version, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
		if _, err := tx.Exec(ctx, query,
			order.ID,
			order.CustomerID,
			order.Status,
			order.TotalAmount,
			order.Notes,
			order.EstimatedDeliveryDate,
			order.DeliveredAt,
			order.Version,
			order.CreatedAt,
			order.UpdatedAt,
		); err != nil {
			return err
		}
		return insertOrderItems(ctx, tx, order.Items)
	})
}

// Update writes the order under an optimistic version check. When replaceItems
// is set the item rows are swapped inside the same transaction.
func (r *orderRepository) Update(ctx context.Context, order *domain.Order, replaceItems bool) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if replaceItems {
			if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, order.ID); err != nil {
				return err
			}
			if err := insertOrderItems(ctx, tx, order.Items); err != nil {
				return err
			}
		}
		const query = `
        UPDATE orders SET status=$1, total_amount=$2, notes=$3, estimated_delivery_date=$4,
            delivered_at=$5, updated_at=$6, version=version+1
        WHERE id=$7 AND version=$8`
		cmd, err := tx.Exec(ctx, query,
			order.Status,
			order.TotalAmount,
			order.Notes,
			order.EstimatedDeliveryDate,
			order.DeliveredAt,
			order.UpdatedAt,
			order.ID,
			order.Version,
		)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrVersionConflict
		}
		return nil
	})
	if err != nil {
		return err
	}
	order.Version++
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, id); err != nil {
			return err
		}
		cmd, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

func insertOrderItems(ctx context.Context, tx pgx.Tx, items []domain.OrderItem) error {
	const query = `
        INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, position)
        VALUES ($1,$2,$3,$4,$5,$6)`
	for _, item := range items {
		if _, err := tx.Exec(ctx, query,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Quantity,
			item.UnitPrice,
			item.Position,
		); err != nil {
			return err
		}
	}
	return nil
}

func orderItemsFor(ctx context.Context, q querier, orderIDs []string) (map[string][]domain.OrderItem, error) {
	const query = `
        SELECT id, order_id, product_id, quantity, unit_price, position
        FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position`
	rows, err := q.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.Position,
		); err != nil {
			return nil, err
		}
		result[item.OrderID] = append(result[item.OrderID], item)
	}
	return result, rows.Err()
}

func scanOrders(rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()
	var result []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.CustomerID,
			&order.Status,
			&order.TotalAmount,
			&order.Notes,
			&order.EstimatedDeliveryDate,
			&order.DeliveredAt,
			&order.Version,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	return result, rows.Err()
}
