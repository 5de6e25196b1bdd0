package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Ado-go/farmly-sub001/internal/domain"
	"github.com/Ado-go/farmly-sub001/internal/repository"
	"github.com/Ado-go/farmly-sub001/pkg/database"
	apperrors "github.com/Ado-go/farmly-sub001/pkg/errors"
)

const orderColumns = `o.id, o.user_id, o.kind, o.event_id, o.status, o.payment_method, o.payment_status, o.payment_ref,
	o.customer_name, o.customer_email, o.customer_phone, o.address, o.total, o.created_at, o.updated_at`

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts the order and its items and reserves stock in a single
// transaction. Farm stock is used for standard orders, stall stock for
// pre-orders.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	orderQuery := `
		INSERT INTO orders (user_id, kind, event_id, status, payment_method, payment_status, payment_ref,
			customer_name, customer_email, customer_phone, address, total, created_at, updated_at, checkout_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NULLIF($15, ''))
		RETURNING id`

	ctx, end := database.TraceQuery(ctx, "CreateOrder", orderQuery)
	defer func() { end(err) }()

	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, orderQuery,
			o.UserID,
			o.Kind,
			o.EventID,
			o.Status,
			o.PaymentMethod,
			o.PaymentStatus,
			o.PaymentRef,
			o.CustomerName,
			o.CustomerEmail,
			o.CustomerPhone,
			o.Address,
			o.Total,
			o.CreatedAt,
			o.UpdatedAt,
			o.CheckoutKey,
		).Scan(&o.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return apperrors.AlreadyExists("order", "checkout_key", o.CheckoutKey)
			}
			return fmt.Errorf("insert order: %w", err)
		}

		itemQuery := `
			INSERT INTO order_items (order_id, product_id, product_name, seller_name, unit_price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`

		for i := range o.Items {
			item := &o.Items[i]
			item.OrderID = o.ID
			if err := tx.QueryRow(ctx, itemQuery,
				item.OrderID,
				item.ProductID,
				item.ProductName,
				item.SellerName,
				item.UnitPrice,
				item.Quantity,
			).Scan(&item.ID); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}

			if err := adjustStock(ctx, tx, o, *item, -item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

// adjustStock changes the stock of item by delta. A decrement that would go
// below zero fails with a conflict; restocking a product that no longer
// exists is a no-op.
func adjustStock(ctx context.Context, tx pgx.Tx, o *domain.Order, item domain.OrderItem, delta int) error {
	var (
		query string
		args  []any
	)
	if o.Kind == domain.OrderKindPreorder {
		query = `
			UPDATE stall_products SET stock = stock + $1
			WHERE event_id = $2 AND product_id = $3 AND stock + $1 >= 0`
		args = []any{delta, *o.EventID, item.ProductID}
	} else {
		query = `
			UPDATE products SET stock = stock + $1, updated_at = $2
			WHERE id = $3 AND stock + $1 >= 0`
		args = []any{delta, time.Now().UTC(), item.ProductID}
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if tag.RowsAffected() == 0 && delta < 0 {
		return apperrors.Conflict(fmt.Sprintf("insufficient stock for %s", item.ProductName))
	}
	return nil
}

// GetByID retrieves an order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (o *domain.Order, err error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`

	ctx, end := database.TraceQuery(ctx, "GetOrder", query)
	defer func() { end(err) }()

	var order domain.Order
	err = r.pool.QueryRow(ctx, query, id).Scan(orderDest(&order)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	orders := []domain.Order{order}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// List returns a user's orders, newest first, with the total count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) (orders []domain.Order, total int, err error) {
	var w where
	w.add("o.user_id = ?", filter.UserID)
	if filter.Status != nil {
		w.add("o.status = ?", *filter.Status)
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM orders o
		%s
		ORDER BY o.created_at DESC, o.id DESC
		%s`,
		orderColumns, w.clause(), w.limit(filter.Page.Take, filter.Page.Skip),
	)

	ctx, end := database.TraceQuery(ctx, "ListOrders", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	orders, err = collectOrders(rows, &total)
	if err != nil {
		return nil, 0, err
	}

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus moves an order from one status to another.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, from, to string) (err error) {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	ctx, end := database.TraceQuery(ctx, "UpdateOrderStatus", query)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Conflict(fmt.Sprintf("order %d is no longer %s", id, from))
	}
	return nil
}

// Cancel marks the order canceled, records its payment status and restocks
// its items in one transaction. Only pending and confirmed orders can be
// canceled; any other status yields ErrConflict and nothing is written.
func (r *OrderRepository) Cancel(ctx context.Context, o *domain.Order) (err error) {
	query := `
		UPDATE orders SET status = $1, payment_status = $2, updated_at = $3
		WHERE id = $4 AND status = ANY($5)`

	ctx, end := database.TraceQuery(ctx, "CancelOrder", query)
	defer func() { end(err) }()

	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query,
			domain.OrderStatusCanceled,
			o.PaymentStatus,
			time.Now().UTC(),
			o.ID,
			[]string{domain.OrderStatusPending, domain.OrderStatusConfirmed},
		)
		if err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.Conflict(fmt.Sprintf("order %d can no longer be canceled", o.ID))
		}

		for _, item := range o.Items {
			if err := adjustStock(ctx, tx, o, item, item.Quantity); err != nil {
				return err
			}
		}
		o.Status = domain.OrderStatusCanceled
		return nil
	})
}

// SetPaymentStatus moves the payment status of an order from one value to
// another.
func (r *OrderRepository) SetPaymentStatus(ctx context.Context, id int64, from, to string) (err error) {
	query := `UPDATE orders SET payment_status = $1, updated_at = $2 WHERE id = $3 AND payment_status = $4`

	ctx, end := database.TraceQuery(ctx, "SetOrderPaymentStatus", query)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Conflict(fmt.Sprintf("order %d payment is no longer %s", id, from))
	}
	return nil
}

// ListPendingRefunds returns canceled orders whose refund is still pending,
// least recently touched first.
func (r *OrderRepository) ListPendingRefunds(ctx context.Context, limit int) (orders []domain.Order, err error) {
	query := `
		SELECT ` + orderColumns + `, 0
		FROM orders o
		WHERE o.status = $1 AND o.payment_status = $2
		ORDER BY o.updated_at, o.id
		LIMIT $3`

	ctx, end := database.TraceQuery(ctx, "ListPendingRefunds", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, domain.OrderStatusCanceled, domain.PaymentStatusRefundPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending refunds: %w", err)
	}
	var ignored int
	return collectOrders(rows, &ignored)
}

// ListExpiredPreorders returns pending pre-orders whose event ended before
// endedBefore, oldest first.
func (r *OrderRepository) ListExpiredPreorders(ctx context.Context, endedBefore time.Time, limit int) (orders []domain.Order, err error) {
	query := `
		SELECT ` + orderColumns + `, 0
		FROM orders o
		JOIN events e ON e.id = o.event_id
		WHERE o.kind = $1 AND o.status = $2 AND e.ends_at < $3
		ORDER BY o.id
		LIMIT $4`

	ctx, end := database.TraceQuery(ctx, "ListExpiredPreorders", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, domain.OrderKindPreorder, domain.OrderStatusPending, endedBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired preorders: %w", err)
	}
	var ignored int
	orders, err = collectOrders(rows, &ignored)
	if err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadItems fills the Items of every order with one query.
func (r *OrderRepository) loadItems(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []domain.OrderItem{}
	}

	query := `
		SELECT id, order_id, product_id, product_name, seller_name, unit_price, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.SellerName,
			&item.UnitPrice,
			&item.Quantity,
		); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if i, ok := index[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order item rows: %w", err)
	}
	return nil
}

func collectOrders(rows pgx.Rows, total *int) ([]domain.Order, error) {
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(append(orderDest(&o), total)...); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, nil
}

func orderDest(o *domain.Order) []any {
	return []any{
		&o.ID, &o.UserID, &o.Kind, &o.EventID, &o.Status, &o.PaymentMethod, &o.PaymentStatus, &o.PaymentRef,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &o.Address, &o.Total, &o.CreatedAt, &o.UpdatedAt,
	}
}
