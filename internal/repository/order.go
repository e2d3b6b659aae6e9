package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/valentinsg/busy-commerce/internal/domain/catalog"
	"github.com/valentinsg/busy-commerce/internal/domain/customer"
	"github.com/valentinsg/busy-commerce/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders
		(id, customer_id, items_total, shipping, discount, tax, total, coupon_code, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5)`

	decrementStockSQL = `UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`

	orderColumns = `id, customer_id, items_total, shipping, discount, tax, total,
		coupon_code, status, payment_status, created_at`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrderItemsSQL = `SELECT order_id, product_id, name, unit_price, quantity
		FROM order_items WHERE order_id = ANY($1) ORDER BY order_id`

	listPendingSQL = `SELECT o.id, o.customer_id, o.items_total, o.shipping, o.discount, o.tax,
		o.total, o.coupon_code, o.status, o.payment_status, o.created_at,
		c.id, c.email, c.full_name, c.phone, c.address, c.city, c.created_at
		FROM orders o JOIN customers c ON c.id = o.customer_id
		WHERE o.status = 'pending' ORDER BY o.created_at`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`

	setPaymentStatusSQL = `UPDATE orders SET payment_status = $2 WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreatePlaced persists the customer upsert, the order, its line items, the
// stock decrements, and the coupon redemption in one transaction. Any failed
// constraint rolls the whole placement back.
func (r *OrderRepository) CreatePlaced(ctx context.Context, o *order.Order, cust *customer.Customer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	o.CustomerID, err = upsertCustomerByEmail(ctx, tx, cust)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID, o.CustomerID, o.ItemsTotal, o.Shipping, o.Discount, o.Tax, o.Total,
		o.CouponCode, o.Status, o.PaymentStatus,
	)
	if err != nil {
		return fmt.Errorf("inserting order %q: %w", o.ID, err)
	}

	for _, item := range o.Items {
		if _, err := tx.Exec(ctx, insertOrderItemSQL,
			o.ID, item.ProductID, item.Name, item.UnitPrice, item.Quantity,
		); err != nil {
			return fmt.Errorf("inserting order item %q: %w", item.ProductID, err)
		}

		tag, err := tx.Exec(ctx, decrementStockSQL, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("decrementing stock for %q: %w", item.ProductID, err)
		}
		if tag.RowsAffected() == 0 {
			return catalog.ErrInsufficientStock
		}
	}

	if o.CouponCode != "" {
		if _, err := redeemCoupon(ctx, tx, o.CouponCode); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns an order with its line items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	items, err := r.itemsFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	o.Items = items[id]
	return &o, nil
}

// ListPending returns pending orders joined with their customers and line
// items, oldest first. The admin console consumes this unpaginated.
func (r *OrderRepository) ListPending(ctx context.Context) ([]order.PendingOrder, error) {
	rows, err := r.pool.Query(ctx, listPendingSQL)
	if err != nil {
		return nil, fmt.Errorf("listing pending orders: %w", err)
	}

	pending, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.PendingOrder, error) {
		var (
			po                                         order.PendingOrder
			itemsTotal, shipping, discount, tax, total decimal.Decimal
		)
		err := row.Scan(
			&po.ID, &po.CustomerID, &itemsTotal, &shipping, &discount, &tax, &total,
			&po.CouponCode, &po.Status, &po.PaymentStatus, &po.CreatedAt,
			&po.Customer.ID, &po.Customer.Email, &po.Customer.FullName,
			&po.Customer.Phone, &po.Customer.Address, &po.Customer.City, &po.Customer.CreatedAt,
		)
		po.ItemsTotal, po.Shipping, po.Discount, po.Tax, po.Total = itemsTotal, shipping, discount, tax, total
		return po, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing pending orders: %w", err)
	}
	if len(pending) == 0 {
		return pending, nil
	}

	ids := make([]string, len(pending))
	for i := range pending {
		ids[i] = pending[i].ID
	}
	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range pending {
		pending[i].Items = items[pending[i].ID]
	}
	return pending, nil
}

// UpdateStatus sets the lifecycle status of an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, status)
	if err != nil {
		return fmt.Errorf("updating order %q status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// SetPaymentStatus records the payment state reported by the provider.
func (r *OrderRepository) SetPaymentStatus(ctx context.Context, id string, payment string) error {
	tag, err := r.pool.Exec(ctx, setPaymentStatusSQL, id, payment)
	if err != nil {
		return fmt.Errorf("updating order %q payment status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) itemsFor(ctx context.Context, orderIDs []string) (map[string][]order.Item, error) {
	rows, err := r.pool.Query(ctx, listOrderItemsSQL, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}

	defer rows.Close()

	out := make(map[string][]order.Item, len(orderIDs))
	for rows.Next() {
		var (
			orderID string
			item    order.Item
			price   decimal.Decimal
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.Name, &price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		item.UnitPrice = price
		out[orderID] = append(out[orderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	return out, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o                                          order.Order
		itemsTotal, shipping, discount, tax, total decimal.Decimal
		createdAt                                  time.Time
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &itemsTotal, &shipping, &discount, &tax, &total,
		&o.CouponCode, &o.Status, &o.PaymentStatus, &createdAt,
	)
	o.ItemsTotal, o.Shipping, o.Discount, o.Tax, o.Total = itemsTotal, shipping, discount, tax, total
	o.CreatedAt = createdAt
	return o, err
}
