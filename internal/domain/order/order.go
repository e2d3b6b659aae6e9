// Package order implements order placement, pricing, and lifecycle.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valentinsg/busy-commerce/internal/domain/customer"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
)

// Payment states reported by the payment provider webhook.
const (
	PaymentPending  = "pending"
	PaymentApproved = "approved"
	PaymentRejected = "rejected"
)

// Order is a placed customer order with its full pricing breakdown.
// OrderTotal = ItemsTotal - Discount + Shipping + Tax, all rounded to 2dp.
type Order struct {
	ID            string
	CustomerID    string
	Items         []Item
	ItemsTotal    decimal.Decimal
	Shipping      decimal.Decimal
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	CouponCode    string
	Status        Status
	PaymentStatus string
	CreatedAt     time.Time
}

// Item is a single order line. UnitPrice is captured at placement time so
// later catalog price changes do not rewrite history.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// PendingOrder is a pending order joined with its customer for the admin view.
type PendingOrder struct {
	Order
	Customer customer.Customer
}

// Repository defines persistence for orders. CreatePlaced must run in a
// single transaction: upsert the customer (filling o.CustomerID), insert the
// order and its items, decrement product stock, and redeem the coupon (when
// CouponCode is set), so a failed stock check or an exhausted coupon rolls
// everything back.
type Repository interface {
	CreatePlaced(ctx context.Context, o *Order, cust *customer.Customer) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListPending(ctx context.Context) ([]PendingOrder, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	SetPaymentStatus(ctx context.Context, id string, payment string) error
}
