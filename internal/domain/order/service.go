package order

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/valentinsg/busy-commerce/internal/domain/catalog"
	"github.com/valentinsg/busy-commerce/internal/domain/checkout"
	"github.com/valentinsg/busy-commerce/internal/domain/coupon"
	"github.com/valentinsg/busy-commerce/internal/domain/customer"
)

// Sentinel errors for order validation.
var (
	ErrEmptyItems = errors.New("items required")
	ErrNotFound   = errors.New("order not found")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// InvalidStatusError indicates a lifecycle transition from a non-pending state.
type InvalidStatusError struct {
	From Status
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("order is %s, only pending orders can transition", e.From)
}

// ItemRequest is an unpriced line item from the checkout request.
type ItemRequest struct {
	ProductID string
	Quantity  int
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	Items            []ItemRequest
	Customer         customer.Customer
	CouponCode       string
	ShippingOverride *decimal.Decimal
}

// Publisher emits order lifecycle events. Implementations must be best-effort:
// the order flow never fails because an event could not be published.
type Publisher interface {
	OrderCreated(ctx context.Context, o *Order) error
	OrderStatusChanged(ctx context.Context, id string, status Status) error
}

// Service encapsulates order placement and lifecycle business logic.
type Service struct {
	products catalog.Repository
	coupons  coupon.Validator
	orders   Repository
	events   Publisher
	shipping checkout.ShippingRule
}

// NewService creates an order Service. events may be nil when no broker is
// configured.
func NewService(
	products catalog.Repository,
	coupons coupon.Validator,
	orders Repository,
	events Publisher,
	shipping checkout.ShippingRule,
) *Service {
	return &Service{
		products: products,
		coupons:  coupons,
		orders:   orders,
		events:   events,
		shipping: shipping,
	}
}

// PlaceOrder validates the request, prices the cart, and persists the order.
// The customer upsert, order insert, stock decrements, and coupon redemption
// all land in one transaction. The coupon is validated up front for a fast
// rejection, then redeemed atomically inside that transaction so the usage
// cap holds under concurrent checkouts.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]catalog.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	items := make([]Item, len(req.Items))
	lines := make([]checkout.LineItem, len(req.Items))
	for i, ir := range req.Items {
		p, ok := byID[ir.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: ir.ProductID}
		}
		items[i] = Item{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  ir.Quantity,
		}
		lines[i] = checkout.LineItem{UnitPrice: p.Price, Quantity: ir.Quantity}
	}

	percent := decimal.Zero
	if req.CouponCode != "" {
		percent, err = s.coupons.Validate(ctx, req.CouponCode)
		if err != nil {
			return nil, errors.Wrap(err, "validate coupon")
		}
	}

	breakdown := checkout.ComputeTotals(lines, percent, req.ShippingOverride, s.shipping)

	o := &Order{
		ID:            uuid.New().String(),
		Items:         items,
		ItemsTotal:    breakdown.ItemsTotal,
		Shipping:      breakdown.Shipping,
		Discount:      breakdown.Discount,
		Tax:           breakdown.Tax,
		Total:         breakdown.OrderTotal,
		CouponCode:    req.CouponCode,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
	}
	if err := s.orders.CreatePlaced(ctx, o, &req.Customer); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	s.publishCreated(ctx, o)
	return o, nil
}

// Confirm moves a pending order to confirmed.
func (s *Service) Confirm(ctx context.Context, id string) error {
	return s.transition(ctx, id, StatusConfirmed, false)
}

// Reject moves a pending order to rejected and restores the reserved stock.
// Stock restoration is best-effort: a failed restore is logged and the
// rejection still completes.
func (s *Service) Reject(ctx context.Context, id string) error {
	return s.transition(ctx, id, StatusRejected, true)
}

// HandlePaymentUpdate records the payment status reported by the provider
// webhook. An approved payment confirms the order.
func (s *Service) HandlePaymentUpdate(ctx context.Context, orderID, payment string) error {
	if err := s.orders.SetPaymentStatus(ctx, orderID, payment); err != nil {
		return errors.Wrap(err, "set payment status")
	}
	if payment != PaymentApproved {
		return nil
	}

	err := s.Confirm(ctx, orderID)
	var ise *InvalidStatusError
	if errors.As(err, &ise) {
		// Webhook retries land here after the first confirmation.
		zctx.From(ctx).Debug("payment update for non-pending order",
			zap.String("order_id", orderID),
			zap.String("status", string(ise.From)))
		return nil
	}
	return err
}

func (s *Service) transition(ctx context.Context, id string, to Status, restoreStock bool) error {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if o.Status != StatusPending {
		return &InvalidStatusError{From: o.Status}
	}

	if err := s.orders.UpdateStatus(ctx, id, to); err != nil {
		return errors.Wrapf(err, "update order %s", id)
	}

	if restoreStock {
		for _, item := range o.Items {
			if err := s.products.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
				zctx.From(ctx).Warn("stock restore failed",
					zap.String("order_id", id),
					zap.String("product_id", item.ProductID),
					zap.Int("quantity", item.Quantity),
					zap.Error(err))
			}
		}
	}

	if s.events != nil {
		if err := s.events.OrderStatusChanged(ctx, id, to); err != nil {
			zctx.From(ctx).Warn("publish status event failed",
				zap.String("order_id", id), zap.Error(err))
		}
	}
	return nil
}

func (s *Service) publishCreated(ctx context.Context, o *Order) {
	if s.events == nil {
		return
	}
	if err := s.events.OrderCreated(ctx, o); err != nil {
		zctx.From(ctx).Warn("publish created event failed",
			zap.String("order_id", o.ID), zap.Error(err))
	}
}
