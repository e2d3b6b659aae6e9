package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/valentinsg/busy-commerce/internal/cache"
	"github.com/valentinsg/busy-commerce/internal/domain/customer"
	"github.com/valentinsg/busy-commerce/internal/domain/order"
)

type orderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type orderCustomerRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
}

type placeOrderRequest struct {
	Items            []orderItemRequest   `json:"items"`
	Customer         orderCustomerRequest `json:"customer"`
	CouponCode       string               `json:"coupon_code"`
	ShippingOverride *float64             `json:"shipping_override"`
}

type orderItemResponse struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type orderResponse struct {
	ID            string              `json:"id"`
	Items         []orderItemResponse `json:"items"`
	ItemsTotal    float64             `json:"items_total"`
	Shipping      float64             `json:"shipping"`
	Discount      float64             `json:"discount"`
	Tax           float64             `json:"tax"`
	Total         float64             `json:"total"`
	CouponCode    string              `json:"coupon_code,omitempty"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	CreatedAt     time.Time           `json:"created_at"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice.InexactFloat64(),
			Quantity:  it.Quantity,
		}
	}
	return orderResponse{
		ID:            o.ID,
		Items:         items,
		ItemsTotal:    o.ItemsTotal.InexactFloat64(),
		Shipping:      o.Shipping.InexactFloat64(),
		Discount:      o.Discount.InexactFloat64(),
		Tax:           o.Tax.InexactFloat64(),
		Total:         o.Total.InexactFloat64(),
		CouponCode:    o.CouponCode,
		Status:        string(o.Status),
		PaymentStatus: o.PaymentStatus,
		CreatedAt:     o.CreatedAt,
	}
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Customer.Email == "" {
		writeError(w, http.StatusBadRequest, "customer email is required")
		return
	}

	// An Idempotency-Key header lets retried checkouts return the order the
	// first attempt created instead of charging twice.
	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" {
		if orderID, ok := h.cache.GetString(r.Context(), fmt.Sprintf(cache.KeyOrderIdem, idemKey)); ok {
			existing, err := h.orderRepo.GetByID(r.Context(), orderID)
			if err == nil {
				writeJSON(w, http.StatusOK, toOrderResponse(existing))
				return
			}
		}
	}

	items := make([]order.ItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.ItemRequest{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	var override *decimal.Decimal
	if req.ShippingOverride != nil {
		d := decimal.NewFromFloat(*req.ShippingOverride)
		override = &d
	}

	o, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		Items: items,
		Customer: customer.Customer{
			Email:    req.Customer.Email,
			FullName: req.Customer.FullName,
			Phone:    req.Customer.Phone,
			Address:  req.Customer.Address,
			City:     req.Customer.City,
		},
		CouponCode:       req.CouponCode,
		ShippingOverride: override,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if idemKey != "" {
		h.cache.SetString(r.Context(), fmt.Sprintf(cache.KeyOrderIdem, idemKey), o.ID, cache.TTLOrderIdem)
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

type pendingOrderResponse struct {
	orderResponse
	Customer orderCustomerRequest `json:"customer"`
}

func (h *Handler) listPendingOrders(w http.ResponseWriter, r *http.Request) {
	pending, err := h.orderRepo.ListPending(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]pendingOrderResponse, len(pending))
	for i, p := range pending {
		out[i] = pendingOrderResponse{
			orderResponse: toOrderResponse(&p.Order),
			Customer: orderCustomerRequest{
				Email:    p.Customer.Email,
				FullName: p.Customer.FullName,
				Phone:    p.Customer.Phone,
				Address:  p.Customer.Address,
				City:     p.Customer.City,
			},
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Confirm(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) rejectOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Reject(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type paymentWebhookRequest struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

func (h *Handler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	var req paymentWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	switch req.Status {
	case order.PaymentPending, order.PaymentApproved, order.PaymentRejected:
	default:
		writeError(w, http.StatusBadRequest, "unknown payment status")
		return
	}

	if err := h.orders.HandlePaymentUpdate(r.Context(), req.OrderID, req.Status); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
