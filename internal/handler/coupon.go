package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/valentinsg/busy-commerce/internal/domain/checkout"
	"github.com/valentinsg/busy-commerce/internal/domain/coupon"
)

type validateCouponRequest struct {
	Code string `json:"code"`
}

type validateCouponResponse struct {
	Code    string  `json:"code"`
	Percent float64 `json:"percent"`
}

func (h *Handler) validateCoupon(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	percent, err := h.validator.Validate(r.Context(), req.Code)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, validateCouponResponse{
		Code:    req.Code,
		Percent: percent.InexactFloat64(),
	})
}

type couponResponse struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	Percent   float64    `json:"percent"`
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	MaxUses   int        `json:"max_uses"`
	UsedCount int        `json:"used_count"`
}

func toCouponResponse(c coupon.Coupon) couponResponse {
	return couponResponse{
		ID:        c.ID,
		Code:      c.Code,
		Percent:   c.Percent.InexactFloat64(),
		Active:    c.Active,
		ExpiresAt: c.ExpiresAt,
		MaxUses:   c.MaxUses,
		UsedCount: c.UsedCount,
	}
}

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]couponResponse, len(coupons))
	for i, c := range coupons {
		out[i] = toCouponResponse(c)
	}
	writeJSON(w, http.StatusOK, out)
}

type createCouponRequest struct {
	Code      string     `json:"code"`
	Percent   float64    `json:"percent"`
	ExpiresAt *time.Time `json:"expires_at"`
	MaxUses   int        `json:"max_uses"`
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	var req createCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	percent := checkout.ClampPercent(decimal.NewFromFloat(req.Percent))

	c := &coupon.Coupon{
		ID:        uuid.New().String(),
		Code:      req.Code,
		Percent:   percent,
		Active:    true,
		ExpiresAt: req.ExpiresAt,
		MaxUses:   req.MaxUses,
	}
	if err := h.coupons.Create(r.Context(), c); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCouponResponse(*c))
}

func (h *Handler) deactivateCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.coupons.SetActive(r.Context(), chi.URLParam(r, "code"), false); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
