// Package coupon holds percentage-discount codes with activation, expiry,
// and usage-cap checks.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when no coupon exists for a code.
	ErrNotFound = errors.New("coupon not found")
	// ErrInactive is returned when the coupon exists but is disabled.
	ErrInactive = errors.New("coupon is not active")
	// ErrExpired is returned when the coupon's expiry date has passed.
	ErrExpired = errors.New("coupon expired")
	// ErrUsageLimitReached is returned when the coupon has exhausted its uses.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
)

// Coupon is a percentage discount code. MaxUses of zero means unlimited.
type Coupon struct {
	ID        string
	Code      string
	Percent   decimal.Decimal
	Active    bool
	ExpiresAt *time.Time
	MaxUses   int
	UsedCount int
	CreatedAt time.Time
}

// Repository provides coupon persistence. FindByCode matches codes
// case-insensitively. Redemption (the atomic used_count increment) is not
// exposed here; it runs inside the order placement transaction so the slot
// is released when the order rolls back.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	List(ctx context.Context) ([]Coupon, error)
	SetActive(ctx context.Context, code string, active bool) error
}
