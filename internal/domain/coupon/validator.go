package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Validator checks whether a coupon code can currently be applied and
// returns its discount percentage.
type Validator interface {
	Validate(ctx context.Context, code string) (decimal.Decimal, error)
}

// RepoValidator implements Validator against a Repository. Validation is
// read-only; redemption (the usage-count increment) happens separately,
// inside the order placement transaction.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate looks up the code (case-insensitive) and rejects coupons that are
// missing, inactive, expired, or over their usage cap. The usage-cap check
// here is advisory: order placement re-checks it atomically when it redeems,
// so two concurrent checkouts near the cap cannot both consume the last slot.
func (v *RepoValidator) Validate(ctx context.Context, code string) (decimal.Decimal, error) {
	c, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, errors.Wrap(err, "lookup coupon")
	}

	if err := Usable(c, v.now()); err != nil {
		return decimal.Zero, err
	}
	return c.Percent, nil
}

// Usable reports why a coupon cannot be applied at the given instant, or nil.
// The usage cap is checked before active/expiry so an exhausted coupon is
// always reported as exhausted regardless of its other fields.
func Usable(c *Coupon, now time.Time) error {
	if c.MaxUses > 0 && c.UsedCount >= c.MaxUses {
		return ErrUsageLimitReached
	}
	if !c.Active {
		return ErrInactive
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return ErrExpired
	}
	return nil
}
