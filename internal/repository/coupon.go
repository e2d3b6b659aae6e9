package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/valentinsg/busy-commerce/internal/domain/coupon"
)

const (
	couponColumns = `id, code, percent, active, expires_at, max_uses, used_count, created_at`

	getCouponByCodeSQL = `SELECT ` + couponColumns + `
		FROM coupons WHERE UPPER(code) = UPPER($1)`

	// Redemption is a single conditional UPDATE: the usage cap is re-checked
	// in the same statement that increments, so two checkouts racing for the
	// last slot cannot both succeed.
	redeemCouponSQL = `UPDATE coupons
		SET used_count = used_count + 1
		WHERE UPPER(code) = UPPER($1)
		  AND active = TRUE
		  AND (expires_at IS NULL OR expires_at > now())
		  AND (max_uses = 0 OR used_count < max_uses)
		RETURNING ` + couponColumns

	insertCouponSQL = `INSERT INTO coupons (id, code, percent, active, expires_at, max_uses)
		VALUES ($1, UPPER($2), $3, $4, $5, $6)`

	listCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC`

	setCouponActiveSQL = `UPDATE coupons SET active = $2 WHERE UPPER(code) = UPPER($1)`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its code (case-insensitive), regardless of
// whether it is currently usable. Returns coupon.ErrNotFound when missing.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	return findCouponByCode(ctx, r.pool, code)
}

func findCouponByCode(ctx context.Context, q querier, code string) (*coupon.Coupon, error) {
	rows, err := q.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// redeemCoupon atomically consumes one usage slot. It runs against a pool or
// an open transaction; order placement passes its tx so the increment commits
// or rolls back with the order. When the conditional update matches no row,
// the coupon is re-read through the same querier to distinguish which
// constraint failed, so callers get the precise domain error.
func redeemCoupon(ctx context.Context, q querier, code string) (*coupon.Coupon, error) {
	rows, err := q.Query(ctx, redeemCouponSQL, code)
	if err != nil {
		return nil, fmt.Errorf("redeeming coupon %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("redeeming coupon %q: %w", code, err)
	}

	existing, ferr := findCouponByCode(ctx, q, code)
	if ferr != nil {
		return nil, ferr
	}
	if uerr := coupon.Usable(existing, time.Now()); uerr != nil {
		return nil, uerr
	}
	// The row changed between the update and the re-read. Treat it as a
	// consumed slot rather than inventing a new error.
	return nil, coupon.ErrUsageLimitReached
}

// Create inserts a new coupon. Codes are stored uppercase.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, insertCouponSQL,
		c.ID, strings.ToUpper(c.Code), c.Percent, c.Active, c.ExpiresAt, c.MaxUses,
	)
	if err != nil {
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// List returns every coupon, newest first.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// SetActive toggles a coupon's activation flag.
func (r *CouponRepository) SetActive(ctx context.Context, code string, active bool) error {
	tag, err := r.pool.Exec(ctx, setCouponActiveSQL, code, active)
	if err != nil {
		return fmt.Errorf("setting active=%v for coupon %q: %w", active, code, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c         coupon.Coupon
		percent   decimal.Decimal
		expiresAt *time.Time
		maxUses   int32
		usedCount int32
	)
	err := row.Scan(
		&c.ID, &c.Code, &percent, &c.Active, &expiresAt, &maxUses, &usedCount, &c.CreatedAt,
	)
	c.Percent = percent
	c.ExpiresAt = expiresAt
	c.MaxUses = int(maxUses)
	c.UsedCount = int(usedCount)
	return c, err
}
