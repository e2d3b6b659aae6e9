package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCouponRepo struct {
	coupon *Coupon
	err    error
}

func (m *mockCouponRepo) FindByCode(_ context.Context, _ string) (*Coupon, error) {
	return m.coupon, m.err
}

func (m *mockCouponRepo) Create(_ context.Context, _ *Coupon) error  { return nil }
func (m *mockCouponRepo) List(_ context.Context) ([]Coupon, error)  { return nil, nil }
func (m *mockCouponRepo) SetActive(_ context.Context, _ string, _ bool) error {
	return nil
}

func TestRepoValidator_Validate(t *testing.T) {
	fixedNow := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(24 * time.Hour)

	tests := []struct {
		name        string
		repo        *mockCouponRepo
		wantPercent string
		wantErr     error
	}{
		{
			name: "active unlimited coupon returns percent",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code: "BUSY10", Percent: decimal.NewFromInt(10), Active: true,
			}},
			wantPercent: "10",
		},
		{
			name:    "unknown code",
			repo:    &mockCouponRepo{err: ErrNotFound},
			wantErr: ErrNotFound,
		},
		{
			name: "inactive coupon",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code: "OFF", Percent: decimal.NewFromInt(10), Active: false,
			}},
			wantErr: ErrInactive,
		},
		{
			name: "expired coupon",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code: "OLD", Percent: decimal.NewFromInt(10), Active: true, ExpiresAt: &past,
			}},
			wantErr: ErrExpired,
		},
		{
			name: "expiry in the future is fine",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code: "DROP", Percent: decimal.NewFromInt(25), Active: true, ExpiresAt: &future,
			}},
			wantPercent: "25",
		},
		{
			name: "usage cap reached",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code: "CAPPED", Percent: decimal.NewFromInt(10), Active: true,
				MaxUses: 100, UsedCount: 100,
			}},
			wantErr: ErrUsageLimitReached,
		},
		{
			name: "exhausted single-use coupon rejected even when active and unexpired",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code: "ONESHOT", Percent: decimal.NewFromInt(50), Active: true,
				ExpiresAt: &future, MaxUses: 1, UsedCount: 1,
			}},
			wantErr: ErrUsageLimitReached,
		},
		{
			name: "usage under cap succeeds",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code: "ROOM", Percent: decimal.NewFromInt(15), Active: true,
				MaxUses: 100, UsedCount: 99,
			}},
			wantPercent: "15",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewRepoValidator(tt.repo)
			v.now = func() time.Time { return fixedNow }

			percent, err := v.Validate(context.Background(), "any")
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, percent.Equal(decimal.RequireFromString(tt.wantPercent)),
				"percent = %s", percent)
		})
	}
}

func TestUsable_CapCheckedBeforeOtherFields(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	// Exhausted, inactive, and expired all at once: cap wins.
	c := &Coupon{Code: "DEAD", Active: false, ExpiresAt: &past, MaxUses: 1, UsedCount: 1}
	assert.ErrorIs(t, Usable(c, now), ErrUsageLimitReached)
}
