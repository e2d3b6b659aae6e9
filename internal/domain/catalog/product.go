// Package catalog holds the product catalog entities and repository contract.
package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrInsufficientStock is returned when a stock decrement would go negative.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Product is a catalog item available for purchase.
type Product struct {
	ID        string
	Name      string
	Slug      string
	Price     decimal.Decimal
	Category  string
	Stock     int
	Image     Image
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Image holds responsive image URLs for a product.
type Image struct {
	Thumbnail string
	Mobile    string
	Desktop   string
}

// Repository defines persistence operations for the product catalog.
// AdjustStock applies a signed delta per product and must fail with
// ErrInsufficientStock instead of letting stock go negative.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	AdjustStock(ctx context.Context, id string, delta int) error
}
