package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/valentinsg/busy-commerce/internal/domain/catalog"
)

const (
	productColumns = `id, name, slug, price, category, stock,
		image_thumbnail, image_mobile, image_desktop, created_at, updated_at`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC, id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	insertProductSQL = `INSERT INTO products
		(id, name, slug, price, category, stock, image_thumbnail, image_mobile, image_desktop)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateProductSQL = `UPDATE products SET name = $2, slug = $3, price = $4, category = $5,
		stock = $6, image_thumbnail = $7, image_mobile = $8, image_desktop = $9, updated_at = now()
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	// Seeding upserts by slug so re-running seed-db refreshes the catalog
	// instead of failing on duplicates.
	upsertProductSQL = `INSERT INTO products
		(id, name, slug, price, category, stock, image_thumbnail, image_mobile, image_desktop)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			stock = EXCLUDED.stock,
			image_thumbnail = EXCLUDED.image_thumbnail,
			image_mobile = EXCLUDED.image_mobile,
			image_desktop = EXCLUDED.image_desktop,
			updated_at = now()`

	// The stock floor is enforced in the statement itself so concurrent
	// decrements cannot race past zero.
	adjustStockSQL = `UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1 AND stock + $2 >= 0`
)

var _ catalog.Repository = (*ProductRepository)(nil)

// ProductRepository implements catalog.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products, newest first.
func (r *ProductRepository) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Create inserts a new catalog product.
func (r *ProductRepository) Create(ctx context.Context, p *catalog.Product) error {
	_, err := r.pool.Exec(ctx, insertProductSQL,
		p.ID, p.Name, p.Slug, p.Price, p.Category, p.Stock,
		p.Image.Thumbnail, p.Image.Mobile, p.Image.Desktop,
	)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

// Upsert inserts a product or refreshes the existing row with the same slug.
func (r *ProductRepository) Upsert(ctx context.Context, p *catalog.Product) error {
	_, err := r.pool.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.Slug, p.Price, p.Category, p.Stock,
		p.Image.Thumbnail, p.Image.Mobile, p.Image.Desktop,
	)
	if err != nil {
		return fmt.Errorf("upserting product %q: %w", p.Slug, err)
	}
	return nil
}

// Update rewrites every mutable column of a product.
func (r *ProductRepository) Update(ctx context.Context, p *catalog.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Slug, p.Price, p.Category, p.Stock,
		p.Image.Thumbnail, p.Image.Mobile, p.Image.Desktop,
	)
	if err != nil {
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// AdjustStock applies a signed stock delta. A decrement that would go below
// zero matches no row and returns catalog.ErrInsufficientStock.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) error {
	tag, err := r.pool.Exec(ctx, adjustStockSQL, id, delta)
	if err != nil {
		return fmt.Errorf("adjusting stock for product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrInsufficientStock
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		p     catalog.Product
		price decimal.Decimal
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &price, &p.Category, &p.Stock,
		&p.Image.Thumbnail, &p.Image.Mobile, &p.Image.Desktop,
		&p.CreatedAt, &p.UpdatedAt,
	)
	p.Price = price
	return p, err
}
