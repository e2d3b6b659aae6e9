package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/valentinsg/busy-commerce/internal/domain/customer"
)

const (
	// Checkout upserts by email: a returning buyer keeps one row with
	// refreshed contact details.
	upsertCustomerSQL = `INSERT INTO customers (id, email, full_name, phone, address, city)
		VALUES ($1, LOWER($2), $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			city = EXCLUDED.city
		RETURNING id`

	customerColumns = `id, email, full_name, phone, address, city, created_at`

	getCustomerByIDSQL = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	listCustomersSQL = `SELECT ` + customerColumns + ` FROM customers ORDER BY created_at DESC`
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// UpsertByEmail inserts or refreshes a customer and returns the row ID.
func (r *CustomerRepository) UpsertByEmail(ctx context.Context, c *customer.Customer) (string, error) {
	return upsertCustomerByEmail(ctx, r.pool, c)
}

// upsertCustomerByEmail runs against a pool or an open transaction; order
// placement passes its tx so a rolled-back order leaves no half-updated
// customer row. A returning buyer keeps their existing ID.
func upsertCustomerByEmail(ctx context.Context, q querier, c *customer.Customer) (string, error) {
	candidate := c.ID
	if candidate == "" {
		candidate = uuid.New().String()
	}

	var id string
	err := q.QueryRow(ctx, upsertCustomerSQL,
		candidate, c.Email, c.FullName, c.Phone, c.Address, c.City,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upserting customer %q: %w", c.Email, err)
	}
	return id, nil
}

// GetByID returns a single customer.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, getCustomerByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting customer %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer %q: %w", id, err)
	}
	return &c, nil
}

// List returns all customers, newest first.
func (r *CustomerRepository) List(ctx context.Context) ([]customer.Customer, error) {
	rows, err := r.pool.Query(ctx, listCustomersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	return pgx.CollectRows(rows, scanCustomer)
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(&c.ID, &c.Email, &c.FullName, &c.Phone, &c.Address, &c.City, &c.CreatedAt)
	return c, err
}
