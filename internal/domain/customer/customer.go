// Package customer holds the storefront customer record.
package customer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested customer does not exist.
var ErrNotFound = errors.New("customer not found")

// Customer is a buyer identified by email. Checkout upserts by email so a
// returning buyer keeps a single row.
type Customer struct {
	ID        string
	Email     string
	FullName  string
	Phone     string
	Address   string
	City      string
	CreatedAt time.Time
}

// Repository defines persistence operations for customers.
type Repository interface {
	UpsertByEmail(ctx context.Context, c *Customer) (string, error)
	GetByID(ctx context.Context, id string) (*Customer, error)
	List(ctx context.Context) ([]Customer, error)
}
