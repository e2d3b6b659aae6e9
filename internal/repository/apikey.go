package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/valentinsg/busy-commerce/internal/domain/auth"
)

const findAPIKeySQL = `SELECT id, key_hash, name, scopes
	FROM api_keys
	WHERE key_hash = $1 AND active = TRUE`

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository implements auth.Repository backed by PostgreSQL.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository returns an APIKeyRepository that uses the given pool.
func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// FindByHash resolves an active API key by its HMAC-SHA256 hash. Returns
// auth.ErrKeyNotFound when no active key matches.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.APIKeyInfo, error) {
	rows, err := r.pool.Query(ctx, findAPIKeySQL, hash)
	if err != nil {
		return nil, fmt.Errorf("querying api key: %w", err)
	}
	info, err := pgx.CollectExactlyOneRow(rows, scanAPIKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrKeyNotFound
		}
		return nil, fmt.Errorf("collecting api key: %w", err)
	}
	return &info, nil
}

func scanAPIKey(row pgx.CollectableRow) (auth.APIKeyInfo, error) {
	var info auth.APIKeyInfo
	err := row.Scan(&info.ID, &info.KeyHash, &info.Name, &info.Scopes)
	return info, err
}
