package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/valentinsg/busy-commerce/internal/domain/archive"
)

const (
	entryColumns = `id, title, tags, taken_at, keys, uploaded_at`

	listEntriesSQL = `SELECT ` + entryColumns + ` FROM archive_entries ORDER BY uploaded_at DESC`

	getEntrySQL = `SELECT ` + entryColumns + ` FROM archive_entries WHERE id = $1`

	insertEntrySQL = `INSERT INTO archive_entries (id, title, tags, taken_at, keys)
		VALUES ($1, $2, $3, $4, $5)`

	deleteEntrySQL = `DELETE FROM archive_entries WHERE id = $1`
)

var _ archive.Repository = (*ArchiveRepository)(nil)

// ArchiveRepository implements archive.Repository backed by PostgreSQL.
// Derivative keys are stored as a JSONB map of size name to object key.
type ArchiveRepository struct {
	pool *pgxpool.Pool
}

// NewArchiveRepository returns an ArchiveRepository that uses the given pool.
func NewArchiveRepository(pool *pgxpool.Pool) *ArchiveRepository {
	return &ArchiveRepository{pool: pool}
}

// List returns all entries, newest upload first.
func (r *ArchiveRepository) List(ctx context.Context) ([]archive.Entry, error) {
	rows, err := r.pool.Query(ctx, listEntriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing archive entries: %w", err)
	}
	return pgx.CollectRows(rows, scanEntry)
}

// GetByID returns a single entry.
func (r *ArchiveRepository) GetByID(ctx context.Context, id string) (*archive.Entry, error) {
	rows, err := r.pool.Query(ctx, getEntrySQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting archive entry %q: %w", id, err)
	}

	e, err := pgx.CollectExactlyOneRow(rows, scanEntry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, archive.ErrNotFound
		}
		return nil, fmt.Errorf("getting archive entry %q: %w", id, err)
	}
	return &e, nil
}

// Create inserts a new entry.
func (r *ArchiveRepository) Create(ctx context.Context, e *archive.Entry) error {
	keys, err := json.Marshal(e.Keys)
	if err != nil {
		return fmt.Errorf("marshaling derivative keys: %w", err)
	}

	_, err = r.pool.Exec(ctx, insertEntrySQL, e.ID, e.Title, e.Tags, e.TakenAt, keys)
	if err != nil {
		return fmt.Errorf("creating archive entry %q: %w", e.ID, err)
	}
	return nil
}

// Delete removes an entry row. Object-storage cleanup is the caller's concern.
func (r *ArchiveRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteEntrySQL, id)
	if err != nil {
		return fmt.Errorf("deleting archive entry %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return archive.ErrNotFound
	}
	return nil
}

func scanEntry(row pgx.CollectableRow) (archive.Entry, error) {
	var (
		e    archive.Entry
		keys []byte
	)
	err := row.Scan(&e.ID, &e.Title, &e.Tags, &e.TakenAt, &keys, &e.UploadedAt)
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(keys, &e.Keys); err != nil {
		return e, fmt.Errorf("unmarshaling derivative keys: %w", err)
	}
	return e, nil
}
