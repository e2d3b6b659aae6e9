package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/valentinsg/busy-commerce/internal/domain/newsletter"
)

const (
	subscribeSQL = `INSERT INTO newsletter_subscribers (id, email, active)
		VALUES ($1, LOWER($2), TRUE)
		ON CONFLICT (email) DO UPDATE SET active = TRUE
		RETURNING id, email, active, created_at`

	unsubscribeSQL = `UPDATE newsletter_subscribers SET active = FALSE WHERE LOWER(email) = LOWER($1)`

	listSubscribersSQL = `SELECT id, email, active, created_at
		FROM newsletter_subscribers WHERE ($1 = FALSE OR active = TRUE) ORDER BY created_at`

	campaignColumns = `id, subject, body, status, queued_at, created_at`

	insertCampaignSQL = `INSERT INTO newsletter_campaigns (id, subject, body, status)
		VALUES ($1, $2, $3, $4)`

	getCampaignSQL = `SELECT ` + campaignColumns + ` FROM newsletter_campaigns WHERE id = $1`

	listCampaignsSQL = `SELECT ` + campaignColumns + ` FROM newsletter_campaigns ORDER BY created_at DESC`

	// draft -> queued happens in one conditional update so a double-triggered
	// send cannot queue the campaign twice.
	markQueuedSQL = `UPDATE newsletter_campaigns SET status = 'queued', queued_at = now()
		WHERE id = $1 AND status = 'draft'`
)

var _ newsletter.Repository = (*NewsletterRepository)(nil)

// NewsletterRepository implements newsletter.Repository backed by PostgreSQL.
type NewsletterRepository struct {
	pool *pgxpool.Pool
}

// NewNewsletterRepository returns a NewsletterRepository that uses the given pool.
func NewNewsletterRepository(pool *pgxpool.Pool) *NewsletterRepository {
	return &NewsletterRepository{pool: pool}
}

// Subscribe adds or reactivates a subscriber. Idempotent by email.
func (r *NewsletterRepository) Subscribe(ctx context.Context, email string) (*newsletter.Subscriber, error) {
	var s newsletter.Subscriber
	err := r.pool.QueryRow(ctx, subscribeSQL, uuid.New().String(), email).Scan(
		&s.ID, &s.Email, &s.Active, &s.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("subscribing %q: %w", email, err)
	}
	return &s, nil
}

// Unsubscribe deactivates a subscriber. Unknown emails are a no-op.
func (r *NewsletterRepository) Unsubscribe(ctx context.Context, email string) error {
	if _, err := r.pool.Exec(ctx, unsubscribeSQL, email); err != nil {
		return fmt.Errorf("unsubscribing %q: %w", email, err)
	}
	return nil
}

// ListSubscribers returns subscribers, optionally restricted to active ones.
func (r *NewsletterRepository) ListSubscribers(ctx context.Context, activeOnly bool) ([]newsletter.Subscriber, error) {
	rows, err := r.pool.Query(ctx, listSubscribersSQL, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("listing subscribers: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (newsletter.Subscriber, error) {
		var s newsletter.Subscriber
		err := row.Scan(&s.ID, &s.Email, &s.Active, &s.CreatedAt)
		return s, err
	})
}

// CreateCampaign inserts a new draft campaign.
func (r *NewsletterRepository) CreateCampaign(ctx context.Context, c *newsletter.Campaign) error {
	_, err := r.pool.Exec(ctx, insertCampaignSQL, c.ID, c.Subject, c.Body, c.Status)
	if err != nil {
		return fmt.Errorf("creating campaign %q: %w", c.ID, err)
	}
	return nil
}

// GetCampaign returns a single campaign.
func (r *NewsletterRepository) GetCampaign(ctx context.Context, id string) (*newsletter.Campaign, error) {
	rows, err := r.pool.Query(ctx, getCampaignSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting campaign %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCampaign)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, newsletter.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("getting campaign %q: %w", id, err)
	}
	return &c, nil
}

// ListCampaigns returns every campaign, newest first.
func (r *NewsletterRepository) ListCampaigns(ctx context.Context) ([]newsletter.Campaign, error) {
	rows, err := r.pool.Query(ctx, listCampaignsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}
	return pgx.CollectRows(rows, scanCampaign)
}

// MarkQueued transitions a draft campaign to queued.
func (r *NewsletterRepository) MarkQueued(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, markQueuedSQL, id)
	if err != nil {
		return fmt.Errorf("queueing campaign %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		if _, gerr := r.GetCampaign(ctx, id); gerr != nil {
			return gerr
		}
		return newsletter.ErrAlreadyQueued
	}
	return nil
}

func scanCampaign(row pgx.CollectableRow) (newsletter.Campaign, error) {
	var c newsletter.Campaign
	err := row.Scan(&c.ID, &c.Subject, &c.Body, &c.Status, &c.QueuedAt, &c.CreatedAt)
	return c, err
}
