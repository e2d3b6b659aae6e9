// Package newsletter holds subscriber and campaign records. Campaign delivery
// itself happens outside this service: triggering a send marks the campaign
// queued and emits an event for the mailing worker.
package newsletter

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrCampaignNotFound is returned for unknown campaign IDs.
	ErrCampaignNotFound = errors.New("campaign not found")
	// ErrAlreadyQueued is returned when a campaign send is triggered twice.
	ErrAlreadyQueued = errors.New("campaign already queued")
)

// Subscriber is a newsletter signup. Unsubscribing keeps the row with
// Active=false so re-subscribing restores history.
type Subscriber struct {
	ID        string
	Email     string
	Active    bool
	CreatedAt time.Time
}

// Campaign lifecycle states.
const (
	CampaignDraft  = "draft"
	CampaignQueued = "queued"
)

// Campaign is an email blast to all active subscribers.
type Campaign struct {
	ID        string
	Subject   string
	Body      string
	Status    string
	QueuedAt  *time.Time
	CreatedAt time.Time
}

// Repository defines persistence for subscribers and campaigns.
// Subscribe is idempotent by email; MarkQueued must transition draft->queued
// atomically and report ErrAlreadyQueued otherwise.
type Repository interface {
	Subscribe(ctx context.Context, email string) (*Subscriber, error)
	Unsubscribe(ctx context.Context, email string) error
	ListSubscribers(ctx context.Context, activeOnly bool) ([]Subscriber, error)

	CreateCampaign(ctx context.Context, c *Campaign) error
	GetCampaign(ctx context.Context, id string) (*Campaign, error)
	ListCampaigns(ctx context.Context) ([]Campaign, error)
	MarkQueued(ctx context.Context, id string) error
}
