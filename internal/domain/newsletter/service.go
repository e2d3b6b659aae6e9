package newsletter

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidEmail is returned for addresses that do not parse.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrSubjectRequired is returned when a campaign is created without one.
	ErrSubjectRequired = errors.New("campaign subject is required")
)

// CampaignPublisher emits campaign lifecycle events for the mailing worker.
type CampaignPublisher interface {
	CampaignQueued(ctx context.Context, campaignID, subject string, subscribers int) error
}

// Service handles signups and campaign queueing.
type Service struct {
	repo   Repository
	events CampaignPublisher
	now    func() time.Time
}

// NewService creates a newsletter Service. events may be nil when no broker
// is configured.
func NewService(repo Repository, events CampaignPublisher) *Service {
	return &Service{repo: repo, events: events, now: time.Now}
}

// Subscribe validates the address and adds or reactivates the subscriber.
func (s *Service) Subscribe(ctx context.Context, email string) (*Subscriber, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	return s.repo.Subscribe(ctx, email)
}

// Unsubscribe deactivates the subscriber. Unknown addresses are a no-op.
func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	return s.repo.Unsubscribe(ctx, strings.TrimSpace(strings.ToLower(email)))
}

// ListSubscribers returns subscribers, optionally active ones only.
func (s *Service) ListSubscribers(ctx context.Context, activeOnly bool) ([]Subscriber, error) {
	return s.repo.ListSubscribers(ctx, activeOnly)
}

// CreateCampaign stores a new draft campaign.
func (s *Service) CreateCampaign(ctx context.Context, subject, body string) (*Campaign, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, ErrSubjectRequired
	}
	c := &Campaign{
		ID:        uuid.New().String(),
		Subject:   subject,
		Body:      body,
		Status:    CampaignDraft,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateCampaign(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCampaign returns a single campaign.
func (s *Service) GetCampaign(ctx context.Context, id string) (*Campaign, error) {
	return s.repo.GetCampaign(ctx, id)
}

// ListCampaigns returns all campaigns, newest first.
func (s *Service) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	return s.repo.ListCampaigns(ctx)
}

// Send queues a draft campaign for delivery. The draft->queued transition is
// atomic in the repository, so a double send returns ErrAlreadyQueued instead
// of mailing twice.
func (s *Service) Send(ctx context.Context, id string) (*Campaign, error) {
	if err := s.repo.MarkQueued(ctx, id); err != nil {
		return nil, err
	}
	c, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		subs, err := s.repo.ListSubscribers(ctx, true)
		if err != nil {
			zctx.From(ctx).Warn("counting subscribers for campaign event",
				zap.String("campaign_id", id), zap.Error(err))
			subs = nil
		}
		if err := s.events.CampaignQueued(ctx, c.ID, c.Subject, len(subs)); err != nil {
			zctx.From(ctx).Warn("publish campaign event failed",
				zap.String("campaign_id", id), zap.Error(err))
		}
	}
	return c, nil
}
