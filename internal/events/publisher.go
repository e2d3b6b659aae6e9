package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/valentinsg/busy-commerce/internal/domain/order"
)

const producerName = "busy-commerce-api"

// Publisher writes storefront events to a single Kafka topic, keyed by the
// aggregate ID so events for one order stay in partition order.
type Publisher struct {
	w   *kafka.Writer
	now func() time.Time
}

var _ order.Publisher = (*Publisher)(nil)

// NewPublisher creates a Publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
		now: time.Now,
	}
}

// Close flushes buffered messages and releases the writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}

// OrderCreated publishes an order.created event.
func (p *Publisher) OrderCreated(ctx context.Context, o *order.Order) error {
	items := make([]OrderItemPayload, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemPayload{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice.String(),
			Quantity:  it.Quantity,
		}
	}
	return p.publish(ctx, EventOrderCreated, o.ID, OrderCreatedPayload{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		CouponCode: o.CouponCode,
		Items:      items,
		Total:      o.Total.String(),
	})
}

// OrderStatusChanged publishes an order.status_changed event.
func (p *Publisher) OrderStatusChanged(ctx context.Context, id string, status order.Status) error {
	return p.publish(ctx, EventOrderStatusChanged, id, OrderStatusChangedPayload{
		OrderID: id,
		Status:  string(status),
	})
}

// CampaignQueued publishes a newsletter.campaign_queued event. A downstream
// mailer consumes these and does the actual sending.
func (p *Publisher) CampaignQueued(ctx context.Context, campaignID, subject string, subscribers int) error {
	return p.publish(ctx, EventCampaignQueued, campaignID, CampaignQueuedPayload{
		CampaignID:  campaignID,
		Subject:     subject,
		Subscribers: subscribers,
	})
}

func (p *Publisher) publish(ctx context.Context, eventType, key string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}
	env := Envelope{
		EventID:    uuid.New().String(),
		EventType:  eventType,
		OccurredAt: p.now().UTC(),
		Producer:   producerName,
		Payload:    raw,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "marshal envelope")
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(env.EventID)},
			{Key: "event_type", Value: []byte(eventType)},
		},
	})
	if err != nil {
		return errors.Wrapf(err, "write %s", eventType)
	}
	return nil
}
