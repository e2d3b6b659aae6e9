// Package events publishes storefront lifecycle events to Kafka.
package events

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventCampaignQueued     = "newsletter.campaign_queued"
)

// Envelope is the wire frame shared by every published event.
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Producer   string          `json:"producer"`
	Payload    json.RawMessage `json:"payload"`
}

type OrderItemPayload struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type OrderCreatedPayload struct {
	OrderID    string             `json:"order_id"`
	CustomerID string             `json:"customer_id"`
	CouponCode string             `json:"coupon_code,omitempty"`
	Items      []OrderItemPayload `json:"items"`
	Total      string             `json:"total"`
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type CampaignQueuedPayload struct {
	CampaignID  string `json:"campaign_id"`
	Subject     string `json:"subject"`
	Subscribers int    `json:"subscribers"`
}
