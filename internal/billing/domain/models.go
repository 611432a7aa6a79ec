// Package domain contains the durable webhook intake log and the typed
// billing event model.
package domain

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// WebhookEvent is the append-then-update intake log. A row is created
// before any side effect and updated exactly once afterwards with
// processed=true, whatever the outcome. Failed and unknown events are
// marked done and never retried.
type WebhookEvent struct {
	ID              snowflake.ID   `gorm:"primaryKey"`
	EventName       string         `gorm:"type:text;not null"`
	Body            datatypes.JSON `gorm:"type:jsonb;not null"`
	Processed       bool           `gorm:"not null;default:false"`
	ProcessingError string         `gorm:"type:text;not null;default:''"`
	CreatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (WebhookEvent) TableName() string { return "webhook_events" }

// EventKind is the closed classification of inbound billing events.
// Everything that is not a subscription lifecycle event is a recorded
// no-op.
type EventKind int

const (
	KindUnknown EventKind = iota
	KindSubscription
	KindSubscriptionPayment
	KindOrder
	KindLicense
)

func (k EventKind) String() string {
	switch k {
	case KindSubscription:
		return "subscription"
	case KindSubscriptionPayment:
		return "subscription_payment"
	case KindOrder:
		return "order"
	case KindLicense:
		return "license"
	default:
		return "unknown"
	}
}

// EventNameSubscriptionCreated is the only subscription event that moves
// the credit balance.
const EventNameSubscriptionCreated = "subscription_created"

// Classify maps a provider event name onto the closed kind set.
func Classify(eventName string) EventKind {
	switch {
	case strings.HasPrefix(eventName, "subscription_payment_"):
		return KindSubscriptionPayment
	case strings.HasPrefix(eventName, "subscription_"):
		return KindSubscription
	case strings.HasPrefix(eventName, "order_"):
		return KindOrder
	case strings.HasPrefix(eventName, "license_"):
		return KindLicense
	default:
		return KindUnknown
	}
}

// SubscriptionEventAttributes is the provider's subscription payload.
type SubscriptionEventAttributes struct {
	VariantID             int64   `json:"variant_id"`
	OrderID               int64   `json:"order_id"`
	UserName              string  `json:"user_name"`
	UserEmail             string  `json:"user_email"`
	Status                string  `json:"status"`
	StatusFormatted       string  `json:"status_formatted"`
	RenewsAt              *string `json:"renews_at"`
	EndsAt                *string `json:"ends_at"`
	TrialEndsAt           *string `json:"trial_ends_at"`
	FirstSubscriptionItem struct {
		ID           int64  `json:"id"`
		PriceID      int64  `json:"price_id"`
		IsUsageBased bool   `json:"is_usage_based"`
	} `json:"first_subscription_item"`
}

// Envelope is the raw webhook body: a meta block naming the event and the
// checkout's custom data, plus the subject object.
type Envelope struct {
	Meta struct {
		EventName  string `json:"event_name"`
		CustomData struct {
			UserID string `json:"user_id"`
		} `json:"custom_data"`
	} `json:"meta"`
	Data struct {
		ID         string          `json:"id"`
		Attributes json.RawMessage `json:"attributes"`
	} `json:"data"`
}

type Service interface {
	// Ingest durably logs the raw event, then classifies and applies its
	// side effects. Processing failures are recorded on the log row, not
	// returned; only intake failures surface as errors.
	Ingest(ctx context.Context, eventName string, body []byte) error
}

var (
	ErrInvalidPayload   = errors.New("invalid_webhook_payload")
	ErrInvalidSignature = errors.New("invalid_webhook_signature")
)
