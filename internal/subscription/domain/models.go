// Package domain contains the per-user tracked subscription record.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// SubscriptionStatus mirrors the payment provider's subscription states.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
	SubscriptionStatusOnTrial   SubscriptionStatus = "on_trial"
	SubscriptionStatusUnpaid    SubscriptionStatus = "unpaid"
)

// UserSubscription holds one row per user, unconditionally overwritten on
// every provider event for that user.
type UserSubscription struct {
	ID                 snowflake.ID       `gorm:"primaryKey"`
	UserID             snowflake.ID       `gorm:"not null;uniqueIndex"`
	ProviderID         string             `gorm:"type:text;not null"`
	OrderID            int64              `gorm:"not null;default:0"`
	Name               string             `gorm:"type:text"`
	Email              string             `gorm:"type:text"`
	Status             SubscriptionStatus `gorm:"type:text;not null"`
	StatusFormatted    string             `gorm:"type:text"`
	RenewsAt           *string            `gorm:"type:text"`
	EndsAt             *string            `gorm:"type:text"`
	TrialEndsAt        *string            `gorm:"type:text"`
	Price              string             `gorm:"type:text"`
	IsPaused           bool               `gorm:"not null;default:false"`
	IsUsageBased       bool               `gorm:"not null;default:false"`
	SubscriptionItemID string             `gorm:"type:text"`
	PlanID             snowflake.ID       `gorm:"not null"`
	CreatedAt          time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (UserSubscription) TableName() string { return "user_subscriptions" }

type Service interface {
	// Upsert overwrites the single tracked row for record.UserID.
	Upsert(ctx context.Context, record *UserSubscription) error
	Get(ctx context.Context, userID snowflake.ID) (*UserSubscription, error)
	// Cancel removes the plan's credit allotment, cancels at the
	// provider and persists the returned status.
	Cancel(ctx context.Context, userID snowflake.ID, providerID string) (*UserSubscription, error)
	Pause(ctx context.Context, userID snowflake.ID, providerID string) (*UserSubscription, error)
	Unpause(ctx context.Context, userID snowflake.ID, providerID string) (*UserSubscription, error)
}

var (
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrProviderIDMismatch   = errors.New("subscription_provider_id_mismatch")
)
