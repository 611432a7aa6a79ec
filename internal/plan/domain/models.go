// Package domain contains reference data for subscription plans.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// SubscriptionPlan mirrors one priced variant at the payment provider.
// Read-mostly reference data, refreshed by Sync.
type SubscriptionPlan struct {
	ID                 snowflake.ID `gorm:"primaryKey"`
	VariantID          string       `gorm:"type:text;not null;uniqueIndex"`
	ProductID          int64        `gorm:"not null"`
	ProductName        string       `gorm:"type:text"`
	Name               string       `gorm:"type:text;not null"`
	Description        string       `gorm:"type:text"`
	Price              string       `gorm:"type:text;not null"`
	Interval           *string      `gorm:"type:text"`
	IntervalCount      *int         `gorm:""`
	TrialInterval      *string      `gorm:"type:text"`
	TrialIntervalCount *int         `gorm:""`
	IsUsageBased       bool         `gorm:"not null;default:false"`
	Sort               int          `gorm:"not null;default:0"`
	CreatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (SubscriptionPlan) TableName() string { return "subscription_plans" }

type Service interface {
	// List returns all plans, synchronizing from the payment provider
	// when the table is empty.
	List(ctx context.Context) ([]SubscriptionPlan, error)
	Sync(ctx context.Context) ([]SubscriptionPlan, error)
	GetByVariantID(ctx context.Context, variantID string) (*SubscriptionPlan, error)
	GetByID(ctx context.Context, id snowflake.ID) (*SubscriptionPlan, error)
}

var (
	ErrPlanNotFound     = errors.New("plan_not_found")
	ErrInvalidVariantID = errors.New("invalid_variant_id")
)
