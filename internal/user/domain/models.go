// Package domain contains persistence models for application users.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// WelcomeCredits is granted once when an account is created.
const WelcomeCredits = 10

// User carries the credit balance pair mutated by both the generation and
// the billing paths.
type User struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	ExternalID string       `gorm:"type:text;not null;uniqueIndex"`
	Email      string       `gorm:"type:text;not null"`
	Credits    int          `gorm:"not null;default:0"`
	MaxCredits int          `gorm:"not null;default:0"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }
