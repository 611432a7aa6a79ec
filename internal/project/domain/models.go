// Package domain contains persistence models for video projects.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Project holds at most one trackable generation job; TaskID is
// overwritten on every new submission.
type Project struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"not null;index"`
	Name      string       `gorm:"type:text;not null"`
	TaskID    *string      `gorm:"type:text"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Project) TableName() string { return "projects" }

type CreateRequest struct {
	UserID snowflake.ID
	Name   string `json:"name"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Project, error)
	Get(ctx context.Context, userID, projectID snowflake.ID) (*Project, error)
	// SetTaskID overwrites the tracked task handle; a prior in-flight job
	// becomes untracked, not cancelled.
	SetTaskID(ctx context.Context, userID, projectID snowflake.ID, taskID string) (*Project, error)
}

var (
	ErrInvalidName     = errors.New("invalid_project_name")
	ErrInvalidTaskID   = errors.New("invalid_task_id")
	ErrProjectNotFound = errors.New("project_not_found")
)
