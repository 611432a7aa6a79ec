// Package domain contains persistence models for generated videos.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// VideoStatus is the lifecycle state of a generated video. Transitions are
// monotonic: PENDING/PROCESSING may move to COMPLETED or FAILED, terminal
// rows never move again.
type VideoStatus string

const (
	VideoStatusPending    VideoStatus = "PENDING"
	VideoStatusProcessing VideoStatus = "PROCESSING"
	VideoStatusCompleted  VideoStatus = "COMPLETED"
	VideoStatusFailed     VideoStatus = "FAILED"
)

// Terminal reports whether no further transition is permitted.
func (s VideoStatus) Terminal() bool {
	return s == VideoStatusCompleted || s == VideoStatusFailed
}

func (s VideoStatus) Valid() bool {
	switch s {
	case VideoStatusPending, VideoStatusProcessing, VideoStatusCompleted, VideoStatusFailed:
		return true
	}
	return false
}

// Video is created when a job is submitted and mutated exactly once more,
// to a terminal status.
type Video struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	ProjectID   snowflake.ID `gorm:"not null;index"`
	UserID      snowflake.ID `gorm:"not null;index"`
	Title       string       `gorm:"type:text;not null"`
	Description string       `gorm:"type:text"`
	BlobURL     string       `gorm:"type:text;not null;default:''"`
	Status      VideoStatus  `gorm:"type:text;not null"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Video) TableName() string { return "videos" }

type CreateRequest struct {
	ProjectID   snowflake.ID
	UserID      snowflake.ID
	Title       string
	Description string
	Status      VideoStatus
}

type FinalizeRequest struct {
	VideoID snowflake.ID
	UserID  snowflake.ID
	Status  VideoStatus
	BlobURL string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Video, error)
	// Finalize moves a video to a terminal status. Finalizing an already
	// terminal row returns ErrVideoFinalized. Another user's video is
	// reported as not found.
	Finalize(ctx context.Context, req FinalizeRequest) (*Video, error)
	Get(ctx context.Context, userID, videoID snowflake.ID) (*Video, error)
	ListByProject(ctx context.Context, userID, projectID snowflake.ID) ([]Video, error)
}

var (
	ErrInvalidStatus  = errors.New("invalid_video_status")
	ErrTerminalCreate = errors.New("video_created_terminal")
	ErrVideoFinalized = errors.New("video_finalized")
	ErrVideoNotFound  = errors.New("video_not_found")
)
