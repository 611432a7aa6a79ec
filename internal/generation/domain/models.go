// Package domain defines the video-generation workflow contracts.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/sanjail3/Influencer-AI-App/internal/providers/compute"
)

// SubmitRequest carries a job submission for an owned project.
type SubmitRequest struct {
	UserID    snowflake.ID
	ProjectID snowflake.ID
	Title     string
	Spec      compute.JobSpec
}

// SubmitResult reports the provider handle and the tracking row created
// for the job.
type SubmitResult struct {
	TaskID    string       `json:"task_id"`
	StatusURL string       `json:"status_url"`
	VideoID   snowflake.ID `json:"video_id"`
}

// Job identifies one in-flight generation being polled.
type Job struct {
	TaskID    string
	ProjectID snowflake.ID
	VideoID   snowflake.ID
	UserID    snowflake.ID
}

// Completion receives the terminal outcome of a poll loop. OnSuccess
// returns the app URL the user should be sent to.
type Completion interface {
	OnSuccess(ctx context.Context, job Job, videoURL string) (string, error)
	OnFailure(ctx context.Context, job Job, reason string)
}

type Service interface {
	// Submit starts a generation job for an owned project. The credit
	// debit is unconditional once the provider accepts the job, even if
	// the job later fails.
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
	// CancelTracking stops the poll loop for a task, if one is running.
	// The remote job itself keeps running.
	CancelTracking(taskID string) bool
}

var (
	ErrInvalidSpec = errors.New("invalid_job_spec")
	ErrStartFailed = errors.New("generation_start_failed")
)
