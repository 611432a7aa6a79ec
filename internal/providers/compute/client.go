// Package compute talks to the external video-generation service.
package compute

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Task status values reported by the compute service.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// ErrServerError is the distinguished transient failure signal: an HTTP
// 500 from the status endpoint. Every other failure is fatal to a poll
// loop.
var ErrServerError = errors.New("compute_server_error")

// StartError carries the provider's rejection message for a job
// submission.
type StartError struct {
	StatusCode int
	Message    string
}

func (e *StartError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("generation start rejected: %s", e.Message)
	}
	return fmt.Sprintf("generation start rejected: status %d", e.StatusCode)
}

type VoiceSpec struct {
	VoiceID      string `json:"voice_id"`
	OutputFormat string `json:"output_format"`
	ModelID      string `json:"model_id"`
}

type AvatarSpec struct {
	AvatarID       string `json:"avatar_id"`
	BackgroundType string `json:"background_type"`
}

type VideoSpec struct {
	Duration        int    `json:"duration"`
	FPS             int    `json:"fps"`
	BackgroundColor string `json:"background_color"`
}

type BackgroundMusicSpec struct {
	ID           string `json:"id"`
	IsUsageBased bool   `json:"is_usage_based"`
}

// JobSpec is the full job specification forwarded to the compute service.
type JobSpec struct {
	Voice           VoiceSpec           `json:"voice"`
	Avatar          AvatarSpec          `json:"avatar"`
	Video           VideoSpec           `json:"video"`
	BackgroundMusic BackgroundMusicSpec `json:"background_music"`
	ScreenshotPath  string              `json:"screenshot_path"`
	Script          *string             `json:"script"`
}

type startRequest struct {
	JobSpec
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
}

type StartResponse struct {
	TaskID    string `json:"task_id"`
	StatusURL string `json:"status_url"`
}

type TaskResult struct {
	VideoURL string `json:"video_url,omitempty"`
}

type TaskProgress struct {
	Progress float64     `json:"progress"`
	Status   string      `json:"status"`
	Message  string      `json:"message"`
	Result   *TaskResult `json:"result,omitempty"`
}

type Client interface {
	StartGeneration(ctx context.Context, spec JobSpec, projectID, userID string) (*StartResponse, error)
	TaskStatus(ctx context.Context, taskID string) (*TaskProgress, error)
}

type HTTPClient struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewHTTPClient(baseURL string, log *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log.Named("providers.compute"),
	}
}

func (c *HTTPClient) StartGeneration(ctx context.Context, spec JobSpec, projectID, userID string) (*StartResponse, error) {
	body, err := json.Marshal(startRequest{
		JobSpec:   spec,
		ProjectID: projectID,
		UserID:    userID,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate-video", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return nil, &StartError{StatusCode: resp.StatusCode, Message: failure.Message}
	}

	var out StartResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode start response: %w", err)
	}
	if out.TaskID == "" {
		return nil, &StartError{StatusCode: resp.StatusCode, Message: "missing task_id"}
	}
	return &out, nil
}

func (c *HTTPClient) TaskStatus(ctx context.Context, taskID string) (*TaskProgress, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/task-status/"+taskID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusInternalServerError {
		return nil, ErrServerError
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("task status request failed: status %d", resp.StatusCode)
	}

	var out TaskProgress
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode task status: %w", err)
	}
	return &out, nil
}
