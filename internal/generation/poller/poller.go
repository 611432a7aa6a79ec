// Package poller drives the status loop for one in-flight generation
// job. Each Task owns its cursor state: the highest progress seen and a
// consecutive transient-error count.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sanjail3/Influencer-AI-App/internal/clock"
	"github.com/sanjail3/Influencer-AI-App/internal/generation/domain"
	obsmetrics "github.com/sanjail3/Influencer-AI-App/internal/observability/metrics"
	"github.com/sanjail3/Influencer-AI-App/internal/providers/compute"
	"go.uber.org/zap"
)

var (
	ErrInvalidConfig       = errors.New("invalid_poller_config")
	ErrTooManyServerErrors = errors.New("too_many_server_errors")
)

// Task polls a single generation job until it reaches a terminal status,
// the transient-error budget is exhausted, or the loop is cancelled.
type Task struct {
	client     compute.Client
	completion domain.Completion
	log        *zap.Logger
	clock      clock.Clock
	cfg        Config
	metrics    *obsmetrics.Metrics
	job        domain.Job

	mu              sync.Mutex
	lastProgress    float64
	transientErrors int
	finished        bool
	cancel          context.CancelFunc
}

func New(client compute.Client, completion domain.Completion, log *zap.Logger, clk clock.Clock, metrics *obsmetrics.Metrics, cfg Config, job domain.Job) (*Task, error) {
	if client == nil || completion == nil || log == nil || clk == nil || job.TaskID == "" {
		return nil, ErrInvalidConfig
	}
	return &Task{
		client:     client,
		completion: completion,
		log: log.Named("generation.poller").With(
			zap.String("task_id", job.TaskID),
			zap.String("video_id", job.VideoID.String()),
		),
		clock:   clk,
		cfg:     cfg.withDefaults(),
		metrics: metrics,
		job:     job,
	}, nil
}

// Start runs the poll loop in the calling goroutine until the job is
// done or the context ends. One poll fires immediately, then every
// Interval.
func (t *Task) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()
	defer cancel()

	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	started := t.clock.Now()
	for {
		done, err := t.Poll(ctx)
		if err != nil {
			t.log.Warn("poll step failed", zap.Error(err))
		}
		if done {
			t.log.Info("poll loop finished",
				zap.Duration("elapsed", t.clock.Now().Sub(started)),
			)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Cancel stops a loop started with Start. Safe to call more than once.
func (t *Task) Cancel() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Finished reports whether the job reached a terminal outcome.
func (t *Task) Finished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finished
}

// Poll performs one status check. It returns true when the loop must
// stop: provider terminal status, fatal error, or transient budget
// exhausted. Progress regressions from out-of-order responses never
// advance the cursor, but a terminal status ends the job regardless of
// the progress it arrived with.
func (t *Task) Poll(ctx context.Context) (bool, error) {
	progress, err := t.client.TaskStatus(ctx, t.job.TaskID)
	if err != nil {
		if errors.Is(err, compute.ErrServerError) {
			return t.recordTransient(ctx)
		}
		t.observe(obsmetrics.PollOutcomeFatal)
		t.finish(ctx, fmt.Sprintf("status check failed: %s", err))
		return true, err
	}

	t.mu.Lock()
	t.transientErrors = 0
	stale := progress.Progress < t.lastProgress
	if !stale {
		t.lastProgress = progress.Progress
	}
	t.mu.Unlock()

	switch progress.Status {
	case compute.StatusSuccess:
		t.observe(obsmetrics.PollOutcomeAccepted)
		videoURL := ""
		if progress.Result != nil {
			videoURL = progress.Result.VideoURL
		}
		t.markFinished()
		redirect, err := t.completion.OnSuccess(ctx, t.job, videoURL)
		if err != nil {
			t.log.Error("completion failed", zap.Error(err))
			return true, err
		}
		t.log.Info("generation completed", zap.String("redirect", redirect))
		return true, nil
	case compute.StatusFailed:
		t.observe(obsmetrics.PollOutcomeFatal)
		t.finish(ctx, progress.Message)
		return true, nil
	default:
		if stale {
			t.observe(obsmetrics.PollOutcomeStale)
			t.log.Debug("stale progress dropped", zap.Float64("progress", progress.Progress))
			return false, nil
		}
		t.observe(obsmetrics.PollOutcomeAccepted)
		return false, nil
	}
}

func (t *Task) recordTransient(ctx context.Context) (bool, error) {
	t.mu.Lock()
	t.transientErrors++
	count := t.transientErrors
	t.mu.Unlock()

	t.observe(obsmetrics.PollOutcomeTransient)
	if count < t.cfg.MaxTransientErrors {
		t.log.Warn("transient status error",
			zap.Int("consecutive", count),
			zap.Int("budget", t.cfg.MaxTransientErrors),
		)
		return false, nil
	}

	t.mu.Lock()
	t.transientErrors = 0
	t.mu.Unlock()
	t.finish(ctx, fmt.Sprintf("status endpoint failed %d times in a row", count))
	return true, ErrTooManyServerErrors
}

func (t *Task) finish(ctx context.Context, reason string) {
	t.markFinished()
	t.completion.OnFailure(ctx, t.job, reason)
}

func (t *Task) markFinished() {
	t.mu.Lock()
	t.finished = true
	t.mu.Unlock()
}

func (t *Task) observe(outcome string) {
	if t.metrics == nil {
		return
	}
	t.metrics.PollResults.WithLabelValues(outcome).Inc()
}
