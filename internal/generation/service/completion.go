package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sanjail3/Influencer-AI-App/internal/config"
	"github.com/sanjail3/Influencer-AI-App/internal/generation/domain"
	"github.com/sanjail3/Influencer-AI-App/internal/providers/email"
	userdomain "github.com/sanjail3/Influencer-AI-App/internal/user/domain"
	videodomain "github.com/sanjail3/Influencer-AI-App/internal/video/domain"
	"go.uber.org/zap"
)

// completion finalizes videos when their poll loop ends.
type completion struct {
	appURL   string
	log      *zap.Logger
	videoSvc videodomain.Service
	userSvc  userdomain.Service
	email    email.Provider
}

func NewCompletion(cfg config.Config, log *zap.Logger, videoSvc videodomain.Service, userSvc userdomain.Service, mailer email.Provider) domain.Completion {
	return &completion{
		appURL:   cfg.AppURL,
		log:      log.Named("generation.completion"),
		videoSvc: videoSvc,
		userSvc:  userSvc,
		email:    mailer,
	}
}

func (c *completion) OnSuccess(ctx context.Context, job domain.Job, videoURL string) (string, error) {
	if _, err := c.videoSvc.Finalize(ctx, videodomain.FinalizeRequest{
		VideoID: job.VideoID,
		UserID:  job.UserID,
		Status:  videodomain.VideoStatusCompleted,
		BlobURL: videoURL,
	}); err != nil {
		return "", err
	}

	outputURL := c.OutputURL(job, videoURL)
	c.notify(ctx, job, outputURL)
	return outputURL, nil
}

// OnFailure leaves the video row untouched. A job that failed upstream
// keeps its PROCESSING row until someone resubmits.
func (c *completion) OnFailure(ctx context.Context, job domain.Job, reason string) {
	c.log.Warn("generation job failed",
		zap.String("task_id", job.TaskID),
		zap.String("video_id", job.VideoID.String()),
		zap.String("reason", reason),
	)
}

// OutputURL builds the app page that plays the finished video.
func (c *completion) OutputURL(job domain.Job, videoURL string) string {
	query := url.Values{}
	query.Set("url", videoURL)
	query.Set("projectId", job.ProjectID.String())
	query.Set("videoId", job.VideoID.String())
	return c.appURL + "/create/video/output?" + query.Encode()
}

func (c *completion) notify(ctx context.Context, job domain.Job, outputURL string) {
	user, err := c.userSvc.GetByID(ctx, job.UserID.String())
	if err != nil || user.Email == "" {
		return
	}
	body := fmt.Sprintf(
		`<h1>Your video is ready</h1><p><a href="%s">Watch it here</a>.</p>`,
		outputURL,
	)
	if err := c.email.Send(ctx, []string{user.Email}, "Your video is ready", body); err != nil {
		c.log.Error("ready email failed", zap.Error(err))
	}
}
