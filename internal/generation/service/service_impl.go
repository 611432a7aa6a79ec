package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/sanjail3/Influencer-AI-App/internal/clock"
	creditdomain "github.com/sanjail3/Influencer-AI-App/internal/credit/domain"
	"github.com/sanjail3/Influencer-AI-App/internal/generation/domain"
	"github.com/sanjail3/Influencer-AI-App/internal/generation/poller"
	obsmetrics "github.com/sanjail3/Influencer-AI-App/internal/observability/metrics"
	projectdomain "github.com/sanjail3/Influencer-AI-App/internal/project/domain"
	"github.com/sanjail3/Influencer-AI-App/internal/providers/compute"
	videodomain "github.com/sanjail3/Influencer-AI-App/internal/video/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Compute    compute.Client
	ProjectSvc projectdomain.Service
	VideoSvc   videodomain.Service
	CreditSvc  creditdomain.Service
	Completion domain.Completion
	Metrics    *obsmetrics.Metrics `optional:"true"`
	PollerCfg  poller.Config       `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	compute    compute.Client
	projectSvc projectdomain.Service
	videoSvc   videodomain.Service
	creditSvc  creditdomain.Service
	completion domain.Completion
	metrics    *obsmetrics.Metrics
	pollerCfg  poller.Config

	mu    sync.Mutex
	tasks map[string]*poller.Task
}

func NewService(p Params) domain.Service {
	return &Service{
		log:        p.Log.Named("generation"),
		genID:      p.GenID,
		clock:      p.Clock,
		compute:    p.Compute,
		projectSvc: p.ProjectSvc,
		videoSvc:   p.VideoSvc,
		creditSvc:  p.CreditSvc,
		completion: p.Completion,
		metrics:    p.Metrics,
		pollerCfg:  p.PollerCfg,
		tasks:      make(map[string]*poller.Task),
	}
}

func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.SubmitResult, error) {
	if req.Spec.ScreenshotPath == "" && req.Spec.Script == nil {
		return nil, domain.ErrInvalidSpec
	}

	project, err := s.projectSvc.Get(ctx, req.UserID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = project.Name
	}

	// The tracking row is created up front in PROCESSING. A failed start
	// leaves it behind; nothing rolls it back.
	video, err := s.videoSvc.Create(ctx, videodomain.CreateRequest{
		ProjectID: project.ID,
		UserID:    req.UserID,
		Title:     title,
		Status:    videodomain.VideoStatusProcessing,
	})
	if err != nil {
		return nil, err
	}

	started, err := s.compute.StartGeneration(ctx, req.Spec, project.ID.String(), req.UserID.String())
	if err != nil {
		s.observeSubmit("error")
		s.log.Warn("generation start failed",
			zap.String("project_id", project.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s", domain.ErrStartFailed, err)
	}

	if _, err := s.projectSvc.SetTaskID(ctx, req.UserID, project.ID, started.TaskID); err != nil {
		return nil, err
	}

	// Debited as soon as the provider accepts the job. The job failing
	// later does not refund it.
	if _, err := s.creditSvc.Apply(ctx, creditdomain.ApplyRequest{
		UserID:      req.UserID,
		Amount:      -creditdomain.GenerationCost,
		Type:        creditdomain.TransactionTypeGenerationDebit,
		Description: fmt.Sprintf("Video generation for project %s", project.ID),
	}); err != nil {
		return nil, err
	}

	s.observeSubmit("ok")
	s.track(domain.Job{
		TaskID:    started.TaskID,
		ProjectID: project.ID,
		VideoID:   video.ID,
		UserID:    req.UserID,
	})

	return &domain.SubmitResult{
		TaskID:    started.TaskID,
		StatusURL: started.StatusURL,
		VideoID:   video.ID,
	}, nil
}

func (s *Service) CancelTracking(taskID string) bool {
	s.mu.Lock()
	task, ok := s.tasks[taskID]
	delete(s.tasks, taskID)
	s.mu.Unlock()
	if !ok {
		return false
	}
	task.Cancel()
	return true
}

// track spins up the poll loop for an accepted job. Tracking outlives
// the submit request, so the loop runs on a background context.
func (s *Service) track(job domain.Job) {
	task, err := poller.New(s.compute, s.completion, s.log, s.clock, s.metrics, s.pollerCfg, job)
	if err != nil {
		s.log.Error("poller setup failed", zap.String("task_id", job.TaskID), zap.Error(err))
		return
	}

	s.mu.Lock()
	s.tasks[job.TaskID] = task
	s.mu.Unlock()

	go func() {
		task.Start(context.Background())
		s.mu.Lock()
		if s.tasks[job.TaskID] == task {
			delete(s.tasks, job.TaskID)
		}
		s.mu.Unlock()
	}()
}

func (s *Service) observeSubmit(outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.JobSubmits.WithLabelValues(outcome).Inc()
}
