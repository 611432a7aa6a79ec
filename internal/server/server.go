package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sanjail3/Influencer-AI-App/internal/billing"
	billingdomain "github.com/sanjail3/Influencer-AI-App/internal/billing/domain"
	"github.com/sanjail3/Influencer-AI-App/internal/clock"
	"github.com/sanjail3/Influencer-AI-App/internal/config"
	"github.com/sanjail3/Influencer-AI-App/internal/credit"
	creditdomain "github.com/sanjail3/Influencer-AI-App/internal/credit/domain"
	"github.com/sanjail3/Influencer-AI-App/internal/generation"
	generationdomain "github.com/sanjail3/Influencer-AI-App/internal/generation/domain"
	obsmetrics "github.com/sanjail3/Influencer-AI-App/internal/observability/metrics"
	"github.com/sanjail3/Influencer-AI-App/internal/plan"
	plandomain "github.com/sanjail3/Influencer-AI-App/internal/plan/domain"
	"github.com/sanjail3/Influencer-AI-App/internal/project"
	projectdomain "github.com/sanjail3/Influencer-AI-App/internal/project/domain"
	"github.com/sanjail3/Influencer-AI-App/internal/providers/compute"
	"github.com/sanjail3/Influencer-AI-App/internal/providers/email"
	"github.com/sanjail3/Influencer-AI-App/internal/providers/payment"
	"github.com/sanjail3/Influencer-AI-App/internal/subscription"
	subscriptiondomain "github.com/sanjail3/Influencer-AI-App/internal/subscription/domain"
	"github.com/sanjail3/Influencer-AI-App/internal/user"
	userdomain "github.com/sanjail3/Influencer-AI-App/internal/user/domain"
	"github.com/sanjail3/Influencer-AI-App/internal/video"
	videodomain "github.com/sanjail3/Influencer-AI-App/internal/video/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	clock.Module,
	obsmetrics.Module,
	email.Module,
	compute.Module,
	payment.Module,
	user.Module,
	credit.Module,
	project.Module,
	video.Module,
	plan.Module,
	subscription.Module,
	billing.Module,
	generation.Module,
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	userSvc         userdomain.Service
	creditSvc       creditdomain.Service
	projectSvc      projectdomain.Service
	videoSvc        videodomain.Service
	planSvc         plandomain.Service
	subscriptionSvc subscriptiondomain.Service
	billingSvc      billingdomain.Service
	generationSvc   generationdomain.Service
	compute         compute.Client
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	UserSvc         userdomain.Service
	CreditSvc       creditdomain.Service
	ProjectSvc      projectdomain.Service
	VideoSvc        videodomain.Service
	PlanSvc         plandomain.Service
	SubscriptionSvc subscriptiondomain.Service
	BillingSvc      billingdomain.Service
	GenerationSvc   generationdomain.Service
	Compute         compute.Client
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("server"),
		userSvc:         p.UserSvc,
		creditSvc:       p.CreditSvc,
		projectSvc:      p.ProjectSvc,
		videoSvc:        p.VideoSvc,
		planSvc:         p.PlanSvc,
		subscriptionSvc: p.SubscriptionSvc,
		billingSvc:      p.BillingSvc,
		generationSvc:   p.GenerationSvc,
		compute:         p.Compute,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Generation --------
	api.POST("/generate-video", s.UserRequired(), s.GenerateVideo)
	api.GET("/task-status/:taskId", s.UserRequired(), s.TaskStatus)
	api.POST("/task-status/:taskId/cancel", s.UserRequired(), s.CancelTask)

	// -------- Videos --------
	api.POST("/videos", s.UserRequired(), s.CreateVideo)
	api.PATCH("/videos", s.UserRequired(), s.UpdateVideo)

	// -------- Projects --------
	api.POST("/videoprojects", s.UserRequired(), s.CreateProject)
	api.GET("/videoprojects/:projectId", s.UserRequired(), s.ListProjectVideos)
	api.PATCH("/videoprojects/:projectId", s.UserRequired(), s.UpdateProject)

	// -------- Billing --------
	api.GET("/subscription-plans", s.ListSubscriptionPlans)
	api.GET("/subscription", s.UserRequired(), s.GetSubscription)
	api.POST("/subscription/cancel", s.UserRequired(), s.CancelSubscription)
	api.POST("/subscription/pause", s.UserRequired(), s.PauseSubscription)
	api.POST("/subscription/unpause", s.UserRequired(), s.UnpauseSubscription)
	api.GET("/credits", s.UserRequired(), s.GetCredits)

	// -------- Webhooks --------
	api.POST("/webhooks/:provider", s.HandleBillingWebhook)
	api.POST("/webhooks/identity", s.HandleIdentityWebhook)
}
