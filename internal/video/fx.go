package video

import (
	"github.com/sanjail3/Influencer-AI-App/internal/video/service"
	"go.uber.org/fx"
)

var Module = fx.Module("video.service",
	fx.Provide(service.NewService),
)
