package project

import (
	"github.com/sanjail3/Influencer-AI-App/internal/project/service"
	"go.uber.org/fx"
)

var Module = fx.Module("project.service",
	fx.Provide(service.NewService),
)
