package plan

import (
	"github.com/sanjail3/Influencer-AI-App/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(service.NewService),
)
