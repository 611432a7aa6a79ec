package subscription

import (
	"github.com/sanjail3/Influencer-AI-App/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(service.NewService),
)
