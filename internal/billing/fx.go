package billing

import (
	"github.com/sanjail3/Influencer-AI-App/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing",
	fx.Provide(
		service.NewService,
	),
)
