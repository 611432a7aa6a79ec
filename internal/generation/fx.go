package generation

import (
	"github.com/sanjail3/Influencer-AI-App/internal/generation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("generation",
	fx.Provide(
		service.NewCompletion,
		service.NewService,
	),
)
