package credit

import (
	"github.com/sanjail3/Influencer-AI-App/internal/credit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("credit.service",
	fx.Provide(service.NewService),
)
