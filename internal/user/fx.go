package user

import (
	"github.com/sanjail3/Influencer-AI-App/internal/user/service"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(service.NewService),
)
