package payment

import (
	"github.com/sanjail3/Influencer-AI-App/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.payment",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Client {
	return NewHTTPClient(cfg.Payment.APIURL, cfg.Payment.APIKey, cfg.Payment.StoreID, log)
}
