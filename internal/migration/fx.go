package migration

import (
	billingdomain "github.com/sanjail3/Influencer-AI-App/internal/billing/domain"
	"github.com/sanjail3/Influencer-AI-App/internal/config"
	creditdomain "github.com/sanjail3/Influencer-AI-App/internal/credit/domain"
	plandomain "github.com/sanjail3/Influencer-AI-App/internal/plan/domain"
	projectdomain "github.com/sanjail3/Influencer-AI-App/internal/project/domain"
	subscriptiondomain "github.com/sanjail3/Influencer-AI-App/internal/subscription/domain"
	userdomain "github.com/sanjail3/Influencer-AI-App/internal/user/domain"
	videodomain "github.com/sanjail3/Influencer-AI-App/internal/video/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// mysql and sqlite fall back to gorm's schema sync.
		return conn.AutoMigrate(
			&userdomain.User{},
			&creditdomain.CreditTransaction{},
			&projectdomain.Project{},
			&videodomain.Video{},
			&plandomain.SubscriptionPlan{},
			&subscriptiondomain.UserSubscription{},
			&billingdomain.WebhookEvent{},
		)
	}),
)
