package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/sanjail3/Influencer-AI-App/internal/config"
	creditdomain "github.com/sanjail3/Influencer-AI-App/internal/credit/domain"
	plandomain "github.com/sanjail3/Influencer-AI-App/internal/plan/domain"
	"github.com/sanjail3/Influencer-AI-App/internal/providers/payment"
	subscriptiondomain "github.com/sanjail3/Influencer-AI-App/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	PaymentAPI payment.Client
	PlanSvc    plandomain.Service
	CreditSvc  creditdomain.Service
	Credits    *config.CreditMappingHolder
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	paymentAPI payment.Client
	planSvc    plandomain.Service
	creditSvc  creditdomain.Service
	credits    *config.CreditMappingHolder
}

func NewService(p Params) subscriptiondomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("subscription.service"),
		genID:      p.GenID,
		paymentAPI: p.PaymentAPI,
		planSvc:    p.PlanSvc,
		creditSvc:  p.CreditSvc,
		credits:    p.Credits,
	}
}

func (s *Service) Upsert(ctx context.Context, record *subscriptiondomain.UserSubscription) error {
	if record.ID == 0 {
		record.ID = s.genID.Generate()
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider_id", "order_id", "name", "email", "status",
			"status_formatted", "renews_at", "ends_at", "trial_ends_at",
			"price", "is_paused", "is_usage_based", "subscription_item_id",
			"plan_id", "updated_at",
		}),
	}).Create(record).Error
}

func (s *Service) Get(ctx context.Context, userID snowflake.ID) (*subscriptiondomain.UserSubscription, error) {
	var record subscriptiondomain.UserSubscription
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, subscriptiondomain.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Service) Cancel(ctx context.Context, userID snowflake.ID, providerID string) (*subscriptiondomain.UserSubscription, error) {
	record, err := s.tracked(ctx, userID, providerID)
	if err != nil {
		return nil, err
	}

	plan, err := s.planSvc.GetByID(ctx, record.PlanID)
	if err != nil {
		return nil, err
	}

	if delta, ok := s.credits.CreditsFor(plan.VariantID); ok {
		_, err = s.creditSvc.Apply(ctx, creditdomain.ApplyRequest{
			UserID:      userID,
			Amount:      -delta,
			Type:        creditdomain.TransactionTypePlanDebit,
			Description: fmt.Sprintf("Cancelled plan %s", plan.Name),
		})
		if err != nil {
			return nil, err
		}
	}

	cancelled, err := s.paymentAPI.CancelSubscription(ctx, providerID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"status":           cancelled.Attributes.Status,
		"status_formatted": cancelled.Attributes.StatusFormatted,
		"ends_at":          cancelled.Attributes.EndsAt,
	}
	if err := s.db.WithContext(ctx).Model(record).Updates(updates).Error; err != nil {
		return nil, err
	}
	record.Status = subscriptiondomain.SubscriptionStatus(cancelled.Attributes.Status)
	record.StatusFormatted = cancelled.Attributes.StatusFormatted
	record.EndsAt = cancelled.Attributes.EndsAt

	s.log.Info("subscription cancelled",
		zap.Int64("user_id", int64(userID)),
		zap.String("provider_id", providerID),
	)
	return record, nil
}

func (s *Service) Pause(ctx context.Context, userID snowflake.ID, providerID string) (*subscriptiondomain.UserSubscription, error) {
	return s.setPaused(ctx, userID, providerID, true)
}

func (s *Service) Unpause(ctx context.Context, userID snowflake.ID, providerID string) (*subscriptiondomain.UserSubscription, error) {
	return s.setPaused(ctx, userID, providerID, false)
}

func (s *Service) setPaused(ctx context.Context, userID snowflake.ID, providerID string, pause bool) (*subscriptiondomain.UserSubscription, error) {
	record, err := s.tracked(ctx, userID, providerID)
	if err != nil {
		return nil, err
	}

	updated, err := s.paymentAPI.PauseSubscription(ctx, providerID, pause)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"status":           updated.Attributes.Status,
		"status_formatted": updated.Attributes.StatusFormatted,
		"ends_at":          updated.Attributes.EndsAt,
		"is_paused":        updated.Paused(),
	}
	if err := s.db.WithContext(ctx).Model(record).Updates(updates).Error; err != nil {
		return nil, err
	}
	record.Status = subscriptiondomain.SubscriptionStatus(updated.Attributes.Status)
	record.StatusFormatted = updated.Attributes.StatusFormatted
	record.EndsAt = updated.Attributes.EndsAt
	record.IsPaused = updated.Paused()
	return record, nil
}

func (s *Service) tracked(ctx context.Context, userID snowflake.ID, providerID string) (*subscriptiondomain.UserSubscription, error) {
	providerID = strings.TrimSpace(providerID)
	record, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record.ProviderID != providerID {
		return nil, subscriptiondomain.ErrProviderIDMismatch
	}
	return record, nil
}
