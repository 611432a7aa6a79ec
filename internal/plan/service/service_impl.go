package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/sanjail3/Influencer-AI-App/internal/plan/domain"
	"github.com/sanjail3/Influencer-AI-App/internal/providers/payment"
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
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	paymentAPI payment.Client
}

func NewService(p Params) plandomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("plan.service"),
		genID:      p.GenID,
		paymentAPI: p.PaymentAPI,
	}
}

func (s *Service) List(ctx context.Context) ([]plandomain.SubscriptionPlan, error) {
	var plans []plandomain.SubscriptionPlan
	if err := s.db.WithContext(ctx).Order("sort ASC").Find(&plans).Error; err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		return plans, nil
	}
	return s.Sync(ctx)
}

func (s *Service) Sync(ctx context.Context) ([]plandomain.SubscriptionPlan, error) {
	variants, err := s.paymentAPI.ListVariants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}

	var synced []plandomain.SubscriptionPlan
	for _, v := range variants {
		attrs := v.Attributes
		// Draft variants are never sold; when a product has several
		// variants its default one is reported as pending.
		if attrs.Status == "draft" || (len(variants) != 1 && attrs.Status == "pending") {
			continue
		}

		prices, err := s.paymentAPI.ListPrices(ctx, v.ID)
		if err != nil {
			return nil, fmt.Errorf("list prices for variant %s: %w", v.ID, err)
		}
		if len(prices) == 0 {
			continue
		}
		price := prices[0].Attributes
		if price.Category != "subscription" {
			continue
		}

		productName, err := s.paymentAPI.GetProductName(ctx, attrs.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product %d: %w", attrs.ProductID, err)
		}

		isUsageBased := price.UsageAggregation != nil
		priceString := ""
		if isUsageBased {
			if price.UnitPriceDecimal != nil {
				priceString = *price.UnitPriceDecimal
			}
		} else if price.UnitPrice != nil {
			priceString = strconv.FormatInt(*price.UnitPrice, 10)
		}

		plan := plandomain.SubscriptionPlan{
			ID:                 s.genID.Generate(),
			VariantID:          v.ID,
			ProductID:          attrs.ProductID,
			ProductName:        productName,
			Name:               attrs.Name,
			Description:        attrs.Description,
			Price:              priceString,
			Interval:           price.RenewalIntervalUnit,
			IntervalCount:      price.RenewalIntervalQuantity,
			TrialInterval:      price.TrialIntervalUnit,
			TrialIntervalCount: price.TrialIntervalQuantity,
			IsUsageBased:       isUsageBased,
			Sort:               attrs.Sort,
		}

		err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "variant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"product_id", "product_name", "name", "description", "price",
				"interval", "interval_count", "trial_interval",
				"trial_interval_count", "is_usage_based", "sort", "updated_at",
			}),
		}).Create(&plan).Error
		if err != nil {
			return nil, fmt.Errorf("upsert plan %s: %w", v.ID, err)
		}

		s.log.Info("plan synced",
			zap.String("variant_id", plan.VariantID),
			zap.String("name", plan.Name),
		)
		synced = append(synced, plan)
	}

	return synced, nil
}

func (s *Service) GetByVariantID(ctx context.Context, variantID string) (*plandomain.SubscriptionPlan, error) {
	variantID = strings.TrimSpace(variantID)
	if variantID == "" {
		return nil, plandomain.ErrInvalidVariantID
	}
	var plan plandomain.SubscriptionPlan
	err := s.db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		Take(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, plandomain.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*plandomain.SubscriptionPlan, error) {
	var plan plandomain.SubscriptionPlan
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, plandomain.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}
