package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/sanjail3/Influencer-AI-App/internal/billing/domain"
	"github.com/sanjail3/Influencer-AI-App/internal/config"
	creditdomain "github.com/sanjail3/Influencer-AI-App/internal/credit/domain"
	obsmetrics "github.com/sanjail3/Influencer-AI-App/internal/observability/metrics"
	plandomain "github.com/sanjail3/Influencer-AI-App/internal/plan/domain"
	"github.com/sanjail3/Influencer-AI-App/internal/providers/email"
	"github.com/sanjail3/Influencer-AI-App/internal/providers/payment"
	subscriptiondomain "github.com/sanjail3/Influencer-AI-App/internal/subscription/domain"
	userdomain "github.com/sanjail3/Influencer-AI-App/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	PlanSvc    plandomain.Service
	SubSvc     subscriptiondomain.Service
	CreditSvc  creditdomain.Service
	Credits    *config.CreditMappingHolder
	PaymentAPI payment.Client
	Email      email.Provider
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	planSvc    plandomain.Service
	subSvc     subscriptiondomain.Service
	creditSvc  creditdomain.Service
	credits    *config.CreditMappingHolder
	paymentAPI payment.Client
	email      email.Provider
	metrics    *obsmetrics.Metrics
}

func NewService(p Params) billingdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("billing.ingest"),
		genID:      p.GenID,
		planSvc:    p.PlanSvc,
		subSvc:     p.SubSvc,
		creditSvc:  p.CreditSvc,
		credits:    p.Credits,
		paymentAPI: p.PaymentAPI,
		email:      p.Email,
		metrics:    p.Metrics,
	}
}

func (s *Service) Ingest(ctx context.Context, eventName string, body []byte) error {
	if !json.Valid(body) {
		return billingdomain.ErrInvalidPayload
	}
	eventName = strings.TrimSpace(eventName)

	// Durable intake happens before any classification or side effect.
	record := billingdomain.WebhookEvent{
		ID:        s.genID.Generate(),
		EventName: eventName,
		Body:      datatypes.JSON(body),
		Processed: false,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return err
	}

	kind := billingdomain.Classify(eventName)
	processingError := s.process(ctx, kind, eventName, body)

	outcome := "ok"
	if processingError != "" {
		outcome = "error"
		s.log.Warn("webhook processing failed",
			zap.String("event_name", eventName),
			zap.String("error", processingError),
		)
	}
	if s.metrics != nil {
		s.metrics.WebhookEvents.WithLabelValues(kind.String(), outcome).Inc()
	}

	// The row is marked done whatever happened; failed and unknown
	// events are never retried.
	return s.db.WithContext(ctx).Model(&record).Updates(map[string]any{
		"processed":        true,
		"processing_error": processingError,
	}).Error
}

// process applies the event's side effects and returns the accumulated
// error text, empty on full success.
func (s *Service) process(ctx context.Context, kind billingdomain.EventKind, eventName string, body []byte) string {
	switch kind {
	case billingdomain.KindSubscription:
		return s.processSubscription(ctx, eventName, body)
	case billingdomain.KindSubscriptionPayment, billingdomain.KindOrder, billingdomain.KindLicense:
		// Recorded no-ops.
		return ""
	default:
		return ""
	}
}

func (s *Service) processSubscription(ctx context.Context, eventName string, body []byte) string {
	var envelope billingdomain.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "Event body is not a valid event envelope."
	}
	if envelope.Meta.EventName == "" {
		return "Event body is missing the 'meta' property."
	}
	if len(envelope.Data.Attributes) == 0 {
		return "Event body is missing the 'data' property."
	}

	userID, err := parseUserID(envelope.Meta.CustomData.UserID)
	if err != nil {
		return "Event meta is missing the subject user id."
	}

	var attrs billingdomain.SubscriptionEventAttributes
	if err := json.Unmarshal(envelope.Data.Attributes, &attrs); err != nil {
		return "Event data attributes are malformed."
	}
	variantID := strconv.FormatInt(attrs.VariantID, 10)

	plan, err := s.planSvc.GetByVariantID(ctx, variantID)
	if err != nil {
		return fmt.Sprintf("Plan with variantId %s not found.", variantID)
	}

	price := ""
	priceData, err := s.paymentAPI.GetPrice(ctx, strconv.FormatInt(attrs.FirstSubscriptionItem.PriceID, 10))
	if err != nil {
		return fmt.Sprintf("Failed to get the price data for the subscription %s.", envelope.Data.ID)
	}
	if attrs.FirstSubscriptionItem.IsUsageBased {
		if priceData.Attributes.UnitPriceDecimal != nil {
			price = *priceData.Attributes.UnitPriceDecimal
		}
	} else if priceData.Attributes.UnitPrice != nil {
		price = strconv.FormatInt(*priceData.Attributes.UnitPrice, 10)
	}

	record := subscriptiondomain.UserSubscription{
		UserID:             userID,
		ProviderID:         envelope.Data.ID,
		OrderID:            attrs.OrderID,
		Name:               attrs.UserName,
		Email:              attrs.UserEmail,
		Status:             subscriptiondomain.SubscriptionStatus(attrs.Status),
		StatusFormatted:    attrs.StatusFormatted,
		RenewsAt:           attrs.RenewsAt,
		EndsAt:             attrs.EndsAt,
		TrialEndsAt:        attrs.TrialEndsAt,
		Price:              price,
		IsPaused:           false,
		IsUsageBased:       attrs.FirstSubscriptionItem.IsUsageBased,
		SubscriptionItemID: strconv.FormatInt(attrs.FirstSubscriptionItem.ID, 10),
		PlanID:             plan.ID,
	}
	if err := s.subSvc.Upsert(ctx, &record); err != nil {
		return fmt.Sprintf("Failed to upsert Subscription #%s to the database.", envelope.Data.ID)
	}

	if eventName == billingdomain.EventNameSubscriptionCreated {
		if errText := s.applyCreatedCredits(ctx, userID, variantID, plan, &record); errText != "" {
			return errText
		}
	}

	return ""
}

// applyCreatedCredits grants the variant's credit allotment. The grant is
// keyed on nothing: a redelivered subscription_created event re-applies
// the delta. The intake log gives audit, not deduplication.
func (s *Service) applyCreatedCredits(ctx context.Context, userID snowflake.ID, variantID string, plan *plandomain.SubscriptionPlan, record *subscriptiondomain.UserSubscription) string {
	delta, ok := s.credits.CreditsFor(variantID)
	if !ok {
		return ""
	}

	_, err := s.creditSvc.Apply(ctx, creditdomain.ApplyRequest{
		UserID:      userID,
		Amount:      delta,
		Type:        creditdomain.TransactionTypePlanCredit,
		Description: fmt.Sprintf("Subscribed to plan %s", plan.Name),
	})
	if err != nil {
		if err == userdomain.ErrUserNotFound {
			return fmt.Sprintf("User %d for subscription credits not found.", userID)
		}
		return fmt.Sprintf("Failed to apply subscription credits: %s.", err)
	}

	s.sendConfirmation(ctx, record, plan)
	return ""
}

func (s *Service) sendConfirmation(ctx context.Context, record *subscriptiondomain.UserSubscription, plan *plandomain.SubscriptionPlan) {
	if record.Email == "" {
		return
	}
	body := fmt.Sprintf(
		"<h1>Subscription confirmed</h1><p>Hi %s, your %s plan is now active at %s per %s.</p>",
		record.Name, plan.Name, record.Price, interval(plan),
	)
	if err := s.email.Send(ctx, []string{record.Email}, "Subscription Confirmation", body); err != nil {
		// Best effort only; never retried, never surfaced.
		s.log.Error("subscription confirmation email failed", zap.Error(err))
	}
}

func interval(plan *plandomain.SubscriptionPlan) string {
	if plan.Interval == nil {
		return "period"
	}
	if plan.IntervalCount != nil && *plan.IntervalCount > 1 {
		return fmt.Sprintf("%d %ss", *plan.IntervalCount, *plan.Interval)
	}
	return *plan.Interval
}

func parseUserID(raw string) (snowflake.ID, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || parsed == 0 {
		return 0, billingdomain.ErrInvalidPayload
	}
	return snowflake.ID(parsed), nil
}
