package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	plandomain "github.com/sanjail3/Influencer-AI-App/internal/plan/domain"
	"github.com/sanjail3/Influencer-AI-App/internal/providers/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type paymentFake struct {
	variants []payment.Variant
	prices   map[string][]payment.Price
	products map[int64]string
}

func (f *paymentFake) ListVariants(context.Context) ([]payment.Variant, error) {
	return f.variants, nil
}

func (f *paymentFake) GetProductName(_ context.Context, productID int64) (string, error) {
	return f.products[productID], nil
}

func (f *paymentFake) ListPrices(_ context.Context, variantID string) ([]payment.Price, error) {
	return f.prices[variantID], nil
}

func (f *paymentFake) GetPrice(context.Context, string) (*payment.Price, error) { return nil, nil }
func (f *paymentFake) CancelSubscription(context.Context, string) (*payment.Subscription, error) {
	return nil, nil
}
func (f *paymentFake) PauseSubscription(context.Context, string, bool) (*payment.Subscription, error) {
	return nil, nil
}

func subscriptionPrice(cents int64, interval string) payment.Price {
	return payment.Price{
		Attributes: payment.PriceAttributes{
			Category:            "subscription",
			UnitPrice:           &cents,
			RenewalIntervalUnit: &interval,
		},
	}
}

func newTestService(t *testing.T, name string, api payment.Client) (plandomain.Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&plandomain.SubscriptionPlan{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(Params{DB: db, Log: zap.NewNop(), GenID: node, PaymentAPI: api}), db
}

func TestSync_SkipsUnsellableVariants(t *testing.T) {
	api := &paymentFake{
		variants: []payment.Variant{
			{ID: "679422", Attributes: payment.VariantAttributes{Name: "Starter", Status: "published", Sort: 1, ProductID: 100}},
			{ID: "679430", Attributes: payment.VariantAttributes{Name: "Draft", Status: "draft", ProductID: 100}},
			{ID: "679431", Attributes: payment.VariantAttributes{Name: "Default", Status: "pending", ProductID: 100}},
			{ID: "679432", Attributes: payment.VariantAttributes{Name: "One-off", Status: "published", ProductID: 100}},
		},
		prices: map[string][]payment.Price{
			"679422": {subscriptionPrice(900, "month")},
			"679431": {subscriptionPrice(0, "month")},
			"679432": {{Attributes: payment.PriceAttributes{Category: "lead_magnet"}}},
		},
		products: map[int64]string{100: "Influencer AI"},
	}
	svc, _ := newTestService(t, "plan_skip", api)

	plans, err := svc.Sync(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "679422", plans[0].VariantID)
	assert.Equal(t, "Starter", plans[0].Name)
	assert.Equal(t, "Influencer AI", plans[0].ProductName)
	assert.Equal(t, "900", plans[0].Price)
	require.NotNil(t, plans[0].Interval)
	assert.Equal(t, "month", *plans[0].Interval)
}

func TestSync_PendingKeptWhenOnlyVariant(t *testing.T) {
	api := &paymentFake{
		variants: []payment.Variant{
			{ID: "679422", Attributes: payment.VariantAttributes{Name: "Default", Status: "pending", ProductID: 100}},
		},
		prices:   map[string][]payment.Price{"679422": {subscriptionPrice(900, "month")}},
		products: map[int64]string{100: "Influencer AI"},
	}
	svc, _ := newTestService(t, "plan_pending", api)

	plans, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Len(t, plans, 1)
}

func TestSync_UpsertsExistingVariant(t *testing.T) {
	api := &paymentFake{
		variants: []payment.Variant{
			{ID: "679422", Attributes: payment.VariantAttributes{Name: "Starter", Status: "published", ProductID: 100}},
		},
		prices:   map[string][]payment.Price{"679422": {subscriptionPrice(900, "month")}},
		products: map[int64]string{100: "Influencer AI"},
	}
	svc, db := newTestService(t, "plan_upsert", api)

	first, err := svc.Sync(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	api.variants[0].Attributes.Name = "Starter v2"
	_, err = svc.Sync(context.Background())
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&plandomain.SubscriptionPlan{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	stored, err := svc.GetByVariantID(context.Background(), "679422")
	require.NoError(t, err)
	assert.Equal(t, "Starter v2", stored.Name)
	assert.Equal(t, first[0].ID, stored.ID)
}

func TestList_SyncsWhenTableEmpty(t *testing.T) {
	api := &paymentFake{
		variants: []payment.Variant{
			{ID: "679422", Attributes: payment.VariantAttributes{Name: "Starter", Status: "published", Sort: 2, ProductID: 100}},
			{ID: "679423", Attributes: payment.VariantAttributes{Name: "Growth", Status: "published", Sort: 1, ProductID: 100}},
		},
		prices: map[string][]payment.Price{
			"679422": {subscriptionPrice(900, "month")},
			"679423": {subscriptionPrice(1900, "month")},
		},
		products: map[int64]string{100: "Influencer AI"},
	}
	svc, _ := newTestService(t, "plan_list", api)

	plans, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)

	// A second call reads from the table, sorted.
	plans, err = svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "Growth", plans[0].Name)
	assert.Equal(t, "Starter", plans[1].Name)
}

func TestGetByVariantID_Validation(t *testing.T) {
	svc, _ := newTestService(t, "plan_get", &paymentFake{})

	_, err := svc.GetByVariantID(context.Background(), "  ")
	assert.ErrorIs(t, err, plandomain.ErrInvalidVariantID)

	_, err = svc.GetByVariantID(context.Background(), "999999")
	assert.ErrorIs(t, err, plandomain.ErrPlanNotFound)
}
