package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	billingdomain "github.com/sanjail3/Influencer-AI-App/internal/billing/domain"
	"github.com/sanjail3/Influencer-AI-App/internal/config"
	creditdomain "github.com/sanjail3/Influencer-AI-App/internal/credit/domain"
	creditservice "github.com/sanjail3/Influencer-AI-App/internal/credit/service"
	plandomain "github.com/sanjail3/Influencer-AI-App/internal/plan/domain"
	"github.com/sanjail3/Influencer-AI-App/internal/providers/payment"
	subscriptiondomain "github.com/sanjail3/Influencer-AI-App/internal/subscription/domain"
	userdomain "github.com/sanjail3/Influencer-AI-App/internal/user/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type planMock struct{ mock.Mock }

func (m *planMock) List(ctx context.Context) ([]plandomain.SubscriptionPlan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]plandomain.SubscriptionPlan), args.Error(1)
}

func (m *planMock) Sync(ctx context.Context) ([]plandomain.SubscriptionPlan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]plandomain.SubscriptionPlan), args.Error(1)
}

func (m *planMock) GetByVariantID(ctx context.Context, variantID string) (*plandomain.SubscriptionPlan, error) {
	args := m.Called(ctx, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plandomain.SubscriptionPlan), args.Error(1)
}

func (m *planMock) GetByID(ctx context.Context, id snowflake.ID) (*plandomain.SubscriptionPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plandomain.SubscriptionPlan), args.Error(1)
}

type subscriptionMock struct{ mock.Mock }

func (m *subscriptionMock) Upsert(ctx context.Context, record *subscriptiondomain.UserSubscription) error {
	return m.Called(ctx, record).Error(0)
}

func (m *subscriptionMock) Get(ctx context.Context, userID snowflake.ID) (*subscriptiondomain.UserSubscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscriptiondomain.UserSubscription), args.Error(1)
}

func (m *subscriptionMock) Cancel(ctx context.Context, userID snowflake.ID, providerID string) (*subscriptiondomain.UserSubscription, error) {
	args := m.Called(ctx, userID, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscriptiondomain.UserSubscription), args.Error(1)
}

func (m *subscriptionMock) Pause(ctx context.Context, userID snowflake.ID, providerID string) (*subscriptiondomain.UserSubscription, error) {
	args := m.Called(ctx, userID, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscriptiondomain.UserSubscription), args.Error(1)
}

func (m *subscriptionMock) Unpause(ctx context.Context, userID snowflake.ID, providerID string) (*subscriptiondomain.UserSubscription, error) {
	args := m.Called(ctx, userID, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscriptiondomain.UserSubscription), args.Error(1)
}

type paymentStub struct {
	price *payment.Price
	err   error
}

func (s *paymentStub) ListVariants(context.Context) ([]payment.Variant, error) { return nil, nil }
func (s *paymentStub) GetProductName(context.Context, int64) (string, error)  { return "", nil }
func (s *paymentStub) ListPrices(context.Context, string) ([]payment.Price, error) {
	return nil, nil
}
func (s *paymentStub) GetPrice(context.Context, string) (*payment.Price, error) {
	return s.price, s.err
}
func (s *paymentStub) CancelSubscription(context.Context, string) (*payment.Subscription, error) {
	return nil, nil
}
func (s *paymentStub) PauseSubscription(context.Context, string, bool) (*payment.Subscription, error) {
	return nil, nil
}

type emailStub struct{ sent int }

func (s *emailStub) Send(context.Context, []string, string, string) error {
	s.sent++
	return nil
}

type fixture struct {
	svc       billingdomain.Service
	db        *gorm.DB
	creditSvc creditdomain.Service
	planSvc   *planMock
	subSvc    *subscriptionMock
	email     *emailStub
	userID    snowflake.ID
}

func newFixture(t *testing.T, name string) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&userdomain.User{},
		&creditdomain.CreditTransaction{},
		&billingdomain.WebhookEvent{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	user := userdomain.User{
		ID:         node.Generate(),
		ExternalID: "user_2abc",
		Email:      "creator@example.com",
		Credits:    10,
		MaxCredits: 10,
	}
	require.NoError(t, db.Create(&user).Error)

	credits, err := config.NewCreditMappingHolder(zap.NewNop())
	require.NoError(t, err)

	creditSvc := creditservice.NewService(creditservice.Params{DB: db, Log: zap.NewNop(), GenID: node})
	planSvc := &planMock{}
	subSvc := &subscriptionMock{}
	mailer := &emailStub{}

	unitPrice := int64(900)
	svc := NewService(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		PlanSvc:   planSvc,
		SubSvc:    subSvc,
		CreditSvc: creditSvc,
		Credits:   credits,
		PaymentAPI: &paymentStub{price: &payment.Price{
			ID:         "1350802",
			Attributes: payment.PriceAttributes{Category: "subscription", UnitPrice: &unitPrice},
		}},
		Email: mailer,
	})

	return &fixture{
		svc:       svc,
		db:        db,
		creditSvc: creditSvc,
		planSvc:   planSvc,
		subSvc:    subSvc,
		email:     mailer,
		userID:    user.ID,
	}
}

func subscriptionBody(userID snowflake.ID, eventName string, variantID int64) []byte {
	return []byte(fmt.Sprintf(`{
		"meta": {
			"event_name": %q,
			"custom_data": {"user_id": %q}
		},
		"data": {
			"id": "sub_123",
			"attributes": {
				"variant_id": %d,
				"order_id": 42,
				"user_name": "Jordan",
				"user_email": "creator@example.com",
				"status": "active",
				"status_formatted": "Active",
				"first_subscription_item": {"id": 7, "price_id": 1350802, "is_usage_based": false}
			}
		}
	}`, eventName, userID.String(), variantID))
}

func starterPlan() *plandomain.SubscriptionPlan {
	month := "month"
	return &plandomain.SubscriptionPlan{
		ID:        42,
		VariantID: "679422",
		Name:      "Starter",
		Price:     "900",
		Interval:  &month,
	}
}

func (f *fixture) lastEvent(t *testing.T) *billingdomain.WebhookEvent {
	t.Helper()
	var record billingdomain.WebhookEvent
	require.NoError(t, f.db.Order("id DESC").Take(&record).Error)
	return &record
}

func TestIngest_SubscriptionCreatedGrantsPlanCredits(t *testing.T) {
	f := newFixture(t, "billing_created")
	f.planSvc.On("GetByVariantID", mock.Anything, "679422").Return(starterPlan(), nil)
	f.subSvc.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	err := f.svc.Ingest(context.Background(), "subscription_created", subscriptionBody(f.userID, "subscription_created", 679422))
	require.NoError(t, err)

	record := f.lastEvent(t)
	assert.True(t, record.Processed)
	assert.Empty(t, record.ProcessingError)

	balance, err := f.creditSvc.Balance(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 60, balance.Credits)
	assert.Equal(t, 60, balance.MaxCredits)

	rows, err := f.creditSvc.History(context.Background(), f.userID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, creditdomain.TransactionTypePlanCredit, rows[0].Type)
	assert.Equal(t, "Subscribed to plan Starter", rows[0].Description)

	assert.Equal(t, 1, f.email.sent)
	f.subSvc.AssertCalled(t, "Upsert", mock.Anything, mock.MatchedBy(func(record *subscriptiondomain.UserSubscription) bool {
		return record.UserID == f.userID &&
			record.ProviderID == "sub_123" &&
			record.Status == subscriptiondomain.SubscriptionStatusActive &&
			record.Price == "900" &&
			record.PlanID == snowflake.ID(42)
	}))
}

func TestIngest_RedeliveryReappliesGrant(t *testing.T) {
	f := newFixture(t, "billing_redelivery")
	f.planSvc.On("GetByVariantID", mock.Anything, "679422").Return(starterPlan(), nil)
	f.subSvc.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	body := subscriptionBody(f.userID, "subscription_created", 679422)
	require.NoError(t, f.svc.Ingest(context.Background(), "subscription_created", body))
	require.NoError(t, f.svc.Ingest(context.Background(), "subscription_created", body))

	// Intake is audit only. A redelivered created event grants twice.
	balance, err := f.creditSvc.Balance(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 110, balance.Credits)

	var count int64
	require.NoError(t, f.db.Model(&billingdomain.WebhookEvent{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestIngest_SubscriptionUpdatedDoesNotMoveCredits(t *testing.T) {
	f := newFixture(t, "billing_updated")
	f.planSvc.On("GetByVariantID", mock.Anything, "679422").Return(starterPlan(), nil)
	f.subSvc.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	err := f.svc.Ingest(context.Background(), "subscription_updated", subscriptionBody(f.userID, "subscription_updated", 679422))
	require.NoError(t, err)

	balance, err := f.creditSvc.Balance(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 10, balance.Credits)
	assert.Zero(t, f.email.sent)
}

func TestIngest_UnknownVariantRecordsErrorAndCompletes(t *testing.T) {
	f := newFixture(t, "billing_unknown_variant")
	f.planSvc.On("GetByVariantID", mock.Anything, "999999").Return(nil, plandomain.ErrPlanNotFound)

	err := f.svc.Ingest(context.Background(), "subscription_created", subscriptionBody(f.userID, "subscription_created", 999999))
	require.NoError(t, err)

	record := f.lastEvent(t)
	assert.True(t, record.Processed)
	assert.Equal(t, "Plan with variantId 999999 not found.", record.ProcessingError)

	balance, err := f.creditSvc.Balance(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 10, balance.Credits)
	f.subSvc.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestIngest_MissingMetaRecordsError(t *testing.T) {
	f := newFixture(t, "billing_missing_meta")

	err := f.svc.Ingest(context.Background(), "subscription_created", []byte(`{"data": {"id": "sub_123", "attributes": {"variant_id": 1}}}`))
	require.NoError(t, err)

	record := f.lastEvent(t)
	assert.True(t, record.Processed)
	assert.Equal(t, "Event body is missing the 'meta' property.", record.ProcessingError)
}

func TestIngest_NonSubscriptionKindsAreRecordedNoOps(t *testing.T) {
	f := newFixture(t, "billing_noop")

	for _, eventName := range []string{"subscription_payment_success", "order_created", "license_key_created", "affiliate_activated"} {
		require.NoError(t, f.svc.Ingest(context.Background(), eventName, []byte(`{"meta": {}, "data": {}}`)))
		record := f.lastEvent(t)
		assert.True(t, record.Processed)
		assert.Empty(t, record.ProcessingError)
	}

	balance, err := f.creditSvc.Balance(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 10, balance.Credits)
	f.planSvc.AssertNotCalled(t, "GetByVariantID", mock.Anything, mock.Anything)
}

func TestIngest_RejectsInvalidJSON(t *testing.T) {
	f := newFixture(t, "billing_invalid_json")

	err := f.svc.Ingest(context.Background(), "subscription_created", []byte(`{not json`))
	assert.ErrorIs(t, err, billingdomain.ErrInvalidPayload)

	var count int64
	require.NoError(t, f.db.Model(&billingdomain.WebhookEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}
