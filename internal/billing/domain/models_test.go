package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		eventName string
		want      EventKind
	}{
		{"subscription_created", KindSubscription},
		{"subscription_updated", KindSubscription},
		{"subscription_cancelled", KindSubscription},
		{"subscription_resumed", KindSubscription},
		{"subscription_expired", KindSubscription},
		{"subscription_paused", KindSubscription},
		{"subscription_unpaused", KindSubscription},
		{"subscription_payment_success", KindSubscriptionPayment},
		{"subscription_payment_failed", KindSubscriptionPayment},
		{"subscription_payment_recovered", KindSubscriptionPayment},
		{"order_created", KindOrder},
		{"order_refunded", KindOrder},
		{"license_key_created", KindLicense},
		{"license_key_updated", KindLicense},
		{"affiliate_activated", KindUnknown},
		{"", KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.eventName, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.eventName))
		})
	}
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "subscription", KindSubscription.String())
	assert.Equal(t, "subscription_payment", KindSubscriptionPayment.String())
	assert.Equal(t, "order", KindOrder.String())
	assert.Equal(t, "license", KindLicense.String())
	assert.Equal(t, "unknown", KindUnknown.String())
	assert.Equal(t, "unknown", EventKind(42).String())
}
