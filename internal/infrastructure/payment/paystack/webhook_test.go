package paystack

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/tenantbilling/internal/domain/payment"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
)

const testSecret = "sk_test_webhook"

func TestWebhookParser_Verify(t *testing.T) {
	p := NewWebhookParser(testSecret, 30)
	body := []byte(`{"event":"charge.success"}`)

	assert.True(t, p.Verify(body, Sign(testSecret, body)))
	assert.False(t, p.Verify(body, Sign("other", body)))
	assert.False(t, p.Verify(body, ""))
	assert.False(t, p.Verify(body, "not-hex"))
	assert.False(t, p.Verify([]byte(`{"event":"charge.failed"}`), Sign(testSecret, body)))

	assert.False(t, NewWebhookParser("", 30).Verify(body, Sign("", body)), "empty secret never verifies")
}

func TestWebhookParser_RejectsBeforeDecoding(t *testing.T) {
	p := NewWebhookParser(testSecret, 30)

	_, err := p.Parse([]byte(`not json at all`), "deadbeef")
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)
}

func TestWebhookParser_ChargeSuccess(t *testing.T) {
	p := NewWebhookParser(testSecret, 30)
	body := []byte(`{
		"event": "charge.success",
		"data": {
			"id": 302961,
			"reference": "ref_1",
			"amount": 1500000,
			"currency": "NGN",
			"paid_at": "2026-03-01T10:00:00.000Z",
			"created_at": "2026-03-01T09:59:00.000Z",
			"metadata": {"tenant_id": "tenant_1", "plan": "professional"},
			"customer": {"email": "owner@acme.test"}
		}
	}`)

	evt, err := p.Parse(body, Sign(testSecret, body))
	require.NoError(t, err)

	assert.Equal(t, "charge.success:302961", evt.ID)
	assert.Equal(t, payment.EventChargeSuccess, evt.Type)
	assert.Equal(t, "tenant_1", evt.TenantID)
	assert.Equal(t, plan.Professional, evt.Plan)
	assert.Equal(t, int64(1500000), evt.AmountMinor)
	assert.Equal(t, "owner@acme.test", evt.CustomerEmail)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), evt.OccurredAt)
	require.NotNil(t, evt.PeriodEnd)
	assert.Equal(t, time.Date(2026, 3, 31, 10, 0, 0, 0, time.UTC), *evt.PeriodEnd)
}

func TestWebhookParser_StringMetadataAndNestedSubscription(t *testing.T) {
	p := NewWebhookParser(testSecret, 30)
	body := []byte(`{
		"event": "invoice.payment_failed",
		"data": {
			"id": 77,
			"created_at": "2026-03-02T08:00:00Z",
			"updated_at": "2026-03-02T08:05:00Z",
			"metadata": "{\"tenant_id\":\"tenant_9\"}",
			"subscription": {"subscription_code": "SUB_x", "next_payment_date": "2026-04-02T08:00:00Z"}
		}
	}`)

	evt, err := p.Parse(body, Sign(testSecret, body))
	require.NoError(t, err)

	assert.Equal(t, "tenant_9", evt.TenantID)
	assert.Equal(t, "SUB_x", evt.SubscriptionCode)
	assert.Equal(t, time.Date(2026, 3, 2, 8, 5, 0, 0, time.UTC), evt.OccurredAt, "updated_at wins over created_at")
	require.NotNil(t, evt.PeriodEnd)
	assert.Equal(t, time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC), *evt.PeriodEnd)
}

func TestWebhookParser_SubscriptionCreate(t *testing.T) {
	p := NewWebhookParser(testSecret, 30)
	body := []byte(`{
		"event": "subscription.create",
		"data": {
			"subscription_code": "SUB_new",
			"next_payment_date": "2026-04-01T00:00:00Z",
			"created_at": "2026-03-01T00:00:00Z",
			"customer": {"email": "owner@acme.test"}
		}
	}`)

	evt, err := p.Parse(body, Sign(testSecret, body))
	require.NoError(t, err)
	assert.Equal(t, "SUB_new", evt.SubscriptionCode)
	assert.Empty(t, evt.TenantID)
	assert.Contains(t, evt.ID, "subscription.create:SUB_new@")
	require.NotNil(t, evt.PeriodEnd)
}

func TestWebhookParser_Malformed(t *testing.T) {
	p := NewWebhookParser(testSecret, 30)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"event":`},
		{"no event", `{"data":{"created_at":"2026-03-01T00:00:00Z"}}`},
		{"no timestamp", `{"event":"charge.success","data":{"id":1}}`},
		{"bad timestamp", `{"event":"charge.success","data":{"paid_at":"yesterday"}}`},
		{"bad metadata", `{"event":"charge.success","data":{"paid_at":"2026-03-01T00:00:00Z","metadata":"{oops"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := []byte(tt.body)
			_, err := p.Parse(body, Sign(testSecret, body))
			assert.ErrorIs(t, err, payment.ErrMalformedEvent)
		})
	}
}
