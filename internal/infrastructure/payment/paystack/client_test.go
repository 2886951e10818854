package paystack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/tenantbilling/internal/domain/payment"
	"github.com/orris-inc/tenantbilling/internal/shared/config"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

func newTestClient(baseURL string, timeout time.Duration) *Client {
	return NewClient(config.PaymentConfig{
		Timeout:  timeout,
		RetryMax: 0,
		Paystack: config.PaystackConfig{
			SecretKey:   "sk_test_123",
			BaseURL:     baseURL,
			CallbackURL: "https://app.example.com/billing/return",
		},
	}, logger.NewNop())
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestClient_Initialize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "owner@acme.test", body["email"])
		assert.Equal(t, "1500000", body["amount"])
		assert.Equal(t, "https://app.example.com/billing/return", body["callback_url"])
		meta := body["metadata"].(map[string]any)
		assert.Equal(t, "tenant_1", meta["tenant_id"])

		writeJSON(t, w, http.StatusOK, map[string]any{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]any{
				"authorization_url": "https://checkout.paystack.com/abc",
				"access_code":       "abc",
				"reference":         "ref_1",
			},
		})
	}))
	defer server.Close()

	session, err := newTestClient(server.URL, time.Second).Initialize(context.Background(), payment.CheckoutRequest{
		Email:       "owner@acme.test",
		AmountMinor: 1500000,
		Currency:    "NGN",
		Reference:   "ref_1",
		Metadata:    map[string]string{"tenant_id": "tenant_1", "plan": "professional"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc", session.AuthorizationURL)
	assert.Equal(t, "ref_1", session.Reference)
}

func TestClient_Initialize_ProviderRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]any{"status": false, "message": "Invalid key"})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, time.Second).Initialize(context.Background(), payment.CheckoutRequest{
		Email:       "owner@acme.test",
		AmountMinor: 100,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, payment.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "Invalid key")
}

func TestClient_Cancel_FetchesTokenThenDisables(t *testing.T) {
	var disabled atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/subscription/SUB_abc":
			writeJSON(t, w, http.StatusOK, map[string]any{
				"status": true,
				"data": map[string]any{
					"subscription_code": "SUB_abc",
					"email_token":       "tok_1",
					"customer":          map[string]any{"email": "owner@acme.test"},
				},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/subscription/disable":
			var body disableRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "SUB_abc", body.Code)
			assert.Equal(t, "tok_1", body.Token)
			disabled.Store(true)
			writeJSON(t, w, http.StatusOK, map[string]any{"status": true, "message": "Subscription disabled successfully"})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	err := newTestClient(server.URL, time.Second).Cancel(context.Background(), "SUB_abc", "owner@acme.test")
	require.NoError(t, err)
	assert.True(t, disabled.Load())
}

func TestClient_Cancel_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	start := time.Now()
	err := newTestClient(server.URL, 50*time.Millisecond).Cancel(context.Background(), "SUB_slow", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, payment.ErrProviderUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestClient_Cancel_RequiresCode(t *testing.T) {
	err := newTestClient("http://127.0.0.1:1", time.Second).Cancel(context.Background(), "", "")
	assert.ErrorIs(t, err, payment.ErrProviderUnavailable)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(config.PaymentConfig{}, logger.NewNop())
	assert.Equal(t, defaultBaseURL, c.baseURL)
	assert.Equal(t, defaultTimeout, c.timeout)
	assert.Equal(t, 0, c.http.RetryMax)
}
