// Package paystack talks to the Paystack REST API and verifies its webhooks.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/orris-inc/tenantbilling/internal/domain/payment"
	"github.com/orris-inc/tenantbilling/internal/shared/config"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
	"github.com/orris-inc/tenantbilling/internal/shared/utils"
)

const (
	defaultBaseURL = "https://api.paystack.co"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Client implements payment.Gateway against Paystack. Every call is bounded
// by the configured timeout; retries happen inside that budget.
type Client struct {
	http        *retryablehttp.Client
	baseURL     string
	secretKey   string
	callbackURL string
	timeout     time.Duration
	logger      logger.Interface
}

var _ payment.Gateway = (*Client)(nil)

func NewClient(cfg config.PaymentConfig, log logger.Interface) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL := strings.TrimRight(cfg.Paystack.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = max(cfg.RetryMax, 0)
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = timeout
	rc.Logger = &leveledLogger{log: log}

	return &Client{
		http:        rc,
		baseURL:     baseURL,
		secretKey:   cfg.Paystack.SecretKey,
		callbackURL: cfg.Paystack.CallbackURL,
		timeout:     timeout,
		logger:      log,
	}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeRequest struct {
	Email       string            `json:"email"`
	Amount      string            `json:"amount"`
	Currency    string            `json:"currency,omitempty"`
	Reference   string            `json:"reference,omitempty"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type subscriptionData struct {
	SubscriptionCode string `json:"subscription_code"`
	EmailToken       string `json:"email_token"`
	Status           string `json:"status"`
	Customer         struct {
		Email string `json:"email"`
	} `json:"customer"`
}

type disableRequest struct {
	Code  string `json:"code"`
	Token string `json:"token"`
}

// Initialize creates a hosted checkout. No local state depends on it.
func (c *Client) Initialize(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	var data initializeData
	err := c.call(ctx, http.MethodPost, "/transaction/initialize", initializeRequest{
		Email:       req.Email,
		Amount:      fmt.Sprintf("%d", req.AmountMinor),
		Currency:    req.Currency,
		Reference:   req.Reference,
		CallbackURL: c.callbackURL,
		Metadata:    req.Metadata,
	}, &data)
	if err != nil {
		return nil, err
	}

	c.logger.Infow("paystack checkout initialized", "reference", data.Reference)
	return &payment.CheckoutSession{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

// Cancel disables a recurring subscription. Paystack needs the subscription's
// email token, so the subscription is fetched first.
func (c *Client) Cancel(ctx context.Context, subscriptionCode, customerEmail string) error {
	if subscriptionCode == "" {
		return fmt.Errorf("%w: subscription code is required", payment.ErrProviderUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var sub subscriptionData
	if err := c.call(ctx, http.MethodGet, "/subscription/"+url.PathEscape(subscriptionCode), nil, &sub); err != nil {
		return err
	}

	if customerEmail != "" && sub.Customer.Email != "" && !strings.EqualFold(customerEmail, sub.Customer.Email) {
		c.logger.Warnw("paystack subscription belongs to a different email",
			"subscription_code", subscriptionCode,
			"expected", utils.MaskEmail(customerEmail),
			"actual", utils.MaskEmail(sub.Customer.Email),
		)
	}

	if err := c.call(ctx, http.MethodPost, "/subscription/disable", disableRequest{
		Code:  subscriptionCode,
		Token: sub.EmailToken,
	}, nil); err != nil {
		return err
	}

	c.logger.Infow("paystack subscription disabled", "subscription_code", subscriptionCode)
	return nil
}

// call performs one API request under the client timeout and decodes the
// response envelope into out. Every failure wraps payment.ErrProviderUnavailable.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode paystack request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build paystack request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", payment.ErrProviderUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: reading %s response: %v", payment.ErrProviderUnavailable, path, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Warnw("undecodable paystack response",
			"path", path,
			"status", resp.StatusCode,
			"body", utils.TruncateForLog(string(raw), 256),
		)
		return fmt.Errorf("%w: %s returned status %d with undecodable body", payment.ErrProviderUnavailable, path, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest || !env.Status {
		return fmt.Errorf("%w: %s returned status %d: %s", payment.ErrProviderUnavailable, path, resp.StatusCode, env.Message)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: decoding %s data: %v", payment.ErrProviderUnavailable, path, err)
		}
	}
	return nil
}

// leveledLogger adapts logger.Interface to retryablehttp.LeveledLogger.
type leveledLogger struct {
	log logger.Interface
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Warnw("paystack http: "+msg, keysAndValues...)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw("paystack http: "+msg, keysAndValues...)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debugw("paystack http: "+msg, keysAndValues...)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warnw("paystack http: "+msg, keysAndValues...)
}
