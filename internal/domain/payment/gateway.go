package payment

import (
	"context"
	"errors"
)

var (
	// ErrInvalidSignature means the webhook body was not signed with our secret.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrMalformedEvent means a correctly signed body could not be decoded.
	ErrMalformedEvent = errors.New("malformed webhook payload")
	// ErrProviderUnavailable wraps transport failures and timeouts.
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)

// CheckoutRequest starts a provider-hosted payment. AmountMinor is in the
// currency's smallest unit.
type CheckoutRequest struct {
	Email       string
	AmountMinor int64
	Currency    string
	Reference   string
	Metadata    map[string]string
}

type CheckoutSession struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// Gateway is the outbound command surface of the payment provider.
type Gateway interface {
	Initialize(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	Cancel(ctx context.Context, subscriptionCode, customerEmail string) error
}

// WebhookParser verifies and decodes inbound provider notifications.
// Verification happens before any decoding.
type WebhookParser interface {
	Parse(raw []byte, signature string) (*Event, error)
}
