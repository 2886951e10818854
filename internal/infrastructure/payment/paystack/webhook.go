package paystack

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/orris-inc/tenantbilling/internal/domain/payment"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
)

// SignatureHeader carries the hex HMAC-SHA512 of the raw webhook body.
const SignatureHeader = "X-Paystack-Signature"

// WebhookParser verifies Paystack signatures and decodes events.
type WebhookParser struct {
	secret            []byte
	billingPeriodDays int
}

var _ payment.WebhookParser = (*WebhookParser)(nil)

// NewWebhookParser builds a parser. billingPeriodDays derives a period end
// for charge events that carry no next payment date.
func NewWebhookParser(secretKey string, billingPeriodDays int) *WebhookParser {
	return &WebhookParser{
		secret:            []byte(secretKey),
		billingPeriodDays: billingPeriodDays,
	}
}

// Sign returns the signature Paystack would send for body.
func Sign(secretKey string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks signature against body in constant time. An empty secret
// never verifies.
func (p *WebhookParser) Verify(body []byte, signature string) bool {
	if len(p.secret) == 0 || signature == "" {
		return false
	}
	expected, err := hex.DecodeString(Sign(string(p.secret), body))
	if err != nil {
		return false
	}
	provided, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	return hmac.Equal(expected, provided)
}

type webhookPayload struct {
	Event string      `json:"event"`
	Data  webhookData `json:"data"`
}

type webhookData struct {
	ID               json.Number     `json:"id"`
	Reference        string          `json:"reference"`
	Amount           json.Number     `json:"amount"`
	Currency         string          `json:"currency"`
	PaidAt           string          `json:"paid_at"`
	CreatedAt        string          `json:"created_at"`
	UpdatedAt        string          `json:"updated_at"`
	SubscriptionCode string          `json:"subscription_code"`
	NextPaymentDate  string          `json:"next_payment_date"`
	Metadata         json.RawMessage `json:"metadata"`
	Customer         struct {
		Email string `json:"email"`
	} `json:"customer"`
	Subscription *struct {
		SubscriptionCode string `json:"subscription_code"`
		NextPaymentDate  string `json:"next_payment_date"`
	} `json:"subscription"`
}

type webhookMetadata struct {
	TenantID string `json:"tenant_id"`
	Plan     string `json:"plan"`
}

// Parse verifies the signature over the raw bytes, then decodes the event.
// Nothing is decoded from an unverified body.
func (p *WebhookParser) Parse(raw []byte, signature string) (*payment.Event, error) {
	if !p.Verify(raw, signature) {
		return nil, payment.ErrInvalidSignature
	}

	var payload webhookPayload
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrMalformedEvent, err)
	}
	if payload.Event == "" {
		return nil, fmt.Errorf("%w: missing event type", payment.ErrMalformedEvent)
	}

	data := payload.Data
	occurredAt, err := firstTimestamp(data.PaidAt, data.UpdatedAt, data.CreatedAt)
	if err != nil {
		return nil, err
	}

	meta, err := decodeMetadata(data.Metadata)
	if err != nil {
		return nil, err
	}

	evt := &payment.Event{
		Type:             payment.EventType(payload.Event),
		OccurredAt:       occurredAt,
		TenantID:         meta.TenantID,
		SubscriptionCode: data.SubscriptionCode,
		CustomerEmail:    data.Customer.Email,
		Reference:        data.Reference,
		Currency:         data.Currency,
		Plan:             plan.ID(meta.Plan),
	}

	nextPayment := data.NextPaymentDate
	if data.Subscription != nil {
		if evt.SubscriptionCode == "" {
			evt.SubscriptionCode = data.Subscription.SubscriptionCode
		}
		if nextPayment == "" {
			nextPayment = data.Subscription.NextPaymentDate
		}
	}

	if data.Amount != "" {
		amount, err := data.Amount.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: amount %q", payment.ErrMalformedEvent, data.Amount)
		}
		evt.AmountMinor = amount
	}

	evt.PeriodEnd, err = p.periodEnd(evt.Type, nextPayment, data.PaidAt)
	if err != nil {
		return nil, err
	}

	evt.ID = eventID(payload.Event, data, evt)
	return evt, nil
}

// periodEnd prefers the provider's next payment date; a successful charge
// without one is assumed to cover a single billing period from paid_at.
func (p *WebhookParser) periodEnd(t payment.EventType, nextPayment, paidAt string) (*time.Time, error) {
	if nextPayment != "" {
		at, err := parseTimestamp(nextPayment)
		if err != nil {
			return nil, err
		}
		return &at, nil
	}
	if t != payment.EventChargeSuccess || paidAt == "" || p.billingPeriodDays <= 0 {
		return nil, nil
	}
	paid, err := parseTimestamp(paidAt)
	if err != nil {
		return nil, err
	}
	end := paid.AddDate(0, 0, p.billingPeriodDays)
	return &end, nil
}

func eventID(eventType string, data webhookData, evt *payment.Event) string {
	key := data.ID.String()
	if key == "" {
		key = data.Reference
	}
	if key == "" {
		key = evt.SubscriptionCode + "@" + strconv.FormatInt(evt.OccurredAt.UnixMicro(), 10)
	}
	return eventType + ":" + key
}

// decodeMetadata accepts metadata as an object or as a JSON-encoded string,
// both of which Paystack delivers depending on how the checkout was created.
func decodeMetadata(raw json.RawMessage) (webhookMetadata, error) {
	var meta webhookMetadata
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" || trimmed == `""` {
		return meta, nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return meta, fmt.Errorf("%w: metadata: %v", payment.ErrMalformedEvent, err)
		}
		raw = json.RawMessage(encoded)
	}

	if err := json.Unmarshal(raw, &meta); err != nil {
		return meta, fmt.Errorf("%w: metadata: %v", payment.ErrMalformedEvent, err)
	}
	return meta, nil
}

func firstTimestamp(values ...string) (time.Time, error) {
	for _, v := range values {
		if v == "" {
			continue
		}
		return parseTimestamp(v)
	}
	return time.Time{}, fmt.Errorf("%w: event has no timestamp", payment.ErrMalformedEvent)
}

func parseTimestamp(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC().Truncate(time.Microsecond), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", payment.ErrMalformedEvent, v)
}
