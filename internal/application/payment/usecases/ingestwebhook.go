package usecases

import (
	"context"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"

	subusecases "github.com/orris-inc/tenantbilling/internal/application/subscription/usecases"
	"github.com/orris-inc/tenantbilling/internal/domain/audit"
	"github.com/orris-inc/tenantbilling/internal/domain/payment"
	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
	"github.com/orris-inc/tenantbilling/internal/shared/biztime"
	apperrors "github.com/orris-inc/tenantbilling/internal/shared/errors"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

const defaultRecentEvents = 2048

// WebhookOutcome describes what happened to a verified delivery.
type WebhookOutcome string

const (
	WebhookApplied    WebhookOutcome = "applied"
	WebhookDiscarded  WebhookOutcome = "discarded"
	WebhookDuplicate  WebhookOutcome = "duplicate"
	WebhookIgnored    WebhookOutcome = "ignored"
	WebhookUnroutable WebhookOutcome = "unroutable"
)

type IngestWebhookCommand struct {
	Body      []byte
	Signature string
}

type IngestWebhookResult struct {
	EventID   string         `json:"event_id,omitempty"`
	EventType string         `json:"event_type,omitempty"`
	TenantID  string         `json:"tenant_id,omitempty"`
	Outcome   WebhookOutcome `json:"outcome"`
}

// PaymentEventRecorder applies a routed event to the tenant's subscription.
type PaymentEventRecorder interface {
	Execute(ctx context.Context, cmd subusecases.RecordPaymentEventCommand) (*subusecases.RecordPaymentEventResult, error)
}

// IngestWebhookUseCase verifies a provider delivery, routes it to a tenant
// and records it. Anything that verifies is acknowledged so the provider
// stops redelivering; only signature and decoding failures are rejected.
type IngestWebhookUseCase struct {
	parser   payment.WebhookParser
	index    subscription.ProviderIndex
	recorder PaymentEventRecorder
	recent   *lru.Cache[string, struct{}]
	audit    audit.Sink
	clock    biztime.Clock
	logger   logger.Interface
}

func NewIngestWebhookUseCase(
	parser payment.WebhookParser,
	index subscription.ProviderIndex,
	recorder PaymentEventRecorder,
	auditSink audit.Sink,
	clock biztime.Clock,
	logger logger.Interface,
) *IngestWebhookUseCase {
	recent, _ := lru.New[string, struct{}](defaultRecentEvents)
	if clock == nil {
		clock = biztime.SystemClock{}
	}
	return &IngestWebhookUseCase{
		parser:   parser,
		index:    index,
		recorder: recorder,
		recent:   recent,
		audit:    auditSink,
		clock:    clock,
		logger:   logger,
	}
}

func (uc *IngestWebhookUseCase) Execute(ctx context.Context, cmd IngestWebhookCommand) (*IngestWebhookResult, error) {
	evt, err := uc.parser.Parse(cmd.Body, cmd.Signature)
	if err != nil {
		return nil, uc.reject(ctx, err, len(cmd.Body))
	}

	result := &IngestWebhookResult{EventID: evt.ID, EventType: string(evt.Type)}

	if !evt.Type.Affects() {
		uc.logger.Debugw("webhook event ignored", "event_id", evt.ID, "event_type", evt.Type)
		result.Outcome = WebhookIgnored
		return result, nil
	}

	if evt.ID != "" && uc.recent.Contains(evt.ID) {
		uc.logger.Infow("duplicate webhook delivery", "event_id", evt.ID, "event_type", evt.Type)
		result.Outcome = WebhookDuplicate
		return result, nil
	}

	tenantID, err := uc.route(ctx, evt)
	if err != nil {
		return nil, err
	}
	if tenantID == "" {
		uc.logger.Warnw("webhook event has no tenant",
			"event_id", evt.ID,
			"event_type", evt.Type,
			"subscription_code", evt.SubscriptionCode,
			"reference", evt.Reference,
		)
		result.Outcome = WebhookUnroutable
		return result, nil
	}
	result.TenantID = tenantID

	recorded, err := uc.recorder.Execute(ctx, subusecases.RecordPaymentEventCommand{TenantID: tenantID, Event: *evt})
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			uc.logger.Warnw("webhook event for unknown tenant", "event_id", evt.ID, "tenant_id", tenantID)
			result.Outcome = WebhookUnroutable
			return result, nil
		}
		return nil, err
	}

	if evt.ID != "" {
		uc.recent.Add(evt.ID, struct{}{})
	}
	if recorded.Applied {
		result.Outcome = WebhookApplied
	} else {
		result.Outcome = WebhookDiscarded
	}
	return result, nil
}

func (uc *IngestWebhookUseCase) route(ctx context.Context, evt *payment.Event) (string, error) {
	if evt.TenantID != "" {
		return evt.TenantID, nil
	}
	if evt.SubscriptionCode == "" || uc.index == nil {
		return "", nil
	}

	tenantID, err := uc.index.FindTenantIDByProviderCode(ctx, evt.SubscriptionCode)
	if err != nil {
		if errors.Is(err, subscription.ErrSubscriptionNotFound) {
			return "", nil
		}
		return "", apperrors.NewInternalError("failed to route webhook event").WithCause(err)
	}
	return tenantID, nil
}

func (uc *IngestWebhookUseCase) reject(ctx context.Context, err error, size int) error {
	uc.logger.Warnw("webhook rejected", "error", err, "body_bytes", size)

	if uc.audit != nil {
		_ = uc.audit.Record(ctx, audit.Entry{
			Action:     audit.ActionWebhookRejected,
			Actor:      "paystack",
			Details:    map[string]any{"reason": err.Error(), "body_bytes": size},
			OccurredAt: uc.clock.Now(),
		})
	}

	if errors.Is(err, payment.ErrInvalidSignature) {
		return apperrors.NewUnauthorizedError("invalid webhook signature").WithCause(err)
	}
	return apperrors.NewValidationError("malformed webhook payload").WithCause(err)
}
