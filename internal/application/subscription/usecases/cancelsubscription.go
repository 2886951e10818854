package usecases

import (
	"context"
	"time"

	"github.com/orris-inc/tenantbilling/internal/application/subscription/dto"
	"github.com/orris-inc/tenantbilling/internal/domain/audit"
	"github.com/orris-inc/tenantbilling/internal/domain/payment"
	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
	apperrors "github.com/orris-inc/tenantbilling/internal/shared/errors"
)

type CancelSubscriptionCommand struct {
	TenantID string
	Reason   string
	Actor    string
}

// CancelSubscriptionUseCase cancels locally first, then asks the provider to
// stop recurring charges. Provider failures are recorded for manual
// reconciliation and never undo the local cancellation.
type CancelSubscriptionUseCase struct {
	*mutator
	gateway         payment.Gateway
	providerTimeout time.Duration
	audit           audit.Sink
}

func NewCancelSubscriptionUseCase(
	deps MutatorDeps,
	gateway payment.Gateway,
	providerTimeout time.Duration,
	auditSink audit.Sink,
) *CancelSubscriptionUseCase {
	return &CancelSubscriptionUseCase{
		mutator:         newMutator(deps),
		gateway:         gateway,
		providerTimeout: providerTimeout,
		audit:           auditSink,
	}
}

func (uc *CancelSubscriptionUseCase) Execute(ctx context.Context, cmd CancelSubscriptionCommand) (*dto.CancelDTO, error) {
	sub, _, err := uc.applyWithRetry(ctx, cmd.TenantID, "cancel", func(s *subscription.Subscription, now time.Time) (bool, error) {
		return true, s.Cancel(cmd.Reason, now)
	})
	if err != nil {
		return nil, ToAppError(err)
	}

	recordAudit(ctx, uc.audit, audit.Entry{
		TenantID:   cmd.TenantID,
		Action:     audit.ActionCancelled,
		Actor:      cmd.Actor,
		Details:    map[string]any{"plan": string(sub.Plan()), "reason": cmd.Reason},
		OccurredAt: sub.UpdatedAt(),
	})

	result := &dto.CancelDTO{Subscription: dto.ToSubscriptionDTO(sub)}
	if !sub.RequiresProviderCancel() {
		return result, nil
	}

	result.ProviderCancelled = uc.cancelAtProvider(ctx, sub, cmd.Actor)
	return result, nil
}

func (uc *CancelSubscriptionUseCase) cancelAtProvider(ctx context.Context, sub *subscription.Subscription, actor string) bool {
	if uc.gateway == nil {
		uc.logger.Warnw("no payment gateway configured, provider subscription left running",
			"tenant_id", sub.TenantID(),
			"reconcile", "manual",
		)
		return false
	}

	callCtx := ctx
	if uc.providerTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, uc.providerTimeout)
		defer cancel()
	}

	err := uc.gateway.Cancel(callCtx, sub.ProviderSubscriptionCode(), sub.CustomerEmail())
	if err == nil {
		return true
	}

	appErr := apperrors.NewExternalServiceError("failed to cancel provider subscription").WithCause(err)
	uc.logger.Warnw("provider cancellation failed",
		"tenant_id", sub.TenantID(),
		"subscription_code", sub.ProviderSubscriptionCode(),
		"reconcile", "manual",
		"error", appErr,
	)
	recordAudit(ctx, uc.audit, audit.Entry{
		TenantID: sub.TenantID(),
		Action:   audit.ActionProviderCancelFailed,
		Actor:    actor,
		Details: map[string]any{
			"subscription_code": sub.ProviderSubscriptionCode(),
			"error":             err.Error(),
		},
		OccurredAt: uc.clock.Now(),
	})
	return false
}
