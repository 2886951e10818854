package usecases

import (
	"context"
	"strings"

	"github.com/orris-inc/tenantbilling/internal/application/subscription/dto"
	"github.com/orris-inc/tenantbilling/internal/domain/entitlement"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
	"github.com/orris-inc/tenantbilling/internal/shared/biztime"
	apperrors "github.com/orris-inc/tenantbilling/internal/shared/errors"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

// CheckEntitlementUseCase answers feature and staff questions. Reads go
// through the snapshot cache when one is configured; writers invalidate it.
type CheckEntitlementUseCase struct {
	store     subscription.Store
	snapshots SnapshotCache
	evaluator *entitlement.Evaluator
	clock     biztime.Clock
	logger    logger.Interface
}

func NewCheckEntitlementUseCase(
	store subscription.Store,
	snapshots SnapshotCache,
	evaluator *entitlement.Evaluator,
	clock biztime.Clock,
	logger logger.Interface,
) *CheckEntitlementUseCase {
	return &CheckEntitlementUseCase{
		store:     store,
		snapshots: snapshots,
		evaluator: evaluator,
		clock:     clock,
		logger:    logger,
	}
}

type CheckFeatureQuery struct {
	TenantID    string
	Feature     plan.Feature
	DevOverride bool
}

type CheckStaffQuery struct {
	TenantID     string
	CurrentCount int
	DevOverride  bool
}

func (uc *CheckEntitlementUseCase) CheckFeature(ctx context.Context, query CheckFeatureQuery) (*dto.FeatureDecisionDTO, error) {
	feature := plan.Feature(strings.TrimSpace(string(query.Feature)))
	if feature == "" {
		return nil, apperrors.NewValidationError("feature is required")
	}

	sub, err := uc.load(ctx, query.TenantID)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	return &dto.FeatureDecisionDTO{
		Feature:       string(feature),
		Allowed:       uc.evaluator.FeatureAccessFor(sub, feature, query.DevOverride, now),
		EffectivePlan: string(uc.evaluator.EffectivePlan(sub, now)),
	}, nil
}

func (uc *CheckEntitlementUseCase) CheckStaff(ctx context.Context, query CheckStaffQuery) (*dto.StaffDecisionDTO, error) {
	if query.CurrentCount < 0 {
		return nil, apperrors.NewValidationError("current staff count cannot be negative")
	}

	sub, err := uc.load(ctx, query.TenantID)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	return &dto.StaffDecisionDTO{
		CurrentCount:  query.CurrentCount,
		Allowed:       uc.evaluator.StaffAccessFor(sub, query.CurrentCount, query.DevOverride, now),
		MaxStaff:      uc.evaluator.StaffLimitFor(sub, now).String(),
		EffectivePlan: string(uc.evaluator.EffectivePlan(sub, now)),
	}, nil
}

func (uc *CheckEntitlementUseCase) load(ctx context.Context, tenantID string) (*subscription.Subscription, error) {
	if uc.snapshots != nil {
		if sub, ok := uc.snapshots.Get(tenantID); ok {
			return sub, nil
		}
	}

	sub, err := uc.store.Get(ctx, tenantID)
	if err != nil {
		return nil, ToAppError(err)
	}
	if uc.snapshots != nil {
		uc.snapshots.Add(sub)
	}
	return sub, nil
}
