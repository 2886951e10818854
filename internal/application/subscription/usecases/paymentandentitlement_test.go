package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/tenantbilling/internal/application/subscription/testutil"
	"github.com/orris-inc/tenantbilling/internal/domain/entitlement"
	"github.com/orris-inc/tenantbilling/internal/domain/payment"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
	vo "github.com/orris-inc/tenantbilling/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/cache"
	apperrors "github.com/orris-inc/tenantbilling/internal/shared/errors"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

func TestRecordPaymentEvent_StaleIsDiscarded(t *testing.T) {
	env := newTestEnv(t, date(2025, 1, 1))
	env.seedPaid(t, "tenant_d", plan.Professional, date(2025, 2, 1))
	before := env.get(t, "tenant_d")

	uc := NewRecordPaymentEventUseCase(env.deps(), env.catalog, 2)
	laterEnd := date(2025, 6, 1)
	result, err := uc.Execute(context.Background(), RecordPaymentEventCommand{
		TenantID: "tenant_d",
		Event: payment.Event{
			ID:         "charge.success:old",
			Type:       payment.EventChargeSuccess,
			OccurredAt: date(2024, 12, 31),
			PeriodEnd:  &laterEnd,
		},
	})
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, subscription.PaymentStale, result.Outcome)

	after := env.get(t, "tenant_d")
	assert.Equal(t, before.Status(), after.Status())
	assert.Equal(t, before.CurrentPeriodEnd(), after.CurrentPeriodEnd())
	assert.Equal(t, before.UpdatedAt(), after.UpdatedAt())
	assert.Empty(t, env.notifier.Events)
}

func TestRecordPaymentEvent_EventOlderThanUserChangeIsDiscarded(t *testing.T) {
	env := newTestEnv(t, date(2025, 1, 1))
	env.seedPaid(t, "tenant_1", plan.Professional, date(2025, 2, 1))

	env.clock.Set(date(2025, 1, 20))
	_, err := NewChangePlanUseCase(env.deps(), env.catalog, nil).
		Execute(context.Background(), ChangePlanCommand{TenantID: "tenant_1", TargetPlan: plan.Enterprise})
	require.NoError(t, err)
	before := env.get(t, "tenant_1")

	uc := NewRecordPaymentEventUseCase(env.deps(), env.catalog, 2)
	laterEnd := date(2025, 3, 1)
	result, err := uc.Execute(context.Background(), RecordPaymentEventCommand{
		TenantID: "tenant_1",
		Event:    payment.Event{Type: payment.EventChargeSuccess, OccurredAt: date(2025, 1, 10), PeriodEnd: &laterEnd},
	})
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, subscription.PaymentStale, result.Outcome)

	after := env.get(t, "tenant_1")
	assert.Equal(t, before.CurrentPeriodEnd(), after.CurrentPeriodEnd())
	assert.Equal(t, before.UpdatedAt(), after.UpdatedAt())

	result, err = uc.Execute(context.Background(), RecordPaymentEventCommand{
		TenantID: "tenant_1",
		Event:    payment.Event{Type: payment.EventChargeSuccess, OccurredAt: date(2025, 1, 21), PeriodEnd: &laterEnd},
	})
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, laterEnd, *env.get(t, "tenant_1").CurrentPeriodEnd())
}

func TestRecordPaymentEvent_FailuresMakePastDueThenSuccessRecovers(t *testing.T) {
	env := newTestEnv(t, date(2025, 1, 1))
	env.seedPaid(t, "tenant_1", plan.Professional, date(2025, 2, 1))
	uc := NewRecordPaymentEventUseCase(env.deps(), env.catalog, 2)

	fail := func(at time.Time) {
		_, err := uc.Execute(context.Background(), RecordPaymentEventCommand{
			TenantID: "tenant_1",
			Event:    payment.Event{Type: payment.EventChargeFailed, OccurredAt: at},
		})
		require.NoError(t, err)
	}

	fail(date(2025, 2, 1))
	assert.Equal(t, vo.StatusActive, env.get(t, "tenant_1").Status())
	fail(date(2025, 2, 2))
	assert.Equal(t, vo.StatusPastDue, env.get(t, "tenant_1").Status())

	end := date(2025, 3, 3)
	result, err := uc.Execute(context.Background(), RecordPaymentEventCommand{
		TenantID: "tenant_1",
		Event:    payment.Event{Type: payment.EventChargeSuccess, OccurredAt: date(2025, 2, 3), PeriodEnd: &end},
	})
	require.NoError(t, err)
	assert.True(t, result.Applied)

	sub := env.get(t, "tenant_1")
	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.Equal(t, 0, sub.ConsecutiveChargeFailures())
	assert.Equal(t, end, *sub.CurrentPeriodEnd())
}

func TestRecordPaymentEvent_ChargeForHigherPlanUpgrades(t *testing.T) {
	env := newTestEnv(t, date(2025, 1, 1))
	testutil.SeedSubscription(t, env.store, "tenant_1", plan.Starter, trialLength, env.clock.Now())
	uc := NewRecordPaymentEventUseCase(env.deps(), env.catalog, 2)

	end := date(2025, 2, 1)
	result, err := uc.Execute(context.Background(), RecordPaymentEventCommand{
		TenantID: "tenant_1",
		Event: payment.Event{
			Type:             payment.EventChargeSuccess,
			OccurredAt:       date(2025, 1, 2),
			SubscriptionCode: "SUB_1",
			PeriodEnd:        &end,
			Plan:             plan.Professional,
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Upgraded)

	sub := env.get(t, "tenant_1")
	assert.Equal(t, plan.Professional, sub.Plan())
	assert.False(t, sub.IsTrialActive())
	assert.Equal(t, "SUB_1", sub.ProviderSubscriptionCode())
}

func TestRecordPaymentEvent_RequiresTenant(t *testing.T) {
	env := newTestEnv(t, date(2025, 1, 1))
	_, err := NewRecordPaymentEventUseCase(env.deps(), env.catalog, 2).
		Execute(context.Background(), RecordPaymentEventCommand{})
	assert.True(t, apperrors.IsValidationError(err))
}

func TestGetSubscriptionStatus(t *testing.T) {
	env := newTestEnv(t, date(2025, 1, 1))
	testutil.SeedSubscription(t, env.store, "trial", plan.Starter, trialLength, env.clock.Now())
	env.seedPaid(t, "paid", plan.Professional, date(2025, 2, 1))

	env.clock.Set(date(2025, 1, 5).Add(12 * time.Hour))
	uc := NewGetSubscriptionStatusUseCase(env.store, entitlement.NewEvaluator(env.catalog, true), env.clock, logger.NewNop())

	status, err := uc.Execute(context.Background(), GetSubscriptionStatusQuery{TenantID: "trial"})
	require.NoError(t, err)
	assert.True(t, status.IsActive)
	assert.False(t, status.NeedsUpgrade, "a starter tenant on trial is not nagged")
	assert.Equal(t, 10, status.TrialDaysRemaining)
	assert.Equal(t, "unlimited", status.MaxStaff)

	status, err = uc.Execute(context.Background(), GetSubscriptionStatusQuery{TenantID: "paid"})
	require.NoError(t, err)
	assert.False(t, status.NeedsUpgrade)
	assert.Equal(t, 0, status.TrialDaysRemaining)
	assert.Equal(t, "50", status.MaxStaff)

	_, err = uc.Execute(context.Background(), GetSubscriptionStatusQuery{TenantID: "nobody"})
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestCheckEntitlement_UsesSnapshotCache(t *testing.T) {
	env := newTestEnv(t, date(2025, 1, 1))
	env.seedPaid(t, "tenant_1", plan.Professional, date(2025, 2, 1))

	snapshots := cache.NewSubscriptionSnapshotCache(16, time.Minute)
	evaluator := entitlement.NewEvaluator(env.catalog, true)
	uc := NewCheckEntitlementUseCase(env.store, snapshots, evaluator, env.clock, logger.NewNop())

	decision, err := uc.CheckFeature(context.Background(), CheckFeatureQuery{TenantID: "tenant_1", Feature: plan.FeatureReports})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, snapshots.Len())

	decision, err = uc.CheckFeature(context.Background(), CheckFeatureQuery{TenantID: "tenant_1", Feature: plan.FeatureBiometric, DevOverride: true})
	require.NoError(t, err)
	assert.False(t, decision.Allowed, "production ignores the developer override")

	staff, err := uc.CheckStaff(context.Background(), CheckStaffQuery{TenantID: "tenant_1", CurrentCount: 50})
	require.NoError(t, err)
	assert.False(t, staff.Allowed)
	assert.Equal(t, "50", staff.MaxStaff)

	// A write through a use case drops the snapshot.
	deps := env.deps()
	deps.Snapshots = snapshots
	_, err = NewChangePlanUseCase(deps, env.catalog, nil).
		Execute(context.Background(), ChangePlanCommand{TenantID: "tenant_1", TargetPlan: plan.Enterprise})
	require.NoError(t, err)
	assert.Equal(t, 0, snapshots.Len())

	decision, err = uc.CheckFeature(context.Background(), CheckFeatureQuery{TenantID: "tenant_1", Feature: plan.FeatureBiometric})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	_, err = uc.CheckStaff(context.Background(), CheckStaffQuery{TenantID: "tenant_1", CurrentCount: -1})
	assert.True(t, apperrors.IsValidationError(err))
}

func TestCheckEntitlement_CancelledAfterPeriodFallsBackToStarter(t *testing.T) {
	env := newTestEnv(t, date(2025, 1, 1))
	env.seedPaid(t, "tenant_1", plan.Enterprise, date(2025, 1, 15))
	_, err := NewCancelSubscriptionUseCase(env.deps(), env.gateway, time.Second, nil).
		Execute(context.Background(), CancelSubscriptionCommand{TenantID: "tenant_1"})
	require.NoError(t, err)

	uc := NewCheckEntitlementUseCase(env.store, nil, entitlement.NewEvaluator(env.catalog, true), env.clock, logger.NewNop())

	env.clock.Set(date(2025, 1, 10))
	decision, err := uc.CheckFeature(context.Background(), CheckFeatureQuery{TenantID: "tenant_1", Feature: plan.FeatureAPIAccess})
	require.NoError(t, err)
	assert.True(t, decision.Allowed, "paid period still running")

	env.clock.Set(date(2025, 1, 16))
	decision, err = uc.CheckFeature(context.Background(), CheckFeatureQuery{TenantID: "tenant_1", Feature: plan.FeatureAPIAccess})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "starter", decision.EffectivePlan)
}
