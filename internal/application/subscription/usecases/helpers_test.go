package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orris-inc/tenantbilling/internal/application/subscription/testutil"
	"github.com/orris-inc/tenantbilling/internal/domain/payment"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/repository"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

const trialLength = 14 * 24 * time.Hour

type testEnv struct {
	store    *repository.SubscriptionRepositoryImpl
	clock    *testutil.MutableClock
	notifier *testutil.MockNotifier
	audit    *testutil.MockAuditSink
	gateway  *testutil.MockGateway
	catalog  *plan.Catalog
}

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()
	return &testEnv{
		store:    testutil.NewSQLiteStore(t),
		clock:    testutil.NewMutableClock(now),
		notifier: testutil.NewMockNotifier(),
		audit:    testutil.NewMockAuditSink(),
		gateway:  testutil.NewMockGateway(),
		catalog:  plan.Default(),
	}
}

func (e *testEnv) deps() MutatorDeps {
	return MutatorDeps{
		Store:    e.store,
		Notifier: e.notifier,
		Clock:    e.clock,
		Logger:   logger.NewNop(),
	}
}

func (e *testEnv) get(t *testing.T, tenantID string) *subscription.Subscription {
	t.Helper()
	sub, err := e.store.Get(context.Background(), tenantID)
	require.NoError(t, err)
	return sub
}

// seedPaid stores a tenant that has paid for planID through periodEnd.
func (e *testEnv) seedPaid(t *testing.T, tenantID string, planID plan.ID, periodEnd time.Time) *subscription.Subscription {
	t.Helper()

	now := e.clock.Now()
	sub := testutil.SeedSubscription(t, e.store, tenantID, planID, trialLength, now)
	outcome := sub.RecordPaymentEvent(payment.Event{
		ID:               "charge.success:seed_" + tenantID,
		Type:             payment.EventChargeSuccess,
		OccurredAt:       now.Add(time.Second),
		SubscriptionCode: "SUB_" + tenantID,
		CustomerEmail:    tenantID + "@example.test",
		PeriodEnd:        &periodEnd,
	}, 2, now.Add(time.Second))
	require.Equal(t, subscription.PaymentApplied, outcome)
	testutil.Save(t, e.store, sub)
	return e.get(t, tenantID)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
