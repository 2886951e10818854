package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/pubsub"
	"github.com/orris-inc/tenantbilling/internal/shared/biztime"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

// mutateFunc changes sub in memory. Returning false means nothing changed
// and no write is needed.
type mutateFunc func(sub *subscription.Subscription, now time.Time) (changed bool, err error)

// mutator runs read-modify-write cycles against the store. The only
// serialization is the updatedAt compare-and-set in Store.Update.
type mutator struct {
	store     subscription.Store
	notifier  ChangeNotifier
	snapshots SnapshotInvalidator
	clock     biztime.Clock
	logger    logger.Interface
}

// MutatorDeps wires the collaborators shared by every writing use case.
// Notifier and Snapshots are optional.
type MutatorDeps struct {
	Store     subscription.Store
	Notifier  ChangeNotifier
	Snapshots SnapshotInvalidator
	Clock     biztime.Clock
	Logger    logger.Interface
}

func newMutator(deps MutatorDeps) *mutator {
	clock := deps.Clock
	if clock == nil {
		clock = biztime.SystemClock{}
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &mutator{
		store:     deps.Store,
		notifier:  deps.Notifier,
		snapshots: deps.Snapshots,
		clock:     clock,
		logger:    log,
	}
}

// apply performs one guarded read-modify-write. A lost race surfaces as
// subscription.ErrConcurrentModification.
func (m *mutator) apply(ctx context.Context, tenantID, change string, fn mutateFunc) (*subscription.Subscription, bool, error) {
	sub, err := m.store.Get(ctx, tenantID)
	if err != nil {
		return nil, false, err
	}

	token := sub.UpdatedAt()
	now := m.clock.Now()

	changed, err := fn(sub, now)
	if err != nil {
		return sub, false, err
	}
	if !changed {
		return sub, false, nil
	}

	if err := m.store.Update(ctx, sub, &token); err != nil {
		return nil, false, err
	}

	m.logger.Infow("subscription transition applied",
		"tenant_id", tenantID,
		"transition", change,
		"plan", sub.Plan(),
		"status", sub.Status(),
	)
	m.announce(ctx, sub, change)
	return sub, true, nil
}

// applyWithRetry re-reads and re-validates once when the first write loses
// the optimistic check.
func (m *mutator) applyWithRetry(ctx context.Context, tenantID, change string, fn mutateFunc) (*subscription.Subscription, bool, error) {
	sub, changed, err := m.apply(ctx, tenantID, change, fn)
	if errors.Is(err, subscription.ErrConcurrentModification) {
		m.logger.Debugw("retrying subscription change after conflict", "tenant_id", tenantID, "transition", change)
		return m.apply(ctx, tenantID, change, fn)
	}
	return sub, changed, err
}

// announce invalidates local snapshots and publishes the change. Failures
// are logged only; the store already holds the new state.
func (m *mutator) announce(ctx context.Context, sub *subscription.Subscription, change string) {
	if m.snapshots != nil {
		m.snapshots.Remove(sub.TenantID())
	}
	if m.notifier == nil {
		return
	}

	event := pubsub.SubscriptionChangeEvent{
		TenantID:  sub.TenantID(),
		Plan:      string(sub.Plan()),
		Status:    string(sub.Status()),
		Change:    change,
		Timestamp: sub.UpdatedAt().UnixMilli(),
	}
	if err := m.notifier.PublishChange(ctx, event); err != nil {
		m.logger.Warnw("failed to publish subscription change",
			"tenant_id", sub.TenantID(),
			"transition", change,
			"error", err,
		)
	}
}
