// Package testutil provides collaborators for testing the subscription
// application layer against a real sqlite-backed store.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orris-inc/tenantbilling/internal/domain/audit"
	"github.com/orris-inc/tenantbilling/internal/domain/payment"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/database"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/migration"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/pubsub"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/repository"
	"github.com/orris-inc/tenantbilling/internal/shared/config"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

// NewSQLiteStore returns a subscription repository on a migrated in-memory database.
func NewSQLiteStore(t *testing.T) *repository.SubscriptionRepositoryImpl {
	t.Helper()

	db, err := database.Open(&config.DatabaseConfig{Driver: database.DriverSQLite})
	require.NoError(t, err)
	require.NoError(t, migration.NewGooseStrategy("sqlite3", migration.DefaultScriptsPath).Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return repository.NewSubscriptionRepository(db, logger.NewNop())
}

// SeedSubscription stores a trialing subscription created at now.
func SeedSubscription(t *testing.T, store subscription.Store, tenantID string, planID plan.ID, trial time.Duration, now time.Time) *subscription.Subscription {
	t.Helper()

	sub, err := subscription.NewSubscription("sub_"+tenantID, tenantID, planID, trial, now)
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), sub))
	return sub
}

// Save writes sub unconditionally.
func Save(t *testing.T, store subscription.Store, sub *subscription.Subscription) {
	t.Helper()
	require.NoError(t, store.Update(context.Background(), sub, nil))
}

// MockGateway records provider calls. CancelFunc and InitializeFunc
// override the default success behaviour.
type MockGateway struct {
	mu             sync.Mutex
	CancelFunc     func(ctx context.Context, code, email string) error
	InitializeFunc func(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error)
	CancelCalls    []string
	Checkouts      []payment.CheckoutRequest
}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (m *MockGateway) Cancel(ctx context.Context, code, email string) error {
	m.mu.Lock()
	m.CancelCalls = append(m.CancelCalls, code)
	fn := m.CancelFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, code, email)
	}
	return nil
}

func (m *MockGateway) Initialize(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	m.mu.Lock()
	m.Checkouts = append(m.Checkouts, req)
	fn := m.InitializeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &payment.CheckoutSession{
		AuthorizationURL: "https://checkout.test/" + req.Reference,
		AccessCode:       "access_" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

// MockNotifier records published change events.
type MockNotifier struct {
	mu     sync.Mutex
	Events []pubsub.SubscriptionChangeEvent
	Err    error
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) PublishChange(_ context.Context, event pubsub.SubscriptionChangeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return m.Err
}

func (m *MockNotifier) Changes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Change
	}
	return out
}

// MockAuditSink records audit entries.
type MockAuditSink struct {
	mu      sync.Mutex
	Entries []audit.Entry
}

func NewMockAuditSink() *MockAuditSink {
	return &MockAuditSink{}
}

func (m *MockAuditSink) Record(_ context.Context, entry audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
	return nil
}

func (m *MockAuditSink) Actions() []audit.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]audit.Action, len(m.Entries))
	for i, e := range m.Entries {
		out[i] = e.Action
	}
	return out
}

// ConflictingStore fails the first n guarded updates with
// ErrConcurrentModification, simulating a concurrent writer.
type ConflictingStore struct {
	subscription.Store
	mu        sync.Mutex
	remaining int
	Updates   int
}

func NewConflictingStore(inner subscription.Store, conflicts int) *ConflictingStore {
	return &ConflictingStore{Store: inner, remaining: conflicts}
}

func (s *ConflictingStore) Update(ctx context.Context, sub *subscription.Subscription, expected *time.Time) error {
	s.mu.Lock()
	s.Updates++
	if expected != nil && s.remaining > 0 {
		s.remaining--
		s.mu.Unlock()
		return subscription.ErrConcurrentModification
	}
	s.mu.Unlock()
	return s.Store.Update(ctx, sub, expected)
}

// MutableClock is a settable clock for tests that move time forward.
type MutableClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewMutableClock(t time.Time) *MutableClock {
	return &MutableClock{t: t.UTC()}
}

func (c *MutableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *MutableClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t.UTC()
}

func (c *MutableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
