package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/tenantbilling/internal/domain/audit"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/cache"
	"github.com/orris-inc/tenantbilling/internal/shared/biztime"
	apperrors "github.com/orris-inc/tenantbilling/internal/shared/errors"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

type memoryPriceRepo struct {
	mu        sync.Mutex
	overrides map[plan.ID]*plan.PriceOverride
	lists     int
	err       error
}

func newMemoryPriceRepo() *memoryPriceRepo {
	return &memoryPriceRepo{overrides: make(map[plan.ID]*plan.PriceOverride)}
}

func (r *memoryPriceRepo) List(context.Context) ([]*plan.PriceOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*plan.PriceOverride, 0, len(r.overrides))
	for _, o := range r.overrides {
		out = append(out, o)
	}
	return out, nil
}

func (r *memoryPriceRepo) Upsert(_ context.Context, o *plan.PriceOverride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[o.PlanID] = o
	return nil
}

func (r *memoryPriceRepo) Delete(_ context.Context, id plan.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overrides, id)
	return nil
}

type recordingSink struct {
	entries []audit.Entry
}

func (s *recordingSink) Record(_ context.Context, e audit.Entry) error {
	s.entries = append(s.entries, e)
	return nil
}

func newPriceCache(t *testing.T) *cache.RedisPlanPriceCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisPlanPriceCache(client, logger.NewNop())
}

func TestListPlans_CatalogDefaults(t *testing.T) {
	repo := newMemoryPriceRepo()
	uc := NewListPlansUseCase(plan.Default(), repo, nil, "NGN", logger.NewNop())

	plans, err := uc.Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 3)

	assert.Equal(t, "starter", plans[0].ID)
	assert.Equal(t, "0.00", plans[0].MonthlyPrice)
	assert.Equal(t, "unlimited", plans[2].MaxStaff)
	assert.Equal(t, "NGN", plans[1].Currency)
	assert.False(t, plans[1].PriceOverride)
}

func TestPlanPrice_SetReadsThroughCache(t *testing.T) {
	repo := newMemoryPriceRepo()
	priceCache := newPriceCache(t)
	sink := &recordingSink{}
	catalog := plan.Default()
	clock := biztime.FixedClock{T: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}

	list := NewListPlansUseCase(catalog, repo, priceCache, "NGN", logger.NewNop())
	prices := NewPlanPriceUseCase(catalog, repo, priceCache, sink, nil, clock, logger.NewNop())

	_, err := list.Execute(context.Background())
	require.NoError(t, err)
	_, err = list.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lists, "second read served from cache")

	require.NoError(t, prices.Set(context.Background(), SetPlanPriceCommand{
		PlanID: plan.Professional,
		Price:  decimal.RequireFromString("14999.50"),
		Actor:  "owner_1",
	}))

	price, err := list.ResolvePrice(context.Background(), plan.Professional)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("14999.50").Equal(price))
	assert.Equal(t, 2, repo.lists, "write invalidated the cache")

	// The catalog is never mutated by an override.
	p, err := catalog.Lookup(plan.Professional)
	require.NoError(t, err)
	assert.False(t, p.MonthlyPrice().Equal(price))

	require.Len(t, sink.entries, 1)
	assert.Equal(t, audit.ActionPriceChanged, sink.entries[0].Action)
	assert.Equal(t, "owner_1", sink.entries[0].Actor)

	require.NoError(t, prices.Clear(context.Background(), ClearPlanPriceCommand{PlanID: plan.Professional, Actor: "owner_1"}))
	price, err = list.ResolvePrice(context.Background(), plan.Professional)
	require.NoError(t, err)
	assert.True(t, p.MonthlyPrice().Equal(price))
}

func TestPlanPrice_Validation(t *testing.T) {
	prices := NewPlanPriceUseCase(plan.Default(), newMemoryPriceRepo(), nil, nil, nil, biztime.SystemClock{}, logger.NewNop())

	err := prices.Set(context.Background(), SetPlanPriceCommand{PlanID: "gold", Price: decimal.NewFromInt(10)})
	assert.True(t, apperrors.IsValidationError(err))

	err = prices.Set(context.Background(), SetPlanPriceCommand{PlanID: plan.Starter, Price: decimal.NewFromInt(-1)})
	assert.True(t, apperrors.IsValidationError(err))

	err = prices.Clear(context.Background(), ClearPlanPriceCommand{PlanID: "gold"})
	assert.True(t, apperrors.IsValidationError(err))
}

func TestListPlans_RepositoryFailure(t *testing.T) {
	repo := newMemoryPriceRepo()
	repo.err = errors.New("db down")
	uc := NewListPlansUseCase(plan.Default(), repo, nil, "NGN", logger.NewNop())

	_, err := uc.Execute(context.Background())
	assert.True(t, apperrors.IsInternalError(err))

	_, err = uc.ResolvePrice(context.Background(), "gold")
	assert.Error(t, err)
}
