package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/shared/constants"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

// PlanPriceCache caches the owner-set price overrides shared by every
// instance. A hit with zero overrides is distinct from a miss.
type PlanPriceCache interface {
	Get(ctx context.Context) (overrides []*plan.PriceOverride, hit bool, err error)
	Set(ctx context.Context, overrides []*plan.PriceOverride) error
	Invalidate(ctx context.Context) error
}

const (
	basePriceTTL    = 30 * time.Minute
	priceTTLJitter  = 10 * time.Minute // TTL range: 30-40 min (anti-stampede)
	fieldEmptyPrice = "_empty"
)

type cachedPrice struct {
	Price     string `json:"price"`
	UpdatedBy string `json:"updated_by,omitempty"`
	UpdatedAt int64  `json:"updated_at"`
}

// RedisPlanPriceCache stores overrides as one redis hash, field per plan.
type RedisPlanPriceCache struct {
	client *redis.Client
	logger logger.Interface
	key    string
}

func NewRedisPlanPriceCache(client *redis.Client, logger logger.Interface) *RedisPlanPriceCache {
	return &RedisPlanPriceCache{
		client: client,
		logger: logger,
		key:    constants.RedisKeyResolvedPrices,
	}
}

func (c *RedisPlanPriceCache) Get(ctx context.Context) ([]*plan.PriceOverride, bool, error) {
	result, err := c.client.HGetAll(ctx, c.key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get plan prices from cache: %w", err)
	}
	if len(result) == 0 {
		return nil, false, nil
	}

	overrides := make([]*plan.PriceOverride, 0, len(result))
	for field, raw := range result {
		if field == fieldEmptyPrice {
			continue
		}

		var cp cachedPrice
		if err := json.Unmarshal([]byte(raw), &cp); err != nil {
			c.logger.Warnw("dropping unreadable plan price cache", "plan_id", field, "error", err)
			return nil, false, c.Invalidate(ctx)
		}
		price, err := decimal.NewFromString(cp.Price)
		if err != nil {
			c.logger.Warnw("dropping unreadable plan price cache", "plan_id", field, "error", err)
			return nil, false, c.Invalidate(ctx)
		}

		overrides = append(overrides, &plan.PriceOverride{
			PlanID:    plan.ID(field),
			Price:     price,
			UpdatedBy: cp.UpdatedBy,
			UpdatedAt: time.Unix(cp.UpdatedAt, 0).UTC(),
		})
	}

	return overrides, true, nil
}

func (c *RedisPlanPriceCache) Set(ctx context.Context, overrides []*plan.PriceOverride) error {
	fields := map[string]interface{}{fieldEmptyPrice: "1"}
	for _, o := range overrides {
		data, err := json.Marshal(cachedPrice{
			Price:     o.Price.String(),
			UpdatedBy: o.UpdatedBy,
			UpdatedAt: o.UpdatedAt.Unix(),
		})
		if err != nil {
			return fmt.Errorf("failed to marshal plan price: %w", err)
		}
		fields[string(o.PlanID)] = data
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, c.key)
	pipe.HSet(ctx, c.key, fields)
	pipe.Expire(ctx, c.key, priceTTLWithJitter())

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set plan prices in cache: %w", err)
	}

	c.logger.Debugw("plan prices cached", "overrides", len(overrides))
	return nil
}

func (c *RedisPlanPriceCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate plan price cache: %w", err)
	}
	c.logger.Debugw("plan price cache invalidated")
	return nil
}

// priceTTLWithJitter returns a randomized TTL to prevent cache stampede.
func priceTTLWithJitter() time.Duration {
	jitter := time.Duration(rand.Int64N(int64(priceTTLJitter)))
	return basePriceTTL + jitter
}
