package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache holds projected aggregates between reads. Implementations are
// best-effort: a miss or an unreachable backend falls through to Postgres.
type Cache interface {
	GetAggregate(ctx context.Context, ownerID, taskID int) (*Aggregate, bool)
	SetAggregate(ctx context.Context, ownerID int, agg *Aggregate)
	Invalidate(ctx context.Context, ownerID, taskID int)
}

const cacheTTL = 5 * time.Minute

type redisCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisCache(rdb *redis.Client, logger *zap.Logger) Cache {
	return &redisCache{rdb: rdb, logger: logger}
}

func cacheKey(ownerID, taskID int) string {
	return fmt.Sprintf("task:%d:%d", ownerID, taskID)
}

func (c *redisCache) GetAggregate(ctx context.Context, ownerID, taskID int) (*Aggregate, bool) {
	data, err := c.rdb.Get(ctx, cacheKey(ownerID, taskID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Task cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var agg Aggregate
	if err := json.Unmarshal(data, &agg); err != nil {
		c.logger.Warn("Task cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return &agg, true
}

func (c *redisCache) SetAggregate(ctx context.Context, ownerID int, agg *Aggregate) {
	data, err := json.Marshal(agg)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(ownerID, agg.ID), data, cacheTTL).Err(); err != nil {
		c.logger.Warn("Task cache write failed", zap.Error(err))
	}
}

func (c *redisCache) Invalidate(ctx context.Context, ownerID, taskID int) {
	if err := c.rdb.Del(ctx, cacheKey(ownerID, taskID)).Err(); err != nil {
		c.logger.Warn("Task cache invalidation failed", zap.Error(err))
	}
}
