package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"catalogscout/internal/model"
)

const DefaultCacheTTL = 24 * time.Hour

// Cache keeps model-derived fields between runs. Failures are treated as
// misses; the cache never blocks enrichment.
type Cache interface {
	Get(ctx context.Context, key string) (model.EnrichedFields, bool)
	Set(ctx context.Context, key string, fields model.EnrichedFields)
}

type redisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type RedisCache struct {
	client redisCmdable
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(client redisCmdable, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string) (model.EnrichedFields, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("enrichment cache read failed", zap.String("key", key), zap.Error(err))
		}
		return model.EnrichedFields{}, false
	}
	var fields model.EnrichedFields
	if err := json.Unmarshal([]byte(val), &fields); err != nil {
		c.logger.Warn("enrichment cache entry unreadable", zap.String("key", key), zap.Error(err))
		return model.EnrichedFields{}, false
	}
	return fields, true
}

func (c *RedisCache) Set(ctx context.Context, key string, fields model.EnrichedFields) {
	b, err := json.Marshal(fields)
	if err != nil {
		c.logger.Warn("enrichment cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.logger.Warn("enrichment cache write failed", zap.String("key", key), zap.Error(err))
	}
}
