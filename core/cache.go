package core

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"tahlil/metrics"
)

// ResultCache is a two-tier cache for analyzed documents: an in-process LRU
// in front of an optional shared Redis tier. Keys are TextHash values, so
// raw input text never leaves the process.
type ResultCache struct {
	local  *lru.Cache[string, *Doc]
	redis  *RedisCache // nil when the Redis tier is disabled
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// NewResultCache creates a cache with the given local capacity. redis may
// be nil.
func NewResultCache(lruSize int, redis *RedisCache, ttl time.Duration, logger *zap.SugaredLogger) (*ResultCache, error) {
	if lruSize < 1 {
		lruSize = 1
	}
	local, err := lru.New[string, *Doc](lruSize)
	if err != nil {
		return nil, err
	}
	return &ResultCache{local: local, redis: redis, ttl: ttl, logger: logger}, nil
}

// Get looks a document up, local tier first. Redis errors degrade to a
// miss; the pipeline can always recompute.
func (c *ResultCache) Get(ctx context.Context, key string) (*Doc, bool) {
	if doc, ok := c.local.Get(key); ok {
		metrics.CacheHits.WithLabelValues("local").Inc()
		return doc, true
	}

	if c.redis != nil {
		doc, ok, err := c.redis.GetDoc(ctx, key)
		if err != nil {
			c.logger.Warnw("Redis cache read failed", "error", err)
		} else if ok {
			metrics.CacheHits.WithLabelValues("redis").Inc()
			c.local.Add(key, doc)
			return doc, true
		}
	}

	metrics.CacheMisses.Inc()
	return nil, false
}

// Put stores a document in both tiers.
func (c *ResultCache) Put(ctx context.Context, key string, doc *Doc) {
	c.local.Add(key, doc)
	if c.redis != nil {
		if err := c.redis.SetDoc(ctx, key, doc, c.ttl); err != nil {
			c.logger.Warnw("Redis cache write failed", "error", err)
		}
	}
}

// Close releases the Redis connection if one is configured.
func (c *ResultCache) Close() {
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.logger.Errorw("Failed to close Redis cache", "error", err)
		}
	}
}
