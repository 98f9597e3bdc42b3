package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tahlil/metrics"
)

// RedisCache stores analyzed documents in Redis so repeated texts skip the
// pipeline across instances.
type RedisCache struct {
	client *redis.Client
	logger *zap.SugaredLogger
}

// NewRedisCache creates a Redis cache instance.
func NewRedisCache(addr, password string, db, poolSize int, logger *zap.SugaredLogger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})
	return &RedisCache{client: client, logger: logger}
}

// Ping tests the Redis connection.
func (rc *RedisCache) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// maxCachedDocSize guards Redis memory against pathological inputs.
const maxCachedDocSize = 10 * 1024 * 1024

// SetDoc stores an analyzed document under key with expiration.
func (rc *RedisCache) SetDoc(ctx context.Context, key string, doc *Doc, expiration time.Duration) error {
	data, err := json.Marshal(doc)
	if err != nil {
		rc.logger.Errorw("Failed to marshal cached doc", "key", key, "error", err)
		metrics.CacheErrors.WithLabelValues("redis", "marshal").Inc()
		return err
	}
	if len(data) > maxCachedDocSize {
		metrics.CacheErrors.WithLabelValues("redis", "size_limit").Inc()
		return fmt.Errorf("cached doc size %d bytes exceeds limit %d", len(data), maxCachedDocSize)
	}
	if err := rc.client.Set(ctx, key, data, expiration).Err(); err != nil {
		metrics.CacheErrors.WithLabelValues("redis", "set").Inc()
		return err
	}
	return nil
}

// GetDoc retrieves an analyzed document. The second return value reports
// whether the key was present.
func (rc *RedisCache) GetDoc(ctx context.Context, key string) (*Doc, bool, error) {
	data, err := rc.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		metrics.CacheErrors.WithLabelValues("redis", "get").Inc()
		return nil, false, err
	}

	var doc Doc
	if err := json.Unmarshal(data, &doc); err != nil {
		metrics.CacheErrors.WithLabelValues("redis", "unmarshal").Inc()
		return nil, false, err
	}
	return &doc, true, nil
}
