package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis is a Redis-backed TTL cache storing values as JSON. It lets
// multiple BFF instances share one catalog snapshot. Redis errors
// degrade to cache misses so a broken Redis never takes the service
// down with it.
type Redis[T any] struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewRedis creates a Redis cache at addr with the given TTL. Keys are
// namespaced by prefix.
func NewRedis[T any](addr, prefix string, ttl time.Duration, logger *zap.Logger) *Redis[T] {
	return &Redis[T]{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
		prefix: prefix,
		logger: logger,
	}
}

// Get retrieves and unmarshals a value. Returns false on miss, expiry,
// connection error or malformed payload.
func (c *Redis[T]) Get(key string) (T, bool) {
	var zero T

	raw, err := c.client.Get(context.Background(), c.prefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("redis cache: get failed", zap.String("key", key), zap.Error(err))
		}
		return zero, false
	}

	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		c.logger.Warn("redis cache: corrupt entry dropped", zap.String("key", key), zap.Error(err))
		c.Delete(key)
		return zero, false
	}
	return value, true
}

// Set marshals and stores a value with the configured TTL.
func (c *Redis[T]) Set(key string, value T) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("redis cache: marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(context.Background(), c.prefix+key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("redis cache: set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes a value.
func (c *Redis[T]) Delete(key string) {
	if err := c.client.Del(context.Background(), c.prefix+key).Err(); err != nil {
		c.logger.Warn("redis cache: delete failed", zap.String("key", key), zap.Error(err))
	}
}
