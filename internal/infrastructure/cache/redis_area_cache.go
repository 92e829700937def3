package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/velora/backend/internal/infrastructure/config"
)

// RedisAreaCache implements AreaCache using Redis, so the area directory
// survives restarts and is shared across instances
type RedisAreaCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	logger     *zap.Logger
}

// NewRedisAreaCache creates a Redis-backed area cache
func NewRedisAreaCache(cfg config.RedisConfig, logger *zap.Logger) (*RedisAreaCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisAreaCache{
		client:     client,
		ownsClient: true,
		logger:     logger,
	}, nil
}

// NewRedisAreaCacheWithClient creates a cache with an existing Redis client.
// Note: The caller retains ownership of the client and is responsible for closing it
func NewRedisAreaCacheWithClient(client *redis.Client, logger *zap.Logger) *RedisAreaCache {
	return &RedisAreaCache{
		client:     client,
		ownsClient: false,
		logger:     logger,
	}
}

var _ AreaCache = (*RedisAreaCache)(nil)

// Get returns the cached value when present
func (c *RedisAreaCache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("area cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return value, true
}

// Set stores the value with the given TTL. Write failures are logged and
// swallowed; the cache is an optimization, not a source of truth.
func (c *RedisAreaCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Warn("area cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Close releases the Redis client when owned by the cache
func (c *RedisAreaCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}
