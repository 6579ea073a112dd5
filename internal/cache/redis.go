package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cybernauts/social-graph/internal/config"
)

// TTL applied to the cached graph projection. Mutations invalidate the key
// eagerly; the TTL only bounds staleness if an invalidation is lost.
const graphTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForGraph is the cache key for the projected graph document.
func (c *RedisCache) KeyForGraph() string {
	return "graph:projection"
}

// GetGraph returns the cached graph JSON, or "" on a cache miss.
func (c *RedisCache) GetGraph(ctx context.Context) (string, error) {
	val, err := c.Client.Get(ctx, c.KeyForGraph()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil // cache miss
	} else if err != nil {
		return "", err
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, c.KeyForGraph(), graphTTL).Err()
	return val, nil
}

// SetGraph stores the projected graph JSON with a fresh TTL.
func (c *RedisCache) SetGraph(ctx context.Context, payload string) error {
	return c.Client.Set(ctx, c.KeyForGraph(), payload, graphTTL).Err()
}

// InvalidateGraph drops the cached projection. Called after every user or
// friendship mutation.
func (c *RedisCache) InvalidateGraph(ctx context.Context) error {
	return c.Client.Del(ctx, c.KeyForGraph()).Err()
}
