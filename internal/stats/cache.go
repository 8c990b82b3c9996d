package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const platformKey = "depot:stats:platform"

// ErrCacheMiss is returned by a cache when no fresh entry exists.
var ErrCacheMiss = errors.New("stats cache miss")

// RedisCache stores the platform figures in Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps client; entries expire after ttl.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Load returns the cached figures or ErrCacheMiss.
func (c *RedisCache) Load(ctx context.Context) (Platform, error) {
	raw, err := c.client.Get(ctx, platformKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Platform{}, ErrCacheMiss
		}
		return Platform{}, fmt.Errorf("get cached stats: %w", err)
	}

	var p Platform
	if err := json.Unmarshal(raw, &p); err != nil {
		return Platform{}, fmt.Errorf("decode cached stats: %w", err)
	}
	return p, nil
}

// Store caches p.
func (c *RedisCache) Store(ctx context.Context, p Platform) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := c.client.Set(ctx, platformKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached stats: %w", err)
	}
	return nil
}

// Invalidate drops the cached figures.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, platformKey).Err(); err != nil {
		return fmt.Errorf("delete cached stats: %w", err)
	}
	return nil
}
