// Package cache stores JSON-encoded read models with a TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache is the JSON key/value contract used by read paths.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisCache is a Cache backed by go-redis.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache wraps client. Keys are namespaced as "<prefix>:<key>".
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: strings.TrimSuffix(prefix, ":"), ttl: ttl}
}

func (c *RedisCache) key(k string) string {
	return c.prefix + ":" + k
}

func (c *RedisCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) SetJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), b, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.client.Del(ctx, full...).Err()
}

// Ping checks connectivity for readiness probes.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// NoopCache never hits. Used when Redis is not configured.
type NoopCache struct{}

func (NoopCache) GetJSON(context.Context, string, any) (bool, error) { return false, nil }
func (NoopCache) SetJSON(context.Context, string, any) error         { return nil }
func (NoopCache) Delete(context.Context, ...string) error            { return nil }

// NewRedisClient connects to addr and pings it. It returns nil when the
// server is unreachable so callers can fall back to NoopCache.
func NewRedisClient(addr, password string, db int, log *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, room cache disabled", zap.String("addr", addr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}
