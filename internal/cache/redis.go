package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Keys live under this namespace so the cache can share a database with
// admin sessions.
const redisNamespace = "catalogo:cache:"

const (
	redisDialTimeout = 5 * time.Second
	// Export images can be a few megabytes.
	redisReadTimeout = 10 * time.Second
)

// RedisProvider shares the storefront snapshot and decoded export images
// across server instances and catalogctl runs.
type RedisProvider struct {
	rdb *redis.Client
}

func NewRedisProvider(url string) (*RedisProvider, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis connection string: %w", err)
	}
	opts.DialTimeout = redisDialTimeout
	opts.ReadTimeout = redisReadTimeout

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisProvider{rdb: rdb}, nil
}

func (p *RedisProvider) Get(ctx context.Context, key string) (string, error) {
	val, err := p.rdb.Get(ctx, redisNamespace+key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", ErrNotFound
	case err != nil:
		return "", fmt.Errorf("failed to read cached %s: %w", key, err)
	}
	return val, nil
}

// Set stores value. A non-positive ttl keeps it until deleted.
func (p *RedisProvider) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	err := p.rdb.Set(ctx, redisNamespace+key, value, max(ttl, 0)).Err()
	if err != nil {
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}
	return nil
}

// Delete is a no-op for missing keys.
func (p *RedisProvider) Delete(ctx context.Context, key string) error {
	if err := p.rdb.Del(ctx, redisNamespace+key).Err(); err != nil {
		return fmt.Errorf("failed to evict %s: %w", key, err)
	}
	return nil
}

func (p *RedisProvider) Close() error {
	return p.rdb.Close()
}
