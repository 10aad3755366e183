package cache

// Package cache stores catalog snapshots and fetched export images.

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("key not found")

// Provider is a string-valued cache with per-entry TTL. Values may hold
// binary data.
type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Provider              string
	RedisConnectionString string
	MemoryEntries         int
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "memory", "":
		return NewMemoryProvider(cfg.MemoryEntries)
	case "redis":
		return NewRedisProvider(cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

// StorefrontKey holds the published catalog snapshot.
func StorefrontKey() string {
	return "storefront:catalog"
}

// ImageKey holds a decoded export image for url.
func ImageKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "image:" + hex.EncodeToString(sum[:])
}

// GetJSON decodes the cached value under key into dst.
func GetJSON(ctx context.Context, p Provider, key string, dst any) error {
	raw, err := p.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return nil
}

// SetJSON stores value under key as JSON.
func SetJSON(ctx context.Context, p Provider, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s for cache: %w", key, err)
	}
	return p.Set(ctx, key, string(raw), ttl)
}
