package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMemoryEntries = 2_000

type MemoryProvider struct {
	cache *lru.Cache[string, item]
	now   func() time.Time
}

type item struct {
	value     string
	expiresAt time.Time
}

// NewMemoryProvider builds an LRU bounded to entries items; zero or less
// selects the default size.
func NewMemoryProvider(entries int) (*MemoryProvider, error) {
	if entries <= 0 {
		entries = defaultMemoryEntries
	}
	c, err := lru.New[string, item](entries)
	if err != nil {
		return nil, err
	}
	return &MemoryProvider{cache: c, now: time.Now}, nil
}

func (m *MemoryProvider) Get(_ context.Context, key string) (string, error) {
	cached, exists := m.cache.Get(key)
	if !exists {
		return "", ErrNotFound
	}

	if !cached.expiresAt.IsZero() && m.now().After(cached.expiresAt) {
		m.cache.Remove(key)
		return "", ErrNotFound
	}

	return cached.value, nil
}

// Set stores value; a non-positive ttl keeps it until evicted.
func (m *MemoryProvider) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	entry := item{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.cache.Add(key, entry)
	return nil
}

func (m *MemoryProvider) Delete(_ context.Context, key string) error {
	m.cache.Remove(key)
	return nil
}

func (m *MemoryProvider) Close() error {
	return nil
}
