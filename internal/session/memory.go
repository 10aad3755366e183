package session

import (
	"context"
	"sync"
	"time"
)

// sweepEvery bounds how often writes scan for expired sessions.
const sweepEvery = time.Minute

// MemoryStore keeps admin sessions in process. Sessions are lost on
// restart, which is acceptable for single-instance deployments.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	now       func() time.Time
	lastSweep time.Time
}

type memoryEntry struct {
	data      *Data
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return newMemoryStoreWithClock(time.Now)
}

func newMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: now}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Data, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return cloneData(entry.data), true
}

func (s *MemoryStore) Set(_ context.Context, key string, data *Data, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= sweepEvery {
		s.sweepLocked(now)
	}
	s.entries[key] = memoryEntry{data: cloneData(data), expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Len reports stored sessions, expired ones included until the next sweep.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
	s.lastSweep = now
}

func (s *MemoryStore) Close() error {
	return nil
}
