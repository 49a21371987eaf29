package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// InMemoryStore is a thread-safe, in-memory Store.
// It is primarily intended for local development and testing.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	now  func() time.Time
}

// InMemoryOption configures an InMemoryStore.
type InMemoryOption func(*InMemoryStore)

// WithClock replaces the time source used to evaluate expiry.
func WithClock(now func() time.Time) InMemoryOption {
	return func(s *InMemoryStore) {
		s.now = now
	}
}

// NewInMemoryStore creates a new in-memory cache store.
func NewInMemoryStore(opts ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value for key. Expired entries are reported as misses and
// left in place until overwritten or deleted.
func (s *InMemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.data[key]
	if !ok || !s.now().Before(entry.expiresAt) {
		return "", ErrCacheMiss
	}
	return entry.value, nil
}

// SetWithExpiry stores value for key.
func (s *InMemoryStore) SetWithExpiry(_ context.Context, key string, ttl time.Duration, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = memoryEntry{value: value, expiresAt: s.now().Add(ttl)}
	return nil
}

// Delete removes key.
func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Ping always succeeds.
func (s *InMemoryStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op for the in-memory implementation.
func (s *InMemoryStore) Close() error {
	return nil
}
