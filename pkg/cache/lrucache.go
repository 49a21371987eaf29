package cache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"
)

// lruItem is the internal structure stored in the linked list.
type lruItem struct {
	key       string
	value     string
	expiresAt time.Time
}

// LRUStore is a thread-safe, in-memory Store holding at most maxEntries keys.
// When full, the least recently used key is evicted to make room. Entries
// also expire after their TTL like any other Store.
type LRUStore struct {
	maxEntries int
	now        func() time.Time

	mu    sync.Mutex
	ll    *list.List               // Front is most recently used.
	items map[string]*list.Element // Fast key lookups.
}

// NewLRUStore creates a size-limited in-memory store. maxEntries must be > 0.
func NewLRUStore(maxEntries int, opts ...InMemoryOption) (*LRUStore, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("maxEntries must be greater than 0")
	}
	// Options are shared with InMemoryStore; only the clock applies here.
	base := NewInMemoryStore(opts...)
	return &LRUStore{
		maxEntries: maxEntries,
		now:        base.now,
		ll:         list.New(),
		items:      make(map[string]*list.Element),
	}, nil
}

// Get returns the value for key and marks it as recently used. Expired
// entries are removed and reported as misses.
func (s *LRUStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	elem, ok := s.items[key]
	if !ok {
		return "", ErrCacheMiss
	}
	item := elem.Value.(*lruItem)
	if !s.now().Before(item.expiresAt) {
		s.remove(elem)
		return "", ErrCacheMiss
	}
	s.ll.MoveToFront(elem)
	return item.value, nil
}

// SetWithExpiry stores value for key, evicting the least recently used entry
// if the store is over capacity.
func (s *LRUStore) SetWithExpiry(_ context.Context, key string, ttl time.Duration, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt := s.now().Add(ttl)
	if elem, ok := s.items[key]; ok {
		item := elem.Value.(*lruItem)
		item.value = value
		item.expiresAt = expiresAt
		s.ll.MoveToFront(elem)
		return nil
	}
	s.items[key] = s.ll.PushFront(&lruItem{key: key, value: value, expiresAt: expiresAt})
	if s.ll.Len() > s.maxEntries {
		s.remove(s.ll.Back())
	}
	return nil
}

// Delete removes key.
func (s *LRUStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if elem, ok := s.items[key]; ok {
		s.remove(elem)
	}
	return nil
}

// Len reports the number of entries held, expired or not.
func (s *LRUStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ll.Len()
}

// remove must be called with the mutex held.
func (s *LRUStore) remove(elem *list.Element) {
	item := s.ll.Remove(elem).(*lruItem)
	delete(s.items, item.key)
}

// Ping always succeeds.
func (s *LRUStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *LRUStore) Close() error {
	return nil
}
