// Package cache provides the key-value stores that sit in front of the catalog's
// entity store. Every implementation stores opaque strings under string keys with
// an absolute expiry.
package cache

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrCacheMiss is returned by Store.Get when the key is absent or has expired.
var ErrCacheMiss = errors.New("cache miss")

// Store is the contract for a cache backend with per-key expiration.
type Store interface {
	// Get returns the value stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) (string, error)
	// SetWithExpiry stores value under key. The entry expires ttl after the write.
	SetWithExpiry(ctx context.Context, key string, ttl time.Duration, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	io.Closer
}
