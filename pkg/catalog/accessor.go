package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/illmade-knight/go-catalog/pkg/cache"
	"github.com/rs/zerolog"
)

// Accessor wraps reads and writes with the cache-aside protocol.
//
// No locks are held between the store call and the matching cache call. Two
// concurrent writers of overlapping keys can interleave so that the last cache
// write wins regardless of store order; the store stays correct and the TTL
// bounds how long such an entry survives.
type Accessor struct {
	cache   cache.Store
	ttl     time.Duration
	metrics *Metrics
	logger  zerolog.Logger
}

// NewAccessor creates an Accessor over the given cache store. A zero ttl means
// DefaultTTL; a nil metrics gets a private instance.
func NewAccessor(store cache.Store, ttl time.Duration, metrics *Metrics, logger zerolog.Logger) (*Accessor, error) {
	if store == nil {
		return nil, errors.New("cache store cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if metrics == nil {
		metrics = NewMetrics("catalog")
	}
	return &Accessor{
		cache:   store,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger.With().Str("component", "CacheAccessor").Logger(),
	}, nil
}

// Fetch returns the cached value for key, or calls load (which reads the entity
// store) and populates the cache.
//
// A cache error other than a miss, or a cached value that does not decode, is
// logged and treated as a miss so reads stay available while the cache is
// degraded. A loader ErrNotFound is returned as is and never cached. A failed
// populate is logged; the loaded value is still returned.
func Fetch[V any](ctx context.Context, a *Accessor, key string, load func(context.Context) (V, error)) (V, error) {
	var zero V

	raw, err := a.cache.Get(ctx, key)
	switch {
	case err == nil:
		var value V
		decodeErr := json.Unmarshal([]byte(raw), &value)
		if decodeErr == nil {
			a.metrics.lookups.WithLabelValues("hit").Inc()
			a.logger.Debug().Str("key", key).Msg("Cache hit.")
			return value, nil
		}
		a.metrics.lookups.WithLabelValues("error").Inc()
		a.logger.Warn().Err(decodeErr).Str("key", key).Msg("Cached value could not be decoded, reloading from store.")
	case errors.Is(err, cache.ErrCacheMiss):
		a.metrics.lookups.WithLabelValues("miss").Inc()
		a.logger.Debug().Str("key", key).Msg("Cache miss.")
	default:
		a.metrics.lookups.WithLabelValues("error").Inc()
		a.logger.Warn().Err(err).Str("key", key).Msg("Cache lookup failed, falling back to store.")
	}

	value, err := load(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			a.metrics.storeLoads.WithLabelValues("not_found").Inc()
			return zero, err
		}
		a.metrics.storeLoads.WithLabelValues("error").Inc()
		return zero, fmt.Errorf("load %s from store: %w", key, err)
	}
	a.metrics.storeLoads.WithLabelValues("ok").Inc()

	a.write(ctx, key, value)
	return value, nil
}

// Effect is a cache change applied after a successful store mutation.
type Effect struct {
	key     string
	refresh bool
	value   any
}

// Invalidate deletes key from the cache.
func Invalidate(key string) Effect {
	return Effect{key: key}
}

// Refresh overwrites key with value, restarting its TTL.
func Refresh(key string, value any) Effect {
	return Effect{key: key, refresh: true, value: value}
}

// InvalidateAll is a convenience for a list of Invalidate effects.
func InvalidateAll(keys ...string) []Effect {
	effects := make([]Effect, 0, len(keys))
	for _, k := range keys {
		effects = append(effects, Invalidate(k))
	}
	return effects
}

// Mutate runs the store mutation op and, only if it succeeds, applies the
// effects derived from its result. Effect failures are logged and counted but
// do not fail the call; the store write has already happened.
func Mutate[V any](ctx context.Context, a *Accessor, op func(context.Context) (V, error), effects func(V) []Effect) (V, error) {
	result, err := op(ctx)
	if err != nil {
		return result, err
	}
	if effects != nil {
		a.Apply(ctx, effects(result)...)
	}
	return result, nil
}

// Apply performs cache effects in order, logging any that fail.
func (a *Accessor) Apply(ctx context.Context, effects ...Effect) {
	for _, e := range effects {
		if e.refresh {
			a.write(ctx, e.key, e.value)
			continue
		}
		if err := a.cache.Delete(ctx, e.key); err != nil {
			a.metrics.invalidations.WithLabelValues("error").Inc()
			a.logger.Error().Err(err).Str("key", e.key).Msg("Failed to invalidate cache key; entry stays until its TTL expires.")
			continue
		}
		a.metrics.invalidations.WithLabelValues("ok").Inc()
		a.logger.Debug().Str("key", e.key).Msg("Invalidated cache key.")
	}
}

// InvalidateKeys deletes keys from the cache and reports every failure.
func (a *Accessor) InvalidateKeys(ctx context.Context, keys ...string) error {
	var errs []error
	for _, key := range keys {
		if err := a.cache.Delete(ctx, key); err != nil {
			a.metrics.invalidations.WithLabelValues("error").Inc()
			errs = append(errs, fmt.Errorf("invalidate %s: %w", key, err))
			continue
		}
		a.metrics.invalidations.WithLabelValues("ok").Inc()
	}
	return errors.Join(errs...)
}

func (a *Accessor) write(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		a.metrics.populates.WithLabelValues("error").Inc()
		a.logger.Error().Err(err).Str("key", key).Msg("Failed to marshal value for caching.")
		return
	}
	if err := a.cache.SetWithExpiry(ctx, key, a.ttl, string(data)); err != nil {
		a.metrics.populates.WithLabelValues("error").Inc()
		a.logger.Error().Err(err).Str("key", key).Msg("Failed to write value to cache.")
		return
	}
	a.metrics.populates.WithLabelValues("ok").Inc()
	a.logger.Debug().Str("key", key).Msg("Stored value in cache.")
}
