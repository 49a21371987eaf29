package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig holds the configuration for the Redis client.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RedisStore is a Store backed by Redis. Values are written with SET ... EX so
// expiry is enforced by the server.
type RedisStore struct {
	redisClient *redis.Client
	logger      zerolog.Logger
}

// NewRedisStore creates and connects a new RedisStore.
// It pings the Redis server to ensure connectivity before returning.
func NewRedisStore(ctx context.Context, cfg *RedisConfig, logger zerolog.Logger) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info().Str("redis_address", cfg.Addr).Msg("Successfully connected to Redis.")

	return &RedisStore{
		redisClient: rdb,
		logger:      logger.With().Str("component", "RedisStore").Logger(),
	}, nil
}

// Get retrieves the raw value for key. A redis.Nil reply becomes ErrCacheMiss.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("redis get failed for key %s: %w", key, err)
	}
	s.logger.Debug().Str("key", key).Msg("Redis cache hit.")
	return value, nil
}

// SetWithExpiry stores value under key with the given ttl.
func (s *RedisStore) SetWithExpiry(ctx context.Context, key string, ttl time.Duration, value string) error {
	if err := s.redisClient.SetEx(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis setex failed for key %s: %w", key, err)
	}
	s.logger.Debug().Str("key", key).Dur("ttl", ttl).Msg("Stored value in Redis cache.")
	return nil
}

// Delete removes key from Redis.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del failed for key %s: %w", key, err)
	}
	return nil
}

// Ping round-trips a PING to the server.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis client connection.
func (s *RedisStore) Close() error {
	if s.redisClient != nil {
		s.logger.Info().Msg("Closing Redis client connection...")
		return s.redisClient.Close()
	}
	return nil
}
