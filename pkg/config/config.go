// Package config loads the catalog service configuration from an optional YAML
// file followed by CATALOG_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/illmade-knight/go-catalog/pkg/api"
	"github.com/illmade-knight/go-catalog/pkg/cache"
	"github.com/illmade-knight/go-catalog/pkg/catalog"
	"github.com/illmade-knight/go-catalog/pkg/entitystore"
	"github.com/illmade-knight/go-catalog/pkg/events"
	"github.com/illmade-knight/go-catalog/pkg/images"
	"gopkg.in/yaml.v3"
)

// Backend names accepted by EntityStoreConfig.Backend and CacheConfig.Backend.
const (
	BackendFirestore = "firestore"
	BackendRedis     = "redis"
	BackendMemory    = "memory"
)

// Config is the complete service configuration.
type Config struct {
	LogLevel        string `yaml:"log_level"`
	HTTPPort        string `yaml:"http_port"`
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`

	EntityStore EntityStoreConfig     `yaml:"entity_store"`
	Cache       CacheConfig           `yaml:"cache"`
	Service     catalog.ServiceConfig `yaml:"service"`
	Events      EventsConfig          `yaml:"events"`
	Images      ImagesConfig          `yaml:"images"`
	RateLimit   api.RateLimitConfig   `yaml:"rate_limit"`
}

// EntityStoreConfig selects and configures the document store.
type EntityStoreConfig struct {
	Backend   string                      `yaml:"backend"`
	Firestore entitystore.FirestoreConfig `yaml:"firestore"`
}

// CacheConfig selects and configures the cache store.
type CacheConfig struct {
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
	// MaxEntries bounds the memory backend with LRU eviction. Zero means unbounded.
	MaxEntries int                   `yaml:"max_entries"`
	Redis      cache.RedisConfig     `yaml:"redis"`
	Firestore  cache.FirestoreConfig `yaml:"firestore"`
}

// EventsConfig enables change event publishing.
type EventsConfig struct {
	Enabled bool                         `yaml:"enabled"`
	Pubsub  events.PubsubPublisherConfig `yaml:"pubsub"`
}

// ImagesConfig enables movie image uploads.
type ImagesConfig struct {
	Enabled bool                     `yaml:"enabled"`
	GCS     images.GCSUploaderConfig `yaml:"gcs"`
}

// Defaults returns a configuration that runs entirely in memory.
func Defaults() *Config {
	return &Config{
		LogLevel: "info",
		HTTPPort: ":8080",
		EntityStore: EntityStoreConfig{
			Backend: BackendMemory,
			Firestore: entitystore.FirestoreConfig{
				MoviesCollection:  "movies",
				GenresCollection:  "genres",
				FanoutConcurrency: 8,
			},
		},
		Cache: CacheConfig{
			Backend:   BackendMemory,
			TTL:       catalog.DefaultTTL,
			Redis:     cache.RedisConfig{Addr: "localhost:6379"},
			Firestore: cache.FirestoreConfig{CollectionName: "catalog-cache"},
		},
		Events: EventsConfig{
			Pubsub: *events.NewPubsubPublisherDefaults(),
		},
		Images: ImagesConfig{
			GCS: images.GCSUploaderConfig{ObjectPrefix: "posters"},
		},
		RateLimit: api.RateLimitConfig{RPS: 50, Burst: 100},
	}
}

// Load builds a Config from the defaults, the YAML file at path (skipped when
// path is empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("CATALOG_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("CATALOG_HTTP_PORT"); v != "" {
		c.HTTPPort = v
	}
	if v := os.Getenv("CATALOG_PROJECT_ID"); v != "" {
		c.ProjectID = v
	}
	if v := os.Getenv("CATALOG_CREDENTIALS_FILE"); v != "" {
		c.CredentialsFile = v
	}
	if v := os.Getenv("CATALOG_ENTITY_STORE"); v != "" {
		c.EntityStore.Backend = v
	}
	if v := os.Getenv("CATALOG_CACHE"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("CATALOG_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CATALOG_CACHE_TTL %q: %w", v, err)
		}
		c.Cache.TTL = ttl
	}
	if v := os.Getenv("CATALOG_REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("CATALOG_REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
	if v := os.Getenv("CATALOG_INVALIDATE_GENRE_VIEWS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CATALOG_INVALIDATE_GENRE_VIEWS %q: %w", v, err)
		}
		c.Service.InvalidateGenreViewsOnMovieWrite = b
	}
	if v := os.Getenv("CATALOG_EVENTS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CATALOG_EVENTS_ENABLED %q: %w", v, err)
		}
		c.Events.Enabled = b
	}
	if v := os.Getenv("CATALOG_IMAGES_BUCKET"); v != "" {
		c.Images.Enabled = true
		c.Images.GCS.BucketName = v
	}
	return nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPPort == "" {
		errs = append(errs, errors.New("http_port is required"))
	}
	switch c.EntityStore.Backend {
	case BackendMemory:
	case BackendFirestore:
		if c.EntityStore.Firestore.MoviesCollection == "" || c.EntityStore.Firestore.GenresCollection == "" {
			errs = append(errs, errors.New("entity_store.firestore collections are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown entity_store.backend %q", c.EntityStore.Backend))
	}
	switch c.Cache.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, errors.New("cache.redis.addr is required"))
		}
	case BackendFirestore:
		if c.Cache.Firestore.CollectionName == "" {
			errs = append(errs, errors.New("cache.firestore.collection_name is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache.backend %q", c.Cache.Backend))
	}
	if c.Cache.MaxEntries < 0 {
		errs = append(errs, errors.New("cache.max_entries cannot be negative"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}
	if c.Events.Enabled && c.Events.Pubsub.TopicID == "" {
		errs = append(errs, errors.New("events.pubsub.topic_id is required when events are enabled"))
	}
	if c.Images.Enabled && c.Images.GCS.BucketName == "" {
		errs = append(errs, errors.New("images.gcs.bucket_name is required when images are enabled"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("rate_limit.rps and rate_limit.burst must be positive"))
	}
	if c.NeedsGoogleCloud() && c.ProjectID == "" {
		errs = append(errs, errors.New("project_id is required for Google Cloud backends"))
	}
	return errors.Join(errs...)
}

// NeedsGoogleCloud reports whether any configured backend talks to Google Cloud.
func (c *Config) NeedsGoogleCloud() bool {
	return c.NeedsFirestore() || c.Events.Enabled || c.Images.Enabled
}

// NeedsFirestore reports whether either store is backed by Firestore.
func (c *Config) NeedsFirestore() bool {
	return c.EntityStore.Backend == BackendFirestore || c.Cache.Backend == BackendFirestore
}
