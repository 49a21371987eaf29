package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/illmade-knight/go-catalog/pkg/api"
	"github.com/illmade-knight/go-catalog/pkg/cache"
	"github.com/illmade-knight/go-catalog/pkg/catalog"
	"github.com/illmade-knight/go-catalog/pkg/config"
	"github.com/illmade-knight/go-catalog/pkg/entitystore"
	"github.com/illmade-knight/go-catalog/pkg/events"
	"github.com/illmade-knight/go-catalog/pkg/images"
	"github.com/illmade-knight/go-catalog/pkg/microservice"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(logger zerolog.Logger) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the catalog HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			level, err := zerolog.ParseLevel(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
			}
			return serve(cmd.Context(), cfg, logger.Level(level))
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := buildServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := server.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received.")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// teardown releases what buildServer has opened, newest first.
type teardown []func()

func (t *teardown) add(step func()) {
	*t = append(*t, step)
}

func (t *teardown) closer(c io.Closer) {
	t.add(func() { _ = c.Close() })
}

func (t teardown) run() {
	for i := len(t) - 1; i >= 0; i-- {
		t[i]()
	}
}

// buildServer connects the configured backends and assembles the server. On
// failure everything opened so far is released.
func buildServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (_ *microservice.CatalogServer, err error) {
	var closers []io.Closer
	var cleanup teardown
	defer func() {
		if err != nil {
			cleanup.run()
		}
	}()

	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var fsClient *firestore.Client
	if cfg.NeedsFirestore() {
		fsClient, err = firestore.NewClient(ctx, cfg.ProjectID, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		closers = append(closers, fsClient)
		cleanup.closer(fsClient)
	}

	var store catalog.EntityStore
	switch cfg.EntityStore.Backend {
	case config.BackendFirestore:
		store, err = entitystore.NewFirestoreStore(&cfg.EntityStore.Firestore, fsClient, logger)
		if err != nil {
			return nil, err
		}
	default:
		store = entitystore.NewInMemoryStore()
	}

	var cacheStore cache.Store
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		cacheStore, err = cache.NewRedisStore(ctx, &cfg.Cache.Redis, logger)
	case config.BackendFirestore:
		cacheStore, err = cache.NewFirestoreStore(&cfg.Cache.Firestore, fsClient, logger)
	default:
		if cfg.Cache.MaxEntries > 0 {
			cacheStore, err = cache.NewLRUStore(cfg.Cache.MaxEntries)
		} else {
			cacheStore = cache.NewInMemoryStore()
		}
	}
	if err != nil {
		return nil, err
	}
	// Closed before the firestore client it may depend on.
	closers = append([]io.Closer{cacheStore}, closers...)
	cleanup.closer(cacheStore)

	metrics := catalog.NewMetrics("catalog")
	accessor, err := catalog.NewAccessor(cacheStore, cfg.Cache.TTL, metrics, logger)
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		psClient, err := pubsub.NewClient(ctx, cfg.ProjectID, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create pubsub client: %w", err)
		}
		closers = append(closers, psClient)
		cleanup.closer(psClient)
		p, err := events.NewPubsubPublisher(ctx, &cfg.Events.Pubsub, psClient, logger)
		if err != nil {
			return nil, err
		}
		publisher = p
		// Flushes the topic before the client above is closed.
		cleanup.add(p.Stop)
	}

	var uploader catalog.ImageUploader
	if cfg.Images.Enabled {
		gcsClient, err := storage.NewClient(ctx, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		closers = append(closers, gcsClient)
		cleanup.closer(gcsClient)
		u, err := images.NewGCSUploader(images.NewGCSClientAdapter(gcsClient), cfg.Images.GCS, logger)
		if err != nil {
			return nil, err
		}
		uploader = u
	}

	svc, err := catalog.NewService(cfg.Service, store, accessor, publisher, uploader, logger)
	if err != nil {
		return nil, err
	}
	handler := api.NewHandler(svc, cfg.RateLimit, logger)

	logger.Info().
		Str("entity_store", cfg.EntityStore.Backend).
		Str("cache", cfg.Cache.Backend).
		Dur("cache_ttl", cfg.Cache.TTL).
		Bool("events", cfg.Events.Enabled).
		Bool("images", cfg.Images.Enabled).
		Msg("Catalog configured.")

	return microservice.NewCatalogServer(microservice.CatalogServerConfig{
		HTTPPort: cfg.HTTPPort,
		API:      handler.Routes(),
		Metrics:  metrics.Handler(),
		Checks: []microservice.ReadinessCheck{
			{Name: "cache", Pinger: cacheStore},
			{Name: "entity_store", Pinger: store},
		},
		Publisher: publisher,
		Closers:   closers,
	}, logger), nil
}
