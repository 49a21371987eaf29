package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
)

// PubsubPublisherConfig holds configuration for the Google Pub/Sub publisher.
type PubsubPublisherConfig struct {
	TopicID                    string        `yaml:"topic_id"`
	TopicExistsTimeout         time.Duration `yaml:"topic_exists_timeout"`
	PublishConfirmationTimeout time.Duration `yaml:"publish_confirmation_timeout"`
}

// NewPubsubPublisherDefaults provides a config with sensible defaults, overridable
// through the environment.
func NewPubsubPublisherDefaults() *PubsubPublisherConfig {
	cfg := &PubsubPublisherConfig{
		TopicID:                    "catalog-changes",
		TopicExistsTimeout:         15 * time.Second,
		PublishConfirmationTimeout: 20 * time.Second,
	}
	if topic := os.Getenv("CATALOG_EVENTS_TOPIC_ID"); topic != "" {
		cfg.TopicID = topic
	}
	if ct := os.Getenv("CATALOG_EVENTS_CONFIRM_TIMEOUT"); ct != "" {
		if val, err := time.ParseDuration(ct); err == nil {
			cfg.PublishConfirmationTimeout = val
		}
	}
	return cfg
}

// PubsubPublisher publishes change events to a Pub/Sub topic. Publish returns as
// soon as the message is handed to the client; confirmation is awaited in the
// background and failures are logged.
type PubsubPublisher struct {
	topic                      *pubsub.Topic
	logger                     zerolog.Logger
	publishConfirmationTimeout time.Duration
	wg                         sync.WaitGroup
}

// NewPubsubPublisher creates a publisher after checking that the topic exists.
func NewPubsubPublisher(
	ctx context.Context,
	cfg *PubsubPublisherConfig,
	client *pubsub.Client,
	logger zerolog.Logger,
) (*PubsubPublisher, error) {
	if client == nil {
		return nil, fmt.Errorf("pubsub client cannot be nil for publisher")
	}

	topic := client.Topic(cfg.TopicID)
	existsCtx, cancel := context.WithTimeout(ctx, cfg.TopicExistsTimeout)
	defer cancel()
	exists, err := topic.Exists(existsCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for topic %s: %w", cfg.TopicID, err)
	}
	if !exists {
		return nil, fmt.Errorf("pubsub topic %s does not exist", cfg.TopicID)
	}

	logger.Info().Str("topic_id", cfg.TopicID).Msg("PubsubPublisher initialized successfully.")
	return &PubsubPublisher{
		topic:                      topic,
		logger:                     logger.With().Str("component", "PubsubPublisher").Str("topic_id", cfg.TopicID).Logger(),
		publishConfirmationTimeout: cfg.PublishConfirmationTimeout,
	}, nil
}

// Publish marshals evt and hands it to the Pub/Sub client.
func (p *PubsubPublisher) Publish(ctx context.Context, evt ChangeEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	res := p.topic.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"entity": evt.Entity,
			"action": string(evt.Action),
		},
	})
	p.wg.Add(1)
	go p.confirmPublish(res, evt)
	return nil
}

func (p *PubsubPublisher) confirmPublish(res *pubsub.PublishResult, evt ChangeEvent) {
	defer p.wg.Done()
	getCtx, cancel := context.WithTimeout(context.Background(), p.publishConfirmationTimeout)
	defer cancel()
	msgID, err := res.Get(getCtx)
	if err != nil {
		p.logger.Error().Err(err).Str("entity", evt.Entity).Str("id", evt.ID).Msg("Failed to publish change event.")
		return
	}
	p.logger.Debug().Str("msg_id", msgID).Str("entity", evt.Entity).Str("id", evt.ID).Msg("Published change event.")
}

// Stop waits for outstanding confirmations and flushes the topic.
func (p *PubsubPublisher) Stop() {
	p.wg.Wait()
	p.topic.Stop()
	p.logger.Info().Msg("PubsubPublisher stopped.")
}
