package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ALLOW FIRESTORE TO BE USED IN LOW VOLUME DEPLOYMENTS
// don't use it like this in high volume deployments - that's what redis is for.

// FirestoreConfig holds configuration for the Firestore backed cache.
type FirestoreConfig struct {
	CollectionName string `yaml:"collection_name"`
}

// firestoreEntry is the document shape for a cached value. ExpiresAt can also be
// used as the field of a Firestore TTL policy, but that deletion is lazy, so reads
// check it themselves.
type firestoreEntry struct {
	Value     string    `firestore:"value"`
	ExpiresAt time.Time `firestore:"expiresAt"`
}

// FirestoreStore is a Store that keeps one document per cache key.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	logger     zerolog.Logger
	now        func() time.Time
}

// NewFirestoreStore creates a new FirestoreStore.
func NewFirestoreStore(cfg *FirestoreConfig, client *firestore.Client, logger zerolog.Logger) (*FirestoreStore, error) {
	if client == nil {
		return nil, errors.New("firestore client cannot be nil")
	}
	if cfg.CollectionName == "" {
		return nil, errors.New("firestore cache collection name is required")
	}
	logger.Info().Str("collection", cfg.CollectionName).Msg("FirestoreStore cache initialized.")
	return &FirestoreStore{
		client:     client,
		collection: cfg.CollectionName,
		logger:     logger.With().Str("component", "FirestoreCacheStore").Logger(),
		now:        time.Now,
	}, nil
}

// ErrInvalidKey is returned when a key cannot be used as a Firestore document id.
var ErrInvalidKey = errors.New("invalid cache key")

// docRef returns nil for keys that are not a single document id.
func (s *FirestoreStore) docRef(key string) *firestore.DocumentRef {
	if key == "" || strings.Contains(key, "/") {
		return nil
	}
	return s.client.Collection(s.collection).Doc(key)
}

// Get reads the document for key. Missing and expired documents are both
// misses, as is a key that cannot name a document.
func (s *FirestoreStore) Get(ctx context.Context, key string) (string, error) {
	ref := s.docRef(key)
	if ref == nil {
		return "", ErrCacheMiss
	}
	docSnap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("firestore get failed for key %s: %w", key, err)
	}
	var entry firestoreEntry
	if err := docSnap.DataTo(&entry); err != nil {
		return "", fmt.Errorf("failed to decode cache document for key %s: %w", key, err)
	}
	if !s.now().Before(entry.ExpiresAt) {
		s.logger.Debug().Str("key", key).Msg("Cache document expired.")
		return "", ErrCacheMiss
	}
	return entry.Value, nil
}

// SetWithExpiry creates or overwrites the document for key.
func (s *FirestoreStore) SetWithExpiry(ctx context.Context, key string, ttl time.Duration, value string) error {
	ref := s.docRef(key)
	if ref == nil {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	entry := firestoreEntry{Value: value, ExpiresAt: s.now().Add(ttl)}
	if _, err := ref.Set(ctx, entry); err != nil {
		return fmt.Errorf("firestore set failed for key %s: %w", key, err)
	}
	return nil
}

// Delete removes the document for key. A key that cannot name a document holds
// nothing, so deleting it is a no-op.
func (s *FirestoreStore) Delete(ctx context.Context, key string) error {
	ref := s.docRef(key)
	if ref == nil {
		return nil
	}
	_, err := ref.Delete(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return fmt.Errorf("firestore delete failed for key %s: %w", key, err)
	}
	return nil
}

// Ping reads at most one document from the cache collection.
func (s *FirestoreStore) Ping(ctx context.Context) error {
	iter := s.client.Collection(s.collection).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore cache ping failed: %w", err)
	}
	return nil
}

// Close is a no-op as the Firestore client's lifecycle is managed externally.
func (s *FirestoreStore) Close() error {
	return nil
}
