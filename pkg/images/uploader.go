// Package images stores movie poster images and returns the reference that is
// recorded on the movie.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// GCSUploaderConfig holds configuration for the GCS image uploader.
type GCSUploaderConfig struct {
	BucketName   string `yaml:"bucket_name"`
	ObjectPrefix string `yaml:"object_prefix"`
}

// GCSUploader writes images to a GCS bucket, one object per upload.
type GCSUploader struct {
	client GCSClient
	config GCSUploaderConfig
	logger zerolog.Logger
}

// NewGCSUploader creates an uploader for the configured bucket.
func NewGCSUploader(client GCSClient, config GCSUploaderConfig, logger zerolog.Logger) (*GCSUploader, error) {
	if client == nil {
		return nil, errors.New("GCS client cannot be nil")
	}
	if config.BucketName == "" {
		return nil, errors.New("GCS bucket name is required")
	}
	return &GCSUploader{
		client: client,
		config: config,
		logger: logger.With().Str("component", "GCSImageUploader").Logger(),
	}, nil
}

// Upload streams r into a new object under the movie's prefix and returns its
// gs:// reference. Objects are never overwritten, so a cached movie that still
// points at a previous image keeps resolving.
func (u *GCSUploader) Upload(ctx context.Context, movieID, contentType string, r io.Reader) (string, error) {
	objectName := path.Join(u.config.ObjectPrefix, "movies", movieID, uuid.NewString())
	w := u.client.Bucket(u.config.BucketName).Object(objectName).NewWriter(ctx, contentType)

	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write image %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize image %s: %w", objectName, err)
	}

	ref := fmt.Sprintf("gs://%s/%s", u.config.BucketName, objectName)
	u.logger.Info().Str("movie_id", movieID).Str("object", objectName).Int64("bytes", n).Msg("Uploaded movie image.")
	return ref, nil
}
