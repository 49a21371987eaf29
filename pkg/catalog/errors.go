package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrRelationFanout marks a failure to append a movie to its genres after
	// the movie itself was written. The movie write is not rolled back.
	ErrRelationFanout = errors.New("genre back-reference update failed")
	// ErrImagesDisabled is returned by SetMovieImage when no image store is configured.
	ErrImagesDisabled = errors.New("image storage is not configured")
)

// ValidationError carries a message per offending field, keyed by JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
