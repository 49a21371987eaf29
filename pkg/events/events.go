// Package events publishes notifications about catalog changes.
package events

import (
	"context"
	"time"
)

// Action describes what happened to an entity.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Entity kinds carried in ChangeEvent.Entity.
const (
	EntityMovie = "movie"
	EntityGenre = "genre"
)

// ChangeEvent is emitted after a catalog mutation has been committed to the store.
type ChangeEvent struct {
	Entity     string    `json:"entity"`
	Action     Action    `json:"action"`
	ID         string    `json:"id"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers change events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, evt ChangeEvent) error
	// Stop flushes pending events and releases resources.
	Stop()
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, ChangeEvent) error { return nil }

// Stop does nothing.
func (NopPublisher) Stop() {}
