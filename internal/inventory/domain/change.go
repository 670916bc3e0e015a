package domain

import (
	"context"
	"time"
)

// ChangeKind describes what happened to an item in the remote store
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// Valid reports whether k is one of the known change kinds
func (k ChangeKind) Valid() bool {
	switch k {
	case ChangeAdded, ChangeModified, ChangeRemoved:
		return true
	}
	return false
}

// ChangeEvent is a single incremental notification from the change feed.
// For removals only Item.ID is meaningful.
type ChangeEvent struct {
	ID         string     `json:"event_id"`
	Kind       ChangeKind `json:"kind"`
	Item       Item       `json:"item"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// ChangePublisher announces store writes on the change feed
type ChangePublisher interface {
	PublishChange(ctx context.Context, event ChangeEvent) error
}

// ChangePublisherFunc adapts a function to ChangePublisher
type ChangePublisherFunc func(ctx context.Context, event ChangeEvent) error

// PublishChange calls f(ctx, event)
func (f ChangePublisherFunc) PublishChange(ctx context.Context, event ChangeEvent) error {
	return f(ctx, event)
}

// Subscription is a live, ordered stream of change events with a single
// consumer. Close must be called when the consumer goes away; it is safe to
// call more than once.
type Subscription interface {
	Events() <-chan ChangeEvent
	// Err returns why the event channel was closed, or nil after a plain Close.
	Err() error
	Close() error
}

// Subscriber opens new subscriptions on the change feed
type Subscriber interface {
	Subscribe() (Subscription, error)
}
