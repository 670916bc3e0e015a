package kafka

import (
	"time"

	"github.com/tair/stockroom/internal/inventory/domain"
)

// ItemChangedEvent is the wire form of an inventory change
type ItemChangedEvent struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	Kind      domain.ChangeKind `json:"kind"`
	ItemID    string            `json:"item_id"`
	Name      string            `json:"name"`
	Stock     int               `json:"stock"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Timestamp time.Time         `json:"timestamp"`
}

// Event types
const (
	EventTypeItemChanged = "item.changed"
)

// Kafka topics
const (
	TopicItemChanges = "inventory-item-changes"
)

// NewItemChangedEvent converts a change for publishing
func NewItemChangedEvent(change domain.ChangeEvent) ItemChangedEvent {
	return ItemChangedEvent{
		EventID:   change.ID,
		EventType: EventTypeItemChanged,
		Kind:      change.Kind,
		ItemID:    change.Item.ID,
		Name:      change.Item.Name,
		Stock:     change.Item.Stock,
		CreatedAt: change.Item.CreatedAt,
		UpdatedAt: change.Item.UpdatedAt,
		Timestamp: change.OccurredAt,
	}
}

// Change converts the event back into a domain change
func (e ItemChangedEvent) Change() domain.ChangeEvent {
	return domain.ChangeEvent{
		ID:   e.EventID,
		Kind: e.Kind,
		Item: domain.Item{
			ID:        e.ItemID,
			Name:      e.Name,
			Stock:     e.Stock,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		},
		OccurredAt: e.Timestamp,
	}
}
