package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Item is a stock record as held by the remote inventory store
type Item struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"not null;index"`
	Stock     int       `json:"stock" gorm:"not null;default:0;check:stock >= 0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Item) TableName() string {
	return "inventory_items"
}

// BeforeCreate assigns the item ID when the caller did not
func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// InventoryItem is the reconciled, session-local view of an item. PendingInput
// holds text the user has typed but not yet committed; it is never persisted
// or published.
type InventoryItem struct {
	Item
	PendingInput string `json:"pending_input"`
}

// ItemStore is the remote inventory store. Every successful write is expected
// to be announced on the change feed.
type ItemStore interface {
	FetchAll(ctx context.Context) ([]Item, error)
	Get(ctx context.Context, id string) (*Item, error)
	// FindByName matches exactly (case-sensitive); the oldest match wins.
	FindByName(ctx context.Context, name string) (*Item, error)
	Create(ctx context.Context, item *Item) error
	SetStock(ctx context.Context, id string, stock int) (*Item, error)
	// CompareAndSetStock writes stock only if the stored value still equals
	// expected. The boolean reports whether the write happened.
	CompareAndSetStock(ctx context.Context, id string, expected, stock int) (*Item, bool, error)
	// IncrementStock adds delta in a single atomic document update.
	IncrementStock(ctx context.Context, id string, delta int) (*Item, error)
	Delete(ctx context.Context, id string) error
}
