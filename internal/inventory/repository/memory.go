package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tair/stockroom/internal/inventory/domain"
)

// MemoryItemRepository keeps items in process memory. Writes and their change
// events are issued under one lock, so the feed order matches the write order.
type MemoryItemRepository struct {
	mu        sync.Mutex
	items     map[string]domain.Item
	order     []string
	publisher domain.ChangePublisher
	now       func() time.Time
}

// NewMemoryItemRepository creates an empty in-memory store announcing writes
// on publisher (may be nil)
func NewMemoryItemRepository(publisher domain.ChangePublisher) *MemoryItemRepository {
	return &MemoryItemRepository{
		items:     make(map[string]domain.Item),
		publisher: publisher,
		now:       time.Now,
	}
}

func (r *MemoryItemRepository) FetchAll(ctx context.Context) ([]domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]domain.Item, 0, len(r.order))
	for _, id := range r.order {
		items = append(items, r.items[id])
	}
	return items, nil
}

func (r *MemoryItemRepository) Get(ctx context.Context, id string) (*domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &item, nil
}

func (r *MemoryItemRepository) FindByName(ctx context.Context, name string) (*domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		if item := r.items[id]; item.Name == name {
			return &item, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MemoryItemRepository) Create(ctx context.Context, item *domain.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := r.now()
	item.CreatedAt = now
	item.UpdatedAt = now
	if _, exists := r.items[item.ID]; !exists {
		r.order = append(r.order, item.ID)
	}
	r.items[item.ID] = *item

	return r.publishLocked(ctx, domain.ChangeAdded, *item)
}

func (r *MemoryItemRepository) SetStock(ctx context.Context, id string, stock int) (*domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.writeStockLocked(ctx, item, stock)
}

func (r *MemoryItemRepository) CompareAndSetStock(ctx context.Context, id string, expected, stock int) (*domain.Item, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return nil, false, domain.ErrNotFound
	}
	if item.Stock != expected {
		return &item, false, nil
	}
	updated, err := r.writeStockLocked(ctx, item, stock)
	return updated, err == nil, err
}

func (r *MemoryItemRepository) IncrementStock(ctx context.Context, id string, delta int) (*domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if item.Stock+delta < 0 {
		return nil, domain.ErrNegativeStock
	}
	return r.writeStockLocked(ctx, item, item.Stock+delta)
}

func (r *MemoryItemRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return r.publishLocked(ctx, domain.ChangeRemoved, domain.Item{ID: item.ID, Name: item.Name})
}

func (r *MemoryItemRepository) writeStockLocked(ctx context.Context, item domain.Item, stock int) (*domain.Item, error) {
	item.Stock = stock
	item.UpdatedAt = r.now()
	r.items[item.ID] = item

	if err := r.publishLocked(ctx, domain.ChangeModified, item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *MemoryItemRepository) publishLocked(ctx context.Context, kind domain.ChangeKind, item domain.Item) error {
	if r.publisher == nil {
		return nil
	}
	return r.publisher.PublishChange(ctx, newChangeEvent(kind, item))
}

func newChangeEvent(kind domain.ChangeKind, item domain.Item) domain.ChangeEvent {
	return domain.ChangeEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		Item:       item,
		OccurredAt: time.Now().UTC(),
	}
}
