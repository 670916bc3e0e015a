package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/tair/stockroom/internal/inventory/domain"
	"github.com/tair/stockroom/pkg/logger"
)

const (
	DefaultRemoteTimeout     = 5 * time.Second
	DefaultMaxCommitAttempts = 3
	DefaultCommitBackoff     = 50 * time.Millisecond
)

// Config tunes how the engine talks to the remote store
type Config struct {
	// RemoteTimeout bounds every single remote call.
	RemoteTimeout time.Duration
	// MaxCommitAttempts bounds conditional writes per CommitAdjustment.
	MaxCommitAttempts int
	// CommitBackoff is multiplied by the attempt number between retries.
	CommitBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.RemoteTimeout <= 0 {
		c.RemoteTimeout = DefaultRemoteTimeout
	}
	if c.MaxCommitAttempts <= 0 {
		c.MaxCommitAttempts = DefaultMaxCommitAttempts
	}
	if c.CommitBackoff < 0 {
		c.CommitBackoff = 0
	}
	return c
}

// Engine reconciles one actor's view of the inventory. Remote state arrives
// through LoadInitial and the change feed; local state is the pending input
// typed against each item. Stock only changes locally when the feed confirms
// a write.
type Engine struct {
	store domain.ItemStore
	cfg   Config

	mu    sync.RWMutex
	items map[string]*domain.InventoryItem
	order []string
}

// New creates an engine with an empty view
func New(store domain.ItemStore, cfg Config) *Engine {
	return &Engine{
		store: store,
		cfg:   cfg.withDefaults(),
		items: make(map[string]*domain.InventoryItem),
	}
}

// LoadInitial replaces the view with a full fetch of the store. Every pending
// input is discarded. On failure the view is left as it was.
func (e *Engine) LoadInitial(ctx context.Context) ([]domain.InventoryItem, error) {
	return e.load(ctx, false)
}

// Resync replaces the view with a full fetch like LoadInitial, but keeps the
// pending input of items that still exist.
func (e *Engine) Resync(ctx context.Context) ([]domain.InventoryItem, error) {
	items, err := e.load(ctx, true)
	if err == nil {
		resyncsTotal.Inc()
	}
	return items, err
}

func (e *Engine) load(ctx context.Context, keepPending bool) ([]domain.InventoryItem, error) {
	rctx, cancel := e.remote(ctx)
	defer cancel()

	fetched, err := e.store.FetchAll(rctx)
	if err != nil {
		err = domain.Remote("fetch items", err)
		logger.Error(ctx).Err(err).Msg("Failed to load inventory")
		return nil, err
	}

	e.mu.Lock()
	items := make(map[string]*domain.InventoryItem, len(fetched))
	order := make([]string, 0, len(fetched))
	for _, item := range fetched {
		entry := &domain.InventoryItem{Item: item}
		if keepPending {
			if prev, ok := e.items[item.ID]; ok {
				entry.PendingInput = prev.PendingInput
			}
		}
		if _, dup := items[item.ID]; !dup {
			order = append(order, item.ID)
		}
		items[item.ID] = entry
	}
	trackedItems.Add(float64(len(items) - len(e.items)))
	e.items = items
	e.order = order
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	logger.Info(ctx).
		Int("items", len(snapshot)).
		Bool("resync", keepPending).
		Msg("Inventory loaded")

	return snapshot, nil
}

// ApplyRemoteChange merges one change notification into the view. Added and
// Modified overwrite every field except the pending input; Removed drops the
// entry along with its pending input.
func (e *Engine) ApplyRemoteChange(kind domain.ChangeKind, item domain.Item) {
	if item.ID == "" {
		logger.Logger.Warn().Str("kind", string(kind)).Msg("Ignoring change notification without item id")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch kind {
	case domain.ChangeAdded, domain.ChangeModified:
		if entry, ok := e.items[item.ID]; ok {
			entry.Item = item
		} else {
			e.items[item.ID] = &domain.InventoryItem{Item: item}
			e.order = append(e.order, item.ID)
			trackedItems.Inc()
		}
	case domain.ChangeRemoved:
		if _, ok := e.items[item.ID]; !ok {
			break
		}
		delete(e.items, item.ID)
		for i, id := range e.order {
			if id == item.ID {
				e.order = append(e.order[:i], e.order[i+1:]...)
				break
			}
		}
		trackedItems.Dec()
	default:
		logger.Logger.Warn().
			Str("kind", string(kind)).
			Str("item_id", item.ID).
			Msg("Ignoring change notification of unknown kind")
		return
	}

	notificationsApplied.WithLabelValues(string(kind)).Inc()
}

// Run applies events from sub in delivery order until ctx is done or the
// subscription ends. It returns ctx.Err() or the subscription's terminal
// error (nil after a plain Close).
func (e *Engine) Run(ctx context.Context, sub domain.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-sub.Events():
			if !ok {
				return sub.Err()
			}
			e.ApplyRemoteChange(event.Kind, event.Item)
		}
	}
}

// SetPendingInput stores raw against the item exactly as typed
func (e *Engine) SetPendingInput(id, raw string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.items[id]
	if !ok {
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	entry.PendingInput = raw
	return nil
}

// CommitAdjustment adds (or subtracts) the item's pending input to its
// authoritative stock. The current stock is re-read and written back with a
// compare-and-set, retried a bounded number of times if another writer got in
// between. The pending input is cleared on success unless it was edited while
// the commit was in flight.
func (e *Engine) CommitAdjustment(ctx context.Context, id string, isAddition bool) (item domain.Item, err error) {
	defer func() {
		commitsTotal.WithLabelValues(commitResult(err)).Inc()
	}()

	e.mu.RLock()
	entry, ok := e.items[id]
	var raw string
	if ok {
		raw = entry.PendingInput
	}
	e.mu.RUnlock()
	if !ok {
		return domain.Item{}, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}

	magnitude, err := ParseAdjustment(raw)
	if err != nil {
		return domain.Item{}, err
	}
	delta := magnitude
	if !isAddition {
		delta = -magnitude
	}

	for attempt := 1; ; attempt++ {
		current, err := e.get(ctx, id)
		if err != nil {
			return domain.Item{}, err
		}

		if delta > 0 && current.Stock > math.MaxInt-delta {
			return domain.Item{}, domain.Invalid("adding %d to stock %d overflows", delta, current.Stock)
		}
		newStock := current.Stock + delta
		if newStock < 0 {
			return domain.Item{}, fmt.Errorf("%w: %d%+d", domain.ErrNegativeStock, current.Stock, delta)
		}

		updated, swapped, err := e.compareAndSet(ctx, id, current.Stock, newStock)
		if err != nil {
			return domain.Item{}, err
		}
		if swapped {
			commitAttempts.Observe(float64(attempt))
			e.clearPending(id, raw)
			logger.Info(ctx).
				Str("item_id", id).
				Int("delta", delta).
				Int("stock", updated.Stock).
				Int("attempt", attempt).
				Msg("Stock adjusted")
			return *updated, nil
		}

		if attempt >= e.cfg.MaxCommitAttempts {
			logger.Warn(ctx).
				Str("item_id", id).
				Int("attempts", attempt).
				Msg("Stock adjustment lost every compare-and-set")
			return domain.Item{}, fmt.Errorf("item %s after %d attempts: %w", id, attempt, domain.ErrConflict)
		}

		logger.Debug(ctx).
			Str("item_id", id).
			Int("expected", current.Stock).
			Int("actual", updated.Stock).
			Msg("Stock changed under commit, retrying")

		if err := sleep(ctx, time.Duration(attempt)*e.cfg.CommitBackoff); err != nil {
			return domain.Item{}, err
		}
	}
}

// SetStock overwrites an item's stock
func (e *Engine) SetStock(ctx context.Context, id string, stock int) (domain.Item, error) {
	if stock < 0 {
		return domain.Item{}, fmt.Errorf("%w: %d", domain.ErrNegativeStock, stock)
	}

	rctx, cancel := e.remote(ctx)
	defer cancel()

	item, err := e.store.SetStock(rctx, id, stock)
	if err != nil {
		return domain.Item{}, domain.Remote("set stock", err)
	}
	return *item, nil
}

// AddOrIncrementItem creates an item, or adds initialStock to the existing
// item with exactly the same name. Case and surrounding space are significant.
func (e *Engine) AddOrIncrementItem(ctx context.Context, name string, initialStock int) (domain.Item, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Item{}, domain.Invalid("item name is required")
	}
	if initialStock < 0 {
		return domain.Item{}, domain.Invalid("initial stock cannot be negative, got %d", initialStock)
	}

	rctx, cancel := e.remote(ctx)
	defer cancel()

	existing, err := e.store.FindByName(rctx, name)
	switch {
	case err == nil:
		if existing.Stock > math.MaxInt-initialStock {
			return domain.Item{}, domain.Invalid("adding %d to stock %d of %q overflows", initialStock, existing.Stock, name)
		}
		item, err := e.store.IncrementStock(rctx, existing.ID, initialStock)
		if err != nil {
			return domain.Item{}, domain.Remote("increment stock", err)
		}
		logger.Info(ctx).
			Str("item_id", item.ID).
			Str("name", name).
			Int("delta", initialStock).
			Msg("Existing item incremented")
		return *item, nil
	case errors.Is(err, domain.ErrNotFound):
	default:
		return domain.Item{}, domain.Remote("find item", err)
	}

	item := &domain.Item{Name: name, Stock: initialStock}
	if err := e.store.Create(rctx, item); err != nil {
		return domain.Item{}, domain.Remote("create item", err)
	}
	logger.Info(ctx).
		Str("item_id", item.ID).
		Str("name", name).
		Int("stock", initialStock).
		Msg("Item created")
	return *item, nil
}

// RemoveItem deletes the item remotely. The local entry goes away when the
// Removed notification arrives.
func (e *Engine) RemoveItem(ctx context.Context, id string) error {
	rctx, cancel := e.remote(ctx)
	defer cancel()

	if err := e.store.Delete(rctx, id); err != nil {
		return domain.Remote("delete item", err)
	}
	logger.Info(ctx).Str("item_id", id).Msg("Item delete requested")
	return nil
}

// Items returns a snapshot of the view in load order
func (e *Engine) Items() []domain.InventoryItem {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

// Item returns a snapshot of one item
func (e *Engine) Item(id string) (domain.InventoryItem, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entry, ok := e.items[id]
	if !ok {
		return domain.InventoryItem{}, false
	}
	return *entry, true
}

// Filter returns the items matching query
func (e *Engine) Filter(query string) []domain.InventoryItem {
	return Filter(e.Items(), query)
}

// Close releases the engine's share of the tracked items gauge
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	trackedItems.Sub(float64(len(e.items)))
	e.items = make(map[string]*domain.InventoryItem)
	e.order = nil
}

func (e *Engine) get(ctx context.Context, id string) (*domain.Item, error) {
	rctx, cancel := e.remote(ctx)
	defer cancel()

	item, err := e.store.Get(rctx, id)
	if err != nil {
		return nil, domain.Remote("read item", err)
	}
	return item, nil
}

func (e *Engine) compareAndSet(ctx context.Context, id string, expected, stock int) (*domain.Item, bool, error) {
	rctx, cancel := e.remote(ctx)
	defer cancel()

	item, swapped, err := e.store.CompareAndSetStock(rctx, id, expected, stock)
	if err != nil {
		return nil, false, domain.Remote("update stock", err)
	}
	return item, swapped, nil
}

func (e *Engine) clearPending(id, used string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if entry, ok := e.items[id]; ok && entry.PendingInput == used {
		entry.PendingInput = ""
	}
}

func (e *Engine) remote(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.cfg.RemoteTimeout)
}

func (e *Engine) snapshotLocked() []domain.InventoryItem {
	items := make([]domain.InventoryItem, 0, len(e.order))
	for _, id := range e.order {
		items = append(items, *e.items[id])
	}
	return items
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
