package engine

import (
	"context"
	"sync"

	"github.com/tair/stockroom/internal/inventory/domain"
)

// stubStore is a scriptable ItemStore for failure paths the memory store
// cannot produce
type stubStore struct {
	mu         sync.Mutex
	items      map[string]domain.Item
	fetchErr   error
	getErr     error
	conflicts  int
	swaps      int
	beforeSwap func()
}

func (s *stubStore) FetchAll(context.Context) ([]domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	items := make([]domain.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	return items, nil
}

func (s *stubStore) Get(_ context.Context, id string) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	item, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &item, nil
}

func (s *stubStore) FindByName(context.Context, string) (*domain.Item, error) {
	return nil, domain.ErrNotFound
}

func (s *stubStore) Create(context.Context, *domain.Item) error {
	return nil
}

func (s *stubStore) SetStock(_ context.Context, id string, stock int) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.items[id]
	item.Stock = stock
	s.items[id] = item
	return &item, nil
}

func (s *stubStore) CompareAndSetStock(_ context.Context, id string, expected, stock int) (*domain.Item, bool, error) {
	if s.beforeSwap != nil {
		s.beforeSwap()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.swaps++
	item := s.items[id]
	if s.conflicts > 0 {
		s.conflicts--
		return &item, false, nil
	}
	if item.Stock != expected {
		return &item, false, nil
	}
	item.Stock = stock
	s.items[id] = item
	return &item, true, nil
}

func (s *stubStore) IncrementStock(context.Context, string, int) (*domain.Item, error) {
	return nil, domain.ErrNotFound
}

func (s *stubStore) Delete(context.Context, string) error {
	return nil
}
