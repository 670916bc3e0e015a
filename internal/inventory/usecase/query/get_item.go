package query

import (
	"context"
	"fmt"

	"github.com/tair/stockroom/internal/inventory/domain"
)

// GetItemQuery represents the query to get one item from the actor's view
type GetItemQuery struct {
	ActorID string
	ItemID  string
}

// GetItemHandler handles get item query
type GetItemHandler struct {
	sessions SessionOpener
}

// NewGetItemHandler creates a new get item handler
func NewGetItemHandler(sessions SessionOpener) *GetItemHandler {
	return &GetItemHandler{sessions: sessions}
}

// Handle executes the get item query
func (h *GetItemHandler) Handle(ctx context.Context, query GetItemQuery) (*domain.InventoryItem, error) {
	s, err := h.sessions.Open(ctx, query.ActorID)
	if err != nil {
		return nil, err
	}

	item, ok := s.Engine().Item(query.ItemID)
	if !ok {
		return nil, fmt.Errorf("item %s: %w", query.ItemID, domain.ErrNotFound)
	}
	return &item, nil
}
