package query

import (
	"context"

	"github.com/tair/stockroom/internal/inventory/domain"
)

// ListItemsQuery represents the query to list the actor's item view
type ListItemsQuery struct {
	ActorID string
	Search  string
}

// ListItemsHandler handles list items query
type ListItemsHandler struct {
	sessions SessionOpener
}

// NewListItemsHandler creates a new list items handler
func NewListItemsHandler(sessions SessionOpener) *ListItemsHandler {
	return &ListItemsHandler{sessions: sessions}
}

// Handle executes the list items query
func (h *ListItemsHandler) Handle(ctx context.Context, query ListItemsQuery) ([]domain.InventoryItem, error) {
	s, err := h.sessions.Open(ctx, query.ActorID)
	if err != nil {
		return nil, err
	}
	return s.Engine().Filter(query.Search), nil
}
