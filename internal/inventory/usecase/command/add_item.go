package command

import (
	"context"

	"github.com/tair/stockroom/internal/access/gate"
	"github.com/tair/stockroom/internal/inventory/domain"
)

// AddItemCommand adds an item, or tops up the item with the same name
type AddItemCommand struct {
	ActorID      string
	Name         string
	InitialStock int
}

// AddItemHandler handles add item command
type AddItemHandler struct {
	sessions SessionOpener
}

// NewAddItemHandler creates a new add item handler
func NewAddItemHandler(sessions SessionOpener) *AddItemHandler {
	return &AddItemHandler{sessions: sessions}
}

// Handle executes the add item command
func (h *AddItemHandler) Handle(ctx context.Context, cmd AddItemCommand) (*domain.Item, error) {
	s, err := h.sessions.Open(ctx, cmd.ActorID)
	if err != nil {
		return nil, err
	}
	if err := s.Gate().Authorize(gate.ActionAddItem); err != nil {
		return nil, err
	}

	item, err := s.Engine().AddOrIncrementItem(ctx, cmd.Name, cmd.InitialStock)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
