package command

import (
	"context"

	"github.com/tair/stockroom/internal/access/gate"
)

// RemoveItemCommand deletes an item
type RemoveItemCommand struct {
	ActorID string
	ItemID  string
}

// RemoveItemHandler handles remove item command
type RemoveItemHandler struct {
	sessions SessionOpener
}

// NewRemoveItemHandler creates a new remove item handler
func NewRemoveItemHandler(sessions SessionOpener) *RemoveItemHandler {
	return &RemoveItemHandler{sessions: sessions}
}

// Handle executes the remove item command
func (h *RemoveItemHandler) Handle(ctx context.Context, cmd RemoveItemCommand) error {
	s, err := h.sessions.Open(ctx, cmd.ActorID)
	if err != nil {
		return err
	}
	if err := s.Gate().Authorize(gate.ActionRemoveItem); err != nil {
		return err
	}
	return s.Engine().RemoveItem(ctx, cmd.ItemID)
}
