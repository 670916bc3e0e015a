package command

import (
	"context"

	"github.com/tair/stockroom/internal/access/gate"
	"github.com/tair/stockroom/internal/inventory/domain"
)

// SetStockCommand overwrites an item's stock
type SetStockCommand struct {
	ActorID string
	ItemID  string
	Stock   int
}

// SetStockHandler handles set stock command
type SetStockHandler struct {
	sessions SessionOpener
}

// NewSetStockHandler creates a new set stock handler
func NewSetStockHandler(sessions SessionOpener) *SetStockHandler {
	return &SetStockHandler{sessions: sessions}
}

// Handle executes the set stock command
func (h *SetStockHandler) Handle(ctx context.Context, cmd SetStockCommand) (*domain.Item, error) {
	s, err := h.sessions.Open(ctx, cmd.ActorID)
	if err != nil {
		return nil, err
	}
	if err := s.Gate().Authorize(gate.ActionEditStock); err != nil {
		return nil, err
	}

	item, err := s.Engine().SetStock(ctx, cmd.ItemID, cmd.Stock)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
