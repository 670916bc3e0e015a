package command

import (
	"context"

	"github.com/tair/stockroom/internal/access/gate"
	"github.com/tair/stockroom/internal/inventory/domain"
)

// AdjustStockCommand commits the item's pending input as a stock delta
type AdjustStockCommand struct {
	ActorID    string
	ItemID     string
	IsAddition bool
}

// AdjustStockHandler handles adjust stock command
type AdjustStockHandler struct {
	sessions SessionOpener
}

// NewAdjustStockHandler creates a new adjust stock handler
func NewAdjustStockHandler(sessions SessionOpener) *AdjustStockHandler {
	return &AdjustStockHandler{sessions: sessions}
}

// Handle executes the adjust stock command
func (h *AdjustStockHandler) Handle(ctx context.Context, cmd AdjustStockCommand) (*domain.Item, error) {
	s, err := h.sessions.Open(ctx, cmd.ActorID)
	if err != nil {
		return nil, err
	}
	if err := s.Gate().Authorize(gate.ActionEditStock); err != nil {
		return nil, err
	}

	item, err := s.Engine().CommitAdjustment(ctx, cmd.ItemID, cmd.IsAddition)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
