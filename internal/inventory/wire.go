//go:build wireinject
// +build wireinject

package inventory

import (
	"github.com/google/wire"

	"github.com/tair/stockroom/internal/inventory/delivery/http"
	"github.com/tair/stockroom/internal/inventory/session"
	"github.com/tair/stockroom/internal/inventory/usecase/command"
	"github.com/tair/stockroom/internal/inventory/usecase/query"
)

// Wire sets
var SessionSet = wire.NewSet(
	ProvideCommandSessions,
	ProvideQuerySessions,
)

var CommandHandlerSet = wire.NewSet(
	command.NewSetPendingInputHandler,
	command.NewAdjustStockHandler,
	command.NewSetStockHandler,
	command.NewAddItemHandler,
	command.NewRemoveItemHandler,
)

var QueryHandlerSet = wire.NewSet(
	query.NewListItemsHandler,
	query.NewGetItemHandler,
)

// InitializeHTTPHandler initializes HTTP handler with all dependencies
func InitializeHTTPHandler(sessions *session.Manager) (*http.InventoryHandler, error) {
	wire.Build(
		SessionSet,
		CommandHandlerSet,
		QueryHandlerSet,
		http.NewInventoryHandler,
	)
	return nil, nil
}
