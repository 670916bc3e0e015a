package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/stockroom/internal/httpapi"
	"github.com/tair/stockroom/internal/inventory/domain"
	"github.com/tair/stockroom/internal/inventory/engine"
	"github.com/tair/stockroom/internal/inventory/usecase/command"
	"github.com/tair/stockroom/internal/inventory/usecase/query"
	"github.com/tair/stockroom/pkg/auth"
)

// Adjustment directions accepted by the adjust endpoint
const (
	DirectionAdd      = "add"
	DirectionSubtract = "subtract"
)

// InventoryHandler handles HTTP requests for inventory
type InventoryHandler struct {
	// Command handlers
	setPendingHandler *command.SetPendingInputHandler
	adjustHandler     *command.AdjustStockHandler
	setStockHandler   *command.SetStockHandler
	addHandler        *command.AddItemHandler
	removeHandler     *command.RemoveItemHandler

	// Query handlers
	listHandler *query.ListItemsHandler
	getHandler  *query.GetItemHandler
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(
	setPendingHandler *command.SetPendingInputHandler,
	adjustHandler *command.AdjustStockHandler,
	setStockHandler *command.SetStockHandler,
	addHandler *command.AddItemHandler,
	removeHandler *command.RemoveItemHandler,
	listHandler *query.ListItemsHandler,
	getHandler *query.GetItemHandler,
) *InventoryHandler {
	return &InventoryHandler{
		setPendingHandler: setPendingHandler,
		adjustHandler:     adjustHandler,
		setStockHandler:   setStockHandler,
		addHandler:        addHandler,
		removeHandler:     removeHandler,
		listHandler:       listHandler,
		getHandler:        getHandler,
	}
}

// ListItems handles GET /api/items?q=
func (h *InventoryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.listHandler.Handle(r.Context(), query.ListItemsQuery{
		ActorID: auth.ActorFromContext(r.Context()),
		Search:  r.URL.Query().Get("q"),
	})
	if err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}
	if items == nil {
		items = []domain.InventoryItem{}
	}

	httpapi.RespondOK(w, http.StatusOK, "", items)
}

// GetItem handles GET /api/items/{id}
func (h *InventoryHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.getHandler.Handle(r.Context(), query.GetItemQuery{
		ActorID: auth.ActorFromContext(r.Context()),
		ItemID:  mux.Vars(r)["id"],
	})
	if err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}

	httpapi.RespondOK(w, http.StatusOK, "", item)
}

// SetPendingInput handles PUT /api/items/{id}/pending
func (h *InventoryHandler) SetPendingInput(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input string `json:"input"`
	}
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}

	err := h.setPendingHandler.Handle(r.Context(), command.SetPendingInputCommand{
		ActorID: auth.ActorFromContext(r.Context()),
		ItemID:  mux.Vars(r)["id"],
		Input:   req.Input,
	})
	if err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}

	httpapi.RespondOK(w, http.StatusOK, "Pending input updated", nil)
}

// AdjustStock handles POST /api/items/{id}/adjust
func (h *InventoryHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction string `json:"direction"`
	}
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}

	var isAddition bool
	switch req.Direction {
	case DirectionAdd:
		isAddition = true
	case DirectionSubtract:
	default:
		httpapi.RespondError(r.Context(), w,
			domain.Invalid("direction must be %q or %q", DirectionAdd, DirectionSubtract))
		return
	}

	item, err := h.adjustHandler.Handle(r.Context(), command.AdjustStockCommand{
		ActorID:    auth.ActorFromContext(r.Context()),
		ItemID:     mux.Vars(r)["id"],
		IsAddition: isAddition,
	})
	if err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}

	httpapi.RespondOK(w, http.StatusOK, "Stock adjusted", item)
}

// SetStock handles PUT /api/items/{id}/stock
func (h *InventoryHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stock *int `json:"stock"`
	}
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}
	if req.Stock == nil {
		httpapi.RespondError(r.Context(), w, domain.Invalid("stock is required"))
		return
	}

	item, err := h.setStockHandler.Handle(r.Context(), command.SetStockCommand{
		ActorID: auth.ActorFromContext(r.Context()),
		ItemID:  mux.Vars(r)["id"],
		Stock:   *req.Stock,
	})
	if err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}

	httpapi.RespondOK(w, http.StatusOK, "Stock updated", item)
}

// AddItem handles POST /api/items. initial_stock is the raw text of the
// quantity field.
func (h *InventoryHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name"`
		InitialStock string `json:"initial_stock"`
	}
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}

	initial, err := engine.ParseQuantity(req.InitialStock)
	if err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}

	item, err := h.addHandler.Handle(r.Context(), command.AddItemCommand{
		ActorID:      auth.ActorFromContext(r.Context()),
		Name:         req.Name,
		InitialStock: initial,
	})
	if err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}

	httpapi.RespondOK(w, http.StatusOK, "Item saved", item)
}

// RemoveItem handles DELETE /api/items/{id}
func (h *InventoryHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	err := h.removeHandler.Handle(r.Context(), command.RemoveItemCommand{
		ActorID: auth.ActorFromContext(r.Context()),
		ItemID:  mux.Vars(r)["id"],
	})
	if err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}

	httpapi.RespondOK(w, http.StatusOK, "Item removed", nil)
}

// RegisterRoutes registers all inventory routes behind authenticate
func (h *InventoryHandler) RegisterRoutes(router *mux.Router, authenticate func(http.Handler) http.Handler) {
	items := router.PathPrefix("/api/items").Subrouter()
	items.Use(authenticate)

	items.HandleFunc("", h.ListItems).Methods("GET")
	items.HandleFunc("", h.AddItem).Methods("POST")
	items.HandleFunc("/{id}", h.GetItem).Methods("GET")
	items.HandleFunc("/{id}", h.RemoveItem).Methods("DELETE")
	items.HandleFunc("/{id}/pending", h.SetPendingInput).Methods("PUT")
	items.HandleFunc("/{id}/adjust", h.AdjustStock).Methods("POST")
	items.HandleFunc("/{id}/stock", h.SetStock).Methods("PUT")
}
