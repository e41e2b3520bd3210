package api

import (
	"context"
	"encoding/json"

	"github.com/erazemk/trgovina/internal/model"
	"github.com/erazemk/trgovina/internal/store"
)

// ItemsHandler handles item operations.
type ItemsHandler struct {
	Store *store.Store
}

type updateItemParams struct {
	ID int64 `json:"id"`
	model.Item
}

type searchParams struct {
	Query string `json:"query"`
}

// Create handles addItem.
func (h *ItemsHandler) Create(ctx context.Context, params json.RawMessage) (any, error) {
	var it model.Item
	if err := decodeParams(params, &it); err != nil {
		return nil, err
	}
	created, err := h.Store.CreateItem(ctx, it)
	if err != nil {
		return nil, err
	}
	return idResult{ID: created.ID}, nil
}

// Update handles updateItem.
func (h *ItemsHandler) Update(ctx context.Context, params json.RawMessage) (any, error) {
	var p updateItemParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.ID <= 0 {
		return nil, model.Invalid("id", "required")
	}
	_, err := h.Store.UpdateItem(ctx, p.ID, p.Item)
	return nil, err
}

// Delete handles deleteItem.
func (h *ItemsHandler) Delete(ctx context.Context, params json.RawMessage) (any, error) {
	var p idParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return nil, h.Store.DeleteItem(ctx, p.ID)
}

// Get handles getItem.
func (h *ItemsHandler) Get(ctx context.Context, params json.RawMessage) (any, error) {
	var p idParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return h.Store.GetItem(ctx, p.ID)
}

// List handles getAllItems.
func (h *ItemsHandler) List(ctx context.Context, _ json.RawMessage) (any, error) {
	return h.Store.ListItems(ctx)
}

// Search handles searchItems.
func (h *ItemsHandler) Search(ctx context.Context, params json.RawMessage) (any, error) {
	var p searchParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return h.Store.SearchItems(ctx, p.Query)
}

// LowStock handles getLowStockItems.
func (h *ItemsHandler) LowStock(ctx context.Context, _ json.RawMessage) (any, error) {
	return h.Store.LowStockItems(ctx)
}
