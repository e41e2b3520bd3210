package api

import (
	"context"
	"encoding/json"

	"github.com/erazemk/trgovina/internal/store"
)

// AlertsHandler handles low-stock alert operations.
type AlertsHandler struct {
	Store *store.Store
}

type updatedResult struct {
	Updated int64 `json:"updated"`
}

// List handles getAllAlerts.
func (h *AlertsHandler) List(ctx context.Context, _ json.RawMessage) (any, error) {
	return h.Store.ListAlerts(ctx)
}

// Unread handles getUnreadAlerts.
func (h *AlertsHandler) Unread(ctx context.Context, _ json.RawMessage) (any, error) {
	return h.Store.UnreadAlerts(ctx)
}

// MarkRead handles markAlertAsRead.
func (h *AlertsHandler) MarkRead(ctx context.Context, params json.RawMessage) (any, error) {
	var p idParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return nil, h.Store.MarkAlertRead(ctx, p.ID)
}

// MarkAllRead handles markAllAlertsAsRead.
func (h *AlertsHandler) MarkAllRead(ctx context.Context, _ json.RawMessage) (any, error) {
	n, err := h.Store.MarkAllAlertsRead(ctx)
	if err != nil {
		return nil, err
	}
	return updatedResult{Updated: n}, nil
}
