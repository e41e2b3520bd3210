package api

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/erazemk/trgovina/internal/model"
	"github.com/erazemk/trgovina/internal/store"
)

// ReportsHandler handles the dashboard and the backup operations.
type ReportsHandler struct {
	Store *store.Store
}

// Dashboard handles getDashboardStats.
func (h *ReportsHandler) Dashboard(ctx context.Context, _ json.RawMessage) (any, error) {
	return h.Store.DashboardStats(ctx)
}

// Export handles exportData.
func (h *ReportsHandler) Export(ctx context.Context, _ json.RawMessage) (any, error) {
	return h.Store.ExportSnapshot(ctx)
}

// Import handles importData. The params are the exported document itself.
// Existing data is only replaced once the whole document has been accepted.
func (h *ReportsHandler) Import(ctx context.Context, params json.RawMessage) (any, error) {
	if len(bytes.TrimSpace(params)) == 0 {
		return nil, &model.ImportFormatError{Reason: "empty document"}
	}
	snap, err := model.ParseSnapshot(params)
	if err != nil {
		return nil, err
	}
	return nil, h.Store.ImportSnapshot(ctx, snap)
}

// Clear handles clearAllData.
func (h *ReportsHandler) Clear(ctx context.Context, _ json.RawMessage) (any, error) {
	return nil, h.Store.ClearAllData(ctx)
}

// Size handles getDatabaseSize.
func (h *ReportsHandler) Size(ctx context.Context, _ json.RawMessage) (any, error) {
	return h.Store.DatabaseSize(ctx)
}
