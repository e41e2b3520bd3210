package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/trgovina/internal/model"
	"github.com/erazemk/trgovina/internal/store"
)

// SalesHandler handles the stock ledger operations.
type SalesHandler struct {
	Store    *store.Store
	Location *time.Location
}

type saleParams struct {
	ItemID    int64               `json:"itemId"`
	Quantity  float64             `json:"quantity"`
	UnitPrice decimal.Decimal     `json:"unitPrice"`
	Total     decimal.NullDecimal `json:"total"`
	Date      dateParam           `json:"date"`
}

type dateRangeParams struct {
	From dateParam `json:"from"`
	To   dateParam `json:"to"`
}

type itemParams struct {
	ItemID int64 `json:"itemId"`
}

// Create handles addSale.
func (h *SalesHandler) Create(ctx context.Context, params json.RawMessage) (any, error) {
	var p saleParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	date, _, err := p.Date.resolve("date", h.Location)
	if err != nil {
		return nil, err
	}
	sale, err := h.Store.RecordSale(ctx, model.SaleRequest{
		ItemID:    p.ItemID,
		Quantity:  p.Quantity,
		UnitPrice: p.UnitPrice,
		Total:     p.Total,
		Date:      date,
	})
	if err != nil {
		return nil, err
	}
	return idResult{ID: sale.ID}, nil
}

// List handles getAllSales.
func (h *SalesHandler) List(ctx context.Context, _ json.RawMessage) (any, error) {
	return h.Store.ListSales(ctx)
}

// ByDateRange handles getSalesByDateRange. Both ends are inclusive; a plain
// "to" date covers that whole day.
func (h *SalesHandler) ByDateRange(ctx context.Context, params json.RawMessage) (any, error) {
	var p dateRangeParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	from, _, err := p.From.resolve("from", h.Location)
	if err != nil {
		return nil, err
	}
	to, toDay, err := p.To.resolve("to", h.Location)
	if err != nil {
		return nil, err
	}
	if from.IsZero() {
		return nil, model.Invalid("from", "required")
	}
	if to.IsZero() {
		return nil, model.Invalid("to", "required")
	}
	if toDay {
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return h.Store.SalesBetween(ctx, from, to)
}

// Today handles getTodaySales.
func (h *SalesHandler) Today(ctx context.Context, _ json.RawMessage) (any, error) {
	return h.Store.TodaySales(ctx)
}

// ForItem handles getItemSales.
func (h *SalesHandler) ForItem(ctx context.Context, params json.RawMessage) (any, error) {
	var p itemParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return h.Store.ItemSales(ctx, p.ItemID)
}
