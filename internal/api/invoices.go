package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/erazemk/trgovina/internal/model"
	"github.com/erazemk/trgovina/internal/receipt"
	"github.com/erazemk/trgovina/internal/store"
)

// InvoicesHandler handles invoice and goods-receipt operations.
type InvoicesHandler struct {
	Store    *store.Store
	Location *time.Location
	ShopName string
}

type foldParams struct {
	Lines []model.InvoiceLine `json:"items"`
	Date  dateParam           `json:"date"`
}

type registerResult struct {
	ID    int64              `json:"id"`
	Items []model.FoldResult `json:"items"`
}

type pdfResult struct {
	Filename string `json:"filename"`
	PDF      []byte `json:"pdf"`
}

// Create handles addInvoice.
func (h *InvoicesHandler) Create(ctx context.Context, params json.RawMessage) (any, error) {
	var p invoiceParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	req, err := p.request(h.Location)
	if err != nil {
		return nil, err
	}
	inv, err := h.Store.RecordInvoice(ctx, req)
	if err != nil {
		return nil, err
	}
	return idResult{ID: inv.ID}, nil
}

// List handles getAllInvoices.
func (h *InvoicesHandler) List(ctx context.Context, _ json.RawMessage) (any, error) {
	return h.Store.ListInvoices(ctx)
}

// Get handles getInvoice.
func (h *InvoicesHandler) Get(ctx context.Context, params json.RawMessage) (any, error) {
	var p idParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return h.Store.GetInvoice(ctx, p.ID)
}

// Delete handles deleteInvoice.
func (h *InvoicesHandler) Delete(ctx context.Context, params json.RawMessage) (any, error) {
	var p idParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return nil, h.Store.DeleteInvoice(ctx, p.ID)
}

// Fold handles foldIntoInventory.
func (h *InvoicesHandler) Fold(ctx context.Context, params json.RawMessage) (any, error) {
	var p foldParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	date, _, err := p.Date.resolve("date", h.Location)
	if err != nil {
		return nil, err
	}
	return h.Store.FoldIntoInventory(ctx, p.Lines, date)
}

// Register handles registerGoods.
func (h *InvoicesHandler) Register(ctx context.Context, params json.RawMessage) (any, error) {
	var p invoiceParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	req, err := p.request(h.Location)
	if err != nil {
		return nil, err
	}
	inv, results, err := h.Store.RegisterGoods(ctx, req)
	if err != nil {
		return nil, err
	}
	return registerResult{ID: inv.ID, Items: results}, nil
}

// PDF handles getInvoicePDF. The document is base64 encoded in the response.
func (h *InvoicesHandler) PDF(ctx context.Context, params json.RawMessage) (any, error) {
	var p idParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	inv, err := h.Store.GetInvoice(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	doc, err := receipt.Render(inv, receipt.Options{ShopName: h.ShopName})
	if err != nil {
		return nil, err
	}
	return pdfResult{Filename: receipt.Filename(inv), PDF: doc}, nil
}
