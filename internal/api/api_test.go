package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/trgovina/internal/db"
	"github.com/erazemk/trgovina/internal/model"
	"github.com/erazemk/trgovina/internal/store"
)

func setupTestRouter(t *testing.T) *Router {
	t.Helper()
	st := store.New(db.NewTestDB(t), store.WithLocation(time.UTC))
	return NewRouter(st, Options{ShopName: "Test shop", Location: time.UTC, Logger: zerolog.Nop()})
}

// call dispatches op with params encoded as JSON.
func call(t *testing.T, r *Router, op string, params any) Response {
	t.Helper()
	var raw json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		require.NoError(t, err)
		raw = b
	}
	return r.Dispatch(context.Background(), Request{ID: "t", Op: op, Params: raw})
}

// mustCall is call that requires success.
func mustCall(t *testing.T, r *Router, op string, params any) Response {
	t.Helper()
	resp := call(t, r, op, params)
	require.True(t, resp.Success, "%s failed: %s (%s)", op, resp.Error, resp.Code)
	return resp
}

// decodeData converts the response payload the way the shell would see it.
func decodeData(t *testing.T, resp Response, target any) {
	t.Helper()
	b, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, target))
}

func addItem(t *testing.T, r *Router, params map[string]any) int64 {
	t.Helper()
	var res idResult
	decodeData(t, mustCall(t, r, "addItem", params), &res)
	require.NotZero(t, res.ID)
	return res.ID
}

func TestRouterRegistersAllOperations(t *testing.T) {
	r := setupTestRouter(t)
	for _, op := range []string{
		"addItem", "updateItem", "deleteItem", "getItem", "getAllItems", "searchItems",
		"addInvoice", "getAllInvoices", "getInvoice", "deleteInvoice",
		"addSale", "getAllSales", "getSalesByDateRange", "getTodaySales",
		"getAllAlerts", "getUnreadAlerts", "markAlertAsRead", "markAllAlertsAsRead",
		"getDashboardStats", "exportData", "importData",
	} {
		assert.Contains(t, r.Ops(), op)
	}
}

func TestAddAndGetItem(t *testing.T) {
	r := setupTestRouter(t)
	id := addItem(t, r, map[string]any{
		"name": "Cement 50kg", "category": "Building", "stock": 100, "minStock": 20, "price": "30000",
	})

	var it model.Item
	decodeData(t, mustCall(t, r, "getItem", map[string]any{"id": id}), &it)
	assert.Equal(t, "Cement 50kg", it.Name)
	assert.Equal(t, 100.0, it.Stock)
	assert.Equal(t, "30000", it.Price.String())
}

func TestAddItemValidation(t *testing.T) {
	r := setupTestRouter(t)
	resp := call(t, r, "addItem", map[string]any{"name": " ", "stock": 1})
	assert.False(t, resp.Success)
	assert.Equal(t, CodeValidation, resp.Code)
}

func TestGetMissingItem(t *testing.T) {
	r := setupTestRouter(t)
	resp := call(t, r, "getItem", map[string]any{"id": 999})
	assert.False(t, resp.Success)
	assert.Equal(t, CodeNotFound, resp.Code)
}

func TestUpdateItem(t *testing.T) {
	r := setupTestRouter(t)
	id := addItem(t, r, map[string]any{"name": "Sand", "stock": 10, "minStock": 2, "price": 5})

	mustCall(t, r, "updateItem", map[string]any{"id": id, "name": "Sand fine", "stock": 12, "minStock": 2, "price": 6})

	var it model.Item
	decodeData(t, mustCall(t, r, "getItem", map[string]any{"id": id}), &it)
	assert.Equal(t, "Sand fine", it.Name)
	assert.Equal(t, 12.0, it.Stock)
}

func TestAddSaleInsufficientStock(t *testing.T) {
	r := setupTestRouter(t)
	id := addItem(t, r, map[string]any{"name": "Nails", "stock": 5, "minStock": 1, "price": "2.5"})

	resp := call(t, r, "addSale", map[string]any{"itemId": id, "quantity": 8, "unitPrice": "2.5"})
	assert.False(t, resp.Success)
	assert.Equal(t, CodeInsufficientStock, resp.Code)
	require.NotNil(t, resp.Available)
	assert.Equal(t, 5.0, *resp.Available)

	var it model.Item
	decodeData(t, mustCall(t, r, "getItem", map[string]any{"id": id}), &it)
	assert.Equal(t, 5.0, it.Stock)
}

func TestAddSaleReducesStock(t *testing.T) {
	r := setupTestRouter(t)
	id := addItem(t, r, map[string]any{"name": "Nails", "stock": 5, "minStock": 1, "price": "2.5"})

	var res idResult
	decodeData(t, mustCall(t, r, "addSale", map[string]any{"itemId": id, "quantity": 2, "unitPrice": "2.5"}), &res)
	assert.NotZero(t, res.ID)

	var it model.Item
	decodeData(t, mustCall(t, r, "getItem", map[string]any{"id": id}), &it)
	assert.Equal(t, 3.0, it.Stock)

	var today []model.Sale
	decodeData(t, mustCall(t, r, "getTodaySales", nil), &today)
	require.Len(t, today, 1)
	assert.Equal(t, "5", today[0].Total.String())
}

func TestUnknownOperation(t *testing.T) {
	r := setupTestRouter(t)
	resp := call(t, r, "dropTables", nil)
	assert.False(t, resp.Success)
	assert.Equal(t, CodeBadRequest, resp.Code)
	assert.Equal(t, "t", resp.ID)
}

func TestMalformedParams(t *testing.T) {
	r := setupTestRouter(t)
	resp := r.Dispatch(context.Background(), Request{Op: "getItem", Params: json.RawMessage(`{"id":"seven"}`)})
	assert.False(t, resp.Success)
	assert.Equal(t, CodeBadRequest, resp.Code)
}

func TestBadDate(t *testing.T) {
	r := setupTestRouter(t)
	resp := call(t, r, "getSalesByDateRange", map[string]any{"from": "yesterday", "to": "2024-03-05"})
	assert.Equal(t, CodeValidation, resp.Code)

	resp = call(t, r, "getSalesByDateRange", map[string]any{"to": "2024-03-05"})
	assert.Equal(t, CodeValidation, resp.Code)
}

func TestSalesByDateRangeCoversWholeLastDay(t *testing.T) {
	r := setupTestRouter(t)
	id := addItem(t, r, map[string]any{"name": "Paint", "stock": 10, "minStock": 0, "price": 10})

	mustCall(t, r, "addSale", map[string]any{"itemId": id, "quantity": 1, "unitPrice": 10, "date": "2024-03-04T23:00:00Z"})
	mustCall(t, r, "addSale", map[string]any{"itemId": id, "quantity": 1, "unitPrice": 10, "date": "2024-03-05T18:30:00Z"})
	mustCall(t, r, "addSale", map[string]any{"itemId": id, "quantity": 1, "unitPrice": 10, "date": "2024-03-06T00:00:00Z"})

	var sales []model.Sale
	decodeData(t, mustCall(t, r, "getSalesByDateRange", map[string]any{"from": "2024-03-05", "to": "2024-03-05"}), &sales)
	require.Len(t, sales, 1)
	assert.Equal(t, 18, sales[0].Date.UTC().Hour())
}

func TestRegisterGoodsAndPDF(t *testing.T) {
	r := setupTestRouter(t)

	var reg registerResult
	decodeData(t, mustCall(t, r, "registerGoods", map[string]any{
		"invoiceNumber": "INV-7",
		"date":          "2024-04-02",
		"items": []map[string]any{
			{"name": "Paint 4L", "quantity": 5, "unitPrice": "50000", "category": "Paint"},
		},
	}), &reg)
	require.NotZero(t, reg.ID)
	require.Len(t, reg.Items, 1)
	assert.True(t, reg.Items[0].Created)
	assert.Equal(t, 5.0, reg.Items[0].Stock)

	var inv model.Invoice
	decodeData(t, mustCall(t, r, "getInvoice", map[string]any{"id": reg.ID}), &inv)
	assert.Equal(t, "250000", inv.Total.String())

	var pdf pdfResult
	decodeData(t, mustCall(t, r, "getInvoicePDF", map[string]any{"id": reg.ID}), &pdf)
	assert.Equal(t, "invoice-INV-7.pdf", pdf.Filename)
	assert.True(t, bytes.HasPrefix(pdf.PDF, []byte("%PDF")))

	resp := call(t, r, "getInvoicePDF", map[string]any{"id": 404})
	assert.Equal(t, CodeNotFound, resp.Code)
}

func TestAddInvoiceDoesNotTouchStock(t *testing.T) {
	r := setupTestRouter(t)
	mustCall(t, r, "addInvoice", map[string]any{
		"invoiceNumber": "INV-1",
		"date":          "2024-04-02",
		"items":         []map[string]any{{"name": "Gravel", "quantity": 2, "unitPrice": 80}},
	})

	var items []model.Item
	decodeData(t, mustCall(t, r, "getAllItems", nil), &items)
	assert.Empty(t, items)

	var invoices []model.Invoice
	decodeData(t, mustCall(t, r, "getAllInvoices", nil), &invoices)
	require.Len(t, invoices, 1)
	assert.Len(t, invoices[0].Lines, 1)
}

func TestAlertsFlow(t *testing.T) {
	r := setupTestRouter(t)
	addItem(t, r, map[string]any{"name": "Glue", "stock": 1, "minStock": 5, "price": 3})
	addItem(t, r, map[string]any{"name": "Tape", "stock": 2, "minStock": 5, "price": 3})

	var unread []model.Alert
	decodeData(t, mustCall(t, r, "getUnreadAlerts", nil), &unread)
	require.Len(t, unread, 2)

	mustCall(t, r, "markAlertAsRead", map[string]any{"id": unread[0].ID})

	var res updatedResult
	decodeData(t, mustCall(t, r, "markAllAlertsAsRead", nil), &res)
	assert.Equal(t, int64(1), res.Updated)

	decodeData(t, mustCall(t, r, "getUnreadAlerts", nil), &unread)
	assert.Empty(t, unread)

	var all []model.Alert
	decodeData(t, mustCall(t, r, "getAllAlerts", nil), &all)
	assert.Len(t, all, 2)
}

func TestDashboardStats(t *testing.T) {
	r := setupTestRouter(t)
	addItem(t, r, map[string]any{"name": "Glue", "stock": 1, "minStock": 5, "price": "3.5"})
	addItem(t, r, map[string]any{"name": "Tape", "stock": 10, "minStock": 5, "price": "2"})

	var stats model.DashboardStats
	decodeData(t, mustCall(t, r, "getDashboardStats", nil), &stats)
	assert.Equal(t, 2, stats.TotalItems)
	assert.Equal(t, 1, stats.LowStockItems)
	assert.Equal(t, "23.5", stats.TotalValue.String())
	assert.Equal(t, 1, stats.UnreadAlerts)
}

func TestExportImportRoundTrip(t *testing.T) {
	r := setupTestRouter(t)
	id := addItem(t, r, map[string]any{"name": "Glue", "stock": 10, "minStock": 5, "price": "3.5"})
	mustCall(t, r, "addSale", map[string]any{"itemId": id, "quantity": 6, "unitPrice": "3.5"})

	export := mustCall(t, r, "exportData", nil)
	doc, err := json.Marshal(export.Data)
	require.NoError(t, err)

	other := setupTestRouter(t)
	mustCall(t, other, "importData", json.RawMessage(doc))

	var items []model.Item
	decodeData(t, mustCall(t, other, "getAllItems", nil), &items)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, 4.0, items[0].Stock)

	var sales []model.Sale
	decodeData(t, mustCall(t, other, "getAllSales", nil), &sales)
	assert.Len(t, sales, 1)

	var alerts []model.Alert
	decodeData(t, mustCall(t, other, "getAllAlerts", nil), &alerts)
	assert.Len(t, alerts, 1)

	var size model.DatabaseSize
	decodeData(t, mustCall(t, other, "getDatabaseSize", nil), &size)
	assert.Equal(t, 1, size.Items)
	assert.NotNil(t, size.LastImportAt)
}

func TestImportRejectsIncompleteDocument(t *testing.T) {
	r := setupTestRouter(t)
	addItem(t, r, map[string]any{"name": "Glue", "stock": 10, "minStock": 5, "price": "3.5"})

	resp := call(t, r, "importData", map[string]any{"items": []any{}, "sales": []any{}})
	assert.False(t, resp.Success)
	assert.Equal(t, CodeImportFormat, resp.Code)

	resp = call(t, r, "importData", nil)
	assert.Equal(t, CodeImportFormat, resp.Code)

	var items []model.Item
	decodeData(t, mustCall(t, r, "getAllItems", nil), &items)
	assert.Len(t, items, 1)
}

func TestImportRejectsInvalidRecord(t *testing.T) {
	r := setupTestRouter(t)
	resp := call(t, r, "importData", map[string]any{
		"items":    []map[string]any{{"id": 1, "name": "Bad", "stock": -1, "price": 1}},
		"sales":    []any{},
		"invoices": []any{},
		"alerts":   []any{},
	})
	assert.Equal(t, CodeImportFormat, resp.Code)
}

func TestClearAllData(t *testing.T) {
	r := setupTestRouter(t)
	addItem(t, r, map[string]any{"name": "Glue", "stock": 1, "minStock": 5, "price": "3.5"})
	mustCall(t, r, "clearAllData", nil)

	var size model.DatabaseSize
	decodeData(t, mustCall(t, r, "getDatabaseSize", nil), &size)
	assert.Zero(t, size.Items)
	assert.Zero(t, size.Alerts)
}

func TestRequestIDGenerated(t *testing.T) {
	r := setupTestRouter(t)
	resp := r.Dispatch(context.Background(), Request{Op: "getAllItems"})
	require.True(t, resp.Success)
	_, err := uuid.Parse(resp.ID)
	assert.NoError(t, err)
}

func TestRequestIDInContext(t *testing.T) {
	ctx, id := withRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", id)
	assert.Equal(t, "abc", RequestID(ctx))
	assert.Empty(t, RequestID(context.Background()))
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	h := LoggingMiddleware(log)("getItem", func(ctx context.Context, _ json.RawMessage) (any, error) {
		return nil, model.NotFound("item", 3)
	})

	ctx, _ := withRequestID(context.Background(), "req-1")
	_, err := h(ctx, nil)
	require.Error(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "getItem", entry["op"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, CodeNotFound, entry["code"])
	assert.Equal(t, false, entry["success"])
}

func TestServe(t *testing.T) {
	r := setupTestRouter(t)
	in := strings.Join([]string{
		`{"id":"1","op":"addItem","params":{"name":"Glue","stock":3,"minStock":1,"price":"2"}}`,
		``,
		`{not json`,
		`{"id":"2","op":"getAllItems"}`,
	}, "\n")

	var out bytes.Buffer
	require.NoError(t, r.Serve(context.Background(), strings.NewReader(in), &out))

	var got []Response
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var resp Response
		require.NoError(t, json.Unmarshal(sc.Bytes(), &resp))
		got = append(got, resp)
	}
	require.Len(t, got, 3)

	assert.True(t, got[0].Success)
	assert.Equal(t, "1", got[0].ID)
	assert.False(t, got[1].Success)
	assert.Equal(t, CodeBadRequest, got[1].Code)
	assert.True(t, got[2].Success)
	assert.Equal(t, "2", got[2].ID)

	var items []model.Item
	decodeData(t, got[2], &items)
	assert.Len(t, items, 1)
}

func TestServeStopsOnCancel(t *testing.T) {
	r := setupTestRouter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := r.Serve(ctx, strings.NewReader(`{"op":"getAllItems"}`+"\n"), &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, out.Len())
}
