package api

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/erazemk/trgovina/internal/store"
)

// HandlerFunc serves one operation.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// Middleware wraps the handler of the named operation.
type Middleware func(op string, next HandlerFunc) HandlerFunc

// Options configure the router.
type Options struct {
	// ShopName heads printed invoices.
	ShopName string
	// Location interprets plain dates. Defaults to time.Local.
	Location *time.Location
	Logger   zerolog.Logger
}

// Router maps operation names to handlers.
type Router struct {
	routes map[string]HandlerFunc
}

// NewRouter creates the router with all operations registered.
func NewRouter(st *store.Store, opts Options) *Router {
	if opts.Location == nil {
		opts.Location = time.Local
	}

	items := &ItemsHandler{Store: st}
	sales := &SalesHandler{Store: st, Location: opts.Location}
	invoices := &InvoicesHandler{Store: st, Location: opts.Location, ShopName: opts.ShopName}
	alerts := &AlertsHandler{Store: st}
	reports := &ReportsHandler{Store: st}

	r := &Router{routes: map[string]HandlerFunc{}}
	logged := LoggingMiddleware(opts.Logger)
	handle := func(op string, h HandlerFunc) {
		r.routes[op] = logged(op, h)
	}

	// Items.
	handle("addItem", items.Create)
	handle("updateItem", items.Update)
	handle("deleteItem", items.Delete)
	handle("getItem", items.Get)
	handle("getAllItems", items.List)
	handle("searchItems", items.Search)
	handle("getLowStockItems", items.LowStock)

	// Invoices and goods receipt.
	handle("addInvoice", invoices.Create)
	handle("getAllInvoices", invoices.List)
	handle("getInvoice", invoices.Get)
	handle("deleteInvoice", invoices.Delete)
	handle("foldIntoInventory", invoices.Fold)
	handle("registerGoods", invoices.Register)
	handle("getInvoicePDF", invoices.PDF)

	// Sales.
	handle("addSale", sales.Create)
	handle("getAllSales", sales.List)
	handle("getSalesByDateRange", sales.ByDateRange)
	handle("getTodaySales", sales.Today)
	handle("getItemSales", sales.ForItem)

	// Alerts.
	handle("getAllAlerts", alerts.List)
	handle("getUnreadAlerts", alerts.Unread)
	handle("markAlertAsRead", alerts.MarkRead)
	handle("markAllAlertsAsRead", alerts.MarkAllRead)

	// Dashboard and backup.
	handle("getDashboardStats", reports.Dashboard)
	handle("exportData", reports.Export)
	handle("importData", reports.Import)
	handle("clearAllData", reports.Clear)
	handle("getDatabaseSize", reports.Size)

	return r
}

// Dispatch runs one request and never fails; errors are encoded in the
// response.
func (r *Router) Dispatch(ctx context.Context, req Request) Response {
	ctx, id := withRequestID(ctx, req.ID)
	h, ok := r.routes[req.Op]
	if !ok {
		return failure(id, badRequest("unknown operation %q", req.Op))
	}
	data, err := h(ctx, req.Params)
	if err != nil {
		return failure(id, err)
	}
	return success(id, data)
}

// Ops lists the registered operation names.
func (r *Router) Ops() []string {
	ops := make([]string, 0, len(r.routes))
	for op := range r.routes {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}
