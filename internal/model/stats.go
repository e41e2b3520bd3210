package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardStats are read-only projections computed on demand.
type DashboardStats struct {
	TotalItems    int             `json:"totalItems"`
	LowStockItems int             `json:"lowStockItems"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	TodaySales    decimal.Decimal `json:"todaySales"`
	UnreadAlerts  int             `json:"unreadAlerts"`
}

// DatabaseSize reports row counts and backup bookkeeping.
type DatabaseSize struct {
	Items        int        `json:"items" db:"items"`
	Sales        int        `json:"sales" db:"sales"`
	Invoices     int        `json:"invoices" db:"invoices"`
	Alerts       int        `json:"alerts" db:"alerts"`
	LastExportAt *time.Time `json:"lastExportAt,omitempty" db:"-"`
	LastImportAt *time.Time `json:"lastImportAt,omitempty" db:"-"`
}

// FoldResult describes what folding one invoice line did to the inventory.
type FoldResult struct {
	ItemID  int64   `json:"itemId"`
	Name    string  `json:"name"`
	Created bool    `json:"created"`
	Stock   float64 `json:"stock"`
}
