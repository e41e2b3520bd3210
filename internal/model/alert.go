package model

import (
	"fmt"
	"time"
)

// Alert types.
const (
	AlertTypeLowStock = "low_stock"
)

// Alert is a derived low-stock notice. There is at most one per item and type.
type Alert struct {
	ID        int64     `json:"id" db:"id"`
	ItemID    int64     `json:"itemId" db:"item_id"`
	ItemName  string    `json:"itemName" db:"item_name"`
	Type      string    `json:"type" db:"type"`
	Message   string    `json:"message" db:"message"`
	IsRead    bool      `json:"isRead" db:"is_read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// LowStockAlert returns the alert an item should have right now, and false
// when the item is above its threshold and must have none.
func LowStockAlert(it Item, now time.Time) (Alert, bool) {
	if !it.IsLowStock() {
		return Alert{}, false
	}
	return Alert{
		ItemID:    it.ID,
		ItemName:  it.Name,
		Type:      AlertTypeLowStock,
		Message:   LowStockMessage(it.Name, it.Stock),
		CreatedAt: now,
	}, true
}

// LowStockMessage is the user-facing alert text.
func LowStockMessage(name string, stock float64) string {
	return fmt.Sprintf("%s is running low on stock (%s remaining)", name, FormatQuantity(stock))
}

// Validate checks a stored alert, as found in a snapshot document.
func (a *Alert) Validate() error {
	if a.ItemID <= 0 {
		return Invalid("itemId", "required")
	}
	if a.Type != AlertTypeLowStock {
		return Invalid("type", fmt.Sprintf("unknown alert type %q", a.Type))
	}
	return nil
}
