package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale records one stock-depleting transaction. ItemName is the item's name
// at the time of sale and is not updated when the item is renamed.
type Sale struct {
	ID        int64           `json:"id" db:"id"`
	ItemID    int64           `json:"itemId" db:"item_id"`
	ItemName  string          `json:"itemName" db:"item_name"`
	Quantity  float64         `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Total     decimal.Decimal `json:"total" db:"total"`
	Date      time.Time       `json:"date" db:"date"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

// SaleRequest is the input to the stock ledger. Total is optional; when it is
// not set it is derived as Quantity × UnitPrice. A zero Date means "now".
type SaleRequest struct {
	ItemID    int64               `json:"itemId"`
	Quantity  float64             `json:"quantity"`
	UnitPrice decimal.Decimal     `json:"unitPrice"`
	Total     decimal.NullDecimal `json:"total"`
	Date      time.Time           `json:"date"`
}

// Validate checks the request fields.
func (r *SaleRequest) Validate() error {
	if r.ItemID <= 0 {
		return Invalid("itemId", "required")
	}
	if err := checkQuantity("quantity", r.Quantity, false); err != nil {
		return err
	}
	if r.UnitPrice.IsNegative() {
		return Invalid("unitPrice", "must not be negative")
	}
	if r.Total.Valid && r.Total.Decimal.IsNegative() {
		return Invalid("total", "must not be negative")
	}
	return nil
}

// LineTotal is quantity × unit price.
func LineTotal(quantity float64, unitPrice decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(quantity).Mul(unitPrice)
}

// Validate checks a stored sale, as found in a snapshot document.
func (s *Sale) Validate() error {
	if s.ItemID <= 0 {
		return Invalid("itemId", "required")
	}
	if err := checkQuantity("quantity", s.Quantity, false); err != nil {
		return err
	}
	if s.UnitPrice.IsNegative() || s.Total.IsNegative() {
		return Invalid("total", "must not be negative")
	}
	if s.Date.IsZero() {
		return Invalid("date", "required")
	}
	return nil
}
