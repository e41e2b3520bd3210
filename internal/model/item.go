package model

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Item is a stock-keeping unit. Stock is the quantity on hand and is never
// negative.
type Item struct {
	ID          int64               `json:"id" db:"id"`
	Name        string              `json:"name" db:"name"`
	SKU         string              `json:"sku,omitempty" db:"sku"`
	Category    string              `json:"category" db:"category"`
	Stock       float64             `json:"stock" db:"stock"`
	MinStock    float64             `json:"minStock" db:"min_stock"`
	Price       decimal.Decimal     `json:"price" db:"price"`
	Cost        decimal.NullDecimal `json:"cost" db:"cost"`
	Description string              `json:"description" db:"description"`
	Brand       string              `json:"brand,omitempty" db:"brand"`
	Model       string              `json:"model,omitempty" db:"model"`
	Color       string              `json:"color,omitempty" db:"color"`
	Size        string              `json:"size,omitempty" db:"size"`
	Unit        string              `json:"unit,omitempty" db:"unit"`
	Location    string              `json:"location,omitempty" db:"location"`
	Supplier    string              `json:"supplier,omitempty" db:"supplier"`
	CreatedAt   time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time           `json:"updatedAt" db:"updated_at"`
}

// Defaults applied to items created from invoice lines.
const (
	DefaultCategory = "Other"
	DefaultUnit     = "Each"
)

// EstimatedCostRatio is the share of the sale price assumed as cost for items
// first seen on an invoice.
var EstimatedCostRatio = decimal.RequireFromString("0.8")

// Normalize trims the free-text identity fields.
func (it *Item) Normalize() {
	it.Name = strings.TrimSpace(it.Name)
	it.SKU = strings.TrimSpace(it.SKU)
	it.Category = strings.TrimSpace(it.Category)
}

// Validate checks the fields a caller may set.
func (it *Item) Validate() error {
	if strings.TrimSpace(it.Name) == "" {
		return Invalid("name", "required")
	}
	if err := checkQuantity("stock", it.Stock, true); err != nil {
		return err
	}
	if err := checkQuantity("minStock", it.MinStock, true); err != nil {
		return err
	}
	if it.Price.IsNegative() {
		return Invalid("price", "must not be negative")
	}
	if it.Cost.Valid && it.Cost.Decimal.IsNegative() {
		return Invalid("cost", "must not be negative")
	}
	return nil
}

// IsLowStock reports whether the item is at or below its reorder threshold.
func (it *Item) IsLowStock() bool {
	return it.Stock <= it.MinStock
}

// Value is the stock valued at the current sale price.
func (it *Item) Value() decimal.Decimal {
	return decimal.NewFromFloat(it.Stock).Mul(it.Price)
}

func checkQuantity(field string, v float64, allowZero bool) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Invalid(field, "must be a finite number")
	}
	if v < 0 || (!allowZero && v == 0) {
		if allowZero {
			return Invalid(field, "must not be negative")
		}
		return Invalid(field, "must be positive")
	}
	return nil
}
