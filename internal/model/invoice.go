package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is an immutable goods-receipt record. Lines are a snapshot and are
// never re-linked to items.
type Invoice struct {
	ID            int64           `json:"id" db:"id"`
	InvoiceNumber string          `json:"invoiceNumber" db:"invoice_number"`
	Date          time.Time       `json:"date" db:"date"`
	Lines         []InvoiceLine   `json:"items" db:"-"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax           decimal.Decimal `json:"tax" db:"tax"`
	Total         decimal.Decimal `json:"total" db:"total"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}

// InvoiceLine is one line of an invoice.
type InvoiceLine struct {
	Name          string          `json:"name" db:"name"`
	Quantity      float64         `json:"quantity" db:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Total         decimal.Decimal `json:"total" db:"total"`
	VehicleNumber string          `json:"vehicleNumber,omitempty" db:"vehicle_number"`
	Quality       string          `json:"quality,omitempty" db:"quality"`
	Category      string          `json:"category" db:"category"`
}

// InvoiceRequest is the input for recording an invoice.
type InvoiceRequest struct {
	InvoiceNumber string        `json:"invoiceNumber"`
	Date          time.Time     `json:"date"`
	Lines         []InvoiceLine `json:"items"`
}

// Normalize trims text fields and fills in a missing line total.
func (l *InvoiceLine) Normalize() {
	l.Name = strings.TrimSpace(l.Name)
	l.Category = strings.TrimSpace(l.Category)
	l.Quality = strings.TrimSpace(l.Quality)
	l.VehicleNumber = strings.TrimSpace(l.VehicleNumber)
	if l.Total.IsZero() {
		l.Total = LineTotal(l.Quantity, l.UnitPrice)
	}
}

// Validate checks one line.
func (l *InvoiceLine) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return Invalid("items.name", "required")
	}
	if err := checkQuantity("items.quantity", l.Quantity, false); err != nil {
		return err
	}
	if l.UnitPrice.IsNegative() {
		return Invalid("items.unitPrice", "must not be negative")
	}
	if l.Total.IsNegative() {
		return Invalid("items.total", "must not be negative")
	}
	return nil
}

// ValidateLines normalizes and validates a batch of lines.
func ValidateLines(lines []InvoiceLine) error {
	if len(lines) == 0 {
		return Invalid("items", "at least one line item is required")
	}
	for i := range lines {
		lines[i].Normalize()
		if err := lines[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate normalizes the request and checks required fields.
func (r *InvoiceRequest) Validate() error {
	r.InvoiceNumber = strings.TrimSpace(r.InvoiceNumber)
	if r.InvoiceNumber == "" {
		return Invalid("invoiceNumber", "required")
	}
	if r.Date.IsZero() {
		return Invalid("date", "required")
	}
	return ValidateLines(r.Lines)
}

// NewInvoice builds the invoice for a validated request. Tax is always zero.
func NewInvoice(r InvoiceRequest, now time.Time) Invoice {
	inv := Invoice{
		InvoiceNumber: r.InvoiceNumber,
		Date:          r.Date,
		Lines:         append([]InvoiceLine(nil), r.Lines...),
		Tax:           decimal.Zero,
		CreatedAt:     now,
	}
	inv.Subtotal = SumLines(inv.Lines)
	inv.Total = inv.Subtotal.Add(inv.Tax)
	return inv
}

// SumLines adds up the line totals.
func SumLines(lines []InvoiceLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total)
	}
	return sum
}

// Validate checks a stored invoice, as found in a snapshot document.
func (inv *Invoice) Validate() error {
	if strings.TrimSpace(inv.InvoiceNumber) == "" {
		return Invalid("invoiceNumber", "required")
	}
	if inv.Date.IsZero() {
		return Invalid("date", "required")
	}
	for i := range inv.Lines {
		if err := inv.Lines[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
