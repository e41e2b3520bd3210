package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/trgovina/internal/model"
)

// dateParam is a date or timestamp as sent by the shell. Full timestamps
// carry their own zone; the local forms are read in the router's location.
type dateParam string

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

const dayLayout = "2006-01-02"

func (d *dateParam) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	*d = dateParam(strings.TrimSpace(s))
	return nil
}

// resolve parses the value. dayOnly reports a plain date without a time of
// day. An empty value resolves to the zero time.
func (d dateParam) resolve(field string, loc *time.Location) (t time.Time, dayOnly bool, err error) {
	s := string(d)
	if s == "" {
		return time.Time{}, false, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, false, nil
	}
	if t, err := time.ParseInLocation(dayLayout, s, loc); err == nil {
		return t, true, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, false, nil
		}
	}
	return time.Time{}, false, model.Invalid(field, fmt.Sprintf("cannot parse %q as a date", s))
}

// invoiceParams is shared by addInvoice and registerGoods.
type invoiceParams struct {
	InvoiceNumber string              `json:"invoiceNumber"`
	Date          dateParam           `json:"date"`
	Lines         []model.InvoiceLine `json:"items"`
}

func (p invoiceParams) request(loc *time.Location) (model.InvoiceRequest, error) {
	date, _, err := p.Date.resolve("date", loc)
	if err != nil {
		return model.InvoiceRequest{}, err
	}
	return model.InvoiceRequest{
		InvoiceNumber: p.InvoiceNumber,
		Date:          date,
		Lines:         p.Lines,
	}, nil
}
