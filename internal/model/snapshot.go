package model

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SnapshotVersion is written to every exported document.
const SnapshotVersion = "1.0"

// Snapshot is the portable backup document.
type Snapshot struct {
	Items      []Item    `json:"items"`
	Sales      []Sale    `json:"sales"`
	Invoices   []Invoice `json:"invoices"`
	Alerts     []Alert   `json:"alerts"`
	ExportDate time.Time `json:"exportDate"`
	Version    string    `json:"version"`
}

// snapshotKeys must all be present at the top level of an imported document.
var snapshotKeys = []string{"items", "sales", "invoices", "alerts"}

// DecodeSnapshot reads a snapshot document and checks its shape. It never
// touches the store, so a bad document is rejected before anything is cleared.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &ImportFormatError{Reason: "document is not a JSON object", Err: err}
	}
	return snapshotFromRaw(raw)
}

// ParseSnapshot is DecodeSnapshot for an in-memory document.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ImportFormatError{Reason: "document is not a JSON object", Err: err}
	}
	return snapshotFromRaw(raw)
}

func snapshotFromRaw(raw map[string]json.RawMessage) (*Snapshot, error) {
	if raw == nil {
		return nil, &ImportFormatError{Reason: "document is empty"}
	}
	for _, key := range snapshotKeys {
		if _, ok := raw[key]; !ok {
			return nil, &ImportFormatError{Reason: fmt.Sprintf("missing %q", key)}
		}
	}

	var snap Snapshot
	fields := map[string]any{
		"items":    &snap.Items,
		"sales":    &snap.Sales,
		"invoices": &snap.Invoices,
		"alerts":   &snap.Alerts,
	}
	for key, dst := range fields {
		if err := json.Unmarshal(raw[key], dst); err != nil {
			return nil, &ImportFormatError{Reason: fmt.Sprintf("decoding %q", key), Err: err}
		}
	}
	if v, ok := raw["version"]; ok {
		if err := json.Unmarshal(v, &snap.Version); err != nil {
			return nil, &ImportFormatError{Reason: "decoding \"version\"", Err: err}
		}
	}
	if v, ok := raw["exportDate"]; ok {
		// Older documents may carry a date we cannot parse; it is informational only.
		_ = json.Unmarshal(v, &snap.ExportDate)
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Validate checks every record and the uniqueness rules the store relies on.
// Sales and alerts may reference items that are not in the document.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != "1" && !strings.HasPrefix(s.Version, "1.") {
		return &ImportFormatError{Reason: fmt.Sprintf("unsupported version %q", s.Version)}
	}

	itemIDs := map[int64]bool{}
	skus := map[string]bool{}
	for i := range s.Items {
		it := &s.Items[i]
		it.Normalize()
		if err := it.Validate(); err != nil {
			return &ImportFormatError{Reason: fmt.Sprintf("items[%d]", i), Err: err}
		}
		if it.ID != 0 {
			if itemIDs[it.ID] {
				return &ImportFormatError{Reason: fmt.Sprintf("items[%d]: duplicate id %d", i, it.ID)}
			}
			itemIDs[it.ID] = true
		}
		if it.SKU != "" {
			if skus[it.SKU] {
				return &ImportFormatError{Reason: fmt.Sprintf("items[%d]: duplicate sku %q", i, it.SKU)}
			}
			skus[it.SKU] = true
		}
	}

	saleIDs := map[int64]bool{}
	for i := range s.Sales {
		sale := &s.Sales[i]
		if err := sale.Validate(); err != nil {
			return &ImportFormatError{Reason: fmt.Sprintf("sales[%d]", i), Err: err}
		}
		if sale.ID != 0 {
			if saleIDs[sale.ID] {
				return &ImportFormatError{Reason: fmt.Sprintf("sales[%d]: duplicate id %d", i, sale.ID)}
			}
			saleIDs[sale.ID] = true
		}
	}

	invoiceIDs := map[int64]bool{}
	for i := range s.Invoices {
		inv := &s.Invoices[i]
		for j := range inv.Lines {
			inv.Lines[j].Normalize()
		}
		if err := inv.Validate(); err != nil {
			return &ImportFormatError{Reason: fmt.Sprintf("invoices[%d]", i), Err: err}
		}
		if inv.ID != 0 {
			if invoiceIDs[inv.ID] {
				return &ImportFormatError{Reason: fmt.Sprintf("invoices[%d]: duplicate id %d", i, inv.ID)}
			}
			invoiceIDs[inv.ID] = true
		}
		inv.Subtotal = SumLines(inv.Lines)
		if inv.Tax.IsNegative() {
			inv.Tax = decimal.Zero
		}
		inv.Total = inv.Subtotal.Add(inv.Tax)
	}

	alertIDs := map[int64]bool{}
	alertKeys := map[string]bool{}
	for i := range s.Alerts {
		a := &s.Alerts[i]
		if err := a.Validate(); err != nil {
			return &ImportFormatError{Reason: fmt.Sprintf("alerts[%d]", i), Err: err}
		}
		if a.ID != 0 {
			if alertIDs[a.ID] {
				return &ImportFormatError{Reason: fmt.Sprintf("alerts[%d]: duplicate id %d", i, a.ID)}
			}
			alertIDs[a.ID] = true
		}
		key := fmt.Sprintf("%d/%s", a.ItemID, a.Type)
		if alertKeys[key] {
			return &ImportFormatError{Reason: fmt.Sprintf("alerts[%d]: second %s alert for item %d", i, a.Type, a.ItemID)}
		}
		alertKeys[key] = true
	}

	return nil
}
