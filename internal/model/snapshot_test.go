package model

import (
	"errors"
	"strings"
	"testing"
)

const minimalSnapshot = `{
	"items": [{"id": 4, "name": " Cement ", "stock": 10, "minStock": 2, "price": 30000}],
	"sales": [{"id": 1, "itemId": 4, "itemName": "Cement", "quantity": 2, "unitPrice": "30000", "total": "60000", "date": "2024-05-10T09:30:00Z"}],
	"invoices": [{"id": 2, "invoiceNumber": "INV-1", "date": "2024-04-02T00:00:00Z",
		"items": [{"name": "Cement", "quantity": 12, "unitPrice": 25000}], "subtotal": 1, "tax": -5, "total": 1}],
	"alerts": [],
	"exportDate": "not a date",
	"version": "1.0"
}`

func TestDecodeSnapshot(t *testing.T) {
	snap, err := DecodeSnapshot(strings.NewReader(minimalSnapshot))
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if len(snap.Items) != 1 || snap.Items[0].Name != "Cement" {
		t.Errorf("unexpected items %+v", snap.Items)
	}
	if len(snap.Sales) != 1 || snap.Sales[0].Total.String() != "60000" {
		t.Errorf("unexpected sales %+v", snap.Sales)
	}

	inv := snap.Invoices[0]
	if inv.Subtotal.String() != "300000" || !inv.Tax.IsZero() || inv.Total.String() != "300000" {
		t.Errorf("invoice totals not recomputed: subtotal=%s tax=%s total=%s", inv.Subtotal, inv.Tax, inv.Total)
	}
	if !snap.ExportDate.IsZero() {
		t.Errorf("expected unparseable export date to be ignored, got %v", snap.ExportDate)
	}
}

func TestDecodeSnapshotRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `items: []`},
		{"array", `[]`},
		{"null", `null`},
		{"missing alerts", `{"items": [], "sales": [], "invoices": []}`},
		{"items not a list", `{"items": {}, "sales": [], "invoices": [], "alerts": []}`},
		{"future version", `{"items": [], "sales": [], "invoices": [], "alerts": [], "version": "2.0"}`},
		{"invalid item", `{"items": [{"name": "", "stock": 1}], "sales": [], "invoices": [], "alerts": []}`},
		{"duplicate item id", `{"items": [{"id": 1, "name": "A"}, {"id": 1, "name": "B"}], "sales": [], "invoices": [], "alerts": []}`},
		{"duplicate sku", `{"items": [{"name": "A", "sku": "X"}, {"name": "B", "sku": "X"}], "sales": [], "invoices": [], "alerts": []}`},
		{"sale without date", `{"items": [], "sales": [{"itemId": 1, "quantity": 1}], "invoices": [], "alerts": []}`},
		{"unknown alert type", `{"items": [], "sales": [], "invoices": [], "alerts": [{"itemId": 1, "type": "expired"}]}`},
		{"duplicate alert", `{"items": [], "sales": [], "invoices": [], "alerts": [{"itemId": 1, "type": "low_stock"}, {"itemId": 1, "type": "low_stock"}]}`},
	}

	for _, tt := range tests {
		_, err := ParseSnapshot([]byte(tt.doc))
		if !errors.Is(err, ErrImportFormat) {
			t.Errorf("%s: expected import format error, got %v", tt.name, err)
		}
	}
}

func TestParseSnapshotAcceptsMissingVersion(t *testing.T) {
	snap, err := ParseSnapshot([]byte(`{"items": [], "sales": [], "invoices": [], "alerts": []}`))
	if err != nil {
		t.Fatalf("ParseSnapshot: %v", err)
	}
	if snap.Version != "" || len(snap.Items) != 0 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}
