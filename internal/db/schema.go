package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is the full database schema.
//
// Money columns hold decimal strings. Timestamps are fixed-width UTC strings
// so that comparing them as text is chronological.
const schema = `
CREATE TABLE IF NOT EXISTS items (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL CHECK (name <> ''),
    name_key    TEXT NOT NULL,
    sku         TEXT,
    category    TEXT NOT NULL DEFAULT '',
    stock       REAL NOT NULL DEFAULT 0 CHECK (stock >= 0),
    min_stock   REAL NOT NULL DEFAULT 0 CHECK (min_stock >= 0),
    price       TEXT NOT NULL DEFAULT '0',
    cost        TEXT,
    description TEXT NOT NULL DEFAULT '',
    brand       TEXT NOT NULL DEFAULT '',
    model       TEXT NOT NULL DEFAULT '',
    color       TEXT NOT NULL DEFAULT '',
    size        TEXT NOT NULL DEFAULT '',
    unit        TEXT NOT NULL DEFAULT '',
    location    TEXT NOT NULL DEFAULT '',
    supplier    TEXT NOT NULL DEFAULT '',
    created_at  DATETIME NOT NULL,
    updated_at  DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_items_sku
    ON items(sku) WHERE sku IS NOT NULL;

CREATE INDEX IF NOT EXISTS idx_items_name_key ON items(name_key);

CREATE TABLE IF NOT EXISTS sales (
    id          INTEGER PRIMARY KEY,
    item_id     INTEGER NOT NULL,
    item_name   TEXT NOT NULL,
    quantity    REAL NOT NULL CHECK (quantity > 0),
    unit_price  TEXT NOT NULL,
    total       TEXT NOT NULL,
    date        DATETIME NOT NULL,
    created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS invoices (
    id             INTEGER PRIMARY KEY,
    invoice_number TEXT NOT NULL,
    date           DATETIME NOT NULL,
    subtotal       TEXT NOT NULL,
    tax            TEXT NOT NULL DEFAULT '0',
    total          TEXT NOT NULL,
    created_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS invoice_lines (
    invoice_id     INTEGER NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
    position       INTEGER NOT NULL,
    name           TEXT NOT NULL,
    quantity       REAL NOT NULL CHECK (quantity > 0),
    unit_price     TEXT NOT NULL,
    total          TEXT NOT NULL,
    vehicle_number TEXT NOT NULL DEFAULT '',
    quality        TEXT NOT NULL DEFAULT '',
    category       TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (invoice_id, position)
);

CREATE TABLE IF NOT EXISTS alerts (
    id         INTEGER PRIMARY KEY,
    item_id    INTEGER NOT NULL,
    item_name  TEXT NOT NULL,
    type       TEXT NOT NULL CHECK (type IN ('low_stock')),
    message    TEXT NOT NULL,
    is_read    INTEGER NOT NULL DEFAULT 0 CHECK (is_read IN (0, 1)),
    created_at DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_item_type ON alerts(item_id, type);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: index the columns used by date-range and per-item sale queries.
	`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(date)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_item ON sales(item_id)`,
	// Migration 2: unread alert lookups.
	`CREATE INDEX IF NOT EXISTS idx_alerts_unread ON alerts(is_read)`,
}

// Migrate creates the schema and runs the migrations.
func Migrate(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
