package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Settings keys.
const (
	settingLastExport = "last_export_at"
	settingLastImport = "last_import_at"
)

func setSetting(ctx context.Context, ex sqlx.ExecerContext, key, value string) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

// getTimeSetting returns nil when the key was never written.
func getTimeSetting(ctx context.Context, q sqlx.QueryerContext, key string) (*time.Time, error) {
	var value string
	err := sqlx.GetContext(ctx, q, &value, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", key, err)
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", key, err)
	}
	return &t, nil
}

func setTimeSetting(ctx context.Context, ex sqlx.ExecerContext, key string, t time.Time) error {
	return setSetting(ctx, ex, key, t.UTC().Format(time.RFC3339Nano))
}
