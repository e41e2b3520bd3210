package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/trgovina/internal/model"
)

const alertColumns = `id, item_id, item_name, type, message, is_read, created_at`

// reconcileAlert moves an item between "no alert" and "one open alert". It must
// run in the transaction that changed the item. An item that is still low gets
// its alert refreshed: new message, new timestamp, unread again.
func (s *Store) reconcileAlert(ctx context.Context, tx *sqlx.Tx, it *model.Item) error {
	a, low := model.LowStockAlert(*it, s.now())
	if !low {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM alerts WHERE item_id = ? AND type = ?`, it.ID, model.AlertTypeLowStock)
		if err != nil {
			return fmt.Errorf("clearing alert: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			s.log.Debug().Int64("item_id", it.ID).Msg("low stock alert cleared")
		}
		return nil
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO alerts (item_id, item_name, type, message, is_read, created_at)
		 VALUES (?, ?, ?, ?, 0, ?)
		 ON CONFLICT (item_id, type) DO UPDATE SET
		     item_name = excluded.item_name,
		     message = excluded.message,
		     is_read = 0,
		     created_at = excluded.created_at`,
		a.ItemID, a.ItemName, a.Type, a.Message, dbTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("raising alert: %w", err)
	}
	s.log.Debug().Int64("item_id", it.ID).Float64("stock", it.Stock).Msg("low stock alert raised")
	return nil
}

// Reconcile re-evaluates the low-stock alert of one item. A missing item is
// not an error.
func (s *Store) Reconcile(ctx context.Context, itemID int64) error {
	return s.withTx(ctx, "reconciling alert", func(tx *sqlx.Tx) error {
		it, err := getItem(ctx, tx, itemID)
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return s.reconcileAlert(ctx, tx, it)
	})
}

// ListAlerts returns every alert, newest first.
func (s *Store) ListAlerts(ctx context.Context) ([]model.Alert, error) {
	alerts := []model.Alert{}
	err := sqlx.SelectContext(ctx, s.db, &alerts,
		`SELECT `+alertColumns+` FROM alerts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, storageErr("listing alerts", err)
	}
	return alerts, nil
}

// UnreadAlerts returns alerts not yet marked read, newest first.
func (s *Store) UnreadAlerts(ctx context.Context) ([]model.Alert, error) {
	alerts := []model.Alert{}
	err := sqlx.SelectContext(ctx, s.db, &alerts,
		`SELECT `+alertColumns+` FROM alerts WHERE is_read = 0 ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, storageErr("listing unread alerts", err)
	}
	return alerts, nil
}

// MarkAlertRead marks one alert read. Marking an already read alert succeeds.
func (s *Store) MarkAlertRead(ctx context.Context, id int64) error {
	return s.withTx(ctx, "marking alert read", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE alerts SET is_read = 1 WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("marking alert read: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return model.NotFound("alert", id)
		}
		return nil
	})
}

// MarkAllAlertsRead marks every unread alert read and returns how many changed.
func (s *Store) MarkAllAlertsRead(ctx context.Context) (int64, error) {
	var changed int64
	err := s.withTx(ctx, "marking all alerts read", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE alerts SET is_read = 1 WHERE is_read = 0`)
		if err != nil {
			return fmt.Errorf("marking alerts read: %w", err)
		}
		changed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}
