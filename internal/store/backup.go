package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/trgovina/internal/model"
)

// ExportSnapshot returns the full contents of the store as one document.
// Writers are held off while the collections are read so the document is
// consistent.
func (s *Store) ExportSnapshot(ctx context.Context) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &model.Snapshot{
		ExportDate: s.now().UTC(),
		Version:    model.SnapshotVersion,
	}
	var err error
	if snap.Items, err = s.ListItems(ctx); err != nil {
		return nil, err
	}
	if snap.Sales, err = s.ListSales(ctx); err != nil {
		return nil, err
	}
	if snap.Invoices, err = s.ListInvoices(ctx); err != nil {
		return nil, err
	}
	if snap.Alerts, err = s.ListAlerts(ctx); err != nil {
		return nil, err
	}

	if err := setTimeSetting(ctx, s.db, settingLastExport, snap.ExportDate); err != nil {
		return nil, storageErr("exporting snapshot", err)
	}
	s.log.Info().
		Int("items", len(snap.Items)).
		Int("sales", len(snap.Sales)).
		Int("invoices", len(snap.Invoices)).
		Int("alerts", len(snap.Alerts)).
		Msg("snapshot exported")
	return snap, nil
}

// ImportSnapshot replaces the whole store with the document. The document is
// validated first; if it is rejected the store is left untouched. Record ids
// from the document are kept.
func (s *Store) ImportSnapshot(ctx context.Context, snap *model.Snapshot) error {
	if snap == nil {
		return &model.ImportFormatError{Reason: "document is empty"}
	}
	if err := snap.Validate(); err != nil {
		return err
	}

	now := s.now()
	err := s.withTx(ctx, "importing snapshot", func(tx *sqlx.Tx) error {
		if err := clearAll(ctx, tx); err != nil {
			return err
		}

		for i := range snap.Items {
			it := snap.Items[i]
			if it.CreatedAt.IsZero() {
				it.CreatedAt = now
			}
			if it.UpdatedAt.IsZero() {
				it.UpdatedAt = it.CreatedAt
			}
			if _, err := insertItem(ctx, tx, &it); err != nil {
				return fmt.Errorf("items[%d]: %w", i, err)
			}
		}

		for i := range snap.Sales {
			sale := snap.Sales[i]
			if sale.CreatedAt.IsZero() {
				sale.CreatedAt = sale.Date
			}
			if _, err := insertSale(ctx, tx, &sale); err != nil {
				return fmt.Errorf("sales[%d]: %w", i, err)
			}
		}

		for i := range snap.Invoices {
			inv := snap.Invoices[i]
			if inv.CreatedAt.IsZero() {
				inv.CreatedAt = now
			}
			if _, err := insertInvoice(ctx, tx, &inv); err != nil {
				return fmt.Errorf("invoices[%d]: %w", i, err)
			}
		}

		for i, a := range snap.Alerts {
			if a.CreatedAt.IsZero() {
				a.CreatedAt = now
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO alerts (id, item_id, item_name, type, message, is_read, created_at)
				 VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?)`,
				a.ID, a.ItemID, a.ItemName, a.Type, a.Message, a.IsRead, dbTime(a.CreatedAt),
			)
			if err != nil {
				return fmt.Errorf("alerts[%d]: %w", i, err)
			}
		}

		return setTimeSetting(ctx, tx, settingLastImport, now)
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Int("items", len(snap.Items)).
		Int("sales", len(snap.Sales)).
		Int("invoices", len(snap.Invoices)).
		Int("alerts", len(snap.Alerts)).
		Msg("snapshot imported")
	return nil
}

// ClearAllData empties the four collections. Settings are kept.
func (s *Store) ClearAllData(ctx context.Context) error {
	err := s.withTx(ctx, "clearing data", func(tx *sqlx.Tx) error {
		return clearAll(ctx, tx)
	})
	if err != nil {
		return err
	}
	s.log.Info().Msg("all data cleared")
	return nil
}

// DatabaseSize reports row counts and when the store was last backed up or
// restored.
func (s *Store) DatabaseSize(ctx context.Context) (*model.DatabaseSize, error) {
	size := &model.DatabaseSize{}
	err := sqlx.GetContext(ctx, s.db, size,
		`SELECT (SELECT COUNT(*) FROM items)    AS items,
		        (SELECT COUNT(*) FROM sales)    AS sales,
		        (SELECT COUNT(*) FROM invoices) AS invoices,
		        (SELECT COUNT(*) FROM alerts)   AS alerts`)
	if err != nil {
		return nil, storageErr("counting rows", err)
	}
	if size.LastExportAt, err = getTimeSetting(ctx, s.db, settingLastExport); err != nil {
		return nil, storageErr("reading backup times", err)
	}
	if size.LastImportAt, err = getTimeSetting(ctx, s.db, settingLastImport); err != nil {
		return nil, storageErr("reading backup times", err)
	}
	return size, nil
}

func clearAll(ctx context.Context, tx *sqlx.Tx) error {
	for _, table := range []string{"alerts", "sales", "invoice_lines", "invoices", "items"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}
