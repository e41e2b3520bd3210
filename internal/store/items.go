package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/trgovina/internal/model"
)

const itemColumns = `id, name, COALESCE(sku, '') AS sku, category, stock, min_stock,
	price, cost, description, brand, model, color, size, unit, location, supplier,
	created_at, updated_at`

// CreateItem registers a new item and evaluates its low-stock alert.
func (s *Store) CreateItem(ctx context.Context, it model.Item) (*model.Item, error) {
	it.Normalize()
	if err := it.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	it.ID = 0
	it.CreatedAt = now
	it.UpdatedAt = now

	var created *model.Item
	err := s.withTx(ctx, "creating item", func(tx *sqlx.Tx) error {
		if err := checkSKUFree(ctx, tx, it.SKU, 0); err != nil {
			return err
		}
		id, err := insertItem(ctx, tx, &it)
		if err != nil {
			return err
		}
		it.ID = id
		if err := s.reconcileAlert(ctx, tx, &it); err != nil {
			return err
		}
		created, err = getItem(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateItem replaces every editable field of an item. Stock may be set to any
// non-negative value; a manual edit is treated as a stock correction.
func (s *Store) UpdateItem(ctx context.Context, id int64, it model.Item) (*model.Item, error) {
	it.Normalize()
	if err := it.Validate(); err != nil {
		return nil, err
	}

	var updated *model.Item
	err := s.withTx(ctx, "updating item", func(tx *sqlx.Tx) error {
		existing, err := getItem(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := checkSKUFree(ctx, tx, it.SKU, id); err != nil {
			return err
		}

		it.ID = id
		it.CreatedAt = existing.CreatedAt
		it.UpdatedAt = s.now()
		if err := updateItem(ctx, tx, &it); err != nil {
			return err
		}
		if err := s.reconcileAlert(ctx, tx, &it); err != nil {
			return err
		}
		updated, err = getItem(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteItem removes an item together with its sales history and alerts.
func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	return s.withTx(ctx, "deleting item", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting item: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return model.NotFound("item", id)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM sales WHERE item_id = ?`, id); err != nil {
			return fmt.Errorf("deleting item sales: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM alerts WHERE item_id = ?`, id); err != nil {
			return fmt.Errorf("deleting item alerts: %w", err)
		}
		return nil
	})
}

// GetItem returns an item by ID.
func (s *Store) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	it, err := getItem(ctx, s.db, id)
	if err != nil {
		return nil, storageErr("getting item", err)
	}
	return it, nil
}

// ListItems returns all items ordered by name.
func (s *Store) ListItems(ctx context.Context) ([]model.Item, error) {
	items := []model.Item{}
	err := sqlx.SelectContext(ctx, s.db, &items,
		`SELECT `+itemColumns+` FROM items ORDER BY name_key, id`)
	if err != nil {
		return nil, storageErr("listing items", err)
	}
	return items, nil
}

// SearchItems matches query against name, SKU and category ignoring case.
// Items where a field starts with the query come before those that merely
// contain it. An empty query returns every item.
func (s *Store) SearchItems(ctx context.Context, query string) ([]model.Item, error) {
	items, err := s.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	q := model.NameKey(query)
	if q == "" {
		return items, nil
	}

	type hit struct {
		item   model.Item
		prefix bool
	}
	var hits []hit
	for _, it := range items {
		matched, prefix := false, false
		for _, field := range []string{it.Name, it.SKU, it.Category} {
			key := model.NameKey(field)
			if strings.HasPrefix(key, q) {
				matched, prefix = true, true
				break
			}
			if strings.Contains(key, q) {
				matched = true
			}
		}
		if matched {
			hits = append(hits, hit{item: it, prefix: prefix})
		}
	}

	// items are already in name order; a stable sort keeps it within each rank.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].prefix && !hits[j].prefix
	})

	result := make([]model.Item, 0, len(hits))
	for _, h := range hits {
		result = append(result, h.item)
	}
	return result, nil
}

// LowStockItems returns items at or below their reorder threshold.
func (s *Store) LowStockItems(ctx context.Context) ([]model.Item, error) {
	items := []model.Item{}
	err := sqlx.SelectContext(ctx, s.db, &items,
		`SELECT `+itemColumns+` FROM items WHERE stock <= min_stock ORDER BY name_key, id`)
	if err != nil {
		return nil, storageErr("listing low stock items", err)
	}
	return items, nil
}

func getItem(ctx context.Context, q sqlx.QueryerContext, id int64) (*model.Item, error) {
	it := &model.Item{}
	err := sqlx.GetContext(ctx, q, it, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("item", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return it, nil
}

// findItemByName returns the oldest item whose name matches under NameKey, or
// nil if there is none.
func findItemByName(ctx context.Context, q sqlx.QueryerContext, name string) (*model.Item, error) {
	it := &model.Item{}
	err := sqlx.GetContext(ctx, q, it,
		`SELECT `+itemColumns+` FROM items WHERE name_key = ? ORDER BY id LIMIT 1`,
		model.NameKey(name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up item by name: %w", err)
	}
	return it, nil
}

func checkSKUFree(ctx context.Context, q sqlx.QueryerContext, sku string, selfID int64) error {
	if sku == "" {
		return nil
	}
	var owner int64
	err := sqlx.GetContext(ctx, q, &owner, `SELECT id FROM items WHERE sku = ? AND id <> ?`, sku, selfID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking sku: %w", err)
	}
	return model.Invalid("sku", fmt.Sprintf("%q is already used by item %d", sku, owner))
}

// insertItem writes it as a new row. A non-zero it.ID is kept, which lets a
// snapshot restore preserve identities.
func insertItem(ctx context.Context, tx *sqlx.Tx, it *model.Item) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO items (id, name, name_key, sku, category, stock, min_stock, price, cost,
		                    description, brand, model, color, size, unit, location, supplier,
		                    created_at, updated_at)
		 VALUES (NULLIF(?, 0), ?, ?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.Name, model.NameKey(it.Name), it.SKU, it.Category, it.Stock, it.MinStock,
		it.Price.String(), it.Cost, it.Description, it.Brand, it.Model, it.Color, it.Size,
		it.Unit, it.Location, it.Supplier, dbTime(it.CreatedAt), dbTime(it.UpdatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting item id: %w", err)
	}
	return id, nil
}

func updateItem(ctx context.Context, tx *sqlx.Tx, it *model.Item) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE items SET name = ?, name_key = ?, sku = NULLIF(?, ''), category = ?, stock = ?,
		                  min_stock = ?, price = ?, cost = ?, description = ?, brand = ?,
		                  model = ?, color = ?, size = ?, unit = ?, location = ?, supplier = ?,
		                  updated_at = ?
		 WHERE id = ?`,
		it.Name, model.NameKey(it.Name), it.SKU, it.Category, it.Stock, it.MinStock,
		it.Price.String(), it.Cost, it.Description, it.Brand, it.Model, it.Color, it.Size,
		it.Unit, it.Location, it.Supplier, dbTime(it.UpdatedAt), it.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}
