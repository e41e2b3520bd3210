package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/erazemk/trgovina/internal/model"
)

const saleColumns = `id, item_id, item_name, quantity, unit_price, total, date, created_at`

// RecordSale appends a sale and takes its quantity out of stock in one
// transaction. If the item does not hold enough stock nothing is written and
// the returned error is an *model.InsufficientStockError.
func (s *Store) RecordSale(ctx context.Context, req model.SaleRequest) (*model.Sale, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	sale := model.Sale{
		ItemID:    req.ItemID,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Total:     model.LineTotal(req.Quantity, req.UnitPrice),
		Date:      req.Date,
		CreatedAt: now,
	}
	if req.Total.Valid {
		sale.Total = req.Total.Decimal
	}
	if sale.Date.IsZero() {
		sale.Date = now
	}

	err := s.withTx(ctx, "recording sale", func(tx *sqlx.Tx) error {
		it, err := getItem(ctx, tx, req.ItemID)
		if err != nil {
			return err
		}

		remaining, ok := subtractStock(it.Stock, req.Quantity)
		if !ok {
			return &model.InsufficientStockError{
				ItemID:    it.ID,
				Available: it.Stock,
				Requested: req.Quantity,
			}
		}

		sale.ItemName = it.Name
		sale.ID, err = insertSale(ctx, tx, &sale)
		if err != nil {
			return err
		}

		it.Stock = remaining
		it.UpdatedAt = now
		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET stock = ?, updated_at = ? WHERE id = ?`,
			it.Stock, dbTime(it.UpdatedAt), it.ID,
		); err != nil {
			return fmt.Errorf("updating stock: %w", err)
		}

		return s.reconcileAlert(ctx, tx, it)
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// ListSales returns every sale, most recent business date first.
func (s *Store) ListSales(ctx context.Context) ([]model.Sale, error) {
	sales := []model.Sale{}
	err := sqlx.SelectContext(ctx, s.db, &sales,
		`SELECT `+saleColumns+` FROM sales ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, storageErr("listing sales", err)
	}
	return sales, nil
}

// SalesBetween returns sales dated from..to, both ends inclusive.
func (s *Store) SalesBetween(ctx context.Context, from, to time.Time) ([]model.Sale, error) {
	if to.Before(from) {
		return nil, model.Invalid("to", "must not be before from")
	}
	sales := []model.Sale{}
	err := sqlx.SelectContext(ctx, s.db, &sales,
		`SELECT `+saleColumns+` FROM sales WHERE date >= ? AND date <= ? ORDER BY date DESC, id DESC`,
		dbTime(from), dbTime(to))
	if err != nil {
		return nil, storageErr("listing sales by date", err)
	}
	return sales, nil
}

// TodaySales returns the sales dated within the current local day.
func (s *Store) TodaySales(ctx context.Context) ([]model.Sale, error) {
	start := s.startOfDay(s.now())
	sales := []model.Sale{}
	err := sqlx.SelectContext(ctx, s.db, &sales,
		`SELECT `+saleColumns+` FROM sales WHERE date >= ? AND date < ? ORDER BY date DESC, id DESC`,
		dbTime(start), dbTime(start.AddDate(0, 0, 1)))
	if err != nil {
		return nil, storageErr("listing today's sales", err)
	}
	return sales, nil
}

// ItemSales returns the sales history of one item.
func (s *Store) ItemSales(ctx context.Context, itemID int64) ([]model.Sale, error) {
	sales := []model.Sale{}
	err := sqlx.SelectContext(ctx, s.db, &sales,
		`SELECT `+saleColumns+` FROM sales WHERE item_id = ? ORDER BY date DESC, id DESC`, itemID)
	if err != nil {
		return nil, storageErr("listing item sales", err)
	}
	return sales, nil
}

func insertSale(ctx context.Context, tx *sqlx.Tx, sale *model.Sale) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO sales (id, item_id, item_name, quantity, unit_price, total, date, created_at)
		 VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?, ?)`,
		sale.ID, sale.ItemID, sale.ItemName, sale.Quantity, sale.UnitPrice.String(),
		sale.Total.String(), dbTime(sale.Date), dbTime(sale.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting sale: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting sale id: %w", err)
	}
	return id, nil
}

// addStock and subtractStock do quantity arithmetic in decimal so repeated
// fractional movements do not drift.
func addStock(stock, qty float64) float64 {
	f, _ := decimal.NewFromFloat(stock).Add(decimal.NewFromFloat(qty)).Float64()
	return f
}

func subtractStock(stock, qty float64) (float64, bool) {
	d := decimal.NewFromFloat(stock).Sub(decimal.NewFromFloat(qty))
	if d.IsNegative() {
		return stock, false
	}
	f, _ := d.Float64()
	return f, true
}
