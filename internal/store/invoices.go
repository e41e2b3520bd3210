package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/erazemk/trgovina/internal/model"
)

const invoiceColumns = `id, invoice_number, date, subtotal, tax, total, created_at`

const lineColumns = `name, quantity, unit_price, total, vehicle_number, quality, category`

// RecordInvoice appends an invoice. It does not touch inventory; see
// FoldIntoInventory and RegisterGoods.
func (s *Store) RecordInvoice(ctx context.Context, req model.InvoiceRequest) (*model.Invoice, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	inv := model.NewInvoice(req, s.now())

	err := s.withTx(ctx, "recording invoice", func(tx *sqlx.Tx) error {
		return recordInvoice(ctx, tx, &inv)
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetInvoice returns an invoice with its lines.
func (s *Store) GetInvoice(ctx context.Context, id int64) (*model.Invoice, error) {
	inv := &model.Invoice{}
	err := sqlx.GetContext(ctx, s.db, inv, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("invoice", id)
	}
	if err != nil {
		return nil, storageErr("getting invoice", err)
	}

	inv.Lines = []model.InvoiceLine{}
	err = sqlx.SelectContext(ctx, s.db, &inv.Lines,
		`SELECT `+lineColumns+` FROM invoice_lines WHERE invoice_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, storageErr("getting invoice lines", err)
	}
	return inv, nil
}

// ListInvoices returns every invoice with its lines, latest date first.
func (s *Store) ListInvoices(ctx context.Context) ([]model.Invoice, error) {
	invoices := []model.Invoice{}
	err := sqlx.SelectContext(ctx, s.db, &invoices,
		`SELECT `+invoiceColumns+` FROM invoices ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, storageErr("listing invoices", err)
	}

	var lines []struct {
		InvoiceID int64 `db:"invoice_id"`
		model.InvoiceLine
	}
	err = sqlx.SelectContext(ctx, s.db, &lines,
		`SELECT invoice_id, `+lineColumns+` FROM invoice_lines ORDER BY invoice_id, position`)
	if err != nil {
		return nil, storageErr("listing invoice lines", err)
	}

	byInvoice := make(map[int64][]model.InvoiceLine, len(invoices))
	for _, l := range lines {
		byInvoice[l.InvoiceID] = append(byInvoice[l.InvoiceID], l.InvoiceLine)
	}
	for i := range invoices {
		invoices[i].Lines = byInvoice[invoices[i].ID]
		if invoices[i].Lines == nil {
			invoices[i].Lines = []model.InvoiceLine{}
		}
	}
	return invoices, nil
}

// DeleteInvoice removes an invoice and its lines. Stock previously folded from
// it stays where it is.
func (s *Store) DeleteInvoice(ctx context.Context, id int64) error {
	return s.withTx(ctx, "deleting invoice", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting invoice: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return model.NotFound("invoice", id)
		}
		return nil
	})
}

// FoldIntoInventory adds each line's quantity to the item of the same name,
// creating the item when none exists. Names match ignoring case and extra
// whitespace. All lines are applied or none.
func (s *Store) FoldIntoInventory(ctx context.Context, lines []model.InvoiceLine, receiptDate time.Time) ([]model.FoldResult, error) {
	if err := model.ValidateLines(lines); err != nil {
		return nil, err
	}
	if receiptDate.IsZero() {
		receiptDate = s.now()
	}

	var results []model.FoldResult
	err := s.withTx(ctx, "folding invoice into inventory", func(tx *sqlx.Tx) error {
		var err error
		results, err = s.fold(ctx, tx, lines, receiptDate)
		return err
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// RegisterGoods records an invoice and folds its lines into inventory as a
// single unit.
func (s *Store) RegisterGoods(ctx context.Context, req model.InvoiceRequest) (*model.Invoice, []model.FoldResult, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	inv := model.NewInvoice(req, s.now())

	var results []model.FoldResult
	err := s.withTx(ctx, "registering goods", func(tx *sqlx.Tx) error {
		if err := recordInvoice(ctx, tx, &inv); err != nil {
			return err
		}
		var err error
		results, err = s.fold(ctx, tx, inv.Lines, inv.Date)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return &inv, results, nil
}

func recordInvoice(ctx context.Context, tx *sqlx.Tx, inv *model.Invoice) error {
	var taken int
	if err := sqlx.GetContext(ctx, tx, &taken,
		`SELECT COUNT(*) FROM invoices WHERE invoice_number = ?`, inv.InvoiceNumber); err != nil {
		return fmt.Errorf("checking invoice number: %w", err)
	}
	if taken > 0 {
		return model.Invalid("invoiceNumber", fmt.Sprintf("%q is already recorded", inv.InvoiceNumber))
	}
	id, err := insertInvoice(ctx, tx, inv)
	if err != nil {
		return err
	}
	inv.ID = id
	return nil
}

func insertInvoice(ctx context.Context, tx *sqlx.Tx, inv *model.Invoice) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO invoices (id, invoice_number, date, subtotal, tax, total, created_at)
		 VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.InvoiceNumber, dbTime(inv.Date), inv.Subtotal.String(), inv.Tax.String(),
		inv.Total.String(), dbTime(inv.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting invoice: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting invoice id: %w", err)
	}

	for i, l := range inv.Lines {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO invoice_lines (invoice_id, position, name, quantity, unit_price, total,
			                            vehicle_number, quality, category)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i, l.Name, l.Quantity, l.UnitPrice.String(), l.Total.String(),
			l.VehicleNumber, l.Quality, l.Category,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting invoice line %d: %w", i+1, err)
		}
	}
	return id, nil
}

func (s *Store) fold(ctx context.Context, tx *sqlx.Tx, lines []model.InvoiceLine, receiptDate time.Time) ([]model.FoldResult, error) {
	now := s.now()
	results := make([]model.FoldResult, 0, len(lines))

	for _, l := range lines {
		existing, err := findItemByName(ctx, tx, l.Name)
		if err != nil {
			return nil, err
		}

		var it *model.Item
		created := existing == nil
		if created {
			it = newItemFromLine(l, receiptDate.In(s.loc), now)
			it.ID, err = insertItem(ctx, tx, it)
			if err != nil {
				return nil, err
			}
		} else {
			it = existing
			it.Stock = addStock(it.Stock, l.Quantity)
			it.Price = l.UnitPrice
			if l.Category != "" {
				it.Category = l.Category
			}
			if l.Quality != "" {
				it.Description += " | Quality: " + l.Quality
			}
			it.UpdatedAt = now
			if err := updateItem(ctx, tx, it); err != nil {
				return nil, err
			}
		}

		if err := s.reconcileAlert(ctx, tx, it); err != nil {
			return nil, err
		}
		results = append(results, model.FoldResult{
			ItemID:  it.ID,
			Name:    it.Name,
			Created: created,
			Stock:   it.Stock,
		})
	}
	return results, nil
}

func newItemFromLine(l model.InvoiceLine, receiptDate, now time.Time) *model.Item {
	category := l.Category
	if category == "" {
		category = model.DefaultCategory
	}
	desc := "Added from invoice on " + receiptDate.Format("2006-01-02")
	if l.Quality != "" {
		desc += " | Quality: " + l.Quality
	}
	if l.VehicleNumber != "" {
		desc += " | Vehicle: " + l.VehicleNumber
	}
	return &model.Item{
		Name:        l.Name,
		Category:    category,
		Stock:       l.Quantity,
		Price:       l.UnitPrice,
		Cost:        decimal.NewNullDecimal(l.UnitPrice.Mul(model.EstimatedCostRatio)),
		Description: desc,
		Unit:        model.DefaultUnit,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
