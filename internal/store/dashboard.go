package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/erazemk/trgovina/internal/model"
)

// DashboardStats computes the dashboard projections from current state.
func (s *Store) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	stats := &model.DashboardStats{
		TotalValue: decimal.Zero,
		TodaySales: decimal.Zero,
	}

	var stock []struct {
		Stock float64         `db:"stock"`
		Price decimal.Decimal `db:"price"`
		Low   bool            `db:"low"`
	}
	err := sqlx.SelectContext(ctx, s.db, &stock,
		`SELECT stock, price, stock <= min_stock AS low FROM items`)
	if err != nil {
		return nil, storageErr("computing stock value", err)
	}
	for _, row := range stock {
		stats.TotalItems++
		if row.Low {
			stats.LowStockItems++
		}
		stats.TotalValue = stats.TotalValue.Add(decimal.NewFromFloat(row.Stock).Mul(row.Price))
	}

	today, err := s.TodaySales(ctx)
	if err != nil {
		return nil, err
	}
	for _, sale := range today {
		stats.TodaySales = stats.TodaySales.Add(sale.Total)
	}

	if err := sqlx.GetContext(ctx, s.db, &stats.UnreadAlerts,
		`SELECT COUNT(*) FROM alerts WHERE is_read = 0`); err != nil {
		return nil, storageErr("counting unread alerts", err)
	}
	return stats, nil
}
