// Package data holds the PostgreSQL repositories backing the market series
// and the persisted snapshots.
package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/vantage/internal/contracts"
)

// PriceRepository implements contracts.PriceRepository.
// ⭐ SSOT: 일봉 데이터 저장소는 여기서만
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository.
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// SaveBars upserts daily bars. Backfills legitimately re-deliver history,
// so conflicts update in place.
func (r *PriceRepository) SaveBars(ctx context.Context, bars []contracts.PriceBar) error {
	query := `
		INSERT INTO market.daily_bars (symbol, trade_date, open_price, high_price, low_price, close_price, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume
	`
	for _, bar := range bars {
		_, err := r.pool.Exec(ctx, query,
			bar.Symbol, bar.Date, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume,
		)
		if err != nil {
			return fmt.Errorf("save bar %s %s: %w", bar.Symbol, bar.Date.Format("2006-01-02"), err)
		}
	}
	return nil
}

// GetBars returns the bars for symbol in [from, to], ordered by date.
func (r *PriceRepository) GetBars(ctx context.Context, symbol string, from, to time.Time) ([]contracts.PriceBar, error) {
	query := `
		SELECT symbol, trade_date, open_price, high_price, low_price, close_price, volume
		FROM market.daily_bars
		WHERE symbol = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`
	rows, err := r.pool.Query(ctx, query, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("query bars for %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []contracts.PriceBar
	for rows.Next() {
		var b contracts.PriceBar
		if err := rows.Scan(&b.Symbol, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// LatestDate returns the most recent stored trade date for symbol, or the
// zero time when no bars exist yet.
func (r *PriceRepository) LatestDate(ctx context.Context, symbol string) (time.Time, error) {
	query := `SELECT max(trade_date) FROM market.daily_bars WHERE symbol = $1`

	var latest *time.Time
	err := r.pool.QueryRow(ctx, query, symbol).Scan(&latest)
	if errors.Is(err, pgx.ErrNoRows) || latest == nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("latest date for %s: %w", symbol, err)
	}
	return *latest, nil
}
