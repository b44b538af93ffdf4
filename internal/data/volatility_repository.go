package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/vantage/internal/contracts"
)

// VolatilityRepository implements contracts.VolatilityRepository.
// One shared series, keyed by date only.
type VolatilityRepository struct {
	pool *pgxpool.Pool
}

// NewVolatilityRepository creates a new volatility repository.
func NewVolatilityRepository(pool *pgxpool.Pool) *VolatilityRepository {
	return &VolatilityRepository{pool: pool}
}

// SaveReadings upserts volatility-index readings.
func (r *VolatilityRepository) SaveReadings(ctx context.Context, readings []contracts.VolatilityReading) error {
	query := `
		INSERT INTO market.vol_readings (trade_date, level)
		VALUES ($1, $2)
		ON CONFLICT (trade_date) DO UPDATE SET level = EXCLUDED.level
	`
	for _, reading := range readings {
		if _, err := r.pool.Exec(ctx, query, reading.Date, reading.Level); err != nil {
			return fmt.Errorf("save vol reading %s: %w", reading.Date.Format("2006-01-02"), err)
		}
	}
	return nil
}

// GetReadings returns the readings in [from, to], ordered by date.
func (r *VolatilityRepository) GetReadings(ctx context.Context, from, to time.Time) ([]contracts.VolatilityReading, error) {
	query := `
		SELECT trade_date, level
		FROM market.vol_readings
		WHERE trade_date BETWEEN $1 AND $2
		ORDER BY trade_date ASC
	`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query vol readings: %w", err)
	}
	defer rows.Close()

	var readings []contracts.VolatilityReading
	for rows.Next() {
		var v contracts.VolatilityReading
		if err := rows.Scan(&v.Date, &v.Level); err != nil {
			return nil, err
		}
		readings = append(readings, v)
	}
	return readings, rows.Err()
}
