package contracts

import (
	"context"
	"time"
)

// PriceRepository persists daily OHLCV bars.
type PriceRepository interface {
	SaveBars(ctx context.Context, bars []PriceBar) error
	GetBars(ctx context.Context, symbol string, from, to time.Time) ([]PriceBar, error)
	LatestDate(ctx context.Context, symbol string) (time.Time, error)
}

// VolatilityRepository persists daily volatility-index readings.
type VolatilityRepository interface {
	SaveReadings(ctx context.Context, readings []VolatilityReading) error
	GetReadings(ctx context.Context, from, to time.Time) ([]VolatilityReading, error)
}

// SnapshotRepository persists inference output artifacts.
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *MarketSnapshot) error
	Latest(ctx context.Context, symbol string) (*MarketSnapshot, error)
}
