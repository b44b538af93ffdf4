package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/vantage/internal/contracts"
)

// defaultBackfillYears is the history depth fetched when a symbol has no
// stored bars yet.
const defaultBackfillYears = 7

// BarSource fetches daily history (the chart API client).
type BarSource interface {
	FetchDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]contracts.PriceBar, error)
	FetchVolatilityIndex(ctx context.Context, symbol string, from, to time.Time) ([]contracts.VolatilityReading, error)
}

// VolFallback serves today's volatility level when the chart API lags (the
// HTML scraper).
type VolFallback interface {
	FetchLevel(ctx context.Context) (*contracts.VolatilityReading, error)
}

// Ingestor pulls market data into the repositories.
// ⭐ SSOT: 시세 수집 파이프라인은 여기서만
type Ingestor struct {
	source   BarSource
	fallback VolFallback // optional
	prices   contracts.PriceRepository
	vols     contracts.VolatilityRepository
	log      zerolog.Logger
}

// NewIngestor creates an ingestor. fallback may be nil.
func NewIngestor(
	source BarSource,
	fallback VolFallback,
	prices contracts.PriceRepository,
	vols contracts.VolatilityRepository,
	log zerolog.Logger,
) *Ingestor {
	return &Ingestor{
		source:   source,
		fallback: fallback,
		prices:   prices,
		vols:     vols,
		log:      log.With().Str("component", "ingest").Logger(),
	}
}

// Backfill fetches and stores the full history for symbol plus the
// volatility index in [from, to].
func (g *Ingestor) Backfill(ctx context.Context, symbol, volSymbol string, from, to time.Time) error {
	bars, err := g.source.FetchDailyBars(ctx, symbol, from, to)
	if err != nil {
		return fmt.Errorf("backfill bars for %s: %w", symbol, err)
	}
	if err := g.prices.SaveBars(ctx, bars); err != nil {
		return err
	}

	readings, err := g.source.FetchVolatilityIndex(ctx, volSymbol, from, to)
	if err != nil {
		return fmt.Errorf("backfill volatility index %s: %w", volSymbol, err)
	}
	if err := g.vols.SaveReadings(ctx, readings); err != nil {
		return err
	}

	g.log.Info().
		Str("symbol", symbol).
		Int("bars", len(bars)).
		Int("vol_readings", len(readings)).
		Msg("history backfilled")
	return nil
}

// Sync tops up stored history from the day after the latest stored bar.
// When the chart API has no volatility reading for the latest trading day
// yet, the scrape fallback fills it in.
func (g *Ingestor) Sync(ctx context.Context, symbol, volSymbol string, now time.Time) error {
	latest, err := g.prices.LatestDate(ctx, symbol)
	if err != nil {
		return err
	}

	from := now.AddDate(-defaultBackfillYears, 0, 0)
	if !latest.IsZero() {
		from = latest.AddDate(0, 0, 1)
	}
	if from.After(now) {
		return nil
	}

	if err := g.Backfill(ctx, symbol, volSymbol, from, now); err != nil {
		return err
	}
	return g.fillVolGap(ctx, now)
}

// fillVolGap scrapes today's volatility level when the chart series stops
// short of today.
func (g *Ingestor) fillVolGap(ctx context.Context, now time.Time) error {
	if g.fallback == nil {
		return nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	recent, err := g.vols.GetReadings(ctx, today, today)
	if err != nil {
		return err
	}
	if len(recent) > 0 {
		return nil
	}

	reading, err := g.fallback.FetchLevel(ctx)
	if err != nil {
		// The fallback is best-effort: the feature builder forward-fills.
		g.log.Warn().Err(err).Msg("volatility scrape fallback failed")
		return nil
	}
	if err := g.vols.SaveReadings(ctx, []contracts.VolatilityReading{*reading}); err != nil {
		return err
	}

	g.log.Info().Float64("level", reading.Level).Msg("volatility gap filled from scrape")
	return nil
}
