// Package pipeline holds the two orchestrations: weekly training and the
// intraday inference run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/vantage/internal/contracts"
	"github.com/wonny/vantage/internal/features"
	"github.com/wonny/vantage/internal/marketdata"
	"github.com/wonny/vantage/internal/models"
	"github.com/wonny/vantage/internal/modelstore"
	"github.com/wonny/vantage/pkg/config"
)

// trainingLookbackYears bounds the history loaded for one training run.
const trainingLookbackYears = 6

// Trainer fits and atomically activates one model bundle per run.
// ⭐ SSOT: 모델 학습 파이프라인은 여기서만
type Trainer struct {
	prices  contracts.PriceRepository
	vols    contracts.VolatilityRepository
	store   *modelstore.Store
	builder *features.Builder
	cfg     config.ModelConfig
	log     zerolog.Logger
}

// NewTrainer creates a trainer.
func NewTrainer(
	prices contracts.PriceRepository,
	vols contracts.VolatilityRepository,
	store *modelstore.Store,
	cfg config.ModelConfig,
	log zerolog.Logger,
) *Trainer {
	return &Trainer{
		prices:  prices,
		vols:    vols,
		store:   store,
		builder: features.NewBuilder(log),
		cfg:     cfg,
		log:     log.With().Str("component", "trainer").Logger(),
	}
}

// Train loads history, fits all five models and activates the new bundle.
// Either the full bundle is activated or the previous one stays current.
func (t *Trainer) Train(ctx context.Context, symbol string, now time.Time) (*models.Bundle, error) {
	from := now.AddDate(-trainingLookbackYears, 0, 0)

	series, bars, err := t.loadSeries(ctx, symbol, from, now)
	if err != nil {
		return nil, err
	}

	rows, err := t.builder.Build(series, now)
	if err != nil {
		return nil, fmt.Errorf("build features for %s: %w", symbol, err)
	}

	labels := features.BuildLabels(rows, alignBars(rows, bars))

	version := modelstore.NewVersion(now)
	bundle, err := models.Fit(symbol, version, rows, labels, models.TrainerConfig{
		Seed:           t.cfg.Seed,
		StreakDecay:    t.cfg.StreakDecay,
		SkewMultiplier: t.cfg.SkewMultiplier,
	})
	if err != nil {
		return nil, fmt.Errorf("fit models for %s: %w", symbol, err)
	}

	if err := t.store.Save(bundle); err != nil {
		return nil, fmt.Errorf("activate bundle %s: %w", version, err)
	}

	t.log.Info().
		Str("symbol", symbol).
		Str("version", version).
		Int("samples", bundle.Samples).
		Msg("model bundle trained and activated")
	return bundle, nil
}

// loadSeries reads bars and volatility readings from the repositories into
// an in-memory series.
func (t *Trainer) loadSeries(ctx context.Context, symbol string, from, to time.Time) (*marketdata.Series, []contracts.PriceBar, error) {
	bars, err := t.prices.GetBars(ctx, symbol, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("load bars for %s: %w", symbol, err)
	}
	readings, err := t.vols.GetReadings(ctx, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("load vol readings: %w", err)
	}

	series := marketdata.New(symbol)
	if err := series.Backfill(bars); err != nil {
		return nil, nil, err
	}
	if err := series.SetVolIndex(readings); err != nil {
		return nil, nil, err
	}
	return series, bars, nil
}

// alignBars returns bars matched one-to-one to the feature rows by date.
func alignBars(rows []contracts.FeatureRow, bars []contracts.PriceBar) []contracts.PriceBar {
	byDate := make(map[time.Time]contracts.PriceBar, len(bars))
	for _, bar := range bars {
		byDate[bar.Date] = bar
	}
	aligned := make([]contracts.PriceBar, len(rows))
	for i, row := range rows {
		aligned[i] = byDate[row.Date]
	}
	return aligned
}
