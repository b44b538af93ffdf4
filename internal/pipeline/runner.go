package pipeline

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wonny/vantage/internal/aggregate"
	"github.com/wonny/vantage/internal/contracts"
	"github.com/wonny/vantage/internal/features"
	"github.com/wonny/vantage/internal/marketdata"
	"github.com/wonny/vantage/internal/models"
	"github.com/wonny/vantage/internal/modelstore"
	"github.com/wonny/vantage/internal/risk"
	"github.com/wonny/vantage/pkg/config"
	vredis "github.com/wonny/vantage/pkg/redis"
)

const (
	// inferenceLookbackYears bounds the history loaded per inference run.
	// Must comfortably exceed the 253-bar feature warmup.
	inferenceLookbackYears = 3

	// returnsWindow is the trailing daily-return sample feeding VaR, Kelly
	// and the jump estimator.
	returnsWindow = 252

	// skewWindow is the trailing window for the range skew input.
	skewWindow = 20

	// barrierMovePct is the symmetric barrier distance.
	barrierMovePct = 0.02

	// tailBars is the trailing bar window for max pain and the GEX proxy.
	tailBars = 20
)

// QuoteSource serves the latest live quote, when one exists.
type QuoteSource interface {
	Quote(symbol string) (contracts.Quote, bool)
}

// SnapshotPublisher pushes fresh snapshots to the hot path (Redis).
type SnapshotPublisher interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Publish(ctx context.Context, channel string, value interface{}) error
}

// Runner executes one inference run end to end: load models, rebuild
// features, predict, run the formula engine, compose and persist.
// ⭐ SSOT: 추론 파이프라인은 여기서만
type Runner struct {
	prices    contracts.PriceRepository
	vols      contracts.VolatilityRepository
	snapshots contracts.SnapshotRepository
	store     *modelstore.Store
	builder   *features.Builder
	agg       *aggregate.Aggregator
	quotes    QuoteSource       // optional
	publisher SnapshotPublisher // optional
	cfg       config.ModelConfig
	log       zerolog.Logger
}

// NewRunner creates a runner. quotes and publisher may be nil: the runner
// then falls back to the last close and skips the hot path.
func NewRunner(
	prices contracts.PriceRepository,
	vols contracts.VolatilityRepository,
	snapshots contracts.SnapshotRepository,
	store *modelstore.Store,
	quotes QuoteSource,
	publisher SnapshotPublisher,
	cfg config.ModelConfig,
	log zerolog.Logger,
) *Runner {
	return &Runner{
		prices:    prices,
		vols:      vols,
		snapshots: snapshots,
		store:     store,
		builder:   features.NewBuilder(log),
		agg:       aggregate.New(log),
		quotes:    quotes,
		publisher: publisher,
		cfg:       cfg,
		log:       log.With().Str("component", "runner").Logger(),
	}
}

// Run produces and persists one snapshot for symbol. A missing or corrupt
// model bundle fails the run; individual model failures degrade fields.
func (r *Runner) Run(ctx context.Context, symbol string, now time.Time) (*contracts.MarketSnapshot, error) {
	bundle, err := r.store.LoadCurrent()
	if err != nil {
		return nil, fmt.Errorf("load model bundle: %w", err)
	}

	from := now.AddDate(-inferenceLookbackYears, 0, 0)
	bars, err := r.prices.GetBars(ctx, symbol, from, now)
	if err != nil {
		return nil, fmt.Errorf("load bars for %s: %w", symbol, err)
	}
	readings, err := r.vols.GetReadings(ctx, from, now)
	if err != nil {
		return nil, fmt.Errorf("load vol readings: %w", err)
	}

	series := marketdata.New(symbol)
	if err := series.Backfill(bars); err != nil {
		return nil, err
	}
	if err := series.SetVolIndex(readings); err != nil {
		return nil, err
	}

	rows, err := r.builder.Build(series, now)
	if err != nil {
		return nil, fmt.Errorf("build features for %s: %w", symbol, err)
	}
	row := rows[len(rows)-1]

	lastBar, ok := series.LastBar()
	if !ok {
		return nil, fmt.Errorf("no bars for %s", symbol)
	}
	spot := r.resolveQuote(symbol, lastBar)

	returns := trailingReturns(rows, returnsWindow)
	skew := risk.Skewness(trailingReturns(rows, skewWindow))

	in := aggregate.Inputs{
		RunID:       uuid.NewString(),
		Symbol:      symbol,
		GeneratedAt: now,
		Spot:        spot,
		PrevClose:   lastBar.Close,
		VIX:         row.VIX,
		Row:         &row,
		Returns:     returns,
		Models:      r.predict(bundle, rows, &row, skew),
		Formulas:    r.formulas(bars, rows, &row, spot.Price, returns, now),
	}

	snapshot := r.agg.Compose(in)

	if err := r.snapshots.Save(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("persist snapshot %s: %w", snapshot.RunID, err)
	}
	r.publish(ctx, snapshot)

	r.log.Info().
		Str("run_id", snapshot.RunID).
		Str("symbol", symbol).
		Str("model_version", bundle.Version).
		Bool("degraded", snapshot.Degraded()).
		Msg("snapshot produced")
	return snapshot, nil
}

// resolveQuote prefers a live tick and falls back to the last stored close.
func (r *Runner) resolveQuote(symbol string, lastBar contracts.PriceBar) contracts.Quote {
	if r.quotes != nil {
		if quote, ok := r.quotes.Quote(symbol); ok {
			return quote
		}
	}
	return contracts.Quote{
		Symbol: symbol,
		Price:  lastBar.Close,
		AsOf:   lastBar.Date,
		Live:   false,
	}
}

// predict runs all five models concurrently. Each failure is carried
// per-model; none of them fails the run.
func (r *Runner) predict(bundle *models.Bundle, rows []contracts.FeatureRow, row *contracts.FeatureRow, skew float64) aggregate.ModelOutputs {
	var out aggregate.ModelOutputs
	var wg sync.WaitGroup
	wg.Add(5)

	go func() {
		defer wg.Done()
		out.Regime, out.RegimeErr = bundle.Regime.Predict(rows)
	}()
	go func() {
		defer wg.Done()
		out.Reversal, out.ReversalErr = bundle.Reversal.Predict(row)
	}()
	go func() {
		defer wg.Done()
		out.Momentum, out.MomentumErr = bundle.Momentum.Predict(row)
	}()
	go func() {
		defer wg.Done()
		out.Range, out.RangeErr = bundle.Range.Predict(row, skew)
	}()
	go func() {
		defer wg.Done()
		out.Divergence, out.DivergenceErr = bundle.Divergence.Predict(row, rows)
	}()

	wg.Wait()
	return out
}

// formulas runs the deterministic calculators.
func (r *Runner) formulas(bars []contracts.PriceBar, rows []contracts.FeatureRow, row *contracts.FeatureRow, spot float64, returns []float64, now time.Time) aggregate.FormulaOutputs {
	var out aggregate.FormulaOutputs

	out.Risk, out.RiskOK = risk.Metrics(returns)
	out.Hurst = risk.Hurst(trailingLogCloses(rows, returnsWindow))
	out.WeekendGap = risk.WeekendGaps(bars, now)

	annualVol := row.Volatility20D
	out.Theta = risk.ATMThetaPerDay(spot, annualVol, risk.DaysToMonthlyExpiry(now))

	tail := bars
	if len(tail) > tailBars {
		tail = tail[len(tail)-tailBars:]
	}
	out.MaxPain = risk.MaxPain(tail)
	out.GEX = risk.GEXLevelProxy(tail)
	out.PivotS1 = risk.PivotS1(bars[len(bars)-1])

	mcCfg := risk.MonteCarloConfig{
		Spot:        spot,
		AnnualVol:   annualVol,
		HorizonDays: r.cfg.MonteCarlo.HorizonDays,
		Paths:       r.cfg.MonteCarlo.Paths,
		DailyDrift:  risk.Mean(returns),
		Jump:        risk.EstimateJumps(returns),
		Seed:        r.cfg.Seed + now.Unix(),
	}
	if cone, err := risk.SimulateCone(mcCfg); err == nil {
		out.Cone = cone
	} else {
		r.log.Warn().Err(err).Msg("price cone simulation skipped")
	}
	if surface, err := risk.SimulateSurface(mcCfg); err == nil {
		out.Surface = surface
	} else {
		r.log.Warn().Err(err).Msg("probability surface simulation skipped")
	}

	out.Barrier = risk.BarrierPair(spot, annualVol, barrierMovePct, r.cfg.MonteCarlo.HorizonDays)
	return out
}

// publish pushes the snapshot to the hot path. Failures are logged, never
// fatal: Postgres already holds the record.
func (r *Runner) publish(ctx context.Context, snapshot *contracts.MarketSnapshot) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Set(ctx, vredis.SnapshotKey(snapshot.Symbol), snapshot, vredis.TTLMedium); err != nil {
		r.log.Warn().Err(err).Msg("snapshot cache set failed")
	}
	if err := r.publisher.Publish(ctx, vredis.SnapshotChannel(snapshot.Symbol), snapshot); err != nil {
		r.log.Warn().Err(err).Msg("snapshot publish failed")
	}
}

func trailingReturns(rows []contracts.FeatureRow, window int) []float64 {
	start := len(rows) - window
	if start < 0 {
		start = 0
	}
	out := make([]float64, 0, len(rows)-start)
	for _, row := range rows[start:] {
		out = append(out, row.Return1D)
	}
	return out
}

func trailingLogCloses(rows []contracts.FeatureRow, window int) []float64 {
	start := len(rows) - window
	if start < 0 {
		start = 0
	}
	out := make([]float64, 0, len(rows)-start)
	for _, row := range rows[start:] {
		out = append(out, math.Log(row.Close))
	}
	return out
}
