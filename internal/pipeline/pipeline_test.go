package pipeline

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vantage/internal/contracts"
	"github.com/wonny/vantage/internal/modelstore"
	"github.com/wonny/vantage/pkg/config"
)

// ============================================================================
// In-memory repository stubs
// ============================================================================

type memPrices struct {
	bars []contracts.PriceBar
}

func (m *memPrices) SaveBars(_ context.Context, bars []contracts.PriceBar) error {
	m.bars = append(m.bars, bars...)
	return nil
}

func (m *memPrices) GetBars(_ context.Context, symbol string, from, to time.Time) ([]contracts.PriceBar, error) {
	var out []contracts.PriceBar
	for _, b := range m.bars {
		if b.Symbol == symbol && !b.Date.Before(from) && !b.Date.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memPrices) LatestDate(_ context.Context, _ string) (time.Time, error) {
	if len(m.bars) == 0 {
		return time.Time{}, nil
	}
	return m.bars[len(m.bars)-1].Date, nil
}

type memVols struct {
	readings []contracts.VolatilityReading
}

func (m *memVols) SaveReadings(_ context.Context, readings []contracts.VolatilityReading) error {
	m.readings = append(m.readings, readings...)
	return nil
}

func (m *memVols) GetReadings(_ context.Context, from, to time.Time) ([]contracts.VolatilityReading, error) {
	var out []contracts.VolatilityReading
	for _, r := range m.readings {
		if !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

type memSnapshots struct {
	saved []*contracts.MarketSnapshot
}

func (m *memSnapshots) Save(_ context.Context, s *contracts.MarketSnapshot) error {
	m.saved = append(m.saved, s)
	return nil
}

func (m *memSnapshots) Latest(_ context.Context, symbol string) (*contracts.MarketSnapshot, error) {
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].Symbol == symbol {
			return m.saved[i], nil
		}
	}
	return nil, nil
}

type fixedQuotes struct {
	quote contracts.Quote
	ok    bool
}

func (f *fixedQuotes) Quote(string) (contracts.Quote, bool) { return f.quote, f.ok }

// ============================================================================
// Fixtures
// ============================================================================

const testSymbol = "^NSEI"

func seedHistory(t *testing.T, days int) (*memPrices, *memVols, time.Time) {
	t.Helper()
	rng := rand.New(rand.NewSource(11))
	prices := &memPrices{}
	vols := &memVols{}

	date := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	price := 18000.0
	count := 0
	for count < days {
		if wd := date.Weekday(); wd != time.Saturday && wd != time.Sunday {
			open := price
			price *= 1 + rng.NormFloat64()*0.009
			prices.bars = append(prices.bars, contracts.PriceBar{
				Symbol: testSymbol, Date: date,
				Open: open, High: math.Max(open, price) * 1.004,
				Low: math.Min(open, price) * 0.996, Close: price,
				Volume: 200_000_000 + rng.Int63n(80_000_000),
			})
			vols.readings = append(vols.readings, contracts.VolatilityReading{
				Date: date, Level: 12 + rng.Float64()*10,
			})
			count++
		}
		date = date.AddDate(0, 0, 1)
	}
	return prices, vols, date
}

func newStore(t *testing.T, dir string) *modelstore.Store {
	t.Helper()
	return modelstore.New(dir, zerolog.Nop())
}

func modelCfg(dir string) config.ModelConfig {
	return config.ModelConfig{
		Dir:            dir,
		Seed:           9,
		StreakDecay:    0.9,
		SkewMultiplier: 1.2,
		MonteCarlo:     config.MonteCarloConfig{Paths: 2000, HorizonDays: 5},
	}
}

// ============================================================================
// Tests
// ============================================================================

func TestTrainThenRunProducesCompleteSnapshot(t *testing.T) {
	prices, vols, now := seedHistory(t, 900)
	cfg := modelCfg(t.TempDir())
	store := newStore(t, cfg.Dir)

	trainer := NewTrainer(prices, vols, store, cfg, zerolog.Nop())
	bundle, err := trainer.Train(context.Background(), testSymbol, now)
	require.NoError(t, err)
	assert.NotEmpty(t, bundle.Version)

	snapshots := &memSnapshots{}
	runner := NewRunner(prices, vols, snapshots, store, nil, nil, cfg, zerolog.Nop())
	snap, err := runner.Run(context.Background(), testSymbol, now)
	require.NoError(t, err)

	assert.Equal(t, contracts.SnapshotSchemaVersion, snap.SchemaVersion)
	assert.Equal(t, testSymbol, snap.Symbol)
	assert.NotEmpty(t, snap.RunID)
	assert.False(t, snap.Degraded(), "diagnostics: %v", snap.Diagnostics)

	// All five ensemble members produced output.
	require.NotNil(t, snap.Regime)
	require.NotNil(t, snap.Reversal)
	require.NotNil(t, snap.Momentum)
	require.NotNil(t, snap.Range)
	require.NotNil(t, snap.Divergence)

	// Formula outputs are populated and internally consistent.
	assert.LessOrEqual(t, snap.Risk.CVaR95, snap.Risk.VaR95)
	assert.Negative(t, snap.Risk.VaR95)
	assert.GreaterOrEqual(t, snap.Hurst, 0.0)
	assert.LessOrEqual(t, snap.Hurst, 1.0)
	assert.Negative(t, snap.ThetaPerDay)
	assert.Positive(t, snap.MaxPain)
	assert.Positive(t, snap.Cone.P50)
	assert.True(t, snap.Cone.P16 <= snap.Cone.P50 && snap.Cone.P50 <= snap.Cone.P84)
	assert.Equal(t, "LOW", snap.GEX.Confidence)

	// No live quote source: spot falls back to the last close.
	assert.False(t, snap.Spot.Live)
	assert.Equal(t, snap.PrevClose, snap.Spot.Price)
	assert.Zero(t, snap.DailyChange)

	// Persisted through the repository.
	require.Len(t, snapshots.saved, 1)
	assert.Equal(t, snap.RunID, snapshots.saved[0].RunID)
}

func TestRunWithoutTrainedBundleFails(t *testing.T) {
	prices, vols, now := seedHistory(t, 400)
	cfg := modelCfg(t.TempDir())
	store := newStore(t, cfg.Dir)

	runner := NewRunner(prices, vols, &memSnapshots{}, store, nil, nil, cfg, zerolog.Nop())
	_, err := runner.Run(context.Background(), testSymbol, now)

	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrModelNotFound)
}

func TestRunUsesLiveQuote(t *testing.T) {
	prices, vols, now := seedHistory(t, 900)
	cfg := modelCfg(t.TempDir())
	store := newStore(t, cfg.Dir)

	trainer := NewTrainer(prices, vols, store, cfg, zerolog.Nop())
	_, err := trainer.Train(context.Background(), testSymbol, now)
	require.NoError(t, err)

	lastClose := prices.bars[len(prices.bars)-1].Close
	quotes := &fixedQuotes{
		quote: contracts.Quote{Symbol: testSymbol, Price: lastClose * 1.01, AsOf: now, Live: true},
		ok:    true,
	}

	runner := NewRunner(prices, vols, &memSnapshots{}, store, quotes, nil, cfg, zerolog.Nop())
	snap, err := runner.Run(context.Background(), testSymbol, now)
	require.NoError(t, err)

	assert.True(t, snap.Spot.Live)
	assert.InDelta(t, 0.01, snap.DailyChange, 1e-9)
}

func TestTrainWithShortHistoryFails(t *testing.T) {
	prices, vols, now := seedHistory(t, 300)
	cfg := modelCfg(t.TempDir())
	store := newStore(t, cfg.Dir)

	trainer := NewTrainer(prices, vols, store, cfg, zerolog.Nop())
	_, err := trainer.Train(context.Background(), testSymbol, now)

	require.Error(t, err)
	assert.True(t, contracts.IsInsufficientHistory(err))
}

func TestRunIsMemoryless(t *testing.T) {
	prices, vols, now := seedHistory(t, 900)
	cfg := modelCfg(t.TempDir())
	store := newStore(t, cfg.Dir)

	trainer := NewTrainer(prices, vols, store, cfg, zerolog.Nop())
	_, err := trainer.Train(context.Background(), testSymbol, now)
	require.NoError(t, err)

	snapshots := &memSnapshots{}
	runner := NewRunner(prices, vols, snapshots, store, nil, nil, cfg, zerolog.Nop())

	first, err := runner.Run(context.Background(), testSymbol, now)
	require.NoError(t, err)
	second, err := runner.Run(context.Background(), testSymbol, now)
	require.NoError(t, err)

	// Same inputs, same outputs; only the run identity differs.
	assert.NotEqual(t, first.RunID, second.RunID)
	first.RunID, second.RunID = "", ""
	assert.Equal(t, first, second)
}
