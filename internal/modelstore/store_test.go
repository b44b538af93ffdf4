package modelstore

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vantage/internal/contracts"
	"github.com/wonny/vantage/internal/features"
	"github.com/wonny/vantage/internal/marketdata"
	"github.com/wonny/vantage/internal/models"
)

func fitTestBundle(t *testing.T, version string) (*models.Bundle, []contracts.FeatureRow) {
	t.Helper()
	rows, labels := trainingFixture(t)
	bundle, err := models.Fit("SPY", version, rows, labels, models.TrainerConfig{Seed: 5})
	require.NoError(t, err)
	return bundle, rows
}

// trainingFixture builds a synthetic random-walk feature table long enough
// to fit every model.
func trainingFixture(t *testing.T) ([]contracts.FeatureRow, *features.LabelSet) {
	t.Helper()
	rng := rand.New(rand.NewSource(77))
	s := marketdata.New("SPY")
	date := time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)
	price := 100.0
	var bars []contracts.PriceBar
	var readings []contracts.VolatilityReading
	for len(bars) < 900 {
		if wd := date.Weekday(); wd != time.Saturday && wd != time.Sunday {
			open := price
			price *= 1 + rng.NormFloat64()*0.01
			bars = append(bars, contracts.PriceBar{
				Symbol: "SPY", Date: date,
				Open: open, High: math.Max(open, price) * 1.003,
				Low: math.Min(open, price) * 0.997, Close: price,
				Volume: 1_000_000 + rng.Int63n(400_000),
			})
			readings = append(readings, contracts.VolatilityReading{Date: date, Level: 14 + rng.Float64()*12})
		}
		date = date.AddDate(0, 0, 1)
	}
	require.NoError(t, s.Backfill(bars))
	require.NoError(t, s.SetVolIndex(readings))

	rows, err := features.NewBuilder(zerolog.Nop()).Build(s, date)
	require.NoError(t, err)

	byDate := make(map[time.Time]contracts.PriceBar, len(bars))
	for _, bar := range bars {
		byDate[bar.Date] = bar
	}
	aligned := make([]contracts.PriceBar, len(rows))
	for i, row := range rows {
		aligned[i] = byDate[row.Date]
	}
	return rows, features.BuildLabels(rows, aligned)
}

func TestSaveLoadRoundTripPredictsIdentically(t *testing.T) {
	store := New(t.TempDir(), zerolog.Nop())
	bundle, rows := fitTestBundle(t, "v-roundtrip")

	require.NoError(t, store.Save(bundle))
	loaded, err := store.LoadCurrent()
	require.NoError(t, err)

	require.Equal(t, bundle.Version, loaded.Version)
	require.Equal(t, bundle.Samples, loaded.Samples)

	last := &rows[len(rows)-1]
	wantRegime, err := bundle.Regime.Predict(rows)
	require.NoError(t, err)
	gotRegime, err := loaded.Regime.Predict(rows)
	require.NoError(t, err)
	assert.Equal(t, wantRegime, gotRegime)

	wantRev, err := bundle.Reversal.Predict(last)
	require.NoError(t, err)
	gotRev, err := loaded.Reversal.Predict(last)
	require.NoError(t, err)
	assert.Equal(t, wantRev, gotRev)

	wantMom, err := bundle.Momentum.Predict(last)
	require.NoError(t, err)
	gotMom, err := loaded.Momentum.Predict(last)
	require.NoError(t, err)
	assert.Equal(t, wantMom, gotMom)

	wantRange, err := bundle.Range.Predict(last, 0.7)
	require.NoError(t, err)
	gotRange, err := loaded.Range.Predict(last, 0.7)
	require.NoError(t, err)
	assert.Equal(t, wantRange, gotRange)

	wantDiv, err := bundle.Divergence.Predict(last, rows)
	require.NoError(t, err)
	gotDiv, err := loaded.Divergence.Predict(last, rows)
	require.NoError(t, err)
	assert.Equal(t, wantDiv, gotDiv)
}

func TestLoadCurrentWithoutPointerIsNotFound(t *testing.T) {
	store := New(t.TempDir(), zerolog.Nop())

	_, err := store.LoadCurrent()
	assert.ErrorIs(t, err, contracts.ErrModelNotFound)
}

func TestLoadMissingSlotIsNotFound(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, zerolog.Nop())
	bundle, _ := fitTestBundle(t, "v-missing-slot")
	require.NoError(t, store.Save(bundle))

	require.NoError(t, os.Remove(filepath.Join(dir, bundle.Version, "momentum.json")))

	_, err := store.LoadCurrent()
	assert.ErrorIs(t, err, contracts.ErrModelNotFound)
}

func TestLoadCorruptSlotIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, zerolog.Nop())
	bundle, _ := fitTestBundle(t, "v-corrupt")
	require.NoError(t, store.Save(bundle))

	slot := filepath.Join(dir, bundle.Version, "range.json")
	require.NoError(t, os.WriteFile(slot, []byte("{not json"), 0o644))

	_, err := store.LoadCurrent()
	assert.ErrorIs(t, err, contracts.ErrModelCorrupt)
}

func TestManifestVersionMismatchIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, zerolog.Nop())
	bundle, _ := fitTestBundle(t, "v-original")
	require.NoError(t, store.Save(bundle))

	// Point CURRENT at a directory whose manifest disagrees.
	require.NoError(t, os.Rename(filepath.Join(dir, "v-original"), filepath.Join(dir, "v-renamed")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CURRENT"), []byte("v-renamed\n"), 0o644))

	_, err := store.LoadCurrent()
	assert.ErrorIs(t, err, contracts.ErrModelCorrupt)
}

func TestSaveRefusesPartialBundle(t *testing.T) {
	store := New(t.TempDir(), zerolog.Nop())
	bundle, _ := fitTestBundle(t, "v-partial")
	bundle.Range = nil

	assert.Error(t, store.Save(bundle))
}

func TestNewTrainingReplacesActiveVersion(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, zerolog.Nop())

	first, _ := fitTestBundle(t, "v-first")
	require.NoError(t, store.Save(first))

	second := *first
	second.Version = "v-second"
	second.TrainedAt = time.Now().UTC()
	require.NoError(t, store.Save(&second))

	loaded, err := store.LoadCurrent()
	require.NoError(t, err)
	assert.Equal(t, "v-second", loaded.Version)

	// The previous version stays loadable until garbage-collected.
	old, err := store.Load("v-first")
	require.NoError(t, err)
	assert.Equal(t, "v-first", old.Version)
}

func TestNewVersionFormat(t *testing.T) {
	v := NewVersion(time.Date(2026, 8, 22, 6, 0, 0, 0, time.UTC))
	assert.Contains(t, v, "20260822T060000-")
	assert.NotEqual(t, v, NewVersion(time.Date(2026, 8, 22, 6, 0, 0, 0, time.UTC)))
}
