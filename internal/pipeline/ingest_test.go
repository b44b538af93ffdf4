package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vantage/internal/contracts"
)

type stubSource struct {
	bars     []contracts.PriceBar
	readings []contracts.VolatilityReading
	lastFrom time.Time
}

func (s *stubSource) FetchDailyBars(_ context.Context, symbol string, from, to time.Time) ([]contracts.PriceBar, error) {
	s.lastFrom = from
	var out []contracts.PriceBar
	for _, b := range s.bars {
		if !b.Date.Before(from) && !b.Date.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *stubSource) FetchVolatilityIndex(_ context.Context, _ string, from, to time.Time) ([]contracts.VolatilityReading, error) {
	var out []contracts.VolatilityReading
	for _, r := range s.readings {
		if !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

type stubFallback struct {
	reading *contracts.VolatilityReading
	err     error
	calls   int
}

func (s *stubFallback) FetchLevel(context.Context) (*contracts.VolatilityReading, error) {
	s.calls++
	return s.reading, s.err
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sourceFixture() *stubSource {
	src := &stubSource{}
	for d := 1; d <= 20; d++ {
		date := day(2026, 8, d)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		src.bars = append(src.bars, contracts.PriceBar{
			Symbol: testSymbol, Date: date,
			Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000,
		})
		src.readings = append(src.readings, contracts.VolatilityReading{Date: date, Level: 14})
	}
	return src
}

func TestBackfillStoresBarsAndReadings(t *testing.T) {
	src := sourceFixture()
	prices := &memPrices{}
	vols := &memVols{}
	ing := NewIngestor(src, nil, prices, vols, zerolog.Nop())

	err := ing.Backfill(context.Background(), testSymbol, "^INDIAVIX", day(2026, 8, 1), day(2026, 8, 20))
	require.NoError(t, err)

	assert.Len(t, prices.bars, 14)
	assert.Len(t, vols.readings, 14)
}

func TestSyncResumesFromLatestStoredBar(t *testing.T) {
	src := sourceFixture()
	prices := &memPrices{}
	vols := &memVols{}
	ing := NewIngestor(src, nil, prices, vols, zerolog.Nop())

	require.NoError(t, ing.Backfill(context.Background(), testSymbol, "^INDIAVIX", day(2026, 8, 1), day(2026, 8, 7)))
	stored := len(prices.bars)

	require.NoError(t, ing.Sync(context.Background(), testSymbol, "^INDIAVIX", day(2026, 8, 20)))

	assert.Equal(t, day(2026, 8, 8), src.lastFrom) // day after Aug 7, the last stored bar
	assert.Greater(t, len(prices.bars), stored)
}

func TestSyncFillsVolGapFromScrape(t *testing.T) {
	src := sourceFixture()
	// Chart API volatility series stops before the sync date.
	src.readings = src.readings[:len(src.readings)-2]

	fallback := &stubFallback{reading: &contracts.VolatilityReading{Date: day(2026, 8, 20), Level: 15.5}}
	prices := &memPrices{}
	vols := &memVols{}
	ing := NewIngestor(src, fallback, prices, vols, zerolog.Nop())

	require.NoError(t, ing.Sync(context.Background(), testSymbol, "^INDIAVIX", day(2026, 8, 20)))

	assert.Equal(t, 1, fallback.calls)
	last := vols.readings[len(vols.readings)-1]
	assert.Equal(t, 15.5, last.Level)
}

func TestSyncSkipsScrapeWhenReadingPresent(t *testing.T) {
	src := sourceFixture()
	fallback := &stubFallback{reading: &contracts.VolatilityReading{Date: day(2026, 8, 20), Level: 15.5}}
	ing := NewIngestor(src, fallback, &memPrices{}, &memVols{}, zerolog.Nop())

	require.NoError(t, ing.Sync(context.Background(), testSymbol, "^INDIAVIX", day(2026, 8, 20)))

	assert.Equal(t, 0, fallback.calls)
}

func TestScrapeFailureIsNotFatal(t *testing.T) {
	src := sourceFixture()
	src.readings = src.readings[:len(src.readings)-2]
	fallback := &stubFallback{err: errors.New("page layout changed")}
	ing := NewIngestor(src, fallback, &memPrices{}, &memVols{}, zerolog.Nop())

	err := ing.Sync(context.Background(), testSymbol, "^INDIAVIX", day(2026, 8, 20))
	assert.NoError(t, err)
}
