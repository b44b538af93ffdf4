// Package marketdata holds the in-memory daily series consumed by the
// feature builder. The store is append-only with periodic full refresh;
// dates are strictly increasing with no duplicates.
package marketdata

import (
	"fmt"
	"time"

	"github.com/wonny/vantage/internal/contracts"
)

// Series owns the ordered price bars for one symbol plus the shared
// volatility-index readings.
type Series struct {
	Symbol   string
	Bars     []contracts.PriceBar
	VolIndex []contracts.VolatilityReading
}

// New creates an empty series for symbol.
func New(symbol string) *Series {
	return &Series{Symbol: symbol}
}

// Backfill replaces the full bar history. Bars must be ordered by date
// with no duplicates.
func (s *Series) Backfill(bars []contracts.PriceBar) error {
	if err := validateBarOrder(bars); err != nil {
		return err
	}
	s.Bars = bars
	return nil
}

// AppendBar appends one bar. The date must be strictly after the last
// recorded bar; retroactive mutation is not supported here.
func (s *Series) AppendBar(bar contracts.PriceBar) error {
	if n := len(s.Bars); n > 0 && !bar.Date.After(s.Bars[n-1].Date) {
		return fmt.Errorf("append bar %s: date not after last bar %s",
			bar.Date.Format("2006-01-02"), s.Bars[n-1].Date.Format("2006-01-02"))
	}
	s.Bars = append(s.Bars, bar)
	return nil
}

// SetVolIndex replaces the volatility-index series. Readings must be
// ordered by date with no duplicates.
func (s *Series) SetVolIndex(readings []contracts.VolatilityReading) error {
	for i := 1; i < len(readings); i++ {
		if !readings[i].Date.After(readings[i-1].Date) {
			return fmt.Errorf("volatility series: dates not strictly increasing at %s",
				readings[i].Date.Format("2006-01-02"))
		}
	}
	s.VolIndex = readings
	return nil
}

// AppendVolReading appends one volatility reading in date order.
func (s *Series) AppendVolReading(r contracts.VolatilityReading) error {
	if n := len(s.VolIndex); n > 0 && !r.Date.After(s.VolIndex[n-1].Date) {
		return fmt.Errorf("append volatility reading %s: date not after last reading",
			r.Date.Format("2006-01-02"))
	}
	s.VolIndex = append(s.VolIndex, r)
	return nil
}

// VolAt returns the volatility level at or before date (forward fill).
// ok is false when no reading exists on or before date; the caller must
// drop that row rather than interpolate backward.
func (s *Series) VolAt(date time.Time) (float64, bool) {
	// Binary search for the last reading <= date.
	lo, hi := 0, len(s.VolIndex)-1
	idx := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if s.VolIndex[mid].Date.After(date) {
			hi = mid - 1
		} else {
			idx = mid
			lo = mid + 1
		}
	}
	if idx < 0 {
		return 0, false
	}
	return s.VolIndex[idx].Level, true
}

// BarsUpTo returns the bars with date <= upto.
func (s *Series) BarsUpTo(upto time.Time) []contracts.PriceBar {
	n := len(s.Bars)
	for n > 0 && s.Bars[n-1].Date.After(upto) {
		n--
	}
	return s.Bars[:n]
}

// LastBar returns the most recent bar.
func (s *Series) LastBar() (contracts.PriceBar, bool) {
	if len(s.Bars) == 0 {
		return contracts.PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Len returns the number of bars.
func (s *Series) Len() int { return len(s.Bars) }

func validateBarOrder(bars []contracts.PriceBar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Date.After(bars[i-1].Date) {
			return fmt.Errorf("bar series: dates not strictly increasing at %s",
				bars[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}
