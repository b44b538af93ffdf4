package features

import (
	"math"

	"github.com/wonny/vantage/internal/contracts"
)

// Training label parameters.
const (
	// MomentumHorizon is the forward horizon (trading days) for the
	// momentum label.
	MomentumHorizon = 3

	// MomentumThreshold is the absolute forward-return cutoff above which a
	// day is labeled as a momentum burst.
	MomentumThreshold = 0.015

	// DivergenceWindow is the rolling extrema window for price/RSI
	// divergence detection, and the lag between the two compared extrema.
	DivergenceWindow = 5
)

// LabelSet carries the supervised targets aligned index-for-index with the
// feature rows they were derived from. Valid[i] is false where the forward
// horizon runs past the end of the data; those rows are excluded from
// training, never defaulted.
type LabelSet struct {
	// Reversal: 1 when the next day's return breaks the current streak
	// direction.
	Reversal      []float64
	ReversalValid []bool

	// Momentum: 1 when |forward 3-day return| exceeds MomentumThreshold.
	Momentum      []float64
	MomentumValid []bool

	// NextRange: the next day's high-low range as a fraction of today's
	// close. Quantile regression target.
	NextRange      []float64
	NextRangeValid []bool

	// Divergence: 1 when price and RSI extrema move in opposite
	// directions over the divergence window.
	Divergence      []float64
	DivergenceValid []bool
}

// BuildLabels derives targets from feature rows and the aligned bars.
// bars[i].Date must equal rows[i].Date; the caller aligns them by date
// before calling. Each label looks strictly forward from its row, so the
// last few entries of each target are marked invalid.
func BuildLabels(rows []contracts.FeatureRow, bars []contracts.PriceBar) *LabelSet {
	n := len(rows)
	ls := &LabelSet{
		Reversal:        make([]float64, n),
		ReversalValid:   make([]bool, n),
		Momentum:        make([]float64, n),
		MomentumValid:   make([]bool, n),
		NextRange:       make([]float64, n),
		NextRangeValid:  make([]bool, n),
		Divergence:      make([]float64, n),
		DivergenceValid: make([]bool, n),
	}

	for i := 0; i < n; i++ {
		// Reversal: streak direction today vs. next day's return sign.
		if i+1 < n {
			streak := rows[i].Streak
			next := rows[i+1].Return1D
			if streak != 0 && next != 0 && !math.IsNaN(next) {
				ls.ReversalValid[i] = true
				if (streak > 0) != (next > 0) {
					ls.Reversal[i] = 1
				}
			}
		}

		// Momentum: absolute forward return over the horizon.
		if i+MomentumHorizon < n && rows[i].Close > 0 {
			fwd := rows[i+MomentumHorizon].Close/rows[i].Close - 1
			ls.MomentumValid[i] = true
			if math.Abs(fwd) > MomentumThreshold {
				ls.Momentum[i] = 1
			}
		}

		// Next-day range relative to today's close.
		if i+1 < n && rows[i].Close > 0 {
			ls.NextRange[i] = (bars[i+1].High - bars[i+1].Low) / rows[i].Close
			ls.NextRangeValid[i] = true
		}
	}

	labelDivergence(rows, ls)
	return ls
}

// labelDivergence marks days where the rolling price extremum and the
// rolling RSI extremum over DivergenceWindow rows disagree with their values
// DivergenceWindow rows earlier: a higher price high on a lower RSI high
// (bearish) or a lower price low on a higher RSI low (bullish).
func labelDivergence(rows []contracts.FeatureRow, ls *LabelSet) {
	n := len(rows)
	w := DivergenceWindow
	closeHi := make([]float64, n)
	closeLo := make([]float64, n)
	rsiHi := make([]float64, n)
	rsiLo := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i - w + 1
		if start < 0 {
			start = 0
		}
		chi, clo := rows[start].Close, rows[start].Close
		rhi, rlo := rows[start].RSI14, rows[start].RSI14
		for j := start + 1; j <= i; j++ {
			chi = math.Max(chi, rows[j].Close)
			clo = math.Min(clo, rows[j].Close)
			rhi = math.Max(rhi, rows[j].RSI14)
			rlo = math.Min(rlo, rows[j].RSI14)
		}
		closeHi[i], closeLo[i] = chi, clo
		rsiHi[i], rsiLo[i] = rhi, rlo
	}
	for i := 2 * w; i < n; i++ {
		ls.DivergenceValid[i] = true
		bearish := closeHi[i] > closeHi[i-w] && rsiHi[i] < rsiHi[i-w]
		bullish := closeLo[i] < closeLo[i-w] && rsiLo[i] > rsiLo[i-w]
		if bearish || bullish {
			ls.Divergence[i] = 1
		}
	}
}

// Filter returns the rows and targets where valid is true.
func Filter(rows []contracts.FeatureRow, target []float64, valid []bool) ([]contracts.FeatureRow, []float64) {
	outRows := make([]contracts.FeatureRow, 0, len(rows))
	outTgt := make([]float64, 0, len(rows))
	for i := range rows {
		if valid[i] {
			outRows = append(outRows, rows[i])
			outTgt = append(outTgt, target[i])
		}
	}
	return outRows, outTgt
}
