// Package features derives the fixed-schema feature table from raw daily
// series. Feature computation uses only data at or before each row's date;
// training labels live in labels.go and are the only place future offsets
// are allowed.
package features

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/vantage/internal/contracts"
	"github.com/wonny/vantage/internal/marketdata"
)

const (
	// VIXPercentileWindow is the trailing window (one trading year) for the
	// volatility-index percentile rank, the longest lookback in the table.
	VIXPercentileWindow = 252

	// MinBars is the minimum history before the builder emits anything.
	MinBars = VIXPercentileWindow + 1

	epsilon = 1e-10
)

var annualization = math.Sqrt(252)

// Builder transforms a market series into feature rows.
type Builder struct {
	log zerolog.Logger
}

// NewBuilder creates a feature builder.
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{log: log.With().Str("component", "features.builder").Logger()}
}

// Build returns one FeatureRow per trading day up to and including upto.
// Rows lacking sufficient lookback (including dates with no volatility
// reading on or before them) are omitted, never synthesized.
func (b *Builder) Build(series *marketdata.Series, upto time.Time) ([]contracts.FeatureRow, error) {
	bars := series.BarsUpTo(upto)
	if len(bars) < MinBars {
		return nil, &contracts.InsufficientHistoryError{Op: "feature_build", Need: MinBars, Have: len(bars)}
	}

	n := len(bars)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	vix := fill(n)
	for i, bar := range bars {
		highs[i] = bar.High
		lows[i] = bar.Low
		closes[i] = bar.Close
		volumes[i] = float64(bar.Volume)
		if level, ok := series.VolAt(bar.Date); ok {
			vix[i] = level
		}
	}

	// Returns
	return1d := pctChange(closes, 1)
	return5d := pctChange(closes, 5)
	return20d := pctChange(closes, 20)
	logReturn := fill(n)
	for i := 1; i < n; i++ {
		if closes[i-1] > 0 {
			logReturn[i] = math.Log(closes[i] / closes[i-1])
		}
	}

	// Volatility
	vol10 := scale(rollingStd(return1d[1:], 10), annualization, 1, n)
	vol20 := scale(rollingStd(return1d[1:], 20), annualization, 1, n)
	vol60 := scale(rollingStd(return1d[1:], 60), annualization, 1, n)

	// Oscillators
	rsi14 := rsi(closes, 14)
	ema12 := ema(closes, 12)
	ema26 := ema(closes, 26)
	macd := make([]float64, n)
	for i := range macd {
		macd[i] = ema12[i] - ema26[i]
	}
	macdSignal := ema(macd, 9)

	// Bollinger (20, 2 sigma)
	bbMid := sma(closes, 20)
	bbStd := rollingStd(closes, 20)

	// ATR
	atr14 := fill(n)
	tr := trueRange(highs, lows, closes)
	atrWindow := sma(tr[1:], 14)
	copy(atr14[15:], atrWindow[14:])

	// Moving averages
	sma5 := sma(closes, 5)
	sma20 := sma(closes, 20)
	sma50 := sma(closes, 50)
	sma200 := sma(closes, 200)
	ema9 := ema(closes, 9)
	ema21 := ema(closes, 21)
	roc10 := pctChange(closes, 10)
	roc20 := pctChange(closes, 20)
	mom10 := diff(closes, 10)
	mom20 := diff(closes, 20)

	// Stochastics
	hi14 := rollingMax(highs, 14)
	lo14 := rollingMin(lows, 14)
	stochK := fill(n)
	williams := fill(n)
	for i := 13; i < n; i++ {
		span := hi14[i] - lo14[i] + epsilon
		stochK[i] = (closes[i] - lo14[i]) / span * 100
		williams[i] = (hi14[i] - closes[i]) / span * -100
	}
	stochD := sma(stochK[13:], 3)

	// Streak
	streak := streaks(return1d)

	// Volatility index
	vix5 := sma(vix, 5)
	vix20 := sma(vix, 20)
	vixPct := percentileRank(vix, VIXPercentileWindow)
	vixChg1 := pctChange(vix, 1)
	vixChg5 := pctChange(vix, 5)

	// Volume
	volSMA20 := sma(volumes, 20)
	volChg := pctChange(volumes, 1)

	rows := make([]contracts.FeatureRow, 0, n-VIXPercentileWindow)
	for i := 0; i < n; i++ {
		bar := bars[i]
		row := contracts.FeatureRow{
			Date:  bar.Date,
			Close: bar.Close,

			Return1D:  return1d[i],
			Return5D:  return5d[i],
			Return20D: return20d[i],
			LogReturn: logReturn[i],

			Volatility10D:  vol10[i],
			Volatility20D:  vol20[i],
			Volatility60D:  vol60[i],
			VolCompression: vol10[i] / (vol60[i] + epsilon),

			RSI14:         rsi14[i],
			MACD:          macd[i],
			MACDSignal:    macdSignal[i],
			MACDHistogram: macd[i] - macdSignal[i],
			WilliamsR:     williams[i],
			StochK:        stochK[i],

			ATR14:         atr14[i],
			ATRPct:        atr14[i] / bar.Close,
			DailyRangePct: (bar.High - bar.Low) / bar.Close,
			BodyRange:     math.Abs(bar.Close-bar.Open) / (bar.High - bar.Low + epsilon),

			SMA5:          sma5[i],
			SMA20:         sma20[i],
			SMA50:         sma50[i],
			SMA200:        sma200[i],
			EMA9:          ema9[i],
			EMA21:         ema21[i],
			PriceVsSMA20:  (bar.Close - sma20[i]) / (sma20[i] + epsilon),
			PriceVsSMA50:  (bar.Close - sma50[i]) / (sma50[i] + epsilon),
			PriceVsSMA200: (bar.Close - sma200[i]) / (sma200[i] + epsilon),
			SMA5Above20:   indicator(sma5[i] > sma20[i], sma5[i], sma20[i]),
			SMA20Above50:  indicator(sma20[i] > sma50[i], sma20[i], sma50[i]),
			ROC10:         roc10[i],
			ROC20:         roc20[i],
			Momentum10:    mom10[i],
			Momentum20:    mom20[i],

			Streak:    streak[i],
			StreakAbs: math.Abs(streak[i]),

			VIX:              vix[i],
			VIX5DAvg:         vix5[i],
			VIX20DAvg:        vix20[i],
			VIXPercentile:    vixPct[i],
			VIXTermStructure: (vix20[i] - vix5[i]) / (vix20[i] + epsilon),
			VIXChange1D:      vixChg1[i],
			VIXChange5D:      vixChg5[i],

			VolumeSMA20:  volSMA20[i],
			VolumeRatio:  volumes[i] / (volSMA20[i] + epsilon),
			VolumeChange: volChg[i],

			DayOfWeek: float64(tradingWeekday(bar.Date)),
			IsFriday:  boolFeature(bar.Date.Weekday() == time.Friday),
			IsMonday:  boolFeature(bar.Date.Weekday() == time.Monday),
		}
		if i >= 13 {
			row.StochD = stochD[i-13]
		} else {
			row.StochD = nan
		}
		if i > 0 && closes[i-1] > 0 {
			row.GapPct = (bar.Open - closes[i-1]) / closes[i-1]
		} else {
			row.GapPct = nan
		}

		// Bollinger position/width, clipped against degenerate bands
		if !anyNaN(bbMid[i], bbStd[i]) {
			upper := bbMid[i] + 2*bbStd[i]
			lower := bbMid[i] - 2*bbStd[i]
			row.BBPosition = clamp((bar.Close-lower)/(upper-lower+epsilon), 0, 1)
			row.BBWidth = (upper - lower) / (bbMid[i] + epsilon)
		} else {
			row.BBPosition = nan
			row.BBWidth = nan
		}

		if !row.Complete() {
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, &contracts.InsufficientHistoryError{Op: "feature_build", Need: MinBars, Have: len(bars)}
	}

	b.log.Debug().
		Int("bars", len(bars)).
		Int("rows", len(rows)).
		Str("first", rows[0].Date.Format("2006-01-02")).
		Str("last", rows[len(rows)-1].Date.Format("2006-01-02")).
		Msg("built feature table")

	return rows, nil
}

// Latest builds the table and returns only the most recent row.
func (b *Builder) Latest(series *marketdata.Series, upto time.Time) (contracts.FeatureRow, error) {
	rows, err := b.Build(series, upto)
	if err != nil {
		return contracts.FeatureRow{}, err
	}
	return rows[len(rows)-1], nil
}

// scale multiplies defined entries by factor and re-aligns a slice that was
// computed on values[offset:] back onto the full index space.
func scale(values []float64, factor float64, offset, n int) []float64 {
	out := fill(n)
	for i, v := range values {
		if !math.IsNaN(v) {
			out[i+offset] = v * factor
		}
	}
	return out
}

func indicator(cond bool, operands ...float64) float64 {
	if anyNaN(operands...) {
		return nan
	}
	if cond {
		return 1
	}
	return 0
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// tradingWeekday maps to the Monday=0 convention.
func tradingWeekday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}
