package contracts

import (
	"math"
	"time"
)

// FeatureRow is one fully defined feature vector for one trading day.
// Rows are only emitted once every column is computable from data at or
// before Date; partially defined rows are dropped, never defaulted.
type FeatureRow struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`

	// Returns
	Return1D  float64 `json:"return_1d"`
	Return5D  float64 `json:"return_5d"`
	Return20D float64 `json:"return_20d"`
	LogReturn float64 `json:"log_return"`

	// Volatility (annualized by sqrt 252)
	Volatility10D  float64 `json:"volatility_10d"`
	Volatility20D  float64 `json:"volatility_20d"`
	Volatility60D  float64 `json:"volatility_60d"`
	VolCompression float64 `json:"vol_compression"`

	// Oscillators
	RSI14         float64 `json:"rsi_14"`
	MACD          float64 `json:"macd"`
	MACDSignal    float64 `json:"macd_signal"`
	MACDHistogram float64 `json:"macd_histogram"`
	WilliamsR     float64 `json:"williams_r"`
	StochK        float64 `json:"stoch_k"`
	StochD        float64 `json:"stoch_d"`

	// Bands and range
	BBPosition    float64 `json:"bb_position"`
	BBWidth       float64 `json:"bb_width"`
	ATR14         float64 `json:"atr_14"`
	ATRPct        float64 `json:"atr_pct"`
	DailyRangePct float64 `json:"daily_range_pct"`
	BodyRange     float64 `json:"body_range_ratio"`
	GapPct        float64 `json:"gap_pct"`

	// Moving averages
	SMA5         float64 `json:"sma_5"`
	SMA20        float64 `json:"sma_20"`
	SMA50        float64 `json:"sma_50"`
	SMA200       float64 `json:"sma_200"`
	EMA9         float64 `json:"ema_9"`
	EMA21        float64 `json:"ema_21"`
	PriceVsSMA20 float64 `json:"price_vs_sma20"`
	PriceVsSMA50 float64 `json:"price_vs_sma50"`
	PriceVsSMA200 float64 `json:"price_vs_sma200"`
	SMA5Above20  float64 `json:"sma_5_above_20"`
	SMA20Above50 float64 `json:"sma_20_above_50"`
	ROC10        float64 `json:"roc_10"`
	ROC20        float64 `json:"roc_20"`
	Momentum10   float64 `json:"momentum_10"`
	Momentum20   float64 `json:"momentum_20"`

	// Streak (signed count of consecutive same-direction daily returns)
	Streak    float64 `json:"streak"`
	StreakAbs float64 `json:"streak_abs"`

	// Volatility index
	VIX              float64 `json:"vix"`
	VIX5DAvg         float64 `json:"vix_5d_avg"`
	VIX20DAvg        float64 `json:"vix_20d_avg"`
	VIXPercentile    float64 `json:"vix_percentile"`
	VIXTermStructure float64 `json:"vix_term_structure"`
	VIXChange1D      float64 `json:"vix_change_1d"`
	VIXChange5D      float64 `json:"vix_change_5d"`

	// Volume
	VolumeSMA20  float64 `json:"volume_sma_20"`
	VolumeRatio  float64 `json:"volume_ratio"`
	VolumeChange float64 `json:"volume_change"`

	// Calendar
	DayOfWeek float64 `json:"day_of_week"`
	IsFriday  float64 `json:"is_friday"`
	IsMonday  float64 `json:"is_monday"`
}

// featureAccessors maps column name to field accessor.
// ⭐ SSOT: 컬럼 이름은 여기서만 정의 (모델의 FeatureColumns는 이 레지스트리를 참조)
var featureAccessors = map[string]func(*FeatureRow) float64{
	"close":              func(r *FeatureRow) float64 { return r.Close },
	"return_1d":          func(r *FeatureRow) float64 { return r.Return1D },
	"return_5d":          func(r *FeatureRow) float64 { return r.Return5D },
	"return_20d":         func(r *FeatureRow) float64 { return r.Return20D },
	"log_return":         func(r *FeatureRow) float64 { return r.LogReturn },
	"volatility_10d":     func(r *FeatureRow) float64 { return r.Volatility10D },
	"volatility_20d":     func(r *FeatureRow) float64 { return r.Volatility20D },
	"volatility_60d":     func(r *FeatureRow) float64 { return r.Volatility60D },
	"vol_compression":    func(r *FeatureRow) float64 { return r.VolCompression },
	"rsi_14":             func(r *FeatureRow) float64 { return r.RSI14 },
	"macd":               func(r *FeatureRow) float64 { return r.MACD },
	"macd_signal":        func(r *FeatureRow) float64 { return r.MACDSignal },
	"macd_histogram":     func(r *FeatureRow) float64 { return r.MACDHistogram },
	"williams_r":         func(r *FeatureRow) float64 { return r.WilliamsR },
	"stoch_k":            func(r *FeatureRow) float64 { return r.StochK },
	"stoch_d":            func(r *FeatureRow) float64 { return r.StochD },
	"bb_position":        func(r *FeatureRow) float64 { return r.BBPosition },
	"bb_width":           func(r *FeatureRow) float64 { return r.BBWidth },
	"atr_14":             func(r *FeatureRow) float64 { return r.ATR14 },
	"atr_pct":            func(r *FeatureRow) float64 { return r.ATRPct },
	"daily_range_pct":    func(r *FeatureRow) float64 { return r.DailyRangePct },
	"body_range_ratio":   func(r *FeatureRow) float64 { return r.BodyRange },
	"gap_pct":            func(r *FeatureRow) float64 { return r.GapPct },
	"sma_5":              func(r *FeatureRow) float64 { return r.SMA5 },
	"sma_20":             func(r *FeatureRow) float64 { return r.SMA20 },
	"sma_50":             func(r *FeatureRow) float64 { return r.SMA50 },
	"sma_200":            func(r *FeatureRow) float64 { return r.SMA200 },
	"ema_9":              func(r *FeatureRow) float64 { return r.EMA9 },
	"ema_21":             func(r *FeatureRow) float64 { return r.EMA21 },
	"price_vs_sma20":     func(r *FeatureRow) float64 { return r.PriceVsSMA20 },
	"price_vs_sma50":     func(r *FeatureRow) float64 { return r.PriceVsSMA50 },
	"price_vs_sma200":    func(r *FeatureRow) float64 { return r.PriceVsSMA200 },
	"sma_5_above_20":     func(r *FeatureRow) float64 { return r.SMA5Above20 },
	"sma_20_above_50":    func(r *FeatureRow) float64 { return r.SMA20Above50 },
	"roc_10":             func(r *FeatureRow) float64 { return r.ROC10 },
	"roc_20":             func(r *FeatureRow) float64 { return r.ROC20 },
	"momentum_10":        func(r *FeatureRow) float64 { return r.Momentum10 },
	"momentum_20":        func(r *FeatureRow) float64 { return r.Momentum20 },
	"streak":             func(r *FeatureRow) float64 { return r.Streak },
	"streak_abs":         func(r *FeatureRow) float64 { return r.StreakAbs },
	"vix":                func(r *FeatureRow) float64 { return r.VIX },
	"vix_5d_avg":         func(r *FeatureRow) float64 { return r.VIX5DAvg },
	"vix_20d_avg":        func(r *FeatureRow) float64 { return r.VIX20DAvg },
	"vix_percentile":     func(r *FeatureRow) float64 { return r.VIXPercentile },
	"vix_term_structure": func(r *FeatureRow) float64 { return r.VIXTermStructure },
	"vix_change_1d":      func(r *FeatureRow) float64 { return r.VIXChange1D },
	"vix_change_5d":      func(r *FeatureRow) float64 { return r.VIXChange5D },
	"volume_sma_20":      func(r *FeatureRow) float64 { return r.VolumeSMA20 },
	"volume_ratio":       func(r *FeatureRow) float64 { return r.VolumeRatio },
	"volume_change":      func(r *FeatureRow) float64 { return r.VolumeChange },
	"day_of_week":        func(r *FeatureRow) float64 { return r.DayOfWeek },
	"is_friday":          func(r *FeatureRow) float64 { return r.IsFriday },
	"is_monday":          func(r *FeatureRow) float64 { return r.IsMonday },
}

// Complete reports whether every column of the row is defined (non-NaN).
// The feature builder drops incomplete rows instead of emitting them.
func (r *FeatureRow) Complete() bool {
	for _, fn := range featureAccessors {
		if math.IsNaN(fn(r)) {
			return false
		}
	}
	return true
}

// HasColumn reports whether name is a known feature column.
func HasColumn(name string) bool {
	_, ok := featureAccessors[name]
	return ok
}

// Value returns the named column of the row.
// The second return is false for unknown column names.
func (r *FeatureRow) Value(name string) (float64, bool) {
	fn, ok := featureAccessors[name]
	if !ok {
		return 0, false
	}
	return fn(r), true
}

// Vector extracts the named columns in order. An unknown column name yields
// a MissingFeatureError attributed to model.
func (r *FeatureRow) Vector(model string, cols []string) ([]float64, error) {
	vec := make([]float64, len(cols))
	for i, col := range cols {
		v, ok := r.Value(col)
		if !ok {
			return nil, &MissingFeatureError{Model: model, Column: col}
		}
		vec[i] = v
	}
	return vec, nil
}
