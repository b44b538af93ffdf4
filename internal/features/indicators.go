package features

import "math"

// Rolling indicator primitives. Every function is strictly backward
// looking: output[i] depends only on input[0..i]. Undefined warm-up
// entries are NaN and cause the whole row to be dropped by the builder.

var nan = math.NaN()

// sma returns the simple moving average with the given window. NaN entries
// are excluded from the running sum so a NaN warm-up prefix cannot poison
// later windows; any window containing a NaN yields NaN.
func sma(values []float64, window int) []float64 {
	out := fill(len(values))
	var sum float64
	nans := 0
	for i, v := range values {
		if math.IsNaN(v) {
			nans++
		} else {
			sum += v
		}
		if i >= window {
			if old := values[i-window]; math.IsNaN(old) {
				nans--
			} else {
				sum -= old
			}
		}
		if i >= window-1 && nans == 0 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// ema returns the exponential moving average seeded from the first value
// (span convention: alpha = 2/(span+1)).
func ema(values []float64, span int) []float64 {
	out := fill(len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	prev := values[0]
	out[0] = prev
	for i := 1; i < len(values); i++ {
		prev = alpha*values[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// rollingStd returns the rolling sample standard deviation.
func rollingStd(values []float64, window int) []float64 {
	out := fill(len(values))
	for i := window - 1; i < len(values); i++ {
		out[i] = stdDev(values[i-window+1 : i+1])
	}
	return out
}

// rollingMax returns the rolling maximum.
func rollingMax(values []float64, window int) []float64 {
	out := fill(len(values))
	for i := window - 1; i < len(values); i++ {
		m := values[i-window+1]
		for _, v := range values[i-window+2 : i+1] {
			if v > m {
				m = v
			}
		}
		out[i] = m
	}
	return out
}

// rollingMin returns the rolling minimum.
func rollingMin(values []float64, window int) []float64 {
	out := fill(len(values))
	for i := window - 1; i < len(values); i++ {
		m := values[i-window+1]
		for _, v := range values[i-window+2 : i+1] {
			if v < m {
				m = v
			}
		}
		out[i] = m
	}
	return out
}

// pctChange returns (v[i] - v[i-lag]) / v[i-lag].
func pctChange(values []float64, lag int) []float64 {
	out := fill(len(values))
	for i := lag; i < len(values); i++ {
		prev := values[i-lag]
		if prev == 0 {
			out[i] = 0
			continue
		}
		out[i] = (values[i] - prev) / prev
	}
	return out
}

// diff returns v[i] - v[i-lag].
func diff(values []float64, lag int) []float64 {
	out := fill(len(values))
	for i := lag; i < len(values); i++ {
		out[i] = values[i] - values[i-lag]
	}
	return out
}

// rsi returns Wilder's relative strength index.
func rsi(closes []float64, period int) []float64 {
	out := fill(len(closes))
	if len(closes) <= period {
		return out
	}
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		// Wilder smoothing
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// trueRange returns the max of the three true-range components.
func trueRange(highs, lows, closes []float64) []float64 {
	out := fill(len(highs))
	for i := 1; i < len(highs); i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// streaks returns the signed count of consecutive same-direction daily
// returns: +3 means three up days in a row, -2 two down days.
func streaks(returns []float64) []float64 {
	out := make([]float64, len(returns))
	current := 0.0
	for i, r := range returns {
		switch {
		case math.IsNaN(r) || r == 0:
			current = 0
		case r > 0:
			if current >= 0 {
				current++
			} else {
				current = 1
			}
		default:
			if current <= 0 {
				current--
			} else {
				current = -1
			}
		}
		out[i] = current
	}
	return out
}

// percentileRank returns the fraction of the trailing window (inclusive of
// the current value) at or below the current value.
func percentileRank(values []float64, window int) []float64 {
	out := fill(len(values))
	for i := window - 1; i < len(values); i++ {
		cur := values[i]
		count := 0
		defined := true
		for _, v := range values[i-window+1 : i+1] {
			if math.IsNaN(v) {
				defined = false
				break
			}
			if v <= cur {
				count++
			}
		}
		if !defined {
			continue
		}
		out[i] = float64(count) / float64(window)
	}
	return out
}

func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return nan
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)-1))
}

func fill(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = nan
	}
	return out
}

func anyNaN(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
