package risk

import "math"

// =============================================================================
// Hurst Exponent (Rescaled Range)
// =============================================================================

// Hurst lag range. Short lags dominate the fit; anything past ~20 trading
// days adds noise faster than signal on daily data.
const (
	hurstMinLag = 2
	hurstMaxLag = 20
)

// Hurst estimates the Hurst exponent of a log-price series: the slope of
// log(dispersion of lagged differences) against log(lag), halved per the
// variance convention and clipped to [0, 1]. H > 0.5 reads trending,
// H < 0.5 mean-reverting. Returns 0.5 (no memory) when the series is too
// short or flat for a fit.
func Hurst(logPrices []float64) float64 {
	maxLag := hurstMaxLag
	if len(logPrices) < 2*maxLag {
		maxLag = len(logPrices) / 2
	}
	if maxLag <= hurstMinLag {
		return 0.5
	}

	var logLags, logDisp []float64
	for lag := hurstMinLag; lag <= maxLag; lag++ {
		diffs := make([]float64, len(logPrices)-lag)
		for i := lag; i < len(logPrices); i++ {
			diffs[i-lag] = logPrices[i] - logPrices[i-lag]
		}
		disp := Variance(diffs)
		if disp <= 0 {
			continue
		}
		logLags = append(logLags, math.Log(float64(lag)))
		logDisp = append(logDisp, math.Log(disp))
	}
	if len(logLags) < 2 {
		return 0.5
	}

	slope, ok := linearSlope(logLags, logDisp)
	if !ok {
		return 0.5
	}
	h := slope / 2
	if h < 0 {
		return 0
	}
	if h > 1 {
		return 1
	}
	return h
}

// linearSlope least-squares 기울기
func linearSlope(x, y []float64) (float64, bool) {
	n := float64(len(x))
	mx := Mean(x)
	my := Mean(y)
	var num, den float64
	for i := range x {
		num += (x[i] - mx) * (y[i] - my)
		den += (x[i] - mx) * (x[i] - mx)
	}
	if den == 0 || n < 2 {
		return 0, false
	}
	return num / den, true
}
