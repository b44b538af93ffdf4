package risk

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vantage/internal/contracts"
)

func repeatedReturns(n int) []float64 {
	base := []float64{-0.05, -0.04, -0.03, 0.01, 0.02}
	out := make([]float64, 0, len(base)*n)
	for i := 0; i < n; i++ {
		out = append(out, base...)
	}
	return out
}

func TestHistoricalVaRKnownDistribution(t *testing.T) {
	returns := repeatedReturns(20) // 100 samples

	var95, cvar95 := HistoricalVaR(returns, 0.95)

	// 5th percentile of the list, and the mean of values at or below it.
	assert.InDelta(t, -0.05, var95, 1e-9)
	assert.InDelta(t, -0.05, cvar95, 1e-9)
}

func TestCVaRNeverExceedsVaR(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for trial := 0; trial < 20; trial++ {
		returns := make([]float64, 250)
		for i := range returns {
			returns[i] = rng.NormFloat64() * 0.02
		}
		for _, c := range []float64{0.90, 0.95, 0.99} {
			v, cv := HistoricalVaR(returns, c)
			assert.LessOrEqual(t, cv, v, "confidence %v", c)
		}
	}
}

func TestMetricsRequiresMinimumSample(t *testing.T) {
	m, ok := Metrics(repeatedReturns(5)) // 25 < MinVaRSamples
	assert.False(t, ok)
	assert.Equal(t, 25, m.SampleSize)

	m, ok = Metrics(repeatedReturns(6)) // 30
	require.True(t, ok)
	assert.Equal(t, 30, m.SampleSize)
	assert.LessOrEqual(t, m.CVaR95, m.VaR95)
	assert.LessOrEqual(t, m.CVaR99, m.VaR99)
	assert.LessOrEqual(t, m.VaR99, m.VaR95)
}

func TestWinStats(t *testing.T) {
	// 3 wins averaging 0.02, 2 losses averaging 0.03.
	returns := []float64{0.02, 0.02, 0.02, -0.03, -0.03, 0}

	winRate, payoff := WinStats(returns)
	assert.InDelta(t, 0.6, winRate, 1e-12)
	assert.InDelta(t, 0.02/0.03, payoff, 1e-12)
}

func TestWinStatsNoLosses(t *testing.T) {
	winRate, payoff := WinStats([]float64{0.01, 0.02})
	assert.Equal(t, 1.0, winRate)
	assert.Zero(t, payoff)
}

func TestKellyBounds(t *testing.T) {
	for _, winRate := range []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1} {
		for _, payoff := range []float64{0, 0.5, 1, 2, 5, 100} {
			f := Kelly(winRate, payoff)
			assert.GreaterOrEqual(t, f, 0.0, "p=%v b=%v", winRate, payoff)
			assert.LessOrEqual(t, f, KellyCap, "p=%v b=%v", winRate, payoff)
		}
	}
}

func TestKellyFormula(t *testing.T) {
	// f* = (0.6*2 - 0.4) / 2 = 0.4 → clipped to the cap.
	assert.Equal(t, KellyCap, Kelly(0.6, 2))
	// f* = (0.55*1 - 0.45) / 1 = 0.10, inside the cap.
	assert.InDelta(t, 0.10, Kelly(0.55, 1), 1e-12)
	// Negative edge → 0.
	assert.Zero(t, Kelly(0.4, 1))
}

func TestKellyRegimeMultipliers(t *testing.T) {
	assert.Equal(t, 1.0, RegimeMultiplier(contracts.RegimeTrending))
	assert.Equal(t, 0.8, RegimeMultiplier(contracts.RegimeMeanReverting))
	assert.Equal(t, 0.5, RegimeMultiplier(contracts.RegimeChaotic))

	returns := repeatedReturns(20)
	trending := KellyForRegime(returns, contracts.RegimeTrending)
	chaotic := KellyForRegime(returns, contracts.RegimeChaotic)
	assert.InDelta(t, trending.Fraction*0.5, chaotic.Fraction, 1e-12)
	assert.False(t, trending.ForcedZero)
}
