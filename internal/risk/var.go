package risk

import (
	"github.com/wonny/vantage/internal/contracts"
)

// =============================================================================
// VaR / CVaR (Historical Simulation)
// =============================================================================

// VaRConvention 부호 규약
// ⭐ SSOT: VaR/CVaR는 수익률 공간의 값 (손실=음수, CVaR <= VaR)
const VaRConvention = "return_space_negative"

// MinVaRSamples is the smallest return sample the metrics accept.
const MinVaRSamples = 30

// HistoricalVaR returns the (1-confidence) percentile of the return
// distribution and the mean of returns at or below it. Both are in return
// space: a 5% loss reads -0.05, and CVaR <= VaR always.
func HistoricalVaR(returns []float64, confidence float64) (varValue, cvar float64) {
	if len(returns) == 0 {
		return 0, 0
	}
	sorted := SortedCopy(returns)
	varValue = Percentile(sorted, (1-confidence)*100)

	var sum float64
	count := 0
	for _, r := range sorted {
		if r > varValue {
			break
		}
		sum += r
		count++
	}
	if count == 0 {
		// varValue sits below the sample minimum after interpolation.
		return varValue, sorted[0]
	}
	return varValue, sum / float64(count)
}

// Metrics computes the 95/99 VaR/CVaR pair over the trailing returns.
// ok is false below MinVaRSamples; callers must not publish tail estimates
// off a handful of observations.
func Metrics(returns []float64) (contracts.RiskMetrics, bool) {
	if len(returns) < MinVaRSamples {
		return contracts.RiskMetrics{SampleSize: len(returns)}, false
	}
	var95, cvar95 := HistoricalVaR(returns, 0.95)
	var99, cvar99 := HistoricalVaR(returns, 0.99)
	return contracts.RiskMetrics{
		VaR95:      var95,
		VaR99:      var99,
		CVaR95:     cvar95,
		CVaR99:     cvar99,
		SampleSize: len(returns),
	}, true
}

// =============================================================================
// Win / Loss Statistics (Kelly 입력)
// =============================================================================

// WinStats summarizes the trailing returns into the Kelly inputs: the win
// rate and the average-win / average-loss payoff ratio.
func WinStats(returns []float64) (winRate, payoffRatio float64) {
	var wins, losses int
	var winSum, lossSum float64
	for _, r := range returns {
		switch {
		case r > 0:
			wins++
			winSum += r
		case r < 0:
			losses++
			lossSum += -r
		}
	}
	decided := wins + losses
	if decided == 0 {
		return 0, 0
	}
	winRate = float64(wins) / float64(decided)
	if losses == 0 || lossSum == 0 {
		// No losing days on record; payoff ratio is undefined upward.
		return winRate, 0
	}
	avgWin := 0.0
	if wins > 0 {
		avgWin = winSum / float64(wins)
	}
	avgLoss := lossSum / float64(losses)
	return winRate, avgWin / avgLoss
}
