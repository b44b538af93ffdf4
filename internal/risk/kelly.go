package risk

import (
	"github.com/wonny/vantage/internal/contracts"
)

// =============================================================================
// Kelly Position Sizing
// =============================================================================

// KellyCap is the hard upper bound on the suggested fraction.
// ⭐ SSOT: Kelly 상한은 여기서만 정의 (full Kelly는 과도한 변동성)
const KellyCap = 0.25

// Regime multipliers applied after the clip.
const (
	KellyTrendingMultiplier      = 1.0
	KellyMeanRevertingMultiplier = 0.8
	KellyChaoticMultiplier       = 0.5
)

// Kelly computes f* = (p*b - q) / b clipped to [0, KellyCap].
// p = win rate, q = 1-p, b = payoff ratio (average win / average loss).
// A zero payoff ratio (no losses on record, or no wins) yields 0: sizing
// off a degenerate sample is not a signal.
func Kelly(winRate, payoffRatio float64) float64 {
	if payoffRatio <= 0 || winRate <= 0 || winRate >= 1 {
		return 0
	}
	f := (winRate*payoffRatio - (1 - winRate)) / payoffRatio
	if f < 0 {
		return 0
	}
	if f > KellyCap {
		return KellyCap
	}
	return f
}

// RegimeMultiplier returns the de-risking factor for the current regime.
func RegimeMultiplier(regime contracts.RegimeLabel) float64 {
	switch regime {
	case contracts.RegimeChaotic:
		return KellyChaoticMultiplier
	case contracts.RegimeMeanReverting:
		return KellyMeanRevertingMultiplier
	default:
		return KellyTrendingMultiplier
	}
}

// KellyForRegime assembles the full sizing record. The traffic-light STOP
// override (ForcedZero) belongs to the aggregator, which owns the composite
// signals; this stays a pure calculator.
func KellyForRegime(returns []float64, regime contracts.RegimeLabel) contracts.KellySize {
	winRate, payoff := WinStats(returns)
	mult := RegimeMultiplier(regime)
	return contracts.KellySize{
		Fraction:         Kelly(winRate, payoff) * mult,
		WinRate:          winRate,
		PayoffRatio:      payoff,
		Regime:           regime,
		RegimeMultiplier: mult,
	}
}
