package risk

import (
	"math"

	"github.com/wonny/vantage/internal/contracts"
)

// =============================================================================
// Barrier First-Passage Probability (closed form)
// =============================================================================

// TouchProbability returns the probability that a geometric Brownian path
// starting at spot touches barrier at least once within horizonDays.
// Closed-form first-passage under drift mu (annualized log drift) and
// annualized volatility sigma:
//
//	P(touch) = Phi((-|b| + nu*T) / (sigma*sqrt(T)))
//	         + exp(2*nu*b / sigma^2) * Phi((-|b| - nu*T) / (sigma*sqrt(T)))
//
// with b = ln(barrier/spot) and nu signed toward the barrier.
func TouchProbability(spot, barrier, sigma float64, horizonDays int, mu float64) float64 {
	if spot <= 0 || barrier <= 0 || sigma <= 0 || horizonDays <= 0 {
		return 0
	}
	if barrier == spot {
		return 1
	}

	T := float64(horizonDays) / tradingDaysPerYear
	b := math.Log(barrier / spot)
	nu := mu - sigma*sigma/2
	volT := sigma * math.Sqrt(T)

	// Reflect so the barrier is always above: upward first passage of the
	// mirrored process has the same law.
	if b < 0 {
		b = -b
		nu = -nu
	}

	p := NormCDF((-b+nu*T)/volT) + math.Exp(2*nu*b/(sigma*sigma))*NormCDF((-b-nu*T)/volT)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// BarrierPair evaluates symmetric up/down barriers at +-movePct from spot
// under zero drift, the convention for a short-horizon touch estimate.
func BarrierPair(spot, sigma float64, movePct float64, horizonDays int) contracts.BarrierTouch {
	up := spot * (1 + movePct)
	down := spot * (1 - movePct)
	return contracts.BarrierTouch{
		UpLevel:         up,
		DownLevel:       down,
		UpProbability:   TouchProbability(spot, up, sigma, horizonDays, 0),
		DownProbability: TouchProbability(spot, down, sigma, horizonDays, 0),
		HorizonDays:     horizonDays,
	}
}
