package aggregate

import (
	"github.com/wonny/vantage/internal/contracts"
)

// =============================================================================
// Overall Verdict (directional tally)
// =============================================================================

const (
	// reversalConvincedThreshold: adjusted reversal probability above which
	// the signal votes against the current streak direction.
	reversalConvincedThreshold = 0.6

	// skewDirectionThreshold matches the range model's tail-expansion cutoff.
	skewDirectionThreshold = 0.5
)

type direction int

const (
	dirNeutral direction = iota
	dirBullish
	dirBearish
)

// Verdict tallies the five directional sub-signals — regime, momentum,
// reversal, divergence, skew — into bullish/bearish/neutral counts and takes
// the majority as the stance. A failed (nil) sub-signal counts neutral: it
// abstains rather than votes. The GEX proxy is deliberately never tallied
// (weight zero); it is published for display only.
func BuildVerdict(
	regime *contracts.RegimePrediction,
	momentum *contracts.MomentumPrediction,
	reversal *contracts.ReversalPrediction,
	divergence *contracts.DivergencePrediction,
	rangePred *contracts.RangePrediction,
	row *contracts.FeatureRow,
) contracts.Verdict {
	votes := []direction{
		regimeDirection(regime),
		momentumDirection(momentum, row),
		reversalDirection(reversal),
		divergenceDirection(divergence),
		skewDirection(rangePred),
	}

	v := contracts.Verdict{Total: len(votes)}
	for _, d := range votes {
		switch d {
		case dirBullish:
			v.Bullish++
		case dirBearish:
			v.Bearish++
		default:
			v.Neutral++
		}
	}

	majority := v.Total/2 + 1
	switch {
	case v.Bullish >= majority:
		v.Stance = contracts.StanceBullish
	case v.Bearish >= majority:
		v.Stance = contracts.StanceBearish
	case v.Bullish > v.Bearish:
		v.Stance = contracts.StanceLeanBullish
	case v.Bearish > v.Bullish:
		v.Stance = contracts.StanceLeanBearish
	default:
		v.Stance = contracts.StanceNeutral
	}
	return v
}

func regimeDirection(p *contracts.RegimePrediction) direction {
	if p == nil {
		return dirNeutral
	}
	switch p.Label {
	case contracts.RegimeTrending:
		return dirBullish
	case contracts.RegimeChaotic:
		return dirBearish
	default:
		return dirNeutral
	}
}

// momentumDirection: momentum strength is a magnitude; the sign comes from
// the recent multi-day return.
func momentumDirection(p *contracts.MomentumPrediction, row *contracts.FeatureRow) direction {
	if p == nil || row == nil || p.Strength == contracts.MomentumWeak {
		return dirNeutral
	}
	switch {
	case row.Return5D > 0:
		return dirBullish
	case row.Return5D < 0:
		return dirBearish
	default:
		return dirNeutral
	}
}

// reversalDirection: a convinced reversal votes against the streak.
func reversalDirection(p *contracts.ReversalPrediction) direction {
	if p == nil || p.AdjustedProbability < reversalConvincedThreshold {
		return dirNeutral
	}
	switch {
	case p.Streak > 0:
		return dirBearish
	case p.Streak < 0:
		return dirBullish
	default:
		return dirNeutral
	}
}

func divergenceDirection(p *contracts.DivergencePrediction) direction {
	if p == nil || !p.Detected {
		return dirNeutral
	}
	switch p.Type {
	case contracts.DivergenceBullish:
		return dirBullish
	case contracts.DivergenceBearish:
		return dirBearish
	default:
		return dirNeutral
	}
}

func skewDirection(p *contracts.RangePrediction) direction {
	if p == nil {
		return dirNeutral
	}
	switch {
	case p.Skew > skewDirectionThreshold:
		return dirBullish
	case p.Skew < -skewDirectionThreshold:
		return dirBearish
	default:
		return dirNeutral
	}
}
