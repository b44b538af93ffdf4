package aggregate

import (
	"github.com/wonny/vantage/internal/contracts"
)

// =============================================================================
// Traffic Light (weighted confluence)
// =============================================================================

// Fixed thresholds — a design contract, not tunables.
// ⭐ SSOT: 신호등 임계값은 여기서만 정의
const (
	trafficGoThreshold   = 70.0
	trafficWaitThreshold = 40.0

	vixCalmLevel     = 15.0 // full volatility points below this
	vixNormalLevel   = 20.0
	vixElevatedLevel = 24.0

	regimeMaxPoints   = 40.0
	vixMaxPoints      = 30.0
	momentumMaxPoints = 30.0
)

// TrafficLight scores the confluence 0-100: regime contributes up to 40
// points weighted by state probability, the volatility index up to 30 in
// fixed bands, momentum up to 30 scaled by score. GO above 70, WAIT above
// 40, STOP otherwise — a chaotic regime or a volatility index above the
// elevated level zeroes its contribution and lands in STOP territory on its
// own. A missing regime or momentum reading contributes zero points, so a
// degraded run can only be more cautious, never more aggressive.
func TrafficLight(regime *contracts.RegimePrediction, momentum *contracts.MomentumPrediction, vix float64) contracts.TrafficLight {
	var regimePoints float64
	if regime != nil {
		switch regime.Label {
		case contracts.RegimeTrending:
			regimePoints = regimeMaxPoints * regime.Probability
		case contracts.RegimeMeanReverting:
			regimePoints = regimeMaxPoints / 2 * regime.Probability
		case contracts.RegimeChaotic:
			regimePoints = 0
		}
	}

	var vixPoints float64
	switch {
	case vix <= 0:
		vixPoints = 0 // no reading
	case vix < vixCalmLevel:
		vixPoints = vixMaxPoints
	case vix < vixNormalLevel:
		vixPoints = vixMaxPoints / 2
	case vix < vixElevatedLevel:
		vixPoints = vixMaxPoints / 6
	default:
		vixPoints = 0
	}

	var momentumPoints float64
	if momentum != nil {
		momentumPoints = momentumMaxPoints * momentum.Score / 100
	}

	score := regimePoints + vixPoints + momentumPoints
	signal := contracts.TrafficStop
	switch {
	case score > trafficGoThreshold:
		signal = contracts.TrafficGo
	case score > trafficWaitThreshold:
		signal = contracts.TrafficWait
	}

	return contracts.TrafficLight{
		Signal:         signal,
		Score:          score,
		RegimePoints:   regimePoints,
		VIXPoints:      vixPoints,
		MomentumPoints: momentumPoints,
	}
}

// =============================================================================
// Overextension Gauge (RSI + Bollinger, no ML)
// =============================================================================

const (
	rsiExtremeHigh = 75.0
	rsiElevated    = 65.0
	rsiExtremeLow  = 25.0

	// volumeConfirmRatio: below this the print is on thin volume and the
	// gauge value is discounted.
	volumeConfirmRatio    = 0.8
	volumeDiscountFactor  = 0.7
)

// OverextensionGauge reads crowd overextension from RSI and Bollinger
// position only. The 0-100 value blends the two; the zone follows the fixed
// RSI/band cutoffs. When volume does not confirm the move the value is
// discounted and flagged.
func OverextensionGauge(row *contracts.FeatureRow) contracts.Overextension {
	base := 0.6*row.RSI14 + 40*row.BBPosition

	zone := contracts.ZoneNeutral
	switch {
	case row.RSI14 > rsiExtremeHigh || row.BBPosition >= 1:
		zone = contracts.ZoneExtremeHigh
	case row.RSI14 >= rsiElevated:
		zone = contracts.ZoneElevated
	case row.RSI14 < rsiExtremeLow || row.BBPosition <= 0:
		zone = contracts.ZoneExtremeLow
	}

	value := base
	confirmed := row.VolumeRatio >= volumeConfirmRatio
	if !confirmed {
		value *= volumeDiscountFactor
	}

	return contracts.Overextension{
		Value:           value,
		BaseValue:       base,
		Zone:            zone,
		VolumeConfirmed: confirmed,
		VolumeRatio:     row.VolumeRatio,
	}
}
