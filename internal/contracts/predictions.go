package contracts

// RegimeLabel is a categorical label for current market dynamics.
// Labels are assigned by sorting fitted states ascending by volatility mean,
// so the identity is stable across retraining runs.
type RegimeLabel string

const (
	RegimeTrending      RegimeLabel = "TRENDING"
	RegimeMeanReverting RegimeLabel = "MEAN_REVERTING"
	RegimeChaotic       RegimeLabel = "CHAOTIC"
)

// RegimeLabels in ascending volatility order.
var RegimeLabels = []RegimeLabel{RegimeTrending, RegimeMeanReverting, RegimeChaotic}

// RegimePrediction is the regime classifier output.
type RegimePrediction struct {
	Label         RegimeLabel             `json:"label"`
	Probability   float64                 `json:"probability"`
	Probabilities map[RegimeLabel]float64 `json:"probabilities"`
}

// ReversalPrediction is the streak-reversal estimator output.
// AdjustedProbability carries the confidence damping applied for streaks
// longer than the damping threshold; RawProbability is the model output.
type ReversalPrediction struct {
	RawProbability      float64 `json:"raw_probability"`
	AdjustedProbability float64 `json:"adjusted_probability"`
	Streak              int     `json:"streak"`
	Damped              bool    `json:"damped"`
}

// MomentumStrength bands are a fixed design contract: >70 strong,
// 50-70 moderate, <50 weak.
type MomentumStrength string

const (
	MomentumStrong   MomentumStrength = "STRONG"
	MomentumModerate MomentumStrength = "MODERATE"
	MomentumWeak     MomentumStrength = "WEAK"
)

// MomentumPrediction is the momentum scorer output.
type MomentumPrediction struct {
	Probability float64          `json:"probability"`
	Score       float64          `json:"score"` // 0-100
	Strength    MomentumStrength `json:"strength"`
}

// StrengthForScore maps a 0-100 momentum score onto its band.
func StrengthForScore(score float64) MomentumStrength {
	switch {
	case score > 70:
		return MomentumStrong
	case score >= 50:
		return MomentumModerate
	default:
		return MomentumWeak
	}
}

// SkewAdjustment names the tail expansion applied to a range prediction.
type SkewAdjustment string

const (
	SkewAdjustNone     SkewAdjustment = "NONE"
	SkewAdjustUpside   SkewAdjustment = "UPSIDE_EXPANDED"
	SkewAdjustDownside SkewAdjustment = "DOWNSIDE_EXPANDED"
)

// RangePrediction is the quantile range forecast, as fractions of close.
// Quantiles satisfy Q10 <= Q50 <= Q90 after the skew adjustment.
type RangePrediction struct {
	Q10        float64        `json:"q10"`
	Q50        float64        `json:"q50"`
	Q90        float64        `json:"q90"`
	Skew       float64        `json:"skew"`
	Adjustment SkewAdjustment `json:"skew_adjustment"`
}

// DivergenceType classifies a detected price/oscillator divergence.
type DivergenceType string

const (
	DivergenceNone    DivergenceType = "NONE"
	DivergenceBullish DivergenceType = "BULLISH"
	DivergenceBearish DivergenceType = "BEARISH"
	DivergenceMixed   DivergenceType = "MIXED"
)

// DivergencePrediction is the divergence detector output.
type DivergencePrediction struct {
	Detected    bool           `json:"detected"`
	Probability float64        `json:"probability"`
	Type        DivergenceType `json:"type"`
}
