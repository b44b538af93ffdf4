package contracts

import "time"

// SnapshotSchemaVersion is bumped on any incompatible MarketSnapshot change.
// Readers must validate it and fail loudly on mismatch instead of defaulting
// missing fields.
const SnapshotSchemaVersion = 1

// TrafficSignal is the composite go/wait/stop status.
type TrafficSignal string

const (
	TrafficGo   TrafficSignal = "GO"
	TrafficWait TrafficSignal = "WAIT"
	TrafficStop TrafficSignal = "STOP"
)

// TrafficLight is the weighted confluence status.
// Score is 0-100: regime contributes up to 40 points (weighted by state
// probability), the volatility index up to 30, momentum up to 30.
type TrafficLight struct {
	Signal         TrafficSignal `json:"signal"`
	Score          float64       `json:"score"`
	RegimePoints   float64       `json:"regime_points"`
	VIXPoints      float64       `json:"vix_points"`
	MomentumPoints float64       `json:"momentum_points"`
}

// OverextensionZone buckets the overextension gauge.
type OverextensionZone string

const (
	ZoneExtremeHigh OverextensionZone = "EXTREME_HIGH"
	ZoneElevated    OverextensionZone = "ELEVATED"
	ZoneNeutral     OverextensionZone = "NEUTRAL"
	ZoneExtremeLow  OverextensionZone = "EXTREME_LOW"
)

// Overextension is the RSI/Bollinger-based gauge (no ML input).
// When volume does not confirm (ratio < 0.8) the value is discounted and
// flagged, since an extreme print on thin volume is a weaker signal.
type Overextension struct {
	Value           float64           `json:"value"` // 0-100
	BaseValue       float64           `json:"base_value"`
	Zone            OverextensionZone `json:"zone"`
	VolumeConfirmed bool              `json:"volume_confirmed"`
	VolumeRatio     float64           `json:"volume_ratio"`
}

// Stance is the overall directional verdict.
type Stance string

const (
	StanceBullish     Stance = "BULLISH"
	StanceLeanBullish Stance = "LEAN_BULLISH"
	StanceNeutral     Stance = "NEUTRAL"
	StanceLeanBearish Stance = "LEAN_BEARISH"
	StanceBearish     Stance = "BEARISH"
)

// Verdict tallies the directional sub-signals. The count breakdown is
// carried for transparency; Stance is the majority category.
type Verdict struct {
	Stance  Stance `json:"stance"`
	Bullish int    `json:"bullish"`
	Bearish int    `json:"bearish"`
	Neutral int    `json:"neutral"`
	Total   int    `json:"total"`
}

// RiskMetrics holds the historical VaR/CVaR readings.
// Values are in return space: losses are negative, and CVaR <= VaR.
type RiskMetrics struct {
	VaR95      float64 `json:"var_95"`
	VaR99      float64 `json:"var_99"`
	CVaR95     float64 `json:"cvar_95"`
	CVaR99     float64 `json:"cvar_99"`
	SampleSize int     `json:"sample_size"`
}

// KellySize is the regime-adjusted position-sizing suggestion.
type KellySize struct {
	Fraction         float64     `json:"fraction"` // clipped to [0, 0.25]
	WinRate          float64     `json:"win_rate"`
	PayoffRatio      float64     `json:"payoff_ratio"`
	Regime           RegimeLabel `json:"regime"`
	RegimeMultiplier float64     `json:"regime_multiplier"`
	ForcedZero       bool        `json:"forced_zero"` // traffic STOP overrides sizing
}

// PriceCone is the Monte Carlo terminal-price percentile cone.
type PriceCone struct {
	HorizonDays int     `json:"horizon_days"`
	Paths       int     `json:"paths"`
	P16         float64 `json:"p16"`
	P50         float64 `json:"p50"`
	P84         float64 `json:"p84"`
}

// BarrierTouch is the closed-form first-passage probability pair for
// symmetric up/down barriers.
type BarrierTouch struct {
	UpLevel         float64 `json:"up_level"`
	DownLevel       float64 `json:"down_level"`
	UpProbability   float64 `json:"up_probability"`
	DownProbability float64 `json:"down_probability"`
	HorizonDays     int     `json:"horizon_days"`
}

// ProbabilitySurface holds next-day move probabilities from simulation.
type ProbabilitySurface struct {
	Up1Pct     float64 `json:"up_1pct"`
	Up2Pct     float64 `json:"up_2pct"`
	Down1Pct   float64 `json:"down_1pct"`
	Down2Pct   float64 `json:"down_2pct"`
	Within1Pct float64 `json:"within_1pct"`
	CallBias   float64 `json:"call_bias"`
}

// GapRiskLevel buckets the weekend gap risk.
type GapRiskLevel string

const (
	GapRiskLow      GapRiskLevel = "LOW"
	GapRiskModerate GapRiskLevel = "MODERATE"
	GapRiskHigh     GapRiskLevel = "HIGH"
)

// WeekendGapStats is the historical Friday-close-to-next-open gap
// distribution, split by expiry vs normal weeks when enough samples exist.
type WeekendGapStats struct {
	P50          float64      `json:"gap_p50"` // absolute gap fractions
	P75          float64      `json:"gap_p75"`
	P90          float64      `json:"gap_p90"`
	WeekType     string       `json:"week_type"` // EXPIRY, NORMAL, MIXED
	IsExpiryWeek bool         `json:"is_expiry_week"`
	RiskLevel    GapRiskLevel `json:"risk_level"`
	SampleSize   int          `json:"sample_size"`
}

// TermStructureState classifies the volatility-index term structure proxy.
type TermStructureState string

const (
	TermContango      TermStructureState = "CONTANGO"
	TermBackwardation TermStructureState = "BACKWARDATION"
	TermFlat          TermStructureState = "FLAT"
)

// GEXProxy is the volume-delta based dealer-positioning estimate.
// It has no open-interest data behind it, so it is published as a
// low-confidence reading and never counted in the verdict tally.
type GEXProxy struct {
	Level      float64 `json:"level"`
	Confidence string  `json:"confidence"` // always "LOW"
}

// Diagnostic records a degraded field in a snapshot.
type Diagnostic struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// MarketSnapshot is the single output artifact per symbol per inference
// run. It is complete and self-describing: the display layer never needs
// the model store or the raw series. Pointer fields are nil when the
// producing model failed; every such failure appears in Diagnostics.
type MarketSnapshot struct {
	SchemaVersion int       `json:"schema_version"`
	RunID         string    `json:"run_id"`
	Symbol        string    `json:"symbol"`
	GeneratedAt   time.Time `json:"generated_at"`

	Spot        Quote   `json:"spot"`
	PrevClose   float64 `json:"prev_close"`
	DailyChange float64 `json:"daily_change"`
	VIX         float64 `json:"vix"`

	// Model ensemble outputs (nil = unavailable, see Diagnostics)
	Regime     *RegimePrediction     `json:"regime,omitempty"`
	Reversal   *ReversalPrediction   `json:"reversal,omitempty"`
	Momentum   *MomentumPrediction   `json:"momentum,omitempty"`
	Range      *RangePrediction      `json:"range,omitempty"`
	Divergence *DivergencePrediction `json:"divergence,omitempty"`

	// Formula engine outputs
	Risk          RiskMetrics        `json:"risk"`
	Kelly         KellySize          `json:"kelly"`
	Hurst         float64            `json:"hurst"`
	TermStructure TermStructureState `json:"term_structure"`
	WeekendGap    WeekendGapStats    `json:"weekend_gap"`
	ThetaPerDay   float64            `json:"theta_per_day"`
	MaxPain       float64            `json:"max_pain"`
	Cone          PriceCone          `json:"cone"`
	Barrier       BarrierTouch       `json:"barrier"`
	Surface       ProbabilitySurface `json:"surface"`
	PivotS1       float64            `json:"pivot_s1"`
	GEX           GEXProxy           `json:"gex"`

	// Composites
	Traffic       TrafficLight  `json:"traffic"`
	Overextension Overextension `json:"overextension"`
	Verdict       Verdict       `json:"verdict"`

	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Degraded reports whether any ensemble member failed during this run.
func (s *MarketSnapshot) Degraded() bool {
	return len(s.Diagnostics) > 0
}
