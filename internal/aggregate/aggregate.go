// Package aggregate composes model and formula outputs into one
// MarketSnapshot. Aggregation is memoryless: every snapshot is computed
// fresh from the current inputs with no dependency on the previous one.
// Per-model failures degrade to unavailable fields recorded in the
// snapshot's diagnostics; the aggregator itself never fails a run.
package aggregate

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/vantage/internal/contracts"
	"github.com/wonny/vantage/internal/risk"
)

// termStructureBand: relative 5d-vs-20d volatility-average spread beyond
// which the structure reads contango/backwardation instead of flat.
const termStructureBand = 0.02

// ModelOutputs carries the five ensemble results with their per-model
// errors. A nil prediction with a non-nil error is a degraded field; the
// pair nil/nil never occurs in a well-formed run.
type ModelOutputs struct {
	Regime        *contracts.RegimePrediction
	RegimeErr     error
	Reversal      *contracts.ReversalPrediction
	ReversalErr   error
	Momentum      *contracts.MomentumPrediction
	MomentumErr   error
	Range         *contracts.RangePrediction
	RangeErr      error
	Divergence    *contracts.DivergencePrediction
	DivergenceErr error
}

// FormulaOutputs carries the pure-calculator results, computed by the
// runner before aggregation.
type FormulaOutputs struct {
	Risk       contracts.RiskMetrics
	RiskOK     bool
	Hurst      float64
	WeekendGap contracts.WeekendGapStats
	Theta      float64
	MaxPain    float64
	Cone       contracts.PriceCone
	Barrier    contracts.BarrierTouch
	Surface    contracts.ProbabilitySurface
	PivotS1    float64
	GEX        contracts.GEXProxy
}

// Inputs is everything one snapshot is composed from.
type Inputs struct {
	RunID       string
	Symbol      string
	GeneratedAt time.Time

	Spot      contracts.Quote
	PrevClose float64
	VIX       float64

	Row     *contracts.FeatureRow // latest feature row
	Returns []float64             // trailing daily returns (Kelly inputs)

	Models   ModelOutputs
	Formulas FormulaOutputs
}

// Aggregator builds snapshots.
type Aggregator struct {
	log zerolog.Logger
}

// New creates an aggregator.
func New(log zerolog.Logger) *Aggregator {
	return &Aggregator{log: log.With().Str("component", "aggregate").Logger()}
}

// Compose assembles the snapshot. It always returns one: degraded fields
// are nil with a diagnostic entry, never fabricated values.
func (a *Aggregator) Compose(in Inputs) *contracts.MarketSnapshot {
	snap := &contracts.MarketSnapshot{
		SchemaVersion: contracts.SnapshotSchemaVersion,
		RunID:         in.RunID,
		Symbol:        in.Symbol,
		GeneratedAt:   in.GeneratedAt,
		Spot:          in.Spot,
		PrevClose:     in.PrevClose,
		VIX:           in.VIX,

		Regime:     in.Models.Regime,
		Reversal:   in.Models.Reversal,
		Momentum:   in.Models.Momentum,
		Range:      in.Models.Range,
		Divergence: in.Models.Divergence,

		Risk:        in.Formulas.Risk,
		Hurst:       in.Formulas.Hurst,
		WeekendGap:  in.Formulas.WeekendGap,
		ThetaPerDay: in.Formulas.Theta,
		MaxPain:     in.Formulas.MaxPain,
		Cone:        in.Formulas.Cone,
		Barrier:     in.Formulas.Barrier,
		Surface:     in.Formulas.Surface,
		PivotS1:     in.Formulas.PivotS1,
		GEX:         in.Formulas.GEX,
	}
	if in.PrevClose > 0 {
		snap.DailyChange = in.Spot.Price/in.PrevClose - 1
	}
	snap.Diagnostics = collectDiagnostics(in)
	if !in.Formulas.RiskOK {
		snap.Diagnostics = append(snap.Diagnostics, contracts.Diagnostic{
			Field: "risk",
			Error: "insufficient return sample for VaR/CVaR",
		})
	}

	snap.TermStructure = classifyTermStructure(in.Row)
	snap.Traffic = TrafficLight(in.Models.Regime, in.Models.Momentum, in.VIX)
	if in.Row != nil {
		snap.Overextension = OverextensionGauge(in.Row)
	}
	snap.Verdict = BuildVerdict(
		in.Models.Regime, in.Models.Momentum, in.Models.Reversal,
		in.Models.Divergence, in.Models.Range, in.Row,
	)
	snap.Kelly = a.kellySize(in, snap.Traffic)

	if snap.Degraded() {
		a.log.Warn().
			Str("run_id", in.RunID).
			Str("symbol", in.Symbol).
			Int("degraded_fields", len(snap.Diagnostics)).
			Msg("snapshot composed with degraded fields")
	}
	return snap
}

// kellySize computes the regime-adjusted sizing and applies the conflict
// rule: a traffic-light STOP forces the fraction to zero regardless of the
// statistical edge. Without a regime reading the chaotic multiplier applies
// and the regime label stays unset — a degraded run may only shrink the
// fraction, never report a regime it did not compute.
func (a *Aggregator) kellySize(in Inputs, traffic contracts.TrafficLight) contracts.KellySize {
	var kelly contracts.KellySize
	if in.Models.Regime != nil {
		kelly = risk.KellyForRegime(in.Returns, in.Models.Regime.Label)
	} else {
		kelly = risk.KellyForRegime(in.Returns, contracts.RegimeChaotic)
		kelly.Regime = ""
	}
	if traffic.Signal == contracts.TrafficStop {
		kelly.Fraction = 0
		kelly.ForcedZero = true
	}
	return kelly
}

func collectDiagnostics(in Inputs) []contracts.Diagnostic {
	var diags []contracts.Diagnostic
	add := func(field string, err error) {
		if err != nil {
			diags = append(diags, contracts.Diagnostic{Field: field, Error: err.Error()})
		}
	}
	add("regime", in.Models.RegimeErr)
	add("reversal", in.Models.ReversalErr)
	add("momentum", in.Models.MomentumErr)
	add("range", in.Models.RangeErr)
	add("divergence", in.Models.DivergenceErr)
	return diags
}

// classifyTermStructure reads the volatility term structure from the 5d vs
// 20d volatility-index averages: short below long is contango (calming),
// short above long is backwardation (stress).
func classifyTermStructure(row *contracts.FeatureRow) contracts.TermStructureState {
	if row == nil || row.VIX20DAvg <= 0 {
		return contracts.TermFlat
	}
	spread := (row.VIX5DAvg - row.VIX20DAvg) / row.VIX20DAvg
	switch {
	case spread < -termStructureBand:
		return contracts.TermContango
	case spread > termStructureBand:
		return contracts.TermBackwardation
	default:
		return contracts.TermFlat
	}
}
