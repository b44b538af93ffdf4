package models

import (
	"math"

	"github.com/wonny/vantage/internal/contracts"
	"github.com/wonny/vantage/internal/features"
)

// Range predictor: three independent linear quantile regressions (pinball
// loss, subgradient descent on standardized features) of next-day high-low
// range as a fraction of close. The skew asymmetry correction is applied
// after the quantile predictions, never folded into training.

const (
	rangeModelName = "range"

	// DefaultSkewThreshold is the absolute skewness beyond which one tail of
	// the range forecast is expanded.
	DefaultSkewThreshold = 0.5

	// DefaultSkewMultiplier expands the affected quantile's distance from
	// the median. Operator-overridable via configuration.
	DefaultSkewMultiplier = 1.2

	rangeEpochs       = 400
	rangeLearningRate = 0.05
)

var rangeColumns = []string{
	"volatility_10d", "volatility_20d", "atr_pct", "daily_range_pct",
	"bb_width", "vix", "vix_5d_avg", "volume_ratio", "rsi_14", "vol_compression",
}

var rangeQuantiles = []float64{0.10, 0.50, 0.90}

// quantileFit is one fitted linear quantile regression.
type quantileFit struct {
	Tau       float64   `json:"tau"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// RangeModel holds the three quantile fits plus the feature scaler.
type RangeModel struct {
	Columns        []string      `json:"columns"`
	Fits           []quantileFit `json:"fits"`
	FeatureMean    []float64     `json:"feature_mean"`
	FeatureStd     []float64     `json:"feature_std"`
	SkewThreshold  float64       `json:"skew_threshold"`
	SkewMultiplier float64       `json:"skew_multiplier"`
}

// FitRange trains the quantile regressions on the next-day range label.
func FitRange(rows []contracts.FeatureRow, labels *features.LabelSet) (*RangeModel, error) {
	kept, target := features.Filter(rows, labels.NextRange, labels.NextRangeValid)
	if len(kept) < MinTrainingRows/2 {
		return nil, &contracts.InsufficientHistoryError{Op: "fit_range", Need: MinTrainingRows / 2, Have: len(kept)}
	}
	X, err := toMatrix(rangeModelName, kept, rangeColumns)
	if err != nil {
		return nil, err
	}

	m := &RangeModel{
		Columns:        rangeColumns,
		SkewThreshold:  DefaultSkewThreshold,
		SkewMultiplier: DefaultSkewMultiplier,
	}
	m.fitScaler(X)
	Z := m.standardize(X)

	for _, tau := range rangeQuantiles {
		m.Fits = append(m.Fits, fitQuantile(Z, target, tau))
	}
	return m, nil
}

func (m *RangeModel) fitScaler(X [][]float64) {
	dims := len(m.Columns)
	m.FeatureMean = make([]float64, dims)
	m.FeatureStd = make([]float64, dims)
	n := float64(len(X))
	for _, x := range X {
		for d, v := range x {
			m.FeatureMean[d] += v
		}
	}
	for d := range m.FeatureMean {
		m.FeatureMean[d] /= n
	}
	for _, x := range X {
		for d, v := range x {
			diff := v - m.FeatureMean[d]
			m.FeatureStd[d] += diff * diff
		}
	}
	for d := range m.FeatureStd {
		m.FeatureStd[d] = math.Sqrt(m.FeatureStd[d] / n)
		if m.FeatureStd[d] < 1e-12 {
			m.FeatureStd[d] = 1
		}
	}
}

func (m *RangeModel) standardize(X [][]float64) [][]float64 {
	Z := make([][]float64, len(X))
	for i, x := range X {
		z := make([]float64, len(x))
		for d, v := range x {
			z[d] = (v - m.FeatureMean[d]) / m.FeatureStd[d]
		}
		Z[i] = z
	}
	return Z
}

// fitQuantile minimizes the pinball loss by full-batch subgradient descent.
// The subgradient of the pinball loss is tau when the residual is positive
// and tau-1 otherwise, so the update is bounded and a fixed decaying step
// converges on standardized inputs.
func fitQuantile(Z [][]float64, y []float64, tau float64) quantileFit {
	n := len(Z)
	dims := len(Z[0])
	w := make([]float64, dims)
	intercept := quantileOf(y, tau) // warm start at the unconditional quantile

	for epoch := 0; epoch < rangeEpochs; epoch++ {
		step := rangeLearningRate / (1 + float64(epoch)/50)
		grad := make([]float64, dims)
		var gradB float64
		for i := 0; i < n; i++ {
			pred := intercept
			for d := 0; d < dims; d++ {
				pred += w[d] * Z[i][d]
			}
			var g float64
			if y[i] >= pred {
				g = -tau
			} else {
				g = 1 - tau
			}
			gradB += g
			for d := 0; d < dims; d++ {
				grad[d] += g * Z[i][d]
			}
		}
		scale := step / float64(n)
		intercept -= scale * gradB
		for d := 0; d < dims; d++ {
			w[d] -= scale * grad[d]
		}
	}
	return quantileFit{Tau: tau, Weights: w, Intercept: intercept}
}

func quantileOf(y []float64, tau float64) float64 {
	sorted := append([]float64(nil), y...)
	for i := 1; i < len(sorted); i++ {
		j := i
		for j > 0 && sorted[j] < sorted[j-1] {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
			j--
		}
	}
	pos := tau * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}

// Predict forecasts the next-day range quantiles, then applies the skew
// asymmetry correction and a final monotonicity clip so Q10 <= Q50 <= Q90
// holds for every skew value.
func (m *RangeModel) Predict(row *contracts.FeatureRow, skew float64) (*contracts.RangePrediction, error) {
	x, err := row.Vector(rangeModelName, m.Columns)
	if err != nil {
		return nil, err
	}
	z := make([]float64, len(x))
	for d, v := range x {
		z[d] = (v - m.FeatureMean[d]) / m.FeatureStd[d]
	}

	qs := make([]float64, len(m.Fits))
	for i, fit := range m.Fits {
		pred := fit.Intercept
		for d := range z {
			pred += fit.Weights[d] * z[d]
		}
		if pred < 0 {
			pred = 0
		}
		qs[i] = pred
	}
	q10, q50, q90 := qs[0], qs[1], qs[2]

	adjustment := contracts.SkewAdjustNone
	switch {
	case skew > m.SkewThreshold:
		q90 = q50 + (q90-q50)*m.SkewMultiplier
		adjustment = contracts.SkewAdjustUpside
	case skew < -m.SkewThreshold:
		q10 = q50 - (q50-q10)*m.SkewMultiplier
		adjustment = contracts.SkewAdjustDownside
	}

	// Monotonicity clip after adjustment.
	if q10 > q50 {
		q10 = q50
	}
	if q90 < q50 {
		q90 = q50
	}
	if q10 < 0 {
		q10 = 0
	}

	return &contracts.RangePrediction{
		Q10:        q10,
		Q50:        q50,
		Q90:        q90,
		Skew:       skew,
		Adjustment: adjustment,
	}, nil
}
