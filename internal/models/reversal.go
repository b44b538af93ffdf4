package models

import (
	"math"

	"github.com/wonny/vantage/internal/contracts"
	"github.com/wonny/vantage/internal/features"
)

// Streak-reversal estimator: a bagged tree ensemble on mean-reversion
// features. Raw model confidence is damped for streaks longer than the
// damping threshold, where the training sample is thin and the model tends
// to overcommit.

const (
	reversalModelName = "reversal"

	// StreakCap clips the streak magnitude seen by the damping rule.
	StreakCap = 5

	// DefaultStreakDecay is the per-day confidence multiplier applied beyond
	// StreakCap days of streak. Operator-overridable via configuration.
	DefaultStreakDecay = 0.9
)

var reversalColumns = []string{
	"streak", "streak_abs", "return_1d", "return_5d",
	"rsi_14", "bb_position", "williams_r", "stoch_k",
	"price_vs_sma20", "vol_compression", "volume_ratio", "vix_change_1d",
}

// ReversalModel wraps the fitted forest with the damping parameters.
type ReversalModel struct {
	Columns     []string `json:"columns"`
	Forest      *Forest  `json:"forest"`
	StreakDecay float64  `json:"streak_decay"`
}

// FitReversal trains the reversal forest on the streak-break label.
func FitReversal(rows []contracts.FeatureRow, labels *features.LabelSet, seed int64) (*ReversalModel, error) {
	kept, target := features.Filter(rows, labels.Reversal, labels.ReversalValid)
	if len(kept) < MinTrainingRows/2 {
		return nil, &contracts.InsufficientHistoryError{Op: "fit_reversal", Need: MinTrainingRows / 2, Have: len(kept)}
	}
	X, err := toMatrix(reversalModelName, kept, reversalColumns)
	if err != nil {
		return nil, err
	}
	forest := FitForest(X, target, ForestParams{
		Trees:       100,
		MaxDepth:    6,
		MinLeaf:     10,
		FeatureFrac: 0.5,
		Seed:        seed,
	})
	return &ReversalModel{
		Columns:     reversalColumns,
		Forest:      forest,
		StreakDecay: DefaultStreakDecay,
	}, nil
}

// Predict estimates the probability that the current streak breaks
// tomorrow. For streaks past StreakCap the confidence decays geometrically
// toward 0.5 per extra day.
func (m *ReversalModel) Predict(row *contracts.FeatureRow) (*contracts.ReversalPrediction, error) {
	x, err := row.Vector(reversalModelName, m.Columns)
	if err != nil {
		return nil, err
	}
	raw := clamp01(m.Forest.Predict(x))

	streak := int(row.Streak)
	abs := streak
	if abs < 0 {
		abs = -abs
	}
	adjusted := raw
	damped := false
	if abs > StreakCap {
		adjusted = raw * math.Pow(m.StreakDecay, float64(abs-StreakCap))
		damped = true
	}
	return &contracts.ReversalPrediction{
		RawProbability:      raw,
		AdjustedProbability: adjusted,
		Streak:              streak,
		Damped:              damped,
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
