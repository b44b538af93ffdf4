package models

import (
	"github.com/wonny/vantage/internal/contracts"
	"github.com/wonny/vantage/internal/features"
)

// Momentum scorer: gradient-boosted trees predicting a move beyond the
// fixed magnitude threshold over the next few days. The probability is
// rescaled to 0-100 for presentation; the >70/50-70/<50 strength bands are
// a fixed design contract, not tunables.

const momentumModelName = "momentum"

var momentumColumns = []string{
	"return_1d", "return_5d", "return_20d",
	"rsi_14", "macd", "macd_signal", "macd_histogram",
	"bb_position", "atr_pct", "price_vs_sma20", "price_vs_sma50",
	"vix", "vix_percentile", "volume_ratio", "streak", "vol_compression",
}

// MomentumModel wraps the fitted booster.
type MomentumModel struct {
	Columns []string  `json:"columns"`
	Booster *Boosting `json:"booster"`
}

// FitMomentum trains the momentum booster on the forward-move label.
func FitMomentum(rows []contracts.FeatureRow, labels *features.LabelSet, seed int64) (*MomentumModel, error) {
	kept, target := features.Filter(rows, labels.Momentum, labels.MomentumValid)
	if len(kept) < MinTrainingRows/2 {
		return nil, &contracts.InsufficientHistoryError{Op: "fit_momentum", Need: MinTrainingRows / 2, Have: len(kept)}
	}
	X, err := toMatrix(momentumModelName, kept, momentumColumns)
	if err != nil {
		return nil, err
	}
	booster := FitBoosting(X, target, BoostParams{
		Rounds:       80,
		MaxDepth:     4,
		MinLeaf:      15,
		LearningRate: 0.1,
		Seed:         seed,
	})
	return &MomentumModel{Columns: momentumColumns, Booster: booster}, nil
}

// Predict scores the row.
func (m *MomentumModel) Predict(row *contracts.FeatureRow) (*contracts.MomentumPrediction, error) {
	x, err := row.Vector(momentumModelName, m.Columns)
	if err != nil {
		return nil, err
	}
	prob := clamp01(m.Booster.Predict(x))
	score := prob * 100
	return &contracts.MomentumPrediction{
		Probability: prob,
		Score:       score,
		Strength:    contracts.StrengthForScore(score),
	}, nil
}
