// Package models implements the five estimators of the inference ensemble:
// regime classification, streak reversal, momentum burst, next-day range
// quantiles, and price/oscillator divergence. Each model carries its own
// feature column list and fails loudly on a missing column rather than
// imputing.
package models

import (
	"time"

	"github.com/wonny/vantage/internal/contracts"
	"github.com/wonny/vantage/internal/features"
)

// MinTrainingRows is the smallest labeled sample any model accepts.
// ⭐ SSOT: 학습 최소 표본 수는 여기서만 정의
const MinTrainingRows = 500

// Bundle is one atomic training artifact: all five fitted models plus the
// metadata needed to audit the run. A bundle is persisted and activated as
// a unit so no snapshot ever mixes model generations.
type Bundle struct {
	Version   string    `json:"version"`
	TrainedAt time.Time `json:"trained_at"`
	Symbol    string    `json:"symbol"`
	Samples   int       `json:"samples"`

	Regime     *RegimeModel     `json:"-"`
	Reversal   *ReversalModel   `json:"-"`
	Momentum   *MomentumModel   `json:"-"`
	Range      *RangeModel      `json:"-"`
	Divergence *DivergenceModel `json:"-"`
}

// TrainerConfig carries the tunables the operator may override.
// Zero values fall back to the package defaults.
type TrainerConfig struct {
	Seed           int64
	StreakDecay    float64 // reversal confidence damping base
	SkewMultiplier float64 // range tail expansion factor
}

// Fit trains all five models on one feature table and returns the bundle.
// The table must carry at least MinTrainingRows rows before per-model label
// filtering.
func Fit(symbol, version string, rows []contracts.FeatureRow, labels *features.LabelSet, cfg TrainerConfig) (*Bundle, error) {
	if len(rows) < MinTrainingRows {
		return nil, &contracts.InsufficientHistoryError{Op: "fit", Need: MinTrainingRows, Have: len(rows)}
	}

	regime, err := FitRegime(rows, cfg.Seed)
	if err != nil {
		return nil, err
	}
	reversal, err := FitReversal(rows, labels, cfg.Seed)
	if err != nil {
		return nil, err
	}
	if cfg.StreakDecay > 0 {
		reversal.StreakDecay = cfg.StreakDecay
	}
	momentum, err := FitMomentum(rows, labels, cfg.Seed)
	if err != nil {
		return nil, err
	}
	rng, err := FitRange(rows, labels)
	if err != nil {
		return nil, err
	}
	if cfg.SkewMultiplier > 0 {
		rng.SkewMultiplier = cfg.SkewMultiplier
	}
	div, err := FitDivergence(rows, labels, cfg.Seed)
	if err != nil {
		return nil, err
	}

	return &Bundle{
		Version:    version,
		TrainedAt:  time.Now().UTC(),
		Symbol:     symbol,
		Samples:    len(rows),
		Regime:     regime,
		Reversal:   reversal,
		Momentum:   momentum,
		Range:      rng,
		Divergence: div,
	}, nil
}

// toMatrix extracts the named columns from every row.
func toMatrix(model string, rows []contracts.FeatureRow, cols []string) ([][]float64, error) {
	X := make([][]float64, len(rows))
	for i := range rows {
		vec, err := rows[i].Vector(model, cols)
		if err != nil {
			return nil, err
		}
		X[i] = vec
	}
	return X, nil
}
