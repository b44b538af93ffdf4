package models

import (
	"github.com/wonny/vantage/internal/contracts"
	"github.com/wonny/vantage/internal/features"
)

// Divergence detector: gradient-boosted trees flagging price-vs-RSI
// divergence. The binary model estimates whether a divergence is in force;
// the bullish/bearish direction is resolved from the current extrema
// geometry at predict time, mirroring the label definition.

const (
	divergenceModelName = "divergence"

	// DivergenceThreshold is the probability above which a divergence is
	// reported as detected.
	DivergenceThreshold = 0.5
)

var divergenceColumns = []string{
	"rsi_14", "return_5d", "price_vs_sma20", "bb_position",
	"macd_histogram", "williams_r", "stoch_k", "stoch_d",
	"streak", "volume_ratio", "roc_10", "vol_compression",
}

// DivergenceModel wraps the fitted booster.
type DivergenceModel struct {
	Columns []string  `json:"columns"`
	Booster *Boosting `json:"booster"`
}

// FitDivergence trains the divergence booster on the extrema-disagreement
// label.
func FitDivergence(rows []contracts.FeatureRow, labels *features.LabelSet, seed int64) (*DivergenceModel, error) {
	kept, target := features.Filter(rows, labels.Divergence, labels.DivergenceValid)
	if len(kept) < MinTrainingRows/2 {
		return nil, &contracts.InsufficientHistoryError{Op: "fit_divergence", Need: MinTrainingRows / 2, Have: len(kept)}
	}
	X, err := toMatrix(divergenceModelName, kept, divergenceColumns)
	if err != nil {
		return nil, err
	}
	booster := FitBoosting(X, target, BoostParams{
		Rounds:       60,
		MaxDepth:     3,
		MinLeaf:      15,
		LearningRate: 0.1,
		Seed:         seed,
	})
	return &DivergenceModel{Columns: divergenceColumns, Booster: booster}, nil
}

// Predict estimates the divergence probability for row and classifies the
// direction from the recent rows' extrema geometry. recent must end at row's
// date and carry at least 2*DivergenceWindow rows for direction resolution;
// with fewer rows a detected divergence is reported as MIXED.
func (m *DivergenceModel) Predict(row *contracts.FeatureRow, recent []contracts.FeatureRow) (*contracts.DivergencePrediction, error) {
	x, err := row.Vector(divergenceModelName, m.Columns)
	if err != nil {
		return nil, err
	}
	prob := clamp01(m.Booster.Predict(x))
	pred := &contracts.DivergencePrediction{
		Probability: prob,
		Detected:    prob > DivergenceThreshold,
		Type:        contracts.DivergenceNone,
	}
	if !pred.Detected {
		return pred, nil
	}

	bullish, bearish, ok := divergenceDirection(recent)
	switch {
	case !ok:
		pred.Type = contracts.DivergenceMixed
	case bullish && bearish:
		pred.Type = contracts.DivergenceMixed
	case bullish:
		pred.Type = contracts.DivergenceBullish
	case bearish:
		pred.Type = contracts.DivergenceBearish
	default:
		pred.Type = contracts.DivergenceMixed
	}
	return pred, nil
}

// divergenceDirection compares the current window's price/RSI extrema with
// the window one lag earlier: a lower price low on a higher RSI low is
// bullish, a higher price high on a lower RSI high is bearish.
func divergenceDirection(recent []contracts.FeatureRow) (bullish, bearish, ok bool) {
	w := features.DivergenceWindow
	if len(recent) < 2*w {
		return false, false, false
	}
	cur := recent[len(recent)-w:]
	prev := recent[len(recent)-2*w : len(recent)-w]

	curCloseHi, curCloseLo := extrema(cur, func(r *contracts.FeatureRow) float64 { return r.Close })
	prevCloseHi, prevCloseLo := extrema(prev, func(r *contracts.FeatureRow) float64 { return r.Close })
	curRSIHi, curRSILo := extrema(cur, func(r *contracts.FeatureRow) float64 { return r.RSI14 })
	prevRSIHi, prevRSILo := extrema(prev, func(r *contracts.FeatureRow) float64 { return r.RSI14 })

	bullish = curCloseLo < prevCloseLo && curRSILo > prevRSILo
	bearish = curCloseHi > prevCloseHi && curRSIHi < prevRSIHi
	return bullish, bearish, true
}

func extrema(rows []contracts.FeatureRow, get func(*contracts.FeatureRow) float64) (hi, lo float64) {
	hi = get(&rows[0])
	lo = hi
	for i := 1; i < len(rows); i++ {
		v := get(&rows[i])
		if v > hi {
			hi = v
		}
		if v < lo {
			lo = v
		}
	}
	return hi, lo
}
