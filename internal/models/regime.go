package models

import (
	"math"
	"sort"

	"github.com/wonny/vantage/internal/contracts"
)

// Regime classification: a three-state hidden Markov model with diagonal
// Gaussian emissions over daily return and 20-day volatility. States are
// anonymous during fitting; labels are assigned afterwards by sorting the
// states ascending by their volatility emission mean, so TRENDING is always
// the calmest state and CHAOTIC the wildest regardless of how the EM
// iteration happened to order them.

const (
	regimeStates   = 3
	regimeMaxIter  = 100
	regimeTol      = 1e-6
	varianceFloor  = 1e-10
	regimeWindow   = 60 // filtered posterior lookback at predict time
	volTieEpsilon  = 1e-6
)

// regimeColumns: the volatility dimension must stay at index 1, label
// assignment sorts on it.
var regimeColumns = []string{"return_1d", "volatility_20d"}

const regimeModelName = "regime"

// RegimeModel is the fitted HMM.
type RegimeModel struct {
	Columns    []string                        `json:"columns"`
	Initial    [regimeStates]float64           `json:"initial"`
	Transition [regimeStates][regimeStates]float64 `json:"transition"`
	Means      [regimeStates][]float64         `json:"means"`
	Variances  [regimeStates][]float64         `json:"variances"`
	// StateLabel maps fitted state index to its regime label, including
	// tie collapses where two states are statistically indistinguishable.
	StateLabel [regimeStates]contracts.RegimeLabel `json:"state_label"`
}

// FitRegime estimates the HMM by Baum-Welch with a deterministic
// tercile-based initialization, so the same table always yields the same
// model. The seed parameter is accepted for interface symmetry with the
// other models but unused.
func FitRegime(rows []contracts.FeatureRow, _ int64) (*RegimeModel, error) {
	X, err := toMatrix(regimeModelName, rows, regimeColumns)
	if err != nil {
		return nil, err
	}
	if len(X) < MinTrainingRows {
		return nil, &contracts.InsufficientHistoryError{Op: "fit_regime", Need: MinTrainingRows, Have: len(X)}
	}

	m := &RegimeModel{Columns: regimeColumns}
	m.initTerciles(X)
	m.baumWelch(X)
	m.assignLabels()
	return m, nil
}

// initTerciles seeds emission parameters from the volatility terciles and
// transitions from a sticky uniform prior.
func (m *RegimeModel) initTerciles(X [][]float64) {
	dims := len(m.Columns)
	order := make([]int, len(X))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return X[order[a]][1] < X[order[b]][1] })

	third := len(X) / regimeStates
	for s := 0; s < regimeStates; s++ {
		lo := s * third
		hi := lo + third
		if s == regimeStates-1 {
			hi = len(X)
		}
		mean := make([]float64, dims)
		vari := make([]float64, dims)
		for _, i := range order[lo:hi] {
			for d := 0; d < dims; d++ {
				mean[d] += X[i][d]
			}
		}
		count := float64(hi - lo)
		for d := 0; d < dims; d++ {
			mean[d] /= count
		}
		for _, i := range order[lo:hi] {
			for d := 0; d < dims; d++ {
				diff := X[i][d] - mean[d]
				vari[d] += diff * diff
			}
		}
		for d := 0; d < dims; d++ {
			vari[d] = math.Max(vari[d]/count, varianceFloor)
		}
		m.Means[s] = mean
		m.Variances[s] = vari
		m.Initial[s] = 1.0 / regimeStates
		for s2 := 0; s2 < regimeStates; s2++ {
			if s == s2 {
				m.Transition[s][s2] = 0.9
			} else {
				m.Transition[s][s2] = 0.1 / (regimeStates - 1)
			}
		}
	}
}

// baumWelch runs scaled EM until the log-likelihood plateaus.
func (m *RegimeModel) baumWelch(X [][]float64) {
	n := len(X)
	dims := len(m.Columns)
	prevLL := math.Inf(-1)

	for iter := 0; iter < regimeMaxIter; iter++ {
		emit := m.emissionMatrix(X)

		// Scaled forward pass.
		alpha := make([][regimeStates]float64, n)
		scale := make([]float64, n)
		for s := 0; s < regimeStates; s++ {
			alpha[0][s] = m.Initial[s] * emit[0][s]
			scale[0] += alpha[0][s]
		}
		normalizeRow(&alpha[0], &scale[0])
		for t := 1; t < n; t++ {
			for s := 0; s < regimeStates; s++ {
				var sum float64
				for p := 0; p < regimeStates; p++ {
					sum += alpha[t-1][p] * m.Transition[p][s]
				}
				alpha[t][s] = sum * emit[t][s]
				scale[t] += alpha[t][s]
			}
			normalizeRow(&alpha[t], &scale[t])
		}

		// Scaled backward pass.
		beta := make([][regimeStates]float64, n)
		for s := 0; s < regimeStates; s++ {
			beta[n-1][s] = 1
		}
		for t := n - 2; t >= 0; t-- {
			for s := 0; s < regimeStates; s++ {
				var sum float64
				for q := 0; q < regimeStates; q++ {
					sum += m.Transition[s][q] * emit[t+1][q] * beta[t+1][q]
				}
				if scale[t+1] > 0 {
					beta[t][s] = sum / scale[t+1]
				}
			}
		}

		// Posteriors.
		gamma := make([][regimeStates]float64, n)
		for t := 0; t < n; t++ {
			var z float64
			for s := 0; s < regimeStates; s++ {
				gamma[t][s] = alpha[t][s] * beta[t][s]
				z += gamma[t][s]
			}
			if z > 0 {
				for s := 0; s < regimeStates; s++ {
					gamma[t][s] /= z
				}
			}
		}

		// M-step: transitions.
		var xiSum [regimeStates][regimeStates]float64
		for t := 0; t < n-1; t++ {
			var z float64
			var xi [regimeStates][regimeStates]float64
			for s := 0; s < regimeStates; s++ {
				for q := 0; q < regimeStates; q++ {
					xi[s][q] = alpha[t][s] * m.Transition[s][q] * emit[t+1][q] * beta[t+1][q]
					z += xi[s][q]
				}
			}
			if z > 0 {
				for s := 0; s < regimeStates; s++ {
					for q := 0; q < regimeStates; q++ {
						xiSum[s][q] += xi[s][q] / z
					}
				}
			}
		}
		for s := 0; s < regimeStates; s++ {
			var denom float64
			for t := 0; t < n-1; t++ {
				denom += gamma[t][s]
			}
			if denom > 0 {
				for q := 0; q < regimeStates; q++ {
					m.Transition[s][q] = xiSum[s][q] / denom
				}
			}
			m.Initial[s] = gamma[0][s]
		}

		// M-step: emissions.
		for s := 0; s < regimeStates; s++ {
			var weight float64
			mean := make([]float64, dims)
			for t := 0; t < n; t++ {
				weight += gamma[t][s]
				for d := 0; d < dims; d++ {
					mean[d] += gamma[t][s] * X[t][d]
				}
			}
			if weight <= 0 {
				continue
			}
			for d := 0; d < dims; d++ {
				mean[d] /= weight
			}
			vari := make([]float64, dims)
			for t := 0; t < n; t++ {
				for d := 0; d < dims; d++ {
					diff := X[t][d] - mean[d]
					vari[d] += gamma[t][s] * diff * diff
				}
			}
			for d := 0; d < dims; d++ {
				vari[d] = math.Max(vari[d]/weight, varianceFloor)
			}
			m.Means[s] = mean
			m.Variances[s] = vari
		}

		var ll float64
		for t := 0; t < n; t++ {
			if scale[t] > 0 {
				ll += math.Log(scale[t])
			}
		}
		if ll-prevLL < regimeTol && iter > 0 {
			break
		}
		prevLL = ll
	}
}

// assignLabels orders states ascending by volatility mean. States whose
// volatility means are within volTieEpsilon of each other are collapsed onto
// the lower label; at predict time their probabilities are summed, so a
// degenerate fit on featureless data still reports one confident regime.
func (m *RegimeModel) assignLabels() {
	type ranked struct {
		state int
		vol   float64
	}
	rs := make([]ranked, regimeStates)
	for s := 0; s < regimeStates; s++ {
		rs[s] = ranked{state: s, vol: m.Means[s][1]}
	}
	sort.SliceStable(rs, func(a, b int) bool { return rs[a].vol < rs[b].vol })

	labelIdx := 0
	for i, r := range rs {
		if i > 0 && r.vol-rs[i-1].vol > volTieEpsilon {
			labelIdx = i
		}
		m.StateLabel[r.state] = contracts.RegimeLabels[labelIdx]
	}
}

// Predict runs the forward filter over the most recent rows and returns the
// posterior regime at the last row.
func (m *RegimeModel) Predict(recent []contracts.FeatureRow) (*contracts.RegimePrediction, error) {
	if len(recent) == 0 {
		return nil, &contracts.InsufficientHistoryError{Op: "predict_regime", Need: 1, Have: 0}
	}
	if len(recent) > regimeWindow {
		recent = recent[len(recent)-regimeWindow:]
	}
	X, err := toMatrix(regimeModelName, recent, m.Columns)
	if err != nil {
		return nil, err
	}

	emit := m.emissionMatrix(X)
	var alpha [regimeStates]float64
	var z float64
	for s := 0; s < regimeStates; s++ {
		alpha[s] = m.Initial[s] * emit[0][s]
		z += alpha[s]
	}
	normalizeRow(&alpha, &z)
	for t := 1; t < len(X); t++ {
		var next [regimeStates]float64
		z = 0
		for s := 0; s < regimeStates; s++ {
			var sum float64
			for p := 0; p < regimeStates; p++ {
				sum += alpha[p] * m.Transition[p][s]
			}
			next[s] = sum * emit[t][s]
			z += next[s]
		}
		normalizeRow(&next, &z)
		alpha = next
	}

	probs := map[contracts.RegimeLabel]float64{}
	for _, label := range contracts.RegimeLabels {
		probs[label] = 0
	}
	for s := 0; s < regimeStates; s++ {
		probs[m.StateLabel[s]] += alpha[s]
	}
	best := contracts.RegimeLabels[0]
	for _, label := range contracts.RegimeLabels {
		if probs[label] > probs[best] {
			best = label
		}
	}
	return &contracts.RegimePrediction{
		Label:         best,
		Probability:   probs[best],
		Probabilities: probs,
	}, nil
}

func (m *RegimeModel) emissionMatrix(X [][]float64) [][regimeStates]float64 {
	emit := make([][regimeStates]float64, len(X))
	for t := range X {
		for s := 0; s < regimeStates; s++ {
			emit[t][s] = diagGaussian(X[t], m.Means[s], m.Variances[s])
		}
	}
	return emit
}

// diagGaussian evaluates the diagonal-covariance normal density.
func diagGaussian(x, mean, variance []float64) float64 {
	density := 1.0
	for d := range x {
		v := math.Max(variance[d], varianceFloor)
		diff := x[d] - mean[d]
		density *= math.Exp(-diff*diff/(2*v)) / math.Sqrt(2*math.Pi*v)
	}
	return density
}

func normalizeRow(row *[regimeStates]float64, z *float64) {
	if *z <= 0 {
		// All emissions underflowed; fall back to uniform so the filter
		// keeps running instead of dividing by zero.
		for s := range row {
			row[s] = 1.0 / regimeStates
		}
		*z = 1
		return
	}
	for s := range row {
		row[s] /= *z
	}
}
