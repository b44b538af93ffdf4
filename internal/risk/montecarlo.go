package risk

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/wonny/vantage/internal/contracts"
)

// =============================================================================
// Monte Carlo Jump-Diffusion Simulation
// =============================================================================

const tradingDaysPerYear = 252.0

// JumpParams are the Poisson jump-component parameters, estimated from the
// trailing return sample rather than hardcoded.
type JumpParams struct {
	Intensity float64 `json:"intensity"` // expected jumps per trading day
	Mean      float64 `json:"mean"`      // mean jump size (log return)
	StdDev    float64 `json:"std_dev"`   // jump size dispersion
}

// EstimateJumps classifies returns beyond 2 sigma as jumps and estimates
// the Poisson intensity and jump-size distribution from them.
func EstimateJumps(returns []float64) JumpParams {
	if len(returns) < MinVaRSamples {
		return JumpParams{}
	}
	sd := StdDev(returns)
	if sd == 0 {
		return JumpParams{}
	}
	mean := Mean(returns)
	var jumps []float64
	for _, r := range returns {
		if math.Abs(r-mean) > 2*sd {
			jumps = append(jumps, r)
		}
	}
	if len(jumps) == 0 {
		return JumpParams{}
	}
	return JumpParams{
		Intensity: float64(len(jumps)) / float64(len(returns)),
		Mean:      Mean(jumps),
		StdDev:    StdDev(jumps),
	}
}

// MonteCarloConfig 시뮬레이션 설정
// ⭐ SSOT: 재현성을 위해 모든 설정을 명시적으로 기록
type MonteCarloConfig struct {
	Spot        float64    `json:"spot"`
	AnnualVol   float64    `json:"annual_vol"` // volatility-index level / 100
	HorizonDays int        `json:"horizon_days"`
	Paths       int        `json:"paths"`
	DailyDrift  float64    `json:"daily_drift"` // log drift per trading day
	Jump        JumpParams `json:"jump"`
	Seed        int64      `json:"seed"` // 0 = nondeterministic
}

// DefaultPaths is the minimum path count for a publishable cone.
const DefaultPaths = 10000

// SimulateCone runs the jump-diffusion simulation and reports the
// 16th/50th/84th terminal-price percentiles (about +-1 sigma). The diffusion
// step is exp(drift + sigma_daily*Z) plus Poisson-arriving normal jumps, so
// with zero jump intensity the median terminal price is
// spot * exp(drift * horizon).
func SimulateCone(cfg MonteCarloConfig) (contracts.PriceCone, error) {
	terminal, err := simulateTerminal(cfg)
	if err != nil {
		return contracts.PriceCone{}, err
	}
	sorted := SortedCopy(terminal)
	return contracts.PriceCone{
		HorizonDays: cfg.HorizonDays,
		Paths:       cfg.Paths,
		P16:         Percentile(sorted, 16),
		P50:         Percentile(sorted, 50),
		P84:         Percentile(sorted, 84),
	}, nil
}

// SimulateSurface runs a one-day simulation and reports the share of paths
// beyond the +-1% / +-2% next-day move thresholds. CallBias is the up-1%
// share minus the down-1% share, in [-1, 1].
func SimulateSurface(cfg MonteCarloConfig) (contracts.ProbabilitySurface, error) {
	oneDay := cfg
	oneDay.HorizonDays = 1
	terminal, err := simulateTerminal(oneDay)
	if err != nil {
		return contracts.ProbabilitySurface{}, err
	}

	var up1, up2, down1, down2, within int
	for _, price := range terminal {
		change := price/cfg.Spot - 1
		switch {
		case change >= 0.02:
			up2++
			up1++
		case change >= 0.01:
			up1++
		case change <= -0.02:
			down2++
			down1++
		case change <= -0.01:
			down1++
		default:
			within++
		}
	}
	n := float64(len(terminal))
	surface := contracts.ProbabilitySurface{
		Up1Pct:     float64(up1) / n,
		Up2Pct:     float64(up2) / n,
		Down1Pct:   float64(down1) / n,
		Down2Pct:   float64(down2) / n,
		Within1Pct: float64(within) / n,
	}
	surface.CallBias = surface.Up1Pct - surface.Down1Pct
	return surface, nil
}

func simulateTerminal(cfg MonteCarloConfig) ([]float64, error) {
	if cfg.Spot <= 0 {
		return nil, fmt.Errorf("monte carlo: spot must be positive, got %v", cfg.Spot)
	}
	if cfg.AnnualVol < 0 {
		return nil, fmt.Errorf("monte carlo: negative volatility %v", cfg.AnnualVol)
	}
	if cfg.HorizonDays <= 0 || cfg.Paths <= 0 {
		return nil, fmt.Errorf("monte carlo: horizon %d and paths %d must be positive",
			cfg.HorizonDays, cfg.Paths)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	dailyVol := cfg.AnnualVol / math.Sqrt(tradingDaysPerYear)
	logSpot := math.Log(cfg.Spot)

	terminal := make([]float64, cfg.Paths)
	for p := 0; p < cfg.Paths; p++ {
		logPrice := logSpot
		for d := 0; d < cfg.HorizonDays; d++ {
			logPrice += cfg.DailyDrift + dailyVol*rng.NormFloat64()
			if cfg.Jump.Intensity > 0 {
				for j := poisson(rng, cfg.Jump.Intensity); j > 0; j-- {
					logPrice += cfg.Jump.Mean + cfg.Jump.StdDev*rng.NormFloat64()
				}
			}
		}
		terminal[p] = math.Exp(logPrice)
	}
	return terminal, nil
}

// poisson samples by inversion; daily intensities here are far below 1 so
// the loop terminates almost immediately.
func poisson(rng *rand.Rand, lambda float64) int {
	limit := math.Exp(-lambda)
	product := rng.Float64()
	count := 0
	for product > limit {
		product *= rng.Float64()
		count++
	}
	return count
}
