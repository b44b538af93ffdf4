package risk

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Zero jump intensity: the median terminal price must sit within 1% of the
// analytic spot*exp(drift*horizon).
func TestConeMedianMatchesAnalyticNoJump(t *testing.T) {
	cases := []struct {
		name  string
		drift float64
	}{
		{name: "driftless", drift: 0},
		{name: "positive drift", drift: 0.001},
		{name: "negative drift", drift: -0.001},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cone, err := SimulateCone(MonteCarloConfig{
				Spot:        100,
				AnnualVol:   0.20, // volatility index at 20
				HorizonDays: 5,
				Paths:       DefaultPaths,
				DailyDrift:  tc.drift,
				Seed:        7,
			})
			require.NoError(t, err)

			analytic := 100 * math.Exp(tc.drift*5)
			assert.InDelta(t, analytic, cone.P50, analytic*0.01)
			assert.Less(t, cone.P16, cone.P50)
			assert.Less(t, cone.P50, cone.P84)
			assert.Equal(t, 5, cone.HorizonDays)
			assert.Equal(t, DefaultPaths, cone.Paths)
		})
	}
}

func TestConeSeedDeterminism(t *testing.T) {
	cfg := MonteCarloConfig{
		Spot: 250, AnnualVol: 0.18, HorizonDays: 10,
		Paths: 2000, Seed: 42,
		Jump: JumpParams{Intensity: 0.02, Mean: -0.01, StdDev: 0.02},
	}
	a, err := SimulateCone(cfg)
	require.NoError(t, err)
	b, err := SimulateCone(cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestConeRejectsInvalidDomain(t *testing.T) {
	_, err := SimulateCone(MonteCarloConfig{Spot: -1, AnnualVol: 0.2, HorizonDays: 5, Paths: 100})
	assert.Error(t, err)
	_, err = SimulateCone(MonteCarloConfig{Spot: 100, AnnualVol: -0.2, HorizonDays: 5, Paths: 100})
	assert.Error(t, err)
	_, err = SimulateCone(MonteCarloConfig{Spot: 100, AnnualVol: 0.2, HorizonDays: 0, Paths: 100})
	assert.Error(t, err)
}

func TestSurfaceSharesSumToOne(t *testing.T) {
	surface, err := SimulateSurface(MonteCarloConfig{
		Spot: 100, AnnualVol: 0.25, HorizonDays: 1,
		Paths: DefaultPaths, Seed: 11,
	})
	require.NoError(t, err)

	total := surface.Up1Pct + surface.Down1Pct + surface.Within1Pct
	assert.InDelta(t, 1.0, total, 1e-9)
	assert.LessOrEqual(t, surface.Up2Pct, surface.Up1Pct)
	assert.LessOrEqual(t, surface.Down2Pct, surface.Down1Pct)
	assert.InDelta(t, surface.Up1Pct-surface.Down1Pct, surface.CallBias, 1e-12)
	// Driftless: roughly symmetric.
	assert.InDelta(t, 0, surface.CallBias, 0.05)
}

func TestEstimateJumpsFlagsTailReturns(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	returns := make([]float64, 500)
	for i := range returns {
		returns[i] = rng.NormFloat64() * 0.01
	}
	// Inject 10 unmistakable jumps.
	for i := 0; i < 10; i++ {
		returns[i*50] = -0.08
	}

	jp := EstimateJumps(returns)
	assert.Greater(t, jp.Intensity, 0.0)
	assert.Less(t, jp.Intensity, 0.2)
	assert.Less(t, jp.Mean, 0.0) // injected jumps are all downside
}

func TestEstimateJumpsFlatSeries(t *testing.T) {
	jp := EstimateJumps(make([]float64, 100))
	assert.Zero(t, jp.Intensity)
}
