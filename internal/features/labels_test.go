package features

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildAligned(t *testing.T, seed int64) (*LabelSet, int) {
	t.Helper()
	b := NewBuilder(zerolog.Nop())
	s := synthSeries(t, "SPY", 500, seed)
	rows, err := b.Build(s, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// Align bars to emitted rows by date.
	byDate := make(map[time.Time]int, s.Len())
	for i, bar := range s.Bars {
		byDate[bar.Date] = i
	}
	bars := s.Bars[:0:0]
	for _, row := range rows {
		idx, ok := byDate[row.Date]
		require.True(t, ok)
		bars = append(bars, s.Bars[idx])
	}
	return BuildLabels(rows, bars), len(rows)
}

func TestBuildLabelsForwardValidity(t *testing.T) {
	ls, n := buildAligned(t, 10)

	// The last row has no next day; the momentum horizon invalidates the
	// final three.
	assert.False(t, ls.ReversalValid[n-1])
	assert.False(t, ls.NextRangeValid[n-1])
	for i := n - MomentumHorizon; i < n; i++ {
		assert.False(t, ls.MomentumValid[i])
	}

	// Interior rows are labeled.
	countValid := func(valid []bool) int {
		c := 0
		for _, v := range valid {
			if v {
				c++
			}
		}
		return c
	}
	assert.Greater(t, countValid(ls.MomentumValid), n/2)
	assert.Greater(t, countValid(ls.NextRangeValid), n/2)
	assert.Greater(t, countValid(ls.DivergenceValid), n/2)
}

func TestBuildLabelsBinaryTargets(t *testing.T) {
	ls, n := buildAligned(t, 11)

	for i := 0; i < n; i++ {
		if ls.ReversalValid[i] {
			assert.Contains(t, []float64{0, 1}, ls.Reversal[i])
		}
		if ls.MomentumValid[i] {
			assert.Contains(t, []float64{0, 1}, ls.Momentum[i])
		}
		if ls.DivergenceValid[i] {
			assert.Contains(t, []float64{0, 1}, ls.Divergence[i])
		}
		if ls.NextRangeValid[i] {
			assert.Greater(t, ls.NextRange[i], 0.0)
		}
	}
}

func TestFilterKeepsOnlyValid(t *testing.T) {
	ls, _ := buildAligned(t, 12)

	b := NewBuilder(zerolog.Nop())
	s := synthSeries(t, "SPY", 500, 12)
	rows, err := b.Build(s, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	kept, tgt := Filter(rows, ls.Momentum, ls.MomentumValid)
	assert.Equal(t, len(kept), len(tgt))
	assert.Less(t, len(kept), len(rows))
	assert.Greater(t, len(kept), 0)
}
