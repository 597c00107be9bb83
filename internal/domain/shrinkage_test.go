package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile_Interpolates(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 3.0, Percentile(sorted, 50))
	assert.Equal(t, 1.0, Percentile(sorted, 0))
	assert.Equal(t, 5.0, Percentile(sorted, 100))
	assert.InDelta(t, 1.04, Percentile(sorted, 1), 0.0001)
	assert.InDelta(t, 4.96, Percentile(sorted, 99), 0.0001)
}

func TestPercentile_EdgeCases(t *testing.T) {
	assert.Equal(t, 0.0, Percentile(nil, 50))
	assert.Equal(t, 7.0, Percentile([]float64{7}, 99))
}

func TestComputePercentiles_ExcludesSmallSamples(t *testing.T) {
	metrics := []ScoredMetrics{
		{TraderID: "a", TotalTrades: 10, WinRate: 40, ROI: -10, TotalPnL: -100},
		{TraderID: "b", TotalTrades: 6, WinRate: 60, ROI: 20, TotalPnL: 300},
		{TraderID: "c", TotalTrades: 5, WinRate: 50, ROI: 5, TotalPnL: 50},
		{TraderID: "d", TotalTrades: 2, WinRate: 100, ROI: 900, TotalPnL: 9000},
		{TraderID: "e", TotalTrades: 0},
	}
	pct := ComputePercentiles(metrics, 5)

	require.True(t, pct.Usable())
	assert.Equal(t, 3, pct.PopulationSize)
	assert.Equal(t, 50.0, pct.WinRateMedian)
	assert.Equal(t, 5.0, pct.ROIMedian)
	assert.Equal(t, 50.0, pct.PnLMedian)
	assert.Less(t, pct.ROIShrunkP99, 900.0, "trader d no entra en la población")
}

func TestComputePercentiles_EmptyPopulationDegrades(t *testing.T) {
	pct := ComputePercentiles([]ScoredMetrics{{TotalTrades: 3}}, 5)
	assert.True(t, pct.Degraded)
	assert.False(t, pct.Usable())
}

// --- Shrink ---

func TestShrink_ZeroConfidenceIsMedian(t *testing.T) {
	assert.Equal(t, 10.0, Shrink(80, 10, 0, 100, 0))
}

func TestShrink_FullConfidenceIsRawClipped(t *testing.T) {
	assert.Equal(t, 60.0, Shrink(60, 10, 0, 100, 1))
	assert.Equal(t, 100.0, Shrink(150, 10, 0, 100, 1))
	assert.Equal(t, 0.0, Shrink(-20, 10, 0, 100, 1))
}

func TestShrink_NeverMovesAwayFromMedian(t *testing.T) {
	median, p1, p99 := 5.0, -40.0, 60.0
	for _, raw := range []float64{-500, -40, -3, 0, 5, 12, 59, 61, 1000} {
		for _, c := range []float64{0, 0.05, 0.2, 0.5, 0.8, 1} {
			shrunk := Shrink(raw, median, p1, p99, c)
			assert.LessOrEqual(t, math.Abs(shrunk-median), math.Abs(raw-median)+1e-9,
				"raw=%v confidence=%v", raw, c)
		}
	}
}

func TestScore_LowSampleShrinksTowardMedian(t *testing.T) {
	pct := PopulationPercentiles{
		WShrunkP1: 20, WShrunkP99: 80,
		ROIShrunkP1: -50, ROIShrunkP99: 50,
		PnLShrunkP1: -1000, PnLShrunkP99: 1000,
		WinRateMedian: 50, ROIMedian: 0, PnLMedian: 0,
		PopulationSize: 20,
	}
	m := Score(makeRaw(2, 100, 45, 900, 0), DefaultScoringConfig(), pct)

	assert.LessOrEqual(t, math.Abs(m.WShrunk-50), math.Abs(100.0-50))
	assert.LessOrEqual(t, math.Abs(m.ROIShrunk), 45.0)
	assert.LessOrEqual(t, math.Abs(m.PnLShrunk), 900.0)
	// confianza 10% → roi 0.1×45 = 4.5
	assert.InDelta(t, 4.5, m.ROIShrunk, 0.0001)
	assert.False(t, m.InPopulation)
}
