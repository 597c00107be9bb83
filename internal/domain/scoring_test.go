package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeRaw(trades int, winRate, roi, pnl, risk float64) ScoredMetrics {
	return ScoredMetrics{
		TraderID:     "0xabc",
		TotalTrades:  trades,
		WinRate:      winRate,
		ROI:          roi,
		TotalPnL:     pnl,
		DownsideRisk: risk,
	}
}

// --- Score ---

func TestScore_ZeroTrades(t *testing.T) {
	m := Score(makeRaw(0, 80, 50, 1000, 0), DefaultScoringConfig(), DegradedPercentiles())
	assert.Equal(t, 0.0, m.FinalScore)
	assert.Equal(t, 0.0, m.ConfidenceScore)
	assert.Equal(t, 0.0, m.WinScore)
	assert.False(t, m.InPopulation)
}

func TestScore_LinearFallbackWithoutPopulation(t *testing.T) {
	// roi 0 → 50, pnl 0 → 50, win 60, sin pérdidas → risk 100
	// final = (0.30×60 + 0.25×50 + 0.25×50 + 0.20×100) / 1.0 = 63
	m := Score(makeRaw(10, 60, 0, 0, 0), DefaultScoringConfig(), DegradedPercentiles())
	assert.InDelta(t, 60, m.WinScore, 0.0001)
	assert.InDelta(t, 50, m.ROIScore, 0.0001)
	assert.InDelta(t, 50, m.PnLScore, 0.0001)
	assert.InDelta(t, 100, m.RiskScore, 0.0001)
	assert.InDelta(t, 63, m.FinalScore, 0.0001)
	assert.InDelta(t, 50, m.ConfidenceScore, 0.0001) // 10/20
}

func TestScore_SubScoresSaturate(t *testing.T) {
	high := Score(makeRaw(50, 150, 10_000, 1e9, 0), DefaultScoringConfig(), DegradedPercentiles())
	assert.Equal(t, 100.0, high.WinScore)
	assert.Equal(t, 100.0, high.ROIScore)
	assert.Equal(t, 100.0, high.PnLScore)

	low := Score(makeRaw(50, -5, -10_000, -1e9, 5), DefaultScoringConfig(), DegradedPercentiles())
	assert.Equal(t, 0.0, low.WinScore)
	assert.Equal(t, 0.0, low.ROIScore)
	assert.Equal(t, 0.0, low.PnLScore)
	assert.Equal(t, 0.0, low.RiskScore)
}

func TestScore_MonotonicInROI(t *testing.T) {
	cfg := DefaultScoringConfig()
	prev := -1.0
	for _, roi := range []float64{-200, -50, 0, 10, 40, 99, 300} {
		m := Score(makeRaw(20, 50, roi, 0, 0), cfg, DegradedPercentiles())
		assert.GreaterOrEqual(t, m.ROIScore, prev)
		prev = m.ROIScore
	}
}

func TestScore_RiskInverted(t *testing.T) {
	cfg := DefaultScoringConfig()
	safe := Score(makeRaw(20, 50, 0, 0, 0.1), cfg, DegradedPercentiles())
	risky := Score(makeRaw(20, 50, 0, 0, 0.6), cfg, DegradedPercentiles())
	assert.Greater(t, safe.RiskScore, risky.RiskScore)
	assert.InDelta(t, 90, safe.RiskScore, 0.0001)
}

func TestScore_PercentileNormalized(t *testing.T) {
	pct := PopulationPercentiles{
		WShrunkP1: 10, WShrunkP99: 90,
		ROIShrunkP1: -20, ROIShrunkP99: 20,
		PnLShrunkP1: -100, PnLShrunkP99: 300,
		WinRateMedian: 50, ROIMedian: 0, PnLMedian: 100,
		PopulationSize: 10,
	}
	m := Score(makeRaw(20, 50, 10, 200, 0), DefaultScoringConfig(), pct)
	assert.InDelta(t, 75, m.ROIScore, 0.0001)
	assert.InDelta(t, 75, m.PnLScore, 0.0001)
	// confianza plena → shrunk == raw dentro de [p1, p99]
	assert.InDelta(t, 10, m.ROIShrunk, 0.0001)
	assert.InDelta(t, 200, m.PnLShrunk, 0.0001)
	assert.True(t, m.InPopulation)
}

func TestScore_DegradedKeepsRaw(t *testing.T) {
	m := Score(makeRaw(3, 70, 35, 420, 0), DefaultScoringConfig(), DegradedPercentiles())
	assert.Equal(t, 70.0, m.WShrunk)
	assert.Equal(t, 35.0, m.ROIShrunk)
	assert.Equal(t, 420.0, m.PnLShrunk)
}

func TestScoringConfig_WithDefaults(t *testing.T) {
	cfg := ScoringConfig{Weights: Weights{}}.WithDefaults()
	assert.Equal(t, DefaultScoringConfig(), cfg)

	custom := ScoringConfig{Version: "v2", Weights: Weights{WinRate: 1}}.WithDefaults()
	assert.Equal(t, "v2", custom.Version)
	assert.Equal(t, 1.0, custom.Weights.Sum())
	assert.Equal(t, 5, custom.MinPopulationTrades)
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 0.0, Confidence(0, 20))
	assert.InDelta(t, 25, Confidence(5, 20), 0.0001)
	assert.Equal(t, 100.0, Confidence(40, 20))
	assert.Equal(t, 0.0, Confidence(10, 0))
}

func TestWeights_Validate(t *testing.T) {
	assert.NoError(t, DefaultScoringConfig().Weights.Validate())
	assert.NoError(t, Weights{}.Validate())
	assert.Error(t, Weights{WinRate: 1, ROI: -0.1}.Validate())
	assert.Error(t, Weights{PnL: math.Inf(1)}.Validate())
}
