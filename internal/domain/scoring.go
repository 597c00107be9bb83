package domain

import (
	"fmt"
	"math"
)

// Weights es el vector de pesos del final score. Cambiarlo cambia todos los
// rankings históricos: siempre viaja junto con ScoringConfig.Version.
type Weights struct {
	WinRate float64 `yaml:"win_rate" json:"win_rate"`
	ROI     float64 `yaml:"roi" json:"roi"`
	PnL     float64 `yaml:"pnl" json:"pnl"`
	Risk    float64 `yaml:"risk" json:"risk"`
}

// Sum devuelve la suma de los pesos.
func (w Weights) Sum() float64 {
	return w.WinRate + w.ROI + w.PnL + w.Risk
}

// Validate rechaza pesos negativos o no finitos. Un vector todo a cero es válido:
// WithDefaults lo sustituye por los pesos por defecto.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{"win_rate": w.WinRate, "roi": w.ROI, "pnl": w.PnL, "risk": w.Risk} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight %s must be a finite value >= 0, got %v", name, v)
		}
	}
	return nil
}

// ScoringConfig es la configuración versionada del Composite Scorer.
type ScoringConfig struct {
	Version string  `yaml:"version" json:"version"`
	Weights Weights `yaml:"weights" json:"weights"`

	// ConfidenceTrades es el número de trades a partir del cual la confianza es 100.
	ConfidenceTrades int `yaml:"confidence_trades" json:"confidence_trades"`
	// MinPopulationTrades es el mínimo de trades para entrar en el cálculo de percentiles.
	MinPopulationTrades int `yaml:"min_population_trades" json:"min_population_trades"`

	// Curvas lineales usadas cuando no hay percentiles de población.
	ROIFloor    float64 `yaml:"roi_floor" json:"roi_floor"`
	ROICeiling  float64 `yaml:"roi_ceiling" json:"roi_ceiling"`
	PnLFloor    float64 `yaml:"pnl_floor" json:"pnl_floor"`
	PnLCeiling  float64 `yaml:"pnl_ceiling" json:"pnl_ceiling"`
	RiskCeiling float64 `yaml:"risk_ceiling" json:"risk_ceiling"` // downside ratio que da risk_score 0
}

// DefaultScoringConfig devuelve la configuración v1.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Version: "v1",
		Weights: Weights{
			WinRate: 0.30,
			ROI:     0.25,
			PnL:     0.25,
			Risk:    0.20,
		},
		ConfidenceTrades:    20,
		MinPopulationTrades: 5,
		ROIFloor:            -100,
		ROICeiling:          100,
		PnLFloor:            -10_000,
		PnLCeiling:          10_000,
		RiskCeiling:         1.0,
	}
}

// WithDefaults rellena los campos no configurados con los valores de DefaultScoringConfig.
func (c ScoringConfig) WithDefaults() ScoringConfig {
	d := DefaultScoringConfig()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Weights.Sum() <= 0 {
		c.Weights = d.Weights
	}
	if c.ConfidenceTrades <= 0 {
		c.ConfidenceTrades = d.ConfidenceTrades
	}
	if c.MinPopulationTrades <= 0 {
		c.MinPopulationTrades = d.MinPopulationTrades
	}
	if c.ROICeiling <= c.ROIFloor {
		c.ROIFloor, c.ROICeiling = d.ROIFloor, d.ROICeiling
	}
	if c.PnLCeiling <= c.PnLFloor {
		c.PnLFloor, c.PnLCeiling = d.PnLFloor, d.PnLCeiling
	}
	if c.RiskCeiling <= 0 {
		c.RiskCeiling = d.RiskCeiling
	}
	return c
}

// ScoredMetrics son las métricas derivadas de un trader. Viven lo que dura un cálculo.
type ScoredMetrics struct {
	TraderID    string
	TraderName  string
	TotalTrades int
	TotalVolume float64
	BuyVolume   float64
	SellVolume  float64
	WinRate     float64 // %
	TotalPnL    float64
	LargestWin  float64
	Streaks     Streaks
	ROI         float64 // %

	DownsideRisk float64 // ratio crudo, ver PortfolioSummary.DownsideRisk

	WinScore        float64
	ROIScore        float64
	PnLScore        float64
	RiskScore       float64
	ConfidenceScore float64
	FinalScore      float64

	// Variantes con shrinkage hacia la mediana de la población.
	WShrunk      float64
	ROIShrunk    float64
	PnLShrunk    float64
	InPopulation bool // TotalTrades >= MinPopulationTrades
}

// RawMetrics construye las métricas crudas (sin scores) a partir del agregado y las rachas.
func RawMetrics(traderID string, summary PortfolioSummary, streaks Streaks) ScoredMetrics {
	return ScoredMetrics{
		TraderID:     traderID,
		TotalTrades:  summary.TotalTrades,
		TotalVolume:  summary.TotalVolume,
		BuyVolume:    summary.BuyVolume,
		SellVolume:   summary.SellVolume,
		WinRate:      summary.WinRate(),
		TotalPnL:     summary.TotalPnL,
		LargestWin:   summary.LargestWin,
		Streaks:      streaks,
		ROI:          summary.ROI,
		DownsideRisk: summary.DownsideRisk,
	}
}

// Score calcula los sub-scores, el final score, la confianza y las variantes shrunk.
//
//	win_score  = win rate, clamp 0–100
//	roi_score  = lineal entre p1 y p99 de la población (o roi_floor/roi_ceiling sin población)
//	pnl_score  = igual que roi_score con PnL
//	risk_score = 100 × (1 − downside/risk_ceiling), invertido: menos riesgo, más score
//	final      = Σ peso × sub-score / Σ pesos
//
// Un trader sin trades recibe todos los scores a 0.
func Score(m ScoredMetrics, cfg ScoringConfig, pct PopulationPercentiles) ScoredMetrics {
	cfg = cfg.WithDefaults()
	m.InPopulation = m.TotalTrades >= cfg.MinPopulationTrades

	m.WShrunk, m.ROIShrunk, m.PnLShrunk = m.WinRate, m.ROI, m.TotalPnL

	if m.TotalTrades <= 0 {
		m.WinScore, m.ROIScore, m.PnLScore, m.RiskScore = 0, 0, 0, 0
		m.ConfidenceScore, m.FinalScore = 0, 0
		return m
	}

	m.ConfidenceScore = Confidence(m.TotalTrades, cfg.ConfidenceTrades)

	m.WinScore = clamp(m.WinRate, 0, 100)
	if pct.Usable() && pct.ROIShrunkP99 > pct.ROIShrunkP1 {
		m.ROIScore = linearScore(m.ROI, pct.ROIShrunkP1, pct.ROIShrunkP99)
	} else {
		m.ROIScore = linearScore(m.ROI, cfg.ROIFloor, cfg.ROICeiling)
	}
	if pct.Usable() && pct.PnLShrunkP99 > pct.PnLShrunkP1 {
		m.PnLScore = linearScore(m.TotalPnL, pct.PnLShrunkP1, pct.PnLShrunkP99)
	} else {
		m.PnLScore = linearScore(m.TotalPnL, cfg.PnLFloor, cfg.PnLCeiling)
	}
	m.RiskScore = 100 * (1 - math.Min(m.DownsideRisk/cfg.RiskCeiling, 1))

	w := cfg.Weights
	m.FinalScore = clamp((w.WinRate*m.WinScore+w.ROI*m.ROIScore+w.PnL*m.PnLScore+w.Risk*m.RiskScore)/w.Sum(), 0, 100)

	if pct.Usable() {
		c := m.ConfidenceScore / 100
		m.WShrunk = Shrink(m.WinRate, pct.WinRateMedian, pct.WShrunkP1, pct.WShrunkP99, c)
		m.ROIShrunk = Shrink(m.ROI, pct.ROIMedian, pct.ROIShrunkP1, pct.ROIShrunkP99, c)
		m.PnLShrunk = Shrink(m.TotalPnL, pct.PnLMedian, pct.PnLShrunkP1, pct.PnLShrunkP99, c)
	}
	return m
}

// Confidence devuelve min(trades/threshold, 1) × 100.
func Confidence(trades, threshold int) float64 {
	if trades <= 0 || threshold <= 0 {
		return 0
	}
	return math.Min(float64(trades)/float64(threshold), 1) * 100
}

// linearScore mapea [lo, hi] → [0, 100] y satura fuera del rango.
func linearScore(x, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return clamp((x-lo)/(hi-lo)*100, 0, 100)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
