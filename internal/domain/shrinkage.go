package domain

import (
	"math"
	"sort"
)

// PopulationPercentiles son los anclajes de shrinkage de una época de ranking.
// Se calculan sobre los traders con al menos MinPopulationTrades trades y no se
// modifican al puntuar a un trader individual.
type PopulationPercentiles struct {
	WShrunkP1    float64 `json:"w_shrunk_1_percent"`
	WShrunkP99   float64 `json:"w_shrunk_99_percent"`
	ROIShrunkP1  float64 `json:"roi_shrunk_1_percent"`
	ROIShrunkP99 float64 `json:"roi_shrunk_99_percent"`
	PnLShrunkP1  float64 `json:"pnl_shrunk_1_percent"`
	PnLShrunkP99 float64 `json:"pnl_shrunk_99_percent"`

	WinRateMedian float64 `json:"win_rate_median"`
	ROIMedian     float64 `json:"roi_median"`
	PnLMedian     float64 `json:"pnl_median"`

	PopulationSize int `json:"population_size"`
	// Degraded indica que no hubo población suficiente: shrunk == raw.
	Degraded bool `json:"degraded"`
}

// Usable devuelve true si los percentiles pueden usarse como anclajes.
func (p PopulationPercentiles) Usable() bool {
	return !p.Degraded && p.PopulationSize > 0
}

// DegradedPercentiles devuelve unos percentiles marcados como no utilizables.
func DegradedPercentiles() PopulationPercentiles {
	return PopulationPercentiles{Degraded: true}
}

// ComputePercentiles calcula p1, p99 y mediana de win rate, ROI y PnL sobre los
// traders con TotalTrades >= minTrades. Sin ningún trader cualificado devuelve
// unos percentiles Degraded.
func ComputePercentiles(metrics []ScoredMetrics, minTrades int) PopulationPercentiles {
	var win, roi, pnl []float64
	for _, m := range metrics {
		if m.TotalTrades <= 0 || m.TotalTrades < minTrades {
			continue
		}
		win = append(win, m.WinRate)
		roi = append(roi, m.ROI)
		pnl = append(pnl, m.TotalPnL)
	}
	if len(win) == 0 {
		return DegradedPercentiles()
	}

	sort.Float64s(win)
	sort.Float64s(roi)
	sort.Float64s(pnl)

	return PopulationPercentiles{
		WShrunkP1:      Percentile(win, 1),
		WShrunkP99:     Percentile(win, 99),
		ROIShrunkP1:    Percentile(roi, 1),
		ROIShrunkP99:   Percentile(roi, 99),
		PnLShrunkP1:    Percentile(pnl, 1),
		PnLShrunkP99:   Percentile(pnl, 99),
		WinRateMedian:  Percentile(win, 50),
		ROIMedian:      Percentile(roi, 50),
		PnLMedian:      Percentile(pnl, 50),
		PopulationSize: len(win),
	}
}

// Percentile devuelve el percentil p (0–100) de una serie ya ordenada,
// interpolando linealmente entre los dos vecinos más cercanos.
func Percentile(sorted []float64, p float64) float64 {
	switch len(sorted) {
	case 0:
		return 0
	case 1:
		return sorted[0]
	}
	p = clamp(p, 0, 100)

	index := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(index))
	hi := int(math.Ceil(index))
	if lo == hi {
		return sorted[lo]
	}
	weight := index - float64(lo)
	return sorted[lo]*(1-weight) + sorted[hi]*weight
}

// Shrink acerca raw a la mediana en proporción a (1 − confidence) y recorta a [p1, p99]:
//
//	shrunk = clamp(confidence·raw + (1 − confidence)·median, p1, p99)
//
// confidence va de 0 (todo mediana) a 1 (todo raw). Como la mediana está dentro
// de [p1, p99], el resultado nunca se aleja de la mediana más que raw.
func Shrink(raw, median, p1, p99, confidence float64) float64 {
	c := clamp(confidence, 0, 1)
	v := c*raw + (1-c)*median
	if p99 < p1 {
		p1, p99 = p99, p1
	}
	return clamp(v, p1, p99)
}
