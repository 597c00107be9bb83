package domain

import "time"

// Ordering es el nombre de uno de los nueve leaderboards.
type Ordering string

const (
	OrderWShrunk      Ordering = "w_shrunk"
	OrderROIRaw       Ordering = "roi_raw"
	OrderROIShrunk    Ordering = "roi_shrunk"
	OrderPnLShrunk    Ordering = "pnl_shrunk"
	OrderScoreWinRate Ordering = "score_win_rate"
	OrderScoreROI     Ordering = "score_roi"
	OrderScorePnL     Ordering = "score_pnl"
	OrderScoreRisk    Ordering = "score_risk"
	OrderFinalScore   Ordering = "final_score"
)

// Orderings devuelve los nueve leaderboards en orden de presentación.
func Orderings() []Ordering {
	return []Ordering{
		OrderWShrunk, OrderROIRaw, OrderROIShrunk, OrderPnLShrunk,
		OrderScoreWinRate, OrderScoreROI, OrderScorePnL, OrderScoreRisk,
		OrderFinalScore,
	}
}

// ParseOrdering valida un nombre de leaderboard.
func ParseOrdering(s string) (Ordering, error) {
	for _, o := range Orderings() {
		if string(o) == s {
			return o, nil
		}
	}
	return "", ErrUnknownOrdering
}

// Ascending indica si el rank 1 es el valor más pequeño. Los leaderboards
// shrunk ordenan ascendente; roi_raw, final_score y score_* descendente.
func (o Ordering) Ascending() bool {
	switch o {
	case OrderWShrunk, OrderROIShrunk, OrderPnLShrunk:
		return true
	}
	return false
}

// Shrunk indica si el leaderboard solo admite traders de la población.
func (o Ordering) Shrunk() bool {
	return o.Ascending()
}

// Value extrae de las métricas el valor por el que ordena el leaderboard.
func (o Ordering) Value(m ScoredMetrics) float64 {
	switch o {
	case OrderWShrunk:
		return m.WShrunk
	case OrderROIRaw:
		return m.ROI
	case OrderROIShrunk:
		return m.ROIShrunk
	case OrderPnLShrunk:
		return m.PnLShrunk
	case OrderScoreWinRate:
		return m.WinScore
	case OrderScoreROI:
		return m.ROIScore
	case OrderScorePnL:
		return m.PnLScore
	case OrderScoreRisk:
		return m.RiskScore
	case OrderFinalScore:
		return m.FinalScore
	}
	return 0
}

// LeaderboardEntry es una fila rankeada.
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	TraderID   string  `json:"trader_id"`
	TraderName string  `json:"trader_name,omitempty"`
	Value      float64 `json:"value"`

	TotalTrades     int     `json:"total_trades"`
	ConfidenceScore float64 `json:"confidence_score"`
	FinalScore      float64 `json:"final_score"`
}

// Leaderboard es un ranking bajo una ordenación. Unranked lista los traders
// visibles pero fuera del ranking (sin trades o fuera de la población).
type Leaderboard struct {
	Ordering  Ordering           `json:"ordering"`
	Ascending bool               `json:"ascending"`
	Entries   []LeaderboardEntry `json:"entries"`
	Unranked  []string           `json:"unranked,omitempty"`
}

// Top devuelve una copia con como mucho n entradas; n <= 0 devuelve todo.
func (l Leaderboard) Top(n int) Leaderboard {
	if n > 0 && n < len(l.Entries) {
		l.Entries = l.Entries[:n]
	}
	return l
}

// Snapshot es un leaderboard persistido junto con la configuración con la que se calculó.
type Snapshot struct {
	ID             string                `json:"id"`
	CreatedAt      time.Time             `json:"created_at"`
	ScoringVersion string                `json:"scoring_version"`
	Weights        Weights               `json:"weights"`
	Percentiles    PopulationPercentiles `json:"percentiles"`
	Leaderboards   []Leaderboard         `json:"leaderboards"`
}

// Board devuelve el leaderboard de la ordenación dada.
func (s Snapshot) Board(o Ordering) (Leaderboard, bool) {
	for _, l := range s.Leaderboards {
		if l.Ordering == o {
			return l, true
		}
	}
	return Leaderboard{}, false
}
