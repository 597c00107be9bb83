package leaderboard

import (
	"sort"

	"github.com/alejandrodnm/polyscore/internal/domain"
)

// Rank ordena las métricas bajo una ordenación y asigna Rank = posición + 1.
//
// Los leaderboards shrunk solo rankean a la población (InPopulation) y ordenan
// ascendente: rank 1 es el valor shrunk más pequeño. roi_raw, final_score y
// score_* rankean a todo trader con trades y ordenan descendente. Los empates
// se resuelven por TraderID ascendente. El resto queda en Unranked.
func Rank(metrics []domain.ScoredMetrics, o domain.Ordering) domain.Leaderboard {
	board := domain.Leaderboard{
		Ordering:  o,
		Ascending: o.Ascending(),
		Entries:   []domain.LeaderboardEntry{},
	}

	for _, m := range metrics {
		if !eligible(m, o) {
			board.Unranked = append(board.Unranked, m.TraderID)
			continue
		}
		board.Entries = append(board.Entries, domain.LeaderboardEntry{
			TraderID:        m.TraderID,
			TraderName:      m.TraderName,
			Value:           o.Value(m),
			TotalTrades:     m.TotalTrades,
			ConfidenceScore: m.ConfidenceScore,
			FinalScore:      m.FinalScore,
		})
	}

	asc := board.Ascending
	sort.SliceStable(board.Entries, func(i, j int) bool {
		a, b := board.Entries[i], board.Entries[j]
		if a.Value != b.Value {
			if asc {
				return a.Value < b.Value
			}
			return a.Value > b.Value
		}
		return a.TraderID < b.TraderID
	})
	for i := range board.Entries {
		board.Entries[i].Rank = i + 1
	}
	sort.Strings(board.Unranked)
	return board
}

// RankAll construye los nueve leaderboards en el orden de domain.Orderings.
func RankAll(metrics []domain.ScoredMetrics) []domain.Leaderboard {
	orderings := domain.Orderings()
	boards := make([]domain.Leaderboard, 0, len(orderings))
	for _, o := range orderings {
		boards = append(boards, Rank(metrics, o))
	}
	return boards
}

func eligible(m domain.ScoredMetrics, o domain.Ordering) bool {
	if m.TotalTrades <= 0 {
		return false
	}
	if o.Shrunk() {
		return m.InPopulation
	}
	return true
}
