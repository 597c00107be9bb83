package domain

import (
	"sort"
	"time"
)

// Streaks resume las rachas de posiciones ganadoras de un trader.
type Streaks struct {
	LongestStreak int
	CurrentStreak int // racha sin romper que termina en la posición más reciente
	TotalWins     int
	TotalLosses   int
}

// resolvedAt es el instante usado para ordenar: cierre, si no apertura, si no zero time.
func resolvedAt(c ClosedPosition) time.Time {
	if !c.ClosedAt.IsZero() {
		return c.ClosedAt
	}
	return c.OpenedAt
}

// DetectStreaks recorre las posiciones cerradas en orden cronológico.
// realized > 0 extiende la racha, realized < 0 la rompe y realized == 0 se ignora.
// No modifica el slice de entrada.
func DetectStreaks(closed []ClosedPosition) Streaks {
	ordered := make([]ClosedPosition, len(closed))
	copy(ordered, closed)
	sort.SliceStable(ordered, func(i, j int) bool {
		ti, tj := resolvedAt(ordered[i]), resolvedAt(ordered[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return ordered[i].MarketID < ordered[j].MarketID
	})

	var s Streaks
	running := 0
	for _, c := range ordered {
		switch {
		case c.RealizedPnL > 0:
			s.TotalWins++
			running++
		case c.RealizedPnL < 0:
			s.TotalLosses++
			s.LongestStreak = max(s.LongestStreak, running)
			running = 0
		}
	}

	// La lista puede terminar a mitad de racha.
	s.LongestStreak = max(s.LongestStreak, running)
	s.CurrentStreak = running
	return s
}
