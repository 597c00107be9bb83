package domain

import (
	"sort"
	"strings"
)

// Verdict es el resultado de clasificar un fill como ganador o perdedor.
type Verdict int

const (
	VerdictUnclassified Verdict = iota
	VerdictWin
	VerdictLose
)

// OutcomePolicy decide si un fill cuenta como win o lose para su trader.
// Es una aproximación: no conoce la resolución real del mercado.
type OutcomePolicy interface {
	Classify(o Order) Verdict
}

// MidpointPolicy compara el precio de entrada contra el punto medio (0.5 por defecto).
//
//	BUY  Yes  price > mid → win    BUY  No  price < mid → win
//	SELL Yes  price < mid → win    SELL No  price > mid → win
//
// Cualquier otra combinación con side y outcome reconocidos es lose.
// Side u outcome desconocidos → VerdictUnclassified.
//
// El outcome se compara sin distinguir mayúsculas ni espacios: "YES", "yes" y
// " Yes" son el mismo token. La API a veces normaliza el label y un fill no debe
// quedar sin clasificar por eso.
type MidpointPolicy struct {
	Midpoint float64
}

// DefaultOutcomePolicy devuelve la política de midpoint en 0.5.
func DefaultOutcomePolicy() MidpointPolicy {
	return MidpointPolicy{Midpoint: 0.5}
}

// Classify implementa OutcomePolicy.
func (p MidpointPolicy) Classify(o Order) Verdict {
	mid := p.Midpoint
	if mid <= 0 || mid >= 1 {
		mid = 0.5
	}

	yes := strings.EqualFold(strings.TrimSpace(o.OutcomeLabel), "yes")
	no := strings.EqualFold(strings.TrimSpace(o.OutcomeLabel), "no")
	if !yes && !no {
		return VerdictUnclassified
	}

	var win bool
	switch o.Side {
	case SideBuy:
		win = (yes && o.Price > mid) || (no && o.Price < mid)
	case SideSell:
		win = (yes && o.Price < mid) || (no && o.Price > mid)
	default:
		return VerdictUnclassified
	}
	if win {
		return VerdictWin
	}
	return VerdictLose
}

// TraderRating es el rating derivado de un trader dentro de un mercado.
// Se recalcula desde cero cada vez; no se persiste.
type TraderRating struct {
	TraderID    string
	TraderName  string
	TotalOrders int // fills
	TradeCount  int // transaction_id distintos; fills sin ID cuentan por separado
	BuyOrders   int
	SellOrders  int
	TotalShares float64
	WinCount    int
	LoseCount   int
	Rating      float64 // 0–100
	TotalVolume float64 // Σ shares × price
}

// RateTraders agrupa los fills de un mercado por trader, clasifica cada fill con
// la policy y devuelve los ratings ordenados por Rating desc, TotalVolume desc
// y TraderID asc. Si policy es nil usa DefaultOutcomePolicy.
func RateTraders(orders []Order, policy OutcomePolicy) []TraderRating {
	if policy == nil {
		policy = DefaultOutcomePolicy()
	}

	byTrader := make(map[string]*TraderRating)
	txSeen := make(map[string]map[string]struct{})

	for _, o := range orders {
		r, ok := byTrader[o.TraderID]
		if !ok {
			r = &TraderRating{TraderID: o.TraderID}
			byTrader[o.TraderID] = r
			txSeen[o.TraderID] = make(map[string]struct{})
		}
		if r.TraderName == "" {
			r.TraderName = o.TraderName
		}

		r.TotalOrders++
		switch o.Side {
		case SideBuy:
			r.BuyOrders++
		case SideSell:
			r.SellOrders++
		}
		r.TotalShares += o.Shares
		r.TotalVolume += o.Shares * o.Price

		if o.TransactionID == "" {
			r.TradeCount++
		} else if _, dup := txSeen[o.TraderID][o.TransactionID]; !dup {
			txSeen[o.TraderID][o.TransactionID] = struct{}{}
			r.TradeCount++
		}

		switch policy.Classify(o) {
		case VerdictWin:
			r.WinCount++
		case VerdictLose:
			r.LoseCount++
		}
	}

	ratings := make([]TraderRating, 0, len(byTrader))
	for _, r := range byTrader {
		if classified := r.WinCount + r.LoseCount; classified > 0 {
			r.Rating = float64(r.WinCount) / float64(classified) * 100
		}
		ratings = append(ratings, *r)
	}

	SortRatings(ratings)
	return ratings
}

// SortRatings ordena in-place por Rating desc, TotalVolume desc, TraderID asc.
// Es un orden total: reordenar una salida ya ordenada no la cambia.
func SortRatings(ratings []TraderRating) {
	sort.Slice(ratings, func(i, j int) bool {
		a, b := ratings[i], ratings[j]
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.TotalVolume != b.TotalVolume {
			return a.TotalVolume > b.TotalVolume
		}
		return a.TraderID < b.TraderID
	})
}
