package domain

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryBreakdown es el rollup de un trader dentro de una categoría.
type CategoryBreakdown struct {
	Category       Category
	Capital        float64
	CapitalPercent float64 // % del capital total del trader
	ROIPercent     float64
	WinRatePercent float64
	TradesCount    int // posiciones (abiertas + cerradas) en la categoría
	Wins           int
	Losses         int
	TotalPnL       float64
	RiskScore      float64 // max(0, -pnl) / capital: exposición a la baja, no volatilidad
	UniqueMarkets  int
}

// PortfolioSummary es el resultado del agregado de posiciones de un trader.
type PortfolioSummary struct {
	TotalCapital    float64
	RealizedPnL     float64
	UnrealizedPnL   float64
	TotalPnL        float64
	ROI             float64 // %
	Wins            int     // cerradas con realized > 0
	Losses          int     // cerradas con realized < 0
	OpenPositions   int
	ClosedPositions int
	RewardIncome    float64 // Σ REWARD usdc
	RedeemValue     float64 // Σ REDEEM usdc
	TotalTrades     int
	TotalVolume     float64
	BuyVolume       float64
	SellVolume      float64
	LargestWin      float64
	DownsideRisk    float64 // max(0, -total_pnl) / total_capital
	Categories      []CategoryBreakdown
}

// WinRate devuelve wins / (wins + losses) × 100, o 0 sin posiciones clasificadas.
func (s PortfolioSummary) WinRate() float64 {
	return percent(float64(s.Wins), float64(s.Wins+s.Losses))
}

// ClosedCapital devuelve el capital de una posición cerrada:
// |TotalBought| × AveragePrice, o |Size| × AveragePrice si TotalBought no viene.
func ClosedCapital(c ClosedPosition) float64 {
	shares := c.TotalBought
	if shares == 0 {
		shares = c.Size
	}
	return math.Abs(shares) * c.AveragePrice
}

type categoryAcc struct {
	capital decimal.Decimal
	pnl     decimal.Decimal
	trades  int
	wins    int
	losses  int
	markets map[string]struct{}
}

// AggregatePositions reduce posiciones abiertas, cerradas y actividad de un trader.
// Las sumas de dinero se acumulan en decimal para que el resultado no dependa
// del orden de entrada. Nunca falla: colecciones vacías producen ceros.
func AggregatePositions(closed []ClosedPosition, open []Position, activities []Activity) PortfolioSummary {
	var (
		capital, realized, unrealized decimal.Decimal
		rewards, redeems              decimal.Decimal
		buyVol, sellVol               decimal.Decimal
		s                             PortfolioSummary
	)
	cats := make(map[Category]*categoryAcc)
	acc := func(title, slug string) *categoryAcc {
		c := Classify(title, slug)
		a, ok := cats[c]
		if !ok {
			a = &categoryAcc{markets: make(map[string]struct{})}
			cats[c] = a
		}
		return a
	}

	for _, c := range closed {
		amount := dec(ClosedCapital(c))
		pnl := dec(c.RealizedPnL)
		capital = capital.Add(amount)
		realized = realized.Add(pnl)

		a := acc(c.MarketTitle, c.MarketSlug)
		a.capital = a.capital.Add(amount)
		a.pnl = a.pnl.Add(pnl)
		a.trades++
		a.markets[c.MarketID] = struct{}{}

		switch {
		case c.RealizedPnL > 0:
			s.Wins++
			a.wins++
			if c.RealizedPnL > s.LargestWin {
				s.LargestWin = c.RealizedPnL
			}
		case c.RealizedPnL < 0:
			s.Losses++
			a.losses++
		}
	}

	for _, p := range open {
		amount := dec(p.InitialValue)
		pnl := dec(p.UnrealizedPnL)
		capital = capital.Add(amount)
		unrealized = unrealized.Add(pnl)

		a := acc(p.MarketTitle, p.MarketSlug)
		a.capital = a.capital.Add(amount)
		a.pnl = a.pnl.Add(pnl)
		a.trades++
		a.markets[p.MarketID] = struct{}{}
	}

	// Un trade es un transaction id; los fills sin id cuentan uno a uno.
	trades := 0
	txSeen := make(map[string]struct{})
	for _, act := range activities {
		switch act.Type {
		case ActivityTrade:
			if act.TransactionID == "" {
				trades++
			} else if _, dup := txSeen[act.TransactionID]; !dup {
				txSeen[act.TransactionID] = struct{}{}
				trades++
			}
			v := act.USDCValue
			if v == 0 {
				v = math.Abs(act.Size) * act.Price
			}
			switch act.Side {
			case SideBuy:
				buyVol = buyVol.Add(dec(math.Abs(v)))
			case SideSell:
				sellVol = sellVol.Add(dec(math.Abs(v)))
			}
		case ActivityReward:
			rewards = rewards.Add(dec(act.USDCValue))
		case ActivityRedeem:
			redeems = redeems.Add(dec(act.USDCValue))
		}
	}

	s.OpenPositions = len(open)
	s.ClosedPositions = len(closed)
	s.TotalCapital = capital.InexactFloat64()
	s.RealizedPnL = realized.InexactFloat64()
	s.UnrealizedPnL = unrealized.InexactFloat64()
	s.TotalPnL = realized.Add(unrealized).InexactFloat64()
	s.ROI = percent(s.TotalPnL, s.TotalCapital)
	s.RewardIncome = rewards.InexactFloat64()
	s.RedeemValue = redeems.InexactFloat64()
	s.BuyVolume = buyVol.InexactFloat64()
	s.SellVolume = sellVol.InexactFloat64()
	s.TotalVolume = buyVol.Add(sellVol).InexactFloat64()
	s.DownsideRisk = downside(s.TotalPnL, s.TotalCapital)

	// Sin feed de actividad, cada posición cuenta como un trade y el volumen es el capital.
	s.TotalTrades = trades
	if trades == 0 {
		s.TotalTrades = len(closed) + len(open)
		if s.TotalVolume == 0 {
			s.TotalVolume = s.TotalCapital
		}
	}

	s.Categories = buildBreakdown(cats, capital)
	return s
}

func buildBreakdown(cats map[Category]*categoryAcc, total decimal.Decimal) []CategoryBreakdown {
	totalCap := total.InexactFloat64()
	out := make([]CategoryBreakdown, 0, len(cats))
	for cat, a := range cats {
		capital := a.capital.InexactFloat64()
		pnl := a.pnl.InexactFloat64()
		out = append(out, CategoryBreakdown{
			Category:       cat,
			Capital:        capital,
			CapitalPercent: percent(capital, totalCap),
			ROIPercent:     percent(pnl, capital),
			WinRatePercent: percent(float64(a.wins), float64(a.wins+a.losses)),
			TradesCount:    a.trades,
			Wins:           a.wins,
			Losses:         a.losses,
			TotalPnL:       pnl,
			RiskScore:      downside(pnl, capital),
			UniqueMarkets:  len(a.markets),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Capital != out[j].Capital {
			return out[i].Capital > out[j].Capital
		}
		return out[i].Category.rank() < out[j].Category.rank()
	})
	return out
}

// downside es la pérdida como fracción del capital; 0 sin capital o sin pérdida.
func downside(pnl, capital float64) float64 {
	if capital <= 0 {
		return 0
	}
	return math.Max(0, -pnl) / capital
}

// percent devuelve num/den × 100, o 0 si den <= 0.
func percent(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den * 100
}

func dec(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}
