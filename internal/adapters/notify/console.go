package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alejandrodnm/polyscore/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier escribiendo tablas en texto plano.
type Console struct {
	out       io.Writer
	limit     int               // filas por leaderboard; 0 = todas
	orderings []domain.Ordering // vacío = las nueve
	table     bool              // false = una línea por leaderboard
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(limit int, table bool, orderings ...domain.Ordering) *Console {
	return NewConsoleWriter(os.Stdout, limit, table, orderings...)
}

// NewConsoleWriter crea un notificador sobre un writer arbitrario (tests).
func NewConsoleWriter(w io.Writer, limit int, table bool, orderings ...domain.Ordering) *Console {
	return &Console{out: w, limit: limit, orderings: orderings, table: table}
}

// NotifyLeaderboards imprime los leaderboards del snapshot.
func (c *Console) NotifyLeaderboards(_ context.Context, snap domain.Snapshot) error {
	fmt.Fprintf(c.out, "\n[%s] snapshot %s  scoring %s  population %d",
		snap.CreatedAt.Format("15:04:05"), shortID(snap.ID), snap.ScoringVersion, snap.Percentiles.PopulationSize)
	if snap.Percentiles.Degraded {
		fmt.Fprint(c.out, "  (degraded: no shrinkage)")
	}
	fmt.Fprintln(c.out)

	for _, board := range c.boards(snap) {
		entries := board.Top(c.limit).Entries
		if !c.table {
			c.printCompact(board, entries)
			continue
		}

		dir := "desc"
		if board.Ascending {
			dir = "asc"
		}
		fmt.Fprintf(c.out, "\n=== %s (%s, %d ranked, %d unranked) ===\n",
			board.Ordering, dir, len(board.Entries), len(board.Unranked))
		if len(entries) == 0 {
			fmt.Fprintln(c.out, "  no ranked traders")
			continue
		}

		table := tablewriter.NewWriter(c.out)
		table.Header("#", "Trader", "Value", "Trades", "Conf", "Final")
		for _, e := range entries {
			table.Append(
				fmt.Sprintf("%d", e.Rank),
				traderLabel(e.TraderID, e.TraderName),
				fmt.Sprintf("%.2f", e.Value),
				fmt.Sprintf("%d", e.TotalTrades),
				fmt.Sprintf("%.2f", e.ConfidenceScore),
				fmt.Sprintf("%.1f", e.FinalScore),
			)
		}
		table.Render()
	}
	return nil
}

// NotifyTraderReport imprime las métricas de una wallet con su desglose por categoría.
func (c *Console) NotifyTraderReport(_ context.Context, r domain.TraderReport) error {
	m, s := r.Metrics, r.Summary

	fmt.Fprintf(c.out, "\n=== TRADER %s ===\n", traderLabel(m.TraderID, m.TraderName))
	fmt.Fprintf(c.out, "  Trades:        %d  (buy $%.2f / sell $%.2f)\n", m.TotalTrades, m.BuyVolume, m.SellVolume)
	fmt.Fprintf(c.out, "  Capital:       $%.2f\n", s.TotalCapital)
	fmt.Fprintf(c.out, "  PnL:           $%.2f  (realized $%.2f, unrealized $%.2f)\n", s.TotalPnL, s.RealizedPnL, s.UnrealizedPnL)
	fmt.Fprintf(c.out, "  ROI:           %.2f%%\n", m.ROI)
	fmt.Fprintf(c.out, "  Win rate:      %.2f%%  (%dW / %dL)\n", m.WinRate, s.Wins, s.Losses)
	fmt.Fprintf(c.out, "  Largest win:   $%.2f\n", m.LargestWin)
	fmt.Fprintf(c.out, "  Streaks:       current %d, longest %d\n", m.Streaks.CurrentStreak, m.Streaks.LongestStreak)
	fmt.Fprintf(c.out, "  Rewards:       $%.2f  Redeemed: $%.2f\n", s.RewardIncome, s.RedeemValue)

	fmt.Fprintf(c.out, "\n  Scores: win %.1f  roi %.1f  pnl %.1f  risk %.1f  conf %.2f  >>> FINAL %.1f\n",
		m.WinScore, m.ROIScore, m.PnLScore, m.RiskScore, m.ConfidenceScore, m.FinalScore)
	if r.Percentiles.Degraded {
		fmt.Fprintln(c.out, "  Shrunk: n/a (population too small)")
	} else {
		fmt.Fprintf(c.out, "  Shrunk: win %.2f  roi %.2f  pnl %.2f  (population %d)\n",
			m.WShrunk, m.ROIShrunk, m.PnLShrunk, r.Percentiles.PopulationSize)
	}

	if len(s.Categories) > 0 {
		fmt.Fprintln(c.out)
		table := tablewriter.NewWriter(c.out)
		table.Header("Category", "Capital", "%", "PnL", "ROI", "Win%", "Pos", "Mkts", "Risk")
		for _, cat := range s.Categories {
			table.Append(
				string(cat.Category),
				fmt.Sprintf("$%.2f", cat.Capital),
				fmt.Sprintf("%.1f", cat.CapitalPercent),
				fmt.Sprintf("$%.2f", cat.TotalPnL),
				fmt.Sprintf("%.1f%%", cat.ROIPercent),
				fmt.Sprintf("%.1f", cat.WinRatePercent),
				fmt.Sprintf("%d", cat.TradesCount),
				fmt.Sprintf("%d", cat.UniqueMarkets),
				fmt.Sprintf("%.2f", cat.RiskScore),
			)
		}
		table.Render()
	}

	for _, fe := range r.Errors {
		fmt.Fprintf(c.out, "  !! %s\n", fe.Error())
	}
	fmt.Fprintln(c.out)
	return nil
}

// NotifyMarketRatings imprime el rating de cada trader en un mercado.
func (c *Console) NotifyMarketRatings(_ context.Context, market domain.MarketRef, ratings []domain.TraderRating) error {
	title := market.Title
	if title == "" {
		title = market.Slug
	}
	fmt.Fprintf(c.out, "\n=== MARKET %s ===\n", truncate(title, 60))
	if len(ratings) == 0 {
		fmt.Fprintln(c.out, "  no trades found")
		return nil
	}

	shown := ratings
	if c.limit > 0 && len(shown) > c.limit {
		shown = shown[:c.limit]
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Trader", "Rating", "W/L", "Fills", "Trades", "Buy/Sell", "Volume")
	for i, r := range shown {
		table.Append(
			fmt.Sprintf("%d", i+1),
			traderLabel(r.TraderID, r.TraderName),
			fmt.Sprintf("%.1f", r.Rating),
			fmt.Sprintf("%d/%d", r.WinCount, r.LoseCount),
			fmt.Sprintf("%d", r.TotalOrders),
			fmt.Sprintf("%d", r.TradeCount),
			fmt.Sprintf("%d/%d", r.BuyOrders, r.SellOrders),
			fmt.Sprintf("$%.2f", r.TotalVolume),
		)
	}
	table.Render()

	if len(shown) < len(ratings) {
		fmt.Fprintf(c.out, "  ... %d more traders\n", len(ratings)-len(shown))
	}
	return nil
}

// printCompact imprime un leaderboard en una línea.
func (c *Console) printCompact(board domain.Leaderboard, entries []domain.LeaderboardEntry) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-14s", board.Ordering)
	if len(entries) == 0 {
		sb.WriteString(" -")
	}
	for _, e := range entries {
		fmt.Fprintf(&sb, " | %d.%s %.2f", e.Rank, compactName(traderLabel(e.TraderID, e.TraderName), 16), e.Value)
	}
	fmt.Fprintln(c.out, sb.String())
}

// boards filtra los leaderboards por las ordenaciones configuradas, en ese orden.
func (c *Console) boards(snap domain.Snapshot) []domain.Leaderboard {
	if len(c.orderings) == 0 {
		return snap.Leaderboards
	}
	out := make([]domain.Leaderboard, 0, len(c.orderings))
	for _, o := range c.orderings {
		if b, ok := snap.Board(o); ok {
			out = append(out, b)
		}
	}
	return out
}

// --- helpers ---

func traderLabel(id, name string) string {
	if name != "" {
		return truncate(name, 24)
	}
	return shortID(id)
}

// Los helpers de corte trabajan en runas: los nombres de trader pueden traer
// caracteres multibyte.

func shortID(id string) string {
	r := []rune(id)
	if len(r) > 14 {
		return string(r[:8]) + "…" + string(r[len(r)-4:])
	}
	return id
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func compactName(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	cut := r[:maxLen]
	for i := len(cut) - 1; i > maxLen/2; i-- {
		if cut[i] == ' ' {
			cut = cut[:i]
			break
		}
	}
	return string(cut) + "…"
}
