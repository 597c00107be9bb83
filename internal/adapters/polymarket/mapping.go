package polymarket

import (
	"strings"

	"github.com/alejandrodnm/polyscore/internal/domain"
)

// mapPosition convierte un dataPosition a domain.Position.
func mapPosition(wallet string, r dataPosition) domain.Position {
	return domain.Position{
		TraderID:      wallet,
		MarketID:      r.ConditionID,
		MarketTitle:   r.Title,
		MarketSlug:    r.Slug,
		OutcomeLabel:  r.Outcome,
		Size:          domain.Num(r.Size),
		AveragePrice:  domain.Num(r.AvgPrice),
		CurrentPrice:  domain.Num(r.CurPrice),
		InitialValue:  domain.Num(r.InitialValue),
		CurrentValue:  domain.Num(r.CurrentValue),
		UnrealizedPnL: domain.Num(r.CashPnl),
	}
}

// mapClosedPosition convierte un dataClosedPosition. La API solo informa el
// instante de cierre en timestamp; endDate es la resolución del mercado y se
// usa cuando timestamp falta.
func mapClosedPosition(wallet string, r dataClosedPosition) domain.ClosedPosition {
	closedAt := domain.Timestamp(r.Timestamp)
	if closedAt.IsZero() {
		closedAt = domain.Timestamp(r.EndDate)
	}
	return domain.ClosedPosition{
		TraderID:     wallet,
		MarketID:     r.ConditionID,
		MarketTitle:  r.Title,
		MarketSlug:   r.Slug,
		OutcomeLabel: r.Outcome,
		Size:         domain.Num(r.Size),
		TotalBought:  domain.Num(r.TotalBought),
		AveragePrice: domain.Num(r.AvgPrice),
		ExitPrice:    domain.Num(r.CurPrice),
		RealizedPnL:  domain.Num(r.RealizedPnl),
		ClosedAt:     closedAt,
	}
}

// mapActivity convierte un dataActivity. Tipos desconocidos (SPLIT, MERGE,
// CONVERSION...) devuelven ok=false y se descartan.
func mapActivity(wallet string, r dataActivity) (domain.Activity, bool) {
	typ := domain.ActivityType(strings.ToUpper(strings.TrimSpace(r.Type)))
	switch typ {
	case domain.ActivityTrade, domain.ActivityRedeem, domain.ActivityReward:
	default:
		return domain.Activity{}, false
	}
	return domain.Activity{
		TraderID:      wallet,
		TraderName:    displayName(r.Name, r.Pseudonym),
		MarketID:      r.ConditionID,
		MarketTitle:   r.Title,
		MarketSlug:    r.Slug,
		TransactionID: r.TransactionHash,
		Type:          typ,
		Side:          domain.ParseSide(r.Side),
		Price:         domain.Num(r.Price),
		Size:          domain.Num(r.Size),
		USDCValue:     domain.Num(r.UsdcSize),
		Timestamp:     domain.Timestamp(r.Timestamp),
	}, true
}

// mapTrade convierte un fill de /trades a domain.Order. El nombre visible es
// name, o pseudonym si el trader no tiene nombre.
func mapTrade(r dataTrade) domain.Order {
	return domain.Order{
		TraderID:      strings.ToLower(r.ProxyWallet),
		TraderName:    displayName(r.Name, r.Pseudonym),
		TransactionID: r.TransactionHash,
		MarketID:      r.ConditionID,
		Side:          domain.ParseSide(r.Side),
		OutcomeLabel:  r.Outcome,
		Price:         domain.Num(r.Price),
		Shares:        domain.Num(r.Size),
		Timestamp:     domain.Timestamp(r.Timestamp),
	}
}

func displayName(name, pseudonym string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return strings.TrimSpace(pseudonym)
}
