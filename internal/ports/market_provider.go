package ports

import (
	"context"

	"github.com/alejandrodnm/polyscore/internal/domain"
)

// MarketTradeProvider resuelve mercados y obtiene sus fills.
type MarketTradeProvider interface {
	// ResolveMarket traduce un slug a su mercado. Devuelve domain.ErrMarketNotFound
	// si el slug no existe.
	ResolveMarket(ctx context.Context, slug string) (domain.MarketRef, error)

	// FetchMarketOrders devuelve los fills de un mercado (condition id).
	FetchMarketOrders(ctx context.Context, conditionID string) ([]domain.Order, error)
}
