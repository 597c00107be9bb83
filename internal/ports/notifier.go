package ports

import (
	"context"

	"github.com/alejandrodnm/polyscore/internal/domain"
)

// Notifier presenta los resultados al usuario.
// En la implementación de consola, imprime tablas formateadas.
type Notifier interface {
	// NotifyLeaderboards muestra los leaderboards de un snapshot.
	NotifyLeaderboards(ctx context.Context, snap domain.Snapshot) error

	// NotifyTraderReport muestra las métricas y el desglose por categoría de un trader.
	NotifyTraderReport(ctx context.Context, report domain.TraderReport) error

	// NotifyMarketRatings muestra los ratings de los traders de un mercado.
	NotifyMarketRatings(ctx context.Context, market domain.MarketRef, ratings []domain.TraderRating) error
}
