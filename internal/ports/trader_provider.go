package ports

import (
	"context"

	"github.com/alejandrodnm/polyscore/internal/domain"
)

// TraderDataProvider obtiene los registros crudos de una wallet desde la Data API.
// Cada método puede fallar de forma independiente.
type TraderDataProvider interface {
	// FetchPositions devuelve las posiciones abiertas. Pagina hasta agotar resultados.
	FetchPositions(ctx context.Context, wallet string) ([]domain.Position, error)

	// FetchClosedPositions devuelve las posiciones cerradas o resueltas.
	FetchClosedPositions(ctx context.Context, wallet string) ([]domain.ClosedPosition, error)

	// FetchActivity devuelve el feed unificado TRADE / REDEEM / REWARD.
	FetchActivity(ctx context.Context, wallet string) ([]domain.Activity, error)
}
