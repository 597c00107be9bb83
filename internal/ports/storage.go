package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/polyscore/internal/domain"
)

// PercentileProvider es el colaborador que suministra los percentiles de la época actual.
type PercentileProvider interface {
	// LatestPercentiles devuelve los percentiles del último snapshot guardado.
	// Devuelve domain.ErrNoSnapshot si no hay ninguno.
	LatestPercentiles(ctx context.Context) (domain.PopulationPercentiles, error)
}

// SnapshotStorage persiste los leaderboards de cada ciclo.
type SnapshotStorage interface {
	PercentileProvider

	// SaveSnapshot persiste un snapshot completo junto con sus pesos.
	SaveSnapshot(ctx context.Context, snap domain.Snapshot) error

	// LatestSnapshot devuelve el snapshot más reciente o domain.ErrNoSnapshot.
	LatestSnapshot(ctx context.Context) (domain.Snapshot, error)

	// PruneSnapshots borra los snapshots anteriores a before y devuelve cuántos borró.
	PruneSnapshots(ctx context.Context, before time.Time) (int, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
