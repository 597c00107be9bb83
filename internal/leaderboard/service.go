package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polyscore/internal/domain"
	"github.com/alejandrodnm/polyscore/internal/metrics"
	"github.com/alejandrodnm/polyscore/internal/ports"
)

// Config contiene la configuración del servicio.
type Config struct {
	Interval  time.Duration
	Wallets   []string
	Workers   int           // wallets en vuelo en el collector
	Retention time.Duration // antigüedad máxima de los snapshots; 0 desactiva el prune
	Midpoint  float64       // punto medio de MidpointPolicy
	DryRun    bool          // un solo ciclo y salir
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	return Config{
		Interval:  15 * time.Minute,
		Workers:   4,
		Retention: 30 * 24 * time.Hour,
		Midpoint:  0.5,
	}
}

// Service es el orquestador: collect → pipeline → notify → persist.
type Service struct {
	cfg       Config
	collector *Collector
	pipeline  *Pipeline
	markets   ports.MarketTradeProvider
	storage   ports.SnapshotStorage
	notifier  ports.Notifier
	policy    domain.OutcomePolicy
	now       func() time.Time
}

// New crea un Service con todas las dependencias inyectadas.
// markets y storage pueden ser nil si no se usan.
func New(
	cfg Config,
	scoring domain.ScoringConfig,
	traders ports.TraderDataProvider,
	markets ports.MarketTradeProvider,
	storage ports.SnapshotStorage,
	notifier ports.Notifier,
) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Service{
		cfg:       cfg,
		collector: NewCollector(traders, cfg.Workers),
		pipeline:  NewPipeline(scoring, 0),
		markets:   markets,
		storage:   storage,
		notifier:  notifier,
		policy:    domain.MidpointPolicy{Midpoint: cfg.Midpoint},
		now:       time.Now,
	}
}

// Run ejecuta el loop de ranking hasta que el contexto se cancele.
// Si cfg.DryRun está activo, solo ejecuta un ciclo.
func (s *Service) Run(ctx context.Context) error {
	slog.Info("leaderboard service starting",
		"interval", s.cfg.Interval,
		"wallets", len(s.cfg.Wallets),
		"scoring_version", s.pipeline.Config().Version,
		"dry_run", s.cfg.DryRun,
	)

	if err := s.runCycle(ctx); err != nil {
		slog.Error("leaderboard cycle failed", "err", err)
		if s.cfg.DryRun {
			return err
		}
	}

	if s.cfg.DryRun {
		return nil
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("leaderboard service stopped")
			return nil
		case <-ticker.C:
			if err := s.runCycle(ctx); err != nil {
				slog.Error("leaderboard cycle failed", "err", err)
			}
		}
	}
}

// RunOnce ejecuta exactamente un ciclo de collect + pipeline y devuelve el snapshot
// sin notificar ni persistir.
func (s *Service) RunOnce(ctx context.Context) (domain.Snapshot, error) {
	snap, _, err := s.cycle(ctx)
	return snap, err
}

// runCycle ejecuta un ciclo completo y notifica/persiste los resultados.
func (s *Service) runCycle(ctx context.Context) error {
	start := s.now()

	snap, col, err := s.cycle(ctx)
	if err != nil {
		return err
	}

	if err := s.notifier.NotifyLeaderboards(ctx, snap); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	if s.storage != nil {
		if err := s.storage.SaveSnapshot(ctx, snap); err != nil {
			slog.Warn("storage error", "err", err)
		} else {
			metrics.SnapshotsSaved.Inc()
		}
		s.prune(ctx)
	}

	slog.Info("leaderboard cycle complete",
		"snapshot", snap.ID,
		"traders", len(col.Traders),
		"fetch_errors", len(col.Errors),
		"population", snap.Percentiles.PopulationSize,
		"degraded", snap.Percentiles.Degraded,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// cycle hace collect → pipeline y empaqueta el snapshot.
func (s *Service) cycle(ctx context.Context) (domain.Snapshot, Collection, error) {
	if len(s.cfg.Wallets) == 0 {
		return domain.Snapshot{}, Collection{}, errors.New("leaderboard.cycle: no wallets configured")
	}

	col, err := s.collector.Collect(ctx, s.cfg.Wallets)
	if err != nil {
		return domain.Snapshot{}, Collection{}, fmt.Errorf("leaderboard.cycle: collect: %w", err)
	}

	res := s.runPipeline(col.Traders, nil)
	snap := res.Snapshot(uuid.NewString(), s.now(), s.pipeline.Config())
	return snap, col, nil
}

// runPipeline ejecuta el pipeline y registra sus métricas.
func (s *Service) runPipeline(traders []domain.TraderData, external *domain.PopulationPercentiles) Result {
	start := time.Now()
	res := s.pipeline.Run(traders, external)
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	metrics.TradersScored.Set(float64(len(res.Metrics)))
	metrics.PopulationSize.Set(float64(res.Percentiles.PopulationSize))
	if !res.ShrinkageApplied {
		metrics.DegradedRuns.Inc()
		slog.Warn("not enough population for percentiles, shrinkage disabled",
			"traders", len(res.Metrics),
			"min_trades", s.pipeline.Config().MinPopulationTrades,
		)
	}
	return res
}

// RateMarket resuelve un slug, descarga sus fills y calcula el rating de cada trader.
func (s *Service) RateMarket(ctx context.Context, slug string) ([]domain.TraderRating, error) {
	if s.markets == nil {
		return nil, errors.New("leaderboard.RateMarket: no market provider configured")
	}

	market, err := s.markets.ResolveMarket(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("leaderboard.RateMarket: resolve %q: %w", slug, err)
	}

	orders, err := s.markets.FetchMarketOrders(ctx, market.ConditionID)
	if err != nil {
		metrics.FetchErrors.WithLabelValues("trades").Inc()
		return nil, fmt.Errorf("leaderboard.RateMarket: fetch orders: %w", err)
	}

	ratings := domain.RateTraders(orders, s.policy)
	slog.Debug("market rated",
		"slug", slug,
		"condition_id", market.ConditionID,
		"orders", len(orders),
		"traders", len(ratings),
	)

	if err := s.notifier.NotifyMarketRatings(ctx, market, ratings); err != nil {
		slog.Warn("notifier error", "err", err)
	}
	return ratings, nil
}

// TraderReport puntúa una sola wallet. Usa los percentiles del último snapshot
// guardado si existe; si no, la wallet se puntúa contra sí misma.
func (s *Service) TraderReport(ctx context.Context, wallet string) (domain.TraderReport, error) {
	if normalizeWallet(wallet) == "" {
		return domain.TraderReport{}, errors.New("leaderboard.TraderReport: empty wallet")
	}

	data, fetchErrs := s.collector.CollectOne(ctx, wallet)
	if err := ctx.Err(); err != nil {
		return domain.TraderReport{}, fmt.Errorf("leaderboard.TraderReport: %w", err)
	}

	var external *domain.PopulationPercentiles
	if s.storage != nil {
		pct, err := s.storage.LatestPercentiles(ctx)
		switch {
		case err == nil:
			external = &pct
		case errors.Is(err, domain.ErrNoSnapshot):
			slog.Debug("no stored snapshot, using local percentiles")
		default:
			slog.Warn("load percentiles failed", "err", err)
		}
	}

	res := s.runPipeline([]domain.TraderData{data}, external)
	m, _ := res.Trader(data.TraderID)
	report := domain.TraderReport{
		Metrics:     m,
		Summary:     res.Summaries[data.TraderID],
		Percentiles: res.Percentiles,
		Errors:      fetchErrs,
	}

	if err := s.notifier.NotifyTraderReport(ctx, report); err != nil {
		slog.Warn("notifier error", "err", err)
	}
	return report, nil
}

// prune borra los snapshots más antiguos que la retención configurada.
func (s *Service) prune(ctx context.Context) {
	if s.storage == nil || s.cfg.Retention <= 0 {
		return
	}
	n, err := s.storage.PruneSnapshots(ctx, s.now().Add(-s.cfg.Retention))
	if err != nil {
		slog.Warn("prune snapshots failed", "err", err)
		return
	}
	if n > 0 {
		slog.Info("old snapshots pruned", "count", n, "retention", s.cfg.Retention)
	}
}
