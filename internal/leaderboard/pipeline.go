package leaderboard

import (
	"sort"
	"strings"
	"time"

	"github.com/alejandrodnm/polyscore/internal/domain"
)

// PercentileSource indica de dónde salieron los percentiles de un pase.
type PercentileSource string

const (
	SourceLocal    PercentileSource = "local"
	SourceExternal PercentileSource = "external"
)

// Result es la salida completa de un pase del pipeline.
type Result struct {
	Metrics     []domain.ScoredMetrics // ordenadas por TraderID
	Summaries   map[string]domain.PortfolioSummary
	Percentiles domain.PopulationPercentiles
	Source      PercentileSource
	// ShrinkageApplied es false cuando los percentiles estaban degradados y shrunk == raw.
	ShrinkageApplied bool
	Leaderboards     []domain.Leaderboard
}

// Board devuelve el leaderboard de una ordenación o domain.ErrUnknownOrdering.
func (r Result) Board(o domain.Ordering) (domain.Leaderboard, error) {
	for _, b := range r.Leaderboards {
		if b.Ordering == o {
			return b, nil
		}
	}
	return domain.Leaderboard{}, domain.ErrUnknownOrdering
}

// Trader devuelve las métricas de un trader.
func (r Result) Trader(id string) (domain.ScoredMetrics, bool) {
	i := sort.Search(len(r.Metrics), func(i int) bool { return r.Metrics[i].TraderID >= id })
	if i < len(r.Metrics) && r.Metrics[i].TraderID == id {
		return r.Metrics[i], true
	}
	return domain.ScoredMetrics{}, false
}

// Snapshot empaqueta el resultado con los pesos usados, listo para persistir.
func (r Result) Snapshot(id string, at time.Time, cfg domain.ScoringConfig) domain.Snapshot {
	cfg = cfg.WithDefaults()
	return domain.Snapshot{
		ID:             id,
		CreatedAt:      at.UTC(),
		ScoringVersion: cfg.Version,
		Weights:        cfg.Weights,
		Percentiles:    r.Percentiles,
		Leaderboards:   r.Leaderboards,
	}
}

// Pipeline encadena el engine: pase crudo → barrera → percentiles → scoring → ranking.
// No hace I/O ni guarda estado entre llamadas.
type Pipeline struct {
	cfg     domain.ScoringConfig
	workers int
}

// NewPipeline crea un pipeline con la configuración de scoring dada.
func NewPipeline(cfg domain.ScoringConfig, workers int) *Pipeline {
	return &Pipeline{cfg: cfg.WithDefaults(), workers: workers}
}

// Config devuelve la configuración de scoring efectiva.
func (p *Pipeline) Config() domain.ScoringConfig {
	return p.cfg
}

// Run ejecuta un pase completo. Si external no es nil y es utilizable, sus
// percentiles sustituyen a los de la población local (snapshot de la época).
// La misma entrada produce siempre la misma salida.
func (p *Pipeline) Run(inputs []domain.TraderData, external *domain.PopulationPercentiles) Result {
	traders := normalizeInputs(inputs)

	// 1. pase crudo por trader; rawPassConcurrent es la barrera.
	raws := rawPassConcurrent(traders, p.workers)

	metrics := make([]domain.ScoredMetrics, len(raws))
	summaries := make(map[string]domain.PortfolioSummary, len(raws))
	for i, r := range raws {
		metrics[i] = r.metrics
		summaries[r.metrics.TraderID] = r.summary
	}

	// 2. percentiles con todos los agregados disponibles
	pct, source := domain.ComputePercentiles(metrics, p.cfg.MinPopulationTrades), SourceLocal
	if external != nil && external.Usable() {
		pct, source = *external, SourceExternal
	}

	// 3. scoring y shrinkage con los percentiles ya cerrados
	for i := range metrics {
		metrics[i] = domain.Score(metrics[i], p.cfg, pct)
	}

	return Result{
		Metrics:          metrics,
		Summaries:        summaries,
		Percentiles:      pct,
		Source:           source,
		ShrinkageApplied: pct.Usable(),
		Leaderboards:     RankAll(metrics),
	}
}

// normalizeInputs ordena por TraderID, descarta IDs vacíos y fusiona duplicados.
func normalizeInputs(inputs []domain.TraderData) []domain.TraderData {
	byID := make(map[string]*domain.TraderData, len(inputs))
	for _, d := range inputs {
		id := strings.TrimSpace(d.TraderID)
		if id == "" {
			continue
		}
		acc, ok := byID[id]
		if !ok {
			acc = &domain.TraderData{TraderID: id}
			byID[id] = acc
		}
		if acc.Name == "" {
			acc.Name = d.Name
		}
		acc.Positions = append(acc.Positions, d.Positions...)
		acc.Closed = append(acc.Closed, d.Closed...)
		acc.Activities = append(acc.Activities, d.Activities...)
	}

	out := make([]domain.TraderData, 0, len(byID))
	for _, d := range byID {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TraderID < out[j].TraderID })
	return out
}
