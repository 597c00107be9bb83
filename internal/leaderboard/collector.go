package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/polyscore/internal/domain"
	"github.com/alejandrodnm/polyscore/internal/metrics"
	"github.com/alejandrodnm/polyscore/internal/ports"
)

// Fuentes de datos por wallet; se usan como label de FetchError y de métricas.
const (
	SourcePositions = "positions"
	SourceClosed    = "closed"
	SourceActivity  = "activity"
)

// Collection es el resultado de recoger los datos de varias wallets.
// Traders siempre trae una entrada por wallet, aunque sus fetches hayan fallado.
type Collection struct {
	Traders []domain.TraderData
	Errors  []domain.FetchError
}

// Collector descarga en paralelo positions, closed positions y activity por wallet.
type Collector struct {
	provider ports.TraderDataProvider
	workers  int
}

// NewCollector crea un Collector. workers acota las wallets en vuelo a la vez.
func NewCollector(provider ports.TraderDataProvider, workers int) *Collector {
	if workers <= 0 {
		workers = 4
	}
	return &Collector{provider: provider, workers: workers}
}

// Collect recoge los datos de todas las wallets. Un fallo de una fuente no aborta
// el lote: se registra como FetchError y la wallet sigue con lo que llegó.
// Solo devuelve error si el contexto se cancela.
func (c *Collector) Collect(ctx context.Context, wallets []string) (Collection, error) {
	wallets = NormalizeWallets(wallets)
	traders := make([]domain.TraderData, len(wallets))

	var (
		mu   sync.Mutex
		errs []domain.FetchError
	)
	record := func(fe domain.FetchError) {
		slog.Warn("fetch failed", "wallet", fe.Wallet, "source", fe.Source, "err", fe.Err)
		metrics.FetchErrors.WithLabelValues(fe.Source).Inc()
		mu.Lock()
		errs = append(errs, fe)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, wallet := range wallets {
		i, wallet := i, wallet
		g.Go(func() error {
			traders[i] = c.collectOne(gctx, wallet, record)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Collection{}, fmt.Errorf("leaderboard.Collect: %w", err)
	}

	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Wallet != errs[j].Wallet {
			return errs[i].Wallet < errs[j].Wallet
		}
		return errs[i].Source < errs[j].Source
	})

	slog.Debug("collection complete",
		"wallets", len(wallets),
		"errors", len(errs),
		"workers", c.workers,
	)
	return Collection{Traders: traders, Errors: errs}, nil
}

// CollectOne recoge los datos de una sola wallet.
func (c *Collector) CollectOne(ctx context.Context, wallet string) (domain.TraderData, []domain.FetchError) {
	col, err := c.Collect(ctx, []string{wallet})
	if err != nil || len(col.Traders) == 0 {
		return domain.TraderData{TraderID: normalizeWallet(wallet)}, col.Errors
	}
	return col.Traders[0], col.Errors
}

// collectOne lanza las tres fuentes de una wallet en paralelo.
func (c *Collector) collectOne(ctx context.Context, wallet string, record func(domain.FetchError)) domain.TraderData {
	data := domain.TraderData{TraderID: wallet}

	var g errgroup.Group
	g.Go(func() error {
		positions, err := c.provider.FetchPositions(ctx, wallet)
		if err != nil {
			record(domain.FetchError{Wallet: wallet, Source: SourcePositions, Err: err})
			return nil
		}
		data.Positions = positions
		return nil
	})
	g.Go(func() error {
		closed, err := c.provider.FetchClosedPositions(ctx, wallet)
		if err != nil {
			record(domain.FetchError{Wallet: wallet, Source: SourceClosed, Err: err})
			return nil
		}
		data.Closed = closed
		return nil
	})
	g.Go(func() error {
		acts, err := c.provider.FetchActivity(ctx, wallet)
		if err != nil {
			record(domain.FetchError{Wallet: wallet, Source: SourceActivity, Err: err})
			return nil
		}
		data.Activities = acts
		return nil
	})
	_ = g.Wait()

	for _, a := range data.Activities {
		if a.TraderName != "" {
			data.Name = a.TraderName
			break
		}
	}
	return data
}

// NormalizeWallets pasa las wallets a minúsculas, quita vacías y duplicados
// y conserva el orden de aparición.
func NormalizeWallets(wallets []string) []string {
	seen := make(map[string]struct{}, len(wallets))
	out := make([]string, 0, len(wallets))
	for _, w := range wallets {
		w = normalizeWallet(w)
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func normalizeWallet(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}
