package leaderboard

// concurrent.go: worker pool para el pase crudo por trader.
//
// Cada trader es independiente: agregado, rachas y métricas crudas no comparten
// estado. Los resultados se escriben en su índice para que el orden de salida
// no dependa del scheduling.

import (
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/polyscore/internal/domain"
)

// rawResult es la salida del pase crudo de un trader.
type rawResult struct {
	summary domain.PortfolioSummary
	metrics domain.ScoredMetrics
}

// rawPass calcula el pase crudo de un trader. Pura.
func rawPass(d domain.TraderData) rawResult {
	summary := domain.AggregatePositions(d.Closed, d.Positions, d.Activities)
	streaks := domain.DetectStreaks(d.Closed)
	m := domain.RawMetrics(d.TraderID, summary, streaks)
	m.TraderName = d.Name
	return rawResult{summary: summary, metrics: m}
}

// rawPassConcurrent ejecuta rawPass sobre todos los traders usando un worker pool.
// Vuelve cuando todos los workers terminan: es el primer lado de la barrera.
//
// Si workers <= 0 usa runtime.NumCPU().
func rawPassConcurrent(inputs []domain.TraderData, workers int) []rawResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	results := make([]rawResult, len(inputs))
	workCh := make(chan int, len(inputs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workCh {
				results[idx] = rawPass(inputs[idx])
			}
		}()
	}

	for i := range inputs {
		workCh <- i
	}
	close(workCh)
	wg.Wait()

	slog.Debug("raw pass complete",
		"traders", len(inputs),
		"workers", workers,
	)
	return results
}
