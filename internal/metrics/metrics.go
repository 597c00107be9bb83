// Package metrics expone la instrumentación Prometheus de polyscore.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FetchErrors cuenta fallos de la Data API por fuente (positions, closed, activity, trades).
	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polyscore_fetch_errors_total",
		Help: "Failed upstream fetches by source",
	}, []string{"source"})

	// FetchDuration mide la latencia de cada request a la API.
	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "polyscore_fetch_duration_seconds",
		Help:    "Upstream request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// PipelineDuration mide cuánto tarda un pase completo del pipeline de scoring.
	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polyscore_pipeline_duration_seconds",
		Help:    "Scoring pipeline duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	// TradersScored es el número de traders del último pase.
	TradersScored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyscore_traders_scored",
		Help: "Traders scored in the last pipeline run",
	})

	// PopulationSize es el número de traders que entraron en el cálculo de percentiles.
	PopulationSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyscore_population_size",
		Help: "Traders in the percentile population of the last run",
	})

	// DegradedRuns cuenta pases sin población suficiente (shrunk == raw).
	DegradedRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyscore_degraded_runs_total",
		Help: "Pipeline runs where shrinkage degraded to identity",
	})

	// SnapshotsSaved cuenta los snapshots persistidos.
	SnapshotsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyscore_snapshots_saved_total",
		Help: "Leaderboard snapshots persisted",
	})

	// HTTPRequestsTotal cuenta requests HTTP por método, ruta y status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polyscore_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration mide la duración de las requests por método y ruta.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "polyscore_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler devuelve el handler HTTP de Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware registra métricas de cada request. Usa el patrón de ruta de chi
// como label para no disparar la cardinalidad.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
