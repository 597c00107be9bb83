// Package httpapi expone una vista de solo lectura sobre el último snapshot guardado.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cast"

	"github.com/alejandrodnm/polyscore/internal/domain"
	"github.com/alejandrodnm/polyscore/internal/metrics"
)

// SnapshotReader es lo único que la vista HTTP necesita del storage.
type SnapshotReader interface {
	LatestSnapshot(ctx context.Context) (domain.Snapshot, error)
}

// Handler sirve los leaderboards del último snapshot.
type Handler struct {
	store SnapshotReader
}

// NewRouter construye el router chi con middleware, métricas y rutas.
func NewRouter(store SnapshotReader) http.Handler {
	h := &Handler{store: store}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"polyscore"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Get("/snapshots/latest", h.GetLatestSnapshot)
	r.Get("/leaderboards/{ordering}", h.GetLeaderboard)
	return r
}

// NewServer envuelve el router en un http.Server con timeouts.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// GetLatestSnapshot handles GET /snapshots/latest
func (h *Handler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.latest(w, r)
	if !ok {
		return
	}
	writeJSON(w, snap)
}

// GetLeaderboard handles GET /leaderboards/{ordering}?limit=N
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ordering, err := domain.ParseOrdering(chi.URLParam(r, "ordering"))
	if err != nil {
		writeError(w, "unknown ordering", http.StatusNotFound)
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, "limit must be a non-negative integer", http.StatusBadRequest)
		return
	}

	snap, ok := h.latest(w, r)
	if !ok {
		return
	}
	board, found := snap.Board(ordering)
	if !found {
		writeError(w, "leaderboard not in snapshot", http.StatusNotFound)
		return
	}

	writeJSON(w, struct {
		SnapshotID     string    `json:"snapshot_id"`
		CreatedAt      time.Time `json:"created_at"`
		ScoringVersion string    `json:"scoring_version"`
		domain.Leaderboard
	}{snap.ID, snap.CreatedAt, snap.ScoringVersion, board.Top(limit)})
}

// latest carga el último snapshot y escribe el error si no hay.
func (h *Handler) latest(w http.ResponseWriter, r *http.Request) (domain.Snapshot, bool) {
	snap, err := h.store.LatestSnapshot(r.Context())
	if errors.Is(err, domain.ErrNoSnapshot) {
		writeError(w, "no snapshot available", http.StatusNotFound)
		return domain.Snapshot{}, false
	}
	if err != nil {
		slog.Warn("load snapshot failed", "err", err)
		writeError(w, "internal error", http.StatusInternalServerError)
		return domain.Snapshot{}, false
	}
	return snap, true
}

// parseLimit acepta solo dígitos decimales; "" es 0 (sin límite). Los ceros a la
// izquierda se quitan antes de cast, que si no interpretaría "010" como octal.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("limit %q: not a decimal number", raw)
		}
	}
	digits := strings.TrimLeft(raw, "0")
	if digits == "" {
		return 0, nil
	}
	return cast.ToIntE(digits)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
