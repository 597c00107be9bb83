package storage

// sqlite.go: snapshots de leaderboards.
//
// Estrategia:
//   - `snapshots`: una fila por ciclo con la versión de scoring, los pesos y los
//     percentiles de la población (JSON). Es lo que permite reproducir un ranking.
//   - `snapshot_entries`: una fila por trader y leaderboard. Los traders fuera
//     del ranking se guardan con rank 0.
//   - created_at en unix millis: ordena bien y no depende del formato de fecha del driver.
//   - Prune al arrancar: snapshots más antiguos que la retención.

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/polyscore/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    id              TEXT PRIMARY KEY,
    created_at      INTEGER NOT NULL,
    scoring_version TEXT    NOT NULL,
    weights         TEXT    NOT NULL,
    percentiles     TEXT    NOT NULL,
    population_size INTEGER NOT NULL DEFAULT 0,
    degraded        INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS snapshot_entries (
    snapshot_id      TEXT    NOT NULL,
    ordering         TEXT    NOT NULL,
    rank             INTEGER NOT NULL,
    trader_id        TEXT    NOT NULL,
    trader_name      TEXT    NOT NULL DEFAULT '',
    value            REAL    NOT NULL DEFAULT 0,
    total_trades     INTEGER NOT NULL DEFAULT 0,
    confidence_score REAL    NOT NULL DEFAULT 0,
    final_score      REAL    NOT NULL DEFAULT 0,
    PRIMARY KEY (snapshot_id, ordering, trader_id)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_at ON snapshots(created_at DESC);
`

// DefaultRetention es la antigüedad máxima de un snapshot.
const DefaultRetention = 30 * 24 * time.Hour

// SQLiteStorage implementa ports.SnapshotStorage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada, aplica el
// schema y borra los snapshots más antiguos que retention (0 = DefaultRetention).
func NewSQLiteStorage(path string, retention time.Duration) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	if retention <= 0 {
		retention = DefaultRetention
	}
	s := &SQLiteStorage{db: db}
	if n, err := s.PruneSnapshots(context.Background(), time.Now().Add(-retention)); err != nil {
		slog.Warn("prune on open failed", "err", err)
	} else if n > 0 {
		slog.Debug("old snapshots pruned", "count", n)
	}
	return s, nil
}

// SaveSnapshot persiste el snapshot y todas sus entradas en una transacción.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	if snap.ID == "" {
		return errors.New("storage.SaveSnapshot: empty snapshot id")
	}

	weights, err := json.Marshal(snap.Weights)
	if err != nil {
		return fmt.Errorf("storage.SaveSnapshot: marshal weights: %w", err)
	}
	pct, err := json.Marshal(snap.Percentiles)
	if err != nil {
		return fmt.Errorf("storage.SaveSnapshot: marshal percentiles: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveSnapshot: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, created_at, scoring_version, weights, percentiles, population_size, degraded)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ID,
		snap.CreatedAt.UTC().UnixMilli(),
		snap.ScoringVersion,
		string(weights),
		string(pct),
		snap.Percentiles.PopulationSize,
		boolInt(snap.Percentiles.Degraded),
	); err != nil {
		return fmt.Errorf("storage.SaveSnapshot: insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_entries
			(snapshot_id, ordering, rank, trader_id, trader_name, value,
			 total_trades, confidence_score, final_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveSnapshot: prepare: %w", err)
	}
	defer stmt.Close()

	for _, board := range snap.Leaderboards {
		for _, e := range board.Entries {
			if _, err := stmt.ExecContext(ctx,
				snap.ID, string(board.Ordering), e.Rank, e.TraderID, e.TraderName, e.Value,
				e.TotalTrades, e.ConfidenceScore, e.FinalScore,
			); err != nil {
				return fmt.Errorf("storage.SaveSnapshot: insert %s/%s: %w", board.Ordering, e.TraderID, err)
			}
		}
		for _, id := range board.Unranked {
			if _, err := stmt.ExecContext(ctx,
				snap.ID, string(board.Ordering), 0, id, "", 0, 0, 0, 0,
			); err != nil {
				return fmt.Errorf("storage.SaveSnapshot: insert unranked %s/%s: %w", board.Ordering, id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveSnapshot: commit: %w", err)
	}
	return nil
}

// LatestSnapshot devuelve el snapshot más reciente con sus nueve leaderboards.
func (s *SQLiteStorage) LatestSnapshot(ctx context.Context) (domain.Snapshot, error) {
	var (
		snap             domain.Snapshot
		createdAt        int64
		weights, pctJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, scoring_version, weights, percentiles
		FROM snapshots
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
	).Scan(&snap.ID, &createdAt, &snap.ScoringVersion, &weights, &pctJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, domain.ErrNoSnapshot
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("storage.LatestSnapshot: query: %w", err)
	}

	snap.CreatedAt = time.UnixMilli(createdAt).UTC()
	if err := json.Unmarshal([]byte(weights), &snap.Weights); err != nil {
		return domain.Snapshot{}, fmt.Errorf("storage.LatestSnapshot: decode weights: %w", err)
	}
	if err := json.Unmarshal([]byte(pctJSON), &snap.Percentiles); err != nil {
		return domain.Snapshot{}, fmt.Errorf("storage.LatestSnapshot: decode percentiles: %w", err)
	}

	boards, err := s.loadBoards(ctx, snap.ID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snap.Leaderboards = boards
	return snap, nil
}

// LatestPercentiles devuelve los percentiles del snapshot más reciente.
func (s *SQLiteStorage) LatestPercentiles(ctx context.Context) (domain.PopulationPercentiles, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT percentiles FROM snapshots ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PopulationPercentiles{}, domain.ErrNoSnapshot
	}
	if err != nil {
		return domain.PopulationPercentiles{}, fmt.Errorf("storage.LatestPercentiles: query: %w", err)
	}

	var pct domain.PopulationPercentiles
	if err := json.Unmarshal([]byte(raw), &pct); err != nil {
		return domain.PopulationPercentiles{}, fmt.Errorf("storage.LatestPercentiles: decode: %w", err)
	}
	return pct, nil
}

// PruneSnapshots borra los snapshots (y sus entradas) creados antes de before.
func (s *SQLiteStorage) PruneSnapshots(ctx context.Context, before time.Time) (int, error) {
	cutoff := before.UTC().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("storage.PruneSnapshots: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM snapshot_entries
		WHERE snapshot_id IN (SELECT id FROM snapshots WHERE created_at < ?)`, cutoff,
	); err != nil {
		return 0, fmt.Errorf("storage.PruneSnapshots: delete entries: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("storage.PruneSnapshots: delete snapshots: %w", err)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage.PruneSnapshots: commit: %w", err)
	}
	return int(n), nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// loadBoards reconstruye los leaderboards de un snapshot en el orden de domain.Orderings.
func (s *SQLiteStorage) loadBoards(ctx context.Context, snapshotID string) ([]domain.Leaderboard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ordering, rank, trader_id, trader_name, value, total_trades, confidence_score, final_score
		FROM snapshot_entries
		WHERE snapshot_id = ?`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("storage.loadBoards: query: %w", err)
	}
	defer rows.Close()

	byOrdering := make(map[domain.Ordering]*domain.Leaderboard)
	for _, o := range domain.Orderings() {
		byOrdering[o] = &domain.Leaderboard{Ordering: o, Ascending: o.Ascending(), Entries: []domain.LeaderboardEntry{}}
	}

	for rows.Next() {
		var (
			ordering string
			e        domain.LeaderboardEntry
		)
		if err := rows.Scan(&ordering, &e.Rank, &e.TraderID, &e.TraderName, &e.Value,
			&e.TotalTrades, &e.ConfidenceScore, &e.FinalScore); err != nil {
			return nil, fmt.Errorf("storage.loadBoards: scan row: %w", err)
		}
		board, ok := byOrdering[domain.Ordering(ordering)]
		if !ok {
			continue // ordenación de una versión anterior
		}
		if e.Rank == 0 {
			board.Unranked = append(board.Unranked, e.TraderID)
			continue
		}
		board.Entries = append(board.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.loadBoards: rows: %w", err)
	}

	boards := make([]domain.Leaderboard, 0, len(byOrdering))
	for _, o := range domain.Orderings() {
		b := byOrdering[o]
		sort.Slice(b.Entries, func(i, j int) bool { return b.Entries[i].Rank < b.Entries[j].Rank })
		sort.Strings(b.Unranked)
		boards = append(boards, *b)
	}
	return boards, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
