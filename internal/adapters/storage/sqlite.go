package storage

// sqlite.go — redemption audit trail.
//
// Two tables:
//   - `runs`: one row per persisted redemption cycle (uuid id, wallet,
//     mode flags, counters).
//   - `outcomes`: one row per submitted position, keyed (run_id, seq) so
//     the submission order survives the round trip.
//
// started_at is stored as unix nanoseconds: exact ordering, no parsing.
// Runs older than the retention window are pruned on startup.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/karbbot/karb/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    started_at  INTEGER NOT NULL,
    wallet      TEXT    NOT NULL,
    dry_run     INTEGER NOT NULL DEFAULT 0,
    skipped     INTEGER NOT NULL DEFAULT 0,
    skip_reason TEXT    NOT NULL DEFAULT '',
    redeemed    INTEGER NOT NULL DEFAULT 0,
    failed      INTEGER NOT NULL DEFAULT 0,
    total_value REAL    NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS outcomes (
    run_id  TEXT    NOT NULL,
    seq     INTEGER NOT NULL,
    market  TEXT    NOT NULL,
    size    REAL    NOT NULL DEFAULT 0,
    value   REAL    NOT NULL DEFAULT 0,
    success INTEGER NOT NULL DEFAULT 0,
    tx_hash TEXT    NOT NULL DEFAULT '',
    error   TEXT    NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
`

// Audit rows are small; three months of history stays in the low MBs.
const retentionRuns = 90 * 24 * time.Hour

// SQLiteStore implements ports.RedemptionStore using SQLite (pure Go, no CGo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at the given path,
// applies the schema and prunes old runs.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveRun persists one redemption run and its per-position outcomes in a
// single transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run domain.RedemptionRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
			(id, started_at, wallet, dry_run, skipped, skip_reason, redeemed, failed, total_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().UnixNano(),
		run.Wallet,
		boolToInt(run.DryRun),
		boolToInt(run.Summary.Skipped),
		run.Summary.SkipReason,
		run.Summary.Redeemed,
		run.Summary.Failed,
		run.Summary.TotalValue,
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run: %w", err)
	}

	if len(run.Summary.Positions) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO outcomes (run_id, seq, market, size, value, success, tx_hash, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("storage.SaveRun: prepare: %w", err)
		}
		defer stmt.Close()

		for i, out := range run.Summary.Positions {
			if _, err := stmt.ExecContext(ctx,
				run.ID, i,
				out.Market, out.Size, out.Value,
				boolToInt(out.Success), out.TxHash, out.Error,
			); err != nil {
				return fmt.Errorf("storage.SaveRun: insert outcome %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first, with their outcomes
// loaded in submission order.
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]domain.RedemptionRun, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, wallet, dry_run, skipped, skip_reason, redeemed, failed, total_value
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentRuns: query runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RedemptionRun
	for rows.Next() {
		var run domain.RedemptionRun
		var startedAt int64
		var dryRun, skipped int

		if err := rows.Scan(
			&run.ID,
			&startedAt,
			&run.Wallet,
			&dryRun,
			&skipped,
			&run.Summary.SkipReason,
			&run.Summary.Redeemed,
			&run.Summary.Failed,
			&run.Summary.TotalValue,
		); err != nil {
			return nil, fmt.Errorf("storage.RecentRuns: scan run: %w", err)
		}

		run.StartedAt = time.Unix(0, startedAt).UTC()
		run.DryRun = dryRun == 1
		run.Summary.Skipped = skipped == 1
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.RecentRuns: rows: %w", err)
	}

	for i := range runs {
		outcomes, err := s.loadOutcomes(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Summary.Positions = outcomes
	}
	return runs, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- internal helpers ---

func (s *SQLiteStore) loadOutcomes(ctx context.Context, runID string) ([]domain.RedemptionOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT market, size, value, success, tx_hash, error
		FROM outcomes
		WHERE run_id = ?
		ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.loadOutcomes: query: %w", err)
	}
	defer rows.Close()

	var outcomes []domain.RedemptionOutcome
	for rows.Next() {
		var out domain.RedemptionOutcome
		var success int

		if err := rows.Scan(&out.Market, &out.Size, &out.Value, &success, &out.TxHash, &out.Error); err != nil {
			return nil, fmt.Errorf("storage.loadOutcomes: scan: %w", err)
		}
		out.Success = success == 1
		outcomes = append(outcomes, out)
	}
	return outcomes, rows.Err()
}

// pruneOld drops runs older than the retention window, outcomes first.
func (s *SQLiteStore) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionRuns).UnixNano()
	s.db.ExecContext(ctx, `DELETE FROM outcomes WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)`, cutoff)
	s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
