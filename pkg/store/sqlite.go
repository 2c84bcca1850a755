package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/relab-tools/faultline/pkg/engine"
)

// Store manages the SQLite connection and schema.
type Store struct {
	db *sql.DB
}

// NewStore initializes the SQLite database connection.
// It enables WAL mode for concurrency and durability.
func NewStore(dbPath string) (*Store, error) {
	// Open the database
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	// Enable WAL mode (Write-Ahead Logging)
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Enforce foreign keys (good practice)
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	// Initialize schema
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the necessary tables if they don't exist.
func (s *Store) migrate() error {
	// The runs table carries the summary columns used by list queries;
	// the full result is stored as a JSON blob.
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		algorithm TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		product_count INTEGER NOT NULL,
		truncated INTEGER NOT NULL,
		probability REAL,
		result JSON NOT NULL
	);

	-- Index for listing by model and recency (common access pattern)
	CREATE INDEX IF NOT EXISTS idx_runs_model ON runs(model, created_at);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	return nil
}

// SaveRun persists a run. The run ID must be unique.
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	blob, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, model, algorithm, created_at, product_count, truncated, probability, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Model, run.Algorithm, run.CreatedAt.UTC(),
		run.ProductCount, run.Truncated, run.Probability, blob,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// GetRun loads one run with its full result.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, model, algorithm, created_at, product_count, truncated, probability, result
		FROM runs WHERE run_id = ?`, runID)
	return scanRun(row)
}

// ListRuns returns run summaries, newest first. The stored results are
// not decoded for listings.
func (s *Store) ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	query := `
		SELECT run_id, model, algorithm, created_at, product_count, truncated, probability
		FROM runs WHERE 1=1`
	args := []any{}
	if filter.Model != "" {
		query += " AND model = ?"
		args = append(args, filter.Model)
	}
	if !filter.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.Since.UTC())
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var created time.Time
		if err := rows.Scan(&r.RunID, &r.Model, &r.Algorithm, &created,
			&r.ProductCount, &r.Truncated, &r.Probability); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.CreatedAt = created.UTC()
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// RunsBefore returns full runs created before the cutoff, oldest first.
// Used by the archive worker to pick its next batch.
func (s *Store) RunsBefore(ctx context.Context, cutoff time.Time, limit int) ([]*Run, error) {
	query := `
		SELECT run_id, model, algorithm, created_at, product_count, truncated, probability, result
		FROM runs WHERE created_at < ? ORDER BY created_at ASC`
	args := []any{cutoff.UTC()}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var created time.Time
		var blob []byte
		if err := rows.Scan(&r.RunID, &r.Model, &r.Algorithm, &created,
			&r.ProductCount, &r.Truncated, &r.Probability, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.CreatedAt = created.UTC()
		var result engine.Result
		if err := json.Unmarshal(blob, &result); err != nil {
			return nil, fmt.Errorf("failed to decode result: %w", err)
		}
		r.Result = &result
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// DeleteRuns removes a batch of runs in one transaction.
func (s *Store) DeleteRuns(ctx context.Context, runIDs []string) error {
	if len(runIDs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range runIDs {
		if _, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE run_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete run %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// DeleteRun removes a run. Deleting an unknown run is not an error.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

func scanRun(row *sql.Row) (*Run, error) {
	var r Run
	var created time.Time
	var blob []byte
	err := row.Scan(&r.RunID, &r.Model, &r.Algorithm, &created,
		&r.ProductCount, &r.Truncated, &r.Probability, &blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	r.CreatedAt = created.UTC()
	var result engine.Result
	if err := json.Unmarshal(blob, &result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	r.Result = &result
	return &r, nil
}
