// Package store is the data access layer for the sync ledger: which Drive
// files have already been turned into estimates, and the history of sync
// runs shown on the dashboard.
//
// The ledger is what makes repeated runs idempotent. A file that appears
// in processed_files is never submitted to Zoho again, even if moving it
// to the processed folder failed on a previous run.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Schema is the complete ledger schema.
const Schema = `
-- Files already turned into estimates
CREATE TABLE IF NOT EXISTS processed_files (
    file_id         TEXT PRIMARY KEY,
    file_name       TEXT NOT NULL,
    mime_type       TEXT NOT NULL DEFAULT '',
    estimate_id     TEXT NOT NULL DEFAULT '',
    estimate_number TEXT NOT NULL DEFAULT '',
    processed_at    INTEGER NOT NULL
);

-- Every sync attempt, successful or not
CREATE TABLE IF NOT EXISTS sync_runs (
    id              TEXT PRIMARY KEY,
    started_at      INTEGER NOT NULL,
    finished_at     INTEGER NOT NULL,
    status          TEXT NOT NULL,
    file_name       TEXT NOT NULL DEFAULT '',
    estimate_id     TEXT NOT NULL DEFAULT '',
    estimate_number TEXT NOT NULL DEFAULT '',
    extract_source  TEXT NOT NULL DEFAULT '',
    line_items      INTEGER NOT NULL DEFAULT 0,
    error           TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_sync_runs_time ON sync_runs(started_at DESC);
`

// Run statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// ProcessedFile records one handled Drive file.
type ProcessedFile struct {
	FileID         string
	FileName       string
	MimeType       string
	EstimateID     string
	EstimateNumber string
	ProcessedAt    time.Time
}

// Run records one sync attempt.
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	Status         string
	FileName       string
	EstimateID     string
	EstimateNumber string
	ExtractSource  string
	LineItems      int
	Error          string
}

// Stats summarizes the ledger for the dashboard.
type Stats struct {
	ProcessedFiles int       `json:"processed_files"`
	TotalRuns      int       `json:"total_runs"`
	SuccessfulRuns int       `json:"successful_runs"`
	FailedRuns     int       `json:"failed_runs"`
	LastRunAt      time.Time `json:"last_run_at"`
	LastRunStatus  string    `json:"last_run_status"`
}

// Store wraps the ledger database.
type Store struct {
	DB *sql.DB
}

// NewStore creates a Store from an already-opened database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// ApplySchema creates the ledger tables.
func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("store: apply schema: %w", err)
	}
	return nil
}

// MarkProcessed records a file as handled. Re-marking an already-handled
// file updates the estimate columns.
func (s *Store) MarkProcessed(ctx context.Context, f ProcessedFile) error {
	if f.ProcessedAt.IsZero() {
		f.ProcessedAt = time.Now()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO processed_files (file_id, file_name, mime_type, estimate_id, estimate_number, processed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id) DO UPDATE SET
			estimate_id = excluded.estimate_id,
			estimate_number = excluded.estimate_number,
			processed_at = excluded.processed_at`,
		f.FileID, f.FileName, f.MimeType, f.EstimateID, f.EstimateNumber, f.ProcessedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("store: mark processed %s: %w", f.FileID, err)
	}
	return nil
}

// IsProcessed reports whether a file has already been handled.
func (s *Store) IsProcessed(ctx context.Context, fileID string) (bool, error) {
	var one int
	err := s.DB.QueryRowContext(ctx,
		`SELECT 1 FROM processed_files WHERE file_id = ?`, fileID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: is processed %s: %w", fileID, err)
	}
	return true, nil
}

// ListProcessed returns handled files, most recent first.
func (s *Store) ListProcessed(ctx context.Context, limit int) ([]ProcessedFile, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT file_id, file_name, mime_type, estimate_id, estimate_number, processed_at
		FROM processed_files ORDER BY processed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list processed: %w", err)
	}
	defer rows.Close()

	var files []ProcessedFile
	for rows.Next() {
		var f ProcessedFile
		var at int64
		if err := rows.Scan(&f.FileID, &f.FileName, &f.MimeType, &f.EstimateID, &f.EstimateNumber, &at); err != nil {
			return nil, fmt.Errorf("store: scan processed file: %w", err)
		}
		f.ProcessedAt = time.UnixMilli(at)
		files = append(files, f)
	}
	return files, rows.Err()
}

// RecordRun appends a sync run to the history. A missing ID is generated.
func (s *Store) RecordRun(ctx context.Context, r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO sync_runs (id, started_at, finished_at, status, file_name, estimate_id, estimate_number, extract_source, line_items, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UnixMilli(), r.FinishedAt.UnixMilli(), r.Status,
		r.FileName, r.EstimateID, r.EstimateNumber, r.ExtractSource, r.LineItems, r.Error)
	if err != nil {
		return "", fmt.Errorf("store: record run: %w", err)
	}
	return r.ID, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, started_at, finished_at, status, file_name, estimate_id, estimate_number, extract_source, line_items, error
		FROM sync_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		if err := rows.Scan(&r.ID, &started, &finished, &r.Status, &r.FileName,
			&r.EstimateID, &r.EstimateNumber, &r.ExtractSource, &r.LineItems, &r.Error); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		r.StartedAt = time.UnixMilli(started)
		r.FinishedAt = time.UnixMilli(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetStats computes ledger totals for the dashboard.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM processed_files`).Scan(&st.ProcessedFiles)
	if err != nil {
		return nil, fmt.Errorf("store: stats: %w", err)
	}

	err = s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM sync_runs`, StatusSuccess, StatusError).
		Scan(&st.TotalRuns, &st.SuccessfulRuns, &st.FailedRuns)
	if err != nil {
		return nil, fmt.Errorf("store: stats: %w", err)
	}

	var started int64
	err = s.DB.QueryRowContext(ctx, `
		SELECT started_at, status FROM sync_runs ORDER BY started_at DESC LIMIT 1`).
		Scan(&started, &st.LastRunStatus)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: stats: %w", err)
	}
	if err == nil {
		st.LastRunAt = time.UnixMilli(started)
	}
	return st, nil
}
