// Package storage provides SQLite persistence for reconciliation run
// history. Only run summaries and report payloads are stored; the engine
// holds no transactional database of its own.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/caura/recon-engine/internal/domain/report"
)

// ErrRunNotFound is returned when a run ID is not in the history.
var ErrRunNotFound = errors.New("run not found")

// Storage provides SQLite database access for run records.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Storage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recon_runs (
		run_id            TEXT PRIMARY KEY,
		platform          TEXT NOT NULL,
		run_date          TIMESTAMP NOT NULL,
		source_identifier TEXT NOT NULL,
		total_count       INTEGER NOT NULL,
		matched_count     INTEGER NOT NULL,
		unmatched_count   INTEGER NOT NULL,
		review_count      INTEGER NOT NULL,
		processing_time   REAL NOT NULL,
		report_json       TEXT NOT NULL,
		created_at        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_recon_runs_platform ON recon_runs(platform);
	CREATE INDEX IF NOT EXISTS idx_recon_runs_run_date ON recon_runs(run_date);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveRun persists a finalized reconciliation report.
func (s *Storage) SaveRun(rep *report.ReconciliationReport) error {
	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO recon_runs
	(run_id, platform, run_date, source_identifier,
	 total_count, matched_count, unmatched_count, review_count,
	 processing_time, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		rep.RunID,
		rep.Platform,
		rep.RunDate,
		rep.SourceIdentifier,
		rep.TotalTransactions,
		rep.MatchedTransactions,
		rep.UnmatchedTransactions,
		rep.RequiresReview,
		rep.ProcessingTime,
		string(payload),
	)
	return err
}

// GetRun retrieves one persisted run by ID, including its report payload.
func (s *Storage) GetRun(runID string) (*RunRecord, error) {
	query := `
	SELECT run_id, platform, run_date, source_identifier,
	       total_count, matched_count, unmatched_count, review_count,
	       processing_time, report_json, created_at
	FROM recon_runs WHERE run_id = ?
	`

	rec := &RunRecord{}
	err := s.db.QueryRow(query, runID).Scan(
		&rec.RunID, &rec.Platform, &rec.RunDate, &rec.SourceIdentifier,
		&rec.TotalCount, &rec.MatchedCount, &rec.UnmatchedCount, &rec.ReviewCount,
		&rec.ProcessingTime, &rec.ReportJSON, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Storage) ListRuns(limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT run_id, platform, run_date, source_identifier,
	       total_count, matched_count, unmatched_count, review_count,
	       processing_time, report_json, created_at
	FROM recon_runs ORDER BY run_date DESC LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		rec := &RunRecord{}
		if err := rows.Scan(
			&rec.RunID, &rec.Platform, &rec.RunDate, &rec.SourceIdentifier,
			&rec.TotalCount, &rec.MatchedCount, &rec.UnmatchedCount, &rec.ReviewCount,
			&rec.ProcessingTime, &rec.ReportJSON, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetStats aggregates all persisted runs.
func (s *Storage) GetStats() (*Stats, error) {
	query := `
	SELECT COUNT(*),
	       COALESCE(SUM(total_count), 0),
	       COALESCE(SUM(matched_count), 0),
	       COALESCE(SUM(unmatched_count), 0),
	       COALESCE(SUM(review_count), 0)
	FROM recon_runs
	`

	stats := &Stats{}
	err := s.db.QueryRow(query).Scan(
		&stats.TotalRuns,
		&stats.TotalTransactions,
		&stats.TotalMatched,
		&stats.TotalUnmatched,
		&stats.TotalReview,
	)
	if err != nil {
		return nil, err
	}

	if stats.TotalTransactions > 0 {
		stats.AvgMatchRate = float64(stats.TotalMatched) / float64(stats.TotalTransactions)
	}
	return stats, nil
}
