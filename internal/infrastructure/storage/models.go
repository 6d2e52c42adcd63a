package storage

import "time"

// RunRecord is one persisted reconciliation run summary. The full report is
// kept as its JSON payload; individual transactions are never stored.
type RunRecord struct {
	RunID            string    `json:"run_id"`
	Platform         string    `json:"platform"`
	RunDate          time.Time `json:"run_date"`
	SourceIdentifier string    `json:"source_identifier"`
	TotalCount       int       `json:"total_transactions"`
	MatchedCount     int       `json:"matched_transactions"`
	UnmatchedCount   int       `json:"unmatched_transactions"`
	ReviewCount      int       `json:"requires_review"`
	ProcessingTime   float64   `json:"processing_time"`
	ReportJSON       string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

// Stats aggregates all persisted runs.
type Stats struct {
	TotalRuns         int     `json:"total_runs"`
	TotalTransactions int     `json:"total_transactions"`
	TotalMatched      int     `json:"total_matched"`
	TotalUnmatched    int     `json:"total_unmatched"`
	TotalReview       int     `json:"total_review"`
	AvgMatchRate      float64 `json:"avg_match_rate"`
}
