// Package dto defines the API's wire types.
package dto

import (
	"time"

	"github.com/caura/recon-engine/internal/infrastructure/storage"
)

// RunResponse is one run summary.
type RunResponse struct {
	RunID            string  `json:"run_id"`
	Platform         string  `json:"platform"`
	RunDate          string  `json:"run_date"`
	SourceIdentifier string  `json:"source_identifier"`
	Total            int     `json:"total_transactions"`
	Matched          int     `json:"matched_transactions"`
	Unmatched        int     `json:"unmatched_transactions"`
	RequiresReview   int     `json:"requires_review"`
	ProcessingTime   float64 `json:"processing_time"`
}

// RunListResponse wraps a list of run summaries.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// ToRunResponse converts a stored run record to its wire shape.
func ToRunResponse(rec *storage.RunRecord) RunResponse {
	return RunResponse{
		RunID:            rec.RunID,
		Platform:         rec.Platform,
		RunDate:          rec.RunDate.UTC().Format(time.RFC3339),
		SourceIdentifier: rec.SourceIdentifier,
		Total:            rec.TotalCount,
		Matched:          rec.MatchedCount,
		Unmatched:        rec.UnmatchedCount,
		RequiresReview:   rec.ReviewCount,
		ProcessingTime:   rec.ProcessingTime,
	}
}
