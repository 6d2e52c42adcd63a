// Package report aggregates match results into the run-level reconciliation
// report, the sole output artifact of the matching engine.
package report

import (
	"time"

	"github.com/caura/recon-engine/internal/domain/matcher"
	"github.com/caura/recon-engine/internal/infrastructure/config"
)

// ReconciliationReport is the aggregate of every MatchResult in a run plus
// counts and timings. It is finalized once all transactions are processed.
type ReconciliationReport struct {
	RunID                  string                `json:"run_id"`
	Platform               string                `json:"platform"`
	RunDate                time.Time             `json:"run_date"`
	SourceIdentifier       string                `json:"source_identifier"`
	TotalTransactions      int                   `json:"total_transactions"`
	MatchedTransactions    int                   `json:"matched_transactions"`
	UnmatchedTransactions  int                   `json:"unmatched_transactions"`
	RequiresReview         int                   `json:"requires_review"`
	ConfidenceDistribution map[string]int        `json:"confidence_distribution"`
	MatchMethodBreakdown   map[string]int        `json:"match_method_breakdown"`
	ProcessingTime         float64               `json:"processing_time"`
	MatchResults           []matcher.MatchResult `json:"match_results"`
}

// FromMatchResults builds the finalized report for one run. Results keep
// their input order.
func FromMatchResults(
	runID, platform, sourceIdentifier string,
	results []matcher.MatchResult,
	thresholds config.Thresholds,
	processingTime float64,
) *ReconciliationReport {
	r := &ReconciliationReport{
		RunID:                  runID,
		Platform:               platform,
		RunDate:                time.Now().UTC(),
		SourceIdentifier:       sourceIdentifier,
		TotalTransactions:      len(results),
		ConfidenceDistribution: map[string]int{"high": 0, "medium": 0, "low": 0},
		MatchMethodBreakdown:   make(map[string]int),
		ProcessingTime:         processingTime,
		MatchResults:           results,
	}

	for i := range results {
		res := &results[i]
		if res.IsMatched {
			r.MatchedTransactions++
		} else {
			r.UnmatchedTransactions++
		}
		if res.RequiresReview {
			r.RequiresReview++
		}
		r.ConfidenceDistribution[res.ConfidenceLevel(thresholds)]++
		r.MatchMethodBreakdown[res.MatchMethod]++
	}

	return r
}

// MatchRate is the fraction of transactions matched, in [0,1].
func (r *ReconciliationReport) MatchRate() float64 {
	if r.TotalTransactions == 0 {
		return 0.0
	}
	return float64(r.MatchedTransactions) / float64(r.TotalTransactions)
}
