package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caura/recon-engine/internal/domain/matcher"
	"github.com/caura/recon-engine/internal/domain/report"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorage(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testReport(runID string, runDate time.Time) *report.ReconciliationReport {
	return &report.ReconciliationReport{
		RunID:                 runID,
		Platform:              "bank",
		RunDate:               runDate,
		SourceIdentifier:      "stmt.csv",
		TotalTransactions:     3,
		MatchedTransactions:   2,
		UnmatchedTransactions: 1,
		RequiresReview:        1,
		ConfidenceDistribution: map[string]int{
			"high": 2, "medium": 0, "low": 1,
		},
		MatchMethodBreakdown: map[string]int{"exact": 2, "no_match": 1},
		ProcessingTime:       0.42,
		MatchResults: []matcher.MatchResult{
			{TransactionID: "TX1", ClientID: "CL00001", ConfidenceScore: 1.0, MatchMethod: "exact", IsMatched: true, AuditTrail: []string{"a"}},
			{TransactionID: "TX2", ClientID: "CL00002", ConfidenceScore: 0.95, MatchMethod: "exact", IsMatched: true, AuditTrail: []string{"b"}},
			{TransactionID: "TX3", ConfidenceScore: 0.2, MatchMethod: "no_match", RequiresReview: true, AuditTrail: []string{"c"}},
		},
	}
}

func TestStorage_SaveAndGetRun(t *testing.T) {
	store := newTestStorage(t)

	runDate := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.SaveRun(testReport("bank_run1", runDate)))

	rec, err := store.GetRun("bank_run1")
	require.NoError(t, err)

	assert.Equal(t, "bank_run1", rec.RunID)
	assert.Equal(t, "bank", rec.Platform)
	assert.Equal(t, "stmt.csv", rec.SourceIdentifier)
	assert.Equal(t, 3, rec.TotalCount)
	assert.Equal(t, 2, rec.MatchedCount)
	assert.Equal(t, 1, rec.UnmatchedCount)
	assert.Equal(t, 1, rec.ReviewCount)
	assert.Equal(t, 0.42, rec.ProcessingTime)
	assert.True(t, rec.RunDate.Equal(runDate))

	// The full report payload survives the round trip.
	assert.Contains(t, rec.ReportJSON, `"transaction_id":"TX1"`)
	assert.Contains(t, rec.ReportJSON, `"audit_trail":["a"]`)
}

func TestStorage_GetRun_NotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetRun("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestStorage_SaveRun_Idempotent(t *testing.T) {
	store := newTestStorage(t)

	runDate := time.Now().UTC()
	rep := testReport("bank_run1", runDate)
	require.NoError(t, store.SaveRun(rep))

	rep.MatchedTransactions = 3
	rep.UnmatchedTransactions = 0
	require.NoError(t, store.SaveRun(rep))

	rec, err := store.GetRun("bank_run1")
	require.NoError(t, err)
	assert.Equal(t, 3, rec.MatchedCount)

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestStorage_ListRuns_NewestFirst(t *testing.T) {
	store := newTestStorage(t)

	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.SaveRun(testReport("bank_old", base.Add(-2*time.Hour))))
	require.NoError(t, store.SaveRun(testReport("bank_new", base)))
	require.NoError(t, store.SaveRun(testReport("bank_mid", base.Add(-1*time.Hour))))

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "bank_new", runs[0].RunID)
	assert.Equal(t, "bank_mid", runs[1].RunID)
	assert.Equal(t, "bank_old", runs[2].RunID)

	limited, err := store.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestStorage_GetStats(t *testing.T) {
	store := newTestStorage(t)

	stats, err := store.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalRuns)
	assert.Equal(t, 0.0, stats.AvgMatchRate)

	now := time.Now().UTC()
	require.NoError(t, store.SaveRun(testReport("bank_run1", now.Add(-time.Hour))))
	require.NoError(t, store.SaveRun(testReport("bank_run2", now)))

	stats, err = store.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 6, stats.TotalTransactions)
	assert.Equal(t, 4, stats.TotalMatched)
	assert.Equal(t, 2, stats.TotalUnmatched)
	assert.Equal(t, 2, stats.TotalReview)
	assert.InDelta(t, 4.0/6.0, stats.AvgMatchRate, 1e-9)
}
