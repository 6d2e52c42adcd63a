package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caura/recon-engine/internal/domain/matcher"
	"github.com/caura/recon-engine/internal/infrastructure/config"
)

func TestFromMatchResults_Aggregates(t *testing.T) {
	thresholds := config.Thresholds{High: 0.85, Medium: 0.60, Low: 0.40}
	results := []matcher.MatchResult{
		{TransactionID: "TX1", ClientID: "CL00001", ConfidenceScore: 1.0, MatchMethod: "exact", IsMatched: true},
		{TransactionID: "TX2", ClientID: "CL00002", ConfidenceScore: 0.70, MatchMethod: "fuzzy", IsMatched: true, RequiresReview: true},
		{TransactionID: "TX3", ConfidenceScore: 0.50, MatchMethod: "no_match", RequiresReview: true},
		{TransactionID: "TX4", MatchMethod: "error", RequiresReview: true},
	}

	rep := FromMatchResults("bank_abc", "bank", "stmt.csv", results, thresholds, 1.25)

	assert.Equal(t, "bank_abc", rep.RunID)
	assert.Equal(t, "bank", rep.Platform)
	assert.Equal(t, "stmt.csv", rep.SourceIdentifier)
	assert.Equal(t, 4, rep.TotalTransactions)
	assert.Equal(t, 2, rep.MatchedTransactions)
	assert.Equal(t, 2, rep.UnmatchedTransactions)
	assert.Equal(t, 3, rep.RequiresReview)
	assert.Equal(t, 1.25, rep.ProcessingTime)

	assert.Equal(t, 1, rep.ConfidenceDistribution["high"])
	assert.Equal(t, 1, rep.ConfidenceDistribution["medium"])
	assert.Equal(t, 2, rep.ConfidenceDistribution["low"])

	assert.Equal(t, map[string]int{"exact": 1, "fuzzy": 1, "no_match": 1, "error": 1}, rep.MatchMethodBreakdown)

	// Input order is preserved.
	require.Len(t, rep.MatchResults, 4)
	assert.Equal(t, "TX1", rep.MatchResults[0].TransactionID)
	assert.Equal(t, "TX4", rep.MatchResults[3].TransactionID)

	assert.InDelta(t, 0.5, rep.MatchRate(), 1e-9)
}

func TestMatchRate_EmptyRun(t *testing.T) {
	rep := FromMatchResults("run", "bank", "", nil, config.Thresholds{}, 0)
	assert.Equal(t, 0.0, rep.MatchRate())
	assert.Equal(t, 0, rep.TotalTransactions)
}
