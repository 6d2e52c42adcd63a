package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caura/recon-engine/internal/infrastructure/config"
)

func TestFuzzyStrategy_NearNameInBand(t *testing.T) {
	cfg := config.DefaultMatchingConfig()
	ix := testIndex(t, &cfg, testClients())

	strategy, err := NewFuzzyStrategy(&cfg)
	require.NoError(t, err)

	tx := testTx("TX1", "Payment from Jon Smith", "")
	candidates, err := strategy.Propose(tx, ix)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "CL00001", c.ClientID)
	assert.Equal(t, MethodFuzzy, c.Strategy)
	// similarity 0.9 scaled into [0.60, 0.95] above the 0.85 threshold
	assert.InDelta(t, 0.7167, c.RawScore, 1e-3)
	assert.Contains(t, c.Rationale[0], "similar")
}

func TestFuzzyStrategy_ExactNameScoresBandMax(t *testing.T) {
	cfg := config.DefaultMatchingConfig()
	ix := testIndex(t, &cfg, testClients())

	strategy, err := NewFuzzyStrategy(&cfg)
	require.NoError(t, err)

	tx := testTx("TX2", "Payment from John Smith", "")
	candidates, err := strategy.Propose(tx, ix)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.InDelta(t, cfg.Fuzzy.BandMax, candidates[0].RawScore, 1e-9)
}

func TestFuzzyStrategy_BelowThresholdNoCandidate(t *testing.T) {
	cfg := config.DefaultMatchingConfig()
	ix := testIndex(t, &cfg, testClients())

	strategy, err := NewFuzzyStrategy(&cfg)
	require.NoError(t, err)

	tx := testTx("TX3", "Payment from Joan Smythe-Jonson", "")
	candidates, err := strategy.Propose(tx, ix)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestFuzzyStrategy_AddressRaisesScore(t *testing.T) {
	cfg := config.DefaultMatchingConfig()
	ix := testIndex(t, &cfg, testClients())

	strategy, err := NewFuzzyStrategy(&cfg)
	require.NoError(t, err)

	tx := testTx("TX4", "Jon Smith 12 Smith Street Melton 3337", "")
	candidates, err := strategy.Propose(tx, ix)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	// Full address agreement lifts the score to the top of the band.
	assert.InDelta(t, cfg.Fuzzy.BandMax, c.RawScore, 1e-9)
	require.Len(t, c.Rationale, 2)
	assert.Contains(t, c.Rationale[1], "address")
}

func TestFuzzyStrategy_ReadsNameMetadata(t *testing.T) {
	cfg := config.DefaultMatchingConfig()
	ix := testIndex(t, &cfg, testClients())

	strategy, err := NewFuzzyStrategy(&cfg)
	require.NoError(t, err)

	tx := testTx("TX5", "", "")
	tx.Metadata = map[string]string{"payer_name": "Jane Doe"}

	candidates, err := strategy.Propose(tx, ix)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "CL00002", candidates[0].ClientID)
}

func TestNewFuzzyStrategy_BadConfig(t *testing.T) {
	cfg := config.DefaultMatchingConfig()
	cfg.Fuzzy.NameThreshold = 1.0

	_, err := NewFuzzyStrategy(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)

	cfg = config.DefaultMatchingConfig()
	cfg.Fuzzy.BandMin = 0.9
	cfg.Fuzzy.BandMax = 0.5
	_, err = NewFuzzyStrategy(&cfg)
	assert.Error(t, err)
}
