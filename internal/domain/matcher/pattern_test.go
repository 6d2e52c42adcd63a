package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caura/recon-engine/internal/infrastructure/config"
)

func TestPatternStrategy_CaptureGroupResolvesViaIdentifierMap(t *testing.T) {
	cfg := config.DefaultMatchingConfig()
	ix := testIndex(t, &cfg, testClients())

	strategy, err := NewPatternStrategy(&cfg)
	require.NoError(t, err)

	tx := testTx("TX1", "Invoice CL00001 settled", "")
	candidates, err := strategy.Propose(tx, ix)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "CL00001", c.ClientID)
	assert.Equal(t, MethodPattern, c.Strategy)
	assert.Equal(t, cfg.Pattern.BandMax, c.RawScore)
	assert.False(t, c.Ambiguous)
	assert.Contains(t, c.Rationale[0], "invoice_client")
	assert.Contains(t, c.Rationale[0], "client_id")
}

func TestPatternStrategy_ReferenceToken(t *testing.T) {
	cfg := config.DefaultMatchingConfig()
	ix := testIndex(t, &cfg, testClients())

	strategy, err := NewPatternStrategy(&cfg)
	require.NoError(t, err)

	tx := testTx("TX2", "", "REF ACN87654321")
	candidates, err := strategy.Propose(tx, ix)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "CL00002", candidates[0].ClientID)
	assert.Equal(t, cfg.Pattern.BandMax, candidates[0].RawScore)
}

func TestPatternStrategy_TextualFallbackScoresBandMin(t *testing.T) {
	cfg := config.DefaultMatchingConfig()
	cfg.Pattern.Patterns = []config.NamedPattern{
		{Name: "payer", Regex: `from ([A-Za-z ]+)`},
	}
	ix := testIndex(t, &cfg, testClients())

	strategy, err := NewPatternStrategy(&cfg)
	require.NoError(t, err)

	tx := testTx("TX3", "transfer from Jane Doe", "")
	candidates, err := strategy.Propose(tx, ix)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "CL00002", c.ClientID)
	assert.Equal(t, cfg.Pattern.BandMin, c.RawScore)
	assert.Contains(t, c.Rationale[0], "display name")
}

func TestPatternStrategy_UnresolvableTokenNoCandidate(t *testing.T) {
	cfg := config.DefaultMatchingConfig()
	ix := testIndex(t, &cfg, testClients())

	strategy, err := NewPatternStrategy(&cfg)
	require.NoError(t, err)

	tx := testTx("TX4", "Invoice CL99999", "")
	candidates, err := strategy.Propose(tx, ix)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestNewPatternStrategy_BadConfig(t *testing.T) {
	cfg := config.DefaultMatchingConfig()
	cfg.Pattern.Patterns = []config.NamedPattern{{Name: "bad", Regex: `(`}}

	_, err := NewPatternStrategy(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)

	cfg = config.DefaultMatchingConfig()
	cfg.Pattern.BandMin = 0.9
	cfg.Pattern.BandMax = 0.5
	_, err = NewPatternStrategy(&cfg)
	assert.Error(t, err)
}
