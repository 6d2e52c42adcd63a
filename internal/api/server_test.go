package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caura/recon-engine/internal/domain/report"
	"github.com/caura/recon-engine/internal/infrastructure/config"
	"github.com/caura/recon-engine/internal/infrastructure/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Matching: config.DefaultMatchingConfig(),
		API:      config.APIConfig{Port: 0},
	}

	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(cfg, store, logger)
}

func doRequest(s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestServer_ListRuns_Empty(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
}

func TestServer_GetRun_NotFound(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/runs/bank_missing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestServer_Reconcile_EndToEnd(t *testing.T) {
	s := newTestServer(t)

	body := []byte(`{
		"platform": "bank",
		"source_identifier": "api-batch-1",
		"clients": [
			{
				"client_id": "CL00001",
				"identifiers": {"client_id": "CL00001", "acn": "ACN12345678"},
				"display_name": "John Smith",
				"address": "12 Smith St Melton"
			}
		],
		"transactions": [
			{"transaction_id": "TX1", "date": "2026-08-01", "amount": 150.25, "description": "Payment ACN12345678"},
			{"transaction_id": "TX2", "date": "2026-08-02", "amount": 10, "description": "unrelated deposit"}
		]
	}`)

	w := doRequest(s, http.MethodPost, "/api/reconcile", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rep report.ReconciliationReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))

	assert.Equal(t, "bank", rep.Platform)
	assert.Equal(t, "api-batch-1", rep.SourceIdentifier)
	assert.Equal(t, 2, rep.TotalTransactions)
	assert.Equal(t, 1, rep.MatchedTransactions)
	require.Len(t, rep.MatchResults, 2)
	assert.Equal(t, "CL00001", rep.MatchResults[0].ClientID)
	assert.True(t, rep.MatchResults[0].IsMatched)
	assert.False(t, rep.MatchResults[1].IsMatched)

	// The run is persisted and visible through the read endpoints.
	w = doRequest(s, http.MethodGet, "/api/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count int `json:"count"`
		Runs  []struct {
			RunID string `json:"run_id"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, rep.RunID, list.Runs[0].RunID)

	w = doRequest(s, http.MethodGet, "/api/runs/"+rep.RunID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"transaction_id":"TX1"`)

	w = doRequest(s, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats storage.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 2, stats.TotalTransactions)
}

func TestServer_Reconcile_BadRequest(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodPost, "/api/reconcile", []byte(`{"platform": "bank"}`))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Reconcile_InvalidRegistry(t *testing.T) {
	s := newTestServer(t)

	// Duplicate client IDs make the registry snapshot unusable.
	body := []byte(`{
		"platform": "bank",
		"clients": [
			{"client_id": "CL00001", "identifiers": {"client_id": "CL00001"}},
			{"client_id": "CL00001", "identifiers": {"client_id": "CL00001"}}
		],
		"transactions": [
			{"transaction_id": "TX1", "date": "2026-08-01", "description": "x"}
		]
	}`)

	w := doRequest(s, http.MethodPost, "/api/reconcile", body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
}
