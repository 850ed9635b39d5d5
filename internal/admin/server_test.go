package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct{ stats model.TrackerStats }

func (f *fakeStats) Stats() model.TrackerStats { return f.stats }

type fakeHealth struct{ snapshot map[string]any }

func (f *fakeHealth) Snapshot() any { return f.snapshot }

func TestServer_Status(t *testing.T) {
	t.Parallel()

	provider := &fakeStats{stats: model.TrackerStats{
		PendingTransactions:    2,
		TrackedBlocks:          5,
		UnfinalizedSettlements: 3,
		LastFinalized:          "0xabc",
	}}
	srv := NewServer(provider, slog.Default())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/v1/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got model.TrackerStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, provider.stats, got)
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	srv := NewServer(&fakeStats{}, slog.Default(),
		WithHealthProvider(&fakeHealth{snapshot: map[string]any{"status": "HEALTHY"}}))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/v1/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "HEALTHY", got["status"])
}

func TestServer_HealthNotEnabled(t *testing.T) {
	t.Parallel()

	srv := NewServer(&fakeStats{}, slog.Default())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/v1/health", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Liveness(t *testing.T) {
	t.Parallel()

	srv := NewServer(&fakeStats{}, slog.Default())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	srv := NewServer(&fakeStats{}, slog.Default())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/v1/status", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
