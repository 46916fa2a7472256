package dashboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/Faitltd/houzz-to-zoho/internal/store"
)

func newTestServer(t *testing.T, trigger func()) (*Server, *store.Store) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, store.ApplySchema(db))
	t.Cleanup(func() { db.Close() })

	st := store.NewStore(db)
	return NewServer(Config{Host: "localhost", Port: 0, MetricsEnabled: true}, st, trigger, nil), st
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestStatusAndSyncs(t *testing.T) {
	s, st := newTestServer(t, nil)
	ctx := context.Background()

	require.NoError(t, st.MarkProcessed(ctx, store.ProcessedFile{FileID: "f1", FileName: "a.pdf"}))
	_, err := st.RecordRun(ctx, store.Run{
		StartedAt:      time.Now(),
		FinishedAt:     time.Now(),
		Status:         store.StatusSuccess,
		FileName:       "a.pdf",
		EstimateNumber: "EST-000042",
		LineItems:      11,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats store.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.ProcessedFiles)
	assert.Equal(t, 1, stats.SuccessfulRuns)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/syncs?limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Runs []runResponse `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Runs, 1)
	assert.Equal(t, "EST-000042", body.Runs[0].EstimateNumber)
	assert.Equal(t, 11, body.Runs[0].LineItems)
}

func TestEstimates(t *testing.T) {
	s, st := newTestServer(t, nil)
	require.NoError(t, st.MarkProcessed(context.Background(), store.ProcessedFile{
		FileID:         "f1",
		FileName:       "estimate.pdf",
		EstimateID:     "est-1",
		EstimateNumber: "EST-000042",
	}))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/estimates", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Estimates []estimateResponse `json:"estimates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Estimates, 1)
	assert.Equal(t, "EST-000042", body.Estimates[0].EstimateNumber)
}

func TestManualTrigger(t *testing.T) {
	var fired bool
	s, _ := newTestServer(t, func() { fired = true })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, fired)
}

func TestManualTriggerDisabled(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
