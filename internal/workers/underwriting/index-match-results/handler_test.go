// internal/workers/underwriting/index-match-results/handler_test.go
package indexmatchresults

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	commonerrors "underwriting-workers/internal/common/errors"
	"underwriting-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
}

// setupMockES starts an HTTP server impersonating Elasticsearch and returns a
// client pointed at it. The product header is required by the v8 client.
func setupMockES(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return es
}

func matchRows() *sqlmock.Rows {
	matchedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "application_id", "run_id", "lender_id", "display_name",
		"program_id", "name", "status", "fit_score", "summary",
		"recommendation", "criteria_met", "criteria_failed", "criteria_total", "created_at"}).
		AddRow(int64(500), int64(42), "run-abc-123", int64(1), "Summit Capital",
			int64(10), "Core Program", "ELIGIBLE", 100.0, "All 2 criteria passed",
			"Strong candidate", 2, 0, 2, matchedAt).
		AddRow(int64(501), int64(42), "run-abc-123", int64(2), "Ridge Funding",
			int64(20), "Flex Program", "INELIGIBLE", 40.0, "1 of 3 criteria failed",
			"Declined on required criteria", 2, 1, 3, matchedAt)
}

func TestHandler_Execute_IndexesRunResults(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT mr.id, mr.application_id").
		WithArgs("run-abc-123").
		WillReturnRows(matchRows())

	var bulkBody string
	es := setupMockES(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bulkBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"took":5,"errors":false,"items":[{"index":{"status":201}},{"index":{"status":201}}]}`))
	})

	handler := NewHandler(LoadConfig(), db, es, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{ApplicationID: 42, RunID: "run-abc-123"})

	require.NoError(t, err)
	require.NotNil(t, output)
	assert.Equal(t, 2, output.Indexed)
	assert.Equal(t, "match-results", output.IndexName)

	// Two action lines and two document lines, keyed by match result ID.
	assert.Contains(t, bulkBody, `"_id":"500"`)
	assert.Contains(t, bulkBody, `"_id":"501"`)
	assert.Contains(t, bulkBody, `"lenderName":"Summit Capital"`)
	assert.Contains(t, bulkBody, `"status":"INELIGIBLE"`)
	assert.Equal(t, 4, strings.Count(strings.TrimRight(bulkBody, "\n"), "\n")+1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_EmptyRun(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT mr.id, mr.application_id").
		WithArgs("run-empty").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "application_id", "run_id", "lender_id", "display_name",
			"program_id", "name", "status", "fit_score", "summary",
			"recommendation", "criteria_met", "criteria_failed", "criteria_total", "created_at"}))

	es := setupMockES(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no bulk request expected for an empty run")
	})

	handler := NewHandler(LoadConfig(), db, es, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{ApplicationID: 42, RunID: "run-empty"})

	require.NoError(t, err)
	assert.Equal(t, 0, output.Indexed)
}

func TestHandler_Execute_BulkItemFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT mr.id, mr.application_id").
		WillReturnRows(matchRows())

	es := setupMockES(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"took":5,"errors":true,"items":[{"index":{"status":201}},{"index":{"status":400,"error":{"type":"mapper_parsing_exception","reason":"failed to parse field"}}}]}`))
	})

	handler := NewHandler(LoadConfig(), db, es, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{ApplicationID: 42, RunID: "run-abc-123"})

	require.Error(t, err)
	assert.Nil(t, output)
	stdErr, ok := err.(*commonerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeIndexingFailed, stdErr.Code)
	assert.Contains(t, stdErr.Details, "mapper_parsing_exception")
	assert.True(t, stdErr.Retryable)
}

func TestHandler_Execute_BulkRequestRejected(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT mr.id, mr.application_id").
		WillReturnRows(matchRows())

	es := setupMockES(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"unavailable"}`))
	})

	handler := NewHandler(LoadConfig(), db, es, logger.NewTestLogger(t))
	_, err := handler.Execute(context.Background(), &Input{ApplicationID: 42, RunID: "run-abc-123"})

	require.Error(t, err)
	stdErr, ok := err.(*commonerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeIndexingFailed, stdErr.Code)
}

func TestHandler_Execute_QueryFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT mr.id, mr.application_id").
		WillReturnError(sql.ErrConnDone)

	es := setupMockES(t, func(w http.ResponseWriter, r *http.Request) {})

	handler := NewHandler(LoadConfig(), db, es, logger.NewTestLogger(t))
	_, err := handler.Execute(context.Background(), &Input{ApplicationID: 42, RunID: "run-abc-123"})

	require.Error(t, err)
	stdErr, ok := err.(*commonerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeQueryExecutionFailed, stdErr.Code)
}

func TestHandler_Execute_MissingRunID(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()

	es := setupMockES(t, func(w http.ResponseWriter, r *http.Request) {})

	handler := NewHandler(LoadConfig(), db, es, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{ApplicationID: 42})

	require.Error(t, err)
	assert.Nil(t, output)
}
