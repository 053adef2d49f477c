package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"valuator-backend/lib/telemetry"
	"valuator-backend/services/valuation"

	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) http.Handler {
	t.Helper()
	telemetry.SetupForTesting(t, "valuation-server")
	return New(valuation.NewService(valuation.Options{})).Handler()
}

func TestStatusForKind(t *testing.T) {
	testCases := []struct {
		kind valuation.Kind
		want int
	}{
		{kind: valuation.KindInvalidInput, want: http.StatusBadRequest},
		{kind: valuation.KindAuth, want: http.StatusUnauthorized},
		{kind: valuation.KindBlocked, want: http.StatusForbidden},
		{kind: valuation.KindNoSuggestions, want: http.StatusNotFound},
		{kind: valuation.KindInsufficientData, want: http.StatusNotFound},
		{kind: valuation.KindDeadline, want: http.StatusInternalServerError},
		{kind: valuation.KindSessionStart, want: http.StatusInternalServerError},
		{kind: valuation.KindElementNotFound, want: http.StatusInternalServerError},
		{kind: valuation.KindResultsNotRendered, want: http.StatusInternalServerError},
		{kind: valuation.KindInternal, want: http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.want, StatusForKind(tc.kind), string(tc.kind))
	}
}

func TestEvaluateRejectsMalformedBody(t *testing.T) {
	handler := setup(t)

	req := httptest.NewRequest(http.MethodPost, "/api/evaluate", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.Equal(t, string(valuation.KindInvalidInput), body.Error.Kind)
}

func TestEvaluateRejectsEmptyReference(t *testing.T) {
	handler := setup(t)

	req := httptest.NewRequest(http.MethodPost, "/api/evaluate", strings.NewReader(`{"refNumber":"  "}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestEvaluateMethodNotAllowed(t *testing.T) {
	handler := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/api/evaluate", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	handler := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestHistoryWithoutStore(t *testing.T) {
	handler := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
}
