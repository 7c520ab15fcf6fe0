package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"FinFetch/internal/provider"
	"FinFetch/internal/usecase"
	applogger "FinFetch/pkg/logger"
	appmetrics "FinFetch/pkg/metrics"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)
	return l
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	log := testLogger(t)
	m := provider.NewManager(log, provider.NewRegistry(), provider.Deps{Logger: log})
	fetch := usecase.NewFetchUseCase(m, log)
	bulk := usecase.NewBulkUseCase(fetch, log, 0, 0)
	return NewHandler(log, fetch, bulk, m, appmetrics.NewService())
}

func doGet(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestNewsRejectsBlankSymbolList(t *testing.T) {
	h := newTestHandler(t)

	// commas only: passes the non-empty check but splits to nothing
	rec := doGet(t, h, "/api/v1/news?symbols=,")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Data []struct {
			Code string `json:"code"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "ERR_REQUIRED", body.Data[0].Code)
}

func TestNewsRequiresQueryOrSymbols(t *testing.T) {
	h := newTestHandler(t)
	rec := doGet(t, h, "/api/v1/news")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthzDegradedWithoutProviders(t *testing.T) {
	h := newTestHandler(t)
	rec := doGet(t, h, "/healthz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "degraded")
}
