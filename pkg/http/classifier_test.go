package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"FinFetch/pkg/http/middleware"
	applogger "FinFetch/pkg/logger"
	appmetrics "FinFetch/pkg/metrics"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)
	return l
}

var errUpstreamDown = errors.New("upstream down")

func classifyUpstream(err error) *AppError {
	if errors.Is(err, errUpstreamDown) {
		return ServiceUnavailableError(err.Error()).WithKind("connectivity")
	}
	return nil
}

func TestErrorClassifierMapsDomainErrors(t *testing.T) {
	e := echo.New()
	e.Use(ErrorClassifier(testLogger(t), classifyUpstream))
	e.GET("/boom", func(c echo.Context) error { return errUpstreamDown })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "ERR_UNAVAILABLE")
	require.Contains(t, rec.Body.String(), "upstream down")
}

func TestErrorClassifierPassesAppErrorsThrough(t *testing.T) {
	e := echo.New()
	e.Use(ErrorClassifier(testLogger(t), classifyUpstream))
	e.GET("/missing", func(c echo.Context) error { return NotFoundError("no such symbol") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "ERR_NOT_FOUND")
}

func TestErrorClassifierUnknownErrorsBecome500(t *testing.T) {
	e := echo.New()
	e.Use(ErrorClassifier(testLogger(t), classifyUpstream))
	e.GET("/odd", func(c echo.Context) error { return errors.New("odd failure") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/odd", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "ERR_INTERNAL")
}

func TestErrorClassifierFeedsKindToServiceStats(t *testing.T) {
	svc := appmetrics.NewService()

	e := echo.New()
	e.Use(middleware.Metrics(nil, svc, 0))
	e.Use(ErrorClassifier(testLogger(t), classifyUpstream))
	e.GET("/boom", func(c echo.Context) error { return errUpstreamDown })
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))

	snap := svc.Stats()
	require.Equal(t, int64(2), snap.RequestCount)
	require.Equal(t, int64(1), snap.ErrorCount)
	require.Equal(t, int64(1), snap.ErrorKinds["connectivity"])
	require.NotContains(t, snap.ErrorKinds, "5xx")
}
