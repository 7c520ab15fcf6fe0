package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "FinFetch/pkg/logger"
)

// RequestLogging logs one line per request with method, path, status,
// and latency. Failures are logged at warn so they stand out in
// aggregated logs.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("path", req.URL.Path),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", status),
				applogger.Duration("duration_ms", time.Since(start)),
			}
			if err != nil || status >= 500 {
				if err != nil {
					fields = append(fields, applogger.Error(err))
				}
				l.Warn("http request failed", fields...)
			} else {
				l.Info("http request", fields...)
			}
			return err
		}
	}
}
