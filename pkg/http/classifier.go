package http

import (
	"errors"

	"github.com/labstack/echo/v4"

	"FinFetch/pkg/http/middleware"
	applogger "FinFetch/pkg/logger"
)

// Classifier maps a domain error to an application error with the
// right HTTP status. Returning nil means "no opinion" and the error
// falls through as a 500.
type Classifier func(err error) *AppError

// ErrorClassifier converts handler errors into uniform JSON error
// envelopes. Already-shaped AppErrors pass through; echo's own
// HTTPErrors keep their status; everything else goes through the
// injected classifier. Every failure branch is logged.
func ErrorClassifier(l *applogger.Logger, classify Classifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}
			if c.Response().Committed {
				return nil
			}

			var appErr *AppError
			switch {
			case errors.As(err, &appErr):
			default:
				var he *echo.HTTPError
				if errors.As(err, &he) {
					appErr = NewAppError("ERR_HTTP", "", he.Error(), he.Code)
				} else if classify != nil {
					appErr = classify(err)
				}
			}
			if appErr == nil {
				appErr = InternalError("internal error").WithError(err)
			}

			kind := appErr.Kind
			if kind == "" {
				kind = appErr.Code
			}
			c.Set(middleware.ErrorKindContextKey, kind)

			l.Warn("request error",
				applogger.String("path", c.Request().URL.Path),
				applogger.String("code", appErr.Code),
				applogger.Int("status", appErr.Status),
				applogger.Error(err))

			return AppErrorResponse(c, appErr)
		}
	}
}
