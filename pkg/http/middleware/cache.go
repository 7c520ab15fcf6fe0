package middleware

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	appcache "FinFetch/pkg/cache"
)

// KeyFunc derives a cache key from the request. Returning "" skips
// caching for that request.
type KeyFunc func(c echo.Context) string

// PathAndQueryKey keys a response by its full request URI.
func PathAndQueryKey(c echo.Context) string {
	return c.Request().URL.RequestURI()
}

// ResponseCache serves stored responses for repeated GETs. Only 200
// responses are stored; expiry is handled by the backing cache.
func ResponseCache(store appcache.Service, ttl time.Duration, key KeyFunc) echo.MiddlewareFunc {
	if key == nil {
		key = PathAndQueryKey
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			k := key(c)
			if k == "" {
				return next(c)
			}
			k = "resp:" + c.Request().Method + ":" + k

			ctx := c.Request().Context()
			var body []byte
			if err := store.Get(ctx, k, &body); err == nil && len(body) > 0 {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
			}

			rec := &recordingWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = rec

			if err := next(c); err != nil {
				return err
			}
			if rec.status == http.StatusOK && rec.body.Len() > 0 {
				storeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				_ = store.Set(storeCtx, k, rec.body.Bytes(), ttl)
				cancel()
			}
			return nil
		}
	}
}

// recordingWriter tees the response body so a 200 can be stored after
// it has been sent to the client.
type recordingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *recordingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	if w.status == http.StatusOK {
		w.body.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.(http.Hijacker).Hijack()
}

func (w *recordingWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
