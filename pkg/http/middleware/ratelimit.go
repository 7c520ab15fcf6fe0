package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig tunes the inbound request limiter.
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
}

// RateLimiter caps requests per client per fixed window. Counters are
// keyed by (client ip, window bucket), so a fresh window always starts
// from zero and stale buckets can be dropped wholesale.
type RateLimiter struct {
	cfg    RateLimitConfig
	mu     sync.Mutex
	counts map[string]map[int64]int
	now    func() time.Time
}

// NewRateLimiter builds a limiter with the given config. Zero values
// fall back to 120 requests per minute.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 120
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &RateLimiter{
		cfg:    cfg,
		counts: make(map[string]map[int64]int),
		now:    time.Now,
	}
}

// Allow records one request for the client and reports whether it is
// within the current window's budget.
func (rl *RateLimiter) Allow(client string) bool {
	bucket := rl.now().UnixNano() / int64(rl.cfg.Window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// drop expired buckets for every client, and with them the entries
	// of clients that went quiet, so the map stays bounded
	for cl, windows := range rl.counts {
		for b := range windows {
			if b < bucket {
				delete(windows, b)
			}
		}
		if len(windows) == 0 {
			delete(rl.counts, cl)
		}
	}

	windows, ok := rl.counts[client]
	if !ok {
		windows = make(map[int64]int)
		rl.counts[client] = windows
	}
	if windows[bucket] >= rl.cfg.MaxRequests {
		return false
	}
	windows[bucket]++
	return true
}

// Middleware returns the echo middleware. Rejected requests get 429
// without touching the rest of the stack.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": "Too Many Requests",
				})
			}
			return next(c)
		}
	}
}
