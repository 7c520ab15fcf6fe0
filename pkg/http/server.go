package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"FinFetch/pkg/cache"
	"FinFetch/pkg/http/middleware"
	applogger "FinFetch/pkg/logger"
	appmetrics "FinFetch/pkg/metrics"
)

// ServerOption configures Server.
type ServerOption func(*ServerConfig)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORS            bool
	MetricsPath     string

	RateLimit     middleware.RateLimitConfig
	CacheStore    cache.Service
	CacheTTL      time.Duration
	SlowThreshold time.Duration
	Stats         *appmetrics.Service
	Classifier    Classifier
}

// Server wraps the echo HTTP server with the standard middleware
// stack: recovery, inbound rate limiting, request logging, metrics,
// and error classification, in that order.
type Server struct {
	echo   *echo.Echo
	log    *applogger.Logger
	config *ServerConfig
}

// NewServer creates the HTTP server and registers routes.
func NewServer(l *applogger.Logger, handler Handler, opts ...ServerOption) *Server {
	cfg := &ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CORS:            true,
		MetricsPath:     "/metrics",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Use(middleware.Recover(l))
	e.Use(middleware.NewRateLimiter(cfg.RateLimit).Middleware())
	e.Use(middleware.RequestLogging(l))
	e.Use(middleware.Metrics(l, cfg.Stats, cfg.SlowThreshold))
	e.Use(ErrorClassifier(l, cfg.Classifier))

	if cfg.CORS {
		e.Use(middleware.CORS(middleware.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{
				http.MethodGet,
				http.MethodPost,
				http.MethodPut,
				http.MethodPatch,
				http.MethodDelete,
				http.MethodOptions,
			},
			AllowHeaders: []string{
				echo.HeaderOrigin,
				echo.HeaderContentType,
				echo.HeaderAccept,
				echo.HeaderAuthorization,
			},
		}))
	}

	if cfg.CacheStore != nil && cfg.CacheTTL > 0 {
		e.Use(middleware.ResponseCache(cfg.CacheStore, cfg.CacheTTL, nil))
	}

	if handler != nil {
		handler.RegisterRoutes(e)
	}

	e.GET(cfg.MetricsPath, echo.WrapHandler(promhttp.Handler()))

	return &Server{
		echo:   e,
		log:    l,
		config: cfg,
	}
}

// Start starts the HTTP server without blocking.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	go func() {
		s.log.Info("http server listening", applogger.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server error", applogger.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// WithHost sets server host.
func WithHost(host string) ServerOption {
	return func(c *ServerConfig) {
		c.Host = host
	}
}

// WithPort sets server port.
func WithPort(port int) ServerOption {
	return func(c *ServerConfig) {
		c.Port = port
	}
}

// WithTimeouts sets read/write timeouts.
func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(c *ServerConfig) {
		c.ReadTimeout = read
		c.WriteTimeout = write
		c.ShutdownTimeout = shutdown
	}
}

// WithCORS enables/disables CORS.
func WithCORS(enabled bool) ServerOption {
	return func(c *ServerConfig) {
		c.CORS = enabled
	}
}

// WithRateLimit sets the inbound request limit.
func WithRateLimit(cfg middleware.RateLimitConfig) ServerOption {
	return func(c *ServerConfig) {
		c.RateLimit = cfg
	}
}

// WithResponseCache enables the response cache middleware.
func WithResponseCache(store cache.Service, ttl time.Duration) ServerOption {
	return func(c *ServerConfig) {
		c.CacheStore = store
		c.CacheTTL = ttl
	}
}

// WithStats attaches the in-process request stats collector.
func WithStats(svc *appmetrics.Service, slowThreshold time.Duration) ServerOption {
	return func(c *ServerConfig) {
		c.Stats = svc
		c.SlowThreshold = slowThreshold
	}
}

// WithClassifier sets the domain error classifier.
func WithClassifier(fn Classifier) ServerOption {
	return func(c *ServerConfig) {
		c.Classifier = fn
	}
}
