// Package api exposes the HTTP surface: routed fetches, typed equity
// and news endpoints, fleet introspection, service stats, and the
// real-time trade stream.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"FinFetch/internal/provider"
	"FinFetch/internal/usecase"
	applogger "FinFetch/pkg/logger"
	appmetrics "FinFetch/pkg/metrics"
)

// Handler wires the use cases into echo routes.
type Handler struct {
	log     *applogger.Logger
	fetch   *usecase.FetchUseCase
	bulk    *usecase.BulkUseCase
	manager *provider.Manager
	stats   *appmetrics.Service
}

func NewHandler(
	log *applogger.Logger,
	fetch *usecase.FetchUseCase,
	bulk *usecase.BulkUseCase,
	manager *provider.Manager,
	stats *appmetrics.Service,
) *Handler {
	return &Handler{
		log:     log.Named("api"),
		fetch:   fetch,
		bulk:    bulk,
		manager: manager,
		stats:   stats,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)

	g := e.Group("/api/v1")
	g.POST("/fetch", h.Fetch)
	g.POST("/fetch/bulk", h.BulkFetch)

	g.GET("/equity/historical", h.Historical)
	g.GET("/equity/quote", h.Quote)
	g.GET("/equity/info", h.CompanyInfo)
	g.GET("/equity/stream", h.Stream)
	g.GET("/news", h.News)

	g.GET("/providers", h.Providers)
	g.GET("/providers/health", h.ProvidersHealth)

	g.GET("/service/metrics", h.ServiceMetrics)
	g.POST("/service/metrics/reset", h.ResetServiceMetrics)
}

// Healthz reports process liveness and fleet counts. The process is
// healthy while at least one provider is active.
func (h *Handler) Healthz(c echo.Context) error {
	status := h.manager.Status()
	code, state := http.StatusOK, "ok"
	if status.Initialized == 0 {
		code, state = http.StatusServiceUnavailable, "degraded"
	}
	return c.JSON(code, map[string]interface{}{
		"status":    state,
		"providers": status.Initialized,
	})
}
