package api

import (
	"github.com/labstack/echo/v4"

	"FinFetch/internal/provider"
	"FinFetch/internal/usecase"
	xhttp "FinFetch/pkg/http"
)

// Fetch runs one routed fetch with arbitrary provider params.
func (h *Handler) Fetch(c echo.Context) error {
	req := &FetchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	category, err := provider.ParseCategory(req.Category)
	if err != nil {
		return xhttp.BadRequestError(err.Error())
	}

	resp, err := h.fetch.Fetch(c.Request().Context(), usecase.FetchParams{
		Category:   category,
		ProviderID: req.ProviderID,
		Params:     provider.Params(req.Params),
	})
	if err != nil {
		return err
	}
	return xhttp.SuccessResponse(c, resp)
}

// BulkFetch runs a batch of fetches with bounded concurrency.
func (h *Handler) BulkFetch(c echo.Context) error {
	req := &BulkFetchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	results, err := h.bulk.Run(c.Request().Context(), req.Items)
	if err != nil {
		return err
	}
	return xhttp.ListResponse(c, results, int64(len(results)))
}

// Providers lists the configured fleet.
func (h *Handler) Providers(c echo.Context) error {
	infos := h.fetch.Providers()
	return xhttp.ListResponse(c, infos, int64(len(infos)))
}

// ProvidersHealth probes every live provider.
func (h *Handler) ProvidersHealth(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.fetch.Health(c.Request().Context()))
}

// ServiceMetrics returns the in-process request stats snapshot.
func (h *Handler) ServiceMetrics(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.stats.Stats())
}

// ResetServiceMetrics zeroes the in-process request stats.
func (h *Handler) ResetServiceMetrics(c echo.Context) error {
	h.stats.Reset()
	return xhttp.NoContentResponse(c)
}
