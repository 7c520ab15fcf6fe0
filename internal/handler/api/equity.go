package api

import (
	"strings"

	"github.com/labstack/echo/v4"

	"FinFetch/internal/provider"
	"FinFetch/internal/usecase"
	xhttp "FinFetch/pkg/http"
)

// Historical serves OHLCV bars for one symbol.
func (h *Handler) Historical(c echo.Context) error {
	req := &HistoricalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	resp, err := h.fetch.Fetch(c.Request().Context(), usecase.FetchParams{
		Category:   provider.CategoryEquity,
		ProviderID: req.Provider,
		Params: provider.Params{
			"data_type":  "historical",
			"symbol":     strings.ToUpper(req.Symbol),
			"start_date": req.StartDate,
			"end_date":   req.EndDate,
			"interval":   req.Interval,
		},
	})
	if err != nil {
		return err
	}
	return xhttp.SuccessResponse(c, resp)
}

// Quote serves real-time quotes for a comma-separated symbol list.
func (h *Handler) Quote(c echo.Context) error {
	req := &QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	symbols := splitSymbols(req.Symbols)
	ctx := c.Request().Context()

	out := make([]*provider.Response, 0, len(symbols))
	for _, s := range symbols {
		resp, err := h.fetch.Fetch(ctx, usecase.FetchParams{
			Category:   provider.CategoryEquity,
			ProviderID: req.Provider,
			Params:     provider.Params{"data_type": "quote", "symbol": s},
		})
		if err != nil {
			return err
		}
		out = append(out, resp)
	}
	return xhttp.ListResponse(c, out, int64(len(out)))
}

// CompanyInfo serves company profiles for a symbol list.
func (h *Handler) CompanyInfo(c echo.Context) error {
	req := &InfoRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	symbols := splitSymbols(req.Symbols)
	ctx := c.Request().Context()

	out := make([]*provider.Response, 0, len(symbols))
	for _, s := range symbols {
		resp, err := h.fetch.Fetch(ctx, usecase.FetchParams{
			Category:   provider.CategoryEquity,
			ProviderID: req.Provider,
			Params:     provider.Params{"data_type": "info", "symbol": s},
		})
		if err != nil {
			return err
		}
		out = append(out, resp)
	}
	return xhttp.ListResponse(c, out, int64(len(out)))
}

// News serves market news by query or company news by symbol.
func (h *Handler) News(c echo.Context) error {
	req := &NewsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.Query == "" && req.Symbols == "" {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code:    "ERR_REQUIRED",
			Message: "either query or symbols is required",
		}})
	}

	params := provider.Params{"data_type": "news", "limit": req.Limit}
	if req.Symbols != "" {
		syms := splitSymbols(req.Symbols)
		if len(syms) == 0 {
			return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
				Code:    "ERR_REQUIRED",
				Message: "either query or symbols is required",
			}})
		}
		params["symbol"] = syms[0]
	} else {
		params["query"] = req.Query
	}

	resp, err := h.fetch.Fetch(c.Request().Context(), usecase.FetchParams{
		Category:   provider.CategoryNews,
		ProviderID: req.Provider,
		Params:     params,
	})
	if err != nil {
		return err
	}
	return xhttp.SuccessResponse(c, resp)
}

func splitSymbols(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(strings.ToUpper(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
