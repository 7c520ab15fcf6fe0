package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"FinFetch/internal/provider"
	xhttp "FinFetch/pkg/http"
	applogger "FinFetch/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Stream upgrades the connection and relays live trades for the
// requested symbols until the client disconnects.
func (h *Handler) Stream(c echo.Context) error {
	req := &StreamRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbols := splitSymbols(req.Symbols)

	streamer, err := h.findStreamer(req.Provider)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	feed, err := streamer.OpenStream(ctx, symbols)
	if err != nil {
		return err
	}
	defer feed.Close()

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	// Drain client frames so close handshakes are noticed.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	trades, errs := feed.Read(ctx)
	for {
		select {
		case <-clientGone:
			return nil
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if ok && err != nil {
				h.log.Warn("trade stream error", applogger.Error(err))
			}
			return nil
		case trade, ok := <-trades:
			if !ok {
				return nil
			}
			if err := ws.WriteJSON(trade); err != nil {
				return nil
			}
		}
	}
}

// findStreamer picks a streaming-capable equity provider, preferring
// the pinned one when given.
func (h *Handler) findStreamer(pinned string) (provider.Streamer, error) {
	if pinned != "" {
		p := h.manager.GetProvider(pinned)
		if p == nil {
			return nil, provider.NewError(provider.KindNotFound, "provider '%s' is not available", pinned)
		}
		s, ok := p.(provider.Streamer)
		if !ok {
			return nil, provider.NewError(provider.KindValidation, "provider '%s' does not support streaming", pinned)
		}
		return s, nil
	}
	for _, p := range h.manager.GetProvidersByCategory(provider.CategoryEquity) {
		if s, ok := p.(provider.Streamer); ok {
			return s, nil
		}
	}
	return nil, provider.NewError(provider.KindNotFound, "no streaming provider available")
}
