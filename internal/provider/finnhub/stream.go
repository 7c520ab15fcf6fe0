package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"FinFetch/internal/models"
	"FinFetch/internal/provider"
	"FinFetch/pkg/logger"
)

const (
	streamBuffer = 1024
	pingInterval = 20 * time.Second
)

type wsTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type wsMessage struct {
	Type string    `json:"type"`
	Data []wsTrade `json:"data"`
}

// Stream is a live trade feed over the Finnhub websocket. One stream
// serves one set of symbols; close it and open another to change the
// subscription.
type Stream struct {
	log    *logger.Logger
	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

// OpenStream dials the websocket and subscribes to the symbols.
func (p *Provider) OpenStream(ctx context.Context, symbols []string) (provider.TradeStream, error) {
	u := fmt.Sprintf("%s?token=%s", p.wsURL, p.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("finnhub stream connect: %w", err)
	}
	s := &Stream{log: p.log, conn: conn}
	for _, sym := range symbols {
		msg := map[string]string{"type": "subscribe", "symbol": sym}
		if err := conn.WriteJSON(msg); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("subscribe %s: %w", sym, err)
		}
	}
	p.log.Info("trade stream open", logger.Any("symbols", symbols))
	return s, nil
}

// Read delivers trades until the context ends or the connection drops.
// The trade channel is buffered; when a consumer falls behind, ticks
// are dropped rather than stalling the read loop.
func (s *Stream) Read(ctx context.Context) (<-chan *models.Trade, <-chan error) {
	trades := make(chan *models.Trade, streamBuffer)
	errs := make(chan error, 1)

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				if !s.closed {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
				s.mu.Unlock()
			}
		}
	}()

	go func() {
		defer close(trades)
		defer close(errs)
		for {
			if ctx.Err() != nil {
				return
			}
			_, b, err := s.conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					errs <- fmt.Errorf("stream read: %w", err)
				}
				return
			}
			var m wsMessage
			if err := json.Unmarshal(b, &m); err != nil || m.Type != "trade" {
				continue
			}
			for _, t := range m.Data {
				trade := &models.Trade{
					Symbol:    t.S,
					Price:     t.P,
					Volume:    t.V,
					Timestamp: time.UnixMilli(t.T).UTC(),
					Provider:  "finnhub",
				}
				select {
				case trades <- trade:
				default:
					s.log.Warn("trade dropped, consumer too slow",
						logger.String("symbol", t.S))
				}
			}
		}
	}()

	return trades, errs
}

// Close tears down the connection. Safe to call more than once.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return s.conn.Close()
}
