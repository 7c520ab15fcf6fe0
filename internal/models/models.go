package models

import "time"

// PricePoint is one OHLCV bar of an equity time series.
type PricePoint struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	AdjClose  float64   `json:"adj_close,omitempty"`
	Volume    float64   `json:"volume"`
	Currency  string    `json:"currency,omitempty"`
}

// PriceSeries is the normalized shape of a historical bars response.
type PriceSeries struct {
	Symbol   string       `json:"symbol"`
	Interval string       `json:"interval"`
	Currency string       `json:"currency,omitempty"`
	Points   []PricePoint `json:"points"`
}

// Quote is a real-time snapshot for one symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	PrevClose     float64   `json:"prev_close"`
	Volume        float64   `json:"volume,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	AsOf          time.Time `json:"as_of"`
}

// CompanyProfile is basic descriptive data about a listed company.
type CompanyProfile struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Exchange  string  `json:"exchange,omitempty"`
	Sector    string  `json:"sector,omitempty"`
	Industry  string  `json:"industry,omitempty"`
	Country   string  `json:"country,omitempty"`
	Currency  string  `json:"currency,omitempty"`
	MarketCap float64 `json:"market_cap,omitempty"`
	Website   string  `json:"website,omitempty"`
}

// NewsArticle is one normalized news item.
type NewsArticle struct {
	ID          string    `json:"id,omitempty"`
	Headline    string    `json:"headline"`
	Summary     string    `json:"summary,omitempty"`
	Source      string    `json:"source,omitempty"`
	URL         string    `json:"url,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Symbols     []string  `json:"symbols,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Trade is one tick from a real-time stream.
type Trade struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
	Provider  string    `json:"provider,omitempty"`
}

// FetchEvent is the record published after a fetch completes, for
// downstream consumers tracking provider behaviour.
type FetchEvent struct {
	RequestID string    `json:"request_id"`
	Provider  string    `json:"provider"`
	Category  string    `json:"category"`
	Success   bool      `json:"success"`
	Cached    bool      `json:"cached"`
	Attempts  int       `json:"attempts"`
	Quality   float64   `json:"quality,omitempty"`
	ErrorKind string    `json:"error_kind,omitempty"`
	LatencyMS int64     `json:"latency_ms"`
	At        time.Time `json:"at"`
}
