package api

import "FinFetch/internal/usecase"

// HistoricalRequest queries historical bars for one symbol.
type HistoricalRequest struct {
	Symbol    string `query:"symbol" validate:"required"`
	StartDate string `query:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `query:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Interval  string `query:"interval" default:"1d" validate:"oneof=1m 5m 15m 1h 1d 1wk 1mo"`
	Provider  string `query:"provider"`
}

// QuoteRequest queries real-time quotes for one or more symbols.
type QuoteRequest struct {
	Symbols  string `query:"symbols" validate:"required"`
	Provider string `query:"provider"`
}

// InfoRequest queries company profiles.
type InfoRequest struct {
	Symbols  string `query:"symbols" validate:"required"`
	Provider string `query:"provider"`
}

// NewsRequest queries market or company news.
type NewsRequest struct {
	Query    string `query:"query"`
	Symbols  string `query:"symbols"`
	Limit    int    `query:"limit" default:"20" validate:"gte=1,lte=100"`
	Provider string `query:"provider"`
}

// FetchRequest is the untyped escape hatch: any category, any
// provider params.
type FetchRequest struct {
	Category   string                 `json:"category" validate:"required"`
	ProviderID string                 `json:"provider_id"`
	Params     map[string]interface{} `json:"params" validate:"required"`
}

// BulkFetchRequest carries a batch of fetch items.
type BulkFetchRequest struct {
	Items []usecase.BulkItem `json:"items" validate:"required,min=1,dive"`
}

// StreamRequest selects symbols for the live trade stream.
type StreamRequest struct {
	Symbols  string `query:"symbols" validate:"required"`
	Provider string `query:"provider"`
}
