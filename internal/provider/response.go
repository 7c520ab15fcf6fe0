package provider

import (
	"time"
)

// Response is the uniform envelope every successful fetch returns,
// regardless of which vendor produced the data.
type Response struct {
	RequestID string    `json:"request_id"`
	Provider  string    `json:"provider"`
	Category  Category  `json:"category,omitempty"`
	Data      any       `json:"data"`
	Quality   Quality   `json:"quality"`
	Score     float64   `json:"quality_score"`
	Cached    bool      `json:"cached"`
	Attempts  int       `json:"attempts"`
	Latency   int64     `json:"latency_ms"`
	FetchedAt time.Time `json:"fetched_at"`
}
