package metrics

import (
	"sync"
	"time"
)

// MethodStats aggregates per-method request outcomes.
type MethodStats struct {
	Count     int64         `json:"count"`
	Errors    int64         `json:"errors"`
	TotalTime time.Duration `json:"total_time_ms"`
	AvgTime   time.Duration `json:"avg_time_ms"`
}

// Snapshot is a point-in-time read of the service metrics.
type Snapshot struct {
	RequestCount  int64                  `json:"request_count"`
	ErrorCount    int64                  `json:"error_count"`
	ErrorRate     float64                `json:"error_rate"`
	AvgLatency    time.Duration          `json:"avg_latency_ms"`
	ErrorKinds    map[string]int64       `json:"error_kinds"`
	MethodStats   map[string]MethodStats `json:"method_stats"`
	LastUpdatedAt time.Time              `json:"last_updated"`
}

// Service accumulates request counters, latencies, and error-kind counts
// for the whole process. One instance is shared by the middleware stack;
// counters are best-effort accurate under concurrent writers.
type Service struct {
	mu           sync.Mutex
	requestCount int64
	errorCount   int64
	latencies    []time.Duration
	errorKinds   map[string]int64
	methods      map[string]*MethodStats
}

func NewService() *Service {
	return &Service{
		errorKinds: make(map[string]int64),
		methods:    make(map[string]*MethodStats),
	}
}

// Record stores the outcome of one completed request. errorKind is empty
// for successful requests.
func (s *Service) Record(method string, duration time.Duration, success bool, errorKind string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requestCount++
	s.latencies = append(s.latencies, duration)

	if !success {
		s.errorCount++
		if errorKind != "" {
			s.errorKinds[errorKind]++
		}
	}

	m, ok := s.methods[method]
	if !ok {
		m = &MethodStats{}
		s.methods[method] = m
	}
	m.Count++
	m.TotalTime += duration
	m.AvgTime = m.TotalTime / time.Duration(m.Count)
	if !success {
		m.Errors++
	}
}

// Stats returns a copy of the current metrics.
func (s *Service) Stats() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total time.Duration
	for _, d := range s.latencies {
		total += d
	}
	var avg time.Duration
	if len(s.latencies) > 0 {
		avg = total / time.Duration(len(s.latencies))
	}

	var rate float64
	if s.requestCount > 0 {
		rate = float64(s.errorCount) / float64(s.requestCount)
	}

	kinds := make(map[string]int64, len(s.errorKinds))
	for k, v := range s.errorKinds {
		kinds[k] = v
	}
	methods := make(map[string]MethodStats, len(s.methods))
	for k, v := range s.methods {
		methods[k] = *v
	}

	return Snapshot{
		RequestCount:  s.requestCount,
		ErrorCount:    s.errorCount,
		ErrorRate:     rate,
		AvgLatency:    avg,
		ErrorKinds:    kinds,
		MethodStats:   methods,
		LastUpdatedAt: time.Now().UTC(),
	}
}

// Reset clears all counters. Operator-triggered only.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requestCount = 0
	s.errorCount = 0
	s.latencies = s.latencies[:0]
	s.errorKinds = make(map[string]int64)
	s.methods = make(map[string]*MethodStats)
}
