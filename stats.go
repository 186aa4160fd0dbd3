package httpfactory

import (
	"sync"
	"time"
)

// requestLogCapacity bounds the in-memory request log; the oldest entry is
// evicted once the ring is full.
const requestLogCapacity = 100

// RequestLogEntry records one request attempt for the Stats snapshot.
// Status is 0 when no response was received.
type RequestLogEntry struct {
	Timestamp time.Time     `json:"timestamp"`
	Method    string        `json:"method"`
	URL       string        `json:"url"`
	Status    int           `json:"status"`
	Duration  time.Duration `json:"duration"`
}

// requestLog is a fixed-capacity ring of recent request attempts.
type requestLog struct {
	mu      sync.Mutex
	entries [requestLogCapacity]RequestLogEntry
	start   int
	count   int
}

func (l *requestLog) add(e RequestLogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count < len(l.entries) {
		l.entries[(l.start+l.count)%len(l.entries)] = e
		l.count++
		return
	}
	l.entries[l.start] = e
	l.start = (l.start + 1) % len(l.entries)
}

// recent returns up to n of the newest entries, oldest first.
func (l *requestLog) recent(n int) []RequestLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n > l.count {
		n = l.count
	}
	out := make([]RequestLogEntry, n)
	for i := 0; i < n; i++ {
		out[i] = l.entries[(l.start+l.count-n+i)%len(l.entries)]
	}
	return out
}

// countSince reports how many logged attempts happened after cutoff.
func (l *requestLog) countSince(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for i := 0; i < l.count; i++ {
		if l.entries[(l.start+i)%len(l.entries)].Timestamp.After(cutoff) {
			n++
		}
	}
	return n
}

func (l *requestLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Stats is a point-in-time snapshot of client activity. RequestCount and
// ErrorCount track logical calls, not retry attempts; RequestsPerMinute is
// derived from attempts logged in the trailing 60 seconds.
type Stats struct {
	RequestCount      int64             `json:"request_count"`
	ErrorCount        int64             `json:"error_count"`
	ErrorRate         float64           `json:"error_rate"`
	RequestsPerMinute int               `json:"requests_per_minute"`
	CacheSize         int               `json:"cache_size"`
	CircuitState      string            `json:"circuit_breaker_state"`
	RecentRequests    []RequestLogEntry `json:"recent_requests"`
}

// HealthStatus reports the outcome of a HealthCheck probe.
type HealthStatus struct {
	Healthy      bool          `json:"healthy"`
	Status       string        `json:"status"`
	Latency      time.Duration `json:"latency"`
	Error        string        `json:"error,omitempty"`
	CircuitState string        `json:"circuit_breaker_state"`
	CheckedAt    time.Time     `json:"checked_at"`
}
