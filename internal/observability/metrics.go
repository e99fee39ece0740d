package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	transitionCount map[string]int64
	requestNanos    map[string]int64
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Requests       map[string]int64 `json:"requests"`
	Errors         map[string]int64 `json:"errors"`
	Transitions    map[string]int64 `json:"transitions"`
	RequestLatency map[string]int64 `json:"request_latency_ms_total"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		errorCount:      make(map[string]int64),
		transitionCount: make(map[string]int64),
		requestNanos:    make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestNanos[key] += duration.Nanoseconds()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordTransition counts workflow outcomes keyed by action and outcome.
func (m *Metrics) RecordTransition(action, outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionCount[action+"|"+outcome]++
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	latency := make(map[string]int64, len(m.requestNanos))
	for k, v := range m.requestNanos {
		latency[k] = v / int64(time.Millisecond)
	}
	return Snapshot{
		Requests:       copyCounts(m.requestCount),
		Errors:         copyCounts(m.errorCount),
		Transitions:    copyCounts(m.transitionCount),
		RequestLatency: latency,
	}
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
