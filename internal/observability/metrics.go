package observability

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// Metrics provides in-process request and error counters.
type Metrics struct {
	mu           sync.Mutex
	started      time.Time
	requestCount map[string]int64
	requestTime  map[string]time.Duration
	errorCount   map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		started:      time.Now(),
		requestCount: make(map[string]int64),
		requestTime:  make(map[string]time.Duration),
		errorCount:   make(map[string]int64),
	}
}

// RecordRequest counts a finished request and accumulates its latency.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, strconv.Itoa(status))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestTime[key] += duration
}

// RecordError counts an error response by its error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := pathKey(path, method, code)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Counter is one row of a metrics snapshot.
type Counter struct {
	Path      string  `json:"path"`
	Method    string  `json:"method"`
	Label     string  `json:"label"`
	Count     int64   `json:"count"`
	AvgMillis float64 `json:"avg_ms,omitempty"`
}

// Snapshot is the JSON document served at /metrics.
type Snapshot struct {
	UptimeSeconds int64     `json:"uptime_seconds"`
	Requests      []Counter `json:"requests"`
	Errors        []Counter `json:"errors"`
}

// Snapshot copies the counters, sorted by key.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{Requests: []Counter{}, Errors: []Counter{}}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		UptimeSeconds: int64(time.Since(m.started).Seconds()),
		Requests:      make([]Counter, 0, len(m.requestCount)),
		Errors:        make([]Counter, 0, len(m.errorCount)),
	}
	for key, count := range m.requestCount {
		c := counterFromKey(key, count)
		if count > 0 {
			c.AvgMillis = float64(m.requestTime[key].Microseconds()) / 1000 / float64(count)
		}
		snap.Requests = append(snap.Requests, c)
	}
	for key, count := range m.errorCount {
		snap.Errors = append(snap.Errors, counterFromKey(key, count))
	}
	sortCounters(snap.Requests)
	sortCounters(snap.Errors)
	return snap
}

const keySep = "|"

func pathKey(path, method, label string) string {
	return path + keySep + method + keySep + label
}

func counterFromKey(key string, count int64) Counter {
	parts := splitKey(key)
	return Counter{Path: parts[0], Method: parts[1], Label: parts[2], Count: count}
}

// splitKey splits from the right; paths never contain the separator but the
// split stays stable if one does.
func splitKey(key string) [3]string {
	var parts [3]string
	idx := 2
	end := len(key)
	for i := len(key) - 1; i >= 0 && idx > 0; i-- {
		if key[i] == keySep[0] {
			parts[idx] = key[i+1 : end]
			end = i
			idx--
		}
	}
	parts[0] = key[:end]
	return parts
}

func sortCounters(counters []Counter) {
	sort.Slice(counters, func(i, j int) bool {
		a, b := counters[i], counters[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}
		return a.Label < b.Label
	})
}
