package tools

import (
	"sync"
	"time"
)

// MetricSnapshot is the aggregate view of one named operation.
type MetricSnapshot struct {
	Name         string        `json:"name"`
	Calls        int64         `json:"calls"`
	Errors       int64         `json:"errors"`
	SuccessRate  float64       `json:"success_rate"`
	TotalLatency time.Duration `json:"total_latency"`
	MeanLatency  time.Duration `json:"mean_latency"`
}

type metricEntry struct {
	calls        int64
	errors       int64
	totalLatency time.Duration
}

// Metrics is the process-wide usage registry shared by the gateway and the
// analyst branches. Safe for concurrent increment.
type Metrics struct {
	mu      sync.Mutex
	entries map[string]*metricEntry
}

func NewMetrics() *Metrics {
	return &Metrics{entries: make(map[string]*metricEntry)}
}

// Record notes one call outcome with its latency.
func (m *Metrics) Record(name string, latency time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[name]
	if e == nil {
		e = &metricEntry{}
		m.entries[name] = e
	}
	e.calls++
	if !success {
		e.errors++
	}
	e.totalLatency += latency
}

// Snapshot returns the current aggregates keyed by operation name.
func (m *Metrics) Snapshot() map[string]MetricSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]MetricSnapshot, len(m.entries))
	for name, e := range m.entries {
		snap := MetricSnapshot{
			Name:         name,
			Calls:        e.calls,
			Errors:       e.errors,
			TotalLatency: e.totalLatency,
		}
		if e.calls > 0 {
			snap.SuccessRate = float64(e.calls-e.errors) / float64(e.calls)
			snap.MeanLatency = e.totalLatency / time.Duration(e.calls)
		}
		out[name] = snap
	}
	return out
}
