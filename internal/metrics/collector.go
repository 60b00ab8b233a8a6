// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

// EndpointMetrics holds aggregated metrics for a single backend endpoint.
type EndpointMetrics struct {
	Count     int64
	Failures  int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
	Statuses  map[int]int64
}

// EndpointSnapshot provides computed stats from raw metrics.
type EndpointSnapshot struct {
	Endpoint    string
	Count       int64
	Failures    int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64
	Statuses    map[int]int64
}

// Snapshot represents the client statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64
	Endpoints     []EndpointSnapshot
}

// Totals sums request and failure counts across endpoints.
func (s Snapshot) Totals() (requests, failures int64) {
	for _, e := range s.Endpoints {
		requests += e.Count
		failures += e.Failures
	}
	return requests, failures
}

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*EndpointMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*EndpointMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for an endpoint.
// Caller must hold write lock.
func (c *Collector) getOrCreate(endpoint string) *EndpointMetrics {
	m, ok := c.ops[endpoint]
	if !ok {
		m = &EndpointMetrics{
			MinTime:  time.Duration(math.MaxInt64),
			Statuses: make(map[int]int64),
		}
		c.ops[endpoint] = m
	}
	return m
}

// RecordRequest records one completed request. status is 0 when the request
// never produced a response.
func (c *Collector) RecordRequest(endpoint string, status int, duration time.Duration, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(endpoint)
	m.Count++
	m.TotalTime += duration
	m.Statuses[status]++
	if failed {
		m.Failures++
	}

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// snapshotOp creates a snapshot for an endpoint, returning nil if no data.
func snapshotOp(endpoint string, m *EndpointMetrics) *EndpointSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}

	statuses := make(map[int]int64, len(m.Statuses))
	for k, v := range m.Statuses {
		statuses[k] = v
	}

	return &EndpointSnapshot{
		Endpoint:    endpoint,
		Count:       m.Count,
		Failures:    m.Failures,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
		Statuses:    statuses,
	}
}

// Snapshot returns a point-in-time snapshot of all metrics, ordered by endpoint.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{UptimeSeconds: time.Since(c.startTime).Seconds()}
	for endpoint, m := range c.ops {
		if s := snapshotOp(endpoint, m); s != nil {
			snap.Endpoints = append(snap.Endpoints, *s)
		}
	}
	sort.Slice(snap.Endpoints, func(i, j int) bool {
		return snap.Endpoints[i].Endpoint < snap.Endpoints[j].Endpoint
	})
	return snap
}
