// Package observability keeps in-process request statistics for one
// serving process.
package observability

import (
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// latency bucket upper bounds; the last bucket is unbounded
var bucketBounds = [...]time.Duration{
	time.Millisecond,
	5 * time.Millisecond,
	10 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
	5 * time.Second,
	10 * time.Second,
}

// NumBuckets is the number of latency buckets per route
const NumBuckets = len(bucketBounds) + 1

// Monitor aggregates request counts and latencies per route
type Monitor struct {
	routes sync.Map // route -> *routeMetrics
	total  atomic.Uint64
}

type routeMetrics struct {
	count         atomic.Uint64
	errors        atomic.Uint64
	totalDuration atomic.Uint64
	minDuration   atomic.Uint64
	maxDuration   atomic.Uint64
	buckets       [NumBuckets]atomic.Uint64
}

func newRouteMetrics() *routeMetrics {
	rm := &routeMetrics{}
	rm.minDuration.Store(math.MaxUint64)
	return rm
}

// RouteStats is a point-in-time copy of one route's metrics
type RouteStats struct {
	Route   string
	Count   uint64
	Errors  uint64
	Avg     time.Duration
	Min     time.Duration
	Max     time.Duration
	Buckets [NumBuckets]uint64
}

// Bottleneck is a route whose latency or error rate stands out
type Bottleneck struct {
	Type    string
	Route   string
	Details string
}

// NewMonitor creates a monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Record counts one request. Statuses of 500 and above count as errors.
func (m *Monitor) Record(route string, d time.Duration, status int) {
	val, ok := m.routes.Load(route)
	if !ok {
		val, _ = m.routes.LoadOrStore(route, newRouteMetrics())
	}
	rm := val.(*routeMetrics)

	ns := uint64(d.Nanoseconds())
	rm.totalDuration.Add(ns)
	updateMin(&rm.minDuration, ns)
	updateMax(&rm.maxDuration, ns)
	rm.buckets[bucketFor(d)].Add(1)
	if status >= 500 {
		rm.errors.Add(1)
	}
	rm.count.Add(1)

	m.total.Add(1)
}

func updateMin(v *atomic.Uint64, d uint64) {
	for {
		cur := v.Load()
		if d >= cur {
			return
		}
		if v.CompareAndSwap(cur, d) {
			return
		}
	}
}

func updateMax(v *atomic.Uint64, d uint64) {
	for {
		cur := v.Load()
		if d <= cur {
			return
		}
		if v.CompareAndSwap(cur, d) {
			return
		}
	}
}

func bucketFor(d time.Duration) int {
	for i, bound := range bucketBounds {
		if d < bound {
			return i
		}
	}
	return len(bucketBounds)
}

// Total returns the number of recorded requests
func (m *Monitor) Total() uint64 {
	return m.total.Load()
}

// Snapshot returns per-route statistics sorted by route.
func (m *Monitor) Snapshot() []RouteStats {
	var out []RouteStats
	m.routes.Range(func(key, value any) bool {
		rm := value.(*routeMetrics)
		s := RouteStats{
			Route:  key.(string),
			Count:  rm.count.Load(),
			Errors: rm.errors.Load(),

			Max:    time.Duration(rm.maxDuration.Load()),
		}
		if s.Count > 0 {
			s.Avg = time.Duration(rm.totalDuration.Load() / s.Count)
			s.Min = time.Duration(rm.minDuration.Load())
		}
		for i := range rm.buckets {
			s.Buckets[i] = rm.buckets[i].Load()
		}
		out = append(out, s)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Route < out[j].Route })
	return out
}

// Bottlenecks reports routes averaging over 100ms or failing more than 5%
// of requests.
func (m *Monitor) Bottlenecks() []Bottleneck {
	var out []Bottleneck
	for _, s := range m.Snapshot() {
		if s.Count == 0 {
			continue
		}
		if s.Avg > 100*time.Millisecond {
			out = append(out, Bottleneck{
				Type:    "latency",
				Route:   s.Route,
				Details: fmt.Sprintf("high latency (%v avg)", s.Avg),
			})
		}
		if rate := float64(s.Errors) / float64(s.Count); rate > 0.05 {
			out = append(out, Bottleneck{
				Type:    "errors",
				Route:   s.Route,
				Details: fmt.Sprintf("%.1f%% error rate", rate*100),
			})
		}
	}
	return out
}

// LogSummary writes one line per route and one per bottleneck to l.
func (m *Monitor) LogSummary(l *log.Logger) {
	l.Printf("Handled %d requests", m.Total())
	for _, s := range m.Snapshot() {
		l.Printf("  %-32s count=%d errors=%d avg=%v min=%v max=%v",
			s.Route, s.Count, s.Errors,
			s.Avg.Round(time.Microsecond), s.Min.Round(time.Microsecond), s.Max.Round(time.Microsecond))
	}
	for _, b := range m.Bottlenecks() {
		l.Printf("  bottleneck [%s] %s: %s", b.Type, b.Route, b.Details)
	}
}
