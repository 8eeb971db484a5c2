package panelAuth

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a specific counter or histogram in the in-process
// metrics system.
type MetricID uint16

const (
	// MetricInitializeEmpty counts initializations that resolved no user.
	MetricInitializeEmpty MetricID = iota
	// MetricInitializeRetry counts session lookup retries after transport failures.
	MetricInitializeRetry
	// MetricSessionRestoredProvider counts sessions restored from a live provider lookup.
	MetricSessionRestoredProvider
	// MetricSessionRestoredCache counts sessions restored from the local cache fallback.
	MetricSessionRestoredCache
	// MetricSignInSuccess counts successful password sign-ins.
	MetricSignInSuccess
	// MetricSignInFailure counts rejected or failed password sign-ins.
	MetricSignInFailure
	// MetricSignOut counts explicit sign-outs.
	MetricSignOut
	// MetricSessionCleared counts local session clears (any cause).
	MetricSessionCleared
	// MetricSetSession counts direct state injections via SetSession.
	MetricSetSession
	// MetricProfileFallback counts profile fetches that degraded to fallback values.
	MetricProfileFallback
	// MetricAuthEventApplied counts provider-pushed auth events applied to state.
	MetricAuthEventApplied
	// MetricSubscriberPanic counts recovered subscriber callback panics.
	MetricSubscriberPanic
	// MetricCacheHit counts successful cache hydrations.
	MetricCacheHit
	// MetricCacheCorrupt counts cache entries discarded as undecodable.
	MetricCacheCorrupt
	// MetricInitializeLatency is the Initialize duration histogram.
	MetricInitializeLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic counters and an optional Initialize latency
// histogram. When disabled, all operations are no-ops.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a [Metrics] instance configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are active.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is active.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the latency histogram for id. Only
// [MetricInitializeLatency] carries a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricInitializeLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current counter value for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot returns a deep copy of all counters and histograms.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricInitializeLatency].buckets[i])
		}
		s.Histograms[MetricInitializeLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
