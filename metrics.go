package objectd

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the work-item latency histogram buckets in
// nanoseconds, covering 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks WQE scheduling and MDP placement statistics for a running
// daemon instance.
type Metrics struct {
	// WQE: work-item lifecycle
	WorkSubmitted atomic.Uint64
	WorkCompleted atomic.Uint64
	WorkErrors    atomic.Uint64

	// WQE: elastic thread-pool activity
	ThreadsGrown  atomic.Uint64 // cumulative grow events across all queues
	ThreadsShrunk atomic.Uint64 // cumulative shrink events across all queues
	ThreadsActive atomic.Int64  // current live worker goroutines, all queues

	// WQE: work-item run-duration histogram
	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	// MDP: placement lookups
	Lookups      atomic.Uint64
	LookupMisses atomic.Uint64 // NO_OBJ after a full scan-and-repair

	// MDP: disk health and recovery
	EIOEvents     atomic.Uint64 // handle_eio invocations
	RecoveryKicks atomic.Uint64 // do_recover completions that kicked recovery
	ScanRepairs   atomic.Uint64 // objects relocated by scan-and-repair
	DisksActive   atomic.Int64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a fresh Metrics instance with StartTime set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordWork records completion of a work item's run step.
func (m *Metrics) RecordWork(latencyNs uint64, success bool) {
	m.WorkCompleted.Add(1)
	if !success {
		m.WorkErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordSubmit records a work item entering a queue's pending list.
func (m *Metrics) RecordSubmit() {
	m.WorkSubmitted.Add(1)
}

// RecordThreadGrow records a grow event and adjusts the active-thread gauge.
func (m *Metrics) RecordThreadGrow(delta int64) {
	m.ThreadsGrown.Add(1)
	m.ThreadsActive.Add(delta)
}

// RecordThreadShrink records a shrink event and adjusts the active-thread
// gauge.
func (m *Metrics) RecordThreadShrink() {
	m.ThreadsShrunk.Add(1)
	m.ThreadsActive.Add(-1)
}

// RecordLookup records a placement lookup; hit is false only when the
// object was not found after a full scan-and-repair pass.
func (m *Metrics) RecordLookup(hit bool) {
	m.Lookups.Add(1)
	if !hit {
		m.LookupMisses.Add(1)
	}
}

// RecordEIO records a handle_eio invocation.
func (m *Metrics) RecordEIO() {
	m.EIOEvents.Add(1)
}

// RecordRecoveryKick records a do_recover pass that kicked the recovery
// orchestrator.
func (m *Metrics) RecordRecoveryKick() {
	m.RecoveryKicks.Add(1)
}

// RecordScanRepair records one object relocated by scan-and-repair.
func (m *Metrics) RecordScanRepair() {
	m.ScanRepairs.Add(1)
}

// SetDisksActive updates the current live-disk gauge.
func (m *Metrics) SetDisksActive(n int) {
	m.DisksActive.Store(int64(n))
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop marks process shutdown for uptime calculations.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time, non-atomic copy of Metrics for
// reporting (CLI output, Prometheus collection, logs).
type MetricsSnapshot struct {
	WorkSubmitted uint64
	WorkCompleted uint64
	WorkErrors    uint64

	ThreadsGrown  uint64
	ThreadsShrunk uint64
	ThreadsActive int64

	AvgLatencyNs  uint64
	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	Lookups      uint64
	LookupMisses uint64
	HitRate      float64

	EIOEvents     uint64
	RecoveryKicks uint64
	ScanRepairs   uint64
	DisksActive   int64

	UptimeNs uint64
}

// Snapshot computes a MetricsSnapshot from the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		WorkSubmitted: m.WorkSubmitted.Load(),
		WorkCompleted: m.WorkCompleted.Load(),
		WorkErrors:    m.WorkErrors.Load(),
		ThreadsGrown:  m.ThreadsGrown.Load(),
		ThreadsShrunk: m.ThreadsShrunk.Load(),
		ThreadsActive: m.ThreadsActive.Load(),
		Lookups:       m.Lookups.Load(),
		LookupMisses:  m.LookupMisses.Load(),
		EIOEvents:     m.EIOEvents.Load(),
		RecoveryKicks: m.RecoveryKicks.Load(),
		ScanRepairs:   m.ScanRepairs.Load(),
		DisksActive:   m.DisksActive.Load(),
	}

	if snap.Lookups > 0 {
		snap.HitRate = float64(snap.Lookups-snap.LookupMisses) / float64(snap.Lookups) * 100.0
	}

	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile
// (0.0-1.0) by linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}

	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset zeroes all counters; useful in tests that reuse one Metrics across
// scenarios.
func (m *Metrics) Reset() {
	m.WorkSubmitted.Store(0)
	m.WorkCompleted.Store(0)
	m.WorkErrors.Store(0)
	m.ThreadsGrown.Store(0)
	m.ThreadsShrunk.Store(0)
	m.ThreadsActive.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	m.Lookups.Store(0)
	m.LookupMisses.Store(0)
	m.EIOEvents.Store(0)
	m.RecoveryKicks.Store(0)
	m.ScanRepairs.Store(0)
	m.DisksActive.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable collection of WQE/MDP events, independent of
// the built-in Metrics implementation (e.g. a Prometheus-backed observer —
// see internal/telemetry).
type Observer interface {
	ObserveSubmit()
	ObserveWork(latencyNs uint64, success bool)
	ObserveThreadDelta(delta int64)
	ObserveThreadShrink()
	ObserveLookup(hit bool)
	ObserveEIO(path string)
	ObserveRecoveryKick(path string)
	ObserveScanRepair(oid uint64)
	ObserveDisksActive(n int)
}

// NoOpObserver discards every event.
type NoOpObserver struct{}

func (NoOpObserver) ObserveSubmit()                 {}
func (NoOpObserver) ObserveWork(uint64, bool)       {}
func (NoOpObserver) ObserveThreadDelta(int64)       {}
func (NoOpObserver) ObserveThreadShrink()           {}
func (NoOpObserver) ObserveLookup(bool)             {}
func (NoOpObserver) ObserveEIO(string)              {}
func (NoOpObserver) ObserveRecoveryKick(string)      {}
func (NoOpObserver) ObserveScanRepair(uint64)        {}
func (NoOpObserver) ObserveDisksActive(int)          {}

// MetricsObserver implements Observer by recording into a *Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver wraps m as an Observer.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveSubmit() {
	o.metrics.RecordSubmit()
}

func (o *MetricsObserver) ObserveWork(latencyNs uint64, success bool) {
	o.metrics.RecordWork(latencyNs, success)
}

func (o *MetricsObserver) ObserveThreadDelta(delta int64) {
	o.metrics.RecordThreadGrow(delta)
}

func (o *MetricsObserver) ObserveThreadShrink() {
	o.metrics.RecordThreadShrink()
}

func (o *MetricsObserver) ObserveLookup(hit bool) {
	o.metrics.RecordLookup(hit)
}

func (o *MetricsObserver) ObserveEIO(string) {
	o.metrics.RecordEIO()
}

func (o *MetricsObserver) ObserveRecoveryKick(string) {
	o.metrics.RecordRecoveryKick()
}

func (o *MetricsObserver) ObserveScanRepair(uint64) {
	o.metrics.RecordScanRepair()
}

func (o *MetricsObserver) ObserveDisksActive(n int) {
	o.metrics.SetDisksActive(n)
}

var (
	_ Observer = (*MetricsObserver)(nil)
	_ Observer = (*NoOpObserver)(nil)
)
