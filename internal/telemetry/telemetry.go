// Package telemetry mirrors a *objectd.Metrics snapshot into Prometheus
// collectors, the way cuemby-warren's pkg/metrics registers its cluster
// gauges: one package-level registry, one init-time MustRegister block.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WorkSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "objectd",
		Subsystem: "wqe",
		Name:      "work_submitted_total",
		Help:      "Work items submitted to any queue.",
	})
	WorkCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "objectd",
		Subsystem: "wqe",
		Name:      "work_completed_total",
		Help:      "Work items whose done callback has run.",
	})
	WorkErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "objectd",
		Subsystem: "wqe",
		Name:      "work_errors_total",
		Help:      "Work items whose run step returned an error.",
	})
	ThreadsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "objectd",
		Subsystem: "wqe",
		Name:      "threads_active",
		Help:      "Live worker goroutines across all queues.",
	})
	ThreadGrows = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "objectd",
		Subsystem: "wqe",
		Name:      "thread_grows_total",
		Help:      "Grow events across all queues.",
	})
	ThreadShrinks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "objectd",
		Subsystem: "wqe",
		Name:      "thread_shrinks_total",
		Help:      "Shrink events across all queues.",
	})
	WorkLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "objectd",
		Subsystem: "wqe",
		Name:      "work_latency_seconds",
		Help:      "Work-item run-step latency.",
		Buckets:   prometheus.ExponentialBuckets(1e-6, 10, 8),
	})

	Lookups = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "objectd",
		Subsystem: "mdp",
		Name:      "lookups_total",
		Help:      "Placement lookups performed.",
	})
	LookupMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "objectd",
		Subsystem: "mdp",
		Name:      "lookup_misses_total",
		Help:      "Lookups that returned NO_OBJ after a full scan.",
	})
	EIOEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "objectd",
		Subsystem: "mdp",
		Name:      "eio_events_total",
		Help:      "handle_eio invocations.",
	})
	RecoveryKicks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "objectd",
		Subsystem: "mdp",
		Name:      "recovery_kicks_total",
		Help:      "do_recover passes that kicked the recovery orchestrator.",
	})
	ScanRepairs = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "objectd",
		Subsystem: "mdp",
		Name:      "scan_repairs_total",
		Help:      "Objects relocated by scan-and-repair.",
	})
	DisksActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "objectd",
		Subsystem: "mdp",
		Name:      "disks_active",
		Help:      "Live disks in the placement ring.",
	})
)

func init() {
	prometheus.MustRegister(
		WorkSubmitted, WorkCompleted, WorkErrors,
		ThreadsActive, ThreadGrows, ThreadShrinks, WorkLatency,
		Lookups, LookupMisses, EIOEvents, RecoveryKicks, ScanRepairs, DisksActive,
	)
}

// Observer adapts objectd.Observer events onto the package's Prometheus
// collectors so a single Metrics instance can drive both the in-process
// snapshot API and /metrics scraping.
type Observer struct{}

func (Observer) ObserveSubmit() {
	WorkSubmitted.Inc()
}

func (Observer) ObserveWork(latencyNs uint64, success bool) {
	WorkCompleted.Inc()
	if !success {
		WorkErrors.Inc()
	}
	WorkLatency.Observe(float64(latencyNs) / 1e9)
}

func (Observer) ObserveThreadDelta(delta int64) {
	ThreadGrows.Inc()
	ThreadsActive.Add(float64(delta))
}

func (Observer) ObserveThreadShrink() {
	ThreadShrinks.Inc()
	ThreadsActive.Dec()
}

func (Observer) ObserveLookup(hit bool) {
	Lookups.Inc()
	if !hit {
		LookupMisses.Inc()
	}
}

func (Observer) ObserveEIO(string) {
	EIOEvents.Inc()
}

func (Observer) ObserveRecoveryKick(string) {
	RecoveryKicks.Inc()
}

func (Observer) ObserveScanRepair(uint64) {
	ScanRepairs.Inc()
}

func (Observer) ObserveDisksActive(n int) {
	DisksActive.Set(float64(n))
}
