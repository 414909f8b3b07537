package objectd

import (
	"testing"
	"time"
)

func TestMetricsWorkLifecycle(t *testing.T) {
	m := NewMetrics()

	snap := m.Snapshot()
	if snap.WorkCompleted != 0 {
		t.Errorf("Expected 0 initial work, got %d", snap.WorkCompleted)
	}

	m.RecordSubmit()
	m.RecordSubmit()
	m.RecordWork(1_000_000, true)
	m.RecordWork(500_000, false)

	snap = m.Snapshot()
	if snap.WorkSubmitted != 2 {
		t.Errorf("Expected 2 submitted, got %d", snap.WorkSubmitted)
	}
	if snap.WorkCompleted != 2 {
		t.Errorf("Expected 2 completed, got %d", snap.WorkCompleted)
	}
	if snap.WorkErrors != 1 {
		t.Errorf("Expected 1 error, got %d", snap.WorkErrors)
	}
}

func TestMetricsThreadGrowShrink(t *testing.T) {
	m := NewMetrics()

	m.RecordThreadGrow(3)
	m.RecordThreadShrink()

	snap := m.Snapshot()
	if snap.ThreadsGrown != 1 {
		t.Errorf("Expected 1 grow event, got %d", snap.ThreadsGrown)
	}
	if snap.ThreadsShrunk != 1 {
		t.Errorf("Expected 1 shrink event, got %d", snap.ThreadsShrunk)
	}
	if snap.ThreadsActive != 2 {
		t.Errorf("Expected 2 active threads (3 grown - 1 shrunk), got %d", snap.ThreadsActive)
	}
}

func TestMetricsLookups(t *testing.T) {
	m := NewMetrics()

	m.RecordLookup(true)
	m.RecordLookup(true)
	m.RecordLookup(false)

	snap := m.Snapshot()
	if snap.Lookups != 3 {
		t.Errorf("Expected 3 lookups, got %d", snap.Lookups)
	}
	if snap.LookupMisses != 1 {
		t.Errorf("Expected 1 miss, got %d", snap.LookupMisses)
	}
	expectedHitRate := 2.0 / 3.0 * 100.0
	if snap.HitRate < expectedHitRate-0.1 || snap.HitRate > expectedHitRate+0.1 {
		t.Errorf("Expected hit rate ~%.1f%%, got %.1f%%", expectedHitRate, snap.HitRate)
	}
}

func TestMetricsRecovery(t *testing.T) {
	m := NewMetrics()

	m.RecordEIO()
	m.RecordRecoveryKick()
	m.RecordScanRepair()
	m.RecordScanRepair()
	m.SetDisksActive(4)

	snap := m.Snapshot()
	if snap.EIOEvents != 1 || snap.RecoveryKicks != 1 || snap.ScanRepairs != 2 {
		t.Errorf("unexpected recovery counters: %+v", snap)
	}
	if snap.DisksActive != 4 {
		t.Errorf("Expected 4 active disks, got %d", snap.DisksActive)
	}
}

func TestMetricsUptime(t *testing.T) {
	m := NewMetrics()

	time.Sleep(10 * time.Millisecond)
	snap := m.Snapshot()
	if snap.UptimeNs < 10*1_000_000 {
		t.Errorf("Expected uptime >= 10ms, got %d ns", snap.UptimeNs)
	}

	m.Stop()
	time.Sleep(5 * time.Millisecond)
	snap2 := m.Snapshot()
	if snap2.UptimeNs > snap.UptimeNs+5*1_000_000 {
		t.Errorf("Uptime increased too much after stop: %d -> %d", snap.UptimeNs, snap2.UptimeNs)
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()

	m.RecordSubmit()
	m.RecordWork(1_000_000, true)
	m.RecordLookup(true)
	m.SetDisksActive(2)

	m.Reset()

	snap := m.Snapshot()
	if snap.WorkSubmitted != 0 || snap.WorkCompleted != 0 || snap.Lookups != 0 || snap.DisksActive != 0 {
		t.Errorf("Expected all counters zero after reset, got %+v", snap)
	}
}

func TestObserverForwarding(t *testing.T) {
	var observer Observer = NoOpObserver{}
	observer.ObserveSubmit()
	observer.ObserveWork(1_000_000, true)
	observer.ObserveThreadDelta(1)
	observer.ObserveLookup(true)
	observer.ObserveEIO("/mnt/disk0")
	observer.ObserveRecoveryKick("/mnt/disk0")
	observer.ObserveScanRepair(42)
	observer.ObserveDisksActive(3)

	m := NewMetrics()
	mo := NewMetricsObserver(m)

	mo.ObserveWork(2_000_000, true)
	mo.ObserveThreadDelta(2)
	mo.ObserveLookup(false)

	snap := m.Snapshot()
	if snap.WorkCompleted != 1 {
		t.Errorf("Expected 1 completed work item from observer, got %d", snap.WorkCompleted)
	}
	if snap.ThreadsActive != 2 {
		t.Errorf("Expected 2 active threads from observer, got %d", snap.ThreadsActive)
	}
	if snap.LookupMisses != 1 {
		t.Errorf("Expected 1 lookup miss from observer, got %d", snap.LookupMisses)
	}
}

func TestMetricsHistogramPercentiles(t *testing.T) {
	m := NewMetrics()

	for i := 0; i < 50; i++ {
		m.RecordWork(500_000, true) // 500us
	}
	for i := 0; i < 49; i++ {
		m.RecordWork(5_000_000, true) // 5ms
	}
	m.RecordWork(50_000_000, true) // 50ms

	snap := m.Snapshot()
	if snap.WorkCompleted != 100 {
		t.Errorf("Expected 100 total work items, got %d", snap.WorkCompleted)
	}
	if snap.LatencyP50Ns < 100_000 || snap.LatencyP50Ns > 1_000_000 {
		t.Errorf("Expected P50 in 100us-1ms range, got %d ns", snap.LatencyP50Ns)
	}
	if snap.LatencyP99Ns < 5_000_000 || snap.LatencyP99Ns > 100_000_000 {
		t.Errorf("Expected P99 in 5ms-100ms range, got %d ns", snap.LatencyP99Ns)
	}
}
