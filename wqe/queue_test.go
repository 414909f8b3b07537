package wqe

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(nil, nil, nil)
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// waitForCount polls Dispatch until every expected Done call has landed, or
// the deadline passes. The eventfd signal is edge-triggered from the
// worker side in this harness, so tests poll rather than block on a real
// epoll loop.
func waitForCount(t *testing.T, e *Engine, counter *atomic.Int64, want int64, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		e.Dispatch()
		if counter.Load() >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for count >= %d, got %d", want, counter.Load())
}

func TestNoWorkLoss(t *testing.T) {
	e := newTestEngine(t)
	q, err := e.NewOrderedQueue("recovery")
	if err != nil {
		t.Fatalf("NewOrderedQueue() error: %v", err)
	}

	const n = 200
	var completed atomic.Int64
	for i := 0; i < n; i++ {
		q.Submit(&Item{
			Run:  func() error { return nil },
			Done: func(error) { completed.Add(1) },
		})
	}

	waitForCount(t, e, &completed, n, 5*time.Second)
	if got := completed.Load(); got != n {
		t.Fatalf("completed = %d, want %d", got, n)
	}
}

func TestAtMostOneDonePerItem(t *testing.T) {
	e := newTestEngine(t)
	q, err := e.NewQueue("bulk", Unlimited)
	if err != nil {
		t.Fatalf("NewQueue() error: %v", err)
	}

	const n = 100
	doneCounts := make([]atomic.Int32, n)
	var completed atomic.Int64
	for i := 0; i < n; i++ {
		idx := i
		q.Submit(&Item{
			Run: func() error { return nil },
			Done: func(error) {
				doneCounts[idx].Add(1)
				completed.Add(1)
			},
		})
	}

	waitForCount(t, e, &completed, n, 5*time.Second)
	for i, c := range doneCounts {
		if got := c.Load(); got != 1 {
			t.Fatalf("item %d: done called %d times, want 1", i, got)
		}
	}
}

func TestOrderedQueueRunsSerially(t *testing.T) {
	e := newTestEngine(t)
	q, err := e.NewOrderedQueue("ordered")
	if err != nil {
		t.Fatalf("NewOrderedQueue() error: %v", err)
	}

	const n = 50
	var mu sync.Mutex
	var runOrder []int
	var completed atomic.Int64

	for i := 0; i < n; i++ {
		idx := i
		q.Submit(&Item{
			Run: func() error {
				mu.Lock()
				runOrder = append(runOrder, idx)
				mu.Unlock()
				return nil
			},
			Done: func(error) { completed.Add(1) },
		})
	}

	waitForCount(t, e, &completed, n, 5*time.Second)

	mu.Lock()
	defer mu.Unlock()
	if len(runOrder) != n {
		t.Fatalf("runOrder has %d entries, want %d", len(runOrder), n)
	}
	for i, v := range runOrder {
		if v != i {
			t.Fatalf("runOrder[%d] = %d, want %d (ordering violated)", i, v, i)
		}
	}
}

func TestOrderedQueueNeverGrowsPastOne(t *testing.T) {
	e := newTestEngine(t)
	q, err := e.NewOrderedQueue("ordered")
	if err != nil {
		t.Fatalf("NewOrderedQueue() error: %v", err)
	}

	release := make(chan struct{})
	var completed atomic.Int64
	for i := 0; i < 10; i++ {
		q.Submit(&Item{
			Run: func() error {
				<-release
				return nil
			},
			Done: func(error) { completed.Add(1) },
		})
	}

	time.Sleep(20 * time.Millisecond)
	if tc := q.ThreadCount(); tc != 1 {
		t.Fatalf("ThreadCount() = %d, want 1 for an ORDERED queue", tc)
	}
	close(release)
	waitForCount(t, e, &completed, 10, 5*time.Second)
}

func TestUnlimitedQueueGrowsUnderLoad(t *testing.T) {
	e := newTestEngine(t)
	q, err := e.NewQueue("burst", Unlimited)
	if err != nil {
		t.Fatalf("NewQueue() error: %v", err)
	}

	release := make(chan struct{})
	var completed atomic.Int64
	const n = 20
	for i := 0; i < n; i++ {
		q.Submit(&Item{
			Run: func() error {
				<-release
				return nil
			},
			Done: func(error) { completed.Add(1) },
		})
	}

	time.Sleep(50 * time.Millisecond)
	if tc := q.ThreadCount(); tc <= 1 {
		t.Fatalf("ThreadCount() = %d, want > 1 under sustained backlog", tc)
	}
	close(release)
	waitForCount(t, e, &completed, n, 5*time.Second)
}

func TestThreadCountMonotonicWithinProtectionWindow(t *testing.T) {
	e := newTestEngine(t)
	q, err := e.NewQueue("dynamic", Unlimited)
	if err != nil {
		t.Fatalf("NewQueue() error: %v", err)
	}

	release := make(chan struct{})
	var completed atomic.Int64
	for i := 0; i < 8; i++ {
		q.Submit(&Item{
			Run: func() error {
				<-release
				return nil
			},
			Done: func(error) { completed.Add(1) },
		})
	}
	time.Sleep(20 * time.Millisecond)
	grown := q.ThreadCount()
	if grown <= 1 {
		t.Fatalf("ThreadCount() = %d after burst, want growth", grown)
	}

	close(release)
	waitForCount(t, e, &completed, 8, 5*time.Second)

	// Immediately after completion, still within the 1s protection window:
	// thread count must not have dropped below what it grew to.
	time.Sleep(20 * time.Millisecond)
	if tc := q.ThreadCount(); tc < grown {
		t.Fatalf("ThreadCount() dropped to %d within protection window (was %d)", tc, grown)
	}
}

func TestDuplicateQueueNameRejected(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.NewOrderedQueue("dup"); err != nil {
		t.Fatalf("first NewOrderedQueue() error: %v", err)
	}
	if _, err := e.NewOrderedQueue("dup"); err == nil {
		t.Fatal("expected error registering a duplicate queue name")
	}
}

func TestInvalidPolicyPanics(t *testing.T) {
	e := newTestEngine(t)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for an invalid policy")
		}
	}()
	_, _ = e.NewQueue("bad", Policy(99))
}
