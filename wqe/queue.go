// Package wqe implements the Work-Queue Engine: named queues backed by an
// elastic set of worker goroutines, each growing and shrinking under a
// 1-second hysteresis window, with a single process-wide completion signal
// shared across every queue.
package wqe

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/objectd/objectd/internal/list"
)

// shrinkProtectionWindow is the hysteresis window during which a queue
// that just grew (or just failed a shrink check) will not shrink again.
const shrinkProtectionWindow = 1000 * time.Millisecond

// Policy selects a queue's thread-budget roof.
type Policy int

const (
	// Ordered caps a queue at one worker; run calls execute strictly in
	// submission order.
	Ordered Policy = iota
	// Dynamic caps a queue at 2x the current cluster node count.
	Dynamic
	// Unlimited imposes no roof.
	Unlimited
)

func (p Policy) roof(membership membershipProvider) int {
	switch p {
	case Ordered:
		return 1
	case Dynamic:
		n := membership.NodeCount()
		if n < 1 {
			n = 1
		}
		return 2 * n
	case Unlimited:
		return math.MaxInt
	default:
		// An invalid thread-control policy is a programmer error: abort
		// rather than silently behave as one of the known policies.
		panic("wqe: invalid thread-control policy")
	}
}

type membershipProvider interface {
	NodeCount() int
}

// Item is a unit of work: Run executes off the submitter's goroutine (may
// be nil), Done is invoked exactly once, on the engine's single completion
// goroutine, after Run returns.
type Item struct {
	Run  func() error
	Done func(error)

	// ID correlates an item across logs and metrics. Submit assigns one
	// when empty, so callers only need to set it to thread a caller-chosen
	// identifier (e.g. a recovery epoch) through.
	ID string
}

type finishedItem struct {
	item *Item
	err  error
}

// Clock abstracts time.Now so grow/shrink hysteresis can be driven
// deterministically in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock, backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Queue is the Go realization of a WorkQueue: three independent
// synchronization primitives (pending, finished, startup), two FIFOs, and
// elastic worker management under policy's roof.
type Queue struct {
	name   string
	policy Policy
	engine *Engine
	clock  Clock

	pendingMu    sync.Mutex
	pendingCond  *sync.Cond
	pendingList  list.List[*Item]
	pending      int
	running      int
	threadCount  int
	protectUntil time.Time

	finishedMu   sync.Mutex
	finishedList list.List[finishedItem]

	startupMu  sync.Mutex
	tidCounter atomic.Uint64
}

func newQueue(engine *Engine, name string, policy Policy, clock Clock) *Queue {
	q := &Queue{
		name:   name,
		policy: policy,
		engine: engine,
		clock:  clock,
	}
	q.pendingCond = sync.NewCond(&q.pendingMu)
	return q
}

// Name returns the queue's registered name.
func (q *Queue) Name() string { return q.name }

// Policy returns the queue's thread-control policy.
func (q *Queue) Policy() Policy { return q.policy }

// ThreadCount returns the current number of live worker goroutines. Used
// by tests asserting the monotonicity/hysteresis invariants; not meant for
// hot-path polling.
func (q *Queue) ThreadCount() int {
	q.pendingMu.Lock()
	defer q.pendingMu.Unlock()
	return q.threadCount
}

// Submit enqueues item on q's pending list, evaluating the grow predicate
// before waking a worker. Submission never fails.
func (q *Queue) Submit(item *Item) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	q.engine.observer().ObserveSubmit()

	q.pendingMu.Lock()
	q.pending++
	q.maybeGrowLocked()
	q.pendingList.PushBack(item)
	q.pendingMu.Unlock()

	q.pendingCond.Signal()
}

// maybeGrowLocked evaluates "thread_count < pending + running ∧
// thread_count × 2 ≤ roof" and, if it fires, spawns workers up to
// min(thread_count × 2, roof) — floored at 1 so a queue that has shrunk to
// zero workers can restart under renewed load.
func (q *Queue) maybeGrowLocked() {
	roof := q.policy.roof(q.engine.membership)
	if !(q.threadCount < q.pending+q.running && q.threadCount*2 <= roof) {
		return
	}

	target := q.threadCount * 2
	if target < 1 {
		target = 1
	}
	if target > roof {
		target = roof
	}
	for q.threadCount < target {
		q.spawnWorkerLocked()
	}
	q.protectUntil = q.clock.Now().Add(shrinkProtectionWindow)
}

// shouldShrinkLocked evaluates "pending + running ≤ thread_count / 2 ∧ now
// ≥ end_of_protection". On failure it extends the protection window so a
// burst of failed checks doesn't let a stale timestamp slip through.
func (q *Queue) shouldShrinkLocked(now time.Time) bool {
	if q.pending+q.running <= q.threadCount/2 && !now.Before(q.protectUntil) {
		q.threadCount--
		q.running--
		return true
	}
	q.protectUntil = now.Add(shrinkProtectionWindow)
	return false
}

// spawnWorkerLocked must be called with pendingMu held. It serializes
// thread creation on the startup mutex: the creator holds it across
// initialization so the new goroutine cannot observe a partially updated
// queue, and the new goroutine's first act is to acquire-then-release the
// same mutex as a barrier.
func (q *Queue) spawnWorkerLocked() {
	q.startupMu.Lock()
	tid := q.tidCounter.Add(1)
	q.threadCount++
	q.running++
	q.engine.observer().ObserveThreadDelta(1)
	go q.workerLoop(tid)
	q.startupMu.Unlock()
}

func (q *Queue) workerLoop(tid uint64) {
	q.startupMu.Lock()
	q.startupMu.Unlock()

	q.engine.tracer.RegisterThread(tid)
	defer q.engine.tracer.UnregisterThread(tid)

	for {
		q.pendingMu.Lock()
		now := q.clock.Now()
		if q.shouldShrinkLocked(now) {
			q.pendingMu.Unlock()
			q.engine.observer().ObserveThreadShrink()
			return
		}

		item, ok := q.pendingList.PopFront()
		if !ok {
			q.running--
			q.pendingCond.Wait()
			q.running++
			q.pendingMu.Unlock()
			continue
		}
		q.pending--
		q.pendingMu.Unlock()

		start := q.clock.Now()
		var err error
		if item.Run != nil {
			err = item.Run()
		}
		latencyNs := uint64(q.clock.Now().Sub(start).Nanoseconds())
		q.engine.observer().ObserveWork(latencyNs, err == nil)

		q.finishedMu.Lock()
		q.finishedList.PushBack(finishedItem{item: item, err: err})
		q.finishedMu.Unlock()

		q.engine.signalCompletion()
	}
}
