package wqe

import (
	"encoding/binary"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/objectd/objectd"
	"github.com/objectd/objectd/collab"
)

// Engine owns the shared completion eventfd and the registry of live
// queues. Exactly one Engine per process is expected, mirroring the single
// process-wide readiness descriptor the completion channel design calls
// for.
type Engine struct {
	fd int

	mu     sync.RWMutex
	queues map[string]*Queue

	membership collab.Membership
	tracer     collab.ThreadTracer
	obs        objectd.Observer
}

// NewEngine creates an Engine backed by a fresh EFD_NONBLOCK|EFD_SEMAPHORE
// eventfd. membership, tracer, and observer may be nil; sensible no-op
// defaults are substituted.
func NewEngine(membership collab.Membership, tracer collab.ThreadTracer, observer objectd.Observer) (*Engine, error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_SEMAPHORE)
	if err != nil {
		return nil, objectd.WrapError("new_engine", err)
	}

	if membership == nil {
		membership = collab.StaticMembership(1)
	}
	if tracer == nil {
		tracer = collab.NoopTracer{}
	}
	if observer == nil {
		observer = objectd.NoOpObserver{}
	}

	return &Engine{
		fd:         fd,
		queues:     make(map[string]*Queue),
		membership: membership,
		tracer:     tracer,
		obs:        observer,
	}, nil
}

func (e *Engine) observer() objectd.Observer { return e.obs }

// Fd returns the completion eventfd for registration with a host event
// loop (see RegisterWithEventLoop for the common case).
func (e *Engine) Fd() int { return e.fd }

// RegisterWithEventLoop hands the completion fd and Dispatch to an
// external event loop collaborator.
func (e *Engine) RegisterWithEventLoop(loop collab.EventLoop) error {
	return loop.RegisterEvent(e.fd, e.Dispatch)
}

// NewQueue creates and registers a named queue with one initial worker.
// An invalid Policy panics (fatal, per the scheduler's policy-validation
// contract); a duplicate name returns an error.
func (e *Engine) NewQueue(name string, policy Policy) (*Queue, error) {
	_ = policy.roof(e.membership) // validates policy, panics if unknown

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.queues[name]; exists {
		return nil, objectd.NewError("new_queue", objectd.EIO, "queue already registered: "+name)
	}

	q := newQueue(e, name, policy, SystemClock{})
	q.pendingMu.Lock()
	q.spawnWorkerLocked()
	q.pendingMu.Unlock()

	e.queues[name] = q
	return q, nil
}

// NewOrderedQueue is sugar for NewQueue(name, Ordered).
func (e *Engine) NewOrderedQueue(name string) (*Queue, error) {
	return e.NewQueue(name, Ordered)
}

// Queue returns a previously registered queue by name.
func (e *Engine) Queue(name string) (*Queue, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	q, ok := e.queues[name]
	return q, ok
}

func (e *Engine) signalCompletion() {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, _ = unix.Write(e.fd, buf[:])
}

// Dispatch reads the completion eventfd once (in semaphore mode that
// consumes a single count) and delivers every queue's finished items, in
// FIFO order, on the calling goroutine. Call this from
// the host event loop's readiness callback for e.Fd().
func (e *Engine) Dispatch() {
	var buf [8]byte
	_, _ = unix.Read(e.fd, buf[:]) // EAGAIN is expected when nothing is pending

	e.mu.RLock()
	queues := make([]*Queue, 0, len(e.queues))
	for _, q := range e.queues {
		queues = append(queues, q)
	}
	e.mu.RUnlock()

	for _, q := range queues {
		q.finishedMu.Lock()
		items := q.finishedList.Drain()
		q.finishedMu.Unlock()

		for _, fi := range items {
			fi.item.Done(fi.err)
		}
	}
}

// Close releases the completion eventfd. Queues are not drained; callers
// should stop submitting and let in-flight work finish before closing.
func (e *Engine) Close() error {
	return unix.Close(e.fd)
}
