// Package collab defines the contracts WQE and MDP require from the rest
// of the daemon — the event loop the completion signal rides on, cluster
// membership for the DYNAMIC roof, the recovery orchestrator, and the
// goroutine tracer — plus in-memory fakes for tests. These are kept
// separate from wqe/mdp themselves to avoid those packages importing each
// other's concrete types just to agree on a callback shape.
package collab

import "sync"

// EventLoop registers a readiness file descriptor with the host's I/O
// event loop. callback is invoked (on whatever thread the loop dispatches
// on) whenever fd becomes readable.
type EventLoop interface {
	RegisterEvent(fd int, callback func()) error
}

// Membership reports the current cluster node count, which bounds the
// DYNAMIC thread-control policy's roof at 2x.
type Membership interface {
	NodeCount() int
}

// View is an opaque cluster-membership snapshot passed to the recovery
// orchestrator; WQE and MDP never inspect its contents.
type View any

// RecoveryOrchestrator is kicked after a successful disk plug, unplug, or
// eviction so it can rebalance placement-dependent state. Both arguments
// are the same snapshot — kept as two parameters to mirror the call shape
// the spec describes.
type RecoveryOrchestrator interface {
	StartRecovery(before, after View) error
}

// ThreadTracer registers and unregisters worker goroutines with an
// external tracing collaborator, one call per goroutine lifecycle
// transition.
type ThreadTracer interface {
	RegisterThread(tid uint64)
	UnregisterThread(tid uint64)
}

// NoopTracer discards every registration; the zero value is ready to use.
type NoopTracer struct{}

func (NoopTracer) RegisterThread(uint64)   {}
func (NoopTracer) UnregisterThread(uint64) {}

// StaticMembership reports a fixed node count, for single-node deployments
// and tests.
type StaticMembership int

func (m StaticMembership) NodeCount() int { return int(m) }

// FakeRecovery is an in-memory RecoveryOrchestrator that records every kick
// for test assertions.
type FakeRecovery struct {
	mu    sync.Mutex
	kicks int
	err   error
}

// NewFakeRecovery returns a FakeRecovery whose StartRecovery always
// succeeds until SetError is called.
func NewFakeRecovery() *FakeRecovery {
	return &FakeRecovery{}
}

func (f *FakeRecovery) StartRecovery(before, after View) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kicks++
	return f.err
}

// Kicks returns the number of times StartRecovery has been called.
func (f *FakeRecovery) Kicks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.kicks
}

// SetError makes subsequent StartRecovery calls return err.
func (f *FakeRecovery) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

var (
	_ Membership           = StaticMembership(0)
	_ ThreadTracer         = NoopTracer{}
	_ RecoveryOrchestrator = (*FakeRecovery)(nil)
)
