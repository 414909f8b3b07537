package mdp

import (
	"testing"
	"time"

	"github.com/objectd/objectd/collab"
	"github.com/objectd/objectd/wqe"
)

func TestHandleEIOAsyncViaRecoveryQueue(t *testing.T) {
	engine, err := wqe.NewEngine(nil, nil, nil)
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	defer engine.Close()

	queue, err := engine.NewOrderedQueue("mdp-recovery")
	if err != nil {
		t.Fatalf("NewOrderedQueue() error: %v", err)
	}

	fs := collab.NewMemFS()
	recovery := collab.NewFakeRecovery()
	l := NewLayer(Config{
		FileSystem:    fs,
		Xattr:         collab.NewMemXattrStore(),
		Recovery:      recovery,
		RecoveryQueue: queue,
	})

	if _, err := l.Plug("/d0,/d1"); err != nil {
		t.Fatalf("Plug() error: %v", err)
	}
	faulty := l.Info()[0].Path

	if err := l.HandleEIO(faulty); err == nil {
		t.Fatal("expected NETWORK_ERROR from HandleEIO")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		engine.Dispatch()
		if len(l.Info()) == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if len(l.Info()) != 1 {
		t.Fatalf("Info() has %d entries, want 1 after async recovery", len(l.Info()))
	}
	if recovery.Kicks() == 0 {
		t.Fatal("expected recovery orchestrator to be kicked")
	}
}
