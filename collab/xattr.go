package collab

import (
	"sync"

	"github.com/objectd/objectd/internal/xattr"
)

// XattrStore abstracts the user.md.size extended attribute MDP keeps on
// every disk path, so placement-layer tests can run against paths that
// don't support real extended attributes.
type XattrStore interface {
	Supported(path string) bool
	GetUint64(path, name string) (v uint64, ok bool, err error)
	SetUint64(path, name string, v uint64) error
}

// OSXattrStore is the production XattrStore, backed by real extended
// attribute syscalls.
type OSXattrStore struct{}

func (OSXattrStore) Supported(path string) bool { return xattr.Supported(path) }

func (OSXattrStore) GetUint64(path, name string) (uint64, bool, error) {
	return xattr.GetUint64(path, name)
}

func (OSXattrStore) SetUint64(path, name string, v uint64) error {
	return xattr.SetUint64(path, name, v)
}

var _ XattrStore = OSXattrStore{}

// MemXattrStore is an in-memory XattrStore double for tests.
type MemXattrStore struct {
	mu    sync.RWMutex
	attrs map[string]uint64
}

// NewMemXattrStore returns an empty in-memory attribute store.
func NewMemXattrStore() *MemXattrStore {
	return &MemXattrStore{attrs: make(map[string]uint64)}
}

func (m *MemXattrStore) key(path, name string) string { return path + "\x00" + name }

// Supported always reports true: the in-memory store has no real filesystem
// to probe.
func (m *MemXattrStore) Supported(string) bool { return true }

func (m *MemXattrStore) GetUint64(path, name string) (uint64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.attrs[m.key(path, name)]
	return v, ok, nil
}

func (m *MemXattrStore) SetUint64(path, name string, v uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attrs[m.key(path, name)] = v
	return nil
}

var _ XattrStore = (*MemXattrStore)(nil)
