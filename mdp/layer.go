package mdp

import (
	"strings"
	"sync"

	"github.com/objectd/objectd"
	"github.com/objectd/objectd/collab"
	"github.com/objectd/objectd/internal/logging"
	"github.com/objectd/objectd/internal/xattr"
	"github.com/objectd/objectd/wqe"
)

// Layer is the Go realization of the Multi-Disk Placement Layer: a
// consistent-hash ring of weighted virtual disks over a set of storage
// paths, guarded by one process-wide reader/writer lock.
type Layer struct {
	mu    sync.RWMutex
	disks []*Disk
	ring  []VDisk

	fs    collab.FileSystem
	xa    collab.XattrStore
	obs   objectd.Observer
	log   *logging.Logger
	queue *wqe.Queue

	recovery collab.RecoveryOrchestrator

	enabled bool
	legacy  string // single-disk path used when multi-disk is disabled
}

// Config configures a new Layer.
type Config struct {
	// FileSystem is the storage backend for object/sidecar files. Defaults
	// to collab.OSFileSystem{}.
	FileSystem collab.FileSystem
	// Xattr backs the per-path user.md.size bookkeeping. Defaults to
	// collab.OSXattrStore{}.
	Xattr collab.XattrStore
	// Observer receives lookup/EIO/recovery/scan-repair counters. Defaults
	// to objectd.NoOpObserver{}.
	Observer objectd.Observer
	// Recovery is kicked after a successful plug/unplug/evict. A nil value
	// skips the kick entirely (single-node deployments with no orchestrator
	// wired).
	Recovery collab.RecoveryOrchestrator
	// RecoveryQueue carries handle_eio's deferred do_recover work item. It
	// must be a dedicated queue — the caller creates it on a wqe.Engine
	// before constructing the Layer.
	RecoveryQueue *wqe.Queue
	// Enabled selects multi-disk placement from construction. When false,
	// operations use the single legacy path (or return EIO with none
	// configured) until a Plug registers a disk, which turns multi-disk
	// placement on.
	Enabled bool
	// LegacyPath is the single-disk path used when Enabled is false.
	LegacyPath string
}

// NewLayer constructs an empty Layer. Disks are added with Plug.
func NewLayer(cfg Config) *Layer {
	fs := cfg.FileSystem
	if fs == nil {
		fs = collab.OSFileSystem{}
	}
	xa := cfg.Xattr
	if xa == nil {
		xa = collab.OSXattrStore{}
	}
	obs := cfg.Observer
	if obs == nil {
		obs = objectd.NoOpObserver{}
	}
	return &Layer{
		fs:       fs,
		xa:       xa,
		obs:      obs,
		log:      logging.Default().WithComponent("mdp"),
		queue:    cfg.RecoveryQueue,
		recovery: cfg.Recovery,
		enabled:  cfg.Enabled,
		legacy:   cfg.LegacyPath,
	}
}

// Enabled reports whether multi-disk placement is active.
func (l *Layer) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.enabled
}

// PathForOID returns the disk path oid currently hashes to. Runs under the
// read lock.
func (l *Layer) PathForOID(oid uint64) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.enabled {
		if l.legacy == "" {
			return "", objectd.NewError("path_for_oid", objectd.EIO, "multi-disk placement disabled and no legacy path configured")
		}
		return l.legacy, nil
	}

	idx, ok := lookup(l.ring, oid)
	if !ok {
		return "", objectd.NewError("path_for_oid", objectd.EIO, "no disks registered")
	}
	return l.disks[idx].path, nil
}

// Info returns a per-disk status snapshot under the read lock.
func (l *Layer) Info() []DiskStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]DiskStatus, 0, len(l.disks))
	for i, d := range l.disks {
		out = append(out, DiskStatus{
			Path:      d.path,
			Index:     i,
			NrVDisks:  d.nrVDisks,
			FreeSpace: d.freeSpace,
			UsedSpace: l.usedSpaceLocked(d),
			ReadErrs:  d.readErrs.Load(),
			WriteErrs: d.writeErrs.Load(),
		})
	}
	return out
}

func (l *Layer) usedSpaceLocked(d *Disk) uint64 {
	entries, err := l.fs.ReadDir(d.path)
	if err != nil {
		return 0
	}
	var used uint64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := xattr.ParseObjectName(e.Name()); !ok {
			continue
		}
		info, err := e.Info()
		if err == nil {
			used += uint64(info.Size())
		}
	}
	return used
}

// Plug parses a comma-separated list of absolute paths and adds any not
// already registered, initializing each and rebuilding the ring if the
// disk count changed. Returns whether anything changed.
func (l *Layer) Plug(csv string) (bool, error) {
	paths := splitPaths(csv)

	l.mu.Lock()
	defer l.mu.Unlock()

	before := len(l.disks)
	for _, p := range paths {
		if l.hasDiskLocked(p) {
			continue
		}
		space, err := l.initPathLocked(p)
		if err != nil {
			l.log.Warn("skipping disk that failed init_path", "path", p, "error", err.Error())
			continue
		}
		l.disks = append(l.disks, &Disk{path: p, freeSpace: space})
	}

	if len(l.disks) == before {
		return false, nil
	}

	l.ring = buildRing(l.disks)
	l.enabled = true
	l.kickRecoveryLocked()
	return true, nil
}

// Unplug parses a comma-separated list of absolute paths and removes any
// registered disk matching one, rebuilding the ring if the disk count
// changed. The last active disk is never removed by Unplug: when every
// registered path is listed, the last one in registry order is kept.
// do_recover keeps the last disk as well.
func (l *Layer) Unplug(csv string) (bool, error) {
	remove := make(map[string]bool)
	for _, p := range splitPaths(csv) {
		remove[p] = true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	before := len(l.disks)
	if before <= 1 {
		return false, nil
	}

	kept := l.disks[:0:0]
	removed := 0
	for _, d := range l.disks {
		if remove[d.path] && removed < before-1 {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	l.disks = kept

	if len(l.disks) == before {
		return false, nil
	}

	l.ring = buildRing(l.disks)
	l.kickRecoveryLocked()
	return true, nil
}

func (l *Layer) hasDiskLocked(path string) bool {
	for _, d := range l.disks {
		if d.path == path {
			return true
		}
	}
	return false
}

func (l *Layer) kickRecoveryLocked() {
	l.obs.ObserveDisksActive(len(l.disks))
	if l.recovery == nil {
		return
	}
	view := snapshotDisks(l.disks)
	if err := l.recovery.StartRecovery(view, view); err != nil {
		l.log.Warn("recovery orchestrator returned an error", "error", err.Error())
	}
	l.obs.ObserveRecoveryKick("")
}

func snapshotDisks(disks []*Disk) collab.View {
	paths := make([]string, len(disks))
	for i, d := range disks {
		paths[i] = d.path
	}
	return paths
}

func splitPaths(csv string) []string {
	var out []string
	for _, p := range strings.Split(csv, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
