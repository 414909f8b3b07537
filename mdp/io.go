package mdp

import (
	"github.com/objectd/objectd"
	"github.com/objectd/objectd/internal/xattr"
	"github.com/objectd/objectd/wqe"
)

// initPathLocked verifies xattr support, ensures the .stale sidecar
// directory exists, and returns the path's recorded live-byte count — read
// from user.md.size if present, else computed by summing every object
// file's size and writing the attribute. Any failing step returns (0, err);
// the caller drops the disk on a non-nil error. A zero size with a nil error
// (an empty disk) is kept.
func (l *Layer) initPathLocked(p string) (uint64, error) {
	if !l.xa.Supported(p) {
		return 0, objectd.NewPathError("init_path", p, objectd.EIO, "extended attributes not supported")
	}
	if err := l.fs.MkdirAll(xattr.StaleDir(p), 0o755); err != nil {
		return 0, objectd.WrapError("init_path", err)
	}

	if size, ok, err := l.xa.GetUint64(p, xattr.SizeAttr); err != nil {
		return 0, objectd.WrapError("init_path", err)
	} else if ok {
		return size, nil
	}

	var total uint64
	entries, err := l.fs.ReadDir(p)
	if err != nil {
		return 0, objectd.WrapError("init_path", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := xattr.ParseObjectName(e.Name()); !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		total += uint64(info.Size())
	}

	if err := l.xa.SetUint64(p, xattr.SizeAttr, total); err != nil {
		return 0, objectd.WrapError("init_path", err)
	}
	return total, nil
}

// ObjectVisitor is invoked once per live object encountered during
// ForEachObject. A non-nil return stops iteration and is propagated to the
// caller.
type ObjectVisitor func(diskPath string, oid uint64) error

// ForEachObject iterates every live object under every registered disk in
// order, stopping at the first non-nil visitor error. When multi-disk
// placement is disabled, it iterates the single legacy path instead. If
// cleanup is true, stray .tmp files are unlinked opportunistically and not
// reported to fn.
func (l *Layer) ForEachObject(fn ObjectVisitor, cleanup bool) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.enabled {
		if l.legacy == "" {
			return objectd.NewError("for_each_object", objectd.EIO, "multi-disk placement disabled and no legacy path configured")
		}
		return l.iterateDiskLocked(l.legacy, fn, cleanup)
	}

	for _, d := range l.disks {
		if err := l.iterateDiskLocked(d.path, fn, cleanup); err != nil {
			return err
		}
	}
	return nil
}

func (l *Layer) iterateDiskLocked(path string, fn ObjectVisitor, cleanup bool) error {
	entries, err := l.fs.ReadDir(path)
	if err != nil {
		return objectd.WrapError("for_each_object", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if cleanup && hasTmpSuffix(name) {
			_ = l.fs.Remove(path + "/" + name)
			continue
		}
		oid, ok := xattr.ParseObjectName(name)
		if !ok {
			continue
		}
		if err := fn(path, oid); err != nil {
			return err
		}
	}
	return nil
}

func hasTmpSuffix(name string) bool {
	const suffix = ".tmp"
	return len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix
}

// Exists tests oid's primary (hash-correct) path; on miss it performs
// scan-and-repair under the write lock, renaming a misplaced object file to
// its hash-correct disk on the first hit.
func (l *Layer) Exists(oid uint64) (bool, error) {
	path, err := l.PathForOID(oid)
	if err != nil {
		return false, err
	}
	live := xattr.LivePath(path, oid)
	if _, err := l.fs.Stat(live); err == nil {
		l.obs.ObserveLookup(true)
		return true, nil
	}

	found, err := l.scanAndRepair(oid, func(diskPath string) string {
		return xattr.LivePath(diskPath, oid)
	}, live)
	l.obs.ObserveLookup(found)
	return found, err
}

// StalePath does the same scan-and-repair as Exists but for a specific
// epoch's .stale/ snapshot. epoch must be nonzero.
func (l *Layer) StalePath(oid uint64, epoch uint32) (bool, error) {
	if epoch == 0 {
		return false, objectd.NewError("stale_path", objectd.NoObj, "epoch must be nonzero")
	}
	path, err := l.PathForOID(oid)
	if err != nil {
		return false, err
	}
	target := xattr.StalePath(path, oid, epoch)
	if _, err := l.fs.Stat(target); err == nil {
		l.obs.ObserveLookup(true)
		return true, nil
	}

	found, err := l.scanAndRepair(oid, func(diskPath string) string {
		return xattr.StalePath(diskPath, oid, epoch)
	}, target)
	l.obs.ObserveLookup(found)
	return found, err
}

// scanAndRepair escalates to the write lock (resolved design choice:
// option (a) from the on-disk-rename race) and checks every other disk for
// a misplaced copy, renaming it into place on the first hit.
func (l *Layer) scanAndRepair(oid uint64, pathOn func(diskPath string) string, correctPath string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, d := range l.disks {
		candidate := pathOn(d.path)
		if candidate == correctPath {
			continue
		}
		if _, err := l.fs.Stat(candidate); err != nil {
			continue
		}
		if err := l.fs.Rename(candidate, correctPath); err != nil {
			continue
		}
		l.obs.ObserveScanRepair(oid)
		return true, nil
	}
	return false, objectd.NewError("exists", objectd.NoObj, "object not found on any disk")
}

// HandleEIO is invoked when I/O against faultyPath fails. It enqueues a
// work item on the dedicated recovery queue whose Done step runs do_recover
// when the engine dispatches completions, and returns
// NETWORK_ERROR so the caller retries once recovery has run, or EIO
// directly if multi-disk placement is disabled, no disks remain, or
// faultyPath is the last disk left (it is kept as a phantom entry rather
// than evicted).
func (l *Layer) HandleEIO(faultyPath string) error {
	l.obs.ObserveEIO(faultyPath)

	l.mu.RLock()
	disabled := !l.enabled
	lastDisk := len(l.disks) <= 1
	l.mu.RUnlock()

	if disabled || lastDisk {
		return objectd.NewPathError("handle_eio", faultyPath, objectd.EIO, "no disks available")
	}

	if l.queue == nil {
		// No recovery queue wired: recover synchronously rather than drop
		// the report.
		l.doRecover(faultyPath)
		return objectd.NewPathError("handle_eio", faultyPath, objectd.NetworkError, "recovery in progress")
	}

	l.queue.Submit(&wqe.Item{
		Done: func(error) { l.doRecover(faultyPath) },
	})
	return objectd.NewPathError("handle_eio", faultyPath, objectd.NetworkError, "recovery in progress")
}

// doRecover removes the faulty disk and rebuilds the ring. A duplicate
// report (the path was already removed) is a silent no-op, and the last
// remaining disk is never evicted — it is kept as a phantom entry per the
// last-disk invariant.
func (l *Layer) doRecover(faultyPath string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.disks) <= 1 {
		return
	}

	idx := -1
	for i, d := range l.disks {
		if d.path == faultyPath {
			idx = i
			break
		}
	}
	if idx == -1 {
		return // duplicate report
	}

	l.disks = append(l.disks[:idx], l.disks[idx+1:]...)
	l.ring = buildRing(l.disks)

	if len(l.disks) > 0 {
		l.kickRecoveryLocked()
	} else {
		l.obs.ObserveDisksActive(0)
	}
}
