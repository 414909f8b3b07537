// Package xattr wraps the extended-attribute syscalls MDP uses to persist
// the user.md.size byte count on each disk path, plus the object-path
// naming helpers shared between lookup, iteration, and scan-and-repair.
package xattr

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// SizeAttr is the extended attribute name MDP stores the live-byte count
// under on every disk path.
const SizeAttr = "user.md.size"

// Supported reports whether path's filesystem accepts extended attributes,
// by probing a Listxattr call. A disk whose filesystem rejects this is
// dropped by the caller.
func Supported(path string) bool {
	_, err := unix.Listxattr(path, nil)
	return err == nil
}

// GetUint64 reads an 8-byte little-endian attribute. ok is false if the
// attribute does not exist.
func GetUint64(path, name string) (v uint64, ok bool, err error) {
	buf := make([]byte, 8)
	n, err := unix.Getxattr(path, name, buf)
	if err != nil {
		if err == unix.ENODATA {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("getxattr %s %s: %w", path, name, err)
	}
	if n != 8 {
		return 0, false, fmt.Errorf("getxattr %s %s: unexpected length %d", path, name, n)
	}
	return binary.LittleEndian.Uint64(buf), true, nil
}

// SetUint64 writes an 8-byte little-endian attribute.
func SetUint64(path, name string, v uint64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	if err := unix.Setxattr(path, name, buf, 0); err != nil {
		return fmt.Errorf("setxattr %s %s: %w", path, name, err)
	}
	return nil
}

const tmpSuffix = ".tmp"
const staleDir = ".stale"

// LivePath returns the canonical on-disk filename for oid under disk root
// dir: 16 lowercase hex digits.
func LivePath(dir string, oid uint64) string {
	return dir + "/" + fmt.Sprintf("%016x", oid)
}

// TempPath returns the in-progress write filename for oid.
func TempPath(dir string, oid uint64) string {
	return LivePath(dir, oid) + tmpSuffix
}

// StaleDir returns the sidecar directory holding prior-epoch snapshots for
// disk root dir.
func StaleDir(dir string) string {
	return dir + "/" + staleDir
}

// StalePath returns the epoch-snapshot filename for oid at the given epoch.
func StalePath(dir string, oid uint64, epoch uint32) string {
	return fmt.Sprintf("%s/%016x.%d", StaleDir(dir), oid, epoch)
}

// ParseObjectName parses a bare object filename (no directory component)
// into its identifier. ok is false for dot-files, .tmp files, or names that
// don't parse as nonzero 16-hex-digit identifiers — callers skip those
// during iteration.
func ParseObjectName(name string) (oid uint64, ok bool) {
	if name == "" || strings.HasPrefix(name, ".") {
		return 0, false
	}
	if strings.HasSuffix(name, tmpSuffix) {
		return 0, false
	}
	if len(name) != 16 {
		return 0, false
	}
	v, err := strconv.ParseUint(name, 16, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return v, true
}
