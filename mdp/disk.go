// Package mdp implements the Multi-Disk Placement Layer: a consistent-hash
// ring of weighted virtual disks mapping object identifiers onto one of
// several local storage paths, with scan-and-repair and disk-failure
// recovery.
package mdp

import (
	"sync/atomic"
)

// DiskStatus reports a disk's placement state and its read/write error
// counters. A disk is never marked failed by this layer itself — that
// happens only through handle_eio/do_recover. Info() reports the counters,
// but no operation of the layer increments them, so they read zero.
type DiskStatus struct {
	Path      string
	Index     int
	NrVDisks  uint16
	FreeSpace uint64
	UsedSpace uint64
	ReadErrs  uint64
	WriteErrs uint64
}

// Disk is one registered storage path: a root directory plus the
// bookkeeping the placement ring needs to weight it.
type Disk struct {
	path      string
	nrVDisks  uint16
	freeSpace uint64 // set from init_path when plugged; unplug/do_recover rebuilds reuse it without re-reading

	readErrs  atomic.Uint64
	writeErrs atomic.Uint64
}

// Path returns the disk's root directory.
func (d *Disk) Path() string { return d.path }

// NrVDisks returns the number of ring points this disk currently owns.
func (d *Disk) NrVDisks() uint16 { return d.nrVDisks }

func (d *Disk) recordReadErr()  { d.readErrs.Add(1) }
func (d *Disk) recordWriteErr() { d.writeErrs.Add(1) }

// VDisk is one point on the consistent-hash ring.
type VDisk struct {
	ID  uint64
	Idx uint16 // index into Layer.disks
}
