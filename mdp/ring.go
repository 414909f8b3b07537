package mdp

import (
	"math"
	"sort"

	"github.com/objectd/objectd/internal/fnv1a"
)

// buildRing computes each live disk's weight and lays out its ring points,
// then returns the points sorted ascending by id. Disk weighting is
// nr_vdisks(d) = round(128 * space(d) / mean_space); ties are not broken
// specially.
func buildRing(disks []*Disk) []VDisk {
	n := len(disks)
	if n == 0 {
		return nil
	}

	var totalSpace uint64
	for _, d := range disks {
		totalSpace += d.freeSpace
	}
	meanSpace := float64(totalSpace) / float64(n)

	var ring []VDisk
	for idx, d := range disks {
		// meanSpace == 0 means every disk reports zero live bytes (e.g. a
		// freshly initialized empty disk); 128*0/0 is indeterminate, so fall
		// back to the base weight of 128 per disk rather than dropping it
		// out of the ring entirely.
		weight := uint16(128)
		if meanSpace > 0 {
			weight = uint16(math.Round(128 * float64(d.freeSpace) / meanSpace))
		}
		d.nrVDisks = weight

		for i := uint16(0); i < weight; i++ {
			remaining := weight - i
			id := fnv1a.VDiskID(d.path, i, remaining)
			ring = append(ring, VDisk{ID: id, Idx: uint16(idx)})
		}
	}

	sort.Slice(ring, func(i, j int) bool { return ring[i].ID < ring[j].ID })
	return ring
}

// lookup returns the index into disks that oid's hash maps to, via binary
// search for the lowest ring entry with id >= h, wrapping to entry 0 when
// none exists.
func lookup(ring []VDisk, oid uint64) (idx uint16, ok bool) {
	if len(ring) == 0 {
		return 0, false
	}

	h := fnv1a.ObjectID(oid)
	i := sort.Search(len(ring), func(i int) bool { return ring[i].ID >= h })
	if i == len(ring) {
		i = 0
	}
	return ring[i].Idx, true
}
