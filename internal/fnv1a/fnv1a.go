// Package fnv1a implements the 64-bit FNV-1a hash used by both object
// lookup and vdisk-ring construction, so the two call sites can never drift
// apart on offset/prime constants.
package fnv1a

const (
	offset64 uint64 = 0xcbf29ce484222325
	prime64  uint64 = 0x100000001b3
)

// Hash64 folds b into a fresh FNV-1a/64 state and returns the digest.
func Hash64(b []byte) uint64 {
	return Fold(offset64, b)
}

// Fold continues an FNV-1a/64 computation from an existing state, folding
// in each byte of b in order.
func Fold(state uint64, b []byte) uint64 {
	for _, c := range b {
		state ^= uint64(c)
		state *= prime64
	}
	return state
}

// VDiskID reproduces the exact hash-point byte stream for vdisk i out of n
// remaining total points, for a disk at the given path: seed the state from
// the big-endian encoding of (index, remaining), then fold the path's bytes
// in reverse order. Two disks with the same path at different ring
// positions must never collide, which is why index/remaining are folded in
// before the path.
func VDiskID(path string, index, remaining uint16) uint64 {
	seed := [4]byte{
		byte(index >> 8), byte(index),
		byte(remaining >> 8), byte(remaining),
	}
	state := Fold(offset64, seed[:])
	for i := len(path) - 1; i >= 0; i-- {
		state ^= uint64(path[i])
		state *= prime64
	}
	return state
}

// ObjectID hashes an opaque object identifier by folding its 8-byte
// big-endian encoding (not its 16-hex-digit file name), matching VDiskID's
// byte-level determinism.
func ObjectID(oid uint64) uint64 {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(oid >> (8 * (7 - i)))
	}
	return Hash64(buf[:])
}
