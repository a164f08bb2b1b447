// Package raw defines the integer handle types the rest of this module is
// built around, and the small amount of bit arithmetic every other package
// needs to reason about handle widths.
//
// A handle is an unsigned integer standing in for a pointer. Zero is always
// null; non-null values are partitioned by their top one or two bits into an
// arena slot index, a stack offset, or (in the universal encoding) a
// container-body offset. This package only knows about the width of the
// integer, not what the bits mean — see [github.com/flier/slabptr/pkg/hconf]
// for the encoding itself.
package raw

import "unsafe"

// Handle is the set of integer types usable as a handle. Only 16- and
// 32-bit unsigned integers are supported: wide enough to address a useful
// arena, narrow enough that each is a quarter or half the size of a 64-bit
// native pointer.
type Handle interface {
	~uint16 | ~uint32
}

// Bits returns the bit width of H.
func Bits[H Handle]() int {
	var z H
	return int(unsafe.Sizeof(z)) * 8
}

// Max returns the largest representable value of H, i.e. ^H(0).
func Max[H Handle]() H {
	return ^H(0)
}

// FitsCapacity reports whether capacity n can be addressed by H, reserving
// tagBits at the top for location tags. This is the test the slab arenas'
// SetCapacity methods use to reject capacities that would collide with a tag bit.
func FitsCapacity[H Handle](n int, tagBits int) bool {
	if n < 0 {
		return false
	}
	limit := 1 << (Bits[H]() - tagBits)
	return n < limit
}
