package slab

import "errors"

// Configuration-time failures (spec.md §7, "configuration").
var (
	// ErrCapacityTooLarge is returned by SetCapacity when n would make a slot
	// index collide with a handle's tag bits.
	ErrCapacityTooLarge = errors.New("slab: capacity too large for handle width")

	// ErrAllocationInProgress is returned by SetCapacity when the arena's
	// buffer has already been acquired; capacity is immutable from then on
	// until the buffer is released.
	ErrAllocationInProgress = errors.New("slab: buffer already acquired, capacity is now immutable")
)

// ErrOutOfMemory is the sole runtime failure (spec.md §7): the free list is
// empty and usedCapacity has reached capacity, or the buffer source itself
// failed to acquire memory.
var ErrOutOfMemory = errors.New("slab: arena capacity exhausted")
