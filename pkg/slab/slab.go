// Package slab implements the fixed-capacity, fixed-slot-size index
// allocator at the core of this module: [Arena] for single-threaded use,
// [Concurrent] for safe concurrent allocate/deallocate.
//
// Both hand out 1-based slot indices ("handles") into a single contiguous
// buffer instead of native pointers, recycling freed slots through a free
// list embedded in the slots themselves — the same trick
// [github.com/flier/goutil/pkg/arena.Recycled] uses for its per-size-class
// free lists, specialized here to a single fixed slot size so the free-list
// link doubles as the handle itself.
package slab

import (
	"unsafe"

	"github.com/flier/slabptr/internal/debug"
	"github.com/flier/slabptr/pkg/bufsrc"
	"github.com/flier/slabptr/pkg/raw"
	"github.com/flier/slabptr/pkg/xunsafe"
)

// Allocator is the contract both [Arena] and [Concurrent] satisfy: a
// fixed-capacity, fixed-slot-size allocator addressed by handles of type H.
type Allocator[H raw.Handle] interface {
	SetCapacity(n int) error
	Allocate(size int) (H, error)
	Deallocate(h H, size int)
	GetElement(h H) unsafe.Pointer
	PointerTo(addr unsafe.Pointer) H
	Reset()
	FreeMemory()

	Begin() unsafe.Pointer
	End() unsafe.Pointer
	Capacity() int
	UsedCapacity() int
	ElementSize() int
	DeleteEnabled() bool
	EnableDelete(bool)
}

// tagBits is the number of high bits [Arena]/[Concurrent] reserve in every
// handle for a location tag, matching the conservative (simple-encoding)
// bound spec.md §4.B states literally. A [github.com/flier/slabptr/pkg/hconf]
// config built over the universal (two-tag-bit) encoding enforces the
// stricter bound itself at construction time.
const tagBits = 1

// Arena is the single-threaded slab arena (spec.md §4.B).
//
// A zero Arena is not ready to use; construct one with [New].
type Arena[H raw.Handle] struct {
	source bufsrc.Source

	capacity       int
	elementSize    int
	acquired       bool
	usedCapacity   int
	allocatedCount int
	freeHead       H
	deleteEnabled  bool
}

var _ Allocator[uint32] = (*Arena[uint32])(nil)

// New constructs an [Arena] with the given capacity, delete policy, and
// buffer source. The buffer itself is not acquired until the first
// [Arena.Allocate].
func New[H raw.Handle](capacity int, deleteEnabled bool, source bufsrc.Source) (*Arena[H], error) {
	a := &Arena[H]{source: source, deleteEnabled: deleteEnabled}
	if err := a.SetCapacity(capacity); err != nil {
		return nil, err
	}
	return a, nil
}

// SetCapacity implements [Allocator].
func (a *Arena[H]) SetCapacity(n int) error {
	if !raw.FitsCapacity[H](n, tagBits) {
		return ErrCapacityTooLarge
	}
	if a.acquired {
		return ErrAllocationInProgress
	}
	a.capacity = n
	return nil
}

// EnableDelete implements [Allocator].
func (a *Arena[H]) EnableDelete(on bool) { a.deleteEnabled = on }

// DeleteEnabled implements [Allocator].
func (a *Arena[H]) DeleteEnabled() bool { return a.deleteEnabled }

// Capacity implements [Allocator].
func (a *Arena[H]) Capacity() int { return a.capacity }

// UsedCapacity implements [Allocator].
func (a *Arena[H]) UsedCapacity() int { return a.usedCapacity }

// ElementSize implements [Allocator].
func (a *Arena[H]) ElementSize() int { return a.elementSize }

// AllocatedCount returns the number of currently live slots. Here it drives
// the auto-reset on drain; [Concurrent.AllocatedCount] is kept for
// diagnostics only.
func (a *Arena[H]) AllocatedCount() int { return a.allocatedCount }

// Begin implements [Allocator]. Returns nil if the buffer has not been
// acquired yet.
func (a *Arena[H]) Begin() unsafe.Pointer {
	if !a.acquired {
		return nil
	}
	return a.source.Base()
}

// End implements [Allocator].
func (a *Arena[H]) End() unsafe.Pointer {
	base := a.Begin()
	if base == nil {
		return nil
	}
	return unsafe.Add(base, a.capacity*a.elementSize)
}

// Allocate implements [Allocator].
//
// size must equal the locked element size, or this must be the first
// allocation ever made on this arena (in which case size becomes the locked
// element size). Violating this is a usage bug, checked only under debug
// builds per spec.md §7.
func (a *Arena[H]) Allocate(size int) (H, error) {
	if a.elementSize == 0 {
		debug.Assert(size%(raw.Bits[H]()/8) == 0, "element size %d must be a multiple of the handle width", size)
		a.elementSize = size
	} else {
		debug.Assert(size == a.elementSize, "allocation size %d does not match locked element size %d", size, a.elementSize)
	}

	if !a.acquired {
		if err := a.source.Acquire(a.capacity * a.elementSize); err != nil {
			return 0, ErrOutOfMemory
		}
		a.acquired = true
	}

	var h H
	if a.freeHead != 0 {
		h = a.freeHead
		a.freeHead = a.readNext(h)
	} else if a.usedCapacity < a.capacity {
		a.usedCapacity++
		h = H(a.usedCapacity)
	} else {
		return 0, ErrOutOfMemory
	}

	a.allocatedCount++
	debug.Log(nil, "allocate", "handle=%d used=%d live=%d", h, a.usedCapacity, a.allocatedCount)
	return h, nil
}

// Deallocate implements [Allocator].
func (a *Arena[H]) Deallocate(h H, size int) {
	debug.Assert(size == a.elementSize, "deallocation size %d does not match locked element size %d", size, a.elementSize)
	debug.Assert(h >= 1 && int(h) <= a.usedCapacity, "deallocate of out-of-range handle %d", h)

	a.allocatedCount--
	if a.allocatedCount == 0 {
		// Deliberate optimization (spec.md §4.B "Edge cases"): returning to
		// zero live slots resets the bump pointer and discards the free
		// list, so the next batch of allocations can reuse the space
		// without walking a stale chain. Safe only because no outstanding
		// handle can still reference this arena.
		a.Reset()
		return
	}

	if a.deleteEnabled {
		a.writeNext(h, a.freeHead)
		a.freeHead = h
	}
	debug.Log(nil, "deallocate", "handle=%d live=%d", h, a.allocatedCount)
}

// GetElement implements [Allocator].
func (a *Arena[H]) GetElement(h H) unsafe.Pointer {
	debug.Assert(h >= 1 && int(h) <= a.usedCapacity, "dereference of out-of-range handle %d", h)
	return unsafe.Add(a.Begin(), (int(h)-1)*a.elementSize)
}

// PointerTo implements [Allocator].
func (a *Arena[H]) PointerTo(addr unsafe.Pointer) H {
	base := a.Begin()
	off := uintptr(addr) - uintptr(base)
	debug.Assert(off%uintptr(a.elementSize) == 0, "address %p is not slot-aligned", addr)
	return H(off/uintptr(a.elementSize)) + 1
}

// Reset implements [Allocator]. Clears the free list and the high-water
// mark; the buffer itself is kept.
func (a *Arena[H]) Reset() {
	a.freeHead = 0
	a.usedCapacity = 0
	a.allocatedCount = 0
}

// FreeMemory implements [Allocator]. Resets, then releases the buffer and
// forgets the locked element size, returning the arena to its pre-first-use
// state.
func (a *Arena[H]) FreeMemory() {
	a.Reset()
	if a.acquired {
		a.source.Release()
		a.acquired = false
	}
	a.elementSize = 0
}

func (a *Arena[H]) readNext(h H) H {
	return *xunsafe.Cast[H]((*byte)(a.GetElement(h)))
}

func (a *Arena[H]) writeNext(h H, next H) {
	*xunsafe.Cast[H]((*byte)(a.GetElement(h))) = next
}
