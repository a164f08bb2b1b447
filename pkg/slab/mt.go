package slab

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/flier/slabptr/internal/debug"
	"github.com/flier/slabptr/pkg/bufsrc"
	"github.com/flier/slabptr/pkg/raw"
	"github.com/flier/slabptr/pkg/xunsafe"
)

// Concurrent is the multi-threaded slab arena (spec.md §4.C). Allocate and
// Deallocate are safe to call from any goroutine once the buffer has been
// acquired; SetCapacity, Reset, and FreeMemory are not, and require the
// caller to ensure external quiescence.
//
// The free list's head is a tagged (stamp, handle) pair packed into a single
// atomic.Uint64 — the stamp is a monotonically increasing counter wide
// enough it cannot wrap during any bounded push/pop retry loop, which rules
// out the ABA class of bug a bare CAS on the handle alone would be exposed
// to. This follows the same "wrap a narrower value in a single atomic word"
// idiom as github.com/flier/goutil/internal/xsync.AtomicFloat64, just with a
// stamp+payload split instead of a bit-identical float.
type Concurrent[H raw.Handle] struct {
	source bufsrc.Source

	capacity    int
	elementSize int

	usedCapacity   atomic.Int64
	allocatedCount atomic.Int64
	freeHead       atomic.Uint64 // (stamp uint32 << 32) | handle uint32

	acquireOnce sync.Once
	acquireErr  error
	acquired    atomic.Bool

	deleteEnabled bool
}

var _ Allocator[uint32] = (*Concurrent[uint32])(nil)

// NewConcurrent constructs a [Concurrent] arena.
func NewConcurrent[H raw.Handle](capacity int, deleteEnabled bool, source bufsrc.Source) (*Concurrent[H], error) {
	a := &Concurrent[H]{source: source, deleteEnabled: deleteEnabled}
	if err := a.SetCapacity(capacity); err != nil {
		return nil, err
	}
	return a, nil
}

// SetCapacity implements [Allocator]. Not safe for concurrent use.
func (a *Concurrent[H]) SetCapacity(n int) error {
	if !raw.FitsCapacity[H](n, tagBits) {
		return ErrCapacityTooLarge
	}
	if a.acquired.Load() {
		return ErrAllocationInProgress
	}
	a.capacity = n
	return nil
}

func (a *Concurrent[H]) EnableDelete(on bool) { a.deleteEnabled = on }
func (a *Concurrent[H]) DeleteEnabled() bool  { return a.deleteEnabled }
func (a *Concurrent[H]) Capacity() int        { return a.capacity }
func (a *Concurrent[H]) UsedCapacity() int    { return int(a.usedCapacity.Load()) }
func (a *Concurrent[H]) ElementSize() int     { return a.elementSize }

// AllocatedCount returns the live slot count. Tracked on a best-effort basis
// for diagnostics and tests (spec.md §8 scenario 5); it is not load-bearing
// for correctness the way the ST arena's copy is.
func (a *Concurrent[H]) AllocatedCount() int { return int(a.allocatedCount.Load()) }

func (a *Concurrent[H]) Begin() unsafe.Pointer {
	if !a.acquired.Load() {
		return nil
	}
	return a.source.Base()
}

func (a *Concurrent[H]) End() unsafe.Pointer {
	base := a.Begin()
	if base == nil {
		return nil
	}
	return unsafe.Add(base, a.capacity*a.elementSize)
}

// ensureBuffer acquires the backing buffer exactly once across all
// goroutines; a failed acquisition is latched so later callers fail fast
// instead of retrying the buffer source (spec.md §4.C, §7).
func (a *Concurrent[H]) ensureBuffer(size int) error {
	a.acquireOnce.Do(func() {
		if a.elementSize == 0 {
			a.elementSize = size
		}
		a.acquireErr = a.source.Acquire(a.capacity * a.elementSize)
		if a.acquireErr == nil {
			a.acquired.Store(true)
		}
	})
	return a.acquireErr
}

// Allocate implements [Allocator].
func (a *Concurrent[H]) Allocate(size int) (H, error) {
	if err := a.ensureBuffer(size); err != nil {
		return 0, ErrOutOfMemory
	}
	debug.Assert(size == a.elementSize, "allocation size %d does not match locked element size %d", size, a.elementSize)

	if h := a.pop(); h != 0 {
		a.allocatedCount.Add(1)
		debug.Log(nil, "allocate", "handle=%d (recycled)", h)
		return h, nil
	}

	next := a.usedCapacity.Add(1)
	if next > int64(a.capacity) {
		a.usedCapacity.Add(-1)
		return 0, ErrOutOfMemory
	}

	a.allocatedCount.Add(1)
	h := H(next)
	debug.Log(nil, "allocate", "handle=%d (bump)", h)
	return h, nil
}

// Deallocate implements [Allocator].
func (a *Concurrent[H]) Deallocate(h H, size int) {
	debug.Assert(size == a.elementSize, "deallocation size %d does not match locked element size %d", size, a.elementSize)

	a.allocatedCount.Add(-1)
	if a.deleteEnabled {
		a.push(h)
	}
	debug.Log(nil, "deallocate", "handle=%d", h)
}

// GetElement implements [Allocator].
//
// No additional fence is needed here beyond what the caller's own
// publication of the handle already establishes (spec.md §4.C "Assumption
// that avoids a read barrier"): by the time a consuming goroutine has a
// handle in hand, the producing goroutine's Allocate has synchronized with
// it through the container's own handoff.
func (a *Concurrent[H]) GetElement(h H) unsafe.Pointer {
	return unsafe.Add(a.Begin(), (int(h)-1)*a.elementSize)
}

// PointerTo implements [Allocator].
func (a *Concurrent[H]) PointerTo(addr unsafe.Pointer) H {
	base := a.Begin()
	off := uintptr(addr) - uintptr(base)
	debug.Assert(off%uintptr(a.elementSize) == 0, "address %p is not slot-aligned", addr)
	return H(off/uintptr(a.elementSize)) + 1
}

// Reset implements [Allocator]. Not safe for concurrent use: unlike the ST
// arena, Concurrent never auto-resets on drain, since there is no
// linearization point at which "allocatedCount reached zero" can be safely
// observed by a single goroutine without external synchronization.
func (a *Concurrent[H]) Reset() {
	a.freeHead.Store(0)
	a.usedCapacity.Store(0)
	a.allocatedCount.Store(0)
}

// FreeMemory implements [Allocator]. Not safe for concurrent use.
func (a *Concurrent[H]) FreeMemory() {
	a.Reset()
	if a.acquired.Load() {
		a.source.Release()
		a.acquired.Store(false)
	}
	a.elementSize = 0
	a.acquireOnce = sync.Once{}
	a.acquireErr = nil
}

func pack(stamp uint32, h uint32) uint64 {
	return uint64(stamp)<<32 | uint64(h)
}

func unpack(w uint64) (stamp uint32, h uint32) {
	return uint32(w >> 32), uint32(w)
}

// push adds h to the head of the free list.
func (a *Concurrent[H]) push(h H) {
	for {
		old := a.freeHead.Load()
		stamp, _ := unpack(old)

		*xunsafe.Cast[H]((*byte)(a.GetElement(h))) = H(uint32(old))

		next := pack(stamp+1, uint32(h))
		if a.freeHead.CompareAndSwap(old, next) {
			return
		}
	}
}

// pop removes and returns the handle at the head of the free list, or 0 if
// the list is empty.
func (a *Concurrent[H]) pop() H {
	for {
		old := a.freeHead.Load()
		stamp, h := unpack(old)
		if h == 0 {
			return 0
		}

		succ := uint32(*xunsafe.Cast[H]((*byte)(a.GetElement(H(h)))))

		next := pack(stamp+1, succ)
		if a.freeHead.CompareAndSwap(old, next) {
			return H(h)
		}
	}
}
