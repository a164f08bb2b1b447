// Package halloc implements the handle allocator adapter (spec.md §4.E):
// the piece a host container actually calls to get and release single
// slots, sitting between the container's element type and the raw
// [github.com/flier/slabptr/pkg/slab.Allocator] +
// [github.com/flier/slabptr/pkg/hconf.Context] pair that does the real
// work.
//
// It exists so host containers (out of scope for this module per spec.md
// §1) can be written against one small, typed interface instead of juggling
// a slab arena and a handle config directly, the same role
// [github.com/flier/goutil/pkg/arena.Recycled] plays in front of a raw
// [github.com/flier/goutil/pkg/arena.Arena].
package halloc

import (
	"unsafe"

	"github.com/flier/slabptr/pkg/hconf"
	"github.com/flier/slabptr/pkg/raw"
)

// Allocator allocates and releases single T-sized slots, returning
// [github.com/flier/slabptr/pkg/href.Href]-compatible raw handles.
type Allocator[T any, H raw.Handle] struct {
	ctx *hconf.Context[H]

	// assignContainerFollowingAllocator mirrors spec.md §4.E's "construction
	// policy": when true, Bind registers the container address it is given
	// as the context's container base, for host containers that embed their
	// sentinel node directly in the allocator-owning object.
	assignContainerFollowingAllocator bool
}

// New builds an Allocator over ctx.
func New[T any, H raw.Handle](ctx *hconf.Context[H], opts ...Option[T, H]) *Allocator[T, H] {
	a := &Allocator[T, H]{ctx: ctx}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Option configures an Allocator at construction time.
type Option[T any, H raw.Handle] func(*Allocator[T, H])

// WithContainerFollowingAllocator enables the construction policy described
// on [Allocator.assignContainerFollowingAllocator].
func WithContainerFollowingAllocator[T any, H raw.Handle]() Option[T, H] {
	return func(a *Allocator[T, H]) { a.assignContainerFollowingAllocator = true }
}

// Bind attaches this Allocator to a concrete container instance, applying
// any construction policy that needs the container's address (spec.md
// §4.E).
func (a *Allocator[T, H]) Bind(container unsafe.Pointer) {
	if a.assignContainerFollowingAllocator {
		a.ctx.SetContainer(uintptr(container))
	}
}

// Allocate reserves one T-sized slot and returns a handle to it.
func (a *Allocator[T, H]) Allocate() (H, error) {
	var z T
	return a.ctx.GetArena().Allocate(int(unsafe.Sizeof(z)))
}

// Deallocate releases the slot named by h.
func (a *Allocator[T, H]) Deallocate(h H) {
	var z T
	a.ctx.GetArena().Deallocate(h, int(unsafe.Sizeof(z)))
}

// GetElement resolves h to a live *T. Equivalent to
// [github.com/flier/slabptr/pkg/href.Href.Deref], provided directly here for
// callers that don't otherwise need an Href.
func (a *Allocator[T, H]) GetElement(h H) *T {
	return (*T)(a.ctx.ToAddress(h))
}

// Context exposes the underlying [hconf.Context], e.g. to construct an
// [github.com/flier/slabptr/pkg/href.Href] by hand.
func (a *Allocator[T, H]) Context() *hconf.Context[H] { return a.ctx }

// Equal reports whether two Allocators share the same underlying arena —
// the handle-compatibility test spec.md §4.E implies container code should
// run before mixing handles from two allocators.
func (a *Allocator[T, H]) Equal(other *Allocator[T, H]) bool {
	return a.ctx.GetArena() == other.ctx.GetArena()
}
