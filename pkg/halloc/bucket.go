package halloc

import (
	"reflect"

	"github.com/flier/slabptr/pkg/hconf"
	"github.com/flier/slabptr/pkg/raw"
)

// RebindsBuckets is the marker a host container's bucket type implements to
// opt into fallback allocation (spec.md §4.E "Rebind"): bucket counts can
// spike far past what's worth reserving arena capacity for, so bucket
// storage is rebound to a plain heap allocation instead of consuming slab
// slots.
//
// Go generics have no equivalent of partial template specialization keyed
// off a container's nested Bucket type, so the host container says "I am a
// bucket type" explicitly by implementing this one-method marker interface,
// and [IsBucketType] queries for it via reflection rather than a hard-coded
// type-name check. [BucketFallback] itself does not check the marker.
type RebindsBuckets interface {
	RebindsBuckets()
}

var rebindsBucketsType = reflect.TypeOf((*RebindsBuckets)(nil)).Elem()

// IsBucketType reports whether T opts into bucket-fallback allocation by
// implementing [RebindsBuckets].
func IsBucketType[T any]() bool {
	var z T
	t := reflect.TypeOf(&z).Elem()
	return t.Implements(rebindsBucketsType)
}

// heapAllocator is the fallback [Allocator] implementation: it forwards to
// Go's own allocator instead of a [github.com/flier/slabptr/pkg/slab] arena,
// and encodes handles as nothing more than a monotonic counter — these
// handles are never decoded back into addresses by [hconf.Context]
// (GetElement below bypasses it entirely), since fallback storage never
// participates in the index-pointer scheme the arena's handles are part of.
type heapAllocator[T any, H raw.Handle] struct {
	live map[H]*T
	next H
}

// BucketFallback returns a heap-backed [Allocator]-shaped adapter for bucket
// types, bypassing slab capacity entirely (spec.md §8 scenario 6). ctx is
// accepted for symmetry with [New] but only its handle width is used — the
// fallback never touches the arena or stack/container regions ctx would
// otherwise decode through.
func BucketFallback[T any, H raw.Handle](_ *hconf.Context[H]) *heapAllocator[T, H] {
	return &heapAllocator[T, H]{live: make(map[H]*T)}
}

func (a *heapAllocator[T, H]) Allocate() (H, error) {
	a.next++
	h := a.next
	var z T
	a.live[h] = &z
	return h, nil
}

func (a *heapAllocator[T, H]) Deallocate(h H) {
	delete(a.live, h)
}

func (a *heapAllocator[T, H]) GetElement(h H) *T {
	return a.live[h]
}
