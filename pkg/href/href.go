// Package href provides [Href], a value-type handle pointer: a small
// integer standing in for a *T, dereferenced through a
// [github.com/flier/slabptr/pkg/hconf.Context] instead of the MMU.
//
// This is the Go reading of
// [github.com/flier/goutil/pkg/arena/art/node.Ref]: that type packs a node
// pointer and a type tag into one uintptr and offers typed, panic-on-garbage
// accessors over it. Href keeps the same shape — a bare integer with
// type-safe accessors layered on top by the generic parameter — but the
// "tag" here is the location encoding [hconf.Context] already owns, and the
// payload is a handle rather than a raw pointer.
package href

import (
	"unsafe"

	"github.com/flier/slabptr/pkg/hconf"
	"github.com/flier/slabptr/pkg/raw"
)

// Href is a handle pointer to a value of type T.
//
// The zero Href is null, exactly like a zero Handle or a nil pointer.
type Href[T any, H raw.Handle] struct {
	h H
}

// Null returns the null Href.
func Null[T any, H raw.Handle]() Href[T, H] { return Href[T, H]{} }

// Of wraps a raw handle. Use this when a handle has arrived from outside
// (deserialized, read from a free-list link, etc.) rather than freshly
// produced by [Take].
func Of[T any, H raw.Handle](h H) Href[T, H] { return Href[T, H]{h: h} }

// Take produces an Href for an addressable value of type T, by asking ctx
// to encode its address.
func Take[T any, H raw.Handle](ctx *hconf.Context[H], v *T) Href[T, H] {
	return Href[T, H]{h: ctx.ToHandle(unsafe.Pointer(v))}
}

// IsNull reports whether this Href is the null handle.
func (r Href[T, H]) IsNull() bool { return r.h == 0 }

// Raw exposes the underlying handle, e.g. for storing it in an intrusive
// container's link field where it must be updated with atomics.
func (r Href[T, H]) Raw() H { return r.h }

// Equal reports whether two Hrefs carry the same raw handle.
func (r Href[T, H]) Equal(other Href[T, H]) bool { return r.h == other.h }

// Deref dereferences this Href through ctx. Panics if this Href is null;
// callers should check [Href.IsNull] first, same as they would before
// dereferencing a nil *T.
func (r Href[T, H]) Deref(ctx *hconf.Context[H]) *T {
	if r.IsNull() {
		panic("href: dereference of a null handle")
	}
	return (*T)(ctx.ToAddress(r.h))
}

// Widen upcasts this Href to a differently-typed Href sharing the same raw
// handle, e.g. to a common base/sentinel type. This never fails: it is
// purely a type-level operation, the same way
// [github.com/flier/goutil/pkg/arena/art/node.Ref.AsNode] reinterprets its
// payload without touching the underlying bits.
func Widen[From, To any, H raw.Handle](r Href[From, H]) Href[To, H] {
	return Href[To, H]{h: r.h}
}

// Narrow downcasts this Href. The caller is asserting that the handle
// really does reference a To; there is no runtime check, matching the
// spec's "precondition violations are programming bugs" error model
// (spec.md §7).
func Narrow[From, To any, H raw.Handle](r Href[From, H]) Href[To, H] {
	return Href[To, H]{h: r.h}
}
