// Package hconf implements the handle↔address translation layer (spec.md
// §4.D): the bit of this module that decides, given a handle, which of
// three places to look for the node it names — the arena, the calling
// goroutine's stack, or the body of a container object that embeds a
// sentinel node — and the inverse operation for encoding a live address
// back into a handle.
//
// The three-way decode is a tagged-variant switch over the top one or two
// bits of the handle, in the same spirit as
// [github.com/flier/goutil/pkg/arena/art/node.Ref]'s pointer/type-tag split,
// just with the tag living in a small integer's high bits instead of a
// uintptr's low (alignment) bits.
package hconf

import (
	"errors"
	"unsafe"

	"github.com/flier/slabptr/internal/debug"
	"github.com/flier/slabptr/pkg/raw"
	"github.com/flier/slabptr/pkg/slab"
)

// Mode selects how many tag bits a Context's handles reserve.
type Mode int

const (
	// Simple reserves one tag bit: 0 = arena, 1 = stack. Container-body
	// handles are not expressible.
	Simple Mode = iota

	// Universal reserves two tag bits: 00 = arena, 1x = stack, 01 =
	// container-body.
	Universal
)

// MaxStackSpan bounds how far below StackTop an address may lie and still
// encode as a stack handle (spec.md §4.D).
const MaxStackSpan = 2 * 1024 * 1024

// ErrObjectSizeRequired is returned by [New] when a [slab.Concurrent] arena
// is paired with [Universal] mode but no object size was supplied: without
// it, a racing publication can't reliably tell an embedded node from an
// arena slot (spec.md §4.D "Constraint").
var ErrObjectSizeRequired = errors.New("hconf: concurrent arena with universal encoding requires WithObjectSize")

// ErrCapacityExceedsEncoding is returned by [New] when the arena's capacity
// does not leave room for Mode's tag bits: a [Universal] context reserves
// two high bits per handle (spec.md §3 "arena capacity < 2^(W-2) with
// universal encoding"), stricter than the single tag bit a [slab.Allocator]
// enforces on its own, since the arena itself doesn't know which encoding
// its handles will be decoded under.
var ErrCapacityExceedsEncoding = errors.New("hconf: arena capacity exceeds this encoding's tag-bit bound")

// Context holds the per-scope state a handle is decoded against: the arena
// it may index into, the registered stack top, and the registered container
// base. See [Static] and [PerGoroutine] for the two ways this state can be
// scoped (spec.md §4.D "Variants").
type Context[H raw.Handle] struct {
	Mode Mode

	Arena         slab.Allocator[H]
	StackTop      uintptr
	ContainerBase uintptr

	// ObjectSize is the size of the container body a container-body handle
	// may point into. Zero falls back to a 256-byte heuristic cap (spec.md
	// §9, flagged there as unverified/possibly worth removing).
	ObjectSize int

	// Align is the node-alignment quantum used to scale stack offsets.
	// Defaults to the handle's byte width.
	Align int
}

// Option configures a [Context] at construction time.
type Option[H raw.Handle] func(*Context[H])

// WithStackTop sets the initial registered stack top.
func WithStackTop[H raw.Handle](top uintptr) Option[H] {
	return func(c *Context[H]) { c.StackTop = top }
}

// WithContainerBase sets the initial registered container base. Universal
// mode only.
func WithContainerBase[H raw.Handle](base uintptr) Option[H] {
	return func(c *Context[H]) { c.ContainerBase = base }
}

// WithObjectSize sets the container body's size. Universal mode only; see
// [ErrObjectSizeRequired].
func WithObjectSize[H raw.Handle](n int) Option[H] {
	return func(c *Context[H]) { c.ObjectSize = n }
}

// WithAlign overrides the node-alignment quantum used for stack offsets.
func WithAlign[H raw.Handle](n int) Option[H] {
	return func(c *Context[H]) { c.Align = n }
}

// New constructs a Context over the given arena.
func New[H raw.Handle](mode Mode, arena slab.Allocator[H], opts ...Option[H]) (*Context[H], error) {
	c := &Context[H]{
		Mode:  mode,
		Arena: arena,
		Align: raw.Bits[H]() / 8,
	}
	for _, opt := range opts {
		opt(c)
	}

	if mode == Universal && !raw.FitsCapacity[H](arena.Capacity(), 2) {
		return nil, ErrCapacityExceedsEncoding
	}

	if mode == Universal && c.ObjectSize == 0 {
		if _, concurrent := arena.(*slab.Concurrent[H]); concurrent {
			return nil, ErrObjectSizeRequired
		}
	}

	return c, nil
}

// Config accessors (spec.md §6 "Config"). Mutating these while live handles
// encoded under the old values exist is undefined per spec.md §4.D
// "Variants" — callers must serialize context changes against outstanding
// handles themselves.
func (c *Context[H]) SetArena(a slab.Allocator[H]) { c.Arena = a }
func (c *Context[H]) GetArena() slab.Allocator[H]  { return c.Arena }
func (c *Context[H]) SetStackTop(top uintptr)      { c.StackTop = top }
func (c *Context[H]) GetStackTop() uintptr         { return c.StackTop }
func (c *Context[H]) SetContainer(base uintptr)    { c.ContainerBase = base }
func (c *Context[H]) GetContainer() uintptr        { return c.ContainerBase }

func (c *Context[H]) onstackBit() H {
	return H(1) << (raw.Bits[H]() - 1)
}

func (c *Context[H]) containerBit() H {
	return H(1) << (raw.Bits[H]() - 2)
}

func (c *Context[H]) inArenaRange(addr unsafe.Pointer) bool {
	begin := c.Arena.Begin()
	if begin == nil {
		return false
	}
	end := c.Arena.End()
	a, b, e := uintptr(addr), uintptr(begin), uintptr(end)
	return a >= b && a < e
}

func (c *Context[H]) stackOffset(addr unsafe.Pointer) (int, bool) {
	if c.StackTop == 0 {
		return 0, false
	}
	a := uintptr(addr)
	if a > c.StackTop {
		return 0, false
	}
	d := c.StackTop - a
	if d >= MaxStackSpan {
		return 0, false
	}

	debug.Assert(d%uintptr(c.Align) == 0, "stack address %p is not aligned to %d below stack top", addr, c.Align)
	q := d / uintptr(c.Align)

	limit := uintptr(1) << (raw.Bits[H]() - 1)
	debug.Assert(q < limit, "stack offset quantum %d overflows handle payload", q)

	return int(q), true
}

func (c *Context[H]) containerOffset(addr unsafe.Pointer) (int, bool) {
	if c.ContainerBase == 0 {
		return 0, false
	}
	a := uintptr(addr)
	if a < c.ContainerBase {
		return 0, false
	}
	off := a - c.ContainerBase

	limit := uintptr(256) // heuristic cap for unknown layout, spec.md §9
	if c.ObjectSize > 0 {
		limit = uintptr(c.ObjectSize)
	}
	if off >= limit {
		return 0, false
	}
	return int(off), true
}

// ToHandle encodes a live address into a handle (spec.md §4.D).
func (c *Context[H]) ToHandle(addr unsafe.Pointer) H {
	tryArenaFirst := c.Mode == Simple || c.ObjectSize == 0
	if tryArenaFirst && c.inArenaRange(addr) {
		return c.Arena.PointerTo(addr)
	}

	if d, ok := c.stackOffset(addr); ok {
		return H(d) | c.onstackBit()
	}

	if c.Mode == Universal {
		if off, ok := c.containerOffset(addr); ok {
			return H(off) | c.containerBit()
		}
		// Fall through to arena (spec.md §4.D point 4): embedded-node
		// configs may register an object size that makes the arena range
		// check above unsafe to run first under racing publication, so
		// arena is tried last instead of not at all.
		return c.Arena.PointerTo(addr)
	}

	debug.Assert(false, "address %p is outside every registered region", addr)
	return 0
}

// ToAddress decodes a handle back into a live address (spec.md §4.D).
func (c *Context[H]) ToAddress(h H) unsafe.Pointer {
	if h == 0 {
		return nil
	}

	if on := c.onstackBit(); h&on != 0 {
		d := h &^ on
		return unsafe.Pointer(c.StackTop - uintptr(d)*uintptr(c.Align))
	}

	if c.Mode == Universal {
		if cb := c.containerBit(); h&cb != 0 {
			d := h &^ cb
			return unsafe.Pointer(c.ContainerBase + uintptr(d))
		}
	}

	return c.Arena.GetElement(h)
}
