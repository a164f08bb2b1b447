package hconf

import (
	"sync/atomic"

	"github.com/flier/slabptr/pkg/raw"
)

// Static is the process-wide context scope (spec.md §4.D "Variants"): one
// arena, one stack, one container for the whole process. The published
// *Context is swapped with an atomic pointer rather than held in bare
// package-level variables, so a Replace on one goroutine is visible to
// readers on others without a data race — the spec's own quiescence
// requirement (no live handles across the swap) still applies, this only
// protects the pointer handoff itself.
type Static[H raw.Handle] struct {
	ptr atomic.Pointer[Context[H]]
}

// NewStatic wraps ctx as the process-wide context.
func NewStatic[H raw.Handle](ctx *Context[H]) *Static[H] {
	s := &Static[H]{}
	s.ptr.Store(ctx)
	return s
}

// Context returns the current process-wide context.
func (s *Static[H]) Context() *Context[H] { return s.ptr.Load() }

// Replace swaps in a new process-wide context.
func (s *Static[H]) Replace(ctx *Context[H]) { s.ptr.Store(ctx) }
