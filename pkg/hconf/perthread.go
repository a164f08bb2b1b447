package hconf

import (
	"github.com/timandy/routine"

	"github.com/flier/slabptr/pkg/raw"
)

// PerGoroutine is the per-thread context scope (spec.md §4.D "Variants"):
// one Context per unit of concurrent control. Go's unit of concurrent
// control is the goroutine rather than the OS thread the spec was written
// against, so this is backed by goroutine-local storage via
// github.com/timandy/routine — the same dependency
// github.com/flier/goutil/internal/debug uses for its per-goroutine test-log
// hook.
//
// Each goroutine that calls Context for the first time gets a fresh
// *Context[H] built by the configured factory; it is that goroutine's
// responsibility to give it a stack top via [Context.SetStackTop] before
// its first handle operation (spec.md §4.F).
type PerGoroutine[H raw.Handle] struct {
	tls     routine.ThreadLocal[*Context[H]]
	factory func() *Context[H]
}

// NewPerGoroutine constructs a per-goroutine context scope. factory is
// called at most once per goroutine, the first time that goroutine asks for
// its [Context].
func NewPerGoroutine[H raw.Handle](factory func() *Context[H]) *PerGoroutine[H] {
	return &PerGoroutine[H]{
		tls:     routine.NewThreadLocal[*Context[H]](),
		factory: factory,
	}
}

// Context returns the calling goroutine's context, constructing it via the
// configured factory on first use.
func (p *PerGoroutine[H]) Context() *Context[H] {
	if c := p.tls.Get(); c != nil {
		return c
	}
	c := p.factory()
	p.tls.Set(c)
	return c
}

// Replace swaps in a new context for the calling goroutine only.
func (p *PerGoroutine[H]) Replace(ctx *Context[H]) { p.tls.Set(ctx) }
