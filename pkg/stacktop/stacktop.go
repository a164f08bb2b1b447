// Package stacktop implements the stack-top probe (spec.md §4.F): a
// platform helper that reports a stack-top address for registration with a
// [github.com/flier/slabptr/pkg/hconf.Context] via SetStackTop. On Linux
// [Current] reports the top of the process's main-thread "[stack]" mapping,
// not the top of the calling goroutine's stack; elsewhere it reports an
// estimate rounded up from the address of a local variable.
//
// Spec.md §1 calls this out as an external collaborator the core only
// consumes through an interface — fittingly, Go goroutines don't have a
// fixed, OS-thread-style stack the way the spec's original source's threads
// do (a goroutine's stack grows and moves as needed), so "the top of the
// current stack" is necessarily an approximation here rather than a single
// portable syscall. [Current] does the best available thing per platform
// and documents exactly how approximate it is.
package stacktop

import "unsafe"

// MaxSpan is the boundary [approximate] rounds up to, so the fallback top
// lies less than one span above the local variable it was probed from.
// It is half of [github.com/flier/slabptr/pkg/hconf.MaxStackSpan], the
// distance below the stack top that the stack-offset encoding accepts.
const MaxSpan = 1 << 20

// Prober returns the highest address of the calling goroutine's stack, and
// whether it was able to determine one.
type Prober func() (top uintptr, ok bool)

// Current is the default prober for this platform; see stacktop_linux.go
// and stacktop_other.go.
var Current Prober = current

// approximate estimates a stack top from the address of a local variable by
// rounding it up to the next boundary of span bytes. This over-approximates
// the true top (it is never below the real one, since stacks grow down from
// it and our local variable's frame is necessarily below the top), which is
// the safe direction to err in for the stack-offset encoding in
// [github.com/flier/slabptr/pkg/hconf.Context.ToHandle]: a too-high top just
// makes d larger, never wraps it negative.
func approximate(span uintptr) uintptr {
	var probe byte
	addr := uintptr(unsafe.Pointer(&probe))
	return (addr + span - 1) &^ (span - 1)
}
