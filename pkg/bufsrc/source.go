// Package bufsrc provides the buffer sources a [github.com/flier/slabptr/pkg/slab]
// arena draws its backing storage from.
//
// A Source is a narrow, swappable collaborator: the arena never allocates
// memory itself, it asks a Source to acquire a contiguous region and reads
// its base address back. This mirrors how [github.com/flier/goutil/pkg/arena.Arena]
// keeps its chunks in a dedicated []*byte slice rather than allocating
// through a generic interface — here the indirection is the point, since the
// spec requires swapping in anonymous shared memory or a caller-provided
// buffer without touching the arena itself.
package bufsrc

import (
	"errors"
	"unsafe"
)

// ErrTooSmall is returned by [Fixed.Acquire] when the caller-provided buffer
// is smaller than the requested size.
var ErrTooSmall = errors.New("bufsrc: provided buffer is smaller than requested size")

// ErrUnsupported is returned by platform-specific sources (currently [Mmap])
// on GOOS/GOARCH combinations they have no implementation for.
var ErrUnsupported = errors.New("bufsrc: not supported on this platform")

// ErrAlreadyAcquired is returned by Acquire when a region has already been
// acquired and not yet released.
var ErrAlreadyAcquired = errors.New("bufsrc: region already acquired")

// Source acquires and releases one contiguous byte region.
//
// Implementations are not required to be safe for concurrent use; the
// [github.com/flier/slabptr/pkg/slab.Concurrent] arena serializes the single
// Acquire call it makes behind a one-shot critical section.
type Source interface {
	// Acquire obtains a region of at least bytes bytes. Calling Acquire a
	// second time without an intervening Release returns ErrAlreadyAcquired.
	Acquire(bytes int) error

	// Base returns the start of the acquired region, or nil if no region is
	// currently held.
	Base() unsafe.Pointer

	// Release drops the region. It is a no-op if no region is held.
	Release()
}
