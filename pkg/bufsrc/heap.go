package bufsrc

import "unsafe"

// Heap acquires its region from the Go heap via make([]byte, n).
//
// This is the default source: the slice header is kept on the struct so the
// backing array stays reachable for as long as the Heap value does, the same
// GC-pinning trick [github.com/flier/goutil/pkg/arena.Arena] uses for its
// chunk list.
type Heap struct {
	buf []byte
}

var _ Source = (*Heap)(nil)

// Acquire implements [Source].
func (h *Heap) Acquire(bytes int) error {
	if h.buf != nil {
		return ErrAlreadyAcquired
	}
	h.buf = make([]byte, bytes)
	return nil
}

// Base implements [Source].
func (h *Heap) Base() unsafe.Pointer {
	if h.buf == nil {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(h.buf))
}

// Release implements [Source].
func (h *Heap) Release() {
	h.buf = nil
}
