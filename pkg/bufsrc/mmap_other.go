//go:build !linux && !darwin

package bufsrc

import "unsafe"

// Mmap is unavailable on this platform: Acquire always fails with
// [ErrUnsupported], Base always returns nil, and Release does nothing.
type Mmap struct {
	Share bool
}

var _ Source = (*Mmap)(nil)

// Acquire implements [Source].
func (m *Mmap) Acquire(bytes int) error { return ErrUnsupported }

// Base implements [Source].
func (m *Mmap) Base() unsafe.Pointer { return nil }

// Release implements [Source].
func (m *Mmap) Release() {}
