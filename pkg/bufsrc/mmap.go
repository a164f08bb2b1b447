//go:build linux || darwin

package bufsrc

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/flier/slabptr/pkg/xunsafe"
	"github.com/flier/slabptr/pkg/xunsafe/layout"
)

// Mmap acquires its region as an anonymous, page-granularity mapping via
// mmap(2). This is the source to reach for when the arena's buffer needs to
// be placed so it can be shared with another process (MAP_SHARED) or simply
// kept off the Go heap and its GC scan.
type Mmap struct {
	_     xunsafe.NoCopy
	mem   []byte
	Share bool // when true, maps MAP_SHARED instead of MAP_PRIVATE.
}

var _ Source = (*Mmap)(nil)

const pageSize = 4096

// Acquire implements [Source].
func (m *Mmap) Acquire(bytes int) error {
	if m.mem != nil {
		return ErrAlreadyAcquired
	}

	flags := unix.MAP_PRIVATE | unix.MAP_ANON
	if m.Share {
		flags = unix.MAP_SHARED | unix.MAP_ANON
	}

	mem, err := unix.Mmap(-1, 0, layout.RoundUp(bytes, pageSize), unix.PROT_READ|unix.PROT_WRITE, flags)
	if err != nil {
		return err
	}

	m.mem = mem
	return nil
}

// Base implements [Source].
func (m *Mmap) Base() unsafe.Pointer {
	if m.mem == nil {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(m.mem))
}

// Release implements [Source].
func (m *Mmap) Release() {
	if m.mem == nil {
		return
	}
	_ = unix.Munmap(m.mem)
	m.mem = nil
}
