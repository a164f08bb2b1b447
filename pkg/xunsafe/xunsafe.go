// Package xunsafe provides the small set of unsafe pointer/layout helpers
// the rest of this module builds on: free-list link encoding in
// [github.com/flier/slabptr/pkg/slab], page rounding in
// [github.com/flier/slabptr/pkg/bufsrc], and friends. It is a trimmed
// descendant of github.com/flier/goutil/pkg/xunsafe, kept to the handful of
// primitives this module's domain actually exercises.
package xunsafe

import (
	"sync"
	"unsafe"

	"github.com/flier/slabptr/pkg/xunsafe/layout"
)

// NoCopy is a type that go vet will complain about having been moved.
//
// It does so by being an array of [sync.Mutex], which vet's copylocks check
// treats as a lock even at length zero.
type NoCopy [0]sync.Mutex

// Int is any integer type.
type Int = layout.Int

// BitCast performs an unsafe bitcast from one type to another.
func BitCast[To, From any](v From) To {
	return *(*To)(unsafe.Pointer(&v))
}
