package href_test

import (
	"testing"
	"unsafe"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/flier/slabptr/pkg/bufsrc"
	"github.com/flier/slabptr/pkg/hconf"
	"github.com/flier/slabptr/pkg/href"
	"github.com/flier/slabptr/pkg/slab"
)

// listNode is an intrusive singly-linked list element: the link lives
// inside the element itself rather than in a wrapper node, the shape
// spec.md §4.E calls out as the "intrusive containers that hold their list
// head directly" case.
type listNode struct {
	value int
	next  href.Href[listNode, uint32]
}

// intrusiveList embeds its sentinel node directly in the list object
// rather than relying on an allocator-owned one. Per spec.md §4.E, a
// container shaped this way "set[s] containerBase themselves before
// construction" instead of using halloc's
// assignContainerFollowingAllocator policy — newIntrusiveList does exactly
// that, registering its own address before anything is pushed.
type intrusiveList struct {
	sentinel listNode // sentinel.next is the real head
	arena    slab.Allocator[uint32]
	cfg      *hconf.Context[uint32]
}

func newIntrusiveList(arena slab.Allocator[uint32], cfg *hconf.Context[uint32]) *intrusiveList {
	l := &intrusiveList{arena: arena, cfg: cfg}
	cfg.SetContainer(uintptr(unsafe.Pointer(&l.sentinel)))
	return l
}

func (l *intrusiveList) PushFront(value int) error {
	h, err := l.arena.Allocate(int(unsafe.Sizeof(listNode{})))
	if err != nil {
		return err
	}

	n := (*listNode)(l.arena.GetElement(h))
	n.value = value
	n.next = l.sentinel.next
	l.sentinel.next = href.Of[listNode, uint32](h)

	return nil
}

func (l *intrusiveList) Values() []int {
	var out []int
	cur := l.sentinel.next
	for !cur.IsNull() {
		n := cur.Deref(l.cfg)
		out = append(out, n.value)
		cur = n.next
	}
	return out
}

func TestIntrusiveListSentinelEmbeddedInContainer(t *testing.T) {
	Convey("Given an intrusive list whose sentinel is embedded in the list object itself", t, func() {
		a, err := slab.New[uint32](8, true, new(bufsrc.Heap))
		So(err, ShouldBeNil)

		cfg, err := hconf.New[uint32](hconf.Universal, a,
			hconf.WithObjectSize[uint32](int(unsafe.Sizeof(listNode{}))),
		)
		So(err, ShouldBeNil)

		l := newIntrusiveList(a, cfg)
		So(cfg.GetContainer(), ShouldEqual, uintptr(unsafe.Pointer(&l.sentinel)))

		Convey("Pushing values and reading them back preserves LIFO order", func() {
			So(l.PushFront(1), ShouldBeNil)
			So(l.PushFront(2), ShouldBeNil)
			So(l.PushFront(3), ShouldBeNil)

			So(l.Values(), ShouldResemble, []int{3, 2, 1})
		})

		Convey("Arena-allocated nodes and the embedded sentinel both round-trip through the same config", func() {
			So(l.PushFront(42), ShouldBeNil)

			h := l.sentinel.next
			node := h.Deref(cfg)
			So(node.value, ShouldEqual, 42)

			// The sentinel's own address, taken through the same config,
			// encodes as a container-body handle rather than an arena slot.
			sentinelHandle := cfg.ToHandle(unsafe.Pointer(&l.sentinel))
			So(sentinelHandle&0x4000_0000, ShouldNotEqual, 0)
			So(cfg.ToAddress(sentinelHandle), ShouldEqual, unsafe.Pointer(&l.sentinel))
		})
	})
}
