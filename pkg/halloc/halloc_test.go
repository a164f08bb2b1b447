package halloc_test

import (
	"testing"
	"unsafe"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/flier/slabptr/pkg/bufsrc"
	"github.com/flier/slabptr/pkg/halloc"
	"github.com/flier/slabptr/pkg/hconf"
	"github.com/flier/slabptr/pkg/slab"
)

type widget struct {
	id int
}

func TestAllocatorRoundTrip(t *testing.T) {
	Convey("Given an Allocator over a small arena", t, func() {
		a, err := slab.New[uint32](4, true, new(bufsrc.Heap))
		So(err, ShouldBeNil)

		cfg, err := hconf.New[uint32](hconf.Simple, a)
		So(err, ShouldBeNil)

		alloc := halloc.New[widget](cfg)

		Convey("Allocate/GetElement/Deallocate round-trip a value", func() {
			h, err := alloc.Allocate()
			So(err, ShouldBeNil)

			w := alloc.GetElement(h)
			w.id = 99
			So(alloc.GetElement(h).id, ShouldEqual, 99)

			alloc.Deallocate(h)
		})

		Convey("Two allocators over the same arena compare equal", func() {
			other := halloc.New[widget](cfg)
			So(alloc.Equal(other), ShouldBeTrue)
		})

		Convey("An allocator over a different arena compares unequal", func() {
			b, err := slab.New[uint32](4, true, new(bufsrc.Heap))
			So(err, ShouldBeNil)
			cfg2, err := hconf.New[uint32](hconf.Simple, b)
			So(err, ShouldBeNil)
			other := halloc.New[widget](cfg2)
			So(alloc.Equal(other), ShouldBeFalse)
		})
	})
}

func TestContainerFollowingAllocatorPolicy(t *testing.T) {
	Convey("Given an Allocator with the container-following policy", t, func() {
		a, err := slab.New[uint32](4, true, new(bufsrc.Heap))
		So(err, ShouldBeNil)

		cfg, err := hconf.New[uint32](hconf.Universal, a, hconf.WithObjectSize[uint32](64))
		So(err, ShouldBeNil)

		alloc := halloc.New[widget](cfg, halloc.WithContainerFollowingAllocator[widget, uint32]())

		var container struct{ alloc *halloc.Allocator[widget, uint32] }
		container.alloc = alloc

		Convey("Bind registers the container's address as the config's container base", func() {
			alloc.Bind(unsafe.Pointer(&container))
			So(cfg.GetContainer(), ShouldNotEqual, uintptr(0))
		})
	})
}
