package bufsrc_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/flier/slabptr/pkg/bufsrc"
)

func TestHeap(t *testing.T) {
	Convey("Given a Heap source", t, func() {
		h := new(bufsrc.Heap)

		Convey("When nothing has been acquired", func() {
			So(h.Base(), ShouldBeNil)
		})

		Convey("When Acquire succeeds", func() {
			err := h.Acquire(256)
			So(err, ShouldBeNil)

			Convey("Then Base is non-nil", func() {
				So(h.Base(), ShouldNotBeNil)
			})

			Convey("Then a second Acquire fails", func() {
				So(h.Acquire(256), ShouldEqual, bufsrc.ErrAlreadyAcquired)
			})

			Convey("Then Release drops the region", func() {
				h.Release()
				So(h.Base(), ShouldBeNil)

				Convey("And Acquire can be called again", func() {
					So(h.Acquire(128), ShouldBeNil)
				})
			})
		})
	})
}

func TestFixed(t *testing.T) {
	Convey("Given a Fixed source over a 64 byte buffer", t, func() {
		buf := make([]byte, 64)
		f := bufsrc.NewFixed(buf)

		Convey("When a request fits", func() {
			So(f.Acquire(32), ShouldBeNil)
			So(f.Base(), ShouldNotBeNil)
		})

		Convey("When a request exceeds the buffer", func() {
			So(f.Acquire(128), ShouldEqual, bufsrc.ErrTooSmall)
			So(f.Base(), ShouldBeNil)
		})

		Convey("When Acquire succeeds twice without Release", func() {
			So(f.Acquire(8), ShouldBeNil)
			So(f.Acquire(8), ShouldEqual, bufsrc.ErrAlreadyAcquired)
		})
	})
}
