//go:build linux || darwin

package bufsrc_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/flier/slabptr/pkg/bufsrc"
)

func TestMmap(t *testing.T) {
	Convey("Given an Mmap source", t, func() {
		m := new(bufsrc.Mmap)

		Convey("Acquire of a sub-page size succeeds and Base becomes non-nil", func() {
			So(m.Acquire(17), ShouldBeNil)
			So(m.Base(), ShouldNotBeNil)

			Convey("Release drops the mapping", func() {
				m.Release()
				So(m.Base(), ShouldBeNil)
			})
		})

		Convey("A second Acquire without Release fails", func() {
			So(m.Acquire(4096), ShouldBeNil)
			So(m.Acquire(4096), ShouldEqual, bufsrc.ErrAlreadyAcquired)
		})
	})
}
