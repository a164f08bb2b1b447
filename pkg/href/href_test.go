package href_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flier/slabptr/pkg/bufsrc"
	"github.com/flier/slabptr/pkg/hconf"
	"github.com/flier/slabptr/pkg/href"
	"github.com/flier/slabptr/pkg/slab"
)

type node struct {
	value int
	next  uint32
}

func TestHrefNull(t *testing.T) {
	var z href.Href[node, uint32]
	assert.True(t, z.IsNull())
	assert.Equal(t, uint32(0), z.Raw())
	assert.True(t, z.Equal(href.Null[node, uint32]()))
}

func TestHrefRoundTrip(t *testing.T) {
	a, err := slab.New[uint32](4, true, new(bufsrc.Heap))
	assert.NoError(t, err)

	cfg, err := hconf.New[uint32](hconf.Simple, a)
	assert.NoError(t, err)

	h, err := a.Allocate(8)
	assert.NoError(t, err)

	n := (*node)(a.GetElement(h))
	n.value = 42

	r := href.Take(cfg, n)
	assert.False(t, r.IsNull())
	assert.Equal(t, h, r.Raw())

	got := r.Deref(cfg)
	assert.Equal(t, 42, got.value)
}

func TestHrefDerefNullPanics(t *testing.T) {
	assert.Panics(t, func() {
		href.Null[node, uint32]().Deref(nil)
	})
}

type base struct{ tag int }

func TestHrefWidenNarrow(t *testing.T) {
	r := href.Of[node, uint32](7)

	wide := href.Widen[node, base](r)
	assert.Equal(t, r.Raw(), wide.Raw())

	back := href.Narrow[base, node](wide)
	assert.Equal(t, r.Raw(), back.Raw())
}
