package xunsafe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flier/slabptr/pkg/xunsafe"
)

func TestCastRoundTrip(t *testing.T) {
	var raw [4]byte
	p := xunsafe.Cast[uint32](&raw[0])
	*p = 0xdeadbeef

	back := xunsafe.Cast[[4]byte](p)
	assert.Equal(t, &raw, back)
}

func TestAddLoadStore(t *testing.T) {
	buf := make([]uint32, 4)
	p := &buf[0]

	xunsafe.Store(p, 2, uint32(7))
	assert.Equal(t, uint32(7), buf[2])
	assert.Equal(t, uint32(7), xunsafe.Load(p, 2))

	q := xunsafe.Add(p, 2)
	assert.Equal(t, &buf[2], q)
}

func TestCopyAndClear(t *testing.T) {
	src := []uint32{1, 2, 3}
	dst := make([]uint32, 3)

	xunsafe.Copy(&dst[0], &src[0], 3)
	assert.Equal(t, src, dst)

	xunsafe.Clear(&dst[0], 3)
	assert.Equal(t, []uint32{0, 0, 0}, dst)
}
