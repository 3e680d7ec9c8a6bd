package staticlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMallocFree(t *testing.T) {
	list := NewStaticList[string](3)
	assert.Equal(t, 3, list.Cap())

	a := list.Malloc()
	b := list.Malloc()
	c := list.Malloc()
	require.NotEqual(t, Null, c)
	assert.True(t, list.Full())
	assert.Equal(t, Null, list.Malloc())
	assert.Equal(t, 3, list.Len())

	list.SetDataValue(b, "b")
	assert.Equal(t, "b", list.GetDataValue(b))
	*list.GetDataPointer(a) = "a"
	assert.Equal(t, "a", list.GetNode(a).Data)

	list.Free(b)
	assert.Equal(t, 2, list.Len())
	assert.Equal(t, "", list.GetDataValue(b))
	// 最近释放的先被复用
	assert.Equal(t, b, list.Malloc())
}

func TestReset(t *testing.T) {
	list := NewStaticList[int](2)
	p := list.Malloc()
	list.SetDataValue(p, 7)
	list.Malloc()
	list.Reset()
	assert.Equal(t, 0, list.Len())
	assert.False(t, list.Full())
	assert.Equal(t, 0, list.GetDataValue(p))
	assert.Equal(t, 0, list.Malloc())
	assert.Equal(t, 1, list.Malloc())
}

func TestInvalidSize(t *testing.T) {
	assert.Panics(t, func() { NewStaticList[int](0) })
}
