package frame

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketFor(t *testing.T) {
	k, bcap, uncached := bucketFor(0)
	assert.Equal(t, minBucket, k)
	assert.Equal(t, 6, bcap)
	assert.False(t, uncached)

	k, bcap, uncached = bucketFor(6)
	assert.Equal(t, minBucket, k)
	assert.Equal(t, 6, bcap)
	assert.False(t, uncached)

	k, bcap, uncached = bucketFor(7)
	assert.Equal(t, minBucket+1, k)
	assert.Equal(t, 14, bcap)
	assert.False(t, uncached)

	_, _, uncached = bucketFor(1<<31 - 1)
	assert.True(t, uncached)
}

func TestListPushSizeCapacity(t *testing.T) {
	var c Cache
	l := c.Get(3)
	assert.Equal(t, 0, l.Size())
	assert.GreaterOrEqual(t, l.Capacity(), 3)

	var x, y int
	assert.True(t, l.Push(unsafe.Pointer(&x), 1))
	assert.True(t, l.Push(unsafe.Pointer(&y), 2))
	assert.Equal(t, 2, l.Size())
	assert.Same(t, &x, (*int)(l.At(0)))
	assert.EqualValues(t, 1, l.Aux(0))

	for l.Push(nil, 0) {
	}
	assert.Equal(t, l.Capacity(), l.Size())
}

func TestGetPutReuse(t *testing.T) {
	var c Cache
	l1 := c.Get(6)
	l1.Push(unsafe.Pointer(l1), 42)
	c.Put(l1)

	l2 := c.Get(6)
	require.Same(t, l1, l2)
	assert.Equal(t, 0, l2.Size())
}

func TestRecycleRoundTrip(t *testing.T) {
	var c Cache
	l1 := c.Get(6)
	l2 := c.Get(6)
	require.NotSame(t, l1, l2)

	c.Recycle()

	l3 := c.Get(6)
	l4 := c.Get(6)
	assert.Equal(t, 0, l3.Size())
	assert.Equal(t, 0, l4.Size())
	assert.True(t, l3 == l1 || l3 == l2)
	assert.True(t, l4 == l1 || l4 == l2)
	assert.NotSame(t, l3, l4)
}

func TestUncachedListsDoNotPersist(t *testing.T) {
	var c Cache
	big := c.Get(1<<31 - 1)
	assert.Equal(t, 1<<31-1, big.Capacity())
	c.Recycle()
	// no crash, no panic; uncached active set drained
}

func TestPutRemovesFromMiddleOfActive(t *testing.T) {
	var c Cache
	l1 := c.Get(6)
	l2 := c.Get(6)
	l3 := c.Get(6)

	c.Put(l2) // remove from the middle of the active chain

	c.Recycle()
	seen := map[*List]bool{}
	for i := 0; i < 3; i++ {
		l := c.Get(6)
		seen[l] = true
	}
	assert.True(t, seen[l1])
	assert.True(t, seen[l2])
	assert.True(t, seen[l3])
}

func TestDeinit(t *testing.T) {
	var c Cache
	c.Get(6)
	c.Deinit()
	assert.Equal(t, Cache{}, c)
}
