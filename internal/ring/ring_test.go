package ring

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsNonPositiveCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		_, err := New(capacity)
		require.Error(t, err, "capacity %d", capacity)
	}
}

func TestPutGetPreservesOrder(t *testing.T) {
	r, err := New(16)
	require.NoError(t, err)

	data := []byte{1, 2, 3, 4, 5, 6, 7}
	require.Equal(t, len(data), r.Put(data))
	require.Equal(t, len(data), r.Len())

	out := make([]byte, len(data))
	require.Equal(t, len(data), r.Get(out))
	require.Equal(t, data, out)
	require.True(t, r.Empty())
}

func TestPutOverflowKeepsEarliestBytes(t *testing.T) {
	const capacity = 8
	r, err := New(capacity)
	require.NoError(t, err)

	data := make([]byte, 13)
	for i := range data {
		data[i] = byte(i)
	}

	wrote := r.Put(data)
	require.Equal(t, capacity, wrote, "exactly capacity bytes retained")
	require.Equal(t, len(data)-capacity, len(data)-wrote, "drop count")

	out := make([]byte, capacity)
	require.Equal(t, capacity, r.Get(out))
	require.Equal(t, data[:capacity], out, "earliest bytes kept")
}

func TestPutIntoFullRingDropsEverything(t *testing.T) {
	r, err := New(4)
	require.NoError(t, err)

	require.Equal(t, 4, r.Put([]byte{1, 2, 3, 4}))
	require.Equal(t, 0, r.Put([]byte{5, 6}))
	require.Equal(t, 0, r.Space())
}

func TestGetPartial(t *testing.T) {
	r, err := New(8)
	require.NoError(t, err)
	r.Put([]byte{10, 20, 30})

	out := make([]byte, 2)
	require.Equal(t, 2, r.Get(out))
	require.Equal(t, []byte{10, 20}, out)
	require.Equal(t, 1, r.Len())

	big := make([]byte, 8)
	require.Equal(t, 1, r.Get(big))
	require.Equal(t, byte(30), big[0])
}

func TestClaimFinish(t *testing.T) {
	r, err := New(8)
	require.NoError(t, err)
	r.Put([]byte{1, 2, 3, 4, 5})

	span := r.Claim(r.Capacity())
	require.Equal(t, []byte{1, 2, 3, 4, 5}, span)

	require.NoError(t, r.Finish(len(span)))
	require.True(t, r.Empty())
}

func TestClaimRespectsMax(t *testing.T) {
	r, err := New(8)
	require.NoError(t, err)
	r.Put([]byte{1, 2, 3, 4, 5})

	span := r.Claim(3)
	require.Equal(t, []byte{1, 2, 3}, span)
	require.NoError(t, r.Finish(2))
	require.Equal(t, 3, r.Len())
}

func TestClaimStopsAtWrapBoundary(t *testing.T) {
	r, err := New(8)
	require.NoError(t, err)

	// Advance the positions so the buffered data straddles the physical end.
	r.Put(make([]byte, 6))
	out := make([]byte, 6)
	r.Get(out)
	r.Put([]byte{1, 2, 3, 4})

	first := r.Claim(r.Capacity())
	require.Equal(t, []byte{1, 2}, first, "span bounded by the wrap point")
	require.NoError(t, r.Finish(len(first)))

	second := r.Claim(r.Capacity())
	require.Equal(t, []byte{3, 4}, second)
	require.NoError(t, r.Finish(len(second)))
	require.True(t, r.Empty())
}

func TestPutWrapsCorrectly(t *testing.T) {
	r, err := New(4)
	require.NoError(t, err)

	r.Put([]byte{1, 2, 3})
	out := make([]byte, 2)
	r.Get(out)

	// Write of 3 bytes wraps around the end of the 4-byte buffer.
	require.Equal(t, 3, r.Put([]byte{4, 5, 6}))

	all := make([]byte, 4)
	require.Equal(t, 4, r.Get(all))
	require.True(t, bytes.Equal([]byte{3, 4, 5, 6}, all))
}

func TestClaimEmptyReturnsNil(t *testing.T) {
	r, err := New(4)
	require.NoError(t, err)
	require.Nil(t, r.Claim(4))
	require.Nil(t, r.Claim(0))
}

func TestFinishTooLong(t *testing.T) {
	r, err := New(4)
	require.NoError(t, err)
	r.Put([]byte{1, 2})
	require.ErrorIs(t, r.Finish(3), ErrFinishTooLong)
}

func TestSpaceAndCapacity(t *testing.T) {
	r, err := New(10)
	require.NoError(t, err)
	require.Equal(t, 10, r.Capacity())
	require.Equal(t, 10, r.Space())

	r.Put([]byte{1, 2, 3})
	require.Equal(t, 7, r.Space())
	require.Equal(t, 3, r.Len())
}
