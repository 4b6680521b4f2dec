package ringbuf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomizedcoder/adcstream/internal/ringbuf"
)

// testBuffer checks the Buffer contract for an implementation holding
// exactly 4 elements.
func testBuffer(t *testing.T, b ringbuf.Buffer[int]) {
	t.Helper()

	dst := make([]int, 8)

	// Empty buffer dequeues nothing
	assert.Equal(t, 0, b.DequeueInto(dst))
	assert.Equal(t, 4, b.Cap())

	require.NoError(t, b.Enqueue(1))
	require.NoError(t, b.EnqueueSlice([]int{2, 3}))
	assert.Equal(t, 3, b.Len())

	// Does not fit: nothing written
	assert.ErrorIs(t, b.EnqueueSlice([]int{4, 5}), ringbuf.ErrFull)
	assert.Equal(t, 3, b.Len())

	require.NoError(t, b.Enqueue(4))
	assert.ErrorIs(t, b.Enqueue(5), ringbuf.ErrFull)

	// FIFO
	n := b.DequeueInto(dst[:3])
	require.Equal(t, 3, n)
	assert.Equal(t, []int{1, 2, 3}, dst[:3])

	n = b.DequeueInto(dst)
	require.Equal(t, 1, n)
	assert.Equal(t, 4, dst[0])

	assert.Equal(t, 0, b.Len())
}

func TestBufferInterface(t *testing.T) {
	testCases := []struct {
		name string
		b    ringbuf.Buffer[int]
	}{
		{"RingBuffer", ringbuf.New[int](5)},
		{"Channel", ringbuf.NewChannel[int](4)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			testBuffer(t, tc.b)
		})
	}
}
