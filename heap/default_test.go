package heap_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/fitalloc/heap"
	"github.com/vkngwrapper/fitalloc/memutils/block"
)

func TestDefaultHeap(t *testing.T) {
	require.Same(t, heap.Default(), heap.Default())
	require.Equal(t, block.Null, heap.FFMalloc(0))
	require.Equal(t, block.Null, heap.BFMalloc(-3))

	first := heap.FFMalloc(64)
	require.NotEqual(t, block.Null, first)
	segmentSize := heap.DataSegmentSize()
	freeSpace := heap.DataSegmentFreeSpaceSize()

	heap.FFFree(first)
	require.Equal(t, freeSpace+64, heap.DataSegmentFreeSpaceSize())

	second := heap.BFMalloc(64)
	require.Equal(t, first, second)
	require.Equal(t, segmentSize, heap.DataSegmentSize())
	require.Equal(t, freeSpace, heap.DataSegmentFreeSpaceSize())

	heap.BFFree(second)
	heap.FFFree(second)
	require.Equal(t, freeSpace+64, heap.DataSegmentFreeSpaceSize())
	require.NoError(t, heap.Default().Validate())
}
