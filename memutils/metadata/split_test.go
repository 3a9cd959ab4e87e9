package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/fitalloc/memutils/block"
	"github.com/vkngwrapper/fitalloc/memutils/metadata"
)

func TestSplitLeavesExactRemainder(t *testing.T) {
	const requested = 40
	const remainder = 7

	mem, offsets := layoutBlocks(requested + block.HeaderSize + remainder)
	freeList := metadata.NewFreeListMetadata(mem)
	freeList.Add(offsets[0])

	used := freeList.Split(offsets[0], requested)
	require.Equal(t, requested, used)
	require.NoError(t, freeList.Validate())

	allocated := block.At(mem.data, offsets[0])
	require.Equal(t, requested, allocated.Size())
	require.False(t, allocated.HasLinks())

	require.Equal(t, []block.Offset{allocated.End()}, listOffsets(t, freeList))
	require.Equal(t, []int{remainder}, listSizes(t, freeList))
	require.Equal(t, remainder, freeList.SumFreeSize())
}

func TestSplitTooSmallForRemainder(t *testing.T) {
	for _, extra := range []int{0, 1, block.HeaderSize} {
		mem, offsets := layoutBlocks(40 + extra)
		freeList := metadata.NewFreeListMetadata(mem)
		freeList.Add(offsets[0])

		used := freeList.Split(offsets[0], 40)
		require.Equal(t, 40+extra, used)
		require.True(t, freeList.IsEmpty())
		require.Equal(t, 40+extra, block.At(mem.data, offsets[0]).Size())
		require.NoError(t, freeList.Validate())
	}
}

func TestSplitRemainderKeepsOrder(t *testing.T) {
	mem, offsets := layoutBlocks(8, 200, 8)
	freeList := metadata.NewFreeListMetadata(mem)
	for _, off := range offsets {
		freeList.Add(off)
	}

	freeList.Split(offsets[1], 50)
	require.NoError(t, freeList.Validate())

	remainder := block.At(mem.data, offsets[1]).End()
	require.Equal(t, []block.Offset{offsets[0], remainder, offsets[2]}, listOffsets(t, freeList))
	require.Equal(t, []int{8, 200 - 50 - block.HeaderSize, 8}, listSizes(t, freeList))
}

func TestSplitUndersizedBlockPanics(t *testing.T) {
	mem, offsets := layoutBlocks(8)
	freeList := metadata.NewFreeListMetadata(mem)
	freeList.Add(offsets[0])

	require.Panics(t, func() { freeList.Split(offsets[0], 9) })
}
