package heap_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/fitalloc/heap"
	"github.com/vkngwrapper/fitalloc/memutils"
	"github.com/vkngwrapper/fitalloc/memutils/block"
	"github.com/vkngwrapper/fitalloc/memutils/source"
)

func TestMappedSource(t *testing.T) {
	mapped, err := source.NewMapped(1 << 16)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, mapped.Close())
	}()

	h, err := heap.New(nil, heap.CreateOptions{Source: mapped})
	require.NoError(t, err)

	first := allocate(t, h, 1000)
	payload, err := h.Payload(first)
	require.NoError(t, err)
	payload[999] = 42

	var ptrs []block.Offset
	for {
		ptr, err := h.Allocate(4000)
		if err != nil {
			require.ErrorIs(t, err, memutils.ErrOutOfMemory)
			break
		}
		ptrs = append(ptrs, ptr)
	}
	require.NotEmpty(t, ptrs)
	require.LessOrEqual(t, h.DataSegmentSize(), mapped.Capacity())

	// Memory from a mapped source does not move as the heap grows
	require.Equal(t, byte(42), payload[999])

	for _, ptr := range ptrs {
		require.NoError(t, h.Free(ptr))
	}
	require.NoError(t, h.Validate())
}
