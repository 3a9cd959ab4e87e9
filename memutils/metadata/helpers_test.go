package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/fitalloc/memutils/block"
	"github.com/vkngwrapper/fitalloc/memutils/metadata"
)

type testMemory struct {
	data []byte
}

func (m *testMemory) Bytes() []byte { return m.data }

// layoutBlocks tiles a fresh buffer with consecutive blocks of the provided payload sizes and
// returns the header offset of each one. None of the blocks are in the free list.
func layoutBlocks(sizes ...int) (*testMemory, []block.Offset) {
	total := 0
	for _, size := range sizes {
		total += block.HeaderSize + size
	}

	mem := &testMemory{data: make([]byte, total)}
	offsets := make([]block.Offset, 0, len(sizes))

	off := block.Offset(0)
	for _, size := range sizes {
		h := block.Init(mem.data, off, size)
		offsets = append(offsets, off)
		off = h.End()
	}

	return mem, offsets
}

func listOffsets(t *testing.T, m *metadata.FreeListMetadata) []block.Offset {
	t.Helper()

	var offsets []block.Offset
	err := m.VisitFreeBlocks(func(offset block.Offset, size int) error {
		offsets = append(offsets, offset)
		return nil
	})
	require.NoError(t, err)
	return offsets
}

func listSizes(t *testing.T, m *metadata.FreeListMetadata) []int {
	t.Helper()

	var sizes []int
	err := m.VisitFreeBlocks(func(offset block.Offset, size int) error {
		sizes = append(sizes, size)
		return nil
	})
	require.NoError(t, err)
	return sizes
}
