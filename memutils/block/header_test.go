package block_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/fitalloc/memutils/block"
)

func TestHeaderRoundTrip(t *testing.T) {
	mem := make([]byte, 3*block.HeaderSize+64)

	h := block.Init(mem, 0, 40)
	require.Equal(t, block.Offset(0), h.Offset())
	require.Equal(t, 40, h.Size())
	require.Equal(t, block.Null, h.Next())
	require.Equal(t, block.Null, h.Prev())
	require.False(t, h.HasLinks())

	h.SetNext(64)
	h.SetPrev(0)
	require.Equal(t, block.Offset(64), h.Next())
	require.Equal(t, block.Offset(0), h.Prev())
	require.True(t, h.HasLinks())

	// A second view over the same bytes observes the writes
	again := block.At(mem, 0)
	require.Equal(t, block.Offset(64), again.Next())

	h.ClearLinks()
	require.False(t, again.HasLinks())
}

func TestHeaderAddressIdentity(t *testing.T) {
	mem := make([]byte, 200)

	first := block.Init(mem, 0, 40)
	require.Equal(t, block.Offset(block.HeaderSize+40), first.End())
	require.Equal(t, block.Offset(block.HeaderSize), first.Payload())

	second := block.Init(mem, first.End(), 16)
	require.Equal(t, first.End(), second.Offset())
	require.Equal(t, second.Offset(), block.HeaderOf(second.Payload()))
}

func TestHeaderOutOfBounds(t *testing.T) {
	mem := make([]byte, block.HeaderSize+8)

	require.True(t, block.Fits(len(mem), 8))
	require.False(t, block.Fits(len(mem), 9))
	require.False(t, block.Fits(len(mem), block.Null))

	require.Panics(t, func() { block.At(mem, 9) })
	require.Panics(t, func() { block.At(mem, block.Null) })
}

func TestOffsetString(t *testing.T) {
	require.Equal(t, "null", block.Null.String())
	require.Equal(t, "0x18", block.Offset(24).String())
}
