package metadata

import (
	"fmt"

	"github.com/vkngwrapper/fitalloc/memutils/block"
)

// Split takes the free block at off out of the free list so that it can satisfy an allocation of
// requiredSize bytes. If the block is large enough to leave behind another header plus at least one
// byte of payload, it is shrunk to exactly requiredSize and the tail is returned to the free list as
// a new block. Otherwise the whole block is handed out.
//
// The return value is the number of payload bytes that became occupied.
func (m *FreeListMetadata) Split(off block.Offset, requiredSize int) int {
	mem := m.memory.Bytes()
	h := block.At(mem, off)
	size := h.Size()

	if size < requiredSize {
		panic(fmt.Sprintf("block at offset %s has %d bytes and cannot hold an allocation of %d bytes", off, size, requiredSize))
	}

	m.Remove(off)

	if size <= requiredSize+block.HeaderSize {
		return size
	}

	h.SetSize(requiredSize)
	remainder := block.Init(mem, h.End(), size-requiredSize-block.HeaderSize)
	m.Add(remainder.Offset())

	return requiredSize
}
