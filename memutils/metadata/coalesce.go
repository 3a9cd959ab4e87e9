package metadata

import "github.com/vkngwrapper/fitalloc/memutils/block"

// Combine merges the free block at off with its list neighbors when they are physically adjacent.
// It must be called right after Add has placed the block, while the list is still sorted: because
// every free is followed by a Combine, at most one merge per direction is ever needed.
func (m *FreeListMetadata) Combine(off block.Offset) {
	mem := m.memory.Bytes()
	h := block.At(mem, off)

	next := h.Next()
	if next != block.Null && h.End() == next {
		nextSize := block.At(mem, next).Size()
		m.Remove(next)

		h.SetSize(h.Size() + block.HeaderSize + nextSize)
		m.blocksFreeSize += block.HeaderSize + nextSize
	}

	prev := h.Prev()
	if prev != block.Null {
		p := block.At(mem, prev)
		if p.End() == off {
			size := h.Size()
			m.Remove(off)

			p.SetSize(p.Size() + block.HeaderSize + size)
			m.blocksFreeSize += block.HeaderSize + size
		}
	}
}
