package metadata

import (
	"fmt"

	"github.com/vkngwrapper/fitalloc/memutils/block"
)

// Remove detaches the block at off from the free list and clears its links. Calling Remove on a
// block that is not in the list is a no-op.
func (m *FreeListMetadata) Remove(off block.Offset) {
	mem := m.memory.Bytes()
	h := block.At(mem, off)

	if off == m.head {
		m.head = h.Next()
		if m.head != block.Null {
			block.At(mem, m.head).SetPrev(block.Null)
		}
	} else {
		prev := h.Prev()
		if prev == block.Null {
			return
		}

		next := h.Next()
		block.At(mem, prev).SetNext(next)
		if next != block.Null {
			block.At(mem, next).SetPrev(prev)
		}
	}

	h.ClearLinks()
	m.blocksFreeCount--
	m.blocksFreeSize -= h.Size()
}

// Add inserts the block at off into the free list at its address-ordered position
func (m *FreeListMetadata) Add(off block.Offset) {
	mem := m.memory.Bytes()
	h := block.At(mem, off)

	if m.head == block.Null || off < m.head {
		// New head
		h.SetNext(m.head)
		h.SetPrev(block.Null)
		if m.head != block.Null {
			block.At(mem, m.head).SetPrev(off)
		}
		m.head = off
	} else {
		if off == m.head {
			panic(fmt.Sprintf("block at offset %s is already in the free list", off))
		}

		current := block.At(mem, m.head)
		for current.Next() != block.Null && current.Next() < off {
			current = block.At(mem, current.Next())
		}

		next := current.Next()
		if next == off {
			panic(fmt.Sprintf("block at offset %s is already in the free list", off))
		}

		h.SetPrev(current.Offset())
		h.SetNext(next)
		if next != block.Null {
			// Splice into the middle
			block.At(mem, next).SetPrev(off)
		}
		current.SetNext(off)
	}

	m.blocksFreeCount++
	m.blocksFreeSize += h.Size()
}
