// Package metadata manages the free list of a heap: an address-ordered, doubly linked list of free
// blocks whose links are stored in the block headers themselves. It provides the primitives the heap
// is built from: ordered insertion and removal, coalescing of adjacent free blocks, splitting of
// oversized blocks and the first-fit and best-fit searches.
//
// FreeListMetadata is not safe for concurrent use.
package metadata

import (
	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/fitalloc/memutils"
	"github.com/vkngwrapper/fitalloc/memutils/block"
)

// Memory exposes the buffer that block headers are encoded into. The buffer may be replaced
// whenever the heap grows, so FreeListMetadata re-fetches it on every operation.
type Memory interface {
	Bytes() []byte
}

// FreeListMetadata is the free list of a single heap. The list is kept sorted by header offset,
// strictly ascending, at all times: the coalescing logic relies on it to find physically adjacent
// free blocks by only looking at a block's immediate list neighbors.
type FreeListMetadata struct {
	memory Memory

	head            block.Offset
	blocksFreeCount int
	blocksFreeSize  int
}

var _ memutils.Validatable = &FreeListMetadata{}

// NewFreeListMetadata creates an empty free list over the provided memory
func NewFreeListMetadata(memory Memory) *FreeListMetadata {
	return &FreeListMetadata{
		memory: memory,
		head:   block.Null,
	}
}

func (m *FreeListMetadata) header(off block.Offset) block.Header {
	return block.At(m.memory.Bytes(), off)
}

// Head returns the offset of the lowest-addressed free block, or block.Null if the list is empty
func (m *FreeListMetadata) Head() block.Offset { return m.head }

// Next returns the free block following the one at off in the list, or block.Null
func (m *FreeListMetadata) Next(off block.Offset) block.Offset { return m.header(off).Next() }

// Prev returns the free block preceding the one at off in the list, or block.Null
func (m *FreeListMetadata) Prev(off block.Offset) block.Offset { return m.header(off).Prev() }

// FreeBlockCount returns the number of blocks in the free list
func (m *FreeListMetadata) FreeBlockCount() int { return m.blocksFreeCount }

// SumFreeSize returns the number of payload bytes held by blocks in the free list. Header bytes of
// free blocks are not included.
func (m *FreeListMetadata) SumFreeSize() int { return m.blocksFreeSize }

// IsEmpty returns true if there are no free blocks
func (m *FreeListMetadata) IsEmpty() bool { return m.head == block.Null }

// VisitFreeBlocks calls the provided callback for every free block in address order. Iteration
// stops at the first error, which is returned.
func (m *FreeListMetadata) VisitFreeBlocks(handleBlock func(offset block.Offset, size int) error) error {
	mem := m.memory.Bytes()
	for off := m.head; off != block.Null; {
		h := block.At(mem, off)
		err := handleBlock(off, h.Size())
		if err != nil {
			return err
		}
		off = h.Next()
	}

	return nil
}

// Validate performs a full walk of the free list and verifies its structural invariants
func (m *FreeListMetadata) Validate() error {
	mem := m.memory.Bytes()

	if m.head == block.Null {
		if m.blocksFreeCount != 0 || m.blocksFreeSize != 0 {
			return errors.Errorf("the free list is empty but the metadata records %d free blocks with %d bytes", m.blocksFreeCount, m.blocksFreeSize)
		}
		return nil
	}

	var freeCount, freeSize int
	prev := block.Null
	prevEnd := block.Offset(0)

	for off := m.head; off != block.Null; {
		if !block.Fits(len(mem), off) {
			return errors.Errorf("free block at offset %s is outside of the %d byte heap", off, len(mem))
		}

		h := block.At(mem, off)
		if h.Prev() != prev {
			return errors.Errorf("block at offset %s lists %s as its previous block, but it follows %s in the free list", off, h.Prev(), prev)
		}

		if prev != block.Null {
			if off <= prev {
				return errors.Errorf("free list is not in ascending address order: %s follows %s", off, prev)
			}
			if off < prevEnd {
				return errors.Errorf("free block at offset %s overlaps the free block at offset %s", off, prev)
			}
		}

		if int(h.End()) > len(mem) {
			return errors.Errorf("free block at offset %s with size %d runs past the end of the %d byte heap", off, h.Size(), len(mem))
		}

		freeCount++
		freeSize += h.Size()

		prev = off
		prevEnd = h.End()
		off = h.Next()
	}

	if freeCount != m.blocksFreeCount {
		return errors.Errorf("the free block count of the metadata is %d, but the free list holds %d blocks", m.blocksFreeCount, freeCount)
	}

	if freeSize != m.blocksFreeSize {
		return errors.Errorf("the free size of the metadata is %d, but the free blocks only added up to %d", m.blocksFreeSize, freeSize)
	}

	return nil
}

// AddDetailedStatistics records every free block as an unused range in the provided statistics
func (m *FreeListMetadata) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	_ = m.VisitFreeBlocks(func(offset block.Offset, size int) error {
		stats.AddUnusedRange(size)
		return nil
	})
}

// FreeListJsonData populates a json object with information about the free list. When detailed is
// true, every free block is listed.
func (m *FreeListMetadata) FreeListJsonData(json jwriter.ObjectState, detailed bool) {
	json.Name("FreeBlocks").Int(m.blocksFreeCount)
	json.Name("FreeBytes").Int(m.blocksFreeSize)

	if !detailed {
		return
	}

	arrayState := json.Name("FreeList").Array()
	defer arrayState.End()

	_ = m.VisitFreeBlocks(func(offset block.Offset, size int) error {
		obj := arrayState.Object()
		defer obj.End()

		obj.Name("Offset").Int(int(offset))
		obj.Name("Size").Int(size)
		return nil
	})
}
