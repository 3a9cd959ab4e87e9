package heap

import (
	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/fitalloc/memutils"
	"github.com/vkngwrapper/fitalloc/memutils/block"
	"github.com/vkngwrapper/fitalloc/memutils/metadata"
	"github.com/vkngwrapper/fitalloc/memutils/source"
	"golang.org/x/exp/slog"
)

// Heap is a free-list allocator over a single growable memory source
type Heap struct {
	logger    *slog.Logger
	source    source.Source
	freeList  *metadata.FreeListMetadata
	strategy  metadata.AllocationStrategy
	callbacks heapCallbacks

	// Header offset of every live allocation, mapped to the size the caller asked for
	live *swiss.Map[block.Offset, int]

	usefulSpace int
	totalSpace  int
}

var _ memutils.Validatable = &Heap{}

// Strategy returns the placement strategy used by Allocate
func (h *Heap) Strategy() metadata.AllocationStrategy { return h.strategy }

// Allocate reserves size bytes using the heap's configured strategy and returns the offset of the
// first payload byte
func (h *Heap) Allocate(size int) (block.Offset, error) {
	return h.AllocateWithStrategy(size, h.strategy)
}

// AllocateWithStrategy reserves size bytes, using the provided strategy to choose among free blocks.
// If no free block is large enough, the heap is extended. The returned offset points at the first
// payload byte.
func (h *Heap) AllocateWithStrategy(size int, strategy metadata.AllocationStrategy) (block.Offset, error) {
	h.logger.Debug("Heap::Allocate", slog.Int("Size", size), slog.String("Strategy", strategy.String()))
	memutils.DebugValidate(h)

	if size <= 0 {
		return block.Null, errors.Wrapf(memutils.ErrInvalidSize, "requested %d bytes", size)
	}

	candidate, err := h.freeList.FindFit(strategy, size)
	if err != nil {
		return block.Null, err
	}

	if candidate != block.Null {
		h.usefulSpace += h.freeList.Split(candidate, size)
		h.logger.Debug("  Reused free block", slog.Int("Offset", int(candidate)))
	} else {
		candidate, err = h.extendSpace(size)
		if err != nil {
			return block.Null, err
		}
	}

	h.live.Put(candidate, size)
	return candidate.Payload(), nil
}

// Free returns the allocation at ptr to the free list, merging it with any free physical
// neighbors. Freeing block.Null is a no-op. Pointers that do not refer to a live allocation,
// including pointers that were already freed, are rejected with memutils.ErrInvalidPointer and
// leave the heap untouched.
func (h *Heap) Free(ptr block.Offset) error {
	h.logger.Debug("Heap::Free", slog.Int("Pointer", int(ptr)))
	memutils.DebugValidate(h)

	if ptr == block.Null {
		return nil
	}

	off := block.HeaderOf(ptr)
	if !h.live.Has(off) {
		return errors.Wrapf(memutils.ErrInvalidPointer, "pointer %s", ptr)
	}
	h.live.Delete(off)

	header := block.At(h.source.Bytes(), off)
	h.usefulSpace -= header.Size()

	h.freeList.Add(off)
	h.freeList.Combine(off)

	return nil
}

// FFMalloc allocates size bytes with the first-fit strategy, returning block.Null on failure
func (h *Heap) FFMalloc(size int) block.Offset {
	return h.allocateOrNull(size, metadata.AllocationStrategyFirstFit)
}

// FFFree frees ptr, ignoring invalid pointers
func (h *Heap) FFFree(ptr block.Offset) {
	h.freeOrIgnore(ptr)
}

// BFMalloc allocates size bytes with the best-fit strategy, returning block.Null on failure
func (h *Heap) BFMalloc(size int) block.Offset {
	return h.allocateOrNull(size, metadata.AllocationStrategyBestFit)
}

// BFFree frees ptr, ignoring invalid pointers
func (h *Heap) BFFree(ptr block.Offset) {
	h.freeOrIgnore(ptr)
}

func (h *Heap) allocateOrNull(size int, strategy metadata.AllocationStrategy) block.Offset {
	ptr, err := h.AllocateWithStrategy(size, strategy)
	if err != nil {
		h.logger.Debug("  Allocate FAILED", slog.Int("Size", size), slog.String("Error", err.Error()))
		return block.Null
	}
	return ptr
}

func (h *Heap) freeOrIgnore(ptr block.Offset) {
	err := h.Free(ptr)
	if err != nil {
		h.logger.Debug("  Free IGNORED", slog.Int("Pointer", int(ptr)), slog.String("Error", err.Error()))
	}
}

func (h *Heap) liveHeader(ptr block.Offset) (block.Header, error) {
	off := block.HeaderOf(ptr)
	if ptr == block.Null || !h.live.Has(off) {
		return block.Header{}, errors.Wrapf(memutils.ErrInvalidPointer, "pointer %s", ptr)
	}

	return block.At(h.source.Bytes(), off), nil
}

// Payload returns the memory of the live allocation at ptr. The slice covers the whole usable
// size, which may be larger than the size that was requested. With a source whose memory moves as
// it grows, such as source.Growable, the slice is only valid until the heap next grows.
func (h *Heap) Payload(ptr block.Offset) ([]byte, error) {
	header, err := h.liveHeader(ptr)
	if err != nil {
		return nil, err
	}

	mem := h.source.Bytes()
	return mem[ptr:header.End():header.End()], nil
}

// UsableSize returns the number of payload bytes available at ptr. This is at least the requested
// size, and larger when a free block was handed out whole because it was too small to split.
func (h *Heap) UsableSize(ptr block.Offset) (int, error) {
	header, err := h.liveHeader(ptr)
	if err != nil {
		return 0, err
	}

	return header.Size(), nil
}

// AllocationCount returns the number of live allocations
func (h *Heap) AllocationCount() int {
	return h.live.Count()
}
