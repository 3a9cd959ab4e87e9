package heap

import (
	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/fitalloc/memutils/block"
)

// Validate walks the free list and every physical block, and verifies that the heap is
// consistent: blocks tile the claimed memory exactly, every block is either live or on the free
// list, and the byte counters agree with the blocks.
func (h *Heap) Validate() error {
	err := h.freeList.Validate()
	if err != nil {
		return err
	}

	memLen := len(h.source.Bytes())
	if memLen != h.totalSpace {
		return errors.Errorf("the heap has claimed %d bytes but its source holds %d", h.totalSpace, memLen)
	}

	if h.usefulSpace < 0 || h.usefulSpace > h.totalSpace {
		return errors.Errorf("the heap reports %d useful bytes out of %d total bytes", h.usefulSpace, h.totalSpace)
	}

	free := swiss.NewMap[block.Offset, struct{}](uint32(h.freeList.FreeBlockCount()))
	_ = h.freeList.VisitFreeBlocks(func(offset block.Offset, size int) error {
		free.Put(offset, struct{}{})
		return nil
	})

	var liveCount, liveBytes, freeCount int
	mem := h.source.Bytes()
	for off := block.Offset(0); int(off) < h.totalSpace; {
		if !block.Fits(memLen, off) {
			return errors.Errorf("block header at offset %s runs past the end of the %d byte heap", off, memLen)
		}

		header := block.At(mem, off)
		if header.Size() <= 0 {
			return errors.Errorf("block at offset %s has a non-positive size %d", off, header.Size())
		}
		if int(header.End()) > memLen {
			return errors.Errorf("block at offset %s with size %d runs past the end of the %d byte heap", off, header.Size(), memLen)
		}

		requested, isLive := h.live.Get(off)
		isFree := free.Has(off)

		switch {
		case isLive && isFree:
			return errors.Errorf("block at offset %s is both allocated and on the free list", off)
		case isLive:
			if header.HasLinks() {
				return errors.Errorf("allocated block at offset %s still has free list links", off)
			}
			if requested > header.Size() {
				return errors.Errorf("allocated block at offset %s holds %d bytes but %d were requested", off, header.Size(), requested)
			}
			liveCount++
			liveBytes += header.Size()
		case isFree:
			freeCount++
		default:
			return errors.Errorf("block at offset %s is neither allocated nor on the free list", off)
		}

		off = header.End()
	}

	if freeCount != h.freeList.FreeBlockCount() {
		return errors.Errorf("the free list holds %d blocks but only %d were found in the heap", h.freeList.FreeBlockCount(), freeCount)
	}

	if liveCount != h.live.Count() {
		return errors.Errorf("%d allocations are tracked but only %d were found in the heap", h.live.Count(), liveCount)
	}

	if liveBytes != h.usefulSpace {
		return errors.Errorf("the heap reports %d useful bytes but its allocations add up to %d", h.usefulSpace, liveBytes)
	}

	return nil
}
