package trace

import (
	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/fitalloc/heap"
	"github.com/vkngwrapper/fitalloc/memutils"
	"github.com/vkngwrapper/fitalloc/memutils/block"
)

// Result summarizes a replay. Operations that the heap rejects are counted as failures and do
// not stop the replay.
type Result struct {
	Operations        int
	Allocations       int
	Frees             int
	FailedAllocations int
	FailedFrees       int
	HeapGrowths       int

	DataSegmentSize          int
	DataSegmentFreeSpaceSize int
	PeakAllocatedBytes       int
	// Heap summarizes the whole heap as a single block
	Heap       memutils.Statistics
	Statistics memutils.DetailedStatistics
}

// Replay runs every operation against the heap with its configured strategy. Allocating an id that
// is still live, and freeing an id that is not, count as failed operations. Allocations that are
// still live at the end of the trace stay allocated.
func Replay(h *heap.Heap, ops []Op) (Result, error) {
	var result Result
	pointers := swiss.NewMap[int, block.Offset](uint32(len(ops)/2 + 1))

	for _, op := range ops {
		result.Operations++
		segmentSize := h.DataSegmentSize()

		switch op.Kind {
		case OpAllocate:
			if pointers.Has(op.ID) {
				result.FailedAllocations++
				continue
			}

			ptr, err := h.Allocate(op.Size)
			if err != nil {
				result.FailedAllocations++
				continue
			}
			pointers.Put(op.ID, ptr)
			result.Allocations++

			allocated := h.DataSegmentSize() - h.DataSegmentFreeSpaceSize()
			if allocated > result.PeakAllocatedBytes {
				result.PeakAllocatedBytes = allocated
			}
		case OpFree:
			ptr, ok := pointers.Get(op.ID)
			if !ok {
				result.FailedFrees++
				continue
			}
			pointers.Delete(op.ID)

			err := h.Free(ptr)
			if err != nil {
				return result, errors.Wrapf(err, "line %d: heap rejected pointer %s for id %d", op.Line, ptr, op.ID)
			}
			result.Frees++
		default:
			return result, errors.Newf("line %d: unknown operation %d", op.Line, op.Kind)
		}

		if h.DataSegmentSize() > segmentSize {
			result.HeapGrowths++
		}
	}

	result.DataSegmentSize = h.DataSegmentSize()
	result.DataSegmentFreeSpaceSize = h.DataSegmentFreeSpaceSize()
	h.AddStatistics(&result.Heap)
	h.CalculateStatistics(&result.Statistics)

	return result, nil
}
