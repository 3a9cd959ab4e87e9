package heap

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/fitalloc/memutils"
	"github.com/vkngwrapper/fitalloc/memutils/block"
)

// DataSegmentSize returns the number of bytes the heap has claimed from its source, headers
// included
func (h *Heap) DataSegmentSize() int {
	return h.totalSpace
}

// DataSegmentFreeSpaceSize returns the number of claimed bytes that are not handed out as payload.
// This counts every header as well as every free block.
func (h *Heap) DataSegmentFreeSpaceSize() int {
	return h.totalSpace - h.usefulSpace
}

// visitPhysicalBlocks walks every block in address order, free or not
func (h *Heap) visitPhysicalBlocks(handleBlock func(header block.Header) error) error {
	mem := h.source.Bytes()
	for off := block.Offset(0); int(off) < h.totalSpace; {
		header := block.At(mem, off)
		err := handleBlock(header)
		if err != nil {
			return err
		}
		off = header.End()
	}

	return nil
}

// AddStatistics adds the heap's basic statistics to the provided object. The whole heap counts as
// a single block.
func (h *Heap) AddStatistics(stats *memutils.Statistics) {
	if h.totalSpace == 0 {
		return
	}

	stats.BlockCount++
	stats.BlockBytes += h.totalSpace
	stats.AllocationCount += h.live.Count()
	stats.AllocationBytes += h.usefulSpace
}

// CalculateStatistics walks the whole heap and records every block in the provided statistics.
// Each physical block is reported as a block whose header bytes are tracked separately, and its
// payload as either an allocation or an unused range.
func (h *Heap) CalculateStatistics(stats *memutils.DetailedStatistics) {
	stats.Clear()

	_ = h.visitPhysicalBlocks(func(header block.Header) error {
		stats.AddBlock(block.HeaderSize, header.Size())

		if h.live.Has(header.Offset()) {
			stats.AddAllocation(header.Size())
		}
		return nil
	})

	h.freeList.AddDetailedStatistics(stats)
}

// BuildStatsString produces a json document describing the state of the heap. When detailed is
// true, the document lists every block in address order.
func (h *Heap) BuildStatsString(detailed bool) string {
	writer := jwriter.NewWriter()
	h.WriteStatsJSON(&writer, detailed)

	return string(writer.Bytes())
}

// WriteStatsJSON writes the document produced by BuildStatsString as the next value of writer, so
// that it can be nested inside a larger document
func (h *Heap) WriteStatsJSON(writer *jwriter.Writer, detailed bool) {
	rootObj := writer.Object()
	defer rootObj.End()

	rootObj.Name("Strategy").String(h.strategy.String())
	rootObj.Name("TotalBytes").Int(h.totalSpace)
	rootObj.Name("UsefulBytes").Int(h.usefulSpace)
	rootObj.Name("Allocations").Int(h.live.Count())

	var stats memutils.DetailedStatistics
	h.CalculateStatistics(&stats)

	statsObj := rootObj.Name("Statistics").Object()
	printStatistics(&statsObj, &stats)
	statsObj.End()

	freeObj := rootObj.Name("FreeList").Object()
	h.freeList.FreeListJsonData(freeObj, detailed)
	freeObj.End()

	if detailed {
		h.printDetailedMap(&rootObj)
	}
}

func printStatistics(json *jwriter.ObjectState, stats *memutils.DetailedStatistics) {
	json.Name("BlockCount").Int(stats.BlockCount)
	json.Name("BlockBytes").Int(stats.BlockBytes)
	json.Name("HeaderBytes").Int(stats.HeaderBytes)
	json.Name("AllocationCount").Int(stats.AllocationCount)
	json.Name("AllocationBytes").Int(stats.AllocationBytes)
	json.Name("UnusedRangeCount").Int(stats.UnusedRangeCount)
	json.Name("UnusedRangeBytes").Int(stats.UnusedRangeBytes)

	if stats.AllocationCount > 0 {
		json.Name("AllocationSizeMin").Int(stats.AllocationSizeMin)
		json.Name("AllocationSizeMax").Int(stats.AllocationSizeMax)
	}

	if stats.UnusedRangeCount > 0 {
		json.Name("UnusedRangeSizeMin").Int(stats.UnusedRangeSizeMin)
		json.Name("UnusedRangeSizeMax").Int(stats.UnusedRangeSizeMax)
	}
}

func (h *Heap) printDetailedMap(json *jwriter.ObjectState) {
	arrayState := json.Name("Blocks").Array()
	defer arrayState.End()

	_ = h.visitPhysicalBlocks(func(header block.Header) error {
		obj := arrayState.Object()
		defer obj.End()

		obj.Name("Offset").Int(int(header.Offset()))
		obj.Name("Size").Int(header.Size())

		requested, isLive := h.live.Get(header.Offset())
		if isLive {
			obj.Name("Type").String("Allocation")
			obj.Name("RequestedSize").Int(requested)
		} else {
			obj.Name("Type").String("Free")
		}

		return nil
	})
}
