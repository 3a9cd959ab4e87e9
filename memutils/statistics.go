package memutils

import "math"

// Statistics is a cheap summary of a heap's accounting counters
type Statistics struct {
	// BlockCount is the number of physical blocks, allocated or free, that tile the heap
	BlockCount int
	// AllocationCount is the number of live allocations
	AllocationCount int
	// BlockBytes is the number of bytes claimed from the memory source, headers included
	BlockBytes int
	// AllocationBytes is the number of payload bytes currently handed out to callers
	AllocationBytes int
}

func (s *Statistics) Clear() {
	s.BlockCount = 0
	s.AllocationCount = 0
	s.BlockBytes = 0
	s.AllocationBytes = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.BlockCount += other.BlockCount
	s.AllocationCount += other.AllocationCount
	s.BlockBytes += other.BlockBytes
	s.AllocationBytes += other.AllocationBytes
}

// UnusedBytes is the number of claimed bytes not occupied by live payload. This includes header
// overhead for every block, so it is not the same as the amount of memory that can still be handed out.
func (s *Statistics) UnusedBytes() int {
	return s.BlockBytes - s.AllocationBytes
}

// Fragmentation returns UnusedBytes as a fraction of BlockBytes, or 0 for an empty heap
func (s *Statistics) Fragmentation() float64 {
	if s.BlockBytes == 0 {
		return 0
	}

	return float64(s.UnusedBytes()) / float64(s.BlockBytes)
}

// DetailedStatistics extends Statistics with per-range size extremes. Call Clear before
// accumulating into it so that the minimums start out at math.MaxInt.
type DetailedStatistics struct {
	Statistics
	UnusedRangeCount   int
	UnusedRangeBytes   int
	HeaderBytes        int
	AllocationSizeMin  int
	AllocationSizeMax  int
	UnusedRangeSizeMin int
	UnusedRangeSizeMax int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.UnusedRangeCount = 0
	s.UnusedRangeBytes = 0
	s.HeaderBytes = 0
	s.AllocationSizeMin = math.MaxInt
	s.AllocationSizeMax = 0
	s.UnusedRangeSizeMin = math.MaxInt
	s.UnusedRangeSizeMax = 0
}

// AddUnusedRange records a free block with the provided payload size
func (s *DetailedStatistics) AddUnusedRange(size int) {
	s.UnusedRangeCount++
	s.UnusedRangeBytes += size

	if size < s.UnusedRangeSizeMin {
		s.UnusedRangeSizeMin = size
	}

	if size > s.UnusedRangeSizeMax {
		s.UnusedRangeSizeMax = size
	}
}

// AddAllocation records a live allocation with the provided payload size
func (s *DetailedStatistics) AddAllocation(size int) {
	s.AllocationCount++
	s.AllocationBytes += size

	if size < s.AllocationSizeMin {
		s.AllocationSizeMin = size
	}

	if size > s.AllocationSizeMax {
		s.AllocationSizeMax = size
	}
}

// AddBlock records a physical block with the provided header and payload sizes
func (s *DetailedStatistics) AddBlock(headerSize, payloadSize int) {
	s.BlockCount++
	s.BlockBytes += headerSize + payloadSize
	s.HeaderBytes += headerSize
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.UnusedRangeCount += other.UnusedRangeCount
	s.UnusedRangeBytes += other.UnusedRangeBytes
	s.HeaderBytes += other.HeaderBytes

	if other.UnusedRangeSizeMin < s.UnusedRangeSizeMin {
		s.UnusedRangeSizeMin = other.UnusedRangeSizeMin
	}

	if other.UnusedRangeSizeMax > s.UnusedRangeSizeMax {
		s.UnusedRangeSizeMax = other.UnusedRangeSizeMax
	}

	if other.AllocationSizeMin < s.AllocationSizeMin {
		s.AllocationSizeMin = other.AllocationSizeMin
	}

	if other.AllocationSizeMax > s.AllocationSizeMax {
		s.AllocationSizeMax = other.AllocationSizeMax
	}
}
