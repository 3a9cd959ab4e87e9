package metadata

import (
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/fitalloc/memutils/block"
)

// AllocationStrategy selects how a free block is chosen for a new allocation
type AllocationStrategy uint32

const (
	// AllocationStrategyFirstFit chooses the lowest-addressed free block that is large enough
	// for the allocation. It stops at the first match and so is usually the faster of the two.
	AllocationStrategyFirstFit AllocationStrategy = iota
	// AllocationStrategyBestFit chooses the smallest free block that is large enough for the
	// allocation, preferring the lowest address among equally-sized blocks. Unless an exact fit
	// is found, the whole free list is scanned.
	AllocationStrategyBestFit
)

var allocationStrategyMapping = map[AllocationStrategy]string{
	AllocationStrategyFirstFit: "FirstFit",
	AllocationStrategyBestFit:  "BestFit",
}

func (s AllocationStrategy) String() string {
	return allocationStrategyMapping[s]
}

// ParseAllocationStrategy accepts "ff", "first-fit" and "firstfit" (and the best-fit equivalents),
// ignoring case
func ParseAllocationStrategy(name string) (AllocationStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ff", "first-fit", "firstfit", "first":
		return AllocationStrategyFirstFit, nil
	case "bf", "best-fit", "bestfit", "best":
		return AllocationStrategyBestFit, nil
	}

	return 0, errors.Newf("unknown allocation strategy %q", name)
}

// FitFunc searches the free list for a block that can hold size bytes, returning block.Null when
// there is none. It must not modify the free list.
type FitFunc func(m *FreeListMetadata, size int) block.Offset

var fitFuncs = map[AllocationStrategy]FitFunc{
	AllocationStrategyFirstFit: (*FreeListMetadata).FindFirstFit,
	AllocationStrategyBestFit:  (*FreeListMetadata).FindBestFit,
}

// FitFunc returns the search function implementing this strategy
func (s AllocationStrategy) FitFunc() (FitFunc, error) {
	fit, ok := fitFuncs[s]
	if !ok {
		return nil, errors.Newf("unknown allocation strategy %d", uint32(s))
	}
	return fit, nil
}

// FindFit runs the search for the provided strategy
func (m *FreeListMetadata) FindFit(strategy AllocationStrategy, size int) (block.Offset, error) {
	fit, err := strategy.FitFunc()
	if err != nil {
		return block.Null, err
	}

	return fit(m, size), nil
}

// FindFirstFit returns the first block in address order with at least requiredSize bytes of payload
func (m *FreeListMetadata) FindFirstFit(requiredSize int) block.Offset {
	mem := m.memory.Bytes()
	for off := m.head; off != block.Null; {
		h := block.At(mem, off)
		if h.Size() >= requiredSize {
			return off
		}
		off = h.Next()
	}

	return block.Null
}

// FindBestFit returns the smallest block with at least requiredSize bytes of payload. An exact fit
// ends the scan immediately; otherwise ties go to the lowest address.
func (m *FreeListMetadata) FindBestFit(requiredSize int) block.Offset {
	mem := m.memory.Bytes()
	best := block.Null
	minimum := math.MaxInt

	for off := m.head; off != block.Null; {
		h := block.At(mem, off)
		size := h.Size()

		if size == requiredSize {
			return off
		}

		if size > requiredSize && size < minimum {
			minimum = size
			best = off
		}

		off = h.Next()
	}

	return best
}
