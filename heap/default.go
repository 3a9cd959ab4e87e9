package heap

import (
	"github.com/vkngwrapper/fitalloc/memutils/block"
)

var defaultHeap *Heap

// Default returns the process-wide heap used by the package-level functions, creating it on first
// use. It is a first-fit heap over an unlimited Growable source that does not log.
//
// The package-level functions are not safe for concurrent use.
func Default() *Heap {
	if defaultHeap == nil {
		heap, err := New(nil, CreateOptions{})
		if err != nil {
			panic(err)
		}
		defaultHeap = heap
	}

	return defaultHeap
}

// FFMalloc allocates size bytes from the default heap with the first-fit strategy. It returns
// block.Null when size is not positive or the heap cannot grow.
func FFMalloc(size int) block.Offset {
	return Default().FFMalloc(size)
}

// FFFree frees ptr on the default heap
func FFFree(ptr block.Offset) {
	Default().FFFree(ptr)
}

// BFMalloc allocates size bytes from the default heap with the best-fit strategy. It returns
// block.Null when size is not positive or the heap cannot grow.
func BFMalloc(size int) block.Offset {
	return Default().BFMalloc(size)
}

// BFFree frees ptr on the default heap
func BFFree(ptr block.Offset) {
	Default().BFFree(ptr)
}

// DataSegmentSize returns the size of the default heap, headers included
func DataSegmentSize() int {
	return Default().DataSegmentSize()
}

// DataSegmentFreeSpaceSize returns the number of bytes of the default heap that are not handed out
// as payload
func DataSegmentFreeSpaceSize() int {
	return Default().DataSegmentFreeSpaceSize()
}
