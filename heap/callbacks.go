package heap

import "github.com/vkngwrapper/fitalloc/memutils/block"

// ExtendCallback is called after the heap claims more memory from its source. offset is the
// header offset of the newly created block and size includes the header.
type ExtendCallback func(
	heap *Heap,
	offset block.Offset,
	size int,
	userData any,
)

// OutOfMemoryCallback is called when the source refuses to grow the heap by size bytes
type OutOfMemoryCallback func(
	heap *Heap,
	size int,
	userData any,
)

// HeapCallbackOptions is an optional set of hooks that observe heap growth
type HeapCallbackOptions struct {
	Extend      ExtendCallback
	OutOfMemory OutOfMemoryCallback
	UserData    any
}

type heapCallbacks struct {
	Callbacks *HeapCallbackOptions
	Heap      *Heap
}

func (c *heapCallbacks) Extend(
	offset block.Offset,
	size int,
) {
	if c.Callbacks != nil && c.Callbacks.Extend != nil {
		c.Callbacks.Extend(c.Heap, offset, size, c.Callbacks.UserData)
	}
}

func (c *heapCallbacks) OutOfMemory(
	size int,
) {
	if c.Callbacks != nil && c.Callbacks.OutOfMemory != nil {
		c.Callbacks.OutOfMemory(c.Heap, size, c.Callbacks.UserData)
	}
}
