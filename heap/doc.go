// Package heap is a malloc/free style allocator built on a single address-ordered free list, with
// a choice of first-fit or best-fit placement for every allocation.
//
// A Heap owns a memory source (see memutils/source) that only ever grows. Every block in the heap
// starts with a 24-byte header (see memutils/block); the offsets handed to callers point just past
// that header, into the payload. Freed blocks are returned to the free list and merged with their
// free physical neighbors, but memory is never given back to the source.
//
// Two families of entry points are provided. Allocate, AllocateWithStrategy and Free report
// failures as errors that can be tested with errors.Is against memutils.ErrInvalidSize,
// memutils.ErrOutOfMemory and memutils.ErrInvalidPointer. FFMalloc, FFFree, BFMalloc and BFFree
// mirror the classic C interface instead: failed allocations return block.Null and invalid frees
// are silently ignored. Both families, and both strategies, share the same free list, so pointers
// from one may be released through any other.
//
// The package-level functions of the same names operate on a process-wide default heap.
//
// Heaps are not safe for concurrent use.
package heap
