// Package source provides the raw memory that a heap is carved out of. A Source behaves like the
// classic program break: it hands out contiguous, ever-growing address space and never takes any
// of it back.
package source

//go:generate mockgen -source source.go -destination ./mocks/source.go

// Source is a contiguous region of memory that can only grow
type Source interface {
	// Extend claims size more bytes at the end of the region and returns the offset of the first
	// claimed byte. If the region cannot grow by size bytes, an error marked with
	// memutils.ErrOutOfMemory is returned and the region is unchanged.
	Extend(size int) (int, error)
	// Bytes returns the claimed region. The returned slice may be invalidated by the next call
	// to Extend.
	Bytes() []byte
	// Len returns the number of bytes claimed so far
	Len() int
}
