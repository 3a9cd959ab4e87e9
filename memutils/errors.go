package memutils

import "github.com/cockroachdb/errors"

var (
	// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
	PowerOfTwoError error = errors.New("number must be a power of two")

	// ErrInvalidSize is returned when an allocation of zero or a negative number of bytes is requested
	ErrInvalidSize error = errors.New("allocation size must be greater than zero")

	// ErrOutOfMemory is returned when the underlying memory source could not satisfy a request to grow the heap
	ErrOutOfMemory error = errors.New("heap exhausted")

	// ErrInvalidPointer is returned when a released pointer does not refer to a live allocation. This covers
	// double frees as well as pointers that were never handed out by the heap.
	ErrInvalidPointer error = errors.New("pointer does not refer to a live allocation")
)
