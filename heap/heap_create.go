package heap

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/fitalloc/memutils/block"
	"github.com/vkngwrapper/fitalloc/memutils/metadata"
	"github.com/vkngwrapper/fitalloc/memutils/source"
	"golang.org/x/exp/slog"
)

const initialLiveCapacity uint32 = 64

// CreateOptions contains optional settings when creating a heap. The zero value is a first-fit
// heap over an unlimited Growable source.
type CreateOptions struct {
	// Strategy is the placement strategy used by Allocate. AllocateWithStrategy and the FF/BF
	// entry points ignore it.
	Strategy metadata.AllocationStrategy

	// Source is the memory the heap grows into. It must not have been extended yet. When nil,
	// a source.Growable limited to MaxHeapSize is created.
	Source source.Source

	// MaxHeapSize limits the default Growable source, in bytes, headers included. 0 means no
	// limit. It cannot be combined with Source.
	MaxHeapSize int

	// Callbacks is an optional set of hooks executed when the heap grows or fails to grow
	Callbacks *HeapCallbackOptions
}

// New creates a new Heap
//
// logger - Receives debug-level traces of every operation. When nil, nothing is logged.
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, options CreateOptions) (*Heap, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	_, err := options.Strategy.FitFunc()
	if err != nil {
		return nil, err
	}

	if options.MaxHeapSize < 0 {
		return nil, errors.Newf("heap.CreateOptions.MaxHeapSize must not be negative, got %d", options.MaxHeapSize)
	}

	src := options.Source
	if src == nil {
		src = source.NewGrowable(options.MaxHeapSize)
	} else if options.MaxHeapSize != 0 {
		return nil, errors.New("heap.CreateOptions.MaxHeapSize was provided along with a Source; limit the Source instead")
	} else if src.Len() != 0 {
		return nil, errors.Newf("heap.CreateOptions.Source has already been extended by %d bytes", src.Len())
	}

	heap := &Heap{
		logger:   logger,
		source:   src,
		freeList: metadata.NewFreeListMetadata(src),
		strategy: options.Strategy,
		live:     swiss.NewMap[block.Offset, int](initialLiveCapacity),
	}
	heap.callbacks = heapCallbacks{
		Callbacks: options.Callbacks,
		Heap:      heap,
	}

	return heap, nil
}
