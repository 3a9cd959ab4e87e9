// Package workload contains synthetic allocation programs used to compare placement strategies.
// Every workload is deterministic for a given seed.
package workload

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/fitalloc/heap"
	"github.com/vkngwrapper/fitalloc/memutils/block"
	"github.com/vkngwrapper/fitalloc/memutils/metadata"
	"golang.org/x/exp/rand"
)

type Kind int32

const (
	// EqualSize allocates blocks of a single size and frees them in allocation order
	EqualSize Kind = iota
	// SmallRangeRandom keeps a pool of blocks between 128 and 512 bytes, in steps of 32, and
	// replaces random members of the pool every iteration
	SmallRangeRandom
	// LargeRangeRandom keeps a pool of blocks between 32 and 64000 bytes and replaces random
	// members of the pool every iteration
	LargeRangeRandom
)

const (
	equalAllocationSize = 128

	smallRangeMin  = 128
	smallRangeMax  = 512
	smallRangeStep = 32

	largeRangeMin = 32
	largeRangeMax = 64000

	defaultItems = 10000
	// Fraction of the pool replaced by each iteration of the random workloads
	replacementDivisor = 20
)

var kindMapping = map[Kind]string{
	EqualSize:        "equal",
	SmallRangeRandom: "small",
	LargeRangeRandom: "large",
}

var defaultIterations = map[Kind]int{
	EqualSize:        100,
	SmallRangeRandom: 100,
	LargeRangeRandom: 50,
}

func (k Kind) String() string {
	return kindMapping[k]
}

// ParseKind accepts the names produced by Kind.String
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, kindName := range kindMapping {
		if kindName == name {
			return kind, nil
		}
	}

	return 0, errors.Newf("unknown workload %q: expected equal, small or large", name)
}

// Config selects a workload and its size. Zero values select defaults.
type Config struct {
	Workload Kind
	// Strategy is the placement strategy used for every allocation
	Strategy metadata.AllocationStrategy
	// Iterations is the number of passes over the pool
	Iterations int
	// Items is the number of live allocations the workload keeps
	Items int
	Seed     uint64
}

// Result summarizes a single workload run
type Result struct {
	Workload    Kind
	Strategy    metadata.AllocationStrategy
	Iterations  int
	Allocations int
	Frees       int
	Elapsed     time.Duration

	DataSegmentSize          int
	DataSegmentFreeSpaceSize int
}

// Fragmentation is the share of the heap that is not handed out as payload at the end of the run
func (r Result) Fragmentation() float64 {
	if r.DataSegmentSize == 0 {
		return 0
	}

	return float64(r.DataSegmentFreeSpaceSize) / float64(r.DataSegmentSize)
}

type runner struct {
	heap     *heap.Heap
	strategy metadata.AllocationStrategy
	rng      *rand.Rand
	result   Result
	measured bool
}

// Run executes a workload against the provided heap. The context is checked between iterations;
// when it is cancelled, Run returns the partial result along with the context's error. Every
// allocation made by the workload is freed before Run returns, but the heap keeps the memory it
// claimed, so the reported sizes describe the heap at its peak.
func Run(ctx context.Context, h *heap.Heap, config Config) (Result, error) {
	_, err := config.Strategy.FitFunc()
	if err != nil {
		return Result{}, err
	}

	if config.Iterations < 0 || config.Items < 0 {
		return Result{}, errors.Newf("workload iterations and items must not be negative, got %d and %d", config.Iterations, config.Items)
	}

	iterations := config.Iterations
	if iterations == 0 {
		iterations = defaultIterations[config.Workload]
	}
	items := config.Items
	if items == 0 {
		items = defaultItems
	}

	r := &runner{
		heap:     h,
		strategy: config.Strategy,
		rng:      rand.New(rand.NewSource(config.Seed)),
		result: Result{
			Workload: config.Workload,
			Strategy: config.Strategy,
		},
	}

	var sizeFunc func() int
	switch config.Workload {
	case EqualSize:
		err = r.runEqualSize(ctx, iterations, items)
	case SmallRangeRandom:
		sizeFunc = func() int {
			return smallRangeMin + smallRangeStep*r.rng.Intn((smallRangeMax-smallRangeMin)/smallRangeStep+1)
		}
		err = r.runRandom(ctx, iterations, items, sizeFunc)
	case LargeRangeRandom:
		sizeFunc = func() int {
			return largeRangeMin + r.rng.Intn(largeRangeMax-largeRangeMin+1)
		}
		err = r.runRandom(ctx, iterations, items, sizeFunc)
	default:
		return Result{}, errors.Newf("unknown workload %d", int32(config.Workload))
	}

	return r.result, err
}

func (r *runner) allocate(size int) (block.Offset, error) {
	ptr, err := r.heap.AllocateWithStrategy(size, r.strategy)
	if err != nil {
		return block.Null, errors.Wrapf(err, "allocation %d of %d bytes failed", r.result.Allocations+1, size)
	}
	r.result.Allocations++
	return ptr, nil
}

func (r *runner) free(ptr block.Offset) error {
	err := r.heap.Free(ptr)
	if err != nil {
		return err
	}
	r.result.Frees++
	return nil
}

func (r *runner) freeAll(ptrs []block.Offset) error {
	for _, ptr := range ptrs {
		if ptr == block.Null {
			continue
		}
		err := r.free(ptr)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) measure() {
	r.result.DataSegmentSize = r.heap.DataSegmentSize()
	r.result.DataSegmentFreeSpaceSize = r.heap.DataSegmentFreeSpaceSize()
	r.measured = true
}

// finish records the heap measurements, unless the workload already took them, and releases
// whatever the workload still holds
func (r *runner) finish(start time.Time, ptrs []block.Offset, runErr error) error {
	r.result.Elapsed = time.Since(start)
	if !r.measured {
		r.measure()
	}

	err := r.freeAll(ptrs)
	if runErr != nil {
		return runErr
	}
	return err
}

func (r *runner) runEqualSize(ctx context.Context, iterations, items int) (err error) {
	start := time.Now()
	ptrs := make([]block.Offset, 0, items)
	defer func() {
		err = r.finish(start, ptrs, err)
	}()

	for iteration := 0; iteration < iterations; iteration++ {
		err = ctx.Err()
		if err != nil {
			return err
		}

		for i := 0; i < items; i++ {
			ptr, err := r.allocate(equalAllocationSize)
			if err != nil {
				return err
			}
			ptrs = append(ptrs, ptr)
		}
		r.measure()

		for i, ptr := range ptrs {
			err = r.free(ptr)
			if err != nil {
				return err
			}
			ptrs[i] = block.Null
		}
		ptrs = ptrs[:0]
		r.result.Iterations++
	}

	return nil
}

func (r *runner) runRandom(ctx context.Context, iterations, items int, sizeFunc func() int) (err error) {
	start := time.Now()
	ptrs := make([]block.Offset, 0, items)
	defer func() {
		err = r.finish(start, ptrs, err)
	}()

	for i := 0; i < items; i++ {
		ptr, err := r.allocate(sizeFunc())
		if err != nil {
			return err
		}
		ptrs = append(ptrs, ptr)
	}

	replacements := items / replacementDivisor
	if replacements == 0 {
		replacements = 1
	}

	for iteration := 0; iteration < iterations; iteration++ {
		err = ctx.Err()
		if err != nil {
			return err
		}

		for i := 0; i < replacements; i++ {
			index := r.rng.Intn(items)
			err = r.free(ptrs[index])
			if err != nil {
				return err
			}
			ptrs[index] = block.Null

			ptrs[index], err = r.allocate(sizeFunc())
			if err != nil {
				return err
			}
		}
		r.result.Iterations++
	}

	return nil
}
