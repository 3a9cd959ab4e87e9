package workload_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/fitalloc/heap"
	"github.com/vkngwrapper/fitalloc/internal/workload"
	"github.com/vkngwrapper/fitalloc/memutils"
	"github.com/vkngwrapper/fitalloc/memutils/block"
	"github.com/vkngwrapper/fitalloc/memutils/metadata"
)

func newHeap(t *testing.T, options heap.CreateOptions) *heap.Heap {
	t.Helper()

	h, err := heap.New(nil, options)
	require.NoError(t, err)
	return h
}

func TestParseKind(t *testing.T) {
	for _, kind := range []workload.Kind{workload.EqualSize, workload.SmallRangeRandom, workload.LargeRangeRandom} {
		parsed, err := workload.ParseKind(kind.String())
		require.NoError(t, err)
		require.Equal(t, kind, parsed)
	}

	parsed, err := workload.ParseKind(" Small ")
	require.NoError(t, err)
	require.Equal(t, workload.SmallRangeRandom, parsed)

	_, err = workload.ParseKind("medium")
	require.Error(t, err)
}

func TestEqualSize(t *testing.T) {
	h := newHeap(t, heap.CreateOptions{})

	result, err := workload.Run(context.Background(), h, workload.Config{
		Workload:   workload.EqualSize,
		Iterations: 5,
		Items:      40,
	})
	require.NoError(t, err)
	require.Equal(t, 5, result.Iterations)
	require.Equal(t, 200, result.Allocations)
	require.Equal(t, 200, result.Frees)

	// Every iteration after the first reuses the memory claimed by the first, and the
	// measurement is taken while the last batch is still live
	require.Equal(t, 40*(128+block.HeaderSize), result.DataSegmentSize)
	require.Equal(t, 40*block.HeaderSize, result.DataSegmentFreeSpaceSize)
	require.InDelta(t, float64(block.HeaderSize)/float64(128+block.HeaderSize), result.Fragmentation(), 1e-9)
	require.Equal(t, h.DataSegmentSize(), h.DataSegmentFreeSpaceSize())

	require.Equal(t, 0, h.AllocationCount())
	require.NoError(t, h.Validate())
}

func TestRandomWorkloadsAreDeterministic(t *testing.T) {
	for _, kind := range []workload.Kind{workload.SmallRangeRandom, workload.LargeRangeRandom} {
		for _, strategy := range []metadata.AllocationStrategy{metadata.AllocationStrategyFirstFit, metadata.AllocationStrategyBestFit} {
			t.Run(kind.String()+"/"+strategy.String(), func(t *testing.T) {
				config := workload.Config{
					Workload:   kind,
					Strategy:   strategy,
					Iterations: 10,
					Items:      60,
					Seed:       42,
				}

				first := newHeap(t, heap.CreateOptions{})
				firstResult, err := workload.Run(context.Background(), first, config)
				require.NoError(t, err)

				second := newHeap(t, heap.CreateOptions{})
				secondResult, err := workload.Run(context.Background(), second, config)
				require.NoError(t, err)

				require.Equal(t, firstResult.DataSegmentSize, secondResult.DataSegmentSize)
				require.Equal(t, firstResult.Allocations, secondResult.Allocations)

				require.Equal(t, 10, firstResult.Iterations)
				// 60 to fill the pool, then 3 replacements per iteration
				require.Equal(t, 60+10*3, firstResult.Allocations)
				require.Equal(t, firstResult.Allocations, firstResult.Frees)
				require.Greater(t, firstResult.DataSegmentSize, 0)
				require.Equal(t, 0, first.AllocationCount())
				require.NoError(t, first.Validate())
			})
		}
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	h := newHeap(t, heap.CreateOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := workload.Run(ctx, h, workload.Config{
		Workload:   workload.SmallRangeRandom,
		Iterations: 10,
		Items:      20,
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, result.Iterations)
	require.Equal(t, 20, result.Allocations)
	require.Equal(t, 20, result.Frees)
	require.Equal(t, 0, h.AllocationCount())
}

func TestRunReportsOutOfMemory(t *testing.T) {
	h := newHeap(t, heap.CreateOptions{MaxHeapSize: 10 * (128 + block.HeaderSize)})

	result, err := workload.Run(context.Background(), h, workload.Config{
		Workload:   workload.EqualSize,
		Iterations: 1,
		Items:      11,
	})
	require.ErrorIs(t, err, memutils.ErrOutOfMemory)
	require.Equal(t, 10, result.Allocations)
	require.Equal(t, 10, result.Frees)
	require.Equal(t, 0, h.AllocationCount())
	require.NoError(t, h.Validate())
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	h := newHeap(t, heap.CreateOptions{})

	_, err := workload.Run(context.Background(), h, workload.Config{Workload: workload.Kind(9)})
	require.Error(t, err)

	_, err = workload.Run(context.Background(), h, workload.Config{Strategy: metadata.AllocationStrategy(9)})
	require.Error(t, err)

	_, err = workload.Run(context.Background(), h, workload.Config{Iterations: -1})
	require.Error(t, err)
	require.Equal(t, 0, h.DataSegmentSize())
}
