package heap_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/fitalloc/heap"
	"github.com/vkngwrapper/fitalloc/memutils"
	"github.com/vkngwrapper/fitalloc/memutils/block"
	mock_source "github.com/vkngwrapper/fitalloc/memutils/source/mocks"
	"go.uber.org/mock/gomock"
)

type extendRecord struct {
	Offset   block.Offset
	Size     int
	UserData any
}

func TestExtendClaimsExactSize(t *testing.T) {
	ctrl := gomock.NewController(t)

	var buf []byte
	src := mock_source.NewMockSource(ctrl)
	src.EXPECT().Len().Return(0)
	src.EXPECT().Bytes().DoAndReturn(func() []byte { return buf }).AnyTimes()
	src.EXPECT().Extend(100 + block.HeaderSize).DoAndReturn(func(size int) (int, error) {
		buf = make([]byte, size)
		return 0, nil
	})
	src.EXPECT().Extend(10 + block.HeaderSize).Return(0, errors.New("device is full"))

	var extended []extendRecord
	var failed []int
	h, err := heap.New(nil, heap.CreateOptions{
		Source: src,
		Callbacks: &heap.HeapCallbackOptions{
			Extend: func(h *heap.Heap, offset block.Offset, size int, userData any) {
				extended = append(extended, extendRecord{Offset: offset, Size: size, UserData: userData})
			},
			OutOfMemory: func(h *heap.Heap, size int, userData any) {
				failed = append(failed, size)
			},
			UserData: "mock",
		},
	})
	require.NoError(t, err)

	ptr, err := h.Allocate(100)
	require.NoError(t, err)
	require.Equal(t, block.Offset(block.HeaderSize), ptr)
	require.Equal(t, 100+block.HeaderSize, h.DataSegmentSize())
	require.Equal(t, block.HeaderSize, h.DataSegmentFreeSpaceSize())
	require.Equal(t, []extendRecord{{Offset: 0, Size: 100 + block.HeaderSize, UserData: "mock"}}, extended)

	ptr, err = h.Allocate(10)
	require.ErrorIs(t, err, memutils.ErrOutOfMemory)
	require.ErrorContains(t, err, "device is full")
	require.Equal(t, block.Null, ptr)
	require.Equal(t, []int{10 + block.HeaderSize}, failed)
	require.Len(t, extended, 1)

	require.Equal(t, 100+block.HeaderSize, h.DataSegmentSize())
	require.Equal(t, block.HeaderSize, h.DataSegmentFreeSpaceSize())
	require.NoError(t, h.Validate())
}

func TestMaxHeapSize(t *testing.T) {
	var failed []int
	h, err := heap.New(nil, heap.CreateOptions{
		MaxHeapSize: 128,
		Callbacks: &heap.HeapCallbackOptions{
			OutOfMemory: func(h *heap.Heap, size int, userData any) {
				failed = append(failed, size)
			},
		},
	})
	require.NoError(t, err)

	first := allocate(t, h, 100)

	for _, size := range []int{10, 4} {
		ptr, err := h.Allocate(size)
		require.ErrorIs(t, err, memutils.ErrOutOfMemory)
		require.Equal(t, block.Null, ptr)

		require.Equal(t, block.Null, h.FFMalloc(size))
		require.Equal(t, block.Null, h.BFMalloc(size))
	}
	require.Equal(t, []int{
		10 + block.HeaderSize, 10 + block.HeaderSize, 10 + block.HeaderSize,
		4 + block.HeaderSize, 4 + block.HeaderSize, 4 + block.HeaderSize,
	}, failed)

	require.Equal(t, 100+block.HeaderSize, h.DataSegmentSize())
	require.Equal(t, block.HeaderSize, h.DataSegmentFreeSpaceSize())
	require.NoError(t, h.Validate())

	// Freed memory is still usable once the source is exhausted
	require.NoError(t, h.Free(first))
	second := allocate(t, h, 10)
	require.Equal(t, first, second)
	third := allocate(t, h, 4)
	require.Equal(t, second+block.Offset(10+block.HeaderSize), third)
	require.Equal(t, 100+block.HeaderSize, h.DataSegmentSize())
	require.NoError(t, h.Validate())
}
