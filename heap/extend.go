package heap

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/fitalloc/memutils"
	"github.com/vkngwrapper/fitalloc/memutils/block"
	"golang.org/x/exp/slog"
)

// extendSpace grows the source by exactly one header plus requiredSize bytes and returns the new
// block, already counted as in use. The block never passes through the free list.
func (h *Heap) extendSpace(requiredSize int) (block.Offset, error) {
	if requiredSize > math.MaxInt-block.HeaderSize {
		return block.Null, errors.Wrapf(memutils.ErrOutOfMemory, "an allocation of %d bytes cannot be addressed", requiredSize)
	}

	claimed := requiredSize + block.HeaderSize
	offset, err := h.source.Extend(claimed)
	if err != nil {
		h.logger.Debug("    Heap::extendSpace FAILED", slog.Int("Size", claimed))
		h.callbacks.OutOfMemory(claimed)
		return block.Null, errors.WithSecondaryError(
			errors.Wrapf(memutils.ErrOutOfMemory, "failed to extend heap by %d bytes: %v", claimed, err),
			err,
		)
	}

	header := block.Init(h.source.Bytes(), block.Offset(offset), requiredSize)

	h.totalSpace += claimed
	h.usefulSpace += requiredSize

	h.logger.Debug("    Extended heap", slog.Int("Offset", offset), slog.Int("Size", claimed), slog.Int("TotalSize", h.totalSpace))
	h.callbacks.Extend(header.Offset(), claimed)

	return header.Offset(), nil
}
