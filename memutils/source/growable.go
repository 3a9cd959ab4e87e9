package source

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/fitalloc/memutils"
)

const minimumGrowth = 4096

// Growable is a Source backed by a Go slice. The slice is reallocated as it grows, so the memory
// returned by Bytes moves on every reallocation.
type Growable struct {
	data  []byte
	limit int
}

var _ Source = &Growable{}

// NewGrowable creates a Growable that refuses to grow past limit bytes. A limit of 0 means the
// source may grow until the Go runtime runs out of memory.
func NewGrowable(limit int) *Growable {
	return &Growable{limit: limit}
}

func (g *Growable) Extend(size int) (int, error) {
	if size < 0 {
		return 0, errors.Newf("cannot extend by a negative size %d", size)
	}

	offset := len(g.data)
	newLen := offset + size
	if newLen < offset || (g.limit > 0 && newLen > g.limit) {
		return 0, errors.Wrapf(memutils.ErrOutOfMemory, "cannot extend %d byte region by %d bytes with a limit of %d", offset, size, g.limit)
	}

	if newLen > cap(g.data) {
		newCap := 2 * cap(g.data)
		if newCap < minimumGrowth {
			newCap = minimumGrowth
		}
		if newCap < newLen {
			newCap = newLen
		}
		if g.limit > 0 && newCap > g.limit {
			newCap = g.limit
		}

		grown := make([]byte, newLen, newCap)
		copy(grown, g.data)
		g.data = grown
	} else {
		g.data = g.data[:newLen]
	}

	return offset, nil
}

func (g *Growable) Bytes() []byte { return g.data }

func (g *Growable) Len() int { return len(g.data) }

// Limit returns the maximum size of the region, or 0 if there is none
func (g *Growable) Limit() int { return g.limit }
