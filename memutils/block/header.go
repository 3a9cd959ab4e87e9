// Package block describes the header that prefixes every block of heap memory, whether the
// block is handed out to a caller or sitting in the free list.
//
// Headers live inside the heap's backing buffer. Every field is stored little-endian:
//
//	+0   size  uint64  usable payload bytes, excluding the header
//	+8   next  int64   offset of the next free header, or Null
//	+16  prev  int64   offset of the previous free header, or Null
//	+24  payload
//
// Blocks are identified by the offset of their header within the buffer. The payload offset
// handed to callers is always the header offset plus HeaderSize.
package block

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	// HeaderSize is the number of bytes of metadata preceding every payload
	HeaderSize = 24

	sizeField = 0
	nextField = 8
	prevField = 16
)

// Offset is a byte position within a heap's backing buffer
type Offset int

// Null is the offset value used for absent links and failed allocations
const Null Offset = -1

// Payload returns the offset of the payload for the header at o
func (o Offset) Payload() Offset {
	return o + HeaderSize
}

// HeaderOf returns the header offset for a payload offset previously produced by Payload
func HeaderOf(ptr Offset) Offset {
	return ptr - HeaderSize
}

func (o Offset) String() string {
	if o == Null {
		return "null"
	}
	return fmt.Sprintf("%#x", int(o))
}

// Header is a view onto a single block header within a backing buffer. It is only valid until
// the buffer is regrown.
type Header struct {
	offset Offset
	data   []byte
}

// At returns a view of the header at offset off within mem. It panics if the header does not
// fit within mem; callers are expected to only hold offsets produced by the heap itself.
func At(mem []byte, off Offset) Header {
	if off < 0 || int(off) > len(mem)-HeaderSize {
		panic(fmt.Sprintf("block header at offset %s is outside of the %d byte heap", off, len(mem)))
	}
	return Header{offset: off, data: mem[off : off+HeaderSize]}
}

// Fits reports whether a whole header can be read at off within a buffer of length memLen
func Fits(memLen int, off Offset) bool {
	return off >= 0 && int(off) <= memLen-HeaderSize
}

// Init writes a fresh header with the provided payload size and no free list links
func Init(mem []byte, off Offset, size int) Header {
	h := At(mem, off)
	h.SetSize(size)
	h.ClearLinks()
	return h
}

// Offset returns the offset of the header itself
func (h Header) Offset() Offset { return h.offset }

// Size returns the number of payload bytes, excluding the header
func (h Header) Size() int {
	return int(binary.LittleEndian.Uint64(h.data[sizeField:]))
}

// SetSize overwrites the payload size
func (h Header) SetSize(size int) {
	binary.LittleEndian.PutUint64(h.data[sizeField:], uint64(size))
}

// Next returns the following free block, or Null
func (h Header) Next() Offset {
	return readLink(h.data[nextField:])
}

// SetNext overwrites the link to the following free block
func (h Header) SetNext(next Offset) {
	writeLink(h.data[nextField:], next)
}

// Prev returns the preceding free block, or Null
func (h Header) Prev() Offset {
	return readLink(h.data[prevField:])
}

// SetPrev overwrites the link to the preceding free block
func (h Header) SetPrev(prev Offset) {
	writeLink(h.data[prevField:], prev)
}

// ClearLinks unsets both free list links
func (h Header) ClearLinks() {
	h.SetNext(Null)
	h.SetPrev(Null)
}

// HasLinks reports whether either free list link is set
func (h Header) HasLinks() bool {
	return h.Next() != Null || h.Prev() != Null
}

// Payload returns the offset of the first payload byte
func (h Header) Payload() Offset {
	return h.offset.Payload()
}

// End returns the offset one past the last payload byte, which is the offset of the physically
// following block when there is one.
func (h Header) End() Offset {
	return h.offset + HeaderSize + Offset(h.Size())
}

func readLink(b []byte) Offset {
	v := binary.LittleEndian.Uint64(b)
	if v == math.MaxUint64 {
		return Null
	}
	return Offset(v)
}

func writeLink(b []byte, o Offset) {
	if o == Null {
		binary.LittleEndian.PutUint64(b, math.MaxUint64)
		return
	}
	binary.LittleEndian.PutUint64(b, uint64(o))
}
