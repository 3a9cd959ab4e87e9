//go:build unix

package source

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/fitalloc/memutils"
	"golang.org/x/sys/unix"
)

// Mapped is a Source backed by a single anonymous memory mapping. The whole address range is
// reserved up front without any access rights, and pages are made readable and writable as the
// break moves past them. Memory returned by Bytes never moves.
type Mapped struct {
	reserved  []byte
	brk       int
	committed int
	pageSize  int
}

var _ Source = &Mapped{}

// NewMapped reserves capacity bytes of address space, rounded up to a whole number of pages
func NewMapped(capacity int) (*Mapped, error) {
	if capacity <= 0 {
		return nil, errors.Newf("mapped source capacity must be positive, got %d", capacity)
	}

	pageSize := unix.Getpagesize()
	err := memutils.CheckPow2(pageSize, "system page size")
	if err != nil {
		return nil, err
	}

	capacity = memutils.AlignUp(capacity, uint(pageSize))
	reserved, err := unix.Mmap(-1, 0, capacity, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to reserve %d bytes of address space", capacity)
	}

	return &Mapped{
		reserved: reserved,
		pageSize: pageSize,
	}, nil
}

func (m *Mapped) Extend(size int) (int, error) {
	if m.reserved == nil {
		return 0, errors.New("mapped source has been closed")
	}
	if size < 0 {
		return 0, errors.Newf("cannot extend by a negative size %d", size)
	}

	offset := m.brk
	newBrk := offset + size
	if newBrk < offset || newBrk > len(m.reserved) {
		return 0, errors.Wrapf(memutils.ErrOutOfMemory, "cannot extend %d byte region by %d bytes with %d bytes reserved", offset, size, len(m.reserved))
	}

	if newBrk > m.committed {
		memutils.DebugCheckPow2(m.pageSize, "page size")
		commitEnd := memutils.AlignUp(newBrk, uint(m.pageSize))
		err := unix.Mprotect(m.reserved[m.committed:commitEnd], unix.PROT_READ|unix.PROT_WRITE)
		if err != nil {
			return 0, errors.WithSecondaryError(
				errors.Wrapf(memutils.ErrOutOfMemory, "failed to commit pages %d-%d: %v", m.committed, commitEnd, err),
				err,
			)
		}
		m.committed = commitEnd
	}

	m.brk = newBrk
	return offset, nil
}

func (m *Mapped) Bytes() []byte { return m.reserved[:m.brk] }

func (m *Mapped) Len() int { return m.brk }

// Capacity returns the number of bytes of reserved address space
func (m *Mapped) Capacity() int { return len(m.reserved) }

// Close unmaps the reservation. Any slice previously returned by Bytes must not be used afterward.
func (m *Mapped) Close() error {
	if m.reserved == nil {
		return nil
	}

	err := unix.Munmap(m.reserved)
	m.reserved = nil
	m.brk = 0
	m.committed = 0
	return err
}
