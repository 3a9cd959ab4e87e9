//go:build !unix

package source

// Mapped falls back to a limited Growable on platforms without mmap
type Mapped struct {
	*Growable
}

// NewMapped creates a source that can grow up to capacity bytes
func NewMapped(capacity int) (*Mapped, error) {
	return &Mapped{Growable: NewGrowable(capacity)}, nil
}

// Capacity returns the maximum size of the region
func (m *Mapped) Capacity() int { return m.Limit() }

func (m *Mapped) Close() error { return nil }
