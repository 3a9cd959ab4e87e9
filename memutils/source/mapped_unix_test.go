//go:build unix

package source_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/fitalloc/memutils"
	"github.com/vkngwrapper/fitalloc/memutils/source"
)

func TestMappedExtend(t *testing.T) {
	m, err := source.NewMapped(1 << 20)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, m.Close())
	}()

	require.GreaterOrEqual(t, m.Capacity(), 1<<20)

	offset, err := m.Extend(100)
	require.NoError(t, err)
	require.Zero(t, offset)

	data := m.Bytes()
	require.Len(t, data, 100)
	data[99] = 7

	// Cross several page boundaries
	offset, err = m.Extend(3 * 4096)
	require.NoError(t, err)
	require.Equal(t, 100, offset)

	grown := m.Bytes()
	grown[len(grown)-1] = 9
	require.Equal(t, byte(7), grown[99])

	// The mapping never moves
	require.Equal(t, &data[0], &grown[0])
}

func TestMappedExhaustion(t *testing.T) {
	m, err := source.NewMapped(4096)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, m.Close())
	}()

	_, err = m.Extend(m.Capacity() + 1)
	require.Error(t, err)
	require.True(t, errors.Is(err, memutils.ErrOutOfMemory))
	require.Zero(t, m.Len())

	_, err = m.Extend(m.Capacity())
	require.NoError(t, err)
	require.Equal(t, m.Capacity(), m.Len())
}

func TestMappedClose(t *testing.T) {
	m, err := source.NewMapped(4096)
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err = m.Extend(1)
	require.Error(t, err)
}

func TestMappedInvalidCapacity(t *testing.T) {
	_, err := source.NewMapped(0)
	require.Error(t, err)
}
