package accessor_test

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rob-gra/go-deviceaccess/accessor"
)

// memTransport is an in-memory byte-addressed register file, standing in
// for a backend in these tests.
type memTransport struct {
	mu   sync.Mutex
	bars map[uint8][]byte
}

func newMemTransport(barSize int) *memTransport {
	return &memTransport{bars: map[uint8][]byte{0: make([]byte, barSize)}}
}

func (m *memTransport) Read(ctx context.Context, bar uint8, address uint32, dst []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy(dst, m.bars[bar][address:])
	return nil
}

func (m *memTransport) Write(ctx context.Context, bar uint8, address uint32, src []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy(m.bars[bar][address:], src)
	return nil
}

func (m *memTransport) pokeWord(bar uint8, address uint32, v uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	binary.LittleEndian.PutUint32(m.bars[bar][address:], v)
}

func TestRawElementReadWriteRoundTrip(t *testing.T) {
	tr := newMemTransport(64)
	tr.pokeWord(0, 0x10, 0xDEADBEEF)

	e, err := accessor.NewRawElement(tr, 0, 0x10, 1)
	require.NoError(t, err)
	require.NoError(t, e.Read(context.Background()))

	words, err := e.Words(0, 1)
	require.NoError(t, err)
	require.Equal(t, int32(-559038737), words[0]) // S1 scenario bit pattern

	words[0] = 123
	_, err = e.Write(context.Background(), e.Version())
	require.NoError(t, err)

	var readback [4]byte
	require.NoError(t, tr.Read(context.Background(), 0, 0x10, readback[:]))
	require.Equal(t, uint32(123), binary.LittleEndian.Uint32(readback[:]))
}

func TestRawElementRejectsUnalignedAddress(t *testing.T) {
	_, err := accessor.NewRawElement(newMemTransport(16), 0, 3, 1)
	require.Error(t, err)
}

func TestIsMergeableSameBarAdjacentOrOverlapping(t *testing.T) {
	tr := newMemTransport(64)
	a, err := accessor.NewRawElement(tr, 0, 0x10, 1)
	require.NoError(t, err)
	b, err := accessor.NewRawElement(tr, 0, 0x14, 1)
	require.NoError(t, err)
	c, err := accessor.NewRawElement(tr, 0, 0x40, 1)
	require.NoError(t, err)
	d, err := accessor.NewRawElement(tr, 1, 0x14, 1)
	require.NoError(t, err)

	require.True(t, a.IsMergeable(b), "adjacent ranges on same bar")
	require.False(t, a.IsMergeable(c), "far apart")
	require.False(t, a.IsMergeable(d), "different bar")
}

func TestChangeAddressReshapesAndMarksShared(t *testing.T) {
	tr := newMemTransport(64)
	e, err := accessor.NewRawElement(tr, 0, 0x10, 1)
	require.NoError(t, err)
	require.False(t, e.IsShared())

	e.ChangeAddress(0x10, 4)
	require.True(t, e.IsShared())
	require.Equal(t, uint32(4), e.NumberOfWords())

	_, err = e.Words(0, 4)
	require.NoError(t, err)
}

func TestWordsRejectsOutOfRange(t *testing.T) {
	e, err := accessor.NewRawElement(newMemTransport(16), 0, 0, 2)
	require.NoError(t, err)
	_, err = e.Words(1, 5)
	require.Error(t, err)
}
