package group_test

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rob-gra/go-deviceaccess/accessor"
	"github.com/rob-gra/go-deviceaccess/fxpoint"
	"github.com/rob-gra/go-deviceaccess/group"
	"github.com/rob-gra/go-deviceaccess/transfer"
)

// countingTransport wraps an in-memory byte-addressed backend and counts
// how many Read/Write calls it receives, so tests can assert the merge
// actually collapses N accessors into one backend transfer.
type countingTransport struct {
	mu         sync.Mutex
	buf        []byte
	readCalls  int
	writeCalls int
}

func newCountingTransport(size int) *countingTransport {
	return &countingTransport{buf: make([]byte, size)}
}

func (t *countingTransport) Read(ctx context.Context, bar uint8, address uint32, dst []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readCalls++
	copy(dst, t.buf[address:])
	return nil
}

func (t *countingTransport) Write(ctx context.Context, bar uint8, address uint32, src []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeCalls++
	copy(t.buf[address:], src)
	return nil
}

func (t *countingTransport) pokeWord(address uint32, v uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	binary.LittleEndian.PutUint32(t.buf[address:], v)
}

// TestGroupMergesAdjacentRangesIntoOneTransfer implements spec.md §8
// property 2 (a group with N accessors over contiguous registers performs
// one backend transfer, not N) via scenario S3's layout: two int32
// registers at 0x00 and 0x04.
func TestGroupMergesAdjacentRangesIntoOneTransfer(t *testing.T) {
	tr := newCountingTransport(64)
	tr.pokeWord(0x00, 11)
	tr.pokeWord(0x04, 22)

	conv, err := fxpoint.New(32, 0, true)
	require.NoError(t, err)

	rawA, err := accessor.NewRawElement(tr, 0, 0x00, 1)
	require.NoError(t, err)
	a, err := accessor.NewCooked[int32](rawA, conv, 0, 1, 1, "/a", "", "", 0, true, false)
	require.NoError(t, err)

	rawB, err := accessor.NewRawElement(tr, 0, 0x04, 1)
	require.NoError(t, err)
	b, err := accessor.NewCooked[int32](rawB, conv, 0, 1, 1, "/b", "", "", 0, true, false)
	require.NoError(t, err)

	g := group.New()
	da := group.AddAccessor[int32](g, a, false)
	db := group.AddAccessor[int32](g, b, false)

	require.Equal(t, 1, g.RawElementCount())
	require.Equal(t, 2, g.MemberCount())

	require.NoError(t, g.Read(context.Background()))
	require.Equal(t, 1, tr.readCalls)

	require.Equal(t, int32(11), a.AccessData(0, 0))
	require.Equal(t, int32(22), b.AccessData(0, 0))

	require.True(t, da.Version().IsSet())
	require.True(t, db.Version().IsSet())
	require.Equal(t, da.Version(), db.Version())
}

// TestGroupMergeGrowsBackwardAndRebindsExistingMember covers the case
// where a later addAccessor call extends an already-shared raw element
// backward, which must shift every previously added member's offset, not
// just make room for the new one.
func TestGroupMergeGrowsBackwardAndRebindsExistingMember(t *testing.T) {
	tr := newCountingTransport(64)
	tr.pokeWord(0x04, 100)
	tr.pokeWord(0x00, 200)

	conv, err := fxpoint.New(32, 0, true)
	require.NoError(t, err)

	rawLater, err := accessor.NewRawElement(tr, 0, 0x04, 1)
	require.NoError(t, err)
	later, err := accessor.NewCooked[int32](rawLater, conv, 0, 1, 1, "/later", "", "", 0, true, false)
	require.NoError(t, err)

	rawEarlier, err := accessor.NewRawElement(tr, 0, 0x00, 1)
	require.NoError(t, err)
	earlier, err := accessor.NewCooked[int32](rawEarlier, conv, 0, 1, 1, "/earlier", "", "", 0, true, false)
	require.NoError(t, err)

	g := group.New()
	dLater := group.AddAccessor[int32](g, later, false)
	dEarlier := group.AddAccessor[int32](g, earlier, false)

	require.Equal(t, 1, g.RawElementCount())
	require.NoError(t, g.Read(context.Background()))
	require.Equal(t, 1, tr.readCalls)

	require.Equal(t, int32(100), later.AccessData(0, 0))
	require.Equal(t, int32(200), earlier.AccessData(0, 0))

	_ = dLater
	_ = dEarlier
}

// TestGroupWriteSharesOneVersionAndOneBackendWrite covers spec.md §8
// property 3: group.write() stamps every member with the same
// VersionNumber and performs one backend write per merged raw element.
func TestGroupWriteSharesOneVersionAndOneBackendWrite(t *testing.T) {
	tr := newCountingTransport(64)
	conv, err := fxpoint.New(32, 0, true)
	require.NoError(t, err)

	rawA, err := accessor.NewRawElement(tr, 0, 0x00, 1)
	require.NoError(t, err)
	a, err := accessor.NewCooked[int32](rawA, conv, 0, 1, 1, "/a", "", "", 0, true, true)
	require.NoError(t, err)
	a.SetAccessData(0, 0, 111)

	rawB, err := accessor.NewRawElement(tr, 0, 0x04, 1)
	require.NoError(t, err)
	b, err := accessor.NewCooked[int32](rawB, conv, 0, 1, 1, "/b", "", "", 0, true, true)
	require.NoError(t, err)
	b.SetAccessData(0, 0, 222)

	g := group.New()
	da := group.AddAccessor[int32](g, a, true)
	db := group.AddAccessor[int32](g, b, true)

	require.NoError(t, g.Write(context.Background()))
	require.Equal(t, 1, tr.writeCalls)
	require.Equal(t, da.Version(), db.Version())

	g2 := group.New()
	rawA2, err := accessor.NewRawElement(tr, 0, 0x00, 1)
	require.NoError(t, err)
	readA, err := accessor.NewCooked[int32](rawA2, conv, 0, 1, 1, "/a", "", "", 0, true, false)
	require.NoError(t, err)
	rawB2, err := accessor.NewRawElement(tr, 0, 0x04, 1)
	require.NoError(t, err)
	readB, err := accessor.NewCooked[int32](rawB2, conv, 0, 1, 1, "/b", "", "", 0, true, false)
	require.NoError(t, err)
	dReadA := group.AddAccessor[int32](g2, readA, false)
	dReadB := group.AddAccessor[int32](g2, readB, false)
	require.NoError(t, g2.Read(context.Background()))
	_ = dReadA
	_ = dReadB
	require.Equal(t, int32(111), readA.AccessData(0, 0))
	require.Equal(t, int32(222), readB.AccessData(0, 0))
}

func TestGroupFinalizeDetectsNoOverlap(t *testing.T) {
	tr := newCountingTransport(64)
	conv, err := fxpoint.New(32, 0, true)
	require.NoError(t, err)

	rawA, err := accessor.NewRawElement(tr, 0, 0x00, 1)
	require.NoError(t, err)
	a, err := accessor.NewCooked[int32](rawA, conv, 0, 1, 1, "/a", "", "", 0, true, false)
	require.NoError(t, err)

	g := group.New()
	group.AddAccessor[int32](g, a, false)
	require.NoError(t, g.Finalize())
}
