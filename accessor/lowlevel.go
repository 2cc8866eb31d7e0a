// Package accessor implements the data-carrying half of the transfer
// subsystem: NDRegisterAccessor[T] (spec.md §4.3), the low-level raw
// transfer element (spec.md §4.4), and the backend-specific cooked
// accessor (spec.md §4.5 lead-in / §4.4).
//
// Grounded on original_source/device/include/NDRegisterAccessorAbstractor.h,
// ScalarRegisterAccessor.h, OneDRegisterAccessor.h for the 2-D-buffer /
// 1-D-view / scalar-view split, and on
// original_source/device_backends/include/NumericAddressedLowLevelTransferElement.h
// for IsMergeable/ChangeAddress.
package accessor

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/rob-gra/go-deviceaccess/deverr"
	"github.com/rob-gra/go-deviceaccess/dtype"
	"github.com/rob-gra/go-deviceaccess/transfer"
)

// Transport is the byte-addressed read/write surface a low-level raw
// element needs from a backend. backend.Backend satisfies this
// structurally; this package never imports the backend package (it would
// create an import cycle, since backends build accessors).
type Transport interface {
	Read(ctx context.Context, bar uint8, address uint32, dst []byte) error
	Write(ctx context.Context, bar uint8, address uint32, src []byte) error
}

// RawElement is one TransferElement per contiguous address range in a
// backend (spec.md §4.4): it owns a raw int32 buffer and performs the
// backend read/write. All raw buffers are little-endian 32-bit words
// (spec.md §6); address and size must be 4-byte aligned.
type RawElement struct {
	transfer.Core

	transport Transport
	bar       uint8

	mu            sync.Mutex
	startAddress  uint32 // byte address, 4-byte aligned
	numberOfWords uint32
	buf           []int32
	shared        bool
}

// NewRawElement constructs a raw element covering
// [startAddress, startAddress+numberOfWords*4) on the given bar.
func NewRawElement(transport Transport, bar uint8, startAddress, numberOfWords uint32) (*RawElement, error) {
	if startAddress%4 != 0 {
		return nil, deverr.New(deverr.WrongParameter, "start address 0x%x is not 4-byte aligned", startAddress)
	}
	e := &RawElement{
		transport:     transport,
		bar:           bar,
		startAddress:  startAddress,
		numberOfWords: numberOfWords,
		buf:           make([]int32, numberOfWords),
	}
	e.Core.Init(e, transfer.ID{}, "", "", "raw transfer element", 0, true, true, dtype.Int32)
	return e, nil
}

// Bar returns the backend bar this element addresses.
func (e *RawElement) Bar() uint8 { return e.bar }

// StartAddress returns the current byte start address.
func (e *RawElement) StartAddress() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startAddress
}

// NumberOfWords returns the current word count.
func (e *RawElement) NumberOfWords() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.numberOfWords
}

// IsShared reports whether the element has been installed into a
// TransferGroup (and so may be shared by multiple cooked accessors).
func (e *RawElement) IsShared() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shared
}

// EndAddress returns the byte address just past the element's range.
func (e *RawElement) EndAddress() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startAddress + e.numberOfWords*4
}

// IsMergeable reports whether other covers the same backend and bar, and
// its address range is adjacent to or overlaps this element's range
// (spec.md §4.4).
func (e *RawElement) IsMergeable(other *RawElement) bool {
	if e.transport != other.transport || e.bar != other.bar {
		return false
	}
	aStart, aEnd := e.StartAddress(), e.EndAddress()
	bStart, bEnd := other.StartAddress(), other.EndAddress()
	if aEnd < bStart || bEnd < aStart {
		return false // strictly disjoint, not even adjacent
	}
	return true
}

// ChangeAddress reshapes the element to [newStart, newStart+newWords*4)
// and marks it shared. Existing content is discarded; the next transfer
// repopulates it.
func (e *RawElement) ChangeAddress(newStart, newWords uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.startAddress = newStart
	e.numberOfWords = newWords
	e.buf = make([]int32, newWords)
	e.shared = true
}

// Words returns a live view of buf[offset:offset+count]. It must be
// called fresh each time (not cached across a ChangeAddress), since
// ChangeAddress replaces the backing slice.
func (e *RawElement) Words(offset, count int) ([]int32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if offset < 0 || count < 0 || offset+count > len(e.buf) {
		return nil, deverr.New(deverr.WrongAccessor, "range [%d,%d) out of bounds for raw element of %d words", offset, offset+count, len(e.buf))
	}
	return e.buf[offset : offset+count], nil
}

func (e *RawElement) PreRead(ctx context.Context) error  { return nil }
func (e *RawElement) PreWrite(ctx context.Context) error { return nil }
func (e *RawElement) PostWrite(ctx context.Context) error {
	return nil
}

// DoReadTransfer performs exactly one backend read covering the
// element's whole range.
func (e *RawElement) DoReadTransfer(ctx context.Context) error {
	e.mu.Lock()
	bar, addr, n := e.bar, e.startAddress, e.numberOfWords
	e.mu.Unlock()

	raw := make([]byte, n*4)
	if err := e.transport.Read(ctx, bar, addr, raw); err != nil {
		return deverr.Wrap(deverr.IOError, err, "read bar=%d addr=0x%x n=%d", bar, addr, n)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.buf {
		e.buf[i] = int32(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return nil
}

// DoReadTransferNonBlocking has no notion of "new data" at the raw
// hardware level (that only becomes meaningful once wrapped in an
// AsyncDecorator, §4.5): it performs a full transfer and always reports
// an update.
func (e *RawElement) DoReadTransferNonBlocking(ctx context.Context) (bool, error) {
	return true, e.DoReadTransfer(ctx)
}

// DoReadTransferLatest behaves the same as DoReadTransferNonBlocking at
// this layer.
func (e *RawElement) DoReadTransferLatest(ctx context.Context) (bool, error) {
	return true, e.DoReadTransfer(ctx)
}

func (e *RawElement) PostRead(ctx context.Context) (transfer.Version, error) {
	return transfer.NewVersion(), nil
}

// DoWriteTransfer performs exactly one backend write covering the
// element's whole range. It never loses a pending write: a raw element
// has no producer/consumer queue of its own.
func (e *RawElement) DoWriteTransfer(ctx context.Context, v transfer.Version) (bool, error) {
	e.mu.Lock()
	bar, addr := e.bar, e.startAddress
	raw := make([]byte, len(e.buf)*4)
	for i, word := range e.buf {
		binary.LittleEndian.PutUint32(raw[i*4:], uint32(word))
	}
	e.mu.Unlock()

	if err := e.transport.Write(ctx, bar, addr, raw); err != nil {
		return false, deverr.Wrap(deverr.IOError, err, "write bar=%d addr=0x%x", bar, addr)
	}
	return false, nil
}
