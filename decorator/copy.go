package decorator

import (
	"context"

	"github.com/rob-gra/go-deviceaccess/accessor"
	"github.com/rob-gra/go-deviceaccess/deverr"
	"github.com/rob-gra/go-deviceaccess/dtype"
	"github.com/rob-gra/go-deviceaccess/transfer"
)

// GroupedAccessor is the target a CopyRegisterDecorator needs: a typed
// accessor that can also adopt a raw word slice directly (bypassing its
// own raw peer), which is what lets a TransferGroup hand it the shared
// buffer.
type GroupedAccessor[T dtype.UserType] interface {
	TypedAccessor[T]
	AdoptRaw(words []int32) (transfer.Version, error)
}

// rawWordSource is implemented by accessor.Cooked[T]; used here only for
// the writable copy-back path.
type rawWordSource interface {
	RawWords() ([]int32, error)
}

// CopyRegisterDecorator is installed by a TransferGroup when an
// accessor's raw target is folded into a shared raw element (spec.md
// §4.6 step 3). It never transfers on its own: DoReadTransfer/
// DoWriteTransfer are no-ops, since the group performs the one merged
// transfer per raw element directly. PostRead copies this accessor's
// slice out of the group-owned raw buffer; PreWrite either refuses (the
// common case — the register is read-only from the group's viewpoint)
// or copies back when writable is true.
type CopyRegisterDecorator[T dtype.UserType] struct {
	Base[T]

	raw         *accessor.RawElement
	offsetWords int
	wordCount   int
	writable    bool
}

// NewCopyRegisterDecorator wraps target, reading its slice from
// raw.Words(offsetWords, wordCount) once the group transfers raw.
func NewCopyRegisterDecorator[T dtype.UserType](
	target GroupedAccessor[T], raw *accessor.RawElement, offsetWords, wordCount int, writable bool,
) *CopyRegisterDecorator[T] {
	d := &CopyRegisterDecorator[T]{raw: raw, offsetWords: offsetWords, wordCount: wordCount, writable: writable}
	d.Base.Init(d, target, target.Name(), target.Unit(), target.Description(), target.AccessMode(), target.Readable(), writable)
	return d
}

func (d *CopyRegisterDecorator[T]) DoReadTransfer(ctx context.Context) error { return nil }
func (d *CopyRegisterDecorator[T]) DoReadTransferNonBlocking(ctx context.Context) (bool, error) {
	return true, nil
}
func (d *CopyRegisterDecorator[T]) DoReadTransferLatest(ctx context.Context) (bool, error) {
	return true, nil
}

func (d *CopyRegisterDecorator[T]) PostRead(ctx context.Context) (transfer.Version, error) {
	words, err := d.raw.Words(d.offsetWords, d.wordCount)
	if err != nil {
		return transfer.Version{}, err
	}
	grouped, ok := d.Target().(GroupedAccessor[T])
	if !ok {
		return transfer.Version{}, deverr.New(deverr.WrongAccessor, "%s: target cannot adopt raw words", d.Name())
	}
	return grouped.AdoptRaw(words)
}

func (d *CopyRegisterDecorator[T]) PreWrite(ctx context.Context) error {
	if !d.writable {
		return deverr.New(deverr.NotImplemented, "%s is read-only from the group's viewpoint", d.Name())
	}
	src, ok := d.Target().(rawWordSource)
	if !ok {
		return deverr.New(deverr.WrongAccessor, "%s: target cannot produce raw words", d.Name())
	}
	words, err := src.RawWords()
	if err != nil {
		return err
	}
	dst, err := d.raw.Words(d.offsetWords, d.wordCount)
	if err != nil {
		return err
	}
	copy(dst, words)
	return nil
}

func (d *CopyRegisterDecorator[T]) DoWriteTransfer(ctx context.Context, v transfer.Version) (bool, error) {
	if !d.writable {
		return false, deverr.New(deverr.NotImplemented, "%s is read-only from the group's viewpoint", d.Name())
	}
	return false, nil
}

func (d *CopyRegisterDecorator[T]) PostWrite(ctx context.Context) error { return nil }

// HardwareAccessingElements returns the group-owned raw element, not the
// target's own (possibly now-stale) one: once installed into a
// TransferGroup, d.raw is the shared element the group actually
// transfers (spec.md §3 invariant: "after finalise(), every member's
// hardware-accessing element is one of the group-owned raw elements").
func (d *CopyRegisterDecorator[T]) HardwareAccessingElements() []transfer.Element {
	return []transfer.Element{d.raw}
}

// Rebind repoints the decorator at a (possibly further-merged) raw
// element and word offset. Used by TransferGroup when a later
// addAccessor call grows an already-shared raw element, so every
// existing member's slice stays correctly positioned.
func (d *CopyRegisterDecorator[T]) Rebind(raw *accessor.RawElement, offsetWords int) {
	d.raw = raw
	d.offsetWords = offsetWords
}

// Raw returns the raw element this decorator currently reads/writes
// through.
func (d *CopyRegisterDecorator[T]) Raw() *accessor.RawElement { return d.raw }
