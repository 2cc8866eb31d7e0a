package accessor

import (
	"context"

	"github.com/rob-gra/go-deviceaccess/deverr"
	"github.com/rob-gra/go-deviceaccess/dtype"
	"github.com/rob-gra/go-deviceaccess/fxpoint"
	"github.com/rob-gra/go-deviceaccess/transfer"
)

// RawAdopter lets a decorator (notably CopyRegisterDecorator in the
// decorator package) hand a slice of freshly transferred raw words to a
// cooked accessor without going through the accessor's own raw peer.
// Used when a TransferGroup owns the raw transfer instead.
type RawAdopter interface {
	AdoptRaw(words []int32) (transfer.Version, error)
}

// Cooked is the backend-specific cooked accessor (spec.md §4.4): it pairs
// a RawElement with a FixedPointConverter and exposes a 2-D buffer of T.
// "Raw" access mode (no scaling) is modelled as a 32-bit signed identity
// converter rather than as a special case, so PostRead/PreWrite never
// need to branch on it.
type Cooked[T dtype.UserType] struct {
	transfer.Core

	raw          *RawElement
	conv         *fxpoint.Converter
	offsetWords  int
	numChannels  int
	numSamples   int
	buf          [][]T
}

// NewCooked builds a cooked accessor over raw[offsetWords : offsetWords+numChannels*numSamples],
// arranged channel-major (channel c, sample s -> raw word offsetWords+c*numSamples+s).
func NewCooked[T dtype.UserType](
	raw *RawElement, conv *fxpoint.Converter, offsetWords, numChannels, numSamples int,
	name, unit, description string, mode transfer.AccessMode, readable, writeable bool,
) (*Cooked[T], error) {
	if numChannels <= 0 || numSamples <= 0 {
		return nil, deverr.New(deverr.WrongParameter, "cooked accessor needs positive channels/samples, got %d/%d", numChannels, numSamples)
	}
	buf := make([][]T, numChannels)
	for c := range buf {
		buf[c] = make([]T, numSamples)
	}
	a := &Cooked[T]{
		raw:         raw,
		conv:        conv,
		offsetWords: offsetWords,
		numChannels: numChannels,
		numSamples:  numSamples,
		buf:         buf,
	}
	a.Core.Init(a, transfer.ID{}, name, unit, description, mode, readable, writeable, dtype.Of[T]())
	return a, nil
}

func (a *Cooked[T]) wordCount() int { return a.numChannels * a.numSamples }

// WordCount returns the number of raw words this accessor covers
// (numChannels*numSamples). Used by TransferGroup to size a
// CopyRegisterDecorator's slice of the shared raw buffer.
func (a *Cooked[T]) WordCount() int { return a.wordCount() }

// NumChannels returns the accessor's channel count.
func (a *Cooked[T]) NumChannels() int { return a.numChannels }

// NumSamples returns the per-channel sample count.
func (a *Cooked[T]) NumSamples() int { return a.numSamples }

// AccessChannel returns an unchecked live view of one channel's samples.
func (a *Cooked[T]) AccessChannel(channel int) []T { return a.buf[channel] }

// AccessData returns the sample at (channel, index), unchecked.
func (a *Cooked[T]) AccessData(channel, index int) T { return a.buf[channel][index] }

// SetAccessData sets the sample at (channel, index), unchecked.
func (a *Cooked[T]) SetAccessData(channel, index int, v T) { a.buf[channel][index] = v }

// AdoptRaw converts words (length must equal wordCount()) into the
// cooked buffer, as PostRead would. It is also the hook
// CopyRegisterDecorator uses when a TransferGroup, not this accessor's
// own raw peer, performed the transfer.
func (a *Cooked[T]) AdoptRaw(words []int32) (transfer.Version, error) {
	if len(words) != a.wordCount() {
		return transfer.Version{}, deverr.New(deverr.WrongAccessor, "adopt raw: got %d words, want %d", len(words), a.wordCount())
	}
	for c := 0; c < a.numChannels; c++ {
		for s := 0; s < a.numSamples; s++ {
			cooked, err := fxpoint.ToCooked[T](a.conv, words[c*a.numSamples+s])
			if err != nil {
				return transfer.Version{}, err
			}
			a.buf[c][s] = cooked
		}
	}
	return a.raw.Version(), nil
}

// RawWords converts the cooked buffer into raw words, without touching
// the raw peer. Used by CopyRegisterDecorator's writable copy-back path,
// where a TransferGroup (not this accessor) owns the actual raw buffer.
func (a *Cooked[T]) RawWords() ([]int32, error) { return a.rawWordsFromBuffer() }

// rawWordsFromBuffer converts the cooked buffer into raw words, as
// PreWrite would.
func (a *Cooked[T]) rawWordsFromBuffer() ([]int32, error) {
	words := make([]int32, a.wordCount())
	for c := 0; c < a.numChannels; c++ {
		for s := 0; s < a.numSamples; s++ {
			raw, err := fxpoint.ToRaw[T](a.conv, a.buf[c][s])
			if err != nil {
				return nil, err
			}
			words[c*a.numSamples+s] = raw
		}
	}
	return words, nil
}

func (a *Cooked[T]) PreRead(ctx context.Context) error { return nil }

// DoReadTransfer delegates to the raw peer's full read pipeline. When
// this accessor has been folded into a TransferGroup, the group performs
// the raw transfer directly and this method is never called (the group
// wraps the accessor in a CopyRegisterDecorator instead).
func (a *Cooked[T]) DoReadTransfer(ctx context.Context) error {
	return a.raw.Read(ctx)
}

func (a *Cooked[T]) DoReadTransferNonBlocking(ctx context.Context) (bool, error) {
	return a.raw.DoReadTransferNonBlocking(ctx)
}

func (a *Cooked[T]) DoReadTransferLatest(ctx context.Context) (bool, error) {
	return a.raw.DoReadTransferLatest(ctx)
}

func (a *Cooked[T]) PostRead(ctx context.Context) (transfer.Version, error) {
	words, err := a.raw.Words(a.offsetWords, a.wordCount())
	if err != nil {
		return transfer.Version{}, err
	}
	return a.AdoptRaw(words)
}

func (a *Cooked[T]) PreWrite(ctx context.Context) error {
	words, err := a.rawWordsFromBuffer()
	if err != nil {
		return err
	}
	dst, err := a.raw.Words(a.offsetWords, a.wordCount())
	if err != nil {
		return err
	}
	copy(dst, words)
	return nil
}

func (a *Cooked[T]) DoWriteTransfer(ctx context.Context, v transfer.Version) (bool, error) {
	return a.raw.Write(ctx, v)
}

func (a *Cooked[T]) PostWrite(ctx context.Context) error { return nil }

// HardwareAccessingElements exposes the underlying raw element, so a
// TransferGroup can find and merge it.
func (a *Cooked[T]) HardwareAccessingElements() []transfer.Element {
	return []transfer.Element{a.raw}
}

// Raw returns the underlying low-level element (used by group merging).
func (a *Cooked[T]) Raw() *RawElement { return a.raw }

// OffsetWords returns this accessor's word offset into its raw peer.
func (a *Cooked[T]) OffsetWords() int { return a.offsetWords }

// RebindRaw repoints the accessor at a (possibly reshaped, possibly
// shared) raw element at a new word offset. Used when a TransferGroup
// merges this accessor's raw range into a larger shared one.
func (a *Cooked[T]) RebindRaw(raw *RawElement, offsetWords int) {
	a.raw = raw
	a.offsetWords = offsetWords
}

// GetAsCooked converts the word currently stored at (ch, s) — by first
// reconstituting its raw bit pattern via the accessor's own converter —
// into an arbitrary user type U, matching spec.md §4.3's
// getAsCooked<U>/setAsCooked<U> even when T itself is the raw-passthrough
// identity type.
func GetAsCooked[T dtype.UserType, U dtype.UserType](a *Cooked[T], ch, s int) (U, error) {
	var zero U
	raw, err := fxpoint.ToRaw[T](a.conv, a.buf[ch][s])
	if err != nil {
		return zero, err
	}
	return fxpoint.ToCooked[U](a.conv, raw)
}

// SetAsCooked is the inverse of GetAsCooked.
func SetAsCooked[T dtype.UserType, U dtype.UserType](a *Cooked[T], ch, s int, v U) error {
	raw, err := fxpoint.ToRaw[U](a.conv, v)
	if err != nil {
		return err
	}
	cooked, err := fxpoint.ToCooked[T](a.conv, raw)
	if err != nil {
		return err
	}
	a.buf[ch][s] = cooked
	return nil
}
