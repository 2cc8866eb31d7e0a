// Package decorator implements the NDRegisterAccessor decorator chain
// (spec.md §4.5): CopyRegisterDecorator, the logical-name-map accessors,
// HandshakingAccessor, AsyncDecorator, and PersistenceDecorator.
//
// Universal delegation contract grounded on the teacher's pervasive
// `Connect` interface delegation idiom (every asdu/c*.go function takes a
// Connect and calls c.Params()/c.Send() without caring what concretely
// implements it): a decorator here likewise holds exactly one target and
// forwards everything it doesn't override.
package decorator

import (
	"context"

	"github.com/rob-gra/go-deviceaccess/dtype"
	"github.com/rob-gra/go-deviceaccess/transfer"
)

// TypedAccessor is the surface a decorator's target must expose: the full
// TransferElement contract plus the typed buffer views from
// accessor.Cooked[T]. accessor.Cooked[T] and every decorator in this
// package satisfy it, so decorators nest freely.
type TypedAccessor[T dtype.UserType] interface {
	transfer.Element
	NumChannels() int
	NumSamples() int
	AccessChannel(channel int) []T
	AccessData(channel, index int) T
	SetAccessData(channel, index int, v T)
}

// Base implements the universal decorator contract from spec.md §4.5 by
// delegating every Stages method and every graph-plumbing method to a
// single target. A concrete decorator embeds Base[T], calls Init from its
// constructor, and shadows only the methods it needs to change; the
// self-reference Core.Init captures (via the concrete decorator, not
// Base) makes Core's generic Read/Write/ReadAsync call the shadowed
// methods, not these defaults.
type Base[T dtype.UserType] struct {
	transfer.Core
	target TypedAccessor[T]
}

// Init wires Base to its target and concrete outer type. id/valueType are
// taken from the target, matching spec.md §4.5 ("id matches the target's
// id").
func (b *Base[T]) Init(self transfer.Element, target TypedAccessor[T], name, unit, description string, mode transfer.AccessMode, readable, writeable bool) {
	b.target = target
	b.Core.Init(self, target.ID(), name, unit, description, mode, readable, writeable, target.ValueType())
}

// Target returns the immediate delegate.
func (b *Base[T]) Target() TypedAccessor[T] { return b.target }

func (b *Base[T]) NumChannels() int                      { return b.target.NumChannels() }
func (b *Base[T]) NumSamples() int                       { return b.target.NumSamples() }
func (b *Base[T]) AccessChannel(channel int) []T         { return b.target.AccessChannel(channel) }
func (b *Base[T]) AccessData(channel, index int) T       { return b.target.AccessData(channel, index) }
func (b *Base[T]) SetAccessData(channel, index int, v T) { b.target.SetAccessData(channel, index, v) }

func (b *Base[T]) PreRead(ctx context.Context) error  { return b.target.PreRead(ctx) }
func (b *Base[T]) DoReadTransfer(ctx context.Context) error {
	return b.target.DoReadTransfer(ctx)
}
func (b *Base[T]) DoReadTransferNonBlocking(ctx context.Context) (bool, error) {
	return b.target.DoReadTransferNonBlocking(ctx)
}
func (b *Base[T]) DoReadTransferLatest(ctx context.Context) (bool, error) {
	return b.target.DoReadTransferLatest(ctx)
}
func (b *Base[T]) PostRead(ctx context.Context) (transfer.Version, error) {
	return b.target.PostRead(ctx)
}
func (b *Base[T]) PreWrite(ctx context.Context) error { return b.target.PreWrite(ctx) }
func (b *Base[T]) DoWriteTransfer(ctx context.Context, v transfer.Version) (bool, error) {
	return b.target.DoWriteTransfer(ctx, v)
}
func (b *Base[T]) PostWrite(ctx context.Context) error { return b.target.PostWrite(ctx) }

// HardwareAccessingElements forwards to the target (spec.md §4.5).
func (b *Base[T]) HardwareAccessingElements() []transfer.Element {
	return b.target.HardwareAccessingElements()
}

// GetInternalElements returns [target] ++ target.GetInternalElements().
func (b *Base[T]) GetInternalElements() []transfer.Element {
	return append([]transfer.Element{b.target}, b.target.GetInternalElements()...)
}

// ReplaceTransferElement replaces the target if newElem may replace it,
// else recurses into the target's own chain.
func (b *Base[T]) ReplaceTransferElement(newElem transfer.Element) bool {
	if newElem.MayReplaceOther(b.target) {
		if typed, ok := newElem.(TypedAccessor[T]); ok {
			b.target = typed
			return true
		}
		return false
	}
	return b.target.ReplaceTransferElement(newElem)
}
