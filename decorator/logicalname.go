package decorator

import (
	"context"

	"github.com/rob-gra/go-deviceaccess/deverr"
	"github.com/rob-gra/go-deviceaccess/dtype"
	"github.com/rob-gra/go-deviceaccess/transfer"
)

// RegisterTarget is the logical-name-map REGISTER kind: a pure 1:1 alias
// for an existing accessor on another backend. It overrides nothing, and
// exists so the logical-name backend has a distinct, identifiable type
// per target kind (spec.md §6 "five target kinds").
type RegisterTarget[T dtype.UserType] struct {
	Base[T]
}

// NewRegisterTarget aliases target unchanged.
func NewRegisterTarget[T dtype.UserType](target TypedAccessor[T], name, unit, description string) *RegisterTarget[T] {
	r := &RegisterTarget[T]{}
	r.Base.Init(r, target, name, unit, description, target.AccessMode(), target.Readable(), target.Writeable())
	return r
}

// RangeTarget is the logical-name-map RANGE kind: a contiguous sub-range
// of a target's single channel, copied into its own buffer so it can be
// opened/read independently of the full register (spec.md §6).
type RangeTarget[T dtype.UserType] struct {
	Base[T]
	offset int
	length int
	buf    []T
}

// NewRangeTarget selects target's channel 0 samples [offset, offset+length).
func NewRangeTarget[T dtype.UserType](target TypedAccessor[T], offset, length int, name, unit, description string) (*RangeTarget[T], error) {
	if offset < 0 || length <= 0 || offset+length > target.NumSamples() {
		return nil, deverr.New(deverr.WrongParameter, "range [%d,%d) out of bounds for %d samples", offset, offset+length, target.NumSamples())
	}
	r := &RangeTarget[T]{offset: offset, length: length, buf: make([]T, length)}
	r.Base.Init(r, target, name, unit, description, target.AccessMode(), target.Readable(), target.Writeable())
	return r, nil
}

func (r *RangeTarget[T]) NumChannels() int                      { return 1 }
func (r *RangeTarget[T]) NumSamples() int                       { return r.length }
func (r *RangeTarget[T]) AccessChannel(int) []T                 { return r.buf }
func (r *RangeTarget[T]) AccessData(_, index int) T             { return r.buf[index] }
func (r *RangeTarget[T]) SetAccessData(_, index int, v T)       { r.buf[index] = v }

func (r *RangeTarget[T]) PostRead(ctx context.Context) (transfer.Version, error) {
	v, err := r.Target().PostRead(ctx)
	if err != nil {
		return v, err
	}
	copy(r.buf, r.Target().AccessChannel(0)[r.offset:r.offset+r.length])
	return v, nil
}

func (r *RangeTarget[T]) PreWrite(ctx context.Context) error {
	copy(r.Target().AccessChannel(0)[r.offset:r.offset+r.length], r.buf)
	return r.Target().PreWrite(ctx)
}

// ChannelTarget is the logical-name-map CHANNEL kind: one channel of a
// multi-channel 2-D register, exposed as its own scalar-per-sample
// accessor.
type ChannelTarget[T dtype.UserType] struct {
	Base[T]
	channel int
	buf     []T
}

// NewChannelTarget selects target's channel `channel`.
func NewChannelTarget[T dtype.UserType](target TypedAccessor[T], channel int, name, unit, description string) (*ChannelTarget[T], error) {
	if channel < 0 || channel >= target.NumChannels() {
		return nil, deverr.New(deverr.WrongParameter, "channel %d out of bounds for %d channels", channel, target.NumChannels())
	}
	c := &ChannelTarget[T]{channel: channel, buf: make([]T, target.NumSamples())}
	c.Base.Init(c, target, name, unit, description, target.AccessMode(), target.Readable(), target.Writeable())
	return c, nil
}

func (c *ChannelTarget[T]) NumChannels() int                { return 1 }
func (c *ChannelTarget[T]) NumSamples() int                 { return len(c.buf) }
func (c *ChannelTarget[T]) AccessChannel(int) []T           { return c.buf }
func (c *ChannelTarget[T]) AccessData(_, index int) T       { return c.buf[index] }
func (c *ChannelTarget[T]) SetAccessData(_, index int, v T) { c.buf[index] = v }

func (c *ChannelTarget[T]) PostRead(ctx context.Context) (transfer.Version, error) {
	v, err := c.Target().PostRead(ctx)
	if err != nil {
		return v, err
	}
	copy(c.buf, c.Target().AccessChannel(c.channel))
	return v, nil
}

func (c *ChannelTarget[T]) PreWrite(ctx context.Context) error {
	copy(c.Target().AccessChannel(c.channel), c.buf)
	return c.Target().PreWrite(ctx)
}

// IntConstant is the logical-name-map INT_CONSTANT kind: a fixed value
// with no backend at all. Always readOnly; write fails NOT_IMPLEMENTED
// (spec.md §8 scenario S6).
type IntConstant struct {
	transfer.Core
	value int32
}

// NewIntConstant builds a read-only scalar accessor fixed at value.
func NewIntConstant(value int32, name, unit, description string) *IntConstant {
	c := &IntConstant{value: value}
	c.Core.Init(c, transfer.ID{}, name, unit, description, 0, true, false, dtype.Int32)
	return c
}

func (c *IntConstant) NumChannels() int                 { return 1 }
func (c *IntConstant) NumSamples() int                  { return 1 }
func (c *IntConstant) AccessChannel(int) []int32        { return []int32{c.value} }
func (c *IntConstant) AccessData(_, _ int) int32        { return c.value }
func (c *IntConstant) SetAccessData(_, _ int, v int32)  {}

func (c *IntConstant) PreRead(ctx context.Context) error                                 { return nil }
func (c *IntConstant) DoReadTransfer(ctx context.Context) error                          { return nil }
func (c *IntConstant) DoReadTransferNonBlocking(ctx context.Context) (bool, error)        { return true, nil }
func (c *IntConstant) DoReadTransferLatest(ctx context.Context) (bool, error)             { return true, nil }
func (c *IntConstant) PostRead(ctx context.Context) (transfer.Version, error)             { return transfer.NewVersion(), nil }
func (c *IntConstant) PreWrite(ctx context.Context) error                                 { return nil }
func (c *IntConstant) DoWriteTransfer(ctx context.Context, v transfer.Version) (bool, error) {
	return false, nil
}
func (c *IntConstant) PostWrite(ctx context.Context) error { return nil }

// IntVariable is the logical-name-map INT_VARIABLE kind: a mutable
// process-local value with no backend.
type IntVariable struct {
	transfer.Core
	buf []int32
}

// NewIntVariable builds a read/write scalar accessor backed purely by an
// in-process variable, initialised to initial.
func NewIntVariable(initial int32, name, unit, description string) *IntVariable {
	v := &IntVariable{buf: []int32{initial}}
	v.Core.Init(v, transfer.ID{}, name, unit, description, 0, true, true, dtype.Int32)
	return v
}

func (v *IntVariable) NumChannels() int                     { return 1 }
func (v *IntVariable) NumSamples() int                      { return 1 }
func (v *IntVariable) AccessChannel(int) []int32            { return v.buf }
func (v *IntVariable) AccessData(_, index int) int32        { return v.buf[index] }
func (v *IntVariable) SetAccessData(_, index int, x int32)  { v.buf[index] = x }

func (v *IntVariable) PreRead(ctx context.Context) error                          { return nil }
func (v *IntVariable) DoReadTransfer(ctx context.Context) error                   { return nil }
func (v *IntVariable) DoReadTransferNonBlocking(ctx context.Context) (bool, error) { return true, nil }
func (v *IntVariable) DoReadTransferLatest(ctx context.Context) (bool, error)      { return true, nil }
func (v *IntVariable) PostRead(ctx context.Context) (transfer.Version, error) {
	return transfer.NewVersion(), nil
}
func (v *IntVariable) PreWrite(ctx context.Context) error { return nil }
func (v *IntVariable) DoWriteTransfer(ctx context.Context, ver transfer.Version) (bool, error) {
	return false, nil
}
func (v *IntVariable) PostWrite(ctx context.Context) error { return nil }
