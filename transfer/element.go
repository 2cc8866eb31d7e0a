// Package transfer implements the abstract unit of I/O (spec.md §4.2,
// §4.3): TransferElementId, VersionNumber, AccessMode, the TransferElement
// protocol state machine, the asynchronous TransferFuture, and the
// N-way readAny wait.
//
// Grounded on the teacher's pervasive Connect-delegation idiom (every
// asdu/c*.go command function takes a Connect and calls c.Params()/
// c.Send() without caring what concretely implements it): TransferGroup
// and decorators operate the same way here, against the Element
// interface, never against a concrete accessor type.
package transfer

import (
	"context"
	"sync"

	"github.com/rob-gra/go-deviceaccess/deverr"
	"github.com/rob-gra/go-deviceaccess/dtype"
)

// State is a TransferElement's position in the protocol state machine
// described in spec.md §4.2.
type State uint8

const (
	StateIdle State = iota
	StateReadPending
	StateReadDataAvailable
	StateWritePending
	StateWriteDone
)

// Stages is the three-stage read/write pipeline a concrete accessor
// implements. Core drives these in the order spec.md §4.2 mandates;
// concrete types never call their own stages directly except through
// Core's generic Read/Write/ReadAsync.
type Stages interface {
	// PreRead prepares the user buffer for a read (e.g. nothing for a
	// raw leaf, or "swap cooked into a shadow" for a decorator).
	PreRead(ctx context.Context) error
	// DoReadTransfer moves bytes over the wire, blocking until done.
	DoReadTransfer(ctx context.Context) error
	// DoReadTransferNonBlocking attempts a non-blocking read; the bool
	// reports whether new data was consumed.
	DoReadTransferNonBlocking(ctx context.Context) (bool, error)
	// DoReadTransferLatest discards everything between the last
	// observed value and the most recent; the bool reports whether any
	// update existed.
	DoReadTransferLatest(ctx context.Context) (bool, error)
	// PostRead publishes the transferred data into the user buffer and
	// returns the Version to stamp the element with.
	PostRead(ctx context.Context) (Version, error)
	// PreWrite prepares the wire payload from the user buffer.
	PreWrite(ctx context.Context) error
	// DoWriteTransfer moves the prepared payload over the wire. The bool
	// reports whether a previously pending write was lost (buffer
	// overflow on the producing side).
	DoWriteTransfer(ctx context.Context, v Version) (bool, error)
	// PostWrite runs any write-completion bookkeeping.
	PostWrite(ctx context.Context) error
}

// Element is the full TransferElement contract (spec.md §3, §4.2, §4.5).
type Element interface {
	Stages

	Name() string
	Unit() string
	Description() string
	ID() ID
	Version() Version
	Readable() bool
	Writeable() bool
	ReadOnly() bool
	ValueType() dtype.DataType
	AccessMode() AccessMode

	Read(ctx context.Context) error
	ReadNonBlocking(ctx context.Context) (bool, error)
	ReadLatest(ctx context.Context) (bool, error)
	Write(ctx context.Context, v Version) (bool, error)
	ReadAsync(ctx context.Context) (*Future, error)

	// HardwareAccessingElements returns the set of raw, backend-owned
	// elements this element ultimately transfers through.
	HardwareAccessingElements() []Element
	// GetInternalElements returns [target] ++ target.GetInternalElements()
	// for a decorator, or nil for a leaf.
	GetInternalElements() []Element
	// ReplaceTransferElement replaces the target with newElem if
	// newElem.MayReplaceOther(target), recursing into the existing
	// target otherwise; returns whether a replacement happened anywhere
	// in the chain.
	ReplaceTransferElement(newElem Element) bool
	// MayReplaceOther reports whether this element is an acceptable
	// substitute for other in a decorator chain.
	MayReplaceOther(other Element) bool
}

// Core implements the common TransferElement machinery (identity,
// version, active-future bookkeeping, and the generic Read/Write/
// ReadAsync algorithms) for embedding into concrete accessor and
// decorator types. A concrete type embeds Core, implements Stages
// itself, and calls Core.Init(self, ...) from its constructor so Core's
// generic algorithms can invoke the concrete Stages methods.
type Core struct {
	self Element

	name        string
	unit        string
	description string
	id          ID
	mode        AccessMode
	readable    bool
	writeable   bool
	valueType   dtype.DataType

	mu           sync.Mutex
	version      Version
	activeFuture *Future
}

// Init wires Core to the concrete element (self) and sets its identity.
// id may be the zero ID to mint a fresh one, or a specific ID to reuse
// (decorators reuse their target's id).
func (c *Core) Init(self Element, id ID, name, unit, description string, mode AccessMode, readable, writeable bool, valueType dtype.DataType) {
	if unit == "" {
		unit = "n./a."
	}
	if !id.IsValid() {
		id = NewID()
	}
	c.self = self
	c.id = id
	c.name = name
	c.unit = unit
	c.description = description
	c.mode = mode
	c.readable = readable
	c.writeable = writeable
	c.valueType = valueType
}

func (c *Core) Name() string              { return c.name }
func (c *Core) Unit() string              { return c.unit }
func (c *Core) Description() string       { return c.description }
func (c *Core) ID() ID                    { return c.id }
func (c *Core) Readable() bool            { return c.readable }
func (c *Core) Writeable() bool           { return c.writeable }
func (c *Core) ReadOnly() bool            { return c.readable && !c.writeable }
func (c *Core) ValueType() dtype.DataType { return c.valueType }
func (c *Core) AccessMode() AccessMode    { return c.mode }

// Version returns the element's current stamp.
func (c *Core) Version() Version {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

func (c *Core) setVersion(v Version) {
	c.mu.Lock()
	c.version = v
	c.mu.Unlock()
}

// StampVersion records v as the element's current version directly.
// Exported for TransferGroup, which drives PostRead/PostWrite on its
// members itself instead of through Core.Read/Write, and so must stamp
// the resulting version itself too.
func (c *Core) StampVersion(v Version) { c.setVersion(v) }

func (c *Core) getActiveFuture() *Future {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeFuture
}

func (c *Core) clearActiveFuture(f *Future) {
	c.mu.Lock()
	if c.activeFuture == f {
		c.activeFuture = nil
	}
	c.mu.Unlock()
}

// Read composes PreRead -> DoReadTransfer -> PostRead. If an async future
// is already active, this is equivalent to waiting on it (no
// double-transfer) per spec.md §4.2.
func (c *Core) Read(ctx context.Context) error {
	if af := c.getActiveFuture(); af != nil {
		return af.Wait(ctx)
	}
	if err := c.self.PreRead(ctx); err != nil {
		return err
	}
	if err := c.self.DoReadTransfer(ctx); err != nil {
		return err
	}
	v, err := c.self.PostRead(ctx)
	if err != nil {
		return err
	}
	c.setVersion(v)
	return nil
}

// ReadNonBlocking returns true iff new data was consumed. Without
// ModeWaitForNewData it always returns true (and runs a full synchronous
// read, per spec.md §4.2).
func (c *Core) ReadNonBlocking(ctx context.Context) (bool, error) {
	if af := c.getActiveFuture(); af != nil {
		if err := af.Wait(ctx); err != nil {
			return false, err
		}
		return true, nil
	}
	if !c.mode.Has(ModeWaitForNewData) {
		if err := c.Read(ctx); err != nil {
			return false, err
		}
		return true, nil
	}
	if err := c.self.PreRead(ctx); err != nil {
		return false, err
	}
	updated, err := c.self.DoReadTransferNonBlocking(ctx)
	if err != nil || !updated {
		return false, err
	}
	v, err := c.self.PostRead(ctx)
	if err != nil {
		return false, err
	}
	c.setVersion(v)
	return true, nil
}

// ReadLatest discards everything between the last observed value and the
// most recent, returning true if any update existed. With no pending
// update and ModeWaitForNewData unset, it runs a synchronous transfer and
// returns true (spec.md §9, Open Question resolved).
func (c *Core) ReadLatest(ctx context.Context) (bool, error) {
	if af := c.getActiveFuture(); af != nil {
		if err := af.Wait(ctx); err != nil {
			return false, err
		}
		return true, nil
	}
	if !c.mode.Has(ModeWaitForNewData) {
		if err := c.Read(ctx); err != nil {
			return false, err
		}
		return true, nil
	}
	if err := c.self.PreRead(ctx); err != nil {
		return false, err
	}
	updated, err := c.self.DoReadTransferLatest(ctx)
	if err != nil || !updated {
		return false, err
	}
	v, err := c.self.PostRead(ctx)
	if err != nil {
		return false, err
	}
	c.setVersion(v)
	return true, nil
}

// Write composes PreWrite -> DoWriteTransfer -> PostWrite. Returns true
// if the transfer lost a previous pending write.
func (c *Core) Write(ctx context.Context, v Version) (bool, error) {
	if !c.writeable {
		return false, deverr.New(deverr.NotImplemented, "%s is not writeable", c.name)
	}
	if !v.IsSet() {
		v = NewVersion()
	}
	if err := c.self.PreWrite(ctx); err != nil {
		return false, err
	}
	lost, err := c.self.DoWriteTransfer(ctx, v)
	if err != nil {
		return lost, err
	}
	if err := c.self.PostWrite(ctx); err != nil {
		return lost, err
	}
	c.setVersion(v)
	return lost, nil
}

// ReadAsync returns the outstanding TransferFuture, issuing a new
// DoReadTransfer in the background if none is active. Repeated calls
// before fulfilment return the same future.
func (c *Core) ReadAsync(ctx context.Context) (*Future, error) {
	c.mu.Lock()
	if c.activeFuture != nil {
		f := c.activeFuture
		c.mu.Unlock()
		return f, nil
	}
	c.mu.Unlock()

	if err := c.self.PreRead(ctx); err != nil {
		return nil, err
	}

	transferDone := make(chan struct{})
	f := &Future{transferDone: transferDone}
	f.complete = func(ctx context.Context) error {
		v, err := c.self.PostRead(ctx)
		if err == nil {
			c.setVersion(v)
		}
		c.clearActiveFuture(f)
		return err
	}

	c.mu.Lock()
	c.activeFuture = f
	c.mu.Unlock()

	go func() {
		err := c.self.DoReadTransfer(ctx)
		f.mu.Lock()
		f.transferErr = err
		f.mu.Unlock()
		close(transferDone)
	}()

	return f, nil
}

// Default (leaf) graph-plumbing behaviour. decorator.Base overrides the
// first three; MayReplaceOther is shared by leaves and decorators.

func (c *Core) HardwareAccessingElements() []Element { return []Element{c.self} }
func (c *Core) GetInternalElements() []Element        { return nil }
func (c *Core) ReplaceTransferElement(Element) bool   { return false }
func (c *Core) MayReplaceOther(other Element) bool {
	return other != nil && other.ID() == c.id
}
