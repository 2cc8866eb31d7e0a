package transfer_test

import (
	"context"
	"sync"
	"time"

	"github.com/rob-gra/go-deviceaccess/dtype"
	"github.com/rob-gra/go-deviceaccess/transfer"
)

// fakeElement is a minimal leaf TransferElement used to exercise Core's
// generic state machine without depending on the accessor/backend
// packages (which themselves depend on transfer).
type fakeElement struct {
	transfer.Core

	mu      sync.Mutex
	value   int32
	updates []int32 // queued values DoReadTransfer consumes in order
	gate    chan struct{}

	preReadCalls   int
	doReadCalls    int
	postReadCalls  int
	preWriteCalls  int
	doWriteCalls   int
	postWriteCalls int

	writeLostNext bool
	failDoRead    error
	readDelay     time.Duration
}

func newFakeElement(name string, mode transfer.AccessMode) *fakeElement {
	e := &fakeElement{}
	e.Core.Init(e, transfer.ID{}, name, "", "", mode, true, true, dtype.Int32)
	return e
}

func (e *fakeElement) PreRead(ctx context.Context) error {
	e.mu.Lock()
	e.preReadCalls++
	e.mu.Unlock()
	return nil
}

func (e *fakeElement) DoReadTransfer(ctx context.Context) error {
	e.mu.Lock()
	e.doReadCalls++
	if e.failDoRead != nil {
		err := e.failDoRead
		e.mu.Unlock()
		return err
	}
	if len(e.updates) > 0 {
		e.value = e.updates[0]
		e.updates = e.updates[1:]
	}
	delay := e.readDelay
	e.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (e *fakeElement) DoReadTransferNonBlocking(ctx context.Context) (bool, error) {
	e.mu.Lock()
	hasUpdate := len(e.updates) > 0
	e.mu.Unlock()
	if !hasUpdate {
		return false, nil
	}
	return true, e.DoReadTransfer(ctx)
}

func (e *fakeElement) DoReadTransferLatest(ctx context.Context) (bool, error) {
	e.mu.Lock()
	hasUpdate := len(e.updates) > 0
	if hasUpdate {
		e.value = e.updates[len(e.updates)-1]
		e.updates = nil
	}
	e.mu.Unlock()
	if !hasUpdate {
		return false, nil
	}
	e.mu.Lock()
	e.doReadCalls++
	e.mu.Unlock()
	return true, nil
}

func (e *fakeElement) PostRead(ctx context.Context) (transfer.Version, error) {
	e.mu.Lock()
	e.postReadCalls++
	e.mu.Unlock()
	return transfer.NewVersion(), nil
}

func (e *fakeElement) PreWrite(ctx context.Context) error {
	e.mu.Lock()
	e.preWriteCalls++
	e.mu.Unlock()
	return nil
}

func (e *fakeElement) DoWriteTransfer(ctx context.Context, v transfer.Version) (bool, error) {
	e.mu.Lock()
	e.doWriteCalls++
	lost := e.writeLostNext
	e.writeLostNext = false
	e.mu.Unlock()
	return lost, nil
}

func (e *fakeElement) PostWrite(ctx context.Context) error {
	e.mu.Lock()
	e.postWriteCalls++
	e.mu.Unlock()
	return nil
}

func (e *fakeElement) snapshot() (value int32, preR, doR, postR, preW, doW, postW int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value, e.preReadCalls, e.doReadCalls, e.postReadCalls, e.preWriteCalls, e.doWriteCalls, e.postWriteCalls
}
