package decorator

import (
	"context"

	"github.com/rob-gra/go-deviceaccess/dtype"
	"github.com/rob-gra/go-deviceaccess/transfer"
)

// AsyncDecorator bridges a push-style source (a backend that delivers
// updates on its own schedule, e.g. an interrupt or subscription) into
// the TransferElement protocol (spec.md §4.8): DoReadTransfer blocks
// until a pushed value arrives, DoReadTransferNonBlocking polls the
// queue without blocking, DoReadTransferLatest drains to the newest
// queued value. Values are delivered directly into the target's scalar
// slot via SetAccessData; write is not supported through this decorator.
type AsyncDecorator[T dtype.UserType] struct {
	Base[T]

	queue chan T
}

// NewAsyncDecorator wraps target and forces AccessMode to include
// ModeWaitForNewData. backlog bounds how many pushed values can queue
// before Push starts dropping the oldest.
func NewAsyncDecorator[T dtype.UserType](target TypedAccessor[T], backlog int, name, unit, description string) *AsyncDecorator[T] {
	a := &AsyncDecorator[T]{queue: make(chan T, backlog)}
	a.Base.Init(a, target, name, unit, description, target.AccessMode()|transfer.ModeWaitForNewData, true, false)
	return a
}

// Push delivers a new value from the producer side. If the queue is
// full, the oldest queued value is dropped to make room (a push source
// is not expected to block on a slow consumer).
func (a *AsyncDecorator[T]) Push(v T) {
	select {
	case a.queue <- v:
	default:
		select {
		case <-a.queue:
		default:
		}
		select {
		case a.queue <- v:
		default:
		}
	}
}

func (a *AsyncDecorator[T]) DoReadTransfer(ctx context.Context) error {
	select {
	case v := <-a.queue:
		a.Target().SetAccessData(0, 0, v)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *AsyncDecorator[T]) DoReadTransferNonBlocking(ctx context.Context) (bool, error) {
	select {
	case v := <-a.queue:
		a.Target().SetAccessData(0, 0, v)
		return true, nil
	default:
		return false, nil
	}
}

func (a *AsyncDecorator[T]) DoReadTransferLatest(ctx context.Context) (bool, error) {
	var last T
	found := false
	for {
		select {
		case v := <-a.queue:
			last = v
			found = true
		default:
			if found {
				a.Target().SetAccessData(0, 0, last)
			}
			return found, nil
		}
	}
}

func (a *AsyncDecorator[T]) PostRead(ctx context.Context) (transfer.Version, error) {
	return transfer.NewVersion(), nil
}

func (a *AsyncDecorator[T]) PreWrite(ctx context.Context) error { return nil }
func (a *AsyncDecorator[T]) DoWriteTransfer(ctx context.Context, v transfer.Version) (bool, error) {
	return false, nil
}
func (a *AsyncDecorator[T]) PostWrite(ctx context.Context) error { return nil }
