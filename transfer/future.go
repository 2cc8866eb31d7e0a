package transfer

import (
	"context"
	"sync"
)

// Future is a one-shot asynchronous handle to an in-flight transfer
// (spec.md §4.8). It wraps a single outstanding DoReadTransfer: Wait
// blocks until the wire transfer completes, then calls PostRead on the
// owning element exactly once, then clears the element's active-future
// flag.
//
// Cancellation: if the holder drops the Future before calling Wait, the
// background DoReadTransfer continues to completion; the first
// subsequent synchronous call on the element (Read/ReadNonBlocking/
// ReadLatest) observes the still-active future and waits on it, per
// Core.Read et al.
type Future struct {
	transferDone chan struct{}
	complete     func(ctx context.Context) error

	mu          sync.Mutex
	transferErr error

	once sync.Once
	err  error
}

// Done returns a channel that is closed once the underlying wire
// transfer has completed (but before PostRead has necessarily run). It
// is what readAny selects over for its N-way wait.
func (f *Future) Done() <-chan struct{} { return f.transferDone }

// Wait blocks until the wire transfer completes, runs PostRead exactly
// once (on the first caller, whether that's Wait or a synchronous Read
// that found this future active), and returns its error.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.transferDone:
	case <-ctx.Done():
		return ctx.Err()
	}
	f.once.Do(func() {
		f.mu.Lock()
		terr := f.transferErr
		f.mu.Unlock()
		if terr != nil {
			f.err = terr
			return
		}
		if f.complete != nil {
			f.err = f.complete(ctx)
		}
	})
	return f.err
}
