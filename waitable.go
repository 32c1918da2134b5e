package uref

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// WaitableOwner extends Owner with a blocking wait for quiescence. Use it
// when a shutdown path wants to park until every borrower is done instead
// of polling DeleteIfDeleteable.
//
// The wait handshake is a close-once channel guarded by a mutex: a closed
// channel cannot miss a waiter that was not yet asleep when the last ref
// was released, and it composes with context deadlines. The hot
// registration/release path never takes the mutex; only the final
// zero-crossing after the owner is marked does.
type WaitableOwner[T any] struct {
	*Owner[T]

	mu    sync.Mutex
	woken bool
	quiet chan struct{}
}

// NewWaitable creates a waitable owner holding res in the Active state.
func NewWaitable[T any](res T, opts ...Option[T]) *WaitableOwner[T] {
	w := &WaitableOwner[T]{
		Owner: New(res, opts...),
		quiet: make(chan struct{}),
	}
	w.Owner.onZero = w.wake
	return w
}

// wake runs on every zero-crossing of the borrow count. Once the owner is
// marked, the crossing is final (no new refs can commit), so the channel
// close is permanent and every present and future waiter sees it.
func (w *WaitableOwner[T]) wake() {
	if !w.Marked() {
		return
	}

	w.mu.Lock()
	if !w.woken {
		w.woken = true
		close(w.quiet)
	}
	w.mu.Unlock()
}

// MarkAndWaitForDeletion marks the owner, blocks until every outstanding
// ref is released, then reclaims the resource. No deadline; intended for
// deterministic shutdown where all borrowers are known to finish.
func (w *WaitableOwner[T]) MarkAndWaitForDeletion() {
	w.MarkForDeletion()
	if w.DeleteIfDeleteable() || w.Destroyed() {
		return
	}

	<-w.quiet
	w.drain()
}

// MarkAndWaitForDeletionCtx is MarkAndWaitForDeletion bounded by ctx. It
// reports whether reclamation completed before ctx expired. On false the
// owner stays marked but not destroyed, and a later call (or a plain
// DeleteIfDeleteable) may complete the job.
func (w *WaitableOwner[T]) MarkAndWaitForDeletionCtx(ctx context.Context) bool {
	w.MarkForDeletion()
	if w.DeleteIfDeleteable() || w.Destroyed() {
		return true
	}

	select {
	case <-w.quiet:
	case <-ctx.Done():
		// The last release may have raced the deadline.
		return w.DeleteIfDeleteable() || w.Destroyed()
	}

	w.drain()
	return true
}

// drain retries deletion until it lands. Once quiet is closed no
// registration can ever commit again, so a nonzero count is only a
// transient increment from a denied registration about to roll back; a
// single deletion attempt could lose to it and leave the resource alive.
func (w *WaitableOwner[T]) drain() {
	for !w.DeleteIfDeleteable() && !w.Destroyed() {
		runtime.Gosched()
	}
}

// MarkAndWaitForDeletionTimeout bounds the wait with a duration.
func (w *WaitableOwner[T]) MarkAndWaitForDeletionTimeout(timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return w.MarkAndWaitForDeletionCtx(ctx)
}
