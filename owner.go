package uref

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/go-logr/logr"
)

var ErrMarkedForDeletion = errors.New(`owner marked for deletion`)
var ErrOutstandingRefs = errors.New(`owner has outstanding refs`)

// Owner holds exclusive authority over a resource's lifetime while handing
// out concurrent borrow tokens (Refs). Destruction never happens behind the
// owner's back: it must be requested with MarkForDeletion and only takes
// effect once every ref has been released.
//
// The lifecycle is a one-way street:
//
//	Active --MarkForDeletion--> Marked --DeleteIfDeleteable--> Destroyed
//
// Ref creation and release are lock-free; only the WaitableOwner variant
// ever blocks.
type Owner[T any] struct {
	res       T
	deleter   func(T)
	log       logr.Logger
	leakCheck bool
	s         stats

	count     atomic.Int64
	marked    atomic.Bool
	destroyed atomic.Bool

	// onZero runs whenever a decrement brings count to zero. Set by
	// NewWaitable before any ref can exist, never changed afterwards.
	onZero func()
}

// New creates an owner holding res in the Active state.
func New[T any](res T, opts ...Option[T]) *Owner[T] {
	o := &Owner[T]{
		res: res,
		log: logr.Discard(),
	}

	for _, opt := range opts {
		opt(o)
	}
	return o
}

// TryMakeRef registers a new borrow and returns a live ref for it. It
// reports false if the owner is already marked for deletion. Lock-free.
func (o *Owner[T]) TryMakeRef() (*Ref[T], bool) {
	if !o.register() {
		return nil, false
	}
	return o.newRef(), true
}

// MakeRef is TryMakeRef for callers on an error-propagation path. It
// fails with ErrMarkedForDeletion once the owner is marked.
func (o *Owner[T]) MakeRef() (*Ref[T], error) {
	if !o.register() {
		return nil, fmt.Errorf(`make ref: %w`, ErrMarkedForDeletion)
	}
	return o.newRef(), nil
}

// register is the optimistic increment-then-validate step. The increment
// is published before the marked flag is read, so a deletion attempt that
// observes a zero count is ordered entirely before or after this call;
// there is no window in which the resource can be reclaimed while an
// uncommitted registration is in flight. A registration that loses the
// race rolls its increment back and fails.
func (o *Owner[T]) register() bool {
	o.count.Add(1)
	if o.marked.Load() {
		o.dec()
		o.s.denied()
		o.log.V(1).Info(`Ref denied, owner is marked.`)
		return false
	}
	o.s.issued()
	return true
}

func (o *Owner[T]) newRef() *Ref[T] {
	r := &Ref[T]{val: o.res, rel: o}
	if o.leakCheck {
		r.arm()
	}
	return r
}

// releaseRef returns one borrow unit. Called by Ref, never directly.
func (o *Owner[T]) releaseRef() {
	o.s.released()
	o.dec()
}

// dec removes one borrow unit and fires the zero-crossing hook. Both ref
// release and registration rollback come through here, so a waiter can
// never miss the final zero-crossing behind a transient registration.
func (o *Owner[T]) dec() {
	n := o.count.Add(-1)
	if n < 0 {
		panic(`uref: ref released more than once`)
	}
	if n == 0 && o.onZero != nil {
		o.onZero()
	}
}

// MarkForDeletion closes the door to new refs. Idempotent, irreversible,
// non-blocking. Refs already outstanding are unaffected.
func (o *Owner[T]) MarkForDeletion() {
	if o.marked.CompareAndSwap(false, true) {
		o.s.markedNow()
		o.log.V(1).Info(`Owner marked for deletion.`)
	}
}

// DeleteIfDeleteable reclaims the resource if the owner is marked, not yet
// destroyed and no refs are outstanding. Exactly one call over the owner's
// lifetime ever returns true, no matter how many goroutines race it; the
// winner runs the deleter, losers return false with no side effect.
// Non-blocking and safe to retry from a polling loop.
func (o *Owner[T]) DeleteIfDeleteable() bool {
	o.s.attempted()
	if !o.marked.Load() {
		return false
	}
	if o.destroyed.Load() {
		return false
	}
	if o.count.Load() != 0 {
		return false
	}

	if !o.destroyed.CompareAndSwap(false, true) {
		return false
	}
	o.reclaim()
	return true
}

// MarkAndDeleteIfReady marks the owner and immediately attempts deletion.
func (o *Owner[T]) MarkAndDeleteIfReady() bool {
	o.MarkForDeletion()
	return o.DeleteIfDeleteable()
}

// Close marks the owner and reclaims the resource if no refs are
// outstanding, so an Owner can sit directly in a component's shutdown
// sequence as an io.Closer. Closing with live refs is a protocol
// violation: Close fails loudly with ErrOutstandingRefs and leaves the
// resource alone rather than pulling it out from under a borrower.
func (o *Owner[T]) Close() error {
	if o.MarkAndDeleteIfReady() || o.Destroyed() {
		return nil
	}

	err := fmt.Errorf(`close: %w`, ErrOutstandingRefs)
	o.log.Error(err, `Owner closed with live refs.`, `refs`, o.RefCount())
	return err
}

// reclaim runs the deleter exactly once and empties the resource slot.
// Only the goroutine that won the destroyed transition gets here, and the
// marked flag guarantees no ref can observe the slot afterwards.
func (o *Owner[T]) reclaim() {
	if o.deleter != nil {
		o.deleter(o.res)
	}
	var zero T
	o.res = zero
	o.s.destroyedNow()
	o.log.V(1).Info(`Resource reclaimed.`)
}

// Outstanding reports whether any ref is currently live.
func (o *Owner[T]) Outstanding() bool { return o.count.Load() > 0 }

// RefCount returns the number of live refs. A transient over-count from a
// registration that is about to roll back may be visible.
func (o *Owner[T]) RefCount() int64 { return o.count.Load() }

// Marked reports whether deletion has been requested.
func (o *Owner[T]) Marked() bool { return o.marked.Load() }

// Destroyed reports whether the resource has been reclaimed.
func (o *Owner[T]) Destroyed() bool { return o.destroyed.Load() }

// Stats returns a snapshot of the owner statistics.
// The returned struct is a copy and safe to use without synchronization.
func (o *Owner[T]) Stats() Stats {
	return o.s.snapshot()
}
