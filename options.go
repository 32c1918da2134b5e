package uref

import (
	"github.com/go-logr/logr"
)

type Option[T any] func(*Owner[T])

// WithLogr attaches a logger for lifecycle events (mark, denial,
// reclamation, protocol violations). The default discards everything, so
// an unconfigured owner is silent.
func WithLogr[T any](l logr.Logger) Option[T] {
	return func(o *Owner[T]) { o.log = l }
}

// WithDeleter sets the reclamation strategy, invoked exactly once when
// the resource is destroyed. Without one, destruction just empties the
// slot and leaves memory to the garbage collector; set a deleter when
// teardown is more than memory (sockets, files, child processes).
func WithDeleter[T any](fn func(T)) Option[T] {
	return func(o *Owner[T]) { o.deleter = fn }
}

// WithLeakCheck arms a runtime cleanup on every issued ref that panics if
// the ref is garbage collected while still holding its borrow. A leaked
// ref blocks deletion forever, so failing loudly beats hanging a
// shutdown. Intended for tests and debug builds.
func WithLeakCheck[T any]() Option[T] {
	return func(o *Owner[T]) { o.leakCheck = true }
}
