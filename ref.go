package uref

import "runtime"

// releaser decouples a Ref from the concrete owner type so that casts can
// carry the borrow association across element types.
type releaser interface {
	releaseRef()
}

// Ref is a move-only borrow of an owner's resource. A live Ref is what
// keeps the owner's outstanding count above zero and therefore what vetoes
// deletion; its existence is proof that the resource is still valid.
//
// Refs are created only by an owner (TryMakeRef/MakeRef), travel by
// pointer, and must be returned with Release on every exit path. A Ref
// that has been released, or consumed by a cast, is dissociated: it no
// longer carries a borrow and releasing it again is a no-op.
//
// A Ref is a single-holder token and is not safe for concurrent use by
// multiple goroutines. Hand each goroutine its own ref instead.
type Ref[T any] struct {
	val T
	rel releaser
	cl  *runtime.Cleanup
}

// Value projects the borrowed resource. Valid only while the ref is
// associated; a dissociated ref projects the zero value.
func (r *Ref[T]) Value() T { return r.val }

// Associated reports whether this ref still carries its borrow.
func (r *Ref[T]) Associated() bool { return r != nil && r.rel != nil }

// Release returns the borrow to the owner. Only the first call on an
// associated ref decrements the count; later calls, and calls on a ref
// consumed by a cast, do nothing.
func (r *Ref[T]) Release() {
	if r == nil || r.rel == nil {
		return
	}

	rel := r.rel
	r.dissociate()
	rel.releaseRef()
}

// dissociate strips the borrow from r without returning it to the owner.
// The caller takes over the borrow unit.
func (r *Ref[T]) dissociate() {
	r.rel = nil
	var zero T
	r.val = zero
	if r.cl != nil {
		r.cl.Stop()
		r.cl = nil
	}
}

// arm registers a GC cleanup that fails loudly if the ref becomes
// unreachable while still holding its borrow. The cleanup must not
// capture r itself, so it takes the release association as its argument.
func (r *Ref[T]) arm() {
	cl := runtime.AddCleanup(r, func(releaser) {
		panic(`uref: ref became unreachable without Release`)
	}, r.rel)
	r.cl = &cl
}
