package uref

import (
	"fmt"
	"reflect"
)

// As converts a ref's projected type via a runtime type check, typically
// to narrow an interface-typed ref back to a concrete or more specific
// interface type. On success the borrow transfers to the returned ref and
// the source is dissociated. On failure the source is left fully
// associated and dereferenceable, so the caller can retry or fall back
// without leaking or double-releasing a borrow.
//
// Exactly one borrow unit moves with the ref: the owner's count is never
// touched by a cast, successful or not.
func As[U, V any](r *Ref[V]) (*Ref[U], bool) {
	if !r.Associated() {
		return nil, false
	}

	u, ok := any(r.val).(U)
	if !ok {
		return nil, false
	}

	nr := &Ref[U]{val: u, rel: r.rel}
	armed := r.cl != nil
	r.dissociate()
	if armed {
		nr.arm()
	}
	return nr, true
}

// MustAs converts a ref's projected type where the conversion holds by
// construction, the usual case being an upcast to an interface the
// element is known to implement. The source is consumed. A conversion
// that does not hold, or a ref already dissociated, is a programming
// error and panics.
func MustAs[U, V any](r *Ref[V]) *Ref[U] {
	nr, ok := As[U](r)
	if !ok {
		panic(fmt.Sprintf(`uref: ref does not convert to %v`, reflect.TypeFor[U]()))
	}
	return nr
}
