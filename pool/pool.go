// Package pool provides a keyed registry of owned resources with
// drain-then-destroy removal, showing how uref owners slot into a larger
// component's shutdown sequence. It favors clarity over throughput and is
// not tuned for large key counts.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/violin0622/uref"
)

var ErrExists = errors.New(`entry already exists`)
var ErrNotFound = errors.New(`entry not found`)

// Pool maps keys to waitable owners. Borrowers hold refs; removal marks
// the owner, waits for the refs to drain and then reclaims the resource.
type Pool[K comparable, T any] struct {
	log logr.Logger

	mu      sync.Mutex
	entries map[K]*uref.WaitableOwner[T]
}

type Option[K comparable, T any] func(*Pool[K, T])

func WithLogr[K comparable, T any](l logr.Logger) Option[K, T] {
	return func(p *Pool[K, T]) { p.log = l }
}

// New creates an empty pool.
func New[K comparable, T any](opts ...Option[K, T]) *Pool[K, T] {
	p := &Pool[K, T]{
		log:     logr.Discard(),
		entries: make(map[K]*uref.WaitableOwner[T]),
	}

	for _, o := range opts {
		o(p)
	}
	return p
}

// Put registers res under key. Owner options (deleter, logger, leak
// check) pass through to the entry's owner.
func (p *Pool[K, T]) Put(key K, res T, opts ...uref.Option[T]) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.entries[key]; ok {
		return fmt.Errorf(`put %v: %w`, key, ErrExists)
	}

	p.entries[key] = uref.NewWaitable(res, opts...)
	p.log.V(1).Info(`Entry registered.`, `key`, key)
	return nil
}

// Borrow hands out a ref for the resource under key. It fails with
// ErrNotFound for unknown keys and with uref.ErrMarkedForDeletion for
// entries already draining.
func (p *Pool[K, T]) Borrow(key K) (*uref.Ref[T], error) {
	o, ok := p.entry(key)
	if !ok {
		return nil, fmt.Errorf(`borrow %v: %w`, key, ErrNotFound)
	}

	r, err := o.MakeRef()
	if err != nil {
		return nil, fmt.Errorf(`borrow %v: %w`, key, err)
	}
	return r, nil
}

// Drop marks the entry under key, waits for its borrowers to drain and
// destroys the resource. It reports false if ctx expired first; the entry
// then stays registered in the marked state so a later Drop can finish
// the job once the borrowers are gone.
func (p *Pool[K, T]) Drop(ctx context.Context, key K) (bool, error) {
	o, ok := p.entry(key)
	if !ok {
		return false, fmt.Errorf(`drop %v: %w`, key, ErrNotFound)
	}

	if !o.MarkAndWaitForDeletionCtx(ctx) {
		p.log.V(1).Info(`Drop gave up with live borrows.`, `key`, key, `refs`, o.RefCount())
		return false, nil
	}

	p.remove(key)
	return true, nil
}

// Shutdown drains and destroys every entry, in no particular order. It
// stops at the first entry whose borrowers did not drain before ctx
// expired; already-drained entries stay removed.
func (p *Pool[K, T]) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	snapshot := make(map[K]*uref.WaitableOwner[T], len(p.entries))
	for k, o := range p.entries {
		snapshot[k] = o
	}
	p.mu.Unlock()

	for k, o := range snapshot {
		if !o.MarkAndWaitForDeletionCtx(ctx) {
			return fmt.Errorf(`shutdown: entry %v still borrowed: %w`, k, ctx.Err())
		}
		p.remove(k)
	}

	p.log.V(1).Info(`Pool drained.`, `entries`, len(snapshot))
	return nil
}

// Len reports the number of registered entries, draining ones included.
func (p *Pool[K, T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

func (p *Pool[K, T]) entry(key K) (*uref.WaitableOwner[T], bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.entries[key]
	return o, ok
}

func (p *Pool[K, T]) remove(key K) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, key)
}
