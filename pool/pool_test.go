package pool_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/violin0622/uref"
	"github.com/violin0622/uref/pool"
)

type session struct {
	id     string
	closed atomic.Bool
}

func closeSession(s *session) { s.closed.Store(true) }

func TestPool_PutBorrowDrop(t *testing.T) {
	p := pool.New[string, *session]()
	s := &session{id: "a"}

	require.NoError(t, p.Put("a", s, uref.WithDeleter(closeSession)))
	assert.Equal(t, 1, p.Len())

	ref, err := p.Borrow("a")
	require.NoError(t, err)
	assert.Equal(t, "a", ref.Value().id)
	ref.Release()

	ok, err := p.Drop(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, s.closed.Load())
	assert.Equal(t, 0, p.Len())
}

func TestPool_DuplicatePut(t *testing.T) {
	p := pool.New[string, *session]()

	require.NoError(t, p.Put("a", &session{id: "a"}))
	err := p.Put("a", &session{id: "a2"})
	assert.ErrorIs(t, err, pool.ErrExists)
}

func TestPool_BorrowUnknownKey(t *testing.T) {
	p := pool.New[string, *session]()

	_, err := p.Borrow("missing")
	assert.ErrorIs(t, err, pool.ErrNotFound)
}

func TestPool_BorrowWhileDraining(t *testing.T) {
	p := pool.New[string, *session]()
	require.NoError(t, p.Put("a", &session{id: "a"}))

	held, err := p.Borrow("a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ok, err := p.Drop(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok, "drop must time out while a borrow is live")

	// The entry is marked now: new borrows are refused but the entry
	// remains until a later drop finishes the drain.
	_, err = p.Borrow("a")
	assert.ErrorIs(t, err, uref.ErrMarkedForDeletion)
	assert.Equal(t, 1, p.Len())

	held.Release()
	ok, err = p.Drop(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, p.Len())
}

func TestPool_DropUnknownKey(t *testing.T) {
	p := pool.New[string, *session]()

	_, err := p.Drop(context.Background(), "missing")
	assert.ErrorIs(t, err, pool.ErrNotFound)
}

func TestPool_ShutdownDrainsEverything(t *testing.T) {
	p := pool.New[string, *session]()
	sessions := []*session{{id: "a"}, {id: "b"}, {id: "c"}}
	for _, s := range sessions {
		require.NoError(t, p.Put(s.id, s, uref.WithDeleter(closeSession)))
	}

	ref, err := p.Borrow("b")
	require.NoError(t, err)
	go func() {
		time.Sleep(20 * time.Millisecond)
		ref.Release()
	}()

	require.NoError(t, p.Shutdown(context.Background()))
	assert.Equal(t, 0, p.Len())
	for _, s := range sessions {
		assert.True(t, s.closed.Load(), "session %s not closed", s.id)
	}
}

func TestPool_ShutdownDeadline(t *testing.T) {
	p := pool.New[string, *session]()
	require.NoError(t, p.Put("a", &session{id: "a"}))

	held, err := p.Borrow("a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, p.Shutdown(ctx))

	held.Release()
	require.NoError(t, p.Shutdown(context.Background()))
}
