// Package mailbox provides a single-slot buffer where the latest value wins.
// It is NOT a queue: it holds at most one pending value. That is enough for
// coalescing rotation triggers, since one pass covers everything that was
// pending when it started.
package mailbox

import (
	"context"
	"sync"
)

type Mailbox[T any] struct {
	mu sync.Mutex
	ch chan T
}

// New creates an empty mailbox.
func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{ch: make(chan T, 1)}
}

// Put stores a value, replacing any value already waiting. It never blocks.
func (m *Mailbox[T]) Put(v T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.ch:
	default:
	}
	m.ch <- v
}

// Take blocks until a value is available or the context is canceled.
func (m *Mailbox[T]) Take(ctx context.Context) (T, bool) {
	select {
	case v := <-m.ch:
		return v, true
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

// TryTake returns the pending value without blocking, if there is one.
func (m *Mailbox[T]) TryTake() (T, bool) {
	select {
	case v := <-m.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}
