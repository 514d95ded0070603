package engine

import (
	"sync"

	"github.com/roach88/chatplay/internal/action"
)

// Buffer is a category's resident buffer: the containers waiting to be
// stepped, in FIFO order except for the rewrites the interpreter performs at
// the head.
//
// The feeder appends and the runner steps; the mutex is held for exactly one
// append or one tick, never across a sleep.
//
// A buffered signal channel (size 1) wakes an idle runner when work arrives,
// so an empty queue does not poll.
type Buffer struct {
	mu     sync.Mutex
	items  []action.Container
	closed bool
	signal chan struct{}
}

// newBuffer creates an empty buffer.
func newBuffer() *Buffer {
	return &Buffer{
		items:  make([]action.Container, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Append adds c to the tail.
// Returns false if the buffer is closed.
func (b *Buffer) Append(c action.Container) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	b.items = append(b.items, c)

	// Non-blocking: the buffer of 1 coalesces multiple signals.
	select {
	case b.signal <- struct{}{}:
	default:
	}

	return true
}

// with runs fn on the items under the lock.
func (b *Buffer) with(fn func(items *[]action.Container)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.items)
}

// Wait returns a channel that signals when items may be available.
// After Close the channel is closed and always ready.
func (b *Buffer) Wait() <-chan struct{} {
	return b.signal
}

// Len returns the number of resident containers.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Snapshot returns a copy of the resident containers, head first.
func (b *Buffer) Snapshot() []action.Container {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]action.Container, len(b.items))
	copy(out, b.items)
	return out
}

// Close marks that no more containers will be appended.
// Resident containers stay and may still be stepped.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true
	close(b.signal) // Wakes all waiters
}

// Drained reports whether the buffer is closed and empty.
func (b *Buffer) Drained() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed && len(b.items) == 0
}
