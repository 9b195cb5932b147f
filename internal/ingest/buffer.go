package ingest

import (
	"sync"
)

// Buffer is a thread-safe FIFO that grows instead of blocking the sender.
// Observation loops feed accepted events into it; the archive writer drains
// it at its own pace. Growth doubles the capacity when the buffer fills.
type Buffer[T any] struct {
	mu     sync.Mutex
	items  []T
	head   int
	count  int
	closed bool

	grown int64
}

// NewBuffer creates a buffer with the given initial capacity.
func NewBuffer[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{items: make([]T, capacity)}
}

// Send enqueues an item, growing if needed. Returns false once closed.
func (b *Buffer[T]) Send(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	if b.count == len(b.items) {
		b.grow()
	}

	b.items[(b.head+b.count)%len(b.items)] = item
	b.count++
	return true
}

// TryReceive dequeues the oldest item without blocking.
func (b *Buffer[T]) TryReceive() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var zero T
	if b.count == 0 {
		return zero, false
	}

	item := b.items[b.head]
	b.items[b.head] = zero
	b.head = (b.head + 1) % len(b.items)
	b.count--
	return item, true
}

// Drain removes and returns up to max items (all items when max <= 0).
func (b *Buffer[T]) Drain(max int) []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.count
	if max > 0 && max < n {
		n = max
	}
	if n == 0 {
		return nil
	}

	out := make([]T, n)
	for i := range out {
		out[i] = b.items[b.head]
		var zero T
		b.items[b.head] = zero
		b.head = (b.head + 1) % len(b.items)
		b.count--
	}
	return out
}

// Close marks the buffer closed; pending items stay drainable.
func (b *Buffer[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

// Len returns the number of buffered items.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *Buffer[T]) grow() {
	bigger := make([]T, len(b.items)*2)
	for i := 0; i < b.count; i++ {
		bigger[i] = b.items[(b.head+i)%len(b.items)]
	}
	b.items = bigger
	b.head = 0
	b.grown++
}
