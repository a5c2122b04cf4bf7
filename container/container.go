// Package container provides thread-safe collections that satisfy the stages.Container contract:
//
//	TryInsert(T) bool
//	TryRemove() (T, bool)
//	Count() int
//
// Queue never refuses an insert. Bounded and Chan refuse inserts while full,
// which is the transient refusal the stages buffer-retry engine is built around.
package container

import "sync"

// Remover is the removal half of a container.
type Remover[T any] interface {
	TryRemove() (T, bool)
	Count() int
}

// Drain removes every item currently present in c and returns them in removal order.
func Drain[T any](c Remover[T]) []T {
	items := make([]T, 0, c.Count())
	for c.Count() > 0 {
		v, ok := c.TryRemove()
		if !ok {
			continue
		}
		items = append(items, v)
	}

	return items
}

// Queue is an unbounded FIFO container.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

// NewQueue returns an empty unbounded queue, optionally seeded with items.
func NewQueue[T any](items ...T) *Queue[T] {
	q := &Queue[T]{items: make([]T, 0, len(items))}
	q.items = append(q.items, items...)

	return q
}

func (q *Queue[T]) TryInsert(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, v)

	return true
}

func (q *Queue[T]) TryRemove() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}

	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]

	return v, true
}

func (q *Queue[T]) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// Snapshot returns a copy of the queued items without removing them.
func (q *Queue[T]) Snapshot() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	return append([]T(nil), q.items...)
}

// Bounded is a FIFO container that refuses inserts once it holds capacity items.
type Bounded[T any] struct {
	queue    Queue[T]
	capacity int
}

// NewBounded returns an empty queue holding at most capacity items.
// A capacity below one is treated as one.
func NewBounded[T any](capacity int) *Bounded[T] {
	return &Bounded[T]{capacity: max(capacity, 1)}
}

func (b *Bounded[T]) TryInsert(v T) bool {
	b.queue.mu.Lock()
	defer b.queue.mu.Unlock()

	if len(b.queue.items) >= b.capacity {
		return false
	}

	b.queue.items = append(b.queue.items, v)

	return true
}

func (b *Bounded[T]) TryRemove() (T, bool) { return b.queue.TryRemove() }

func (b *Bounded[T]) Count() int { return b.queue.Count() }

// Capacity returns the maximum number of items b holds.
func (b *Bounded[T]) Capacity() int { return b.capacity }

// Snapshot returns a copy of the queued items without removing them.
func (b *Bounded[T]) Snapshot() []T { return b.queue.Snapshot() }

// Chan is a bounded container backed by a buffered channel.
type Chan[T any] struct {
	ch chan T
}

// NewChan returns a channel-backed container with the given capacity.
// A capacity below one is treated as one.
func NewChan[T any](capacity int) *Chan[T] {
	return &Chan[T]{ch: make(chan T, max(capacity, 1))}
}

func (c *Chan[T]) TryInsert(v T) bool {
	select {
	case c.ch <- v:
		return true
	default:
		return false
	}
}

func (c *Chan[T]) TryRemove() (T, bool) {
	select {
	case v := <-c.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

func (c *Chan[T]) Count() int { return len(c.ch) }
