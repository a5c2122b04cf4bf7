package stages

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// EventKind identifies a stage lifecycle event.
type EventKind int

const (
	// Raised before a stage attempts its first item.
	Started EventKind = iota
	// Raised after an item was placed into the stage output.
	ItemProcessed
	// Raised after the terminal buffer flush of a completed run.
	// Not raised when the run fails or is cancelled.
	Finished
)

var eventKinds = [...]EventKind{Started, ItemProcessed, Finished}

func (k EventKind) String() string {
	switch k {
	case Started:
		return "started"
	case ItemProcessed:
		return "item_processed"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Event carries the active cancellation context of the emitting stage and,
// for ItemProcessed, the item that was placed.
type Event[T any] struct {
	Kind   EventKind
	Ctx    context.Context
	Item   T
	Source uuid.UUID
}

// Listener handles a single Event. A returned error aborts the emitting stage's run.
type Listener[T any] func(Event[T]) error

// Subscription identifies a registered Listener.
type Subscription struct {
	id    uuid.UUID
	owner uuid.UUID
	kind  EventKind
}

// Kind returns the event kind the subscription listens to.
func (s Subscription) Kind() EventKind { return s.kind }

type subscriber[T any] struct {
	Subscription
	listen Listener[T]
}

// Events holds the listeners of one stage.
// Listeners run synchronously on the emitting goroutine in subscription order.
type Events[T any] struct {
	mu          sync.RWMutex
	subscribers []subscriber[T]
}

// Subscribe registers l for events of the given kind.
func (e *Events[T]) Subscribe(kind EventKind, l Listener[T]) Subscription {
	return e.subscribe(uuid.Nil, kind, l)
}

// Unsubscribe removes s. It reports whether s was registered.
func (e *Events[T]) Unsubscribe(s Subscription) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, sub := range e.subscribers {
		if sub.id == s.id {
			e.subscribers = append(e.subscribers[:i:i], e.subscribers[i+1:]...)

			return true
		}
	}

	return false
}

// Len returns the number of registered listeners.
func (e *Events[T]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.subscribers)
}

func (e *Events[T]) subscribe(owner uuid.UUID, kind EventKind, l Listener[T]) Subscription {
	s := subscriber[T]{
		Subscription: Subscription{id: uuid.New(), owner: owner, kind: kind},
		listen:       l,
	}

	e.mu.Lock()
	e.subscribers = append(e.subscribers, s)
	e.mu.Unlock()

	return s.Subscription
}

// unsubscribeOwner removes every subscription registered on behalf of owner
// and reports how many were removed.
func (e *Events[T]) unsubscribeOwner(owner uuid.UUID) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.subscribers[:0:0]
	for _, s := range e.subscribers {
		if s.owner != owner {
			kept = append(kept, s)
		}
	}

	removed := len(e.subscribers) - len(kept)
	e.subscribers = kept

	return removed
}

// emit calls every listener of ev.Kind and joins their errors.
// Listeners are snapshotted first so they may subscribe or unsubscribe while running.
func (e *Events[T]) emit(ev Event[T]) error {
	e.mu.RLock()
	listeners := make([]Listener[T], 0, len(e.subscribers))
	for _, s := range e.subscribers {
		if s.kind == ev.Kind {
			listeners = append(listeners, s.listen)
		}
	}
	e.mu.RUnlock()

	var errs []error
	for _, l := range listeners {
		if err := l(ev); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
