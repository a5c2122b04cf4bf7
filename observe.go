package stages

import "github.com/google/uuid"

// Emitter raises lifecycle events of items of type T.
type Emitter[T any] interface {
	ID() uuid.UUID
	Events() *Events[T]
}

// Invokable runs in reaction to events of items of type T.
type Invokable[T any] interface {
	ID() uuid.UUID
	// Invoke runs on the goroutine that raised e.
	Invoke(e Event[T]) error
	// InvokeAsync starts a run under e.Ctx without waiting for it.
	InvokeAsync(e Event[T]) *Task
}

// Observe makes sub run every time host raises Started, ItemProcessed or Finished.
// sub runs synchronously on the goroutine of host; its errors abort the run of host.
func Observe[T any](host Emitter[T], sub Invokable[T]) []Subscription {
	subs := make([]Subscription, 0, len(eventKinds))
	for _, kind := range eventKinds {
		subs = append(subs, host.Events().subscribe(sub.ID(), kind, sub.Invoke))
	}

	return subs
}

// ObserveAsync makes sub start an asynchronous run under the context of host
// every time host raises Started, ItemProcessed or Finished.
// host does not wait for those runs and never sees their errors.
func ObserveAsync[T any](host Emitter[T], sub Invokable[T]) []Subscription {
	invoke := func(e Event[T]) error {
		sub.InvokeAsync(e)

		return nil
	}

	subs := make([]Subscription, 0, len(eventKinds))
	for _, kind := range eventKinds {
		subs = append(subs, host.Events().subscribe(sub.ID(), kind, invoke))
	}

	return subs
}

// StopObserving removes every subscription sub holds on host, synchronous or not,
// and reports how many were removed.
func StopObserving[T any](host Emitter[T], sub interface{ ID() uuid.UUID }) int {
	return host.Events().unsubscribeOwner(sub.ID())
}
