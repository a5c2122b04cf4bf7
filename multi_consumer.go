package stages

import (
	"context"
	"slices"
	"sync"

	"github.com/andriiyaremenko/stages/internal"
)

var (
	_ Stage          = new(MultiConsumer[any, any])
	_ Source[any]    = new(MultiConsumer[any, any])
	_ Invokable[any] = new(MultiConsumer[any, any])
	_ Receiver[any]  = new(MultiConsumer[any, any])
)

// MultiConsumer applies one Operation to several independently owned inputs
// and places every result into a single shared output.
//
// Inputs are drained one after another in the order they were added.
// Relative order is only kept for items of the same input.
type MultiConsumer[T, U any] struct {
	stage[U]

	mu     sync.Mutex
	inputs []Container[T]
	out    Container[U]
	op     Operation[T, U]
}

// NewMultiConsumer returns a MultiConsumer placing results into out, an unbounded queue when nil.
func NewMultiConsumer[T, U any](op Operation[T, U], out Container[U], opts ...Option) *MultiConsumer[T, U] {
	m := &MultiConsumer[T, U]{op: op, out: orQueue(out)}
	m.init(newOptions(internal.InstanceTypeName(m), opts))

	return m
}

// AddInput registers another input. Inputs added during a run are drained by the next one.
func (m *MultiConsumer[T, U]) AddInput(in Container[T]) {
	if in == nil {
		return
	}

	m.mu.Lock()
	m.inputs = append(m.inputs, in)
	m.mu.Unlock()
}

// SetInput is an alias of AddInput so a MultiConsumer can be linked like any other stage.
func (m *MultiConsumer[T, U]) SetInput(in Container[T]) { m.AddInput(in) }

// Inputs returns a copy of the registered inputs.
func (m *MultiConsumer[T, U]) Inputs() []Container[T] {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.inputs)
}

// Output returns the shared output container.
func (m *MultiConsumer[T, U]) Output() Container[U] { return m.out }

// SetOutput binds the output container. Must not be called while running.
func (m *MultiConsumer[T, U]) SetOutput(out Container[U]) { m.out = orQueue(out) }

// SetOperation binds the operation. Must not be called while running.
func (m *MultiConsumer[T, U]) SetOperation(op Operation[T, U]) { m.op = op }

// Run drains every input on the calling goroutine under the current scope.
// It returns nil without doing anything when a run is already in progress.
func (m *MultiConsumer[T, U]) Run() error {
	return m.guarded(m.scope.current(), "consume", m.consume)
}

// RunAsync drains every input on a new goroutine under a fresh self-owned scope.
func (m *MultiConsumer[T, U]) RunAsync() *Task {
	return m.async(m.scope.own, "consume", m.consume)
}

// RunAsyncContext drains every input on a new goroutine under ctx.
func (m *MultiConsumer[T, U]) RunAsyncContext(ctx context.Context) *Task {
	return m.async(func() context.Context { return m.scope.adopt(ctx) }, "consume", m.consume)
}

// Invoke drains every input in reaction to an observed event.
func (m *MultiConsumer[T, U]) Invoke(Event[T]) error { return m.Run() }

// InvokeAsync drains every input on a new goroutine under the context carried by e.
func (m *MultiConsumer[T, U]) InvokeAsync(e Event[T]) *Task { return m.RunAsyncContext(e.Ctx) }

// Dispose releases the self-owned scope.
func (m *MultiConsumer[T, U]) Dispose() error {
	m.scope.release()

	return nil
}

func (m *MultiConsumer[T, U]) consume(ctx context.Context) error {
	inputs := m.Inputs()
	if len(inputs) == 0 {
		return ErrMissingInput
	}

	if m.op == nil {
		return ErrMissingOperation
	}

	if err := m.started(ctx); err != nil {
		return err
	}

	d := drainerOf(&m.stage, m.out.TryInsert, withRecovery(LiftOperation(m.op)))
	for _, in := range inputs {
		if err := d.drain(ctx, in); err != nil {
			return err
		}
	}

	return m.finished(ctx)
}
