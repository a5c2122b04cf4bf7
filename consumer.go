package stages

import (
	"context"

	"github.com/andriiyaremenko/stages/internal"
)

var (
	_ Stage          = new(Consumer[any, any])
	_ Source[any]    = new(Consumer[any, any])
	_ Invokable[any] = new(Consumer[any, any])
	_ Receiver[any]  = new(Consumer[any, any])
)

// Consumer applies an Operation to every item of its input and places the results into its output.
type Consumer[T, U any] struct {
	stage[U]

	in  Container[T]
	out Container[U]
	op  Operation[T, U]
}

// NewConsumer returns a Consumer reading from in. The output defaults to an unbounded queue.
// A nil in or op is reported by Run, not here, so the Consumer can be wired later.
func NewConsumer[T, U any](in Container[T], op Operation[T, U], opts ...Option) *Consumer[T, U] {
	c := &Consumer[T, U]{in: in, op: op, out: orQueue[U](nil)}
	c.init(newOptions(internal.InstanceTypeName(c), opts))

	return c
}

// Input returns the bound input container, nil if none.
func (c *Consumer[T, U]) Input() Container[T] { return c.in }

// Output returns the container the Consumer places results into.
func (c *Consumer[T, U]) Output() Container[U] { return c.out }

// SetInput binds the input container. Must not be called while running.
func (c *Consumer[T, U]) SetInput(in Container[T]) { c.in = in }

// SetOutput binds the output container. Must not be called while running.
func (c *Consumer[T, U]) SetOutput(out Container[U]) { c.out = orQueue(out) }

// SetOperation binds the operation. Must not be called while running.
func (c *Consumer[T, U]) SetOperation(op Operation[T, U]) { c.op = op }

// Run drains the input on the calling goroutine under the current scope.
// It returns nil without doing anything when a run is already in progress.
func (c *Consumer[T, U]) Run() error {
	return c.guarded(c.scope.current(), "consume", c.consume)
}

// RunAsync drains the input on a new goroutine under a fresh self-owned scope.
func (c *Consumer[T, U]) RunAsync() *Task {
	return c.async(c.scope.own, "consume", c.consume)
}

// RunAsyncContext drains the input on a new goroutine under ctx.
func (c *Consumer[T, U]) RunAsyncContext(ctx context.Context) *Task {
	return c.async(func() context.Context { return c.scope.adopt(ctx) }, "consume", c.consume)
}

// Invoke drains the input in reaction to an observed event.
func (c *Consumer[T, U]) Invoke(Event[T]) error { return c.Run() }

// InvokeAsync drains the input on a new goroutine under the context carried by e.
func (c *Consumer[T, U]) InvokeAsync(e Event[T]) *Task { return c.RunAsyncContext(e.Ctx) }

// Dispose releases the self-owned scope.
func (c *Consumer[T, U]) Dispose() error {
	c.scope.release()

	return nil
}

func (c *Consumer[T, U]) consume(ctx context.Context) error {
	if c.in == nil {
		return ErrMissingInput
	}

	if c.op == nil {
		return ErrMissingOperation
	}

	if err := c.started(ctx); err != nil {
		return err
	}

	d := drainerOf(&c.stage, c.out.TryInsert, withRecovery(LiftOperation(c.op)))
	if err := d.drain(ctx, c.in); err != nil {
		return err
	}

	return c.finished(ctx)
}
