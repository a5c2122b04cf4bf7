package stages

import (
	"context"
	"time"

	"github.com/andriiyaremenko/stages/internal"
	"golang.org/x/time/rate"
)

var (
	_ Stage          = new(ThrottledConsumer[any, any])
	_ Source[any]    = new(ThrottledConsumer[any, any])
	_ Invokable[any] = new(ThrottledConsumer[any, any])
	_ Receiver[any]  = new(ThrottledConsumer[any, any])
)

// DefaultCooldown is used by a ThrottledConsumer created without WithCooldown or WithStageConfig.
const DefaultCooldown = time.Millisecond

// ThrottledConsumer is a Consumer whose operation may block or fail
// and is never invoked twice within the cooldown interval.
//
// The interval is measured on the monotonic clock from one invocation start to the next,
// across runs of the same ThrottledConsumer.
// A deadline that falls inside a cooldown ends the run with ErrCancelled once it passes.
type ThrottledConsumer[T, U any] struct {
	stage[U]

	in       Container[T]
	out      Container[U]
	op       AsyncOperation[T, U]
	limiter  *rate.Limiter
	cooldown time.Duration
}

// NewThrottledConsumer returns a ThrottledConsumer reading from in. The output defaults to an unbounded queue.
func NewThrottledConsumer[T, U any](
	in Container[T],
	op AsyncOperation[T, U],
	opts ...Option,
) *ThrottledConsumer[T, U] {
	c := &ThrottledConsumer[T, U]{in: in, op: op, out: orQueue[U](nil)}

	o := newOptions(internal.InstanceTypeName(c), opts)
	c.init(o)

	c.cooldown = DefaultCooldown
	if o.cooldownSet {
		c.cooldown = o.cooldown
	}
	c.limiter = rate.NewLimiter(rate.Every(c.cooldown), 1)

	return c
}

// Cooldown returns the minimum interval between operation invocations.
func (c *ThrottledConsumer[T, U]) Cooldown() time.Duration { return c.cooldown }

// SetCooldown changes the minimum interval between operation invocations. Must not be called while running.
func (c *ThrottledConsumer[T, U]) SetCooldown(d time.Duration) {
	c.cooldown = max(d, 0)
	c.limiter.SetLimit(rate.Every(c.cooldown))
}

// Input returns the bound input container, nil if none.
func (c *ThrottledConsumer[T, U]) Input() Container[T] { return c.in }

// Output returns the container the ThrottledConsumer places results into.
func (c *ThrottledConsumer[T, U]) Output() Container[U] { return c.out }

// SetInput binds the input container. Must not be called while running.
func (c *ThrottledConsumer[T, U]) SetInput(in Container[T]) { c.in = in }

// SetOutput binds the output container. Must not be called while running.
func (c *ThrottledConsumer[T, U]) SetOutput(out Container[U]) { c.out = orQueue(out) }

// SetOperation binds the operation. Must not be called while running.
func (c *ThrottledConsumer[T, U]) SetOperation(op AsyncOperation[T, U]) { c.op = op }

// Run drains the input on the calling goroutine under the current scope.
// It returns nil without doing anything when a run is already in progress.
func (c *ThrottledConsumer[T, U]) Run() error {
	return c.guarded(c.scope.current(), "consume", c.consume)
}

// RunAsync drains the input on a new goroutine under a fresh self-owned scope.
func (c *ThrottledConsumer[T, U]) RunAsync() *Task {
	return c.async(c.scope.own, "consume", c.consume)
}

// RunAsyncContext drains the input on a new goroutine under ctx.
func (c *ThrottledConsumer[T, U]) RunAsyncContext(ctx context.Context) *Task {
	return c.async(func() context.Context { return c.scope.adopt(ctx) }, "consume", c.consume)
}

// Invoke drains the input in reaction to an observed event.
func (c *ThrottledConsumer[T, U]) Invoke(Event[T]) error { return c.Run() }

// InvokeAsync drains the input on a new goroutine under the context carried by e.
func (c *ThrottledConsumer[T, U]) InvokeAsync(e Event[T]) *Task { return c.RunAsyncContext(e.Ctx) }

// Dispose releases the self-owned scope.
func (c *ThrottledConsumer[T, U]) Dispose() error {
	c.scope.release()

	return nil
}

func (c *ThrottledConsumer[T, U]) consume(ctx context.Context) error {
	if c.in == nil {
		return ErrMissingInput
	}

	if c.op == nil {
		return ErrMissingOperation
	}

	if err := c.started(ctx); err != nil {
		return err
	}

	d := drainerOf(&c.stage, c.out.TryInsert, withRecovery(c.op))
	d.gate = c.cooldownGate
	if err := d.drain(ctx, c.in); err != nil {
		return err
	}

	return c.finished(ctx)
}

// cooldownGate blocks until the cooldown since the previous invocation has passed.
// Waiting happens before an item is taken so cancellation never loses one.
func (c *ThrottledConsumer[T, U]) cooldownGate(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if _, ok := ctx.Deadline(); !ok && ctx.Err() == nil {
			return err
		}

		// Wait fails early when the deadline of ctx falls before the cooldown ends;
		// no item can be taken before then, so the run ends with the deadline.
		<-ctx.Done()

		return cancelled(ctx)
	}

	return nil
}
