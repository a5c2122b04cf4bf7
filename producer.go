package stages

import (
	"context"
	"io"
	"iter"

	"github.com/andriiyaremenko/stages/internal"
)

var (
	_ Stage          = new(Producer[any])
	_ Source[any]    = new(Producer[any])
	_ Invokable[any] = new(Producer[any])
)

// Producer iterates a sequence and places its elements into an output container.
//
// An element equal to the zero value of T ends the sequence and is not produced.
type Producer[T any] struct {
	stage[T]

	seq      iter.Seq[T]
	out      Container[T]
	resource io.Closer
}

// NewProducer returns a Producer of seq into out. A nil out is replaced by an unbounded queue.
// Use WithResource to hand over a resource backing seq, such as an open file.
// When that resource has an Err() error method, a non-nil Err after seq ends fails the run
// and Finished is not raised.
func NewProducer[T any](seq iter.Seq[T], out Container[T], opts ...Option) *Producer[T] {
	p := &Producer[T]{seq: seq, out: orQueue(out)}

	o := newOptions(internal.InstanceTypeName(p), opts)
	p.init(o)
	p.resource = o.resource

	return p
}

// NewSliceProducer returns a Producer of items.
func NewSliceProducer[T any](items []T, out Container[T], opts ...Option) *Producer[T] {
	return NewProducer(func(yield func(T) bool) {
		for _, v := range items {
			if !yield(v) {
				return
			}
		}
	}, out, opts...)
}

// Output returns the container the Producer places items into.
func (p *Producer[T]) Output() Container[T] { return p.out }

// SetOutput binds the output container. Must not be called while running.
func (p *Producer[T]) SetOutput(c Container[T]) { p.out = orQueue(c) }

// Run produces on the calling goroutine under the current scope.
// It returns nil without doing anything when a run is already in progress.
func (p *Producer[T]) Run() error {
	return p.guarded(p.scope.current(), "produce", p.produce)
}

// RunAsync produces on a new goroutine under a fresh self-owned scope.
func (p *Producer[T]) RunAsync() *Task {
	return p.async(p.scope.own, "produce", p.produce)
}

// RunAsyncContext produces on a new goroutine under ctx.
func (p *Producer[T]) RunAsyncContext(ctx context.Context) *Task {
	return p.async(func() context.Context { return p.scope.adopt(ctx) }, "produce", p.produce)
}

// Invoke runs the Producer synchronously in reaction to an observed event.
func (p *Producer[T]) Invoke(Event[T]) error { return p.Run() }

// InvokeAsync runs the Producer asynchronously under the context carried by e.
func (p *Producer[T]) InvokeAsync(e Event[T]) *Task { return p.RunAsyncContext(e.Ctx) }

// Dispose releases the self-owned scope and the resource registered with WithResource.
func (p *Producer[T]) Dispose() error {
	p.scope.release()

	if p.resource != nil {
		return p.resource.Close()
	}

	return nil
}

func (p *Producer[T]) produce(ctx context.Context) error {
	if p.seq == nil {
		return ErrMissingInput
	}

	if err := p.started(ctx); err != nil {
		return err
	}

	d := drainerOf(&p.stage, p.out.TryInsert, LiftOperation(Identity[T]()))

	var err error
	for item := range p.seq {
		if ctx.Err() != nil {
			err = cancelled(ctx)
			break
		}

		p.buf.flush(d.put)

		if internal.IsZero(item) {
			break
		}

		if err = d.offer(ctx, item); err != nil {
			break
		}
	}

	if err == nil {
		err = p.sequenceErr()
	}

	if err != nil {
		return err
	}

	p.buf.flushAll(d.put)

	return p.finished(ctx)
}

// sequenceErr reports why the sequence ended early when the registered resource records it,
// as lines.Reader does for files it could not read.
func (p *Producer[T]) sequenceErr() error {
	if f, ok := p.resource.(interface{ Err() error }); ok {
		return f.Err()
	}

	return nil
}
