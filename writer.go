package stages

import (
	"context"
	"errors"
	"sync"

	"github.com/andriiyaremenko/stages/internal"
)

var (
	_ Stage          = new(Writer[any])
	_ Invokable[any] = new(Writer[any])
	_ Receiver[any]  = new(Writer[any])
)

var errNoTarget = errors.New("no target bound")

// OpenMode tells a Target how to treat existing content.
type OpenMode int

const (
	// Keep existing content and write after it.
	Append OpenMode = iota
	// Drop existing content before writing.
	Truncate
)

func (m OpenMode) String() string {
	if m == Truncate {
		return "truncate"
	}

	return "append"
}

// Format tells a Writer how to write each item.
type Format int

const (
	// Terminate every item with a line break.
	Lines Format = iota
	// Write items back to back.
	Raw
)

func (f Format) String() string {
	if f == Raw {
		return "raw"
	}

	return "lines"
}

// Target opens handles to an external sink such as a file.
// Open must return an error matching ErrInvalidTarget when path cannot be opened.
type Target interface {
	Open(path string, mode OpenMode) (TargetHandle, error)
}

// TargetHandle accepts writes for one Writer run.
// TryWrite and TryWriteLine return false when the sink is temporarily unavailable;
// the item is then kept and retried.
// Close must be safe to call more than once.
type TargetHandle interface {
	TryWrite(v any) bool
	TryWriteLine(v any) bool
	Close() error
}

// Writer drains its input into a Target.
// The target is opened at the start of every run and closed at its end.
type Writer[T any] struct {
	stage[T]

	in     Container[T]
	target Target
	path   string
	mode   OpenMode
	format Format

	mu     sync.Mutex
	handle TargetHandle
}

// NewWriter returns a Writer of in into path on target.
// Nothing is opened until the first run.
func NewWriter[T any](in Container[T], target Target, path string, opts ...Option) *Writer[T] {
	w := &Writer[T]{in: in, target: target, path: path}

	o := newOptions(internal.InstanceTypeName(w), opts)
	w.init(o)
	w.mode, w.format = o.mode, o.format

	return w
}

// Input returns the bound input container, nil if none.
func (w *Writer[T]) Input() Container[T] { return w.in }

// SetInput binds the input container. Must not be called while running.
func (w *Writer[T]) SetInput(in Container[T]) { w.in = in }

// Path returns the target path.
func (w *Writer[T]) Path() string { return w.path }

// Run writes the input with the configured mode and format on the calling goroutine.
func (w *Writer[T]) Run() error {
	return w.guarded(w.scope.current(), "write", w.write(w.mode, w.format))
}

// Write writes the input without line terminators, opening the target with mode.
func (w *Writer[T]) Write(mode OpenMode) error {
	return w.guarded(w.scope.current(), "write", w.write(mode, Raw))
}

// WriteLines writes every item of the input on its own line, opening the target with mode.
func (w *Writer[T]) WriteLines(mode OpenMode) error {
	return w.guarded(w.scope.current(), "write", w.write(mode, Lines))
}

// RunAsync writes with the configured mode and format on a new goroutine under a fresh self-owned scope.
func (w *Writer[T]) RunAsync() *Task {
	return w.async(w.scope.own, "write", w.write(w.mode, w.format))
}

// RunAsyncContext writes with the configured mode and format on a new goroutine under ctx.
func (w *Writer[T]) RunAsyncContext(ctx context.Context) *Task {
	return w.WriteAsync(ctx, w.mode, w.format)
}

// WriteAsync writes on a new goroutine under ctx with the given mode and format.
func (w *Writer[T]) WriteAsync(ctx context.Context, mode OpenMode, format Format) *Task {
	return w.async(func() context.Context { return w.scope.adopt(ctx) }, "write", w.write(mode, format))
}

// Invoke writes in reaction to an observed event.
func (w *Writer[T]) Invoke(Event[T]) error { return w.Run() }

// InvokeAsync writes on a new goroutine under the context carried by e.
func (w *Writer[T]) InvokeAsync(e Event[T]) *Task { return w.RunAsyncContext(e.Ctx) }

// Dispose releases the self-owned scope and closes a handle left open by an interrupted run.
func (w *Writer[T]) Dispose() error {
	w.scope.release()

	return w.closeHandle()
}

// write returns the body of a run that opens the target with mode and writes in format.
func (w *Writer[T]) write(mode OpenMode, format Format) func(context.Context) error {
	return func(ctx context.Context) error {
		if w.in == nil {
			return ErrMissingInput
		}

		h, err := w.open(mode)
		if err != nil {
			return err
		}

		if err := w.started(ctx); err != nil {
			return errors.Join(err, w.closeHandle())
		}

		put := func(v T) bool { return h.TryWriteLine(v) }
		if format == Raw {
			put = func(v T) bool { return h.TryWrite(v) }
		}

		d := drainerOf(&w.stage, put, LiftOperation(Identity[T]()))
		if err := d.drain(ctx, w.in); err != nil {
			return errors.Join(err, w.closeHandle())
		}

		if err := w.closeHandle(); err != nil {
			return err
		}

		return w.finished(ctx)
	}
}

func (w *Writer[T]) open(mode OpenMode) (TargetHandle, error) {
	if w.target == nil {
		return nil, &TargetError{Path: w.path, Err: errNoTarget}
	}

	h, err := w.target.Open(w.path, mode)
	if err != nil {
		if !errors.Is(err, ErrInvalidTarget) {
			err = &TargetError{Path: w.path, Err: err}
		}

		return nil, err
	}

	w.mu.Lock()
	w.handle = h
	w.mu.Unlock()

	w.log.Debug("target opened", map[string]any{"path": w.path, "mode": mode.String()})

	return h, nil
}

func (w *Writer[T]) closeHandle() error {
	w.mu.Lock()
	h := w.handle
	w.handle = nil
	w.mu.Unlock()

	if h == nil {
		return nil
	}

	return h.Close()
}
