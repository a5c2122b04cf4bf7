package stages

// Source is a stage whose results can be consumed by another stage.
type Source[T any] interface {
	Emitter[T]
	Output() Container[T]
}

// Receiver is a stage whose input can be bound after construction.
type Receiver[T any] interface {
	SetInput(Container[T])
}

// Link makes the output of from the input of to.
func Link[T any](from Source[T], to Receiver[T]) {
	to.SetInput(from.Output())
}

// Pipe returns a Consumer of the output of from that runs every time from raises an event.
func Pipe[T, U any](from Source[T], op Operation[T, U], opts ...Option) *Consumer[T, U] {
	c := NewConsumer(from.Output(), op, opts...)
	Observe(from, c)

	return c
}

// PipeAsync is Pipe with runs started asynchronously under the context of from.
func PipeAsync[T, U any](from Source[T], op Operation[T, U], opts ...Option) *Consumer[T, U] {
	c := NewConsumer(from.Output(), op, opts...)
	ObserveAsync(from, c)

	return c
}

// Throttle returns a ThrottledConsumer of the output of from that runs every time from raises an event.
func Throttle[T, U any](from Source[T], op AsyncOperation[T, U], opts ...Option) *ThrottledConsumer[T, U] {
	c := NewThrottledConsumer(from.Output(), op, opts...)
	Observe(from, c)

	return c
}

// WriteTo returns a Writer of the output of from into path on target
// that runs every time from raises an event.
func WriteTo[T any](from Source[T], target Target, path string, opts ...Option) *Writer[T] {
	w := NewWriter(from.Output(), target, path, opts...)
	Observe(from, w)

	return w
}

// Merge returns a MultiConsumer of the outputs of every source that runs every time one of them raises an event.
func Merge[T, U any](op Operation[T, U], out Container[U], sources ...Source[T]) *MultiConsumer[T, U] {
	m := NewMultiConsumer(op, out)
	for _, s := range sources {
		m.AddInput(s.Output())
		Observe(s, m)
	}

	return m
}
