package stages

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Task is the handle of a run dispatched to a background goroutine.
type Task struct {
	done     chan struct{}
	err      error
	finished atomic.Bool
}

// dispatch runs fn on a new goroutine.
func dispatch(fn func() error) *Task {
	t := &Task{done: make(chan struct{})}

	go func() {
		t.finish(fn())
	}()

	return t
}

// completed returns a Task that already finished with err.
func completed(err error) *Task {
	t := &Task{done: make(chan struct{})}
	t.finish(err)

	return t
}

func (t *Task) finish(err error) {
	t.err = err
	t.finished.Store(true)
	close(t.done)
}

// Done is closed once the run returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the run returned and reports its error.
func (t *Task) Wait() error {
	<-t.done

	return t.err
}

// Err returns the run error, or nil while the run is still in progress.
func (t *Task) Err() error {
	if !t.finished.Load() {
		return nil
	}

	return t.err
}

// WaitAll waits for every task and returns the first error encountered.
func WaitAll(tasks ...*Task) error {
	var g errgroup.Group
	for _, t := range tasks {
		g.Go(t.Wait)
	}

	return g.Wait()
}
