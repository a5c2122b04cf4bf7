package stages

import (
	"github.com/andriiyaremenko/stages/config"
	"github.com/andriiyaremenko/stages/container"
)

// Container is a multi-producer/multi-consumer collection shared between stages.
// TryInsert and TryRemove may refuse transiently; implementations must be safe for concurrent use.
type Container[T any] interface {
	TryInsert(T) bool
	TryRemove() (T, bool)
	Count() int
}

var (
	_ Container[any] = new(container.Queue[any])
	_ Container[any] = new(container.Bounded[any])
	_ Container[any] = new(container.Chan[any])
)

// NewContainer returns a bounded queue when cfg sets a capacity and an unbounded one otherwise.
func NewContainer[T any](cfg config.Stage) Container[T] {
	if cfg.Capacity > 0 {
		return container.NewBounded[T](cfg.Capacity)
	}

	return container.NewQueue[T]()
}

func orQueue[T any](c Container[T]) Container[T] {
	if c == nil {
		return container.NewQueue[T]()
	}

	return c
}
