package stages

import (
	"context"
	"fmt"
)

// Operation transforms a single input item into a single output item.
type Operation[T, U any] func(T) U

// AsyncOperation transforms a single input item and may block or fail,
// typically because it calls an external dependency.
type AsyncOperation[T, U any] func(context.Context, T) (U, error)

// Identity returns an Operation that passes items through unchanged.
func Identity[T any]() Operation[T, T] {
	return func(v T) T { return v }
}

// Compose combines two Operations into one with input type T and output type N.
func Compose[T, U, N any](op1 Operation[T, U], op2 Operation[U, N]) Operation[T, N] {
	return func(v T) N {
		return op2(op1(v))
	}
}

// LiftOperation turns a synchronous Operation into an AsyncOperation that never fails.
func LiftOperation[T, U any](op Operation[T, U]) AsyncOperation[T, U] {
	return func(_ context.Context, v T) (U, error) {
		return op(v), nil
	}
}

// withRecovery turns a panic raised by op into an *OperationError.
func withRecovery[T, U any](op AsyncOperation[T, U]) AsyncOperation[T, U] {
	return func(ctx context.Context, payload T) (result U, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = NewOperationError(fmt.Errorf("recovered from panic: %v", r), payload)
			}
		}()

		result, err = op(ctx, payload)
		if err != nil {
			err = NewOperationError(err, payload)
		}

		return result, err
	}
}
