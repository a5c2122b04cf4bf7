package stages

import (
	"context"
	"errors"
	"fmt"

	"github.com/andriiyaremenko/stages/internal"
)

var (
	// Returned by a drain entry point when no input container is bound.
	ErrMissingInput = errors.New("no input container bound")
	// Returned by a drain entry point when no operation is bound.
	ErrMissingOperation = errors.New("no operation bound")
	// Returned by Cancel when the cancellation scope was supplied by the caller.
	ErrManagedScope = errors.New(
		"cancellation scope is managed by the caller: cancel the context that was handed to the stage")
	// Returned when a drain is aborted through cancellation.
	ErrCancelled = errors.New("stage cancelled")
	// Matched by *TargetError when a sink target cannot be opened.
	ErrInvalidTarget = errors.New("invalid target")
)

var (
	_ error = new(StageError)
	_ error = new(OperationError[any])
	_ error = new(TargetError)
)

// StageError reports which stage and entry point failed.
type StageError struct {
	Stage string
	Op    string
	Err   error
}

func newStageError(stage, op string, err error) *StageError {
	return &StageError{Stage: stage, Op: op, Err: err}
}

// Implementation of error.
func (err *StageError) Error() string {
	return fmt.Sprintf("%s %s failed: %s", err.Stage, err.Op, err.Err)
}

// Returns underlying error.
func (err *StageError) Unwrap() error {
	return err.Err
}

// cancelled builds the error returned when ctx stops a drain.
// It matches both ErrCancelled and the context's cause.
func cancelled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
}

// OperationError is returned when an operation fails or panics while processing Payload.
type OperationError[T any] struct {
	Payload T
	cause   error
}

// Returns new *OperationError[T] caused by err while processing payload.
func NewOperationError[T any](err error, payload T) *OperationError[T] {
	return &OperationError[T]{Payload: payload, cause: err}
}

// Implementation of error.
func (err *OperationError[T]) Error() string {
	return fmt.Sprintf("error processing %s: %s", internal.TypeName[T](), err.cause)
}

// Returns underlying error.
func (err *OperationError[T]) Unwrap() error {
	return err.cause
}

// TargetError is returned when a sink target cannot be opened.
// errors.Is(err, ErrInvalidTarget) holds for every TargetError.
type TargetError struct {
	Path string
	Err  error
}

// Implementation of error.
func (err *TargetError) Error() string {
	return fmt.Sprintf("invalid target %q: %s", err.Path, err.Err)
}

// Returns underlying error.
func (err *TargetError) Unwrap() error {
	return err.Err
}

func (err *TargetError) Is(target error) bool {
	return target == ErrInvalidTarget
}
