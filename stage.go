package stages

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/andriiyaremenko/stages/internal"
	"github.com/andriiyaremenko/stages/logger"
	"github.com/google/uuid"
)

// Stage is the part of a pipeline unit every variant shares.
type Stage interface {
	ID() uuid.UUID
	Name() string
	// Run drains the stage on the calling goroutine.
	Run() error
	// RunAsync drains the stage on a new goroutine under a fresh self-owned scope.
	RunAsync() *Task
	// RunAsyncContext drains the stage on a new goroutine under ctx; Cancel then fails with ErrManagedScope.
	RunAsyncContext(ctx context.Context) *Task
	Running() bool
	Cancel() error
	Dispose() error
}

// stage is embedded by every variant. U is the type of the items it emits.
type stage[U any] struct {
	id      uuid.UUID
	name    string
	log     *logger.Logger
	metrics *stageMetrics
	scope   *scope
	running atomic.Bool
	events  Events[U]
	buf     pending[U]
}

func (s *stage[U]) init(o options) {
	s.id = uuid.New()
	s.name = o.name
	s.log = o.log.WithComponent(o.name).WithFields(logger.Fields(logger.FieldStageID, s.id.String()))
	s.metrics = newStageMetrics(o.meter, o.name)
	s.scope = newScope()
}

// ID returns the unique identity of the stage.
func (s *stage[U]) ID() uuid.UUID { return s.id }

// Name returns the stage name used in logs, metrics and errors.
func (s *stage[U]) Name() string { return s.name }

// Running reports whether a run is in progress.
func (s *stage[U]) Running() bool { return s.running.Load() }

// Events returns the lifecycle events of the stage.
func (s *stage[U]) Events() *Events[U] { return &s.events }

// Ownership reports who owns the scope of the current or last run.
func (s *stage[U]) Ownership() Ownership { return s.scope.Ownership() }

// Pending returns the number of results waiting in the buffer for the output to accept them.
// Only meaningful while the stage is not running.
func (s *stage[U]) Pending() int { return s.buf.Len() }

// Cancel cancels a self-owned scope.
// It returns ErrManagedScope when the scope was supplied through RunAsyncContext or InvokeAsync.
func (s *stage[U]) Cancel() error {
	if err := s.scope.Cancel(); err != nil {
		return newStageError(s.name, "cancel", err)
	}

	return nil
}

// guarded runs body on the calling goroutine unless a run is already in progress,
// in which case it returns nil immediately without raising events.
func (s *stage[U]) guarded(ctx context.Context, op string, body func(context.Context) error) error {
	if !s.claim(op) {
		return nil
	}
	defer s.running.Store(false)

	return s.run(ctx, op, body)
}

// async claims the stage on the calling goroutine and runs body on a new one.
// enter installs the scope of the run and is only called once the claim succeeded:
// a skipped call leaves the context and ownership of the active run untouched.
func (s *stage[U]) async(enter func() context.Context, op string, body func(context.Context) error) *Task {
	if !s.claim(op) {
		return completed(nil)
	}

	ctx := enter()
	if ctx.Err() != nil {
		s.running.Store(false)

		return completed(newStageError(s.name, "dispatch", cancelled(ctx)))
	}

	return dispatch(func() error {
		defer s.running.Store(false)

		return s.run(ctx, op, body)
	})
}

func (s *stage[U]) claim(op string) bool {
	if s.running.CompareAndSwap(false, true) {
		return true
	}

	s.log.Debug("run skipped: already running", logger.Fields(logger.FieldOperation, op))

	return false
}

func (s *stage[U]) run(ctx context.Context, op string, body func(context.Context) error) error {
	start := time.Now()
	err := body(ctx)

	switch {
	case err == nil:
		s.metrics.run(ctx, "finished")
		s.log.Debug("run finished", logger.MergeFields(
			logger.DurationFields(op, time.Since(start)),
			logger.Fields(logger.FieldPending, s.buf.Len()),
		))

		return nil
	case errors.Is(err, ErrCancelled):
		s.metrics.run(ctx, "cancelled")
		s.metrics.cancelled(ctx)
		s.log.Debug("run cancelled", logger.Fields(logger.FieldOperation, op, logger.FieldPending, s.buf.Len()))
	default:
		s.metrics.run(ctx, "failed")
		s.log.WithError(err).Warn("run failed", logger.Fields(logger.FieldOperation, op, logger.FieldPending, s.buf.Len()))
	}

	return newStageError(s.name, op, err)
}

func (s *stage[U]) emit(ctx context.Context, kind EventKind, item U) error {
	return s.events.emit(Event[U]{Kind: kind, Ctx: ctx, Item: item, Source: s.id})
}

func (s *stage[U]) started(ctx context.Context) error {
	return s.emit(ctx, Started, internal.ZeroValue[U]())
}

func (s *stage[U]) finished(ctx context.Context) error {
	return s.emit(ctx, Finished, internal.ZeroValue[U]())
}

// placed records an item placed on its first attempt and raises ItemProcessed.
func (s *stage[U]) placed(ctx context.Context, item U) error {
	s.metrics.itemProcessed(ctx)

	return s.emit(ctx, ItemProcessed, item)
}

func (s *stage[U]) deferred(ctx context.Context, _ U) {
	s.metrics.itemBuffered(ctx)
}

// drainerOf binds a drainer to the buffer, metrics and events of s.
func drainerOf[T, U any](s *stage[U], put func(U) bool, apply func(context.Context, T) (U, error)) drainer[T, U] {
	return drainer[T, U]{
		put:      put,
		buf:      &s.buf,
		apply:    apply,
		placed:   s.placed,
		deferred: s.deferred,
	}
}
