package stages

import (
	"context"
	"sync"
)

// Ownership tells who may cancel a stage's current run.
type Ownership int

const (
	// The stage created its own context and may cancel it.
	SelfOwned Ownership = iota
	// The context was handed in by the caller; only the caller may cancel it.
	ExternallySupplied
)

func (o Ownership) String() string {
	if o == ExternallySupplied {
		return "externally_supplied"
	}

	return "self_owned"
}

// scope is the cancellation scope of one stage.
// Ownership is set once per asynchronous run, by own or adopt, and never inferred from the context value.
// A call skipped because a run is in progress does not touch the scope.
type scope struct {
	mu        sync.Mutex
	ownership Ownership
	ctx       context.Context
	cancel    context.CancelFunc
}

func newScope() *scope {
	s := new(scope)
	s.own()

	return s
}

// own replaces the scope with a fresh self-owned context and returns it.
func (s *scope) own() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	defer s.mu.Unlock()

	// a replaced self-owned context is left running: async observers of the previous run may still use it
	s.ownership = SelfOwned
	s.ctx, s.cancel = ctx, cancel

	return ctx
}

// adopt makes ctx the current context of the scope. The stage may not cancel it.
// A nil ctx is treated as no context supplied.
func (s *scope) adopt(ctx context.Context) context.Context {
	if ctx == nil {
		return s.own()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ownership = ExternallySupplied
	s.ctx, s.cancel = ctx, nil

	return ctx
}

func (s *scope) current() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ctx
}

func (s *scope) Ownership() Ownership {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ownership
}

func (s *scope) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ownership == ExternallySupplied {
		return ErrManagedScope
	}

	s.cancel()

	return nil
}

// release cancels a self-owned context. An adopted context is left alone.
func (s *scope) release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ownership == SelfOwned {
		s.cancel()
	}
}
