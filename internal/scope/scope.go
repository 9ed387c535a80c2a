// Package scope implements the nestable lifetime boundary (Scope) and the
// two concrete ScopeManager flavors: a per-goroutine manager (the Go
// stand-in for "per-thread") and a per-async-flow manager that rides
// along on context.Context.
package scope

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/feO2x/lightinject/internal/lifetime"
)

// Scope is a nestable lifetime boundary: it owns the disposables created
// while it was current and caches PerScope instances keyed by their
// lifetime strategy value.
type Scope struct {
	id      uuid.UUID
	manager Manager
	parent  *Scope

	mu          sync.Mutex
	child       *Scope
	disposed    bool
	disposables []lifetime.Disposable
	cache       map[any]any
}

// newScope is called only by a Manager.
func newScope(manager Manager, parent *Scope) *Scope {
	return &Scope{
		id:      uuid.New(),
		manager: manager,
		parent:  parent,
		cache:   make(map[any]any),
	}
}

// ID uniquely identifies the scope for the lifetime of the process, useful
// for diagnostics and log correlation.
func (s *Scope) ID() uuid.UUID { return s.id }

// Parent returns the enclosing scope, or nil for the root scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Own registers a disposable to be disposed (in reverse insertion order)
// when this scope ends. Own is a silent no-op on an already-disposed scope.
func (s *Scope) Own(d lifetime.Disposable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposables = append(s.disposables, d)
}

// CacheGet implements lifetime.ScopeHandle.
func (s *Scope) CacheGet(key any) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache[key]
	return v, ok
}

// CacheSet implements lifetime.ScopeHandle.
func (s *Scope) CacheSet(key any, instance any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.cache[key] = instance
}

// hasLiveChild reports whether this scope currently owns an un-ended child.
func (s *Scope) hasLiveChild() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.child != nil
}

// end disposes every owned disposable in reverse insertion order. It is
// idempotent: a second call is a no-op. Callers are responsible for the
// current-scope bookkeeping (clearing the parent's child pointer, moving
// the manager's current pointer) — end only handles disposal.
func (s *Scope) end() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.disposed = true
	owned := s.disposables
	s.disposables = nil
	s.mu.Unlock()

	var firstErr error
	for i := len(owned) - 1; i >= 0; i-- {
		if err := owned[i].Dispose(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// InvalidScopeError reports a violation of a scope-tree invariant:
// ending a scope out of turn, or one with a live child.
type InvalidScopeError struct {
	Reason string
}

func (e *InvalidScopeError) Error() string {
	return fmt.Sprintf("invalid scope operation: %s", e.Reason)
}
