package lightinject

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	internalscope "github.com/feO2x/lightinject/internal/scope"
)

// ScopeManagerProvider lazily builds the single ScopeManager a container
// uses for its whole lifetime.
type ScopeManagerProvider = *internalscope.Provider

// PerThreadScopeManager selects the goroutine-local current-scope manager,
// the Go stand-in for .NET's ThreadLocal-backed manager.
func PerThreadScopeManager() ScopeManagerProvider {
	return internalscope.NewProvider(func() internalscope.Manager {
		return internalscope.NewThreadManager()
	})
}

// PerAsyncFlowScopeManager selects the context.Context-carried current-scope
// manager, the Go stand-in for .NET's AsyncLocal-backed manager. Use
// BeginScopeContext/EndScopeContext/ScopeFromContext on the returned
// Container to participate in the context-carried flow; plain
// BeginScope/EndScope still work, falling back to goroutine-local storage.
func PerAsyncFlowScopeManager() ScopeManagerProvider {
	return internalscope.NewProvider(func() internalscope.Manager {
		return internalscope.NewContextManager()
	})
}

// Scope is a nestable lifetime boundary returned by Container.BeginScope.
// Disposing it (via End) disposes every instance it owns, in reverse
// insertion order.
type Scope struct {
	inner   *internalscope.Scope
	manager internalscope.Manager
}

// ID uniquely identifies the scope, useful for log correlation.
func (s *Scope) ID() uuid.UUID { return s.inner.ID() }

// End ends the scope. It must be the current scope for the calling flow
// and must have no live child scope; violating either is an
// *InvalidScopeError.
func (s *Scope) End() error {
	return s.manager.EndScope(s.inner)
}

// BeginScopeContext creates a child of the scope ctx carries (or a root
// scope if ctx carries none) and returns a context carrying the new scope,
// so it flows to every goroutine or continuation the caller passes ctx
// into. Requires the container to have been built with
// PerAsyncFlowScopeManager; otherwise returns an error.
func (c *Container) BeginScopeContext(ctx context.Context) (context.Context, *Scope, error) {
	cm, ok := c.manager.(*internalscope.ContextManager)
	if !ok {
		return ctx, nil, fmt.Errorf("lightinject: BeginScopeContext requires a container built with PerAsyncFlowScopeManager")
	}
	nextCtx, inner := cm.BeginScopeContext(ctx)
	return nextCtx, &Scope{inner: inner, manager: cm}, nil
}

// EndScopeContext ends the scope ctx carries, which must equal s.
func (c *Container) EndScopeContext(ctx context.Context, s *Scope) error {
	cm, ok := c.manager.(*internalscope.ContextManager)
	if !ok {
		return fmt.Errorf("lightinject: EndScopeContext requires a container built with PerAsyncFlowScopeManager")
	}
	return cm.EndScopeContext(ctx, s.inner)
}

// ScopeFromContext returns the scope explicitly carried by ctx, or nil if
// ctx carries none or the container was not built with
// PerAsyncFlowScopeManager.
func (c *Container) ScopeFromContext(ctx context.Context) *Scope {
	cm, ok := c.manager.(*internalscope.ContextManager)
	if !ok {
		return nil
	}
	inner := cm.FromContext(ctx)
	if inner == nil {
		return nil
	}
	return &Scope{inner: inner, manager: cm}
}
