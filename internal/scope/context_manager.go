package scope

import (
	"context"
	"sync"
)

// ContextManager is the "per-async-flow" scope manager. Go has no implicit
// async-local propagation (unlike .NET's AsyncLocal<T>, which rides along
// every await without the caller naming it), so the current scope must
// flow explicitly through a context.Context, carried under a private key.
//
// ContextManager additionally satisfies the plain Manager interface using a
// goroutine-keyed fallback (for code paths, such as a single synchronous
// composition root, that never hop goroutines and don't want to thread a
// context through every call) — but integration code that genuinely needs
// the scope to survive a goroutine hop or async continuation should use
// BeginScopeContext/FromContext/EndScopeContext instead.
type ContextManager struct {
	fallback *ThreadManager
}

type scopeContextKey struct{}

// NewContextManager creates a per-async-flow scope manager.
func NewContextManager() *ContextManager {
	return &ContextManager{fallback: NewThreadManager()}
}

func (m *ContextManager) Current() *Scope { return m.fallback.Current() }

func (m *ContextManager) BeginScope() *Scope { return m.fallback.BeginScope() }

func (m *ContextManager) EndScope(s *Scope) error { return m.fallback.EndScope(s) }

// FromContext returns the scope explicitly carried by ctx, or nil.
func (m *ContextManager) FromContext(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeContextKey{}).(*Scope)
	return s
}

// BeginScopeContext creates a child of the scope carried by ctx (or a root
// scope if ctx carries none) and returns a new context carrying it, so the
// scope flows to every goroutine/continuation the caller passes ctx into.
func (m *ContextManager) BeginScopeContext(ctx context.Context) (context.Context, *Scope) {
	parent := m.FromContext(ctx)
	child := beginScope(parent, m)
	return context.WithValue(ctx, scopeContextKey{}, child), child
}

// EndScopeContext ends the scope carried by ctx. It must equal s.
func (m *ContextManager) EndScopeContext(ctx context.Context, s *Scope) error {
	cur := m.FromContext(ctx)
	_, err := endScope(s, cur)
	return err
}

var _ Manager = (*ContextManager)(nil)
var _ Manager = (*ThreadManager)(nil)

// Provider lazily constructs the single ScopeManager a container owns,
// guarded by sync.Once so concurrent first-use races harmlessly.
type Provider struct {
	once    sync.Once
	factory func() Manager
	manager Manager
}

// NewProvider wraps factory as a lazy, single-instance ScopeManager source.
func NewProvider(factory func() Manager) *Provider {
	return &Provider{factory: factory}
}

// Get returns the container's single ScopeManager, constructing it on first use.
func (p *Provider) Get() Manager {
	p.once.Do(func() {
		p.manager = p.factory()
	})
	return p.manager
}
