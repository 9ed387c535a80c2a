// Package lifetime implements the four lifetime strategies a
// ServiceRegistration may carry: Transient, PerRequest, PerScope and
// PerContainer. Each strategy has a single contract —
// GetInstance(create, scope) — and the compiler calls every strategy,
// PerContainer included, through that same contract.
package lifetime

// ScopeHandle is the subset of scope.Scope the lifetime strategies need:
// owning disposables and caching per-scope instances. It is declared here
// (rather than imported from package scope) to avoid an import cycle —
// package scope depends on package lifetime, not the other way around.
type ScopeHandle interface {
	// Own registers a disposable instance to be disposed when the scope ends.
	Own(disposable Disposable)

	// CacheGet returns a previously cached instance for lifetimeKey, if any.
	CacheGet(lifetimeKey any) (any, bool)

	// CacheSet stores an instance under lifetimeKey for the lifetime of the scope.
	CacheSet(lifetimeKey any, instance any)
}

// Disposable is implemented by instances that own resources requiring
// explicit cleanup.
type Disposable interface {
	Dispose() error
}

// Strategy is the common lifetime contract.
type Strategy interface {
	// GetInstance returns the instance for this call, invoking create()
	// according to the strategy's caching policy.
	GetInstance(create func() (any, error), scope ScopeHandle) (any, error)

	// Name identifies the strategy for diagnostics.
	Name() string
}

// IsTransientOrNil reports whether s denotes the transient (no caching)
// policy, treating a nil Strategy as transient — the default reuse policy
// when none is specified.
func IsTransientOrNil(s Strategy) bool {
	if s == nil {
		return true
	}
	_, ok := s.(*transient)
	return ok
}
