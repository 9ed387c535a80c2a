package lightinject

import "github.com/feO2x/lightinject/internal/lifetime"

// Lifetime is the common contract a registration's reuse policy must
// satisfy: GetInstance(create, scope).
type Lifetime = lifetime.Strategy

// Transient creates a new instance on every resolve; this is also the
// default when no lifetime is specified.
func Transient() Lifetime { return lifetime.Transient() }

// PerRequest creates a new instance on every resolve and, if the instance
// is disposable, transfers ownership to the current scope.
func PerRequest() Lifetime { return lifetime.PerRequest() }

// PerScope caches one instance per (registration, scope); the scope disposes
// it, if disposable, when the scope ends. Each call returns a distinct
// lifetime value — register a fresh one per registration, never share one
// PerScope() value across two registrations.
func PerScope() Lifetime { return lifetime.PerScope() }

// PerContainer caches a single instance for the life of the container
// (a singleton); it is disposed, if disposable, when the container is
// disposed. Each call returns a distinct lifetime value.
func PerContainer() Lifetime { return lifetime.PerContainer() }
