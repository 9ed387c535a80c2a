// Package lightinject is an inversion-of-control container: a runtime
// registry that maps abstract service identities to executable recipes for
// producing instances, and a resolver that composes those recipes into a
// single compiled delegate per requested service.
//
// The container supports constructor and property injection, named
// registrations, decorators, fallback rules, overrides, initializers, open
// generics, and four lifetimes (Transient, PerRequest, PerScope,
// PerContainer), with pluggable per-thread or per-async-flow scope
// propagation.
package lightinject
