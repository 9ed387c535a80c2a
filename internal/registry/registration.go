// Package registry stores the recipes the rest of the container composes:
// ServiceRegistrations keyed by (identity, name), plus the decorator,
// fallback, override, and initializer lists layered on top of them.
package registry

import (
	"reflect"

	"github.com/feO2x/lightinject/internal/identity"
	"github.com/feO2x/lightinject/internal/lifetime"
)

// ServiceFactory is the minimal resolve capability a registry-owned closure
// (a registration factory, a fallback factory, an override rewrite, or an
// initializer action) is handed. The compiler is the only implementation;
// registry never imports compiler, which would create a cycle.
type ServiceFactory interface {
	Resolve(t reflect.Type, name identity.Name) (any, error)
}

// Registration is the recipe for producing one instance at a given
// (identity, name): which implementation to build, how to build it, and
// under what lifetime.
type Registration struct {
	ServiceIdentity      reflect.Type
	ImplementingIdentity reflect.Type

	// Constructors lists candidate constructor functions for
	// ImplementingIdentity. The planner applies the "most resolvable
	// constructor" rule across this set. A single-entry list
	// is the common case.
	Constructors []reflect.Value

	ServiceName identity.Name

	// Factory replaces ImplementingIdentity/Constructors when set.
	Factory func(ServiceFactory) (any, error)

	// Value is a pre-built instance; implies PerContainer lifetime.
	Value any
	HasValue bool

	Lifetime lifetime.Strategy

	// GenericDefinition, when non-nil, marks this as an open-generic
	// registration: it is called with the concrete type arguments the
	// caller passes explicitly to ResolveGeneric, and must return a fresh
	// Registration for that closed type.
	GenericDefinition func(args []reflect.Type) (*Registration, error)

	// TypeArgs is set on a Registration produced by a GenericDefinition
	// call: the concrete type arguments this particular closed instantiation
	// was built for. Key() folds TypeArgs into the returned identity.Key so
	// that e.g. Repository[int] and Repository[string], both filed under the
	// same family ServiceIdentity, address distinct cache slots instead of
	// colliding.
	TypeArgs []reflect.Type

	// Sequence is the insertion order assigned by Registry.Register, used to
	// give enumerable aggregation a stable, deterministic
	// order since Go map iteration order is not insertion order.
	Sequence int
}

// Kind reports which of {implementing, factory, value, generic-definition}
// primarily drives this registration — exactly one is ever primary.
type Kind int

const (
	KindImplementing Kind = iota
	KindFactory
	KindValue
	KindGenericDefinition
)

func (r *Registration) Kind() Kind {
	switch {
	case r.HasValue:
		return KindValue
	case r.Factory != nil:
		return KindFactory
	case r.GenericDefinition != nil:
		return KindGenericDefinition
	default:
		return KindImplementing
	}
}

// Key returns the registration's dependency key. A closed-generic
// registration (TypeArgs set) folds its type arguments into the key so
// distinct instantiations of the same family never collide.
func (r *Registration) Key() identity.Key {
	if len(r.TypeArgs) > 0 {
		return identity.NewGenericKey(r.ServiceIdentity, r.ServiceName, r.TypeArgs)
	}
	return identity.NewKey(r.ServiceIdentity, r.ServiceName)
}
