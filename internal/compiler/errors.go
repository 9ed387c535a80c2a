package compiler

import (
	"fmt"

	"github.com/feO2x/lightinject/internal/identity"
)

// NotRegisteredError reports that no emitter was found
// after every expansion strategy ran.
type NotRegisteredError struct {
	Key identity.Key
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("lightinject: no registration found for %s", e.Key)
}

// CyclicDependencyError reports that the dependency
// stack re-entered the same emitter.
type CyclicDependencyError struct {
	Key  identity.Key
	Path []identity.Key
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("lightinject: cyclic dependency detected resolving %s (path: %s)", e.Key, formatPath(e.Path))
}

func formatPath(path []identity.Key) string {
	s := ""
	for i, k := range path {
		if i > 0 {
			s += " -> "
		}
		s += k.String()
	}
	return s
}

// UnresolvedDependencyError reports that a required
// constructor dependency could not be resolved during emit.
type UnresolvedDependencyError struct {
	Type  interface{ String() string }
	Name  identity.Name
	Cause error
}

func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("lightinject: unresolved required dependency %s[%s]: %v", e.Type, e.Name, e.Cause)
}

func (e *UnresolvedDependencyError) Unwrap() error { return e.Cause }

// NoPublicConstructorError reports that a registration has no usable constructor.
type NoPublicConstructorError struct {
	Type interface{ String() string }
}

func (e *NoPublicConstructorError) Error() string {
	return fmt.Sprintf("lightinject: %s has no registered constructor candidates", e.Type)
}

// NoResolvableConstructorError reports that no candidate constructor had every dependency resolvable.
type NoResolvableConstructorError struct {
	Type interface{ String() string }
}

func (e *NoResolvableConstructorError) Error() string {
	return fmt.Sprintf("lightinject: no constructor of %s has every parameter resolvable", e.Type)
}

// GenericConstraintError reports that open-generic
// expansion violated the implementing type's constraints.
type GenericConstraintError struct {
	FamilyKey interface{ String() string }
	Cause     error
}

func (e *GenericConstraintError) Error() string {
	return fmt.Sprintf("lightinject: generic expansion of %s violated a type constraint: %v", e.FamilyKey, e.Cause)
}

func (e *GenericConstraintError) Unwrap() error { return e.Cause }
