package lightinject

import (
	"fmt"

	"github.com/feO2x/lightinject/internal/compiler"
	"github.com/feO2x/lightinject/internal/scope"
)

// NotRegisteredError is returned when Resolve finds no emitter after every
// expansion strategy runs.
type NotRegisteredError = compiler.NotRegisteredError

// CyclicDependencyError is returned when the dependency stack re-enters the
// same emitter during resolution.
type CyclicDependencyError = compiler.CyclicDependencyError

// UnresolvedDependencyError is returned when a required constructor
// dependency cannot be resolved during emit.
type UnresolvedDependencyError = compiler.UnresolvedDependencyError

// NoPublicConstructorError is returned when a registration has zero
// constructor candidates.
type NoPublicConstructorError = compiler.NoPublicConstructorError

// NoResolvableConstructorError is returned when every constructor candidate
// has at least one unresolvable required parameter.
type NoResolvableConstructorError = compiler.NoResolvableConstructorError

// GenericConstraintError is returned when open-generic expansion violates
// the implementing type's constraints.
type GenericConstraintError = compiler.GenericConstraintError

// InvalidScopeError reports a violation of the scope-tree invariants:
// ending a scope with a live child, or ending a scope that is not current.
// Tracking a disposable against a disposed scope is not reported: the
// disposable is ignored and no error is returned.
type InvalidScopeError = scope.InvalidScopeError

// RegistrationAfterLockError documents a condition the container only
// logs (as a warning) rather than returns: a Register call after the
// container has locked itself on first resolve. It is exported so callers
// building their own LogSink can recognize the condition by type if they
// parse structured fields; the container itself never constructs this
// type, it only documents what registry.Registry logs.
type RegistrationAfterLockError struct {
	Kind string
}

func (e *RegistrationAfterLockError) Error() string {
	return fmt.Sprintf("lightinject: %s registration rejected: the container is locked after its first resolve", e.Kind)
}
