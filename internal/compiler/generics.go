package compiler

import (
	"reflect"

	"github.com/feO2x/lightinject/internal/identity"
)

// ResolveGeneric closes an open-generic family over concrete type
// arguments through an explicit-type-arguments call path: Go's reflect
// package cannot recover a generic type's instantiation arguments from an
// arbitrary already-closed reflect.Type (there is no general "decompose
// IRepo[int] back into IRepo[] and int" operation in the language), so
// instead of inferring type arguments from a closed-generic request, the
// caller names the open registration's family key and supplies the
// concrete type arguments directly. familyKey is whatever reflect.Type
// the registration was filed under via RegisterGeneric (see the root
// package's façade) — typically a small marker type unique to that generic
// family. See DESIGN.md for the full rationale.
func (c *Compiler) ResolveGeneric(familyKey reflect.Type, name identity.Name, typeArgs []reflect.Type) (any, error) {
	return c.resolveGenericKey(familyKey, name, typeArgs, rootFrame())
}

func (c *Compiler) resolveGenericKey(familyKey reflect.Type, name identity.Name, typeArgs []reflect.Type, f *frame) (any, error) {
	familyRegKey := identity.NewKey(familyKey, name)

	defReg, ok := c.reg.Lookup(familyRegKey)
	if !ok || defReg.GenericDefinition == nil {
		return nil, &NotRegisteredError{Key: familyRegKey}
	}

	closedReg, err := defReg.GenericDefinition(typeArgs)
	if err != nil {
		return nil, &GenericConstraintError{FamilyKey: familyKey, Cause: err}
	}
	closedReg.ServiceName = name
	closedReg.TypeArgs = typeArgs

	closedKey := closedReg.Key()
	if fn, snap, ok := c.delegates.Get(closedKey); ok {
		return invoke(fn, snap, nil)
	}

	// Install the closed registration so any nested resolve of the same
	// closed generic (including a self-referential one) finds it directly
	// through the ordinary registry lookup path.
	if _, exists := c.reg.Lookup(closedKey); !exists {
		_ = c.reg.Register(closedReg)
	} else {
		closedReg, _ = c.reg.Lookup(closedKey)
	}

	nf, err := f.push(closedKey)
	if err != nil {
		return nil, err
	}

	closedReg = c.reg.ApplyOverrides(c, closedReg)

	baseFn, baseConsts, err := c.compileCore(closedReg, nf)
	if err != nil {
		return nil, err
	}

	wrappedFn, wrappedConsts := c.applyDecorators(closedReg, baseFn, baseConsts, nf)
	finalFn, finalConsts := c.applyLifetime(wrappedFn, wrappedConsts, closedReg)
	finalFn = c.applyInitializers(closedReg, finalFn)

	c.reg.Lock()
	c.delegates.Publish(closedKey, finalFn, finalConsts)
	return invoke(finalFn, finalConsts, nil)
}
