package compiler

import (
	"reflect"
	"sort"

	"github.com/feO2x/lightinject/internal/identity"
	"github.com/feO2x/lightinject/internal/registry"
)

// enumerableEmitter resolves a []T slice parameter to every matching
// registration of T. Go has no
// distinct IEnumerable/IList/ICollection/IReadOnlyList/IReadOnlyCollection
// types, so every one of those cells collapses onto the single Go shape
// that plays their role: a slice []T. Array types ([N]T) are not treated as
// an enumerable shape since their element count is part of the type, which
// has no sensible "resolve all registrations" mapping.
func (c *Compiler) enumerableEmitter(t reflect.Type, name identity.Name, f *frame) (func() (any, error), bool) {
	if t.Kind() != reflect.Slice {
		return nil, false
	}
	elemType := t.Elem()

	return func() (any, error) {
		values, err := c.resolveAllOf(elemType, f, name)
		if err != nil {
			return nil, err
		}

		out := reflect.MakeSlice(t, len(values), len(values))
		for i, v := range values {
			rv, cerr := coerce(v, elemType)
			if cerr != nil {
				return nil, cerr
			}
			out.Index(i).Set(rv)
		}
		return out.Interface(), nil
	}, true
}

// resolveAllOf resolves every registration whose identity matches elemType
// (exactly, or — when variance is enabled — covariantly, i.e. the
// registered type is assignable to elemType), in insertion order by
// Sequence. A registration that is itself on the active
// dependency stack is excluded.
func (c *Compiler) resolveAllOf(elemType reflect.Type, f *frame, requestedName identity.Name) ([]any, error) {
	all := c.reg.All()

	var matches []*registry.Registration
	for _, reg := range all {
		if !c.variantlyMatches(reg.ServiceIdentity, elemType) {
			continue
		}
		if c.onStack(reg, f) {
			continue
		}
		matches = append(matches, reg)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Sequence < matches[j].Sequence })

	values := make([]any, 0, len(matches))
	for _, reg := range matches {
		key := identity.NewKey(reg.ServiceIdentity, reg.ServiceName)
		v, err := c.resolveKeyInternal(key, f)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func (c *Compiler) variantlyMatches(candidate, requested reflect.Type) bool {
	if candidate == requested {
		return true
	}
	if !c.opts.EnableVariance {
		return false
	}
	return candidate.AssignableTo(requested)
}

func (c *Compiler) onStack(reg *registry.Registration, f *frame) bool {
	key := identity.NewKey(reg.ServiceIdentity, reg.ServiceName)
	for _, k := range f.stack {
		if k == key {
			return true
		}
	}
	return false
}
