package compiler

import (
	"reflect"

	"github.com/feO2x/lightinject/internal/emittable"
	"github.com/feO2x/lightinject/internal/planner"
	"github.com/feO2x/lightinject/internal/registry"
)

// applyDecorators folds the applicable decorators outer-to-inner: start
// with the emitter that builds the target instance, then for each
// applicable decorator (in ascending index) produce a new emitter that
// builds the decorator while substituting the prior emitter for the
// decorator's target parameter. DecoratorsFor already returns decorators
// in ascending-index order (first-registered = outermost), so folding
// from the end of that slice backward yields d1(d2(...dk(core))).
func (c *Compiler) applyDecorators(reg *registry.Registration, base emittable.GetInstance, baseConsts []any, f *frame) (emittable.GetInstance, []any) {
	decorators := c.reg.DecoratorsFor(reg)
	if len(decorators) == 0 {
		return base, baseConsts
	}

	current := base
	currentConsts := baseConsts
	for i := len(decorators) - 1; i >= 0; i-- {
		current, currentConsts = c.applyOneDecorator(decorators[i], reg, current, currentConsts, f)
	}
	return current, currentConsts
}

// applyOneDecorator wraps inner with a single decorator, either by calling
// its factory form (service_factory, inner) -> new_inner, or by planning
// its implementing type the same way a regular registration is planned,
// substituting inner for the "target parameter" (the parameter whose type
// equals ServiceIdentity, or is Lazy[ServiceIdentity]).
func (c *Compiler) applyOneDecorator(d *registry.Decorator, reg *registry.Registration, inner emittable.GetInstance, innerConsts []any, f *frame) (emittable.GetInstance, []any) {
	if d.Factory != nil {
		factory := d.Factory
		wrapped := func(consts []any) (any, error) {
			innerCall := func() (any, error) { return inner(innerConsts) }
			return factory(c, innerCall)
		}
		return wrapped, c.consts.Snapshot()
	}

	decoratorReg := &registry.Registration{
		ServiceIdentity:      d.ServiceIdentity,
		ImplementingIdentity: d.ImplementingIdentity,
		Constructors:         d.Constructors,
		ServiceName:          reg.ServiceName,
	}

	info, err := planner.Plan(decoratorReg, c.resolvableFn(), planner.Options{EnablePropertyInjection: c.opts.EnablePropertyInjection})
	if err != nil {
		failing := translatePlannerError(decoratorReg, err)
		return func([]any) (any, error) { return nil, failing }, innerConsts
	}

	targetType := d.ServiceIdentity
	targetParamIndex, targetIsLazy := findTargetParam(info.ConstructorDependencies, targetType)

	depResolvers := make([]depResolver, len(info.ConstructorDependencies))
	for i, dep := range info.ConstructorDependencies {
		if i == targetParamIndex {
			continue
		}
		r, rerr := c.dependencyResolver(dep, f)
		if rerr != nil {
			failing := rerr
			return func([]any) (any, error) { return nil, failing }, innerConsts
		}
		depResolvers[i] = r
	}

	ctor := info.Constructor
	returnsErr := info.ReturnsError
	deps := info.ConstructorDependencies

	wrapped := func(consts []any) (any, error) {
		in := make([]reflect.Value, len(deps))
		for i, dep := range deps {
			if i == targetParamIndex {
				v, err := targetParamValue(dep.ServiceIdentity, targetIsLazy, inner, innerConsts)
				if err != nil {
					return nil, err
				}
				in[i] = v
				continue
			}
			v, err := depResolvers[i](nil)
			if err != nil {
				return nil, err
			}
			in[i] = v
		}

		out := ctor.Call(in)
		if returnsErr {
			if errVal := out[len(out)-1]; !errVal.IsNil() {
				return nil, errVal.Interface().(error)
			}
		}
		return out[0].Interface(), nil
	}

	return wrapped, c.consts.Snapshot()
}

// findTargetParam locates the decorator constructor parameter that receives
// the wrapped instance: either ServiceIdentity itself, or Lazy[ServiceIdentity].
func findTargetParam(deps []*planner.Dependency, targetType reflect.Type) (index int, isLazy bool) {
	for i, dep := range deps {
		if dep.ServiceIdentity == targetType {
			return i, false
		}
		if elem, ok := lazyTypeElement(dep.ServiceIdentity); ok && elem == targetType {
			return i, true
		}
	}
	return -1, false
}

func targetParamValue(paramType reflect.Type, isLazy bool, inner emittable.GetInstance, innerConsts []any) (reflect.Value, error) {
	if !isLazy {
		v, err := inner(innerConsts)
		if err != nil {
			return reflect.Value{}, err
		}
		return coerce(v, paramType)
	}
	return buildLazy(paramType, func() (any, error) { return inner(innerConsts) })
}
