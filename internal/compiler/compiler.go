// Package compiler lowers a planned construction into a single callable
// closure per (identity, name). It is the largest and most
// correctness-critical component: cycle detection, override/decorator/
// initializer application, lifetime wrapping, open-generic expansion, and
// the structural Lazy[T]/Func[T]/enumerable shapes all live here.
//
// Constructor calls compile into a reflect.Value-driven closure tree, once
// per (identity, name) and cached thereafter.
package compiler

import (
	"fmt"
	"reflect"

	"github.com/feO2x/lightinject/internal/constants"
	"github.com/feO2x/lightinject/internal/emittable"
	"github.com/feO2x/lightinject/internal/identity"
	"github.com/feO2x/lightinject/internal/lifetime"
	"github.com/feO2x/lightinject/internal/planner"
	"github.com/feO2x/lightinject/internal/registry"
	"github.com/feO2x/lightinject/internal/scope"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// Options configures compiler behavior sourced from ContainerOptions.
type Options struct {
	EnableVariance          bool
	EnablePropertyInjection bool
	MaxResolutionDepth      int
	LogSink                 registry.LogSink
}

// Compiler is the recipe compiler and, by implementing registry.ServiceFactory,
// the ServiceFactory handed to factories, overrides, fallbacks, and
// initializers.
type Compiler struct {
	reg       *registry.Registry
	delegates *emittable.Table
	props     *emittable.PropertyTable
	consts    *constants.Table
	manager   scope.Manager
	opts      Options
}

// New builds a Compiler over reg, publishing compiled delegates into an
// internal copy-on-write table and property-injection delegates into
// another, using manager for scope lookups and an append-only constants
// table for captured-value storage.
func New(reg *registry.Registry, manager scope.Manager, opts Options) *Compiler {
	return &Compiler{
		reg:       reg,
		delegates: emittable.New(),
		props:     emittable.NewPropertyTable(),
		consts:    constants.New(),
		manager:   manager,
		opts:      opts,
	}
}

var _ registry.ServiceFactory = (*Compiler)(nil)

// frame is the per-resolve dependency stack. A fresh frame is built for
// every top-level Resolve call and threaded explicitly through recursive
// calls — never stored on the Compiler, so cycle detection never leaks
// across unrelated resolves.
type frame struct {
	stack []identity.Key
}

func rootFrame() *frame { return &frame{} }

func (f *frame) push(key identity.Key) (*frame, error) {
	for _, k := range f.stack {
		if k == key {
			path := append(append([]identity.Key{}, f.stack...), key)
			return nil, &CyclicDependencyError{Key: key, Path: path}
		}
	}
	next := make([]identity.Key, len(f.stack)+1)
	copy(next, f.stack)
	next[len(f.stack)] = key
	return &frame{stack: next}, nil
}

// Resolve is the top-level (identity, name) -> instance entry point.
func (c *Compiler) Resolve(t reflect.Type, name identity.Name) (any, error) {
	return c.resolveKey(identity.NewKey(t, name), rootFrame(), nil)
}

// ResolveArgs resolves (t, name) with caller-supplied runtime constructor
// arguments, spliced into the trailing slot of the constants snapshot.
func (c *Compiler) ResolveArgs(t reflect.Type, name identity.Name, args []any) (any, error) {
	return c.resolveKey(identity.NewKey(t, name), rootFrame(), args)
}

// TryResolve behaves like Resolve but returns (nil, nil) instead of a
// NotRegisteredError, like a try_resolve variant.
func (c *Compiler) TryResolve(t reflect.Type, name identity.Name) (any, error) {
	v, err := c.Resolve(t, name)
	if isNotRegistered(err) {
		return nil, nil
	}
	return v, err
}

// TryResolveArgs is the runtime-argument-carrying counterpart of TryResolve.
func (c *Compiler) TryResolveArgs(t reflect.Type, name identity.Name, args []any) (any, error) {
	v, err := c.ResolveArgs(t, name, args)
	if isNotRegistered(err) {
		return nil, nil
	}
	return v, err
}

// ResolveAll implements the enumerable/array/list shapes for
// the façade's resolve_all(identity) operation.
func (c *Compiler) ResolveAll(elem reflect.Type) ([]any, error) {
	return c.resolveAllOf(elem, rootFrame(), "")
}

func isNotRegistered(err error) bool {
	_, ok := err.(*NotRegisteredError)
	return ok
}

func (c *Compiler) resolveKey(key identity.Key, f *frame, args []any) (any, error) {
	if c.opts.MaxResolutionDepth > 0 && len(f.stack) > c.opts.MaxResolutionDepth {
		return nil, fmt.Errorf("lightinject: resolution depth exceeded %d while resolving %s", c.opts.MaxResolutionDepth, key)
	}

	// A key already on the resolution path is a cycle, even when its
	// delegate has been published and would otherwise be reused.
	if _, err := f.push(key); err != nil {
		return nil, err
	}

	if fn, snap, ok := c.delegates.Get(key); ok {
		return invoke(fn, snap, args)
	}

	if fn, ok := c.structuralEmitter(key.Type, key.Name(), f); ok {
		// Structural shapes (Lazy[T], Func0..4[T], enumerables) are
		// per-request-shape, not published into the delegate table: their
		// element type varies with the parameter site, so there is nothing
		// stable to key the table on beyond what's already keyed by `key`
		// (which does vary per element type and is itself a fine cache key).
		v, err := fn()
		if err != nil {
			return nil, err
		}
		return v, nil
	}

	fn, snap, err := c.compile(key, f)
	if err != nil {
		return nil, err
	}

	c.reg.Lock()
	c.delegates.Publish(key, fn, snap)
	return invoke(fn, snap, args)
}

func invoke(fn emittable.GetInstance, snap []any, args []any) (any, error) {
	call := snap
	if args != nil {
		call = constants.WithRuntimeArgs(snap, args)
	}
	return fn(call)
}

// compile runs the full emit algorithm (override, decorate, apply lifetime,
// run initializers) for key and
// returns a delegate plus the constants snapshot it closes over.
func (c *Compiler) compile(key identity.Key, f *frame) (emittable.GetInstance, []any, error) {
	nf, err := f.push(key)
	if err != nil {
		return nil, nil, err
	}

	reg, err := c.findRegistration(key)
	if err != nil {
		return nil, nil, err
	}

	reg = c.reg.ApplyOverrides(c, reg)

	baseFn, baseConsts, err := c.compileCore(reg, nf)
	if err != nil {
		return nil, nil, err
	}

	wrappedFn, wrappedConsts := c.applyDecorators(reg, baseFn, baseConsts, nf)
	finalFn, finalConsts := c.applyLifetime(wrappedFn, wrappedConsts, reg)
	finalFn = c.applyInitializers(reg, finalFn)

	return finalFn, finalConsts, nil
}

// findRegistration implements the lookup-then-expand
// chain: direct registration, then fallback synthesis, then the "sole named
// registration" redirect. Open-generic expansion is reached through the
// dedicated ResolveGeneric path (see generics.go) rather than this general
// lookup, since Go cannot decompose an arbitrary instantiated generic
// reflect.Type back into its type arguments — see DESIGN.md.
func (c *Compiler) findRegistration(key identity.Key) (*registry.Registration, error) {
	if reg, ok := c.reg.Lookup(key); ok {
		return reg, nil
	}

	if reg, ok := c.synthesizeFallback(key); ok {
		return reg, nil
	}

	if reg, ok := c.redirectToSoleNamed(key); ok {
		return reg, nil
	}

	return nil, &NotRegisteredError{Key: key}
}

// redirectToSoleNamed implements the rule that a "single unnamed
// request to an identity that has exactly one named registration redirects
// to that named registration."
func (c *Compiler) redirectToSoleNamed(key identity.Key) (*registry.Registration, bool) {
	if !key.Name().IsDefault() {
		return nil, false
	}

	var sole *registry.Registration
	count := 0
	for _, reg := range c.reg.All() {
		if reg.ServiceIdentity == key.Type && !reg.ServiceName.IsDefault() {
			sole = reg
			count++
		}
	}
	if count == 1 {
		return sole, true
	}
	return nil, false
}

// synthesizeFallback: the first matching fallback rule supplies a factory,
// and the synthesized registration is installed back into the registry
// under (identity, name) so it is found directly on the next resolve.
func (c *Compiler) synthesizeFallback(key identity.Key) (*registry.Registration, bool) {
	for _, fb := range c.reg.Fallbacks() {
		if fb.Predicate != nil && !fb.Predicate(key) {
			continue
		}
		fallback := fb
		reg := &registry.Registration{
			ServiceIdentity: key.Type,
			ServiceName:     key.Name(),
			Factory: func(factory registry.ServiceFactory) (any, error) {
				return fallback.Factory(factory, key)
			},
			Lifetime: fallback.Lifetime,
		}
		_ = c.reg.Register(reg)
		return reg, true
	}
	return nil, false
}

// compileCore builds the un-decorated, un-lifetime-wrapped emitter for reg:
// a constant load for a pre-built Value, an opaque Factory call, or a
// planned constructor-and-properties build.
func (c *Compiler) compileCore(reg *registry.Registration, f *frame) (emittable.GetInstance, []any, error) {
	if reg.HasValue {
		idx := c.consts.Append(reg.Value)
		return func(consts []any) (any, error) {
			return consts[idx], nil
		}, c.consts.Snapshot(), nil
	}

	if reg.Factory != nil {
		factory := reg.Factory
		return func([]any) (any, error) {
			return factory(c)
		}, c.consts.Snapshot(), nil
	}

	info, err := planner.Plan(reg, c.resolvableFn(), planner.Options{EnablePropertyInjection: c.opts.EnablePropertyInjection})
	if err != nil {
		return nil, nil, translatePlannerError(reg, err)
	}

	return c.compileConstruction(info, f)
}

func (c *Compiler) resolvableFn() planner.Resolvable {
	return func(t reflect.Type, name identity.Name) bool {
		_, ok := c.reg.Lookup(identity.NewKey(t, name))
		return ok
	}
}

func translatePlannerError(reg *registry.Registration, err error) error {
	switch err {
	case planner.ErrNoPublicConstructor:
		return &NoPublicConstructorError{Type: reg.ImplementingIdentity}
	case planner.ErrNoResolvableConstructor:
		return &NoResolvableConstructorError{Type: reg.ImplementingIdentity}
	default:
		return err
	}
}

// compileConstruction builds the emitter that resolves every constructor
// dependency (recursively, through the same Compiler so nested delegates
// are published and reused), calls the constructor, then applies property
// injection.
func (c *Compiler) compileConstruction(info *planner.ConstructionInfo, f *frame) (emittable.GetInstance, []any, error) {
	depResolvers := make([]depResolver, len(info.ConstructorDependencies))
	for i, dep := range info.ConstructorDependencies {
		r, err := c.dependencyResolver(dep, f)
		if err != nil {
			return nil, nil, err
		}
		depResolvers[i] = r
	}

	propResolvers := make([]depResolver, len(info.PropertyDependencies))
	for i, dep := range info.PropertyDependencies {
		r, err := c.dependencyResolver(&dep.Dependency, f)
		if err != nil {
			return nil, nil, err
		}
		propResolvers[i] = r
	}

	ctor := info.Constructor
	usesParams := info.ConstructorUsesParams
	paramsType := info.ParamsType
	returnsErr := info.ReturnsError
	constructorDeps := info.ConstructorDependencies
	properties := info.PropertyDependencies

	fn := func(callArgs []any) (any, error) {
		var in []reflect.Value

		if usesParams {
			params := reflect.New(paramsType).Elem()
			for i, dep := range constructorDeps {
				v, err := depResolvers[i](callArgs)
				if err != nil {
					if dep.IsRequired {
						return nil, err
					}
					continue
				}
				params.Field(dep.FieldIndex()).Set(v)
			}
			in = []reflect.Value{params}
		} else {
			in = make([]reflect.Value, len(depResolvers))
			for i := range constructorDeps {
				v, err := depResolvers[i](callArgs)
				if err != nil {
					return nil, err
				}
				in[i] = v
			}
		}

		out := ctor.Call(in)
		result := out[0]
		if returnsErr {
			if errVal := out[len(out)-1]; !errVal.IsNil() {
				return nil, errVal.Interface().(error)
			}
		}

		for i, dep := range properties {
			v, err := propResolvers[i](nil)
			if err != nil {
				continue // optional: property dependencies are not required by default
			}
			if result.Kind() != reflect.Ptr {
				return nil, fmt.Errorf("lightinject: property injection requires a pointer-receiver implementing type, got %s", result.Type())
			}
			result.Elem().Field(dep.FieldIndex()).Set(v)
		}

		return result.Interface(), nil
	}

	return fn, c.consts.Snapshot(), nil
}

// depResolver produces a reflect.Value for one dependency at construction
// time; callArgs carries per-request runtime arguments when resolving a
// parameterized factory.
type depResolver func(callArgs []any) (reflect.Value, error)

// dependencyResolver builds the closure that produces a reflect.Value for
// dep, honoring an attached dependency factory ahead of recursive resolution.
func (c *Compiler) dependencyResolver(dep *planner.Dependency, f *frame) (depResolver, error) {
	if dep.Factory != nil {
		factory := dep.Factory
		depType := dep.ServiceIdentity
		return func([]any) (reflect.Value, error) {
			v, err := factory()
			if err != nil {
				return reflect.Value{}, err
			}
			return coerce(v, depType)
		}, nil
	}

	depType := dep.ServiceIdentity
	depName := dep.ServiceName
	isRequired := dep.IsRequired
	paramName := dep.Name

	return func(callArgs []any) (reflect.Value, error) {
		v, err := c.resolveDependencyValue(depType, depName, paramName, f)
		if err != nil {
			if !isRequired {
				return reflect.Zero(depType), nil
			}
			return reflect.Value{}, &UnresolvedDependencyError{Type: depType, Name: depName, Cause: err}
		}
		return coerce(v, depType)
	}, nil
}

// resolveDependencyValue resolves one dependency, trying the structural
// shapes first, then the empty-name registration, then the parameter's own name.
func (c *Compiler) resolveDependencyValue(depType reflect.Type, depName identity.Name, paramName string, f *frame) (any, error) {
	if fn, ok := c.structuralEmitter(depType, depName, f); ok {
		return fn()
	}

	key := identity.NewKey(depType, depName)
	v, err := c.resolveKeyInternal(key, f)
	if err == nil {
		return v, nil
	}

	if depName.IsDefault() && paramName != "" {
		altKey := identity.NewKey(depType, identity.Name(paramName))
		if altV, altErr := c.resolveKeyInternal(altKey, f); altErr == nil {
			return altV, nil
		}
	}

	return nil, err
}

// resolveKeyInternal is resolveKey without the runtime-argument path, used
// for plain recursive dependency resolution.
func (c *Compiler) resolveKeyInternal(key identity.Key, f *frame) (any, error) {
	return c.resolveKey(key, f, nil)
}

func coerce(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("lightinject: resolved value of type %s is not assignable to %s", rv.Type(), t)
}

// applyLifetime wraps fn with reg's lifetime strategy. PerContainer's
// "materialize once" guarantee is carried by the strategy's own
// sync.Once-guarded caching (internal/lifetime): the first call computes
// and caches the instance, and every later call — whether through this
// emitted closure or a recursive dependency resolution — observes the
// same cached reference.
func (c *Compiler) applyLifetime(fn emittable.GetInstance, consts []any, reg *registry.Registration) (emittable.GetInstance, []any) {
	strat := reg.Lifetime
	if lifetime.IsTransientOrNil(strat) {
		return fn, consts
	}

	manager := c.manager
	wrapped := func(callConsts []any) (any, error) {
		create := func() (any, error) { return fn(callConsts) }
		var handle lifetime.ScopeHandle
		if cur := manager.Current(); cur != nil {
			handle = cur
		}
		return strat.GetInstance(create, handle)
	}
	return wrapped, consts
}

// applyInitializers wraps fn so every matching initializer runs against the
// produced instance, in declaration order.
func (c *Compiler) applyInitializers(reg *registry.Registration, fn emittable.GetInstance) emittable.GetInstance {
	return func(consts []any) (any, error) {
		v, err := fn(consts)
		if err != nil {
			return nil, err
		}
		if err := c.reg.RunInitializers(c, reg, v); err != nil {
			return nil, err
		}
		return v, nil
	}
}
