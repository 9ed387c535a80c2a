package compiler

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feO2x/lightinject/internal/identity"
	"github.com/feO2x/lightinject/internal/lifetime"
	"github.com/feO2x/lightinject/internal/registry"
	"github.com/feO2x/lightinject/internal/scope"
)

type widget struct{ id int }

func newWidget() *widget { return &widget{} }

type cycleA struct{ b *cycleB }

func newCycleA(b *cycleB) *cycleA { return &cycleA{b: b} }

type cycleB struct{ a *cycleA }

func newCycleB(a *cycleA) *cycleB { return &cycleB{a: a} }

func newCompiler() *Compiler {
	reg := registry.New(nil)
	mgr := scope.NewThreadManager()
	return New(reg, mgr, Options{})
}

func registerSingleCtor(c *Compiler, reg *registry.Registry, t reflect.Type, name identity.Name, ctor any, lt lifetime.Strategy) *registry.Registration {
	r := &registry.Registration{
		ServiceIdentity:      t,
		ImplementingIdentity: reflect.TypeOf(ctor).Out(0),
		Constructors:         []reflect.Value{reflect.ValueOf(ctor)},
		ServiceName:          name,
		Lifetime:             lt,
	}
	_ = reg.Register(r)
	return r
}

func TestResolveBasic(t *testing.T) {
	c := newCompiler()
	wType := reflect.TypeOf(&widget{})
	registerSingleCtor(c, c.reg, wType, "", newWidget, nil)

	v, err := c.Resolve(wType, "")
	require.NoError(t, err)
	_, ok := v.(*widget)
	assert.True(t, ok)
}

func TestResolveNotRegistered(t *testing.T) {
	c := newCompiler()
	_, err := c.Resolve(reflect.TypeOf(0), "")
	require.Error(t, err)
	var nre *NotRegisteredError
	assert.ErrorAs(t, err, &nre)
}

func TestTryResolveSwallowsNotRegistered(t *testing.T) {
	c := newCompiler()
	v, err := c.TryResolve(reflect.TypeOf(0), "")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestResolveIsCachedAfterFirstCompile(t *testing.T) {
	c := newCompiler()
	wType := reflect.TypeOf(&widget{})
	registerSingleCtor(c, c.reg, wType, "", newWidget, nil)

	_, err := c.Resolve(wType, "")
	require.NoError(t, err)
	assert.Equal(t, 1, c.delegates.Len())

	_, err = c.Resolve(wType, "")
	require.NoError(t, err)
	assert.Equal(t, 1, c.delegates.Len(), "second resolve must reuse the published delegate")
}

func TestCyclicDependencyDetected(t *testing.T) {
	c := newCompiler()
	aType := reflect.TypeOf(&cycleA{})
	bType := reflect.TypeOf(&cycleB{})
	registerSingleCtor(c, c.reg, aType, "", newCycleA, nil)
	registerSingleCtor(c, c.reg, bType, "", newCycleB, nil)

	_, err := c.Resolve(aType, "")
	require.Error(t, err)
	var cde *CyclicDependencyError
	assert.ErrorAs(t, err, &cde)
}

func TestSoleNamedRedirect(t *testing.T) {
	c := newCompiler()
	wType := reflect.TypeOf(&widget{})
	registerSingleCtor(c, c.reg, wType, "primary", newWidget, nil)

	v, err := c.Resolve(wType, "")
	require.NoError(t, err)
	_, ok := v.(*widget)
	assert.True(t, ok)
}

func TestSoleNamedRedirectDoesNotApplyWithMultipleNames(t *testing.T) {
	c := newCompiler()
	wType := reflect.TypeOf(&widget{})
	registerSingleCtor(c, c.reg, wType, "a", newWidget, nil)
	registerSingleCtor(c, c.reg, wType, "b", newWidget, nil)

	_, err := c.Resolve(wType, "")
	require.Error(t, err)
}

func TestFallbackSynthesizesAndInstalls(t *testing.T) {
	c := newCompiler()
	wType := reflect.TypeOf(&widget{})
	calls := 0
	c.reg.AddFallback(&registry.Fallback{
		Predicate: func(key identity.Key) bool { return key.Type == wType },
		Factory: func(registry.ServiceFactory, identity.Key) (any, error) {
			calls++
			return &widget{id: calls}, nil
		},
	})

	v1, err := c.Resolve(wType, "")
	require.NoError(t, err)
	assert.Equal(t, 1, v1.(*widget).id)

	_, ok := c.reg.Lookup(identity.NewKey(wType, ""))
	assert.True(t, ok, "synthesized registration should be installed for future lookups")
}

func TestLifetimeWrapping(t *testing.T) {
	t.Run("transient creates a fresh instance per resolve", func(t *testing.T) {
		c := newCompiler()
		wType := reflect.TypeOf(&widget{})
		registerSingleCtor(c, c.reg, wType, "", newWidget, lifetime.Transient())

		v1, err := c.Resolve(wType, "")
		require.NoError(t, err)
		v2, err := c.Resolve(wType, "")
		require.NoError(t, err)
		assert.NotSame(t, v1, v2)
	})

	t.Run("per-container caches across resolves", func(t *testing.T) {
		c := newCompiler()
		wType := reflect.TypeOf(&widget{})
		registerSingleCtor(c, c.reg, wType, "", newWidget, lifetime.PerContainer())

		v1, err := c.Resolve(wType, "")
		require.NoError(t, err)
		v2, err := c.Resolve(wType, "")
		require.NoError(t, err)
		assert.Same(t, v1, v2)
	})

	t.Run("per-scope caches within a scope and isolates across scopes", func(t *testing.T) {
		c := newCompiler()
		wType := reflect.TypeOf(&widget{})
		registerSingleCtor(c, c.reg, wType, "", newWidget, lifetime.PerScope())

		mgr := c.manager
		s1 := mgr.BeginScope()
		v1a, err := c.Resolve(wType, "")
		require.NoError(t, err)
		v1b, err := c.Resolve(wType, "")
		require.NoError(t, err)
		assert.Same(t, v1a, v1b)
		require.NoError(t, mgr.EndScope(s1))

		s2 := mgr.BeginScope()
		v2, err := c.Resolve(wType, "")
		require.NoError(t, err)
		assert.NotSame(t, v1a, v2)
		require.NoError(t, mgr.EndScope(s2))
	})
}

type decoratedThing struct{ inner string }

type decoratorOne struct {
	Inner *decoratedThing
}

func newDecoratorOne(inner *decoratedThing) *decoratedThing {
	return &decoratedThing{inner: inner.inner + "+one"}
}

func newDecoratorTwo(inner *decoratedThing) *decoratedThing {
	return &decoratedThing{inner: inner.inner + "+two"}
}

func newBaseThing() *decoratedThing { return &decoratedThing{inner: "base"} }

func TestDecoratorOrdering(t *testing.T) {
	c := newCompiler()
	dType := reflect.TypeOf(&decoratedThing{})
	registerSingleCtor(c, c.reg, dType, "", newBaseThing, nil)

	require.NoError(t, c.reg.Decorate(&registry.Decorator{
		ServiceIdentity:      dType,
		ImplementingIdentity: dType,
		Constructors:         []reflect.Value{reflect.ValueOf(newDecoratorOne)},
	}))
	require.NoError(t, c.reg.Decorate(&registry.Decorator{
		ServiceIdentity:      dType,
		ImplementingIdentity: dType,
		Constructors:         []reflect.Value{reflect.ValueOf(newDecoratorTwo)},
	}))

	v, err := c.Resolve(dType, "")
	require.NoError(t, err)
	assert.Equal(t, "base+two+one", v.(*decoratedThing).inner)
}

func TestDecoratorFactoryForm(t *testing.T) {
	c := newCompiler()
	dType := reflect.TypeOf(&decoratedThing{})
	registerSingleCtor(c, c.reg, dType, "", newBaseThing, nil)

	require.NoError(t, c.reg.Decorate(&registry.Decorator{
		ServiceIdentity: dType,
		Factory: func(_ registry.ServiceFactory, inner func() (any, error)) (any, error) {
			v, err := inner()
			if err != nil {
				return nil, err
			}
			return &decoratedThing{inner: v.(*decoratedThing).inner + "+factory"}, nil
		},
	}))

	v, err := c.Resolve(dType, "")
	require.NoError(t, err)
	assert.Equal(t, "base+factory", v.(*decoratedThing).inner)
}

type multiImpl struct{ name string }

func newMultiA() *multiImpl { return &multiImpl{name: "a"} }
func newMultiB() *multiImpl { return &multiImpl{name: "b"} }

func TestResolveAllEnumerable(t *testing.T) {
	c := newCompiler()
	mType := reflect.TypeOf(&multiImpl{})
	registerSingleCtor(c, c.reg, mType, "a", newMultiA, nil)
	registerSingleCtor(c, c.reg, mType, "b", newMultiB, nil)

	values, err := c.ResolveAll(mType)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "a", values[0].(*multiImpl).name)
	assert.Equal(t, "b", values[1].(*multiImpl).name)
}

func TestStructuralSliceParameter(t *testing.T) {
	c := newCompiler()
	mType := reflect.TypeOf(&multiImpl{})
	registerSingleCtor(c, c.reg, mType, "a", newMultiA, nil)
	registerSingleCtor(c, c.reg, mType, "b", newMultiB, nil)

	sliceType := reflect.TypeOf([]*multiImpl{})
	fn, ok := c.structuralEmitter(sliceType, "", rootFrame())
	require.True(t, ok)

	v, err := fn()
	require.NoError(t, err)
	slice := v.([]*multiImpl)
	assert.Len(t, slice, 2)
}

func TestVarianceGatesAssignableMatches(t *testing.T) {
	c := newCompiler()
	mType := reflect.TypeOf(&multiImpl{})

	assert.True(t, c.variantlyMatches(mType, mType))
	assert.False(t, c.variantlyMatches(mType, reflect.TypeOf((*any)(nil)).Elem()),
		"variance is disabled by default, so only an exact identity match should pass")

	c.opts.EnableVariance = true
	assert.True(t, c.variantlyMatches(mType, reflect.TypeOf((*any)(nil)).Elem()))
}

func TestResolveGeneric(t *testing.T) {
	type box struct{ value any }
	familyKey := reflect.TypeOf(struct{ boxFamily int }{})

	c := newCompiler()
	defReg := &registry.Registration{
		ServiceIdentity: familyKey,
		GenericDefinition: func(args []reflect.Type) (*registry.Registration, error) {
			elem := args[0]
			return &registry.Registration{
				ServiceIdentity: familyKey,
				Factory: func(registry.ServiceFactory) (any, error) {
					return &box{value: reflect.Zero(elem).Interface()}, nil
				},
			}, nil
		},
	}
	require.NoError(t, c.reg.Register(defReg))

	v, err := c.ResolveGeneric(familyKey, "", []reflect.Type{reflect.TypeOf(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, v.(*box).value)
}

func TestResolveGenericClosesDistinctInstantiationsUnderDistinctKeys(t *testing.T) {
	type box struct{ value any }
	familyKey := reflect.TypeOf(struct{ boxFamily int }{})

	c := newCompiler()
	defReg := &registry.Registration{
		ServiceIdentity: familyKey,
		GenericDefinition: func(args []reflect.Type) (*registry.Registration, error) {
			elem := args[0]
			return &registry.Registration{
				ServiceIdentity: familyKey,
				Factory: func(registry.ServiceFactory) (any, error) {
					return &box{value: reflect.Zero(elem).Interface()}, nil
				},
				Lifetime: lifetime.PerContainer(),
			}, nil
		},
	}
	require.NoError(t, c.reg.Register(defReg))

	intBox, err := c.ResolveGeneric(familyKey, "", []reflect.Type{reflect.TypeOf(0)})
	require.NoError(t, err)
	strBox, err := c.ResolveGeneric(familyKey, "", []reflect.Type{reflect.TypeOf("")})
	require.NoError(t, err)

	assert.Equal(t, 0, intBox.(*box).value)
	assert.Equal(t, "", strBox.(*box).value)
	assert.NotSame(t, intBox, strBox, "distinct type arguments must not share a compiled-delegate cache slot")

	intBoxAgain, err := c.ResolveGeneric(familyKey, "", []reflect.Type{reflect.TypeOf(0)})
	require.NoError(t, err)
	assert.Same(t, intBoxAgain, intBox, "re-resolving the same closed instantiation reuses its cached entry")
}

func TestInjectPropertiesStandalone(t *testing.T) {
	type needsLog struct {
		Log *widget `inject:"true"`
	}

	c := newCompiler()
	wType := reflect.TypeOf(&widget{})
	registerSingleCtor(c, c.reg, wType, "", newWidget, nil)

	target := &needsLog{}
	v, err := c.InjectProperties(target)
	require.NoError(t, err)
	got := v.(*needsLog)
	assert.NotNil(t, got.Log)
}

func TestInjectPropertiesRejectsNonPointer(t *testing.T) {
	c := newCompiler()
	_, err := c.InjectProperties(struct{}{})
	assert.Error(t, err)
}

func TestMaxResolutionDepthExceeded(t *testing.T) {
	reg := registry.New(nil)
	mgr := scope.NewThreadManager()
	c := New(reg, mgr, Options{MaxResolutionDepth: 1})

	aType := reflect.TypeOf(&cycleA{})
	bType := reflect.TypeOf(&cycleB{})
	registerSingleCtor(c, c.reg, aType, "", newCycleA, nil)
	registerSingleCtor(c, c.reg, bType, "", newCycleB, nil)

	_, err := c.Resolve(aType, "")
	require.Error(t, err)
}
