package compiler

import (
	"reflect"

	"github.com/feO2x/lightinject/internal/identity"
)

// structuralEmitter recognizes the structural service shapes (Lazy[T],
// Func0[T]..Func4[A..,T], and the enumerable shapes) by duck-typing the
// requested reflect.Type — it deliberately does not import
// the root `lightinject` package (which defines Lazy[T]/FuncN[T]) to avoid
// an import cycle; any type satisfying the same shape is recognized, which
// also lets user-defined Lazy-alikes participate.
func (c *Compiler) structuralEmitter(t reflect.Type, name identity.Name, f *frame) (func() (any, error), bool) {
	if fn, ok := c.lazyEmitter(t, name, f); ok {
		return fn, true
	}
	if fn, ok := c.funcEmitter(t, name, f); ok {
		return fn, true
	}
	if fn, ok := c.enumerableEmitter(t, name, f); ok {
		return fn, true
	}
	return nil, false
}

// lazyTypeElement reports the element type of a Lazy[T]-shaped type: a
// struct with a value-receiver, zero-argument `ElementType() reflect.Type`
// method and an exported `Resolver func() (any, error)` field.
func lazyTypeElement(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Struct {
		return nil, false
	}
	m, ok := t.MethodByName("ElementType")
	if !ok || m.Type.NumIn() != 1 || m.Type.NumOut() != 1 {
		return nil, false
	}
	if m.Type.Out(0) != reflectTypeInterface {
		return nil, false
	}
	if _, ok := t.FieldByName("Resolver"); !ok {
		return nil, false
	}

	zero := reflect.New(t).Elem()
	out := zero.Method(m.Index).Call(nil)
	elemType, ok := out[0].Interface().(reflect.Type)
	if !ok {
		return nil, false
	}
	return elemType, true
}

var reflectTypeInterface = reflect.TypeOf((*reflect.Type)(nil)).Elem()

func (c *Compiler) lazyEmitter(t reflect.Type, name identity.Name, f *frame) (func() (any, error), bool) {
	elemType, ok := lazyTypeElement(t)
	if !ok {
		return nil, false
	}

	resolver := func() (any, error) { return c.resolveKeyInternal(identity.NewKey(elemType, name), f) }
	return buildLazyFunc(t, resolver), true
}

// buildLazyFunc constructs a zero value of lazyType (a Lazy[T]-shaped
// struct) with its Resolver field set to resolve.
func buildLazyFunc(lazyType reflect.Type, resolve func() (any, error)) func() (any, error) {
	return func() (any, error) {
		v, err := buildLazy(lazyType, resolve)
		if err != nil {
			return nil, err
		}
		return v.Interface(), nil
	}
}

func buildLazy(lazyType reflect.Type, resolve func() (any, error)) (reflect.Value, error) {
	field, ok := lazyType.FieldByName("Resolver")
	if !ok {
		return reflect.Value{}, &GenericConstraintError{FamilyKey: lazyType, Cause: errNotLazyShaped}
	}
	instance := reflect.New(lazyType).Elem()
	resolverValue := reflect.MakeFunc(field.Type, func(args []reflect.Value) []reflect.Value {
		v, err := resolve()
		errVal := reflect.New(errType).Elem()
		if err != nil {
			errVal.Set(reflect.ValueOf(err))
		}
		var resultVal reflect.Value
		if v == nil {
			resultVal = reflect.New(field.Type.Out(0)).Elem()
		} else {
			resultVal = reflect.ValueOf(v)
		}
		return []reflect.Value{resultVal, errVal}
	})
	instance.FieldByName("Resolver").Set(resolverValue)
	return instance, nil
}

var errNotLazyShaped = &shapeError{"type does not have a settable Resolver field"}

type shapeError struct{ msg string }

func (e *shapeError) Error() string { return e.msg }

// funcEmitter recognizes Func0[T]..Func4[A,B,C,D,T]: any func type whose
// last output is error and whose first output is the resolved value,
// taking 0-4 inputs that are passed on as runtime arguments in the trailing
// constants slot (constructor and factory calls do not read that slot).
func (c *Compiler) funcEmitter(t reflect.Type, name identity.Name, f *frame) (func() (any, error), bool) {
	if t.Kind() != reflect.Func {
		return nil, false
	}
	if t.NumOut() != 2 || t.Out(1) != errType {
		return nil, false
	}
	if t.NumIn() > 4 {
		return nil, false
	}

	elemType := t.Out(0)

	fn := reflect.MakeFunc(t, func(args []reflect.Value) []reflect.Value {
		runtimeArgs := make([]any, len(args))
		for i, a := range args {
			runtimeArgs[i] = a.Interface()
		}

		var v any
		var err error
		if len(runtimeArgs) == 0 {
			v, err = c.resolveKeyInternal(identity.NewKey(elemType, name), f)
		} else {
			v, err = c.resolveKey(identity.NewKey(elemType, name), f, runtimeArgs)
		}

		errVal := reflect.New(errType).Elem()
		if err != nil {
			errVal.Set(reflect.ValueOf(err))
		}
		var resultVal reflect.Value
		if v == nil {
			resultVal = reflect.New(elemType).Elem()
		} else {
			resultVal = reflect.ValueOf(v)
		}
		return []reflect.Value{resultVal, errVal}
	})

	return func() (any, error) { return fn.Interface(), nil }, true
}
