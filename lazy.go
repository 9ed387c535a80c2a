package lightinject

import (
	"fmt"
	"reflect"
)

// Lazy[T] defers resolution of T until Value is called: the structural
// shape the resolver recognizes for any constructor or property parameter
// typed Lazy[T]. The container fills in
// Resolver via reflection when it builds a Lazy[T] value; it is exported
// only so the compiler package (which cannot import this package without
// creating an import cycle) can set it by field name — callers should
// treat it as container-managed and never assign it directly.
type Lazy[T any] struct {
	Resolver func() (any, error)
}

// ElementType reports T's reflect.Type without requiring a live value; the
// compiler calls this on a zero Lazy[T] to discover what to resolve.
func (Lazy[T]) ElementType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Value resolves and returns T, or the zero value and an error if the
// container could not produce it.
func (l Lazy[T]) Value() (T, error) {
	var zero T
	if l.Resolver == nil {
		return zero, fmt.Errorf("lightinject: Lazy[%T] was requested directly instead of through container resolution", zero)
	}
	v, err := l.Resolver()
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("lightinject: Lazy[%T] resolver produced %T", zero, v)
	}
	return t, nil
}
