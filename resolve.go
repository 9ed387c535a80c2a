package lightinject

import (
	"fmt"
	"reflect"

	"github.com/feO2x/lightinject/internal/identity"
)

// ResolveOption configures a single resolve call.
type ResolveOption func(*resolveConfig)

type resolveConfig struct {
	name identity.Name
	args []any
}

// Named resolves the registration stored under name instead of the
// default, unnamed one.
func Named(name string) ResolveOption {
	return func(c *resolveConfig) { c.name = identity.Name(name) }
}

// WithArgs supplies per-request runtime arguments. They are appended as a
// trailing slot of the constants snapshot handed to the compiled delegate;
// constructor and factory calls do not read that slot, so the arguments
// are not passed to the constructor or factory.
func WithArgs(args ...any) ResolveOption {
	return func(c *resolveConfig) { c.args = args }
}

func applyResolveOptions(opts []ResolveOption) resolveConfig {
	var cfg resolveConfig
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// Resolve produces an instance of TService, compiling and caching the
// recipe the first time it is requested.
func Resolve[TService any](c *Container, opts ...ResolveOption) (TService, error) {
	cfg := applyResolveOptions(opts)
	var zero TService

	var v any
	var err error
	if cfg.args != nil {
		v, err = c.compiler.ResolveArgs(serviceTypeOf[TService](), cfg.name, cfg.args)
	} else {
		v, err = c.compiler.Resolve(serviceTypeOf[TService](), cfg.name)
	}
	if err != nil {
		return zero, err
	}
	return castTo[TService](v)
}

// TryResolve behaves like Resolve but returns the zero value and a nil
// error instead of a NotRegisteredError when nothing is registered.
func TryResolve[TService any](c *Container, opts ...ResolveOption) (TService, error) {
	cfg := applyResolveOptions(opts)
	var zero TService

	var v any
	var err error
	if cfg.args != nil {
		v, err = c.compiler.TryResolveArgs(serviceTypeOf[TService](), cfg.name, cfg.args)
	} else {
		v, err = c.compiler.TryResolve(serviceTypeOf[TService](), cfg.name)
	}
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	return castTo[TService](v)
}

// ResolveAll gathers every registration of TService — exact and, when
// variance is enabled, covariantly assignable ones — in registration order.
func ResolveAll[TService any](c *Container) ([]TService, error) {
	raw, err := c.compiler.ResolveAll(serviceTypeOf[TService]())
	if err != nil {
		return nil, err
	}
	out := make([]TService, 0, len(raw))
	for _, v := range raw {
		t, err := castTo[TService](v)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// ResolveGeneric resolves an open-generic family registered via
// RegisterGeneric, closing it over typeArgs. familyKey
// must be the same reflect.Type passed to RegisterGeneric. Go cannot
// recover a generic type's instantiation arguments from an arbitrary
// closed reflect.Type, so the caller supplies them explicitly rather than
// the container inferring them from a requested closed-generic type; see
// RegisterGeneric and DESIGN.md.
func ResolveGeneric[TService any](c *Container, familyKey reflect.Type, typeArgs []reflect.Type, opts ...ResolveOption) (TService, error) {
	cfg := applyResolveOptions(opts)
	var zero TService

	v, err := c.compiler.ResolveGeneric(familyKey, cfg.name, typeArgs)
	if err != nil {
		return zero, err
	}
	return castTo[TService](v)
}

func castTo[TService any](v any) (TService, error) {
	var zero TService
	if v == nil {
		return zero, nil
	}
	t, ok := v.(TService)
	if !ok {
		return zero, fmt.Errorf("lightinject: resolved value %T does not satisfy the requested service type %T", v, zero)
	}
	return t, nil
}
