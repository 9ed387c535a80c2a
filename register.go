package lightinject

import (
	"fmt"
	"reflect"

	"github.com/feO2x/lightinject/internal/identity"
	"github.com/feO2x/lightinject/internal/registry"
)

// RegisterOption configures a single registration call.
// Functions, not a struct literal, since Go has no optional-named-argument
// syntax — a With* option pattern instead.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	name         identity.Name
	lifetime     Lifetime
	constructors []reflect.Value
}

// WithName registers under a named slot instead of the default, unnamed one.
func WithName(name string) RegisterOption {
	return func(c *registerConfig) { c.name = identity.Name(name) }
}

// WithLifetime selects the reuse policy; Transient() is the default when
// omitted.
func WithLifetime(l Lifetime) RegisterOption {
	return func(c *registerConfig) { c.lifetime = l }
}

// WithConstructors supplies additional candidate constructors beyond the
// primary one passed to Register, so the planner's "most resolvable
// constructor" rule has more than one candidate to choose
// from. Each candidate must be a func returning (TService[, error]) or
// (*Impl[, error]).
func WithConstructors(ctors ...any) RegisterOption {
	return func(c *registerConfig) {
		for _, ctor := range ctors {
			c.constructors = append(c.constructors, reflect.ValueOf(ctor))
		}
	}
}

func applyOptions(opts []RegisterOption) registerConfig {
	var cfg registerConfig
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// Register maps TService to implementations produced by ctor, a
// constructor function of the shape func(deps...) (Impl[, error]) or
// func(deps...) (*Impl[, error]) where Impl implements (or is) TService.
func Register[TService any](c *Container, ctor any, opts ...RegisterOption) error {
	return RegisterType(c, serviceTypeOf[TService](), ctor, opts...)
}

// RegisterType registers serviceType (a runtime reflect.Type token) the same
// way the generic Register[TService] does, for collaborators that only have
// a reflect.Type in hand and cannot name TService at compile time — notably
// integration/scan's assembly-scanner stand-in.
func RegisterType(c *Container, serviceType reflect.Type, ctor any, opts ...RegisterOption) error {
	cfg := applyOptions(opts)

	ctorVal := reflect.ValueOf(ctor)
	if ctorVal.Kind() != reflect.Func {
		return fmt.Errorf("lightinject: Register ctor must be a function, got %T", ctor)
	}
	if ctorVal.Type().NumOut() == 0 {
		return fmt.Errorf("lightinject: Register ctor must return at least one value")
	}

	implType := ctorVal.Type().Out(0)
	constructors := append([]reflect.Value{ctorVal}, cfg.constructors...)

	lt := cfg.lifetime
	if lt == nil {
		lt = Transient()
	}
	c.trackLifetime(lt)

	reg := &registry.Registration{
		ServiceIdentity:      serviceType,
		ImplementingIdentity: implType,
		Constructors:         constructors,
		ServiceName:          cfg.name,
		Lifetime:             lt,
	}
	return c.registry.Register(reg)
}

// RegisterValue registers a pre-built instance; it is implicitly
// PerContainer.
func RegisterValue[TService any](c *Container, value TService, opts ...RegisterOption) error {
	cfg := applyOptions(opts)
	reg := &registry.Registration{
		ServiceIdentity: serviceTypeOf[TService](),
		ServiceName:     cfg.name,
		Value:           value,
		HasValue:        true,
		Lifetime:        PerContainer(),
	}
	c.trackLifetime(reg.Lifetime)
	return c.registry.Register(reg)
}

// RegisterFactory registers an opaque factory closure that builds TService
// using the container to resolve its own dependencies. Use this when construction needs logic beyond what
// the planner's reflective constructor-call can express.
func RegisterFactory[TService any](c *Container, factory func(*Container) (TService, error), opts ...RegisterOption) error {
	cfg := applyOptions(opts)

	lt := cfg.lifetime
	if lt == nil {
		lt = Transient()
	}
	c.trackLifetime(lt)

	reg := &registry.Registration{
		ServiceIdentity: serviceTypeOf[TService](),
		ServiceName:     cfg.name,
		Factory: func(registry.ServiceFactory) (any, error) {
			return factory(c)
		},
		Lifetime: lt,
	}
	return c.registry.Register(reg)
}

// RegisterGeneric registers an open-generic family under familyKey (the
// generic type's own reflect.Type, e.g. reflect.TypeOf((*Repository[Placeholder])(nil)).Elem()
// is NOT usable in Go — callers instead pass a stable marker type unique to
// the family, per generics.go's documented ResolveGeneric workaround for
// Go's inability to decompose a closed generic type back into its type
// arguments. build receives the concrete
// type arguments the caller supplies at ResolveGeneric time and must return
// a constructor function for that closed instantiation.
func RegisterGeneric(c *Container, familyKey reflect.Type, build func(args []reflect.Type) (ctor any, err error), opts ...RegisterOption) error {
	cfg := applyOptions(opts)
	reg := &registry.Registration{
		ServiceIdentity: familyKey,
		ServiceName:     cfg.name,
		GenericDefinition: func(args []reflect.Type) (*registry.Registration, error) {
			ctor, err := build(args)
			if err != nil {
				return nil, err
			}
			ctorVal := reflect.ValueOf(ctor)
			// Caching lifetimes get a fresh strategy per closed instantiation,
			// so each instantiation caches its own instance.
			lt := cfg.lifetime
			switch {
			case lt == nil:
				lt = Transient()
			case lt.Name() == "PerContainer":
				lt = PerContainer()
			case lt.Name() == "PerScope":
				lt = PerScope()
			}
			return &registry.Registration{
				ServiceIdentity:      familyKey,
				ImplementingIdentity: ctorVal.Type().Out(0),
				Constructors:         []reflect.Value{ctorVal},
				ServiceName:          cfg.name,
				Lifetime:             lt,
			}, nil
		},
	}
	return c.registry.Register(reg)
}

// Decorate wraps every existing and future TService resolution with
// decorator, a constructor-shaped function taking the decorated instance
// (or Lazy[TService] for lazy decoration) among its parameters and
// returning a new TService.
func Decorate[TService any](c *Container, decorator any, opts ...RegisterOption) error {
	cfg := applyOptions(opts)
	ctorVal := reflect.ValueOf(decorator)
	if ctorVal.Kind() != reflect.Func {
		return fmt.Errorf("lightinject: Decorate decorator must be a function, got %T", decorator)
	}

	d := &registry.Decorator{
		ServiceIdentity:      serviceTypeOf[TService](),
		ImplementingIdentity: ctorVal.Type().Out(0),
		Constructors:         append([]reflect.Value{ctorVal}, cfg.constructors...),
	}
	return c.registry.Decorate(d)
}

// AddFallback registers a rule that supplies a factory for any (identity,
// name) request that would otherwise fail to resolve, evaluated in
// declaration order against the unmatched request.
func AddFallback(c *Container, predicate func(serviceType reflect.Type, name string) bool, factory func(*Container, reflect.Type, string) (any, error), lt Lifetime) {
	if lt == nil {
		lt = Transient()
	}
	c.trackLifetime(lt)
	c.registry.AddFallback(&registry.Fallback{
		Predicate: func(key identity.Key) bool {
			if predicate == nil {
				return true
			}
			return predicate(key.Type, string(key.Name()))
		},
		Factory: func(_ registry.ServiceFactory, key identity.Key) (any, error) {
			return factory(c, key.Type, string(key.Name()))
		},
		Lifetime: lt,
	})
}

// AddOverride registers a rule allowed to rewrite a matching TService
// registration at emit time, e.g. to substitute a test double. rewrite receives the current implementing
// type and name and returns a replacement constructor function (same shape
// Register accepts); returning nil leaves the registration untouched.
func AddOverride[TService any](c *Container, predicate func(serviceType reflect.Type, name string) bool, rewrite func(*Container, reflect.Type, string) any) error {
	want := serviceTypeOf[TService]()
	return c.registry.AddOverride(&registry.Override{
		Predicate: func(reg *registry.Registration) bool {
			if reg.ServiceIdentity != want {
				return false
			}
			if predicate == nil {
				return true
			}
			return predicate(reg.ServiceIdentity, string(reg.ServiceName))
		},
		Rewrite: func(_ registry.ServiceFactory, reg *registry.Registration) *registry.Registration {
			ctor := rewrite(c, reg.ImplementingIdentity, string(reg.ServiceName))
			if ctor == nil {
				return reg
			}
			ctorVal := reflect.ValueOf(ctor)
			replacement := *reg
			replacement.ImplementingIdentity = ctorVal.Type().Out(0)
			replacement.Constructors = []reflect.Value{ctorVal}
			replacement.Factory = nil
			replacement.HasValue = false
			return &replacement
		},
	})
}

// AddInitializer registers a post-construction action run against every
// matching freshly built instance, in declaration order.
func AddInitializer(c *Container, predicate func(serviceType reflect.Type, name string) bool, action func(*Container, any) error) {
	c.registry.AddInitializer(&registry.Initializer{
		Predicate: func(reg *registry.Registration) bool {
			if predicate == nil {
				return true
			}
			return predicate(reg.ServiceIdentity, string(reg.ServiceName))
		},
		Action: func(_ registry.ServiceFactory, instance any) error {
			return action(c, instance)
		},
	})
}
