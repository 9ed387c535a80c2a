package lightinject

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/feO2x/lightinject/internal/compiler"
	"github.com/feO2x/lightinject/internal/lifetime"
	"github.com/feO2x/lightinject/internal/registry"
	internalscope "github.com/feO2x/lightinject/internal/scope"
)

// Disposable is implemented by instances that own resources requiring
// explicit cleanup; PerRequest- and PerScope-lifetime instances implementing
// it are disposed when their owning scope ends, PerContainer instances when
// the container is disposed.
type Disposable = lifetime.Disposable

// Container is the public façade: registration and resolution surface,
// decorator/override/initializer registration, property injection, and
// scope lifecycle. It mirrors a builder-then-provider split — a builder
// phase before the first resolve, then a locked, concurrent-resolve phase
// after — collapsed into one type since this container locks itself
// automatically on first resolve rather than requiring an explicit Build()
// call.
type Container struct {
	opts     ContainerOptions
	registry *registry.Registry
	compiler *compiler.Compiler
	manager  internalscope.Manager

	mu          sync.Mutex
	disposed    bool
	disposables []lifetime.Disposable
	clonedFrom  *Container
}

// New creates a Container. Passing no ContainerOptions uses
// DefaultContainerOptions; passing one overrides it.
func New(opts ...ContainerOptions) *Container {
	var o ContainerOptions
	if len(opts) > 0 {
		o = opts[0]
	} else {
		o = DefaultContainerOptions()
	}
	o = o.withDefaults()
	if o.ScopeManagerProvider == nil {
		o.ScopeManagerProvider = PerThreadScopeManager()
	}

	reg := registry.New(o.LogSink)
	manager := o.ScopeManagerProvider.Get()
	comp := compiler.New(reg, manager, compiler.Options{
		EnableVariance:          *o.EnableVariance,
		EnablePropertyInjection: *o.EnablePropertyInjection,
		MaxResolutionDepth:      o.MaxResolutionDepth,
		LogSink:                 o.LogSink,
	})

	return &Container{opts: o, registry: reg, compiler: comp, manager: manager}
}

func serviceTypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// trackLifetime remembers l if it owns container-scoped disposable state
// (only *PerContainer* strategies do), so Dispose can clean it up.
func (c *Container) trackLifetime(l Lifetime) {
	if l == nil {
		return
	}
	d, ok := l.(lifetime.Disposable)
	if !ok {
		return
	}
	c.mu.Lock()
	c.disposables = append(c.disposables, d)
	c.mu.Unlock()
}

// BeginScope creates a new scope whose parent is the manager's current
// scope.
func (c *Container) BeginScope() *Scope {
	return &Scope{inner: c.manager.BeginScope(), manager: c.manager}
}

// InjectProperties sets every discovered `inject:"true"` dependency on
// instance (which must be a pointer) without constructing it.
func (c *Container) InjectProperties(instance any) (any, error) {
	return c.compiler.InjectProperties(instance)
}

// Create resolves t, requiring that a registration for (t, "") already
// exists. Unlike languages with a zero-argument-constructor convention, Go
// has no way to construct an arbitrary type on the fly, so t must already
// be registered via Register; Create exists only to pair with container
// APIs that take a reflect.Type rather than a compile-time TService.
func (c *Container) Create(t reflect.Type) (any, error) {
	key := registry.Registration{ServiceIdentity: t}
	if _, ok := c.registry.Lookup(key.Key()); !ok {
		return nil, fmt.Errorf("lightinject: Create(%s) requires a prior Register call in this Go rendering (no implicit no-arg construction)", t)
	}
	return c.compiler.Resolve(t, "")
}

// Clone produces an independent container sharing no compiled state but
// mirroring registrations. Decorators, fallbacks, overrides, and
// initializers are NOT copied onto the clone's fresh registry; only plain
// registrations are copied across, each re-keyed on the clone's own
// Sequence counter so enumerable ordering on the clone is independent too.
func (c *Container) Clone() *Container {
	clone := New(c.opts)
	clone.clonedFrom = c
	for _, reg := range c.registry.All() {
		copyReg := *reg
		_ = clone.registry.Register(&copyReg)
	}
	return clone
}

// Dispose disposes every PerContainer lifetime object this container
// created, which in turn disposes their cached singleton instances.
func (c *Container) Dispose() error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.disposed = true
	toDispose := c.disposables
	c.disposables = nil
	c.mu.Unlock()

	var firstErr error
	for i := len(toDispose) - 1; i >= 0; i-- {
		if err := toDispose[i].Dispose(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
