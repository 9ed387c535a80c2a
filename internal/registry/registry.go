package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/feO2x/lightinject/internal/identity"
)

// LogEntry is the shape the container hands to a LogSink.
type LogEntry struct {
	Level   Level
	Message string
}

// Level is a LogEntry severity.
type Level int

const (
	Info Level = iota
	Warning
)

func (l Level) String() string {
	if l == Warning {
		return "warning"
	}
	return "info"
}

// LogSink receives log entries for a category.
type LogSink func(category string) func(LogEntry)

// Registry is the two-level mapping identity -> (name -> Registration),
// plus the append-only decorator/fallback/override/initializer lists layered
// on top of it.
//
// Registry enforces a lock-after-first-resolve rule: once Lock is called,
// Register rejects writes (existing entries retained) and logs a warning
// instead of erroring, while Decorate/AddOverride return an error instead.
type Registry struct {
	mu sync.RWMutex

	registrations map[identity.Key]*Registration

	decorators   []*Decorator
	fallbacks    []*Fallback
	overrides    []*Override
	initializers []*Initializer

	nextDecoratorIndex int
	nextSequence       int
	locked             bool

	logSink LogSink
}

// New creates an empty Registry.
func New(logSink LogSink) *Registry {
	if logSink == nil {
		logSink = func(string) func(LogEntry) { return func(LogEntry) {} }
	}
	return &Registry{
		registrations: make(map[identity.Key]*Registration),
		logSink:       logSink,
	}
}

func (r *Registry) log(category string, level Level, format string, args ...any) {
	r.logSink(category)(LogEntry{Level: level, Message: fmt.Sprintf(format, args...)})
}

// Lock transitions the registry into the locked state. Idempotent.
func (r *Registry) Lock() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = true
}

// Locked reports whether the registry has processed its first resolve.
func (r *Registry) Locked() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.locked
}

// Register inserts or updates reg under its (identity, name). Updates are
// permitted only while unlocked.
func (r *Registry) Register(reg *Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := reg.Key()
	if r.locked {
		if _, exists := r.registrations[key]; exists {
			r.log("registry", Warning, "registration %s rejected: container is locked after first resolve", key)
			return nil
		}
		r.log("registry", Warning, "new registration %s rejected: container is locked after first resolve", key)
		return nil
	}

	reg.Sequence = r.nextSequence
	r.nextSequence++
	r.registrations[key] = reg
	return nil
}

// Lookup returns the registration for key, if any.
func (r *Registry) Lookup(key identity.Key) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.registrations[key]
	return reg, ok
}

// All returns every registration currently stored, in a stable snapshot.
func (r *Registry) All() []*Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Registration, 0, len(r.registrations))
	for _, reg := range r.registrations {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}

// Decorate appends a decorator, assigning it the next monotonic index.
func (r *Registry) Decorate(d *Decorator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locked {
		return fmt.Errorf("registry: cannot add decorator for %v after the container has resolved its first service", d.ServiceIdentity)
	}

	d.Index = r.nextDecoratorIndex
	r.nextDecoratorIndex++
	r.decorators = append(r.decorators, d)
	return nil
}

// DecoratorsFor returns the decorators applicable to reg, tiered
// exact-identity matches first, then open-generic matches, then deferred
// (factory-produced) matches, each tier stable-sorted ascending by index.
func (r *Registry) DecoratorsFor(reg *Registration) []*Decorator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tiers [3][]*Decorator
	for _, d := range r.decorators {
		if d.Matches(reg) {
			t := d.tier()
			tiers[t] = append(tiers[t], d)
		}
	}

	out := make([]*Decorator, 0, len(r.decorators))
	for _, bucket := range tiers {
		sort.SliceStable(bucket, func(i, j int) bool { return bucket[i].Index < bucket[j].Index })
		out = append(out, bucket...)
	}
	return out
}

// AddFallback appends a fallback rule.
func (r *Registry) AddFallback(f *Fallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = append(r.fallbacks, f)
}

// Fallbacks returns the fallback rules in registration order.
func (r *Registry) Fallbacks() []*Fallback {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Fallback, len(r.fallbacks))
	copy(out, r.fallbacks)
	return out
}

// AddOverride appends a ServiceOverride.
func (r *Registry) AddOverride(o *Override) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked {
		return fmt.Errorf("registry: cannot add override after the container has resolved its first service")
	}
	r.overrides = append(r.overrides, o)
	return nil
}

// ApplyOverrides runs every matching override against reg, left to right,
// each receiving the previous override's output.
func (r *Registry) ApplyOverrides(factory ServiceFactory, reg *Registration) *Registration {
	r.mu.RLock()
	overrides := make([]*Override, len(r.overrides))
	copy(overrides, r.overrides)
	r.mu.RUnlock()

	current := reg
	for _, o := range overrides {
		if o.Predicate == nil || o.Predicate(current) {
			current = o.Rewrite(factory, current)
		}
	}
	return current
}

// AddInitializer appends an Initializer.
func (r *Registry) AddInitializer(init *Initializer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initializers = append(r.initializers, init)
}

// RunInitializers invokes every matching initializer, in declaration order,
// against instance.
func (r *Registry) RunInitializers(factory ServiceFactory, reg *Registration, instance any) error {
	r.mu.RLock()
	initializers := make([]*Initializer, len(r.initializers))
	copy(initializers, r.initializers)
	r.mu.RUnlock()

	for _, init := range initializers {
		if init.Predicate == nil || init.Predicate(reg) {
			if err := init.Action(factory, instance); err != nil {
				return err
			}
		}
	}
	return nil
}
