// Package planner implements the construction planner: it turns a
// ServiceRegistration into a ConstructionInfo describing how to build one
// instance — which constructor to call, in what order to resolve its
// dependencies, and which properties to inject afterward.
//
// Go's reflect package, unlike .NET's, does not preserve function parameter
// names at runtime, so resolving a dependency by parameter name needs an
// explicit carrier: an embedded marker struct (Params) whose exported field
// names survive reflection. A constructor may take ordinary positional
// parameters (no name-based fallback is possible for those, since Go erases
// their names) or a single Params-embedding struct parameter (whose fields
// do carry resolvable names). See DESIGN.md, "Open decision — named
// constructor parameters".
package planner

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/feO2x/lightinject/internal/identity"
	"github.com/feO2x/lightinject/internal/registry"
)

// Params is embedded (anonymously) by constructor parameter-object structs
// that want named/optional dependency injection — the same
// tagged-field naming convention used for property dependencies, applied to
// constructor parameters.
type Params struct{}

var paramsType = reflect.TypeOf(Params{})

// errType recognizes the trailing `error` return many constructors use.
var errType = reflect.TypeOf((*error)(nil)).Elem()

// Dependency describes one constructor-parameter or property dependency.
type Dependency struct {
	ServiceIdentity reflect.Type
	ServiceName     identity.Name
	IsRequired      bool

	// Name is the parameter/property name used for fallback matching
	// against a (type, name) registration
	Name string

	// Factory, when set by the container (a registered constructor- or
	// property-dependency factory for this type), is spliced in by the
	// compiler instead of a recursive resolve.
	Factory func() (any, error)

	// fieldIndex is set for dependencies sourced from a Params struct field
	// or an injected property; -1 for plain positional parameters.
	fieldIndex int
	// paramIndex is the positional index for plain constructor parameters;
	// -1 when the dependency comes from a Params struct field.
	paramIndex int
}

// FieldIndex exposes the struct field index for Params-struct and property
// dependencies (-1 otherwise).
func (d *Dependency) FieldIndex() int { return d.fieldIndex }

// ParamIndex exposes the positional constructor-parameter index for plain
// dependencies (-1 otherwise).
func (d *Dependency) ParamIndex() int { return d.paramIndex }

// PropertyDependency is a discovered property dependency plus the means to
// set it on a freshly constructed instance.
type PropertyDependency struct {
	Dependency
	fieldIndex int
}

// ConstructionInfo describes how to build one instance of a registration.
type ConstructionInfo struct {
	// Constructor is the chosen constructor (nil when Factory is set).
	Constructor reflect.Value
	// ConstructorUsesParams indicates the constructor takes a single
	// Params-embedding struct instead of positional dependencies.
	ConstructorUsesParams bool
	// ParamsType is the concrete Params-struct type when
	// ConstructorUsesParams is true.
	ParamsType reflect.Type

	ConstructorDependencies []*Dependency
	PropertyDependencies []*PropertyDependency

	// Factory is set verbatim when the registration carries an opaque
	// factory closure; no introspection occurred.
	Factory func(registry.ServiceFactory) (any, error)

	// ReturnsError reports whether Constructor's last return value is error.
	ReturnsError bool
}

// Resolvable answers "does a registration exist for (type, name)?" — the
// planner needs this to implement "most resolvable constructor" without
// importing the registry's concurrency internals directly.
type Resolvable func(t reflect.Type, name identity.Name) bool

// Options configures planning behavior not carried on the registration
// itself.
type Options struct {
	// EnablePropertyInjection mirrors the container option of the same name;
	// when false, PropertyDependencies is always empty.
	EnablePropertyInjection bool
}

// Errors produced by constructor selection.
var (
	ErrNoPublicConstructor = fmt.Errorf("no public constructor registered")
	ErrNoResolvableConstructor = fmt.Errorf("no resolvable constructor among candidates")
)

// Plan produces a ConstructionInfo for reg.
func Plan(reg *registry.Registration, resolvable Resolvable, opts Options) (*ConstructionInfo, error) {
	if reg.Factory != nil {
		return &ConstructionInfo{Factory: reg.Factory}, nil
	}

	ctor, err := chooseConstructor(reg, resolvable)
	if err != nil {
		return nil, err
	}

	info := &ConstructionInfo{Constructor: ctor}
	ctorType := ctor.Type()

	info.ReturnsError = ctorType.NumOut() > 0 && ctorType.Out(ctorType.NumOut()-1) == errType

	if ctorType.NumIn() == 1 && isParamsStruct(ctorType.In(0)) {
		info.ConstructorUsesParams = true
		info.ParamsType = ctorType.In(0)
		info.ConstructorDependencies = paramsFieldDependencies(info.ParamsType)
	} else {
		deps := make([]*Dependency, ctorType.NumIn())
		for i := 0; i < ctorType.NumIn(); i++ {
			deps[i] = &Dependency{
				ServiceIdentity: ctorType.In(i),
				IsRequired:      true,
				fieldIndex:      -1,
				paramIndex:      i,
			}
		}
		info.ConstructorDependencies = deps
	}

	if opts.EnablePropertyInjection {
		info.PropertyDependencies = propertyDependencies(reg.ImplementingIdentity)
	}

	return info, nil
}

// chooseConstructor implements the "most resolvable constructor" rule.
func chooseConstructor(reg *registry.Registration, resolvable Resolvable) (reflect.Value, error) {
	candidates := reg.Constructors
	switch len(candidates) {
	case 0:
		return reflect.Value{}, ErrNoPublicConstructor
	case 1:
		return candidates[0], nil
	}

	sorted := make([]reflect.Value, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Type().NumIn() > sorted[j].Type().NumIn()
	})

	for _, c := range sorted {
		if allParamsResolvable(c.Type(), resolvable) {
			return c, nil
		}
	}

	return reflect.Value{}, ErrNoResolvableConstructor
}

func allParamsResolvable(ctorType reflect.Type, resolvable Resolvable) bool {
	if ctorType.NumIn() == 1 && isParamsStruct(ctorType.In(0)) {
		for _, dep := range paramsFieldDependencies(ctorType.In(0)) {
			if !dep.IsRequired {
				continue
			}
			if !resolvable(dep.ServiceIdentity, "") && !resolvable(dep.ServiceIdentity, identity.Name(dep.Name)) {
				return false
			}
		}
		return true
	}

	for i := 0; i < ctorType.NumIn(); i++ {
		t := ctorType.In(i)
		if !resolvable(t, "") {
			return false
		}
	}
	return true
}

func isParamsStruct(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == paramsType {
			return true
		}
	}
	return false
}

func paramsFieldDependencies(structType reflect.Type) []*Dependency {
	deps := make([]*Dependency, 0, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		f := structType.Field(i)
		if f.Anonymous && f.Type == paramsType {
			continue
		}
		if !f.IsExported() {
			continue
		}

		tag := parseTag(f.Tag)
		deps = append(deps, &Dependency{
			ServiceIdentity: f.Type,
			ServiceName:     identity.Name(tag.name),
			IsRequired:      !tag.optional,
			Name:            f.Name,
			fieldIndex:      i,
			paramIndex:      -1,
		})
	}
	return deps
}

// PropertyDependencies discovers settable, `inject:"true"`-tagged fields on
// implementingType, for standalone property injection
// independent of constructing a new instance.
func PropertyDependencies(implementingType reflect.Type) []*PropertyDependency {
	return propertyDependencies(implementingType)
}

// propertyDependencies discovers settable, tagged fields on implementingType.
func propertyDependencies(implementingType reflect.Type) []*PropertyDependency {
	if implementingType == nil {
		return nil
	}

	t := implementingType
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var deps []*PropertyDependency
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := parseTag(f.Tag)
		if !tag.inject {
			continue
		}

		deps = append(deps, &PropertyDependency{
			Dependency: Dependency{
				ServiceIdentity: f.Type,
				ServiceName:     identity.Name(tag.name),
				IsRequired:      false,
				Name:            f.Name,
				fieldIndex:      i,
				paramIndex:      -1,
			},
			fieldIndex: i,
		})
	}
	return deps
}

// FieldIndex exposes the struct field index to the compiler.
func (d *PropertyDependency) FieldIndex() int { return d.fieldIndex }

type parsedTag struct {
	name     string
	optional bool
	inject   bool
}

func parseTag(tag reflect.StructTag) parsedTag {
	return parsedTag{
		name:     tag.Get("name"),
		optional: tag.Get("optional") == "true",
		inject:   tag.Get("inject") == "true",
	}
}
