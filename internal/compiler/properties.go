package compiler

import (
	"fmt"
	"reflect"

	"github.com/feO2x/lightinject/internal/planner"
)

// InjectProperties sets every discovered property dependency on an
// externally supplied instance without constructing it, using a per-type
// delegate cached in a copy-on-write table so repeated injection into the
// same type only pays the reflection-planning cost once.
func (c *Compiler) InjectProperties(instance any) (any, error) {
	if instance == nil {
		return nil, fmt.Errorf("lightinject: cannot inject properties into a nil instance")
	}

	t := reflect.TypeOf(instance)
	if t.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("lightinject: property injection requires a pointer, got %s", t)
	}

	if fn, snap, ok := c.props.Get(t); ok {
		return fn(snap, instance)
	}

	deps := planner.PropertyDependencies(t.Elem())
	resolvers := make([]depResolver, len(deps))
	for i, dep := range deps {
		r, err := c.dependencyResolver(&dep.Dependency, rootFrame())
		if err != nil {
			return nil, err
		}
		resolvers[i] = r
	}

	fn := func(consts []any, target any) (any, error) {
		v := reflect.ValueOf(target).Elem()
		for i, dep := range deps {
			val, err := resolvers[i](nil)
			if err != nil {
				continue // property dependencies are optional
			}
			v.Field(dep.FieldIndex()).Set(val)
		}
		return target, nil
	}

	c.props.Publish(t, fn, c.consts.Snapshot())
	return fn(c.consts.Snapshot(), instance)
}
