package emittable

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// InjectProperties is the property-injection delegate shape: given a
// constants snapshot and an already-constructed instance, set every
// discovered property dependency on it and return it.
type InjectProperties func(constants []any, instance any) (any, error)

type propertyEntry struct {
	fn        InjectProperties
	constants []any
}

type propertySnapshot struct {
	byType map[reflect.Type]*propertyEntry
}

// PropertyTable is the copy-on-write cache of per-type property-injection
// delegates.
type PropertyTable struct {
	ptr       atomic.Pointer[propertySnapshot]
	publishMu sync.Mutex
}

// NewPropertyTable returns an empty PropertyTable.
func NewPropertyTable() *PropertyTable {
	t := &PropertyTable{}
	t.ptr.Store(&propertySnapshot{byType: make(map[reflect.Type]*propertyEntry)})
	return t
}

// Get returns the property-injection delegate for t, if published.
func (pt *PropertyTable) Get(t reflect.Type) (InjectProperties, []any, bool) {
	snap := pt.ptr.Load()
	e, ok := snap.byType[t]
	if !ok {
		return nil, nil, false
	}
	return e.fn, e.constants, true
}

// Publish installs fn for t. Returns false without overwriting if t is
// already published.
func (pt *PropertyTable) Publish(t reflect.Type, fn InjectProperties, constants []any) bool {
	pt.publishMu.Lock()
	defer pt.publishMu.Unlock()

	old := pt.ptr.Load()
	if _, exists := old.byType[t]; exists {
		return false
	}

	next := &propertySnapshot{byType: make(map[reflect.Type]*propertyEntry, len(old.byType)+1)}
	for k, v := range old.byType {
		next.byType[k] = v
	}
	next.byType[t] = &propertyEntry{fn: fn, constants: constants}

	pt.ptr.Store(next)
	return true
}
