// Package emittable implements the hot resolve path's lock-free lookup
// table: identity -> compiled delegate, and (identity, name) -> compiled
// delegate. Readers take an atomic snapshot pointer and never lock;
// writers build a new snapshot and publish it with a single atomic swap.
package emittable

import (
	"sync"
	"sync/atomic"

	"github.com/feO2x/lightinject/internal/identity"
)

// GetInstance is the compiled delegate shape: given a constants snapshot,
// produce an instance.
type GetInstance func(constants []any) (any, error)

// entry is one compiled delegate plus the constants snapshot it captures
// by index.
type entry struct {
	fn        GetInstance
	constants []any
}

// snapshot is one immutable generation of the table. Every publish builds a
// brand new snapshot map; existing snapshots already read by other
// goroutines are left untouched (copy-on-write).
type snapshot struct {
	byKey map[identity.Key]*entry
}

// Table is the copy-on-write compiled-delegate cache. The zero value is not
// usable; construct with New.
//
// A hashed-array-trie with incremental bucket replacement would scale
// better under high publish churn, but compiled-delegate publication
// happens at most once per (identity, name) over the container's lifetime
// (subsequent registrations are rejected once locked), so the map stays
// small and infrequently rebuilt — a whole-map atomic swap is simpler and
// sufficient. See DESIGN.md.
type Table struct {
	ptr       atomic.Pointer[snapshot]
	publishMu sync.Mutex
}

// New returns an empty Table.
func New() *Table {
	t := &Table{}
	t.ptr.Store(&snapshot{byKey: make(map[identity.Key]*entry)})
	return t
}

// Get returns the compiled delegate and its constants snapshot for key, if
// published. This path takes no lock.
func (t *Table) Get(key identity.Key) (GetInstance, []any, bool) {
	snap := t.ptr.Load()
	e, ok := snap.byKey[key]
	if !ok {
		return nil, nil, false
	}
	return e.fn, e.constants, true
}

// Publish installs fn (closing over constants) for key. If key is already
// published, the existing entry wins and Publish reports false — compiled
// delegates are never overwritten, so each (identity, name) is compiled
// exactly once.
func (t *Table) Publish(key identity.Key, fn GetInstance, constants []any) bool {
	t.publishMu.Lock()
	defer t.publishMu.Unlock()

	old := t.ptr.Load()
	if _, exists := old.byKey[key]; exists {
		return false
	}

	next := &snapshot{byKey: make(map[identity.Key]*entry, len(old.byKey)+1)}
	for k, v := range old.byKey {
		next.byKey[k] = v
	}
	next.byKey[key] = &entry{fn: fn, constants: constants}

	t.ptr.Store(next)
	return true
}

// Len reports the number of published delegates.
func (t *Table) Len() int {
	return len(t.ptr.Load().byKey)
}
