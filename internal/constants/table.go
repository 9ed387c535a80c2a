// Package constants implements the container's constants table: an
// append-only, index-addressable store of values captured by compiled
// resolve delegates (the pre-built instances of value registrations). Runtime
// arguments are not stored in the table; WithRuntimeArgs appends them as a
// trailing slot of a per-call copy of a snapshot.
//
// Emitted delegates never reach into the table by name — they close over a
// slot index chosen at compile time, so the same delegate body works for any
// captured value type, not just resolved instances.
package constants

import "sync"

// Table is an append-only vector of captured values, safe for concurrent
// readers and a single mutex-guarded writer. Readers take a snapshot slice
// header (Go slices sharing the backing array are safe to read concurrently
// with appends as long as the reader only indexes into slots that existed
// when it took its snapshot — Snapshot never shrinks or mutates in place).
type Table struct {
	mu     sync.Mutex
	values []any
}

// New creates an empty constants table.
func New() *Table {
	return &Table{}
}

// Append adds a value and returns the slot index it was stored at.
func (t *Table) Append(value any) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values = append(t.values, value)
	return len(t.values) - 1
}

// Snapshot returns the current backing slice. The returned slice must be
// treated as read-only; subsequent Append calls never mutate already-taken
// snapshots because Go's append semantics only grow-in-place when capacity
// allows, and a reader that holds an old snapshot simply reads now-stale-but
// still-valid slot values it already knew about.
func (t *Table) Snapshot() []any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.values[:len(t.values):len(t.values)]
}

// Len reports the number of constants currently stored.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.values)
}

// WithRuntimeArgs returns a copy of the snapshot with a single extra slot
// appended holding the caller-supplied runtime argument array. Per-call
// runtime arguments are never written back into the shared table — each
// call gets its own trailing slot so parameterized factories stay
// goroutine-safe under concurrent requests.
func WithRuntimeArgs(snapshot []any, args []any) []any {
	cloned := make([]any, len(snapshot)+1)
	copy(cloned, snapshot)
	cloned[len(snapshot)] = args
	return cloned
}
