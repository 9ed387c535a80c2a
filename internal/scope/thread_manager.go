package scope

import (
	"sync"

	"github.com/petermattis/goid"
)

// ThreadManager is the "per-thread" scope manager, realized in Go by
// keying current-scope storage off the running goroutine's ID
// (github.com/petermattis/goid reads the runtime's internal goroutine ID).
// Go has no language-level thread-locals, so this is the idiomatic
// substitute.
//
// A scope begun on one goroutine is invisible to another: this manager
// does NOT propagate across goroutine boundaries or async continuations —
// that is ContextManager's job.
type ThreadManager struct {
	mu      sync.Mutex
	current map[int64]*Scope
}

// NewThreadManager creates a per-goroutine scope manager.
func NewThreadManager() *ThreadManager {
	return &ThreadManager{current: make(map[int64]*Scope)}
}

func (m *ThreadManager) Current() *Scope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current[goid.Get()]
}

func (m *ThreadManager) BeginScope() *Scope {
	gid := goid.Get()

	m.mu.Lock()
	parent := m.current[gid]
	m.mu.Unlock()

	child := beginScope(parent, m)

	m.mu.Lock()
	m.current[gid] = child
	m.mu.Unlock()

	return child
}

func (m *ThreadManager) EndScope(s *Scope) error {
	gid := goid.Get()

	m.mu.Lock()
	cur := m.current[gid]
	m.mu.Unlock()

	newCurrent, err := endScope(s, cur)

	m.mu.Lock()
	if newCurrent == nil {
		delete(m.current, gid)
	} else {
		m.current[gid] = newCurrent
	}
	m.mu.Unlock()

	return err
}
