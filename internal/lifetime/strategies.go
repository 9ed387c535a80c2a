package lifetime

import (
	"fmt"
	"sync"
)

// Transient returns the transient strategy: create() every call, no tracking.
func Transient() Strategy { return transientSingleton }

type transient struct{}

var transientSingleton = &transient{}

func (*transient) Name() string { return "Transient" }

func (*transient) GetInstance(create func() (any, error), _ ScopeHandle) (any, error) {
	return create()
}

// PerRequest returns the per-request strategy: create() every call; if the
// result is disposable, ownership transfers to the current scope.
func PerRequest() Strategy { return perRequestSingleton }

type perRequest struct{}

var perRequestSingleton = &perRequest{}

func (*perRequest) Name() string { return "PerRequest" }

func (*perRequest) GetInstance(create func() (any, error), scope ScopeHandle) (any, error) {
	instance, err := create()
	if err != nil {
		return nil, err
	}

	if d, ok := instance.(Disposable); ok {
		if scope == nil {
			return nil, fmt.Errorf("lifetime: per-request instance %T is disposable but no scope is active to own it", instance)
		}
		scope.Own(d)
	}

	return instance, nil
}

// PerScope returns a fresh per-scope strategy instance. Each registration
// that uses PerScope needs its own strategy value: the value itself is the
// cache key scopes use to store "first instance created in this scope."
func PerScope() Strategy {
	return &perScope{}
}

type perScope struct{}

func (s *perScope) Name() string { return "PerScope" }

func (s *perScope) GetInstance(create func() (any, error), scope ScopeHandle) (any, error) {
	if scope == nil {
		return nil, fmt.Errorf("lifetime: per-scope registration resolved with no active scope")
	}

	if cached, ok := scope.CacheGet(s); ok {
		return cached, nil
	}

	instance, err := create()
	if err != nil {
		return nil, err
	}

	scope.CacheSet(s, instance)
	if d, ok := instance.(Disposable); ok {
		scope.Own(d)
	}

	return instance, nil
}

// PerContainer returns a fresh per-container (singleton) strategy instance,
// backed by a sync.Once so concurrent first-resolvers race harmlessly and
// only one of them actually calls create.
func PerContainer() Strategy {
	return &perContainer{}
}

type perContainer struct {
	once     sync.Once
	instance any
	err      error
	disposed bool
	mu       sync.Mutex
}

func (s *perContainer) Name() string { return "PerContainer" }

func (s *perContainer) GetInstance(create func() (any, error), _ ScopeHandle) (any, error) {
	s.once.Do(func() {
		s.instance, s.err = create()
	})
	return s.instance, s.err
}

// Dispose disposes the cached singleton instance, if any and if disposable.
// Called when the owning container is disposed.
func (s *perContainer) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return nil
	}
	s.disposed = true

	if d, ok := s.instance.(Disposable); ok {
		return d.Dispose()
	}
	return nil
}
