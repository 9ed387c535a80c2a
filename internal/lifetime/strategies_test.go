package lifetime

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDisposable struct{ disposed bool }

func (f *fakeDisposable) Dispose() error {
	f.disposed = true
	return nil
}

type fakeScope struct {
	mu    sync.Mutex
	owned []Disposable
	cache map[any]any
}

func newFakeScope() *fakeScope { return &fakeScope{cache: map[any]any{}} }

func (s *fakeScope) Own(d Disposable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owned = append(s.owned, d)
}

func (s *fakeScope) CacheGet(key any) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache[key]
	return v, ok
}

func (s *fakeScope) CacheSet(key any, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = v
}

func TestTransient(t *testing.T) {
	strat := Transient()
	assert.Equal(t, "Transient", strat.Name())
	assert.True(t, IsTransientOrNil(strat))
	assert.True(t, IsTransientOrNil(nil))

	calls := 0
	create := func() (any, error) { calls++; return calls, nil }

	v1, err := strat.GetInstance(create, nil)
	require.NoError(t, err)
	v2, err := strat.GetInstance(create, nil)
	require.NoError(t, err)

	assert.NotEqual(t, v1, v2, "transient must create a fresh instance every call")
}

func TestPerRequest(t *testing.T) {
	t.Run("transfers disposable ownership to the scope", func(t *testing.T) {
		strat := PerRequest()
		d := &fakeDisposable{}
		scope := newFakeScope()

		v, err := strat.GetInstance(func() (any, error) { return d, nil }, scope)
		require.NoError(t, err)
		assert.Same(t, d, v)
		assert.Equal(t, []Disposable{d}, scope.owned)
	})

	t.Run("errors when disposable but no scope is active", func(t *testing.T) {
		strat := PerRequest()
		d := &fakeDisposable{}

		_, err := strat.GetInstance(func() (any, error) { return d, nil }, nil)
		assert.Error(t, err)
	})

	t.Run("non-disposable instance needs no scope", func(t *testing.T) {
		strat := PerRequest()
		v, err := strat.GetInstance(func() (any, error) { return "plain", nil }, nil)
		require.NoError(t, err)
		assert.Equal(t, "plain", v)
	})

	t.Run("propagates create errors", func(t *testing.T) {
		strat := PerRequest()
		wantErr := errors.New("boom")
		_, err := strat.GetInstance(func() (any, error) { return nil, wantErr }, nil)
		assert.Equal(t, wantErr, err)
	})
}

func TestPerScope(t *testing.T) {
	t.Run("caches the first instance per scope", func(t *testing.T) {
		strat := PerScope()
		scope := newFakeScope()
		calls := 0
		create := func() (any, error) { calls++; return calls, nil }

		v1, err := strat.GetInstance(create, scope)
		require.NoError(t, err)
		v2, err := strat.GetInstance(create, scope)
		require.NoError(t, err)

		assert.Equal(t, v1, v2)
		assert.Equal(t, 1, calls)
	})

	t.Run("each strategy value is its own cache key", func(t *testing.T) {
		strat1 := PerScope()
		strat2 := PerScope()
		scope := newFakeScope()

		v1, err := strat1.GetInstance(func() (any, error) { return 1, nil }, scope)
		require.NoError(t, err)
		v2, err := strat2.GetInstance(func() (any, error) { return 2, nil }, scope)
		require.NoError(t, err)

		assert.NotEqual(t, v1, v2)
	})

	t.Run("owns disposables on first construction only", func(t *testing.T) {
		strat := PerScope()
		scope := newFakeScope()
		d := &fakeDisposable{}
		create := func() (any, error) { return d, nil }

		_, err := strat.GetInstance(create, scope)
		require.NoError(t, err)
		_, err = strat.GetInstance(create, scope)
		require.NoError(t, err)

		assert.Len(t, scope.owned, 1)
	})

	t.Run("errors with no active scope", func(t *testing.T) {
		strat := PerScope()
		_, err := strat.GetInstance(func() (any, error) { return 1, nil }, nil)
		assert.Error(t, err)
	})
}

func TestPerContainer(t *testing.T) {
	t.Run("materializes exactly once", func(t *testing.T) {
		strat := PerContainer()
		calls := 0
		create := func() (any, error) { calls++; return calls, nil }

		v1, err := strat.GetInstance(create, nil)
		require.NoError(t, err)
		v2, err := strat.GetInstance(create, nil)
		require.NoError(t, err)

		assert.Equal(t, v1, v2)
		assert.Equal(t, 1, calls)
	})

	t.Run("concurrent first resolvers race harmlessly", func(t *testing.T) {
		strat := PerContainer()
		var calls int
		var mu sync.Mutex
		create := func() (any, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return "singleton", nil
		}

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = strat.GetInstance(create, nil)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, calls)
	})

	t.Run("Dispose disposes the cached instance once", func(t *testing.T) {
		strat := PerContainer().(*perContainer)
		d := &fakeDisposable{}
		_, err := strat.GetInstance(func() (any, error) { return d, nil }, nil)
		require.NoError(t, err)

		require.NoError(t, strat.Dispose())
		assert.True(t, d.disposed)

		d.disposed = false
		require.NoError(t, strat.Dispose())
		assert.False(t, d.disposed, "second Dispose must be a no-op")
	})

	t.Run("Dispose on a non-disposable instance is a no-op", func(t *testing.T) {
		strat := PerContainer().(*perContainer)
		_, err := strat.GetInstance(func() (any, error) { return "plain", nil }, nil)
		require.NoError(t, err)
		assert.NoError(t, strat.Dispose())
	})
}
