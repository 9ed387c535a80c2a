package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feO2x/lightinject"
)

type greeterController struct {
	calls *int
}

func newGreeterController(calls *int) *greeterController {
	return &greeterController{calls: calls}
}

func (g *greeterController) Greet(w http.ResponseWriter, r *http.Request) {
	*g.calls++
	w.WriteHeader(http.StatusOK)
}

func TestScopeMiddlewareAndHandle(t *testing.T) {
	c := lightinject.New()
	calls := 0
	require.NoError(t, lightinject.RegisterValue(c, &calls))
	require.NoError(t, lightinject.Register[*greeterController](c, newGreeterController, lightinject.WithLifetime(lightinject.PerScope())))

	handler := ScopeMiddleware(c)(Handle(c, (*greeterController).Greet))

	req := httptest.NewRequest(http.MethodGet, "/greet", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestScopeMiddlewareEndsScopeOnDispose(t *testing.T) {
	c := lightinject.New()
	disposed := false
	require.NoError(t, lightinject.RegisterFactory[*disposableService](c, func(*lightinject.Container) (*disposableService, error) {
		return &disposableService{disposed: &disposed}, nil
	}, lightinject.WithLifetime(lightinject.PerRequest())))

	var handlerErr error
	handler := ScopeMiddleware(c, WithMiddleware(func(scope *lightinject.Scope, r *http.Request) error {
		_, err := lightinject.Resolve[*disposableService](c)
		handlerErr = err
		return err
	}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NoError(t, handlerErr)
	assert.True(t, disposed)
}

func TestMountRegistersScopeMiddlewareOnRouter(t *testing.T) {
	c := lightinject.New()
	calls := 0
	require.NoError(t, lightinject.RegisterValue(c, &calls))
	require.NoError(t, lightinject.Register[*greeterController](c, newGreeterController, lightinject.WithLifetime(lightinject.PerScope())))

	r := chi.NewRouter()
	Mount(r, c)
	r.Get("/greet", Handle(c, (*greeterController).Greet))

	req := httptest.NewRequest(http.MethodGet, "/greet", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls)
}

type disposableService struct {
	disposed *bool
}

func (d *disposableService) Dispose() error {
	*d.disposed = true
	return nil
}
