// Package chi provides lightinject integration for the Chi router:
// middleware that begins a request-scoped Scope for each request, and a
// type-safe handler wrapper that resolves a controller from the container.
//
// Example usage:
//
//	r := chi.NewRouter()
//	r.Use(lightinjectchi.ScopeMiddleware(container))
//
//	r.Post("/login", lightinjectchi.Handle(container, AuthController.Login))
//	r.Get("/users/{id}", lightinjectchi.Handle(container, UserController.GetByID))
package chi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/feO2x/lightinject"
)

// Config holds the configuration for the scope middleware.
type Config struct {
	// ErrorHandler is called when scope creation fails.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)

	// CloseErrorHandler is called when scope closing fails.
	CloseErrorHandler func(error)

	// Middlewares run after the scope begins, in order.
	Middlewares []func(*lightinject.Scope, *http.Request) error
}

// Option configures the scope middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for scope creation failures.
func WithErrorHandler(h func(http.ResponseWriter, *http.Request, error)) Option {
	return func(c *Config) { c.ErrorHandler = h }
}

// WithCloseErrorHandler sets the error handler for scope close failures.
func WithCloseErrorHandler(h func(error)) Option {
	return func(c *Config) { c.CloseErrorHandler = h }
}

// WithMiddleware adds a middleware run after the scope begins.
func WithMiddleware(mw func(*lightinject.Scope, *http.Request) error) Option {
	return func(c *Config) { c.Middlewares = append(c.Middlewares, mw) }
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
		CloseErrorHandler: func(err error) {
			slog.Error("failed to close scope", "error", err)
		},
	}
}

// ScopeMiddleware creates a Chi middleware that begins a request-scoped
// Scope for each request on container, ending it once the request completes.
func ScopeMiddleware(container *lightinject.Container, opts ...Option) func(http.Handler) http.Handler {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := container.BeginScope()
			defer func() {
				if err := scope.End(); err != nil {
					cfg.CloseErrorHandler(err)
				}
			}()

			for _, mw := range cfg.Middlewares {
				if err := mw(scope, r); err != nil {
					cfg.ErrorHandler(w, r, err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Mount registers ScopeMiddleware on r. r is typed as chi.Router rather
// than *chi.Mux so it also accepts the sub-router chi hands to
// r.Route(pattern, func(r chi.Router) { ... }) callbacks, letting callers
// scope a container to a route group instead of the whole mux.
func Mount(r chi.Router, container *lightinject.Container, opts ...Option) {
	r.Use(ScopeMiddleware(container, opts...))
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	PanicRecovery          bool
	PanicHandler           func(http.ResponseWriter, *http.Request, any)
	ResolutionErrorHandler func(http.ResponseWriter, *http.Request, error)
}

// HandlerOption configures the Handle wrapper.
type HandlerOption func(*HandlerConfig)

// WithPanicRecovery enables or disables panic recovery in the handler.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) { c.PanicRecovery = enabled }
}

// WithPanicHandler sets the handler for recovered panics.
func WithPanicHandler(h func(http.ResponseWriter, *http.Request, any)) HandlerOption {
	return func(c *HandlerConfig) { c.PanicHandler = h }
}

// WithResolutionErrorHandler sets the error handler for resolution failures.
func WithResolutionErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) { c.ResolutionErrorHandler = h }
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicHandler: func(w http.ResponseWriter, r *http.Request, v any) {
			slog.Error("panic in handler", "panic", v)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
		ResolutionErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("failed to resolve controller", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
	}
}

// Handle wraps a controller method for type-safe resolution from container's
// current request scope.
//
// The method signature should be: func(T, http.ResponseWriter, *http.Request).
func Handle[T any](container *lightinject.Container, method func(T, http.ResponseWriter, *http.Request), opts ...HandlerOption) http.HandlerFunc {
	cfg := defaultHandlerConfig()
	for _, o := range opts {
		o(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					cfg.PanicHandler(w, r, v)
				}
			}()
		}

		controller, err := lightinject.Resolve[T](container)
		if err != nil {
			cfg.ResolutionErrorHandler(w, r, err)
			return
		}

		method(controller, w, r)
	}
}
