// Package echo provides lightinject integration for the Echo web framework:
// middleware that begins a request-scoped Scope for each request, and a
// type-safe handler wrapper that resolves a controller from the container.
//
// Example usage:
//
//	e := echo.New()
//	e.Use(lightinjectecho.ScopeMiddleware(container))
//
//	e.POST("/login", lightinjectecho.Handle(container, AuthController.Login))
//	e.GET("/users/:id", lightinjectecho.Handle(container, UserController.GetByID))
package echo

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/feO2x/lightinject"
)

// Config holds the configuration for the scope middleware.
type Config struct {
	// ErrorHandler is called when scope creation fails.
	ErrorHandler func(echo.Context, error) error

	// CloseErrorHandler is called when scope closing fails.
	CloseErrorHandler func(error)

	// Middlewares run after the scope begins, in order.
	Middlewares []func(*lightinject.Scope, echo.Context) error
}

// Option configures the scope middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for scope creation failures.
func WithErrorHandler(h func(echo.Context, error) error) Option {
	return func(c *Config) { c.ErrorHandler = h }
}

// WithCloseErrorHandler sets the error handler for scope close failures.
func WithCloseErrorHandler(h func(error)) Option {
	return func(c *Config) { c.CloseErrorHandler = h }
}

// WithMiddleware adds a middleware run after the scope begins.
func WithMiddleware(mw func(*lightinject.Scope, echo.Context) error) Option {
	return func(c *Config) { c.Middlewares = append(c.Middlewares, mw) }
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
		},
		CloseErrorHandler: func(err error) {
			slog.Error("failed to close scope", "error", err)
		},
	}
}

// ScopeMiddleware creates an Echo middleware that begins a request-scoped
// Scope for each request on container, ending it once the request completes.
func ScopeMiddleware(container *lightinject.Container, opts ...Option) echo.MiddlewareFunc {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			scope := container.BeginScope()
			defer func() {
				if err := scope.End(); err != nil {
					cfg.CloseErrorHandler(err)
				}
			}()

			for _, mw := range cfg.Middlewares {
				if err := mw(scope, c); err != nil {
					return cfg.ErrorHandler(c, err)
				}
			}

			return next(c)
		}
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	PanicRecovery          bool
	PanicHandler           func(echo.Context, any) error
	ResolutionErrorHandler func(echo.Context, error) error
}

// HandlerOption configures the Handle wrapper.
type HandlerOption func(*HandlerConfig)

// WithPanicRecovery enables or disables panic recovery in the handler.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) { c.PanicRecovery = enabled }
}

// WithPanicHandler sets the handler for recovered panics.
func WithPanicHandler(h func(echo.Context, any) error) HandlerOption {
	return func(c *HandlerConfig) { c.PanicHandler = h }
}

// WithResolutionErrorHandler sets the error handler for resolution failures.
func WithResolutionErrorHandler(h func(echo.Context, error) error) HandlerOption {
	return func(c *HandlerConfig) { c.ResolutionErrorHandler = h }
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicHandler: func(c echo.Context, v any) error {
			slog.Error("panic in handler", "panic", v)
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
		},
		ResolutionErrorHandler: func(c echo.Context, err error) error {
			slog.Error("failed to resolve controller", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
		},
	}
}

// Handle wraps a controller method for type-safe resolution from container's
// current request scope.
//
// The method signature should be: func(T, echo.Context) error.
func Handle[T any](container *lightinject.Container, method func(T, echo.Context) error, opts ...HandlerOption) echo.HandlerFunc {
	cfg := defaultHandlerConfig()
	for _, o := range opts {
		o(cfg)
	}

	return func(c echo.Context) (err error) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					err = cfg.PanicHandler(c, v)
				}
			}()
		}

		controller, resolveErr := lightinject.Resolve[T](container)
		if resolveErr != nil {
			return cfg.ResolutionErrorHandler(c, resolveErr)
		}

		return method(controller, c)
	}
}
