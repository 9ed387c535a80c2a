// Package gin provides lightinject integration for the Gin web framework:
// middleware that begins a request-scoped Scope for each request, and a
// type-safe handler wrapper that resolves a controller from the container
// for the request's goroutine-local scope.
//
// Example usage:
//
//	g := gin.New()
//	g.Use(lightinjectgin.ScopeMiddleware(container))
//
//	g.POST("/login", lightinjectgin.Handle(container, AuthController.Login))
//	g.GET("/users/:id", lightinjectgin.Handle(container, UserController.GetByID))
package gin

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feO2x/lightinject"
)

// Config holds the configuration for the scope middleware.
type Config struct {
	// ErrorHandler is called when scope creation fails.
	ErrorHandler func(*gin.Context, error)

	// CloseErrorHandler is called when scope closing fails.
	CloseErrorHandler func(error)

	// Middlewares run after the scope begins, in order.
	Middlewares []func(*lightinject.Scope, *gin.Context) error
}

// Option configures the scope middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for scope creation failures.
func WithErrorHandler(h func(*gin.Context, error)) Option {
	return func(c *Config) { c.ErrorHandler = h }
}

// WithCloseErrorHandler sets the error handler for scope close failures.
func WithCloseErrorHandler(h func(error)) Option {
	return func(c *Config) { c.CloseErrorHandler = h }
}

// WithMiddleware adds a middleware run after the scope begins.
func WithMiddleware(mw func(*lightinject.Scope, *gin.Context) error) Option {
	return func(c *Config) { c.Middlewares = append(c.Middlewares, mw) }
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(c *gin.Context, err error) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		},
		CloseErrorHandler: func(err error) {
			slog.Error("failed to close scope", "error", err)
		},
	}
}

// ScopeMiddleware creates a gin.HandlerFunc that begins a request-scoped
// Scope for each request on container, ending it (disposing every instance
// it owns) once the request completes.
func ScopeMiddleware(container *lightinject.Container, opts ...Option) gin.HandlerFunc {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}

	return func(c *gin.Context) {
		scope := container.BeginScope()
		defer func() {
			if err := scope.End(); err != nil {
				cfg.CloseErrorHandler(err)
			}
		}()

		for _, mw := range cfg.Middlewares {
			if err := mw(scope, c); err != nil {
				cfg.ErrorHandler(c, err)
				return
			}
		}

		c.Next()
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	PanicRecovery          bool
	PanicHandler           func(*gin.Context, any)
	ResolutionErrorHandler func(*gin.Context, error)
}

// HandlerOption configures the Handle wrapper.
type HandlerOption func(*HandlerConfig)

// WithPanicRecovery enables or disables panic recovery in the handler.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) { c.PanicRecovery = enabled }
}

// WithPanicHandler sets the handler for recovered panics.
func WithPanicHandler(h func(*gin.Context, any)) HandlerOption {
	return func(c *HandlerConfig) { c.PanicHandler = h }
}

// WithResolutionErrorHandler sets the error handler for resolution failures.
func WithResolutionErrorHandler(h func(*gin.Context, error)) HandlerOption {
	return func(c *HandlerConfig) { c.ResolutionErrorHandler = h }
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicHandler: func(c *gin.Context, r any) {
			slog.Error("panic in handler", "panic", r)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		},
		ResolutionErrorHandler: func(c *gin.Context, err error) {
			slog.Error("failed to resolve controller", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		},
	}
}

// Handle wraps a controller method for type-safe resolution from container's
// current request scope (the one ScopeMiddleware began on this goroutine).
//
// The method signature should be: func(T, *gin.Context).
func Handle[T any](container *lightinject.Container, method func(T, *gin.Context), opts ...HandlerOption) gin.HandlerFunc {
	cfg := defaultHandlerConfig()
	for _, o := range opts {
		o(cfg)
	}

	return func(c *gin.Context) {
		if cfg.PanicRecovery {
			defer func() {
				if r := recover(); r != nil {
					cfg.PanicHandler(c, r)
				}
			}()
		}

		controller, err := lightinject.Resolve[T](container)
		if err != nil {
			cfg.ResolutionErrorHandler(c, err)
			return
		}

		method(controller, c)
	}
}
