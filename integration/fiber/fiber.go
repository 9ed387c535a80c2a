// Package fiber provides lightinject integration for the Fiber web
// framework: middleware that begins a request-scoped Scope for each
// request, and a type-safe handler wrapper that resolves a controller
// from the container.
//
// Example usage:
//
//	app := fiber.New()
//	app.Use(lightinjectfiber.ScopeMiddleware(container))
//
//	app.Post("/login", lightinjectfiber.Handle(container, AuthController.Login))
//	app.Get("/users/:id", lightinjectfiber.Handle(container, UserController.GetByID))
package fiber

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/feO2x/lightinject"
)

// scopeKey is the key used to store the scope in fiber.Ctx.Locals.
const scopeKey = "lightinject_scope"

// Config holds the configuration for the scope middleware.
type Config struct {
	// ErrorHandler is called when scope creation fails.
	ErrorHandler func(*fiber.Ctx, error) error

	// CloseErrorHandler is called when scope closing fails.
	CloseErrorHandler func(error)

	// Middlewares run after the scope begins, in order.
	Middlewares []func(*lightinject.Scope, *fiber.Ctx) error
}

// Option configures the scope middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for scope creation failures.
func WithErrorHandler(h func(*fiber.Ctx, error) error) Option {
	return func(c *Config) { c.ErrorHandler = h }
}

// WithCloseErrorHandler sets the error handler for scope close failures.
func WithCloseErrorHandler(h func(error)) Option {
	return func(c *Config) { c.CloseErrorHandler = h }
}

// WithMiddleware adds a middleware run after the scope begins.
func WithMiddleware(mw func(*lightinject.Scope, *fiber.Ctx) error) Option {
	return func(c *Config) { c.Middlewares = append(c.Middlewares, mw) }
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
		},
		CloseErrorHandler: func(err error) {
			slog.Error("failed to close scope", "error", err)
		},
	}
}

// ScopeMiddleware creates a Fiber middleware that begins a request-scoped
// Scope for each request on container, storing it in fiber.Ctx.Locals and
// ending it once the request completes.
func ScopeMiddleware(container *lightinject.Container, opts ...Option) fiber.Handler {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}

	return func(c *fiber.Ctx) error {
		scope := container.BeginScope()
		c.Locals(scopeKey, scope)

		for _, mw := range cfg.Middlewares {
			if err := mw(scope, c); err != nil {
				_ = scope.End()
				return cfg.ErrorHandler(c, err)
			}
		}

		err := c.Next()

		if closeErr := scope.End(); closeErr != nil {
			cfg.CloseErrorHandler(closeErr)
		}

		return err
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	PanicRecovery          bool
	PanicHandler           func(*fiber.Ctx, any) error
	ResolutionErrorHandler func(*fiber.Ctx, error) error
}

// HandlerOption configures the Handle wrapper.
type HandlerOption func(*HandlerConfig)

// WithPanicRecovery enables or disables panic recovery in the handler.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) { c.PanicRecovery = enabled }
}

// WithPanicHandler sets the handler for recovered panics.
func WithPanicHandler(h func(*fiber.Ctx, any) error) HandlerOption {
	return func(c *HandlerConfig) { c.PanicHandler = h }
}

// WithResolutionErrorHandler sets the error handler for resolution failures.
func WithResolutionErrorHandler(h func(*fiber.Ctx, error) error) HandlerOption {
	return func(c *HandlerConfig) { c.ResolutionErrorHandler = h }
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicHandler: func(c *fiber.Ctx, v any) error {
			slog.Error("panic in handler", "panic", v)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
		},
		ResolutionErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("failed to resolve controller", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
		},
	}
}

// Handle wraps a controller method for type-safe resolution from container's
// current request scope.
//
// The method signature should be: func(T, *fiber.Ctx) error.
func Handle[T any](container *lightinject.Container, method func(T, *fiber.Ctx) error, opts ...HandlerOption) fiber.Handler {
	cfg := defaultHandlerConfig()
	for _, o := range opts {
		o(cfg)
	}

	return func(c *fiber.Ctx) (err error) {
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

// FromContext retrieves the request's Scope from fiber.Ctx.Locals. Useful
// when a handler needs to resolve services manually rather than through
// Handle.
func FromContext(c *fiber.Ctx) *lightinject.Scope {
	v := c.Locals(scopeKey)
	if v == nil {
		return nil
	}
	scope, _ := v.(*lightinject.Scope)
	return scope
}
