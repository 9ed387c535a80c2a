package lightinject

import (
	"log/slog"

	"github.com/feO2x/lightinject/internal/registry"
)

// LogEntry is a log record handed to a LogSink.
type LogEntry = registry.LogEntry

// LogLevel is a LogEntry severity.
type LogLevel = registry.Level

const (
	LogInfo    = registry.Info
	LogWarning = registry.Warning
)

// LogSink receives log entries for a named category. The default sink
// writes through log/slog — no new logging dependency is introduced for
// the core (see DESIGN.md).
type LogSink = registry.LogSink

// ContainerOptions configures a Container at construction time: the builder
// phase before the container locks itself on first resolve.
//
// EnableVariance and EnablePropertyInjection are *bool, not bool, so that an
// options literal that only sets an unrelated field (e.g.
// ContainerOptions{ScopeManagerProvider: ...}) leaves them at nil — "use the
// default" — instead of silently coercing to the bool zero value false and
// disabling both. withDefaults back-fills nil to true; pass BoolPtr(false)
// to explicitly disable one.
type ContainerOptions struct {
	// EnableVariance turns on covariant widening for enumerable resolution.
	// Default true (nil back-fills to true).
	EnableVariance *bool

	// EnablePropertyInjection turns on discovery of `inject:"true"`-tagged
	// struct fields during planning. Default true (nil back-fills to true).
	EnablePropertyInjection *bool

	// MaxResolutionDepth bounds recursive dependency resolution as a
	// defense against runaway (non-cyclic) dependency chains. Zero means
	// unbounded.
	MaxResolutionDepth int

	// LogSink receives diagnostic entries (locked-registry rejections,
	// fallback installs, ...). A nil sink defaults to log/slog at Info/Warn.
	LogSink LogSink

	// ScopeManagerProvider selects which concrete ScopeManager the
	// container uses. Defaults to a goroutine-local ThreadManager.
	ScopeManagerProvider ScopeManagerProvider
}

// DefaultContainerOptions returns the option set a plain New() call uses.
func DefaultContainerOptions() ContainerOptions {
	return ContainerOptions{
		EnableVariance:          BoolPtr(true),
		EnablePropertyInjection: BoolPtr(true),
		LogSink:                 SlogSink(slog.Default()),
	}
}

// BoolPtr takes the address of b, for filling ContainerOptions' *bool
// fields from a literal (Go has no &true syntax).
func BoolPtr(b bool) *bool { return &b }

// SlogSink adapts a *slog.Logger to a LogSink, the structured logger already
// used by the HTTP integration packages (not a newly introduced dependency).
func SlogSink(logger *slog.Logger) LogSink {
	return func(category string) func(LogEntry) {
		l := logger.With("category", category)
		return func(entry LogEntry) {
			switch entry.Level {
			case LogWarning:
				l.Warn(entry.Message)
			default:
				l.Info(entry.Message)
			}
		}
	}
}

func (o ContainerOptions) withDefaults() ContainerOptions {
	if o.LogSink == nil {
		o.LogSink = SlogSink(slog.Default())
	}
	if o.EnableVariance == nil {
		o.EnableVariance = BoolPtr(true)
	}
	if o.EnablePropertyInjection == nil {
		o.EnablePropertyInjection = BoolPtr(true)
	}
	return o
}
