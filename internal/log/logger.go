package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/phsym/console-slog"
	slogmulti "github.com/samber/slog-multi"
)

// Logger is a slog.Logger that stamps every record with a component name.
type Logger struct {
	*slog.Logger
	component string
}

// Config holds logger configuration
type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
}

func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: ComponentApp,
	}
}

func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = console.NewHandler(os.Stderr, &console.HandlerOptions{Level: config.Level})
	}
	return &Logger{
		Logger:    slog.New(handler),
		component: config.Component,
	}
}

// Output formats accepted by ParseFormat.
const (
	FormatConsole = "console"
	FormatText    = "text"
	FormatJSON    = "json"
)

// HandlerConfig selects the console format and an optional JSON tee.
type HandlerConfig struct {
	Level  slog.Level
	Format string
	Out    io.Writer
	// Tee, when set, receives every record as JSON in addition to Out.
	Tee io.Writer
}

// NewHandler builds the process handler. Records go to Out in the chosen
// format and, when Tee is set, fan out to a JSON handler as well.
func NewHandler(cfg HandlerConfig) slog.Handler {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	var primary slog.Handler
	switch cfg.Format {
	case FormatJSON:
		primary = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.Level})
	case FormatText:
		primary = slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.Level})
	default:
		primary = console.NewHandler(out, &console.HandlerOptions{
			AddSource: cfg.Level <= slog.LevelDebug,
			Level:     cfg.Level,
		})
	}

	if cfg.Tee == nil {
		return primary
	}
	return slogmulti.Fanout(
		primary,
		slog.NewJSONHandler(cfg.Tee, &slog.HandlerOptions{Level: cfg.Level}),
	)
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		component: l.component,
	}
}

func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger,
		component: component,
	}
}

func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args []any) {
	l.Logger.Log(ctx, level, msg, append([]any{FieldComponent, l.component}, args...)...)
}

func (l *Logger) Info(msg string, args ...any) { l.log(context.Background(), slog.LevelInfo, msg, args) }

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args)
}

func (l *Logger) Warn(msg string, args ...any) { l.log(context.Background(), slog.LevelWarn, msg, args) }

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args)
}

func (l *Logger) Error(msg string, args ...any) { l.log(context.Background(), slog.LevelError, msg, args) }

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, args)
}

func (l *Logger) Debug(msg string, args ...any) { l.log(context.Background(), slog.LevelDebug, msg, args) }

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args)
}

// SetDefault installs logger as the process-wide slog default.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}

func (l *Logger) Component() string {
	return l.component
}
