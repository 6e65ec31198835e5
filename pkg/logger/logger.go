// Package logger configures structured logging for InternAI on top of
// log/slog. All components receive a *slog.Logger; this package only owns
// handler setup, level parsing and the shared field helpers.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Format selects the log output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Options configures the logger.
type Options struct {
	// Output defaults to os.Stdout.
	Output io.Writer

	// Level is the minimum level to emit.
	Level slog.Level

	// Format selects JSON or human-readable text output.
	Format Format

	// AddSource includes file:line of the call site.
	AddSource bool

	// Service is attached to every record as the "service" attribute.
	Service string
}

// DefaultOptions returns sensible defaults for the logger.
func DefaultOptions() Options {
	return Options{
		Output:  os.Stdout,
		Level:   slog.LevelInfo,
		Format:  FormatJSON,
		Service: "internai",
	}
}

// New creates a configured *slog.Logger.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	switch opts.Format {
	case FormatText:
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	default:
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	}

	log := slog.New(handler)
	if opts.Service != "" {
		log = log.With("service", opts.Service)
	}
	return log
}

// Default creates a logger with default options.
func Default() *slog.Logger {
	return New(DefaultOptions())
}

// ParseLevel converts a level string to a slog.Level. Unknown strings
// fall back to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseFormat converts a format string to a Format. Unknown strings fall
// back to JSON.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatText)) {
		return FormatText
	}
	return FormatJSON
}

// ═══════════════════════════════════════════════════════════════════════════
// Context plumbing
// ═══════════════════════════════════════════════════════════════════════════

type ctxKey struct{}

// WithContext stores the logger in the context.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves the logger from the context, or the default
// logger when none is stored.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// ═══════════════════════════════════════════════════════════════════════════
// Shared field helpers
// ═══════════════════════════════════════════════════════════════════════════

func UserID(id string) slog.Attr       { return slog.String("user_id", id) }
func WeekNumber(n int) slog.Attr       { return slog.Int("week_number", n) }
func ItemID(id string) slog.Attr       { return slog.String("item_id", id) }
func Slug(slug string) slog.Attr       { return slog.String("slug", slug) }
func Topic(topic string) slog.Attr     { return slog.String("topic", topic) }
func Component(name string) slog.Attr  { return slog.String("component", name) }
func Operation(name string) slog.Attr  { return slog.String("operation", name) }
func Latency(d time.Duration) slog.Attr { return slog.Duration("latency", d) }
func Err(err error) slog.Attr          { return slog.Any("error", err) }
