package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/jwebster45206/story-graph/internal/config"
)

const serviceName = "story-graph"

type ctxKey struct{}

// New builds the service logger. Production writes JSON; anything else
// writes text. Source locations are attached at debug level.
func New(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.LogLevel,
		AddSource: cfg.LogLevel <= slog.LevelDebug,
	}

	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With("service", serviceName, "environment", cfg.Environment)
}

// Setup builds the stdout logger and installs it as the slog default.
func Setup(cfg *config.Config) *slog.Logger {
	l := New(os.Stdout, cfg)
	slog.SetDefault(l)
	return l
}

// NewContext returns a copy of ctx carrying l.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request-scoped logger stored by NewContext, or
// fallback when ctx carries none.
func FromContext(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return fallback
}
