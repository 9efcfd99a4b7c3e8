// Package logger builds the charmbracelet logger used by the CLI and server.
package logger

import (
	"context"
	"io"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

type Config struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level  string
	JSON   bool
	Output io.Writer
}

// New creates a logger writing to cfg.Output (stderr when nil).
func New(cfg Config) *charmlog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	level, err := charmlog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = charmlog.InfoLevel
	}
	l := charmlog.NewWithOptions(out, charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          "taskrank",
	})
	if cfg.JSON {
		l.SetFormatter(charmlog.JSONFormatter)
	}
	return l
}

// Discard returns a logger that drops everything.
func Discard() *charmlog.Logger {
	return charmlog.New(io.Discard)
}

// WithContext stores l in ctx.
func WithContext(ctx context.Context, l *charmlog.Logger) context.Context {
	return charmlog.WithContext(ctx, l)
}

// FromContext returns the logger stored in ctx, or the package default.
func FromContext(ctx context.Context) *charmlog.Logger {
	return charmlog.FromContext(ctx)
}
